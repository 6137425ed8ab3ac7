/*
 *  Copyright (c) 2024-2025 Mikhail Knyazhev <markus621@yandex.ru>. All rights reserved.
 *  Use of this source code is governed by a BSD 3-Clause license that can be found in the LICENSE file.
 */

package address

import (
	"net"
	"strconv"
	"strings"

	"go.osspkg.com/errors"
)

var (
	ErrResolveTCPAddress = errors.New("resolve tcp address")
	ErrInvalidPort       = errors.New("invalid port")
	ErrInvalidIP         = errors.New("invalid ip address")
)

const AnyInterface = "0.0.0.0"

func RandomPort(host string) (string, error) {
	network := "tcp4"
	if strings.Contains(host, ":") {
		network = "tcp6"
	}

	host = net.JoinHostPort(host, "0")
	addr, err := net.ResolveTCPAddr(network, host)
	if err != nil {
		return host, errors.Wrap(err, ErrResolveTCPAddress)
	}

	l, err := net.ListenTCP(network, addr)
	if err != nil {
		return host, errors.Wrap(err, ErrResolveTCPAddress)
	}

	v := l.Addr().String()

	if err = l.Close(); err != nil {
		return host, errors.Wrap(err, ErrResolveTCPAddress)
	}

	return v, nil
}

// ParsePort accepts a base-10 port number in range 1..65535, nothing else.
func ParsePort(s string) (int, error) {
	v, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, errors.Wrapf(ErrInvalidPort, "parse %q", s)
	}
	if v == 0 {
		return 0, errors.Wrapf(ErrInvalidPort, "parse %q", s)
	}
	return int(v), nil
}

// ParseInterface resolves an interface argument: empty means loopback,
// 0.0.0.0 means every interface, anything else must be a literal IP.
func ParseInterface(s string) (net.IP, error) {
	switch s {
	case "":
		return net.IPv4(127, 0, 0, 1), nil
	case AnyInterface:
		return net.IPv4zero, nil
	}
	ip := net.ParseIP(s)
	if ip == nil {
		return nil, errors.Wrapf(ErrInvalidIP, "parse %q", s)
	}
	return ip, nil
}

func JoinIPPort(ip net.IP, port int) string {
	if ip == nil {
		ip = net.IPv4zero
	}
	return net.JoinHostPort(ip.String(), strconv.Itoa(port))
}
