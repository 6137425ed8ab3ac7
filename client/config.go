/*
 *  Copyright (c) 2024-2025 Mikhail Knyazhev <markus621@yandex.ru>. All rights reserved.
 *  Use of this source code is governed by a BSD 3-Clause license that can be found in the LICENSE file.
 */

package client

import (
	"fmt"
	"net"
	"time"

	"go.osspkg.com/pollecho/address"
	"go.osspkg.com/pollecho/internal"
)

const (
	DefaultPayload  = "hi"
	DefaultInterval = 5 * time.Second

	bufferSize = 1024
)

type Config struct {
	LocalAddress string
	LocalPort    int
	Address      string
	Port         int
	Payload      string
	Interval     time.Duration
	// Timeout bounds a single send/receive exchange, zero waits forever.
	Timeout time.Duration
}

func (c *Config) Default() {
	if len(c.Payload) == 0 {
		c.Payload = DefaultPayload
	}
	c.Interval = internal.NotZeroDuration(c.Interval, DefaultInterval)
}

func (c Config) Resolve() (local, remote *net.TCPAddr, err error) {
	if c.Port <= 0 || c.Port > 65535 {
		return nil, nil, fmt.Errorf("server port %d: %w", c.Port, address.ErrInvalidPort)
	}
	if c.LocalPort < 0 || c.LocalPort > 65535 {
		return nil, nil, fmt.Errorf("local port %d: %w", c.LocalPort, address.ErrInvalidPort)
	}

	ip, err := address.ParseInterface(c.LocalAddress)
	if err != nil {
		return nil, nil, fmt.Errorf("local address: %w", err)
	}
	local = &net.TCPAddr{IP: ip, Port: c.LocalPort}

	if ip, err = address.ParseInterface(c.Address); err != nil {
		return nil, nil, fmt.Errorf("server address: %w", err)
	}
	remote = &net.TCPAddr{IP: ip, Port: c.Port}

	return local, remote, nil
}
