/*
 *  Copyright (c) 2024 Mikhail Knyazhev <markus621@yandex.ru>. All rights reserved.
 *  Use of this source code is governed by a BSD 3-Clause license that can be found in the LICENSE file.
 */

package fd

import (
	"net"
	"os"

	"golang.org/x/sys/unix"

	"go.osspkg.com/pollecho/address"
)

const (
	Invalid = -1

	unknownIdentifier = "failed to get identifier"
)

// PeerIdentifier returns ip:port of the remote end of a connected socket.
func PeerIdentifier(fd int) string {
	sa, err := unix.Getpeername(fd)
	if err != nil {
		return unknownIdentifier
	}
	return Identifier(sa)
}

// SelfIdentifier returns ip:port the socket is bound to.
func SelfIdentifier(fd int) string {
	sa, err := unix.Getsockname(fd)
	if err != nil {
		return unknownIdentifier
	}
	return Identifier(sa)
}

func Identifier(sa unix.Sockaddr) string {
	switch v := sa.(type) {
	case *unix.SockaddrInet4:
		return address.JoinIPPort(net.IP(v.Addr[:]), v.Port)
	case *unix.SockaddrInet6:
		return address.JoinIPPort(net.IP(v.Addr[:]), v.Port)
	default:
		return unknownIdentifier
	}
}

// SelfPort returns the bound port or 0.
func SelfPort(fd int) int {
	sa, err := unix.Getsockname(fd)
	if err != nil {
		return 0
	}
	switch v := sa.(type) {
	case *unix.SockaddrInet4:
		return v.Port
	case *unix.SockaddrInet6:
		return v.Port
	default:
		return 0
	}
}

func Close(fd int) error {
	if fd < 0 {
		return nil
	}
	return os.NewSyscallError("close", unix.Close(fd))
}

// IsOpen asks the kernel whether the descriptor is still allocated.
func IsOpen(fd int) bool {
	if fd < 0 {
		return false
	}
	_, err := unix.FcntlInt(uintptr(fd), unix.F_GETFD, 0)
	return err == nil
}
