/*
 *  Copyright (c) 2024 Mikhail Knyazhev <markus621@yandex.ru>. All rights reserved.
 *  Use of this source code is governed by a BSD 3-Clause license that can be found in the LICENSE file.
 */

package listen

import (
	"net"
	"os"
	"time"

	"go.osspkg.com/errors"
	"go.osspkg.com/logx"
	"go.osspkg.com/syncing"
	"golang.org/x/sys/unix"

	"go.osspkg.com/pollecho/errs"
	netfd "go.osspkg.com/pollecho/fd"
	"go.osspkg.com/pollecho/internal"
)

var ErrSocket = errors.New("socket error")

type (
	Config struct {
		Port      int
		Interface net.IP
		Backlog   int
		Timeout   time.Duration
	}

	// Socket is a non-blocking listening TCP descriptor.
	Socket struct {
		fd     int
		addr   string
		closed syncing.Switch
	}
)

// New creates a stream socket, makes it non-blocking with address reuse,
// binds it to (Interface, Port) and starts listening. Nothing is retried.
func New(c Config) (*Socket, error) {
	c.Backlog = internal.NotZero(c.Backlog, internal.DefaultBacklog)
	c.Timeout = internal.NotZeroDuration(c.Timeout, internal.DefaultIOTimeout)

	sa, family := sockaddr(c.Interface, c.Port)

	fd, err := unix.Socket(family, unix.SOCK_STREAM, unix.IPPROTO_TCP)
	if err != nil {
		return nil, fail("socket", err)
	}
	unix.CloseOnExec(fd)

	defer func() {
		if err != nil {
			_ = unix.Close(fd)
		}
	}()

	if err = SetNonBlocking(fd, c.Timeout); err != nil {
		return nil, fail("set options", err)
	}
	if err = SetReuseAddr(fd); err != nil {
		return nil, fail("set options", err)
	}
	if err = unix.Bind(fd, sa); err != nil {
		return nil, fail("bind", err)
	}
	if err = unix.Listen(fd, c.Backlog); err != nil {
		return nil, fail("listen", err)
	}

	return &Socket{
		fd:     fd,
		addr:   netfd.SelfIdentifier(fd),
		closed: syncing.NewSwitch(),
	}, nil
}

func fail(op string, err error) error {
	if _, ok := err.(*os.SyscallError); !ok {
		err = os.NewSyscallError(op, err)
	}
	logx.Error("Listener "+op, "err", err, "code", errs.Code(err))
	return errors.Wrap(err, ErrSocket)
}

func (s *Socket) FD() int {
	return s.fd
}

func (s *Socket) Addr() string {
	return s.addr
}

func (s *Socket) Port() int {
	return netfd.SelfPort(s.fd)
}

func (s *Socket) Close() error {
	if !s.closed.On() {
		return nil
	}
	return netfd.Close(s.fd)
}

// SetNonBlocking applies send/receive timeouts and O_NONBLOCK, so blocking
// calls report would-block instead of hanging.
func SetNonBlocking(fd int, timeout time.Duration) error {
	tv := unix.NsecToTimeval(timeout.Nanoseconds())
	if err := unix.SetsockoptTimeval(fd, unix.SOL_SOCKET, unix.SO_RCVTIMEO, &tv); err != nil {
		return os.NewSyscallError("setsockopt SO_RCVTIMEO", err)
	}
	if err := unix.SetsockoptTimeval(fd, unix.SOL_SOCKET, unix.SO_SNDTIMEO, &tv); err != nil {
		return os.NewSyscallError("setsockopt SO_SNDTIMEO", err)
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		return os.NewSyscallError("fcntl O_NONBLOCK", err)
	}
	return nil
}

func SetReuseAddr(fd int) error {
	return os.NewSyscallError("setsockopt SO_REUSEADDR",
		unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1))
}

func sockaddr(ip net.IP, port int) (unix.Sockaddr, int) {
	if ip == nil {
		ip = net.IPv4zero
	}
	if ip4 := ip.To4(); ip4 != nil {
		sa := &unix.SockaddrInet4{Port: port}
		copy(sa.Addr[:], ip4)
		return sa, unix.AF_INET
	}
	sa := &unix.SockaddrInet6{Port: port}
	copy(sa.Addr[:], ip.To16())
	return sa, unix.AF_INET6
}
