/*
 *  Copyright (c) 2024-2025 Mikhail Knyazhev <markus621@yandex.ru>. All rights reserved.
 *  Use of this source code is governed by a BSD 3-Clause license that can be found in the LICENSE file.
 */

package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"syscall"
	"time"

	"go.osspkg.com/errors"
	"go.osspkg.com/syncing"

	"go.osspkg.com/pollecho/internal"
	"go.osspkg.com/pollecho/listen"
)

var ErrServerClosed = errors.New("server closed connection")

type (
	Client interface {
		Run(ctx context.Context, w io.Writer) error
	}

	_client struct {
		conf   Config
		local  *net.TCPAddr
		remote *net.TCPAddr
	}
)

func New(c Config) (Client, error) {
	c.Default()

	local, remote, err := c.Resolve()
	if err != nil {
		return nil, fmt.Errorf("resolve address: %w", err)
	}

	return &_client{
		conf:   c,
		local:  local,
		remote: remote,
	}, nil
}

func (v *_client) dial(ctx context.Context) (net.Conn, error) {
	dial := net.Dialer{
		LocalAddr: v.local,
		Control: func(_, _ string, rc syscall.RawConn) error {
			var sockErr error
			if err := rc.Control(func(fd uintptr) {
				sockErr = listen.SetReuseAddr(int(fd))
			}); err != nil {
				return err
			}
			return sockErr
		},
	}
	conn, err := dial.DialContext(ctx, internal.NetTCP, v.remote.String())
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", internal.NetTCP, err)
	}
	return conn, nil
}

// Run sends the payload once per interval and prints whatever sits in the
// receive buffer afterwards. The buffer is reused between exchanges, so bytes
// of a longer earlier reply stay visible after a shorter one.
func (v *_client) Run(ctx context.Context, w io.Writer) (err error) {
	conn, err := v.dial(ctx)
	if err != nil {
		writeLog(err, "Failed to connect to server", v.local.String(), v.remote.String())
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	wg := syncing.NewGroup()
	wg.Background(func() {
		<-ctx.Done()
		conn.Close() //nolint: errcheck
	})
	defer func() {
		cancel()
		wg.Wait()
	}()

	fmt.Fprintf(w, "bound on %s and connected to %s\n", conn.LocalAddr(), conn.RemoteAddr())

	payload := []byte(v.conf.Payload)
	buff := make([]byte, bufferSize)
	tik := time.NewTicker(v.conf.Interval)
	defer tik.Stop()

	for {
		fmt.Fprintf(w, "Lub %s... ", v.conf.Payload)

		if err = v.exchange(conn, payload, buff); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, ErrServerClosed) {
				fmt.Fprintln(w, "Server closed connection")
				return err
			}
			writeLog(err, "Error exchanging data with server", conn.LocalAddr().String(), v.remote.String())
			return err
		}

		fmt.Fprintf(w, "Dub... %s\n", cstring(buff))

		select {
		case <-ctx.Done():
			return nil
		case <-tik.C:
		}
	}
}

func (v *_client) exchange(conn net.Conn, payload, buff []byte) error {
	if err := internal.Deadline(conn, v.conf.Timeout); err != nil {
		return err
	}
	if _, err := conn.Write(payload); err != nil {
		return fmt.Errorf("send: %w", err)
	}
	n, err := conn.Read(buff)
	if n == 0 && (err == nil || errors.Is(err, io.EOF)) {
		return ErrServerClosed
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("receive: %w", err)
	}
	return nil
}

func cstring(b []byte) []byte {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return b[:i]
	}
	return b
}
