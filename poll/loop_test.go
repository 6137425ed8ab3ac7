/*
 *  Copyright (c) 2024 Mikhail Knyazhev <markus621@yandex.ru>. All rights reserved.
 *  Use of this source code is governed by a BSD 3-Clause license that can be found in the LICENSE file.
 */

package poll_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"testing"
	"time"

	"go.osspkg.com/casecheck"
	"go.osspkg.com/errors"
	"golang.org/x/sys/unix"

	"go.osspkg.com/pollecho/errs"
	"go.osspkg.com/pollecho/listen"
	"go.osspkg.com/pollecho/poll"
)

type testLoop struct {
	sock   *listen.Socket
	loop   *poll.Loop
	cancel context.CancelFunc
	done   chan error
}

func startLoop(t *testing.T, c poll.Config) *testLoop {
	t.Helper()

	sock, err := listen.New(listen.Config{Interface: net.IPv4(127, 0, 0, 1)})
	casecheck.NoError(t, err)

	loop, err := poll.New(sock.FD(), c)
	casecheck.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	v := &testLoop{sock: sock, loop: loop, cancel: cancel, done: make(chan error, 1)}
	go func() {
		v.done <- loop.Run(ctx)
	}()

	t.Cleanup(func() {
		cancel()
		v.wait(t)
		sock.Close() //nolint: errcheck
	})
	return v
}

func (v *testLoop) wait(t *testing.T) error {
	t.Helper()
	select {
	case err, ok := <-v.done:
		if ok {
			close(v.done)
		}
		return err
	case <-time.After(2 * time.Second):
		t.Fatalf("loop did not stop")
		return nil
	}
}

func (v *testLoop) dial(t *testing.T) net.Conn {
	t.Helper()
	conn, err := net.DialTimeout("tcp", v.sock.Addr(), time.Second)
	casecheck.NoError(t, err)
	t.Cleanup(func() { conn.Close() }) //nolint: errcheck
	return conn
}

func echo(conn net.Conn, payload []byte, wait time.Duration) ([]byte, error) {
	if _, err := conn.Write(payload); err != nil {
		return nil, err
	}
	if err := conn.SetReadDeadline(time.Now().Add(wait)); err != nil {
		return nil, err
	}
	got := make([]byte, len(payload))
	_, err := io.ReadFull(conn, got)
	return got, err
}

func TestUnit_LoopEcho(t *testing.T) {
	v := startLoop(t, poll.Config{})
	conn := v.dial(t)

	for _, size := range []int{1, 2, 100, 1023, 1024} {
		t.Run(fmt.Sprintf("Size%d", size), func(t *testing.T) {
			payload := bytes.Repeat([]byte{byte(size)}, size)
			got, err := echo(conn, payload, 2*time.Second)
			casecheck.NoError(t, err)
			casecheck.True(t, bytes.Equal(payload, got))
		})
	}

	casecheck.Equal(t, poll.StateRunning, v.loop.State())
}

func TestUnit_LoopEchoLargerThanChunk(t *testing.T) {
	v := startLoop(t, poll.Config{ChunkSize: 16})
	conn := v.dial(t)

	payload := bytes.Repeat([]byte("0123456789"), 50)
	got, err := echo(conn, payload, 2*time.Second)
	casecheck.NoError(t, err)
	casecheck.True(t, bytes.Equal(payload, got))
}

func TestUnit_LoopManyPeers(t *testing.T) {
	v := startLoop(t, poll.Config{})

	conns := make([]net.Conn, 0, 20)
	for i := 0; i < 20; i++ {
		conns = append(conns, v.dial(t))
	}
	for i, conn := range conns {
		payload := []byte(fmt.Sprintf("peer-%d", i))
		got, err := echo(conn, payload, 2*time.Second)
		casecheck.NoError(t, err)
		casecheck.Equal(t, string(payload), string(got))
	}
}

func TestUnit_LoopCapacity(t *testing.T) {
	v := startLoop(t, poll.Config{Capacity: 4})

	conns := make([]net.Conn, 0, 3)
	for i := 0; i < 3; i++ {
		conn := v.dial(t)
		got, err := echo(conn, []byte("hi"), 2*time.Second)
		casecheck.NoError(t, err)
		casecheck.Equal(t, "hi", string(got))
		conns = append(conns, conn)
	}

	extra := v.dial(t)
	_, err := echo(extra, []byte("wait"), 300*time.Millisecond)
	casecheck.Error(t, err)
	casecheck.True(t, isTimeout(err))

	casecheck.NoError(t, conns[0].Close())

	casecheck.NoError(t, extra.SetReadDeadline(time.Now().Add(2*time.Second)))
	got := make([]byte, 4)
	_, err = io.ReadFull(extra, got)
	casecheck.NoError(t, err)
	casecheck.Equal(t, "wait", string(got))

	for _, conn := range conns[1:] {
		got, err := echo(conn, []byte("still"), 2*time.Second)
		casecheck.NoError(t, err)
		casecheck.Equal(t, "still", string(got))
	}
}

func TestUnit_LoopResetFreesSlot(t *testing.T) {
	v := startLoop(t, poll.Config{Capacity: 2})

	first := v.dial(t)
	_, err := echo(first, []byte("a"), 2*time.Second)
	casecheck.NoError(t, err)

	second := v.dial(t)

	casecheck.NoError(t, first.(*net.TCPConn).SetLinger(0))
	casecheck.NoError(t, first.Close())

	got, err := echo(second, []byte("b"), 2*time.Second)
	casecheck.NoError(t, err)
	casecheck.Equal(t, "b", string(got))
}

func TestUnit_LoopShutdownClosesPeers(t *testing.T) {
	v := startLoop(t, poll.Config{Tick: 50 * time.Millisecond})

	conns := make([]net.Conn, 0, 3)
	for i := 0; i < 3; i++ {
		conn := v.dial(t)
		_, err := echo(conn, []byte("x"), 2*time.Second)
		casecheck.NoError(t, err)
		conns = append(conns, conn)
	}

	start := time.Now()
	v.cancel()
	casecheck.NoError(t, v.wait(t))
	casecheck.True(t, time.Since(start) < time.Second)
	casecheck.Equal(t, poll.StateStopped, v.loop.State())

	for _, conn := range conns {
		casecheck.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
		_, err := conn.Read(make([]byte, 1))
		casecheck.True(t, errs.IsClosed(err))
	}

	casecheck.True(t, errors.Is(v.loop.Run(context.Background()), poll.ErrLoopUsed))
}

func TestUnit_LoopShutdownListenerIsFatal(t *testing.T) {
	v := startLoop(t, poll.Config{Tick: 20 * time.Millisecond})

	conn := v.dial(t)
	_, err := echo(conn, []byte("x"), 2*time.Second)
	casecheck.NoError(t, err)

	casecheck.NoError(t, unix.Shutdown(v.sock.FD(), unix.SHUT_RD))

	err = v.wait(t)
	casecheck.Error(t, err)
	casecheck.True(t, errors.Is(err, poll.ErrUnexpectedEvent) || errors.Is(err, poll.ErrAccept))
	casecheck.Equal(t, poll.StateStopped, v.loop.State())

	casecheck.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, err = conn.Read(make([]byte, 1))
	casecheck.True(t, errs.IsClosed(err))
}

func TestUnit_LoopUnexpectedEventIsFatal(t *testing.T) {
	p := make([]int, 2)
	casecheck.NoError(t, unix.Pipe2(p, unix.O_NONBLOCK|unix.O_CLOEXEC))
	defer unix.Close(p[1]) //nolint: errcheck

	// a write end without readers reports an error but never readability
	casecheck.NoError(t, unix.Close(p[0]))

	loop, err := poll.New(p[1], poll.Config{Tick: 20 * time.Millisecond})
	casecheck.NoError(t, err)

	err = loop.Run(context.Background())
	casecheck.Error(t, err)
	casecheck.True(t, errors.Is(err, poll.ErrUnexpectedEvent))
	casecheck.Equal(t, poll.StateStopped, loop.State())
}

func TestUnit_LoopAcceptErrorIsFatal(t *testing.T) {
	pair, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	casecheck.NoError(t, err)
	defer unix.Close(pair[0]) //nolint: errcheck
	defer unix.Close(pair[1]) //nolint: errcheck

	// readable, but accept on a connected stream fails with EINVAL
	_, err = unix.Write(pair[1], []byte("x"))
	casecheck.NoError(t, err)

	loop, err := poll.New(pair[0], poll.Config{Tick: 20 * time.Millisecond})
	casecheck.NoError(t, err)

	err = loop.Run(context.Background())
	casecheck.Error(t, err)
	casecheck.True(t, errors.Is(err, poll.ErrAccept))
	casecheck.Equal(t, int(unix.EINVAL), errs.Code(err))
	casecheck.Equal(t, poll.StateStopped, loop.State())
}

func TestUnit_LoopStalledPeerIsDropped(t *testing.T) {
	v := startLoop(t, poll.Config{Capacity: 2})

	stalled := v.dial(t)
	casecheck.NoError(t, stalled.(*net.TCPConn).SetReadBuffer(4096))
	casecheck.NoError(t, stalled.SetWriteDeadline(time.Now().Add(10*time.Second)))

	// never read: the echo side fills up and the loop has to drop the peer
	block := bytes.Repeat([]byte{'z'}, 64*1024)
	var err error
	for err == nil {
		_, err = stalled.Write(block)
	}
	casecheck.False(t, isTimeout(err))

	next := v.dial(t)
	got, err := echo(next, []byte("ok"), 2*time.Second)
	casecheck.NoError(t, err)
	casecheck.Equal(t, "ok", string(got))
}

func TestUnit_LoopInvalidConfig(t *testing.T) {
	_, err := poll.New(3, poll.Config{Capacity: 1})
	casecheck.Error(t, err)

	_, err = poll.New(-1, poll.Config{})
	casecheck.Error(t, err)
}

func isTimeout(err error) bool {
	ne, ok := err.(net.Error)
	return ok && ne.Timeout()
}
