/*
 *  Copyright (c) 2024 Mikhail Knyazhev <markus621@yandex.ru>. All rights reserved.
 *  Use of this source code is governed by a BSD 3-Clause license that can be found in the LICENSE file.
 */

package poll

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"sync/atomic"

	"go.osspkg.com/errors"
	"go.osspkg.com/logx"
	"go.osspkg.com/syncing"
	"golang.org/x/sys/unix"

	"go.osspkg.com/pollecho/errs"
	netfd "go.osspkg.com/pollecho/fd"
	"go.osspkg.com/pollecho/internal"
)

type (
	// Loop is a single-threaded readiness loop over a Table. Slot 0 holds the
	// listener, every other slot is an echo peer. The listener descriptor
	// stays owned by the caller; peers are owned by the loop.
	Loop struct {
		cfg      Config
		listener int
		table    *Table
		state    atomic.Uint32
		used     syncing.Switch
	}
)

func New(listener int, c Config) (*Loop, error) {
	c = c.withDefaults()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	if listener < 0 {
		return nil, fmt.Errorf("invalid listener descriptor")
	}
	v := &Loop{
		cfg:      c,
		listener: listener,
		table:    NewTable(c.Capacity),
		used:     syncing.NewSwitch(),
	}
	v.table.Insert(listener)
	return v, nil
}

func (v *Loop) State() State {
	return State(v.state.Load())
}

func (v *Loop) setState(s State) {
	v.state.Store(uint32(s))
}

// Run polls until ctx is done or a loop-level fault happens. Either way all
// peer descriptors are closed before it returns.
func (v *Loop) Run(ctx context.Context) (err error) {
	if !v.used.On() {
		return ErrLoopUsed
	}

	v.setState(StateRunning)
	defer func() {
		v.setState(StateShuttingDown)
		v.closePeers()
		v.setState(StateStopped)
	}()

	timeout := int(v.cfg.Tick.Milliseconds())

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		n, err0 := unix.Poll(v.table.active(), timeout)
		if err0 != nil {
			if errs.IsInterrupted(err0) {
				continue
			}
			err0 = os.NewSyscallError("poll", err0)
			logx.Error("Poll failed, closing server", "err", err0, "code", errs.Code(err0))
			return errors.Wrap(err0, ErrPoll)
		}
		if n == 0 {
			continue
		}

		if err = v.dispatch(); err != nil {
			return
		}

		v.compact()
	}
}

func (v *Loop) dispatch() error {
	// entries accepted during this round are picked up by the next one
	count := v.table.Len()

	for i := 0; i < count; i++ {
		e := v.table.Entry(i)
		if e.Revents == 0 {
			continue
		}

		if e.Revents&eventRead == 0 {
			logx.Error("Unexpected poll event, closing server", "revents", e.Revents, "fd", e.Fd)
			return errors.Wrapf(ErrUnexpectedEvent, "revents %#x on fd %d", e.Revents, e.Fd)
		}

		if int(e.Fd) == v.listener {
			if err := v.drainAccept(); err != nil {
				return err
			}
			continue
		}

		v.handleEcho(i)
	}

	return nil
}

func (v *Loop) compact() {
	if v.table.Removed() > 0 {
		v.table.Compact()
	}
	if v.table.IsPaused(0) && !v.table.IsFull() {
		v.table.Resume(0)
		logx.Info("Accept resumed", "live", v.table.Live(), "capacity", v.table.Cap())
	}
}

func (v *Loop) release(i int) {
	fd := v.table.FD(i)
	internal.WriteErrLog("Close connection", netfd.Close(fd), strconv.Itoa(fd))
	v.table.MarkRemoved(i)
}

func (v *Loop) closePeers() {
	var closed int
	for i := 0; i < v.table.Len(); i++ {
		fd := v.table.FD(i)
		if fd == v.listener || fd == netfd.Invalid {
			continue
		}
		v.release(i)
		closed++
	}
	v.table.Compact()
	logx.Info("Connections closed", "count", closed)
}
