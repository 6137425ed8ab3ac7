/*
 *  Copyright (c) 2024 Mikhail Knyazhev <markus621@yandex.ru>. All rights reserved.
 *  Use of this source code is governed by a BSD 3-Clause license that can be found in the LICENSE file.
 */

package poll

import (
	"os"
	"strconv"

	"go.osspkg.com/errors"
	"go.osspkg.com/logx"
	"golang.org/x/sys/unix"

	"go.osspkg.com/pollecho/errs"
	netfd "go.osspkg.com/pollecho/fd"
	"go.osspkg.com/pollecho/internal"
)

// drainAccept accepts until the listener would block, so a backlog of
// pending connections is emptied in one round. A full table parks the
// listener instead: the rest stays in the kernel backlog until a slot frees.
func (v *Loop) drainAccept() error {
	for {
		if v.table.IsFull() {
			v.pauseAccept()
			return nil
		}

		nfd, _, err := unix.Accept(v.listener)
		if err != nil {
			switch {
			case errs.IsWouldBlock(err):
				return nil
			case errs.IsInterrupted(err):
				continue
			}
			err = os.NewSyscallError("accept", err)
			logx.Error("Accept connection, closing server", "err", err, "code", errs.Code(err))
			return errors.Wrap(err, ErrAccept)
		}

		unix.CloseOnExec(nfd)
		if err = unix.SetNonblock(nfd, true); err != nil {
			logx.Warn("Set connection non-blocking", "err", err, "code", errs.Code(err), "peer", netfd.PeerIdentifier(nfd))
			internal.WriteErrLog("Close connection", netfd.Close(nfd), strconv.Itoa(nfd))
			continue
		}

		v.table.Insert(nfd)
		logx.Info("Got a new connection", "peer", netfd.PeerIdentifier(nfd), "fd", nfd)
	}
}

func (v *Loop) pauseAccept() {
	if v.table.IsPaused(0) {
		return
	}
	v.table.Pause(0)
	logx.Warn("Connection table is full, accept paused", "capacity", v.table.Cap())
}
