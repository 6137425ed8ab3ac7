/*
 *  Copyright (c) 2024 Mikhail Knyazhev <markus621@yandex.ru>. All rights reserved.
 *  Use of this source code is governed by a BSD 3-Clause license that can be found in the LICENSE file.
 */

package poll

import (
	"go.osspkg.com/logx"
	"golang.org/x/sys/unix"

	"go.osspkg.com/pollecho/errs"
	netfd "go.osspkg.com/pollecho/fd"
)

// handleEcho drains everything readable on the peer at index i and writes
// every chunk straight back. Returns true when the peer was closed.
func (v *Loop) handleEcho(i int) (closed bool) {
	e := v.table.Entry(i)
	fd := int(e.Fd)
	peer := netfd.PeerIdentifier(fd)

	// no read after hang-up: it races with an empty read
	if e.Revents&eventHup != 0 {
		logx.Info("Connection closed by peer", "peer", peer)
		v.release(i)
		return true
	}

	buff := chunkPool.Get()
	defer chunkPool.Put(buff)
	b := buff.Size(v.cfg.ChunkSize)

	for {
		n, err := unix.Read(fd, b)
		if err != nil {
			if errs.IsWouldBlock(err) {
				return false
			}
			if errs.IsInterrupted(err) {
				continue
			}
			logx.Warn("Failed to read from connection", "peer", peer, "err", err, "code", errs.Code(err))
			v.release(i)
			return true
		}

		if n == 0 {
			logx.Info("Connection closed by peer", "peer", peer)
			v.release(i)
			return true
		}

		logx.Debug("Received data", "peer", peer, "size", n)

		// a short write is not resumed, the peer is dropped instead
		m, err := unix.Write(fd, b[:n])
		if err != nil || m != n {
			logx.Warn("Failed to echo to connection", "peer", peer, "err", err, "code", errs.Code(err), "written", m, "size", n)
			v.release(i)
			return true
		}
	}
}
