/*
 *  Copyright (c) 2024 Mikhail Knyazhev <markus621@yandex.ru>. All rights reserved.
 *  Use of this source code is governed by a BSD 3-Clause license that can be found in the LICENSE file.
 */

package poll

import (
	"go.osspkg.com/errors"
	"go.osspkg.com/ioutils/pool"
	"golang.org/x/sys/unix"
)

const (
	eventRead = unix.POLLIN
	eventHup  = unix.POLLHUP
)

var (
	ErrPoll            = errors.New("poll failed")
	ErrAccept          = errors.New("accept failed")
	ErrUnexpectedEvent = errors.New("unexpected poll event")
	ErrLoopUsed        = errors.New("loop already used")
)

var chunkPool = pool.New[*chunk](func() *chunk {
	return &chunk{}
})

type chunk struct {
	B []byte
}

func (*chunk) Reset() {}

func (c *chunk) Size(n int) []byte {
	if cap(c.B) < n {
		c.B = make([]byte, n)
	}
	return c.B[:n]
}
