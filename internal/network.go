/*
 *  Copyright (c) 2024 Mikhail Knyazhev <markus621@yandex.ru>. All rights reserved.
 *  Use of this source code is governed by a BSD 3-Clause license that can be found in the LICENSE file.
 */

package internal

import (
	"time"

	"go.osspkg.com/errors"
)

const (
	NetTCP = "tcp"

	DefaultPort      = 3000
	DefaultBacklog   = 10
	DefaultCapacity  = 1024
	DefaultChunkSize = 1024
	DefaultTick      = 100 * time.Millisecond
	DefaultIOTimeout = time.Second
)

type TDeadline interface {
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
}

func Deadline(c TDeadline, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	t := time.Now().Add(ttl)
	return errors.Wrap(
		c.SetReadDeadline(t),
		c.SetWriteDeadline(t),
	)
}
