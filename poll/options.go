/*
 *  Copyright (c) 2024 Mikhail Knyazhev <markus621@yandex.ru>. All rights reserved.
 *  Use of this source code is governed by a BSD 3-Clause license that can be found in the LICENSE file.
 */

package poll

import (
	"fmt"
	"time"

	"go.osspkg.com/pollecho/internal"
)

type (
	Config struct {
		// Capacity bounds the table, slot 0 included.
		Capacity  int
		ChunkSize int
		Tick      time.Duration
	}
)

func (c Config) withDefaults() Config {
	c.Capacity = internal.NotZero(c.Capacity, internal.DefaultCapacity)
	c.ChunkSize = internal.NotZero(c.ChunkSize, internal.DefaultChunkSize)
	c.Tick = internal.NotZeroDuration(c.Tick, internal.DefaultTick)
	return c
}

func (c Config) Validate() error {
	if c.Capacity < 2 {
		return fmt.Errorf("poll capacity must fit listener and one peer")
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("poll chunk size is empty")
	}
	if c.Tick < time.Millisecond {
		return fmt.Errorf("poll tick is less than 1ms")
	}
	return nil
}
