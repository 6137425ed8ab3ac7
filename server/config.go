/*
 *  Copyright (c) 2024-2025 Mikhail Knyazhev <markus621@yandex.ru>. All rights reserved.
 *  Use of this source code is governed by a BSD 3-Clause license that can be found in the LICENSE file.
 */

package server

import (
	"os"
	"time"

	"go.osspkg.com/errors"
	"go.osspkg.com/ioutils/fs"
	"gopkg.in/yaml.v2"

	"go.osspkg.com/pollecho/address"
	"go.osspkg.com/pollecho/internal"
)

type (
	Config struct {
		Port      int           `yaml:"port"`
		Interface string        `yaml:"interface"`
		Backlog   int           `yaml:"backlog,omitempty"`
		Capacity  int           `yaml:"capacity,omitempty"`
		ChunkSize int           `yaml:"chunk_size,omitempty"`
		Tick      time.Duration `yaml:"tick,omitempty"`
		IOTimeout time.Duration `yaml:"io_timeout,omitempty"`
	}
)

// Default fills every unset field. An empty interface means all interfaces.
func (c *Config) Default() {
	c.Port = internal.NotZero(c.Port, internal.DefaultPort)
	if len(c.Interface) == 0 {
		c.Interface = address.AnyInterface
	}
	c.Backlog = internal.NotZero(c.Backlog, internal.DefaultBacklog)
	c.Capacity = internal.NotZero(c.Capacity, internal.DefaultCapacity)
	c.ChunkSize = internal.NotZero(c.ChunkSize, internal.DefaultChunkSize)
	c.Tick = internal.NotZeroDuration(c.Tick, internal.DefaultTick)
	c.IOTimeout = internal.NotZeroDuration(c.IOTimeout, internal.DefaultIOTimeout)
}

func LoadConfig(filename string) (Config, error) {
	var c Config
	if !fs.FileExist(filename) {
		return c, errors.Wrapf(os.ErrNotExist, "config file %s", filename)
	}
	b, err := os.ReadFile(filename)
	if err != nil {
		return c, errors.Wrapf(err, "read config")
	}
	if err = yaml.Unmarshal(b, &c); err != nil {
		return c, errors.Wrapf(err, "decode config")
	}
	return c, nil
}
