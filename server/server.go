/*
 *  Copyright (c) 2024-2025 Mikhail Knyazhev <markus621@yandex.ru>. All rights reserved.
 *  Use of this source code is governed by a BSD 3-Clause license that can be found in the LICENSE file.
 */

package server

import (
	"context"
	"fmt"
	"sync"

	"go.osspkg.com/do"
	"go.osspkg.com/errors"
	"go.osspkg.com/logx"
	"go.osspkg.com/syncing"

	"go.osspkg.com/pollecho/address"
	"go.osspkg.com/pollecho/internal"
	"go.osspkg.com/pollecho/listen"
	"go.osspkg.com/pollecho/poll"
)

type (
	Server interface {
		ListenAndServe(ctx context.Context) error
		Addr() string
	}

	_server struct {
		conf Config
		sync syncing.Switch
		addr string
		mux  sync.RWMutex
	}
)

func New(conf Config) Server {
	conf.Default()
	return &_server{
		conf: conf,
		sync: syncing.NewSwitch(),
	}
}

// Addr is the bound ip:port while the server is running, empty otherwise.
func (v *_server) Addr() string {
	v.mux.RLock()
	defer v.mux.RUnlock()
	return v.addr
}

func (v *_server) setAddr(addr string) {
	v.mux.Lock()
	defer v.mux.Unlock()
	v.addr = addr
}

func (v *_server) ListenAndServe(ctx context.Context) (err error) {
	if !v.sync.On() {
		return internal.ErrServAlreadyRunning
	}
	defer v.sync.Off()

	ip, err := address.ParseInterface(v.conf.Interface)
	if err != nil {
		return err
	}

	sock, err := listen.New(listen.Config{
		Port:      v.conf.Port,
		Interface: ip,
		Backlog:   v.conf.Backlog,
		Timeout:   v.conf.IOTimeout,
	})
	if err != nil {
		return err
	}
	defer func() {
		v.setAddr("")
		err = errors.Wrap(err, sock.Close())
	}()

	loop, err := poll.New(sock.FD(), poll.Config{
		Capacity:  v.conf.Capacity,
		ChunkSize: v.conf.ChunkSize,
		Tick:      v.conf.Tick,
	})
	if err != nil {
		return err
	}

	v.setAddr(sock.Addr())
	logx.Info("Echo server started", "addr", sock.Addr(), "capacity", v.conf.Capacity)

	result := make(chan error, 1)
	do.Async(func() {
		result <- loop.Run(ctx)
	}, func(e error) {
		logx.Error("Echo loop panic", "err", e)
		result <- fmt.Errorf("echo loop panic: %w", e)
	})

	if err = <-result; err != nil {
		logx.Error("Echo server stopped", "err", err, "addr", sock.Addr())
		return
	}
	logx.Info("Echo server stopped", "addr", sock.Addr())
	return
}
