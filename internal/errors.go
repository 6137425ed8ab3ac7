/*
 *  Copyright (c) 2024 Mikhail Knyazhev <markus621@yandex.ru>. All rights reserved.
 *  Use of this source code is governed by a BSD 3-Clause license that can be found in the LICENSE file.
 */

package internal

import (
	"go.osspkg.com/errors"
	"go.osspkg.com/logx"

	"go.osspkg.com/pollecho/errs"
)

var (
	ErrServAlreadyRunning = errors.New("server already running")
)

// WriteErrLog logs err together with its OS error code, skipping normal close conditions.
func WriteErrLog(message string, err error, addr string) {
	if err == nil || errs.IsClosed(err) {
		return
	}
	logx.Warn(message, "err", err, "code", errs.Code(err), "addr", addr)
}
