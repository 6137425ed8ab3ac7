/*
 *  Copyright (c) 2024-2025 Mikhail Knyazhev <markus621@yandex.ru>. All rights reserved.
 *  Use of this source code is governed by a BSD 3-Clause license that can be found in the LICENSE file.
 */

package errs

import (
	"io"
	"os"
	"strings"

	"go.osspkg.com/errors"
	"golang.org/x/sys/unix"
)

// IsWouldBlock reports the "no data or capacity right now" condition of a non-blocking descriptor.
func IsWouldBlock(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK)
}

func IsInterrupted(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, unix.EINTR)
}

func IsClosed(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, io.EOF) ||
		errors.Is(err, unix.ECONNRESET) ||
		errors.Is(err, unix.EPIPE) ||
		errors.Is(err, unix.EBADF) ||
		strings.Contains(err.Error(), "use of closed network connection") ||
		strings.Contains(err.Error(), "connection reset by peer") ||
		strings.Contains(err.Error(), "broken pipe") {
		return true
	}
	return false
}

// Code returns the OS error number carried by err, or 0 when there is none.
func Code(err error) int {
	switch v := err.(type) {
	case nil:
		return 0
	case unix.Errno:
		return int(v)
	case *os.SyscallError:
		return Code(v.Err)
	case interface{ Unwrap() error }:
		return Code(v.Unwrap())
	case interface{ Unwrap() []error }:
		for _, e := range v.Unwrap() {
			if code := Code(e); code != 0 {
				return code
			}
		}
		return 0
	default:
		return 0
	}
}
