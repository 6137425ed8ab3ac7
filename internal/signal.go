/*
 *  Copyright (c) 2024 Mikhail Knyazhev <markus621@yandex.ru>. All rights reserved.
 *  Use of this source code is governed by a BSD 3-Clause license that can be found in the LICENSE file.
 */

package internal

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.osspkg.com/xc"
)

// OnSignal closes ctx on the first SIGINT or SIGTERM.
func OnSignal(ctx xc.Context, w io.Writer) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sig)

		select {
		case <-sig:
			fmt.Fprintln(w, "Stopping...")
			ctx.Close()
		case <-ctx.Done():
		}
	}()
}
