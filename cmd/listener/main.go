/*
 *  Copyright (c) 2024-2025 Mikhail Knyazhev <markus621@yandex.ru>. All rights reserved.
 *  Use of this source code is governed by a BSD 3-Clause license that can be found in the LICENSE file.
 */

package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"go.osspkg.com/logx"
	"go.osspkg.com/xc"

	"go.osspkg.com/pollecho/address"
	"go.osspkg.com/pollecho/internal"
	"go.osspkg.com/pollecho/server"
)

func main() {
	configFile := flag.String("config", "", "path to yaml config")
	debug := flag.Bool("debug", false, "log every received chunk")
	flag.Parse()

	if *debug {
		logx.SetLevel(logx.LevelDebug)
	}

	var conf server.Config
	if len(*configFile) > 0 {
		var err error
		if conf, err = server.LoadConfig(*configFile); err != nil {
			logx.Error("Load config", "err", err, "file", *configFile)
			os.Exit(1)
		}
	}
	applyArgs(&conf, flag.Args(), os.Stdout)

	ctx := xc.New()
	internal.OnSignal(ctx, os.Stdout)

	fmt.Println("please send SIGINT / ctrl-c to stop")

	if err := server.New(conf).ListenAndServe(ctx.Context()); err != nil {
		fmt.Println("Server failed:", err)
		os.Exit(1)
	}
}

// applyArgs maps `[port] [interface]` onto conf. A missing or malformed port
// falls back to the configured one (3000 by default) with a notice.
func applyArgs(conf *server.Config, args []string, w io.Writer) {
	fallback := internal.NotZero(conf.Port, internal.DefaultPort)

	switch {
	case len(args) < 1:
		fmt.Fprintf(w, "using default port %d as port wasn't provided\n", fallback)
		conf.Port = fallback
	default:
		port, err := address.ParsePort(args[0])
		if err != nil {
			fmt.Fprintf(w, "couldn't convert specified port %s to a valid port number... defaulting to %d.\n", args[0], fallback)
			port = fallback
		}
		conf.Port = port
	}

	switch {
	case len(args) >= 2:
		conf.Interface = args[1]
	case len(conf.Interface) == 0:
		fmt.Fprintln(w, "listening on all interfaces as interface wasn't specified")
		conf.Interface = address.AnyInterface
	}
}
