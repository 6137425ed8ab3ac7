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

	"go.osspkg.com/errors"
	"go.osspkg.com/logx"
	"go.osspkg.com/xc"

	"go.osspkg.com/pollecho/address"
	"go.osspkg.com/pollecho/client"
	"go.osspkg.com/pollecho/internal"
)

func main() {
	interval := flag.Duration("interval", client.DefaultInterval, "delay between two sends")
	debug := flag.Bool("debug", false, "debug logging")
	flag.Parse()

	if *debug {
		logx.SetLevel(logx.LevelDebug)
	}

	conf, ok, err := parseArgs(flag.Args(), os.Stdout)
	if !ok {
		return
	}
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	conf.Interval = *interval

	cli, err := client.New(conf)
	if err != nil {
		fmt.Println("Initializing client failed:", err)
		os.Exit(1)
	}

	ctx := xc.New()
	internal.OnSignal(ctx, os.Stdout)

	fmt.Println("please send SIGINT / ctrl-c to stop")

	if err = cli.Run(ctx.Context(), os.Stdout); err != nil && !errors.Is(err, client.ErrServerClosed) {
		os.Exit(1)
	}
}

// parseArgs reads `clientAddress clientPort serverAddress serverPort [payload]`.
// ok is false when usage was printed instead.
func parseArgs(args []string, w io.Writer) (conf client.Config, ok bool, err error) {
	if len(args) < 4 {
		printHelp(w)
		return conf, false, nil
	}

	conf.LocalAddress = args[0]
	if conf.LocalPort, err = address.ParsePort(args[1]); err != nil {
		return conf, true, fmt.Errorf("couldn't parse self port %s", args[1])
	}
	conf.Address = args[2]
	if conf.Port, err = address.ParsePort(args[3]); err != nil {
		return conf, true, fmt.Errorf("couldn't parse server port %s", args[3])
	}

	conf.Payload = client.DefaultPayload
	if len(args) > 4 && len(args[4]) > 0 {
		conf.Payload = args[4]
	}
	return conf, true, nil
}

func printHelp(w io.Writer) {
	fmt.Fprintln(w, "Welcome to the connector")
	fmt.Fprintln(w, "Syntax:")
	fmt.Fprintln(w, "connector <connector ip> <connector port> <server ip> <server port> <data = hi>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "example:")
	fmt.Fprintln(w, "connector 127.0.0.1 3001 127.0.0.1 3000")
	fmt.Fprintln(w, "tries to connect to 127.0.0.1:3000 from port 3001 on loopback")
}
