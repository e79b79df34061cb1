// cmd/metpanel/main.go
// Copyright(c) 2025 metproducts contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// metpanel renders 850 hPa temperature, height and wind panels from model
// grids and serves them over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

type command struct {
	name  string
	usage string
	run   func(ctx context.Context, args []string, stdout io.Writer) error
}

var commands = []command{
	{"render", "render [flags] grid-file...", runRender},
	{"synth", "synth [flags]", runSynth},
	{"options", "options [flags]", runOptions},
	{"serve", "serve [flags]", runServe},
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: metpanel command [flags] [args]\nwhere command is one of:\n")
	for _, c := range commands {
		fmt.Fprintf(os.Stderr, "  metpanel %s\n", c.usage)
	}
	fmt.Fprintf(os.Stderr, "Run \"metpanel command -h\" for the flags of a command.\n")
	os.Exit(2)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	for _, c := range commands {
		if c.name == os.Args[1] {
			if err := c.run(ctx, os.Args[2:], os.Stdout); err != nil {
				if !errors.Is(err, flag.ErrHelp) {
					fmt.Fprintf(os.Stderr, "metpanel %s: %v\n", c.name, err)
				}
				stop()
				os.Exit(1)
			}
			return
		}
	}
	usage()
}
