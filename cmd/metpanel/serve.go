// cmd/metpanel/serve.go
// Copyright(c) 2025 metproducts contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/hdwx/metproducts/config"
	"github.com/hdwx/metproducts/server"
)

func runServe(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	cfg, err := config.Load(fs, args)
	if err != nil {
		return err
	}

	lg := newLogger(cfg, "serve")
	m := processMetrics()
	r, cleanup, err := newRenderer(ctx, cfg, m, lg)
	if err != nil {
		return err
	}
	defer cleanup()

	srv := server.New(cfg.HTTPAddr, r, m, lg)

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		if err := srv.Start(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	eg.Go(func() error {
		<-ctx.Done()
		lg.Info("shutting down", "timeout", cfg.ShutdownTimeout)
		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	return eg.Wait()
}
