// cmd/metpanel/render.go
// Copyright(c) 2025 metproducts contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/goforj/godump"

	"github.com/hdwx/metproducts/config"
	"github.com/hdwx/metproducts/product"
	"github.com/hdwx/metproducts/wx"
)

func runRender(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	model := fs.String("model", "", "model name for NetCDF files")
	cfg, err := config.Load(fs, args)
	if err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errors.New("no grid files given")
	}

	lg := newLogger(cfg, "render")
	m := processMetrics()
	r, cleanup, err := newRenderer(ctx, cfg, m, lg)
	if err != nil {
		return err
	}
	defer cleanup()

	var grids []*wx.Grid
	for _, fn := range fs.Args() {
		g, err := product.ReadGrids(fn, *model, lg)
		if err != nil {
			return err
		}
		lg.Infof("%s: %d forecast times", fn, len(g))
		grids = append(grids, g...)
	}

	start := time.Now()
	events, err := r.RenderAll(ctx, grids, cfg.Workers)
	if cfg.MetricsTextfile != "" {
		if werr := m.WriteTextfile(cfg.MetricsTextfile); werr != nil {
			lg.Errorf("%s: %v", cfg.MetricsTextfile, werr)
		}
	}
	if err != nil {
		lg.Errorf("render: %v", err)
		return err
	}

	for _, ev := range events {
		fmt.Fprintf(stdout, "%s\t%d\n", ev.Path, ev.Size)
	}
	lg.Info("rendered panels", "count", len(events), "elapsed", time.Since(start))
	return nil
}

func runOptions(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("options", flag.ContinueOnError)
	dump := fs.Bool("dump", false, "dump the options as Go values instead of JSON")
	cfg, err := config.Load(fs, args)
	if err != nil {
		return err
	}

	opts, err := loadOptions(cfg, nil)
	if err != nil {
		return err
	}
	if *dump {
		opts.Basemap.Library = nil
		godump.Fdump(stdout, opts)
		return nil
	}
	om, err := opts.Ordered()
	if err != nil {
		return err
	}
	b, err := json.MarshalIndent(om, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(stdout, string(b))
	return err
}
