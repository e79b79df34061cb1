// cmd/metpanel/synth.go
// Copyright(c) 2025 metproducts contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/hdwx/metproducts/config"
	"github.com/hdwx/metproducts/wx"
)

// synthGridPath returns where synth stores the grid of one forecast time.
func synthGridPath(g *wx.Grid) string {
	return path.Join("grids", strings.ToLower(g.Model), g.InitTime.Format("2006010215"),
		fmt.Sprintf("f%04d", int(g.LeadTime()/time.Minute))+wx.GridFileExtension)
}

func parseLeads(s string) ([]time.Duration, error) {
	var leads []time.Duration
	for _, f := range strings.Split(s, ",") {
		h, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil || h < 0 {
			return nil, fmt.Errorf("%q: invalid forecast hour", f)
		}
		leads = append(leads, time.Duration(h)*time.Hour)
	}
	return leads, nil
}

// runSynth stores synthetic grids, and optionally their panels, for
// exercising the pipeline without model data.
func runSynth(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("synth", flag.ContinueOnError)
	model := fs.String("model", "SYNTH", "model name")
	initStr := fs.String("init", time.Now().UTC().Truncate(6*time.Hour).Format("2006010215"),
		"initialization time as YYYYMMDDHH")
	leadsStr := fs.String("leads", "0,6,12,18,24", "comma-separated forecast hours")
	nx := fs.Int("nx", 100, "grid points east-west")
	ny := fs.Int("ny", 60, "grid points north-south")
	render := fs.Bool("render", false, "also render the panels")
	cfg, err := config.Load(fs, args)
	if err != nil {
		return err
	}

	initTime, err := time.Parse("2006010215", *initStr)
	if err != nil {
		return fmt.Errorf("-init: %w", err)
	}
	leads, err := parseLeads(*leadsStr)
	if err != nil {
		return err
	}
	if *nx < 2 || *ny < 2 {
		return fmt.Errorf("%dx%d: grid must be at least 2x2", *nx, *ny)
	}

	lg := newLogger(cfg, "synth")
	m := processMetrics()
	r, cleanup, err := newRenderer(ctx, cfg, m, lg)
	if err != nil {
		return err
	}
	defer cleanup()

	var grids []*wx.Grid
	for _, lead := range leads {
		g := wx.Synthetic(*model, *nx, *ny, initTime, lead)
		soa, err := g.ToSOA()
		if err != nil {
			return err
		}
		p := synthGridPath(g)
		n, err := r.Backend.StoreObject(ctx, p, soa)
		if err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
		fmt.Fprintf(stdout, "%s\t%d\n", p, n)
		grids = append(grids, g)
	}

	if *render {
		events, err := r.RenderAll(ctx, grids, cfg.Workers)
		if err != nil {
			return err
		}
		for _, ev := range events {
			fmt.Fprintf(stdout, "%s\t%d\n", ev.Path, ev.Size)
		}
	}
	return nil
}
