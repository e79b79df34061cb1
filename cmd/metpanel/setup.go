// cmd/metpanel/setup.go
// Copyright(c) 2025 metproducts contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package main

import (
	"context"
	"errors"
	"os"
	"runtime"
	"sync"

	"github.com/jonboulle/clockwork"

	"github.com/hdwx/metproducts/basemap"
	"github.com/hdwx/metproducts/config"
	"github.com/hdwx/metproducts/log"
	"github.com/hdwx/metproducts/metrics"
	"github.com/hdwx/metproducts/notify"
	"github.com/hdwx/metproducts/panel"
	"github.com/hdwx/metproducts/product"
	"github.com/hdwx/metproducts/storage"
)

// processMetrics registers the metrics with the default registry once.
var processMetrics = sync.OnceValue(metrics.New)

// newLogger returns the process logger and logs the startup environment.
func newLogger(cfg *config.Config, cmd string) *log.Logger {
	lg := log.New(cfg.LogLevel, cfg.LogDir)
	lg.Info("metpanel starting", "command", cmd, "args", os.Args,
		"go", runtime.Version(), "gomaxprocs", runtime.GOMAXPROCS(0))
	return lg
}

// loadOptions reads the plotting options file, if any, and attaches the
// configured basemap library.
func loadOptions(cfg *config.Config, lg *log.Logger) (*panel.Options, error) {
	opts := panel.DefaultOptions()
	if cfg.OptionsPath != "" {
		var err error
		if opts, err = panel.LoadOptions(cfg.OptionsPath); err != nil {
			return nil, err
		}
	}
	if cfg.BasemapDir != "" {
		if fi, err := os.Stat(cfg.BasemapDir); err != nil {
			return nil, err
		} else if !fi.IsDir() {
			return nil, errors.New(cfg.BasemapDir + ": not a directory")
		}
		opts.Basemap.Library = basemap.NewLibrary(os.DirFS(cfg.BasemapDir), lg)
	}
	return opts, nil
}

func newPublisher(cfg *config.Config, lg *log.Logger) notify.Publisher {
	if len(cfg.KafkaBrokers) == 0 {
		return notify.NewLogPublisher(lg)
	}
	lg.Info("publishing product events", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	return notify.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, lg)
}

// newRenderer wires a renderer from the configuration. The returned
// function releases its storage and publisher.
func newRenderer(ctx context.Context, cfg *config.Config, m *metrics.Metrics, lg *log.Logger) (*product.Renderer, func(), error) {
	opts, err := loadOptions(cfg, lg)
	if err != nil {
		return nil, nil, err
	}
	proj, err := cfg.MapProjection()
	if err != nil {
		return nil, nil, err
	}

	b, err := storage.New(ctx, cfg.Output, cfg.DryRun)
	if err != nil {
		return nil, nil, err
	}
	pub := newPublisher(cfg, lg)

	r := &product.Renderer{
		Layout: product.Layout{
			Width:      cfg.FigWidth,
			Height:     cfg.FigHeight,
			DPI:        cfg.DPI,
			Axes:       cfg.AxesBounds,
			Projection: proj,
		},
		Options:   opts,
		Backend:   b,
		Publisher: pub,
		Metrics:   m,
		Clock:     clockwork.NewRealClock(),
		Logger:    lg,
	}
	cleanup := func() {
		if err := pub.Close(); err != nil {
			lg.Warnf("publisher: %v", err)
		}
		if err := b.Close(); err != nil {
			lg.Warnf("storage: %v", err)
		}
	}
	return r, cleanup, nil
}
