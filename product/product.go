// product/product.go
// Copyright(c) 2025 metproducts contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package product renders forecast panels to PNG images, stores them, and
// announces them.
package product

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/hdwx/metproducts/basemap"
	"github.com/hdwx/metproducts/log"
	"github.com/hdwx/metproducts/math"
	"github.com/hdwx/metproducts/metrics"
	"github.com/hdwx/metproducts/notify"
	"github.com/hdwx/metproducts/panel"
	"github.com/hdwx/metproducts/plot"
	"github.com/hdwx/metproducts/storage"
	"github.com/hdwx/metproducts/wx"
)

// Name850 is the product name of the 850 hPa temperature, height and wind
// panel.
const Name850 = "850_temp_hght_barbs"

// Layout gives the figure geometry and map projection of rendered panels.
type Layout struct {
	Width, Height float64 // inches
	DPI           float64
	Axes          math.Bounds
	Projection    math.Projection
}

func DefaultLayout() Layout {
	return Layout{
		Width:      8,
		Height:     6,
		DPI:        100,
		Axes:       math.Bounds{X0: 0.05, Y0: 0.15, W: 0.9, H: 0.8},
		Projection: math.DefaultLambertConformal(),
	}
}

// Renderer renders panels and delivers them. Its fields must not be
// modified while renders are in progress; Render may be called
// concurrently.
type Renderer struct {
	Layout    Layout
	Options   *panel.Options
	Basemap   *basemap.Library
	Backend   storage.Backend
	Publisher notify.Publisher
	Metrics   *metrics.Metrics
	Clock     clockwork.Clock
	Logger    *log.Logger
}

// Path returns the storage path of the product for g, e.g.
// "hrrr/2024010100/850_temp_hght_barbs_f0360.png".
func Path(name string, g *wx.Grid) string {
	lead := int(g.LeadTime() / time.Minute)
	return path.Join(strings.ToLower(g.Model), g.InitTime.UTC().Format("2006010215"),
		fmt.Sprintf("%s_f%04d.png", name, lead))
}

// Draw renders the 850 hPa panel for g and returns its PNG encoding.
func (r *Renderer) Draw(g *wx.Grid) ([]byte, error) {
	opts := r.Options
	if opts == nil {
		opts = panel.DefaultOptions()
	}
	if r.Basemap != nil && opts.Basemap.Library == nil {
		opts = opts.Clone()
		opts.Basemap.Library = r.Basemap
	}

	fig := plot.NewFigure(r.Layout.Width, r.Layout.Height, r.Layout.DPI)
	ax := fig.AddAxes(r.Layout.Axes, r.Layout.Projection)
	if _, _, _, err := panel.Plot850hPaTempHghtBarbs(ax, g, opts, panel.WithLogger(r.Logger)); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := fig.EncodePNG(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Render draws the panel for g, stores it, and publishes a product event.
// A failure to publish is logged but does not fail the render.
func (r *Renderer) Render(ctx context.Context, g *wx.Grid) (ev notify.ProductEvent, err error) {
	if r.Metrics != nil {
		done := r.Metrics.StartRender(Name850)
		defer func() { done(err) }()
	}
	lg := r.Logger.With("model", g.Model, "init", g.InitTime, "fcst", g.FcstTime)

	png, err := r.Draw(g)
	if err != nil {
		return notify.ProductEvent{}, fmt.Errorf("%s %s: %w", g.Model, g.FcstTime.Format(time.RFC3339), err)
	}

	p := Path(Name850, g)
	n, err := r.Backend.Store(ctx, p, bytes.NewReader(png))
	if err != nil {
		return notify.ProductEvent{}, fmt.Errorf("%s: %w", p, err)
	}
	if r.Metrics != nil {
		r.Metrics.Stored(n)
	}
	lg.Infof("stored %s (%d bytes)", p, n)

	ev = notify.ProductEvent{
		Product:     Name850,
		Model:       g.Model,
		InitTime:    g.InitTime,
		FcstTime:    g.FcstTime,
		LeadMinutes: int(g.LeadTime() / time.Minute),
		Path:        p,
		Size:        n,
		RenderedAt:  r.clock().Now(),
	}
	if r.Publisher != nil {
		perr := r.Publisher.Publish(ctx, ev)
		if perr != nil {
			lg.Warnf("%s: %v", p, perr)
		}
		if r.Metrics != nil {
			r.Metrics.EventSent(perr)
		}
	}
	return ev, nil
}

func (r *Renderer) clock() clockwork.Clock {
	if r.Clock == nil {
		return clockwork.NewRealClock()
	}
	return r.Clock
}

// RenderAll renders the panels for grids using up to workers goroutines.
// It returns the events of the panels rendered, in the order of grids, and
// the first error encountered; rendering stops after an error.
func (r *Renderer) RenderAll(ctx context.Context, grids []*wx.Grid, workers int) ([]notify.ProductEvent, error) {
	events := make([]notify.ProductEvent, len(grids))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(max(workers, 1))

	for i, g := range grids {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			ev, err := r.Render(ctx, g)
			if err != nil {
				return err
			}
			events[i] = ev
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return events, nil
}
