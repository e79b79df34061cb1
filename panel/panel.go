// panel/panel.go
// Copyright(c) 2025 metproducts contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package panel draws forecast map panels onto plot axes. Each panel
// function takes the axes to draw on, the model fields, and the drawing
// options, and returns handles to what it drew so that callers can
// adjust them.
package panel

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hdwx/metproducts/log"
	"github.com/hdwx/metproducts/math"
	"github.com/hdwx/metproducts/plot"
	"github.com/hdwx/metproducts/wx"
)

const title850 = "850-hPa HEIGHTS, WINDS, TEMP (C)"

type renderSettings struct {
	dataProj         math.Projection
	lg               *log.Logger
	colorbarFontSize float64
	colorbarTitle    string
}

// Option customizes a single panel rendering call.
type Option func(*renderSettings)

// WithDataProjection gives the projection of the grid's longitude and
// latitude coordinates; the default is Plate Carree.
func WithDataProjection(p math.Projection) Option {
	return func(s *renderSettings) { s.dataProj = p }
}

func WithLogger(lg *log.Logger) Option {
	return func(s *renderSettings) { s.lg = lg }
}

// WithColorbarFontSize sets the size in points of the colorbar's tick
// labels and title.
func WithColorbarFontSize(size float64) Option {
	return func(s *renderSettings) { s.colorbarFontSize = size }
}

func WithColorbarTitle(title string) Option {
	return func(s *renderSettings) { s.colorbarTitle = title }
}

// Plot850hPaTempHghtBarbs draws the 850 hPa panel on ax: a basemap,
// filled temperature contours with the 0C isotherm, wind barbs if the grid
// has winds, labelled geopotential height contours, a temperature
// colorbar, and a label giving the model run and forecast time. It
// returns the filled temperature contours, the height contours and the
// colorbar.
//
// ax must have a map projection; the figure it belongs to should not be
// shared with other goroutines while drawing.
func Plot850hPaTempHghtBarbs(ax *plot.Axes, g *wx.Grid, opts *Options, options ...Option) (cf, c2 *plot.ContourSet,
	cbar *plot.Colorbar, err error) {
	s := renderSettings{dataProj: math.PlateCarree{}}
	for _, opt := range options {
		opt(&s)
	}
	lg := s.lg

	if ax.Projection == nil {
		return nil, nil, nil, errors.New("850 hPa panel: axes have no map projection")
	}
	if opts == nil {
		opts = DefaultOptions()
	}
	if err := g.Validate(); err != nil {
		return nil, nil, nil, err
	}

	// Project the grid once for all of the plotting calls.
	xs, ys, err := math.TransformPoints(ax.Projection, s.dataProj, g.Lon.Data, g.Lat.Data)
	if err != nil {
		return nil, nil, nil, err
	}
	xx, err := wx.NewField(g.Lon.NX, g.Lon.NY, xs, wx.Dimensionless)
	if err != nil {
		return nil, nil, nil, err
	}
	yy, err := wx.NewField(g.Lon.NX, g.Lon.NY, ys, wx.Dimensionless)
	if err != nil {
		return nil, nil, nil, err
	}

	scale, err := PlotBasemap(ax, opts.Basemap, lg)
	if err != nil {
		return nil, nil, nil, err
	}

	lg.Debug("Plotting temperature")
	temp, err := g.Temp.To(wx.Celsius)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("temperature: %w", err)
	}
	cs := Temp850()
	cfOpts := opts.Contourf
	cfOpts.Cmap, cfOpts.Norm, cfOpts.Levels = cs.Cmap, cs.Norm, plot.Floats(cs.Levels)
	cfOpts.Colors = nil
	if cf, err = ax.Contourf(xx, yy, temp, cfOpts); err != nil {
		return nil, nil, nil, err
	}
	if _, err = ax.Contour(xx, yy, temp, plot.ContourOptions{
		Levels:     plot.Floats{0},
		Colors:     plot.Colors{plot.RGB(0, 0, 1)},
		LineWidths: plot.Floats{2},
	}); err != nil {
		return nil, nil, nil, err
	}

	if g.HaveWinds() {
		lg.Debug("Plotting winds")
	}
	if _, err = PlotBarbs(ax, scale, xx, yy, g.U, g.V, opts.Barb); err != nil {
		return nil, nil, nil, err
	}

	lg.Debug("Plotting geopotential height")
	hght, err := g.Hght.To(wx.Meters)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("height: %w", err)
	}
	if c2, err = ax.Contour(xx, yy, hght, opts.Contour); err != nil {
		return nil, nil, nil, err
	}
	if _, err = ax.Clabel(c2, opts.Clabel); err != nil {
		return nil, nil, nil, err
	}

	lg.Debug("Creating color bar")
	if cbar, err = AddColorbar(cf, ax, cs.Levels, opts.Colorbar, s.colorbarFontSize, s.colorbarTitle); err != nil {
		return nil, nil, nil, err
	}

	lines := append(BaseLabel(g.Model, g.InitTime, g.FcstTime), title850)
	to := plot.DefaultTextOptions()
	to.HAlign, to.VAlign = "center", "top"
	to.Coords = plot.AxesCoords
	if _, err = ax.Text(0.5, 0, strings.Join(lines, "\n"), to); err != nil {
		return nil, nil, nil, err
	}

	return cf, c2, cbar, nil
}
