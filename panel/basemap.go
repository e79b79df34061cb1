// panel/basemap.go
// Copyright(c) 2025 metproducts contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package panel

import (
	"errors"

	"github.com/hdwx/metproducts/basemap"
	"github.com/hdwx/metproducts/log"
	"github.com/hdwx/metproducts/math"
	"github.com/hdwx/metproducts/plot"
)

// PlotBasemap sets up ax as a map: it hides the axes frame, sets the
// extent from the figure size and bo.Scale, and draws coastlines, state
// lines and country borders. Zero-valued options take their defaults.
// The scale used is returned.
func PlotBasemap(ax *plot.Axes, bo BasemapOptions, lg *log.Logger) (float64, error) {
	if ax.Projection == nil {
		return 0, errors.New("basemap: axes have no map projection")
	}

	d := DefaultBasemapOptions()
	if bo.Scale == 0 {
		bo.Scale = d.Scale
	}
	if bo.Resolution == "" {
		bo.Resolution = d.Resolution
	}
	if bo.LineWidth == 0 {
		bo.LineWidth = d.LineWidth
	}
	res, err := basemap.ParseResolution(bo.Resolution)
	if err != nil {
		return 0, err
	}
	lib := bo.Library
	if lib == nil {
		lib = basemap.Builtin()
	}

	ax.SetFrameVisible(false)

	figW, figH := ax.Figure().SizeCentimeters()
	lg.Debugf("Figure size: %5.2fx%5.2f", figW, figH)
	lg.Debugf("Axis size:   %s", ax.Bounds)

	ext := math.MapExtent(figW, figH, ax.Bounds, bo.Scale)
	lg.Debugf("Axis extent: %s", ext)
	ax.SetExtent(ext)

	style := plot.LineStyle{Width: bo.LineWidth, Color: plot.Black}
	for _, kind := range []basemap.Kind{basemap.Coastline, basemap.States, basemap.Borders} {
		lg.Debugf("Adding %s at %s", kind, res)
		if err := ax.AddFeature(lib.Feature(kind, res), style); err != nil {
			return 0, err
		}
	}
	return bo.Scale, nil
}
