// panel/colorbar.go
// Copyright(c) 2025 metproducts contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package panel

import (
	"github.com/hdwx/metproducts/math"
	"github.com/hdwx/metproducts/plot"
)

const defaultColorbarFontSize = 8

// AddColorbar adds a colorbar for cf below the lower left corner of ax,
// a quarter of the axes wide, with tick labels above it at the given
// values. A fontSize of zero uses the default of 8 points; title, if
// given, labels the bar.
func AddColorbar(cf *plot.ContourSet, ax *plot.Axes, ticks []float64, opts plot.ColorbarOptions,
	fontSize float64, title string) (*plot.Colorbar, error) {
	if fontSize <= 0 {
		fontSize = defaultColorbarFontSize
	}

	b := ax.Bounds
	w, h := b.W/4, b.H/40
	cax := ax.Figure().AddAxes(math.Bounds{X0: b.X0, Y0: b.Y0 - 3*h, W: w, H: h}, nil)

	cbar, err := ax.Figure().Colorbar(cf, cax, ticks, opts)
	if err != nil {
		return nil, err
	}
	if cbar.Opts.Orientation == "horizontal" {
		if err := cbar.SetTicksPosition("top"); err != nil {
			return nil, err
		}
	}
	cbar.SetTickFontSize(fontSize)
	if title != "" {
		cbar.SetLabel(title, fontSize)
	}
	return cbar, nil
}
