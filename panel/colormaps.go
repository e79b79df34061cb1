// panel/colormaps.go
// Copyright(c) 2025 metproducts contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package panel

import (
	"github.com/hdwx/metproducts/plot"
)

// ColorScale is a colormap together with the boundary norm and contour
// levels it is drawn with.
type ColorScale struct {
	Cmap   *plot.Colormap
	Norm   *plot.BoundaryNorm
	Levels []float64
}

// Control colors of the 850 hPa temperature ramp, coldest first; the
// norm spreads the 40 two-degree bins evenly across them.
var temp850Colors = []string{
	"#7a1fa2", "#3f1fa2", "#1f3fd1", "#2c7fe0", "#63b6f0", "#a9e0fa",
	"#e8f7fc", "#fff6c2", "#fed976", "#fd8d3c", "#e8452c", "#b10026", "#6b0012",
}

// Temp850 returns the color scale of 850 hPa temperature in degrees
// Celsius: levels every 2 degrees from -40 to 40.
func Temp850() ColorScale {
	colors := make([]plot.RGBA, len(temp850Colors))
	for i, s := range temp850Colors {
		c, err := plot.ParseColor(s)
		if err != nil {
			panic(err)
		}
		colors[i] = c
	}

	levels := evenlySpaced(-40, 40, 2)
	norm, err := plot.NewBoundaryNorm(levels)
	if err != nil {
		panic(err)
	}

	cmap := plot.NewColormap("temp_850", colors...)
	return ColorScale{Cmap: cmap, Norm: norm, Levels: levels}
}
