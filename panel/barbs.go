// panel/barbs.go
// Copyright(c) 2025 metproducts contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package panel

import (
	"errors"
	"fmt"

	"github.com/hdwx/metproducts/math"
	"github.com/hdwx/metproducts/plot"
	"github.com/hdwx/metproducts/wx"
)

// ErrZeroStride is returned by PlotBarbs when the grid is too coarse for
// the map scale to place barbs.
var ErrZeroStride = errors.New("barb stride is zero")

// PlotBarbs draws wind barbs in knots at every stride'th grid point of the
// projected coordinates xx, yy, where the stride spaces barbs about scale/2
// projected units apart. Nothing is drawn and nil is returned if either
// wind component is nil.
func PlotBarbs(ax *plot.Axes, scale float64, xx, yy, u, v *wx.Field, opts plot.BarbOptions) (*plot.BarbSet, error) {
	if u == nil || v == nil {
		return nil, nil
	}

	stride := math.BarbStride(scale, wx.Spacing(xx))
	if stride <= 0 {
		return nil, fmt.Errorf("scale %g, grid spacing %g: %w", scale, wx.Spacing(xx), ErrZeroStride)
	}

	uk, err := u.To(wx.Knots)
	if err != nil {
		return nil, fmt.Errorf("u: %w", err)
	}
	vk, err := v.To(wx.Knots)
	if err != nil {
		return nil, fmt.Errorf("v: %w", err)
	}

	var sampled [4]*wx.Field
	for i, f := range []*wx.Field{xx, yy, uk, vk} {
		if sampled[i], err = f.Decimate(stride); err != nil {
			return nil, err
		}
	}
	return ax.Barbs(sampled[0].Data, sampled[1].Data, sampled[2].Data, sampled[3].Data, opts)
}
