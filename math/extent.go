// math/extent.go
// Copyright(c) 2025 metproducts contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package math

import (
	"fmt"
	gomath "math"
)

const CentimetersPerInch = 2.54

// Bounds is a rectangle in figure-fraction coordinates: (X0, Y0) is the
// lower-left corner, W and H the width and height, all in [0,1] for a
// rectangle inside the figure.
type Bounds struct {
	X0, Y0, W, H float64
}

func (b Bounds) String() string {
	return fmt.Sprintf("%5.3fx%5.3f, %5.3fx%5.3f", b.X0, b.Y0, b.W, b.H)
}

// Extent is an axis-aligned window in projected coordinates.
type Extent struct {
	X0, X1, Y0, Y1 float64
}

func (e Extent) Width() float64  { return e.X1 - e.X0 }
func (e Extent) Height() float64 { return e.Y1 - e.Y0 }

// Degenerate reports whether the extent has no area.
func (e Extent) Degenerate() bool {
	return !(e.Width() > 0 && e.Height() > 0)
}

func (e Extent) String() string {
	return fmt.Sprintf("%5.3f, %5.3f, %5.3f, %5.3f", e.X0, e.X1, e.Y0, e.Y1)
}

// MapExtent returns the projected-plane window centred on the projection
// origin that an axis occupying ax of a figW x figH figure covers at the
// given scale (projected units per unit of figure length). Non-positive
// arguments are not checked and give a degenerate extent.
func MapExtent(figW, figH float64, ax Bounds, scale float64) Extent {
	dx := scale * (figW * ax.W) / 2
	dy := scale * (figH * ax.H) / 2
	return Extent{X0: -dx, X1: dx, Y0: -dy, Y1: dy}
}

// BarbStride returns the sampling step that spaces wind barbs roughly
// scale/2 projected units apart on a grid with spacing dx. Half-way ratios
// round to even. Zero is returned when the grid is too coarse for the
// scale (or dx is zero); callers must not sample with it. Ratios beyond
// the int range saturate.
func BarbStride(scale, dx float64) int {
	r := scale / gomath.Abs(dx)
	if !IsFinite(r) || r < 0 {
		return 0
	}
	if r >= gomath.MaxInt {
		return gomath.MaxInt / 2
	}
	return int(gomath.RoundToEven(r)) / 2
}
