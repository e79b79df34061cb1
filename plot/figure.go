// plot/figure.go
// Copyright(c) 2025 metproducts contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package plot is a small retained-mode plotting layer for map panels:
// a Figure holds Axes positioned by fractional bounds, each of which
// collects contour sets, wind barbs, map features and text that are
// rasterized with gg when the figure is rendered.
package plot

import (
	"fmt"
	"image"
	"io"
	gomath "math"
	"slices"

	"github.com/fogleman/gg"

	"github.com/hdwx/metproducts/math"
)

// Figure is a drawing surface with a physical size and resolution.
type Figure struct {
	// Size in inches.
	Width, Height float64
	DPI           float64
	Facecolor     RGBA

	axes      []*Axes
	colorbars []*Colorbar
}

func NewFigure(width, height, dpi float64) *Figure {
	return &Figure{Width: width, Height: height, DPI: dpi, Facecolor: White}
}

// SizeCentimeters returns the figure's width and height in centimeters.
func (f *Figure) SizeCentimeters() (float64, float64) {
	return f.Width * math.CentimetersPerInch, f.Height * math.CentimetersPerInch
}

// PixelSize returns the size of the rendered image.
func (f *Figure) PixelSize() (int, int) {
	return int(gomath.Round(f.Width * f.DPI)), int(gomath.Round(f.Height * f.DPI))
}

// AddAxes adds axes at the given bounds, in figure fractions measured
// from the lower left corner. proj may be nil for axes that are not maps.
func (f *Figure) AddAxes(b math.Bounds, proj math.Projection) *Axes {
	ax := &Axes{
		Bounds:       b,
		Projection:   proj,
		fig:          f,
		frameVisible: true,
	}
	f.axes = append(f.axes, ax)
	return ax
}

func (f *Figure) Axes() []*Axes {
	return slices.Clone(f.axes)
}

func (f *Figure) Colorbars() []*Colorbar {
	return slices.Clone(f.colorbars)
}

// pointsToPixels returns the number of pixels spanned by pt points.
func (f *Figure) pointsToPixels(pt float64) float64 {
	return pt * f.DPI / 72
}

// figureToPixel maps figure fractions to pixel coordinates.
func (f *Figure) figureToPixel(fx, fy float64) (float64, float64) {
	w, h := f.PixelSize()
	return fx * float64(w), (1 - fy) * float64(h)
}

// Render rasterizes the figure.
func (f *Figure) Render() (image.Image, error) {
	w, h := f.PixelSize()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("invalid figure size %gx%g in at %g dpi", f.Width, f.Height, f.DPI)
	}

	r := &renderer{
		dc:    gg.NewContext(w, h),
		fig:   f,
		fonts: newFontCache(f.DPI),
	}
	r.dc.SetColor(f.Facecolor)
	r.dc.Clear()

	for _, ax := range f.axes {
		if err := ax.render(r); err != nil {
			return nil, err
		}
	}
	return r.dc.Image(), nil
}

func (f *Figure) EncodePNG(w io.Writer) error {
	img, err := f.Render()
	if err != nil {
		return err
	}
	return gg.NewContextForImage(img).EncodePNG(w)
}
