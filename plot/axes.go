// plot/axes.go
// Copyright(c) 2025 metproducts contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package plot

import (
	"fmt"
	gomath "math"
	"slices"

	"github.com/fogleman/gg"

	"github.com/hdwx/metproducts/math"
)

// Default drawing orders; artists with lower z-order are drawn first.
const (
	ZOrderFill    = 1
	ZOrderFeature = 1.5
	ZOrderLine    = 2
	ZOrderText    = 3
)

// artist is something drawn on an Axes.
type artist interface {
	draw(r *renderer) error
	zorder() float64
	// clipped reports whether the artist is clipped to the axes bounds.
	clipped() bool
}

// Axes is a rectangular region of a figure with its own data
// coordinates. For map axes, data coordinates are those of the axes'
// projection.
type Axes struct {
	// Position in figure fractions.
	Bounds     math.Bounds
	Projection math.Projection

	fig          *Figure
	extent       math.Extent
	haveExtent   bool
	dataLimits   math.Extent
	haveLimits   bool
	frameVisible bool
	artists      []artist
}

func (ax *Axes) Figure() *Figure {
	return ax.fig
}

// SetExtent sets the data coordinate range shown by the axes.
func (ax *Axes) SetExtent(e math.Extent) {
	ax.extent = e
	ax.haveExtent = true
}

// Extent returns the axes' data range: the extent given to SetExtent or
// otherwise the bounds of the data added so far.
func (ax *Axes) Extent() math.Extent {
	if ax.haveExtent {
		return ax.extent
	}
	if ax.haveLimits {
		return ax.dataLimits
	}
	return math.Extent{X0: 0, X1: 1, Y0: 0, Y1: 1}
}

func (ax *Axes) SetFrameVisible(v bool) {
	ax.frameVisible = v
}

func (ax *Axes) FrameVisible() bool {
	return ax.frameVisible
}

func (ax *Axes) NumArtists() int {
	return len(ax.artists)
}

func (ax *Axes) add(a artist) {
	ax.artists = append(ax.artists, a)
}

func (ax *Axes) updateLimits(xs, ys []float64) {
	for i := range xs {
		x, y := xs[i], ys[i]
		if !math.IsFinite(x) || !math.IsFinite(y) {
			continue
		}
		if !ax.haveLimits {
			ax.dataLimits = math.Extent{X0: x, X1: x, Y0: y, Y1: y}
			ax.haveLimits = true
			continue
		}
		ax.dataLimits.X0 = min(ax.dataLimits.X0, x)
		ax.dataLimits.X1 = max(ax.dataLimits.X1, x)
		ax.dataLimits.Y0 = min(ax.dataLimits.Y0, y)
		ax.dataLimits.Y1 = max(ax.dataLimits.Y1, y)
	}
}

// pixelRect returns the axes' upper-left corner and size in pixels.
func (ax *Axes) pixelRect() (x, y, w, h float64) {
	x, y = ax.fig.figureToPixel(ax.Bounds.X0, ax.Bounds.Y0+ax.Bounds.H)
	x1, y1 := ax.fig.figureToPixel(ax.Bounds.X0+ax.Bounds.W, ax.Bounds.Y0)
	return x, y, x1 - x, y1 - y
}

// DataToPixel returns the transformation from data coordinates to image
// pixels.
func (ax *Axes) DataToPixel() math.Matrix3 {
	x, y, w, h := ax.pixelRect()
	return math.WindowToViewport(ax.Extent(), x, y, w, h)
}

// AxesToPixel maps axes fractions, with (0,0) at the lower left and (1,1)
// at the upper right, to image pixels.
func (ax *Axes) AxesToPixel(fx, fy float64) (float64, float64) {
	x, y, w, h := ax.pixelRect()
	return x + fx*w, y + (1-fy)*h
}

func (ax *Axes) render(r *renderer) error {
	e := ax.Extent()
	if e.Degenerate() {
		return fmt.Errorf("axes at %s: degenerate extent %s", ax.Bounds, e)
	}

	r.ax = ax
	r.xf = ax.DataToPixel()

	sorted := slices.Clone(ax.artists)
	slices.SortStableFunc(sorted, func(a, b artist) int {
		switch {
		case a.zorder() < b.zorder():
			return -1
		case a.zorder() > b.zorder():
			return 1
		default:
			return 0
		}
	})

	x, y, w, h := ax.pixelRect()
	r.dc.DrawRectangle(x, y, w, h)
	r.dc.Clip()
	for _, a := range sorted {
		if a.clipped() {
			if err := a.draw(r); err != nil {
				return err
			}
		}
	}
	r.dc.ResetClip()

	if ax.frameVisible {
		r.dc.SetColor(Black)
		r.dc.SetLineWidth(r.px(0.8))
		r.dc.SetDash()
		r.dc.DrawRectangle(x, y, w, h)
		r.dc.Stroke()
	}

	for _, a := range sorted {
		if !a.clipped() {
			if err := a.draw(r); err != nil {
				return err
			}
		}
	}
	return nil
}

///////////////////////////////////////////////////////////////////////////
// renderer

type renderer struct {
	dc    *gg.Context
	fig   *Figure
	fonts *fontCache
	ax    *Axes
	xf    math.Matrix3
}

// px converts points to pixels.
func (r *renderer) px(pt float64) float64 {
	return r.fig.pointsToPixels(pt)
}

func (r *renderer) toPixel(p Point) (float64, float64) {
	return r.xf.TransformPoint(p.X, p.Y)
}

// pathPolyline adds pl to the current path, starting a new subpath at
// each non-finite point.
func (r *renderer) pathPolyline(pl Polyline) {
	pen := false
	for _, p := range pl {
		if !math.IsFinite(p.X) || !math.IsFinite(p.Y) {
			pen = false
			continue
		}
		x, y := r.toPixel(p)
		if pen {
			r.dc.LineTo(x, y)
		} else {
			r.dc.MoveTo(x, y)
			pen = true
		}
	}
}

// LineStyle describes how lines are stroked.
type LineStyle struct {
	Width  float64 `json:"linewidth"` // points
	Color  RGBA    `json:"color"`
	Dashes string  `json:"linestyle,omitempty"`
}

// dashPattern returns the dash lengths in points for the named style.
func dashPattern(style string, width float64) ([]float64, error) {
	w := max(width, 0.5)
	switch style {
	case "", "solid", "-":
		return nil, nil
	case "dashed", "--":
		return []float64{3.7 * w, 1.6 * w}, nil
	case "dotted", ":":
		return []float64{w, 1.65 * w}, nil
	case "dashdot", "-.":
		return []float64{6.4 * w, 1.6 * w, w, 1.6 * w}, nil
	default:
		return nil, fmt.Errorf("%q: unknown line style", style)
	}
}

func (r *renderer) setLineStyle(ls LineStyle) error {
	d, err := dashPattern(ls.Dashes, ls.Width)
	if err != nil {
		return err
	}
	for i := range d {
		d[i] = r.px(d[i])
	}
	r.dc.SetDash(d...)
	r.dc.SetLineWidth(r.px(ls.Width))
	r.dc.SetColor(ls.Color)
	r.dc.SetLineCapButt()
	r.dc.SetLineJoinRound()
	return nil
}

// angleDegrees returns the direction from (x0, y0) to (x1, y1) in pixel
// space, folded into (-90, 90] so that text along it reads left to right.
func angleDegrees(x0, y0, x1, y1 float64) float64 {
	a := math.Degrees(gomath.Atan2(y1-y0, x1-x0))
	if a > 90 {
		a -= 180
	} else if a <= -90 {
		a += 180
	}
	return a
}
