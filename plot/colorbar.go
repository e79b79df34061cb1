// plot/colorbar.go
// Copyright(c) 2025 metproducts contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package plot

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/hdwx/metproducts/math"
)

type ColorbarOptions struct {
	// "horizontal" or "vertical".
	Orientation string `json:"orientation,omitempty"`
	// Length of the extension triangles as a fraction of the bar's length.
	ExtendFrac float64 `json:"extendfrac,omitempty"`
	// DrawEdges draws lines between the colors.
	DrawEdges bool `json:"drawedges,omitempty"`
	// Outline line width in points.
	LineWidth float64 `json:"linewidth,omitempty"`
	// Length of tick marks in points.
	TickLength float64 `json:"ticklength,omitempty"`
	// printf-style format for tick labels; see FormatLevel.
	Format string `json:"format,omitempty"`
}

func DefaultColorbarOptions() ColorbarOptions {
	return ColorbarOptions{
		Orientation: "vertical",
		ExtendFrac:  0.05,
		LineWidth:   0.8,
		TickLength:  3.5,
	}
}

// Colorbar draws the colors of a filled contour set in a separate axes,
// with ticks at given values.
type Colorbar struct {
	Ax       *Axes
	Mappable *ContourSet
	Opts     ColorbarOptions

	ticks         []float64
	tickLabels    []string
	tickPosition  string
	tickFontSize  float64
	label         string
	labelFontSize float64
}

// Colorbar adds a colorbar for cs to cax with ticks at the given values.
func (f *Figure) Colorbar(cs *ContourSet, cax *Axes, ticks []float64, opts ColorbarOptions) (*Colorbar, error) {
	if cs == nil || !cs.Filled {
		return nil, errors.New("colorbar: a filled contour set is required")
	}
	if cax.fig != f {
		return nil, errors.New("colorbar: axes belong to another figure")
	}

	d := DefaultColorbarOptions()
	switch opts.Orientation {
	case "":
		opts.Orientation = d.Orientation
	case "horizontal", "vertical":
	default:
		return nil, fmt.Errorf("%q: invalid colorbar orientation", opts.Orientation)
	}
	if opts.ExtendFrac <= 0 {
		opts.ExtendFrac = d.ExtendFrac
	}
	if opts.LineWidth <= 0 {
		opts.LineWidth = d.LineWidth
	}
	if opts.TickLength <= 0 {
		opts.TickLength = d.TickLength
	}

	cb := &Colorbar{
		Ax:           cax,
		Mappable:     cs,
		Opts:         opts,
		tickFontSize: 10,
	}
	if opts.Orientation == "horizontal" {
		cb.tickPosition = "bottom"
	} else {
		cb.tickPosition = "right"
	}
	cb.SetTicks(ticks)

	cax.SetFrameVisible(false)
	cax.SetExtent(cs.valueExtent())
	cax.add(cb)
	f.colorbars = append(f.colorbars, cb)
	return cb, nil
}

// SetTicks sets the tick values; those outside the range of the levels
// are dropped.
func (cb *Colorbar) SetTicks(ticks []float64) {
	levels := cb.Mappable.Levels
	cb.ticks = nil
	cb.tickLabels = nil
	for _, t := range ticks {
		if t >= levels[0] && t <= levels[len(levels)-1] {
			cb.ticks = append(cb.ticks, t)
			cb.tickLabels = append(cb.tickLabels, formatTick(cb.Opts.Format, t))
		}
	}
}

func formatTick(format string, v float64) string {
	var s string
	if format == "" {
		s = strconv.FormatFloat(v, 'f', -1, 64)
	} else {
		s = FormatLevel(format, v)
	}
	// Typographic minus sign.
	return strings.Replace(s, "-", "−", 1)
}

func (cb *Colorbar) Ticks() []float64 {
	return slices.Clone(cb.ticks)
}

func (cb *Colorbar) TickLabels() []string {
	return slices.Clone(cb.tickLabels)
}

// SetTicksPosition places ticks and their labels on the given side of
// the bar: "top" or "bottom" for horizontal bars, "left" or "right" for
// vertical ones.
func (cb *Colorbar) SetTicksPosition(pos string) error {
	switch {
	case cb.Opts.Orientation == "horizontal" && (pos == "top" || pos == "bottom"),
		cb.Opts.Orientation == "vertical" && (pos == "left" || pos == "right"):
		cb.tickPosition = pos
		return nil
	default:
		return fmt.Errorf("%q: invalid tick position for a %s colorbar", pos, cb.Opts.Orientation)
	}
}

func (cb *Colorbar) TicksPosition() string {
	return cb.tickPosition
}

func (cb *Colorbar) SetTickFontSize(size float64) {
	cb.tickFontSize = size
}

func (cb *Colorbar) TickFontSize() float64 {
	return cb.tickFontSize
}

// SetLabel sets the text drawn along the bar, opposite the ticks.
func (cb *Colorbar) SetLabel(label string, size float64) {
	cb.label, cb.labelFontSize = label, size
}

func (cb *Colorbar) Label() string {
	return cb.label
}

func (cb *Colorbar) zorder() float64 { return ZOrderFill }
func (cb *Colorbar) clipped() bool   { return false }

// position maps a value to a fraction along the bar's colored section.
// Each level interval gets the same length, so uneven levels still get
// evenly-spaced colors.
func (cb *Colorbar) position(v float64) float64 {
	levels := cb.Mappable.Levels
	n := len(levels) - 1
	i, found := slices.BinarySearch(levels, v)
	switch {
	case found:
		return float64(i) / float64(n)
	case i == 0:
		return 0
	case i > n:
		return 1
	}
	t := (v - levels[i-1]) / (levels[i] - levels[i-1])
	return (float64(i-1) + t) / float64(n)
}

func (cb *Colorbar) draw(r *renderer) error {
	cs := cb.Mappable
	horiz := cb.Opts.Orientation == "horizontal"

	// Pixel rectangle of the whole bar, and the length used by the
	// extension triangles at either end.
	x, y, w, h := cb.Ax.pixelRect()
	length := h
	if horiz {
		length = w
	}
	ext := cb.Opts.ExtendFrac * length
	lo, hi := 0.0, length
	if cs.Extend.Min() {
		lo += ext
	}
	if cs.Extend.Max() {
		hi -= ext
	}

	// at maps a distance along the bar and a fraction across it to a pixel.
	at := func(along, across float64) (float64, float64) {
		if horiz {
			return x + along, y + (1-across)*h
		}
		return x + across*w, y + h - along
	}
	along := func(v float64) float64 {
		return lo + cb.position(v)*(hi-lo)
	}
	quad := func(a0, a1 float64) {
		r.dc.NewSubPath()
		r.dc.MoveTo(at(a0, 0))
		r.dc.LineTo(at(a1, 0))
		r.dc.LineTo(at(a1, 1))
		r.dc.LineTo(at(a0, 1))
		r.dc.ClosePath()
	}

	colors := cs.BandColors()
	for i, c := range colors {
		r.dc.ClearPath()
		quad(along(cs.Levels[i]), along(cs.Levels[i+1]))
		r.dc.SetColor(c)
		r.dc.Fill()
	}

	outline := func() {
		r.dc.NewSubPath()
		if cs.Extend.Min() {
			r.dc.MoveTo(at(0, 0.5))
			r.dc.LineTo(at(lo, 0))
		} else {
			r.dc.MoveTo(at(lo, 1))
			r.dc.LineTo(at(lo, 0))
		}
		if cs.Extend.Max() {
			r.dc.LineTo(at(hi, 0))
			r.dc.LineTo(at(length, 0.5))
			r.dc.LineTo(at(hi, 1))
		} else {
			r.dc.LineTo(at(hi, 0))
			r.dc.LineTo(at(hi, 1))
		}
		if cs.Extend.Min() {
			r.dc.LineTo(at(lo, 1))
		}
		r.dc.ClosePath()
	}

	if cs.Extend.Min() || cs.Extend.Max() {
		r.dc.ClearPath()
		if cs.Extend.Min() {
			r.dc.MoveTo(at(0, 0.5))
			r.dc.LineTo(at(lo, 0))
			r.dc.LineTo(at(lo, 1))
			r.dc.ClosePath()
			r.dc.SetColor(cs.extendColor(true))
			r.dc.Fill()
		}
		if cs.Extend.Max() {
			r.dc.MoveTo(at(length, 0.5))
			r.dc.LineTo(at(hi, 0))
			r.dc.LineTo(at(hi, 1))
			r.dc.ClosePath()
			r.dc.SetColor(cs.extendColor(false))
			r.dc.Fill()
		}
	}

	if err := r.setLineStyle(LineStyle{Width: cb.Opts.LineWidth, Color: Black}); err != nil {
		return err
	}
	if cb.Opts.DrawEdges {
		for _, l := range cs.Levels[1 : len(cs.Levels)-1] {
			r.dc.MoveTo(at(along(l), 0))
			r.dc.LineTo(at(along(l), 1))
		}
		r.dc.Stroke()
	}
	outline()
	r.dc.Stroke()

	// Ticks and their labels.
	tickLen := r.px(cb.Opts.TickLength)
	pad := r.px(3.5)
	r.dc.SetLineWidth(r.px(cb.Opts.LineWidth))
	r.dc.SetFontFace(r.fonts.Face(cb.tickFontSize, false))
	for i, t := range cb.ticks {
		a := along(t)
		var x0, y0, x1, y1, tx, ty, anchorX, anchorY float64
		switch cb.tickPosition {
		case "top":
			x0, y0 = at(a, 1)
			x1, y1, tx, ty = x0, y0-tickLen, x0, y0-tickLen-pad
			anchorX, anchorY = 0.5, 0
		case "bottom":
			x0, y0 = at(a, 0)
			x1, y1, tx, ty = x0, y0+tickLen, x0, y0+tickLen+pad
			anchorX, anchorY = 0.5, 1
		case "left":
			x0, y0 = at(a, 0)
			x1, y1, tx, ty = x0-tickLen, y0, x0-tickLen-pad, y0
			anchorX, anchorY = 1, 0.35
		default:
			x0, y0 = at(a, 1)
			x1, y1, tx, ty = x0+tickLen, y0, x0+tickLen+pad, y0
			anchorX, anchorY = 0, 0.35
		}
		r.dc.DrawLine(x0, y0, x1, y1)
		r.dc.Stroke()
		r.dc.DrawStringAnchored(cb.tickLabels[i], tx, ty, anchorX, anchorY)
	}

	if cb.label != "" {
		size := cb.labelFontSize
		if size <= 0 {
			size = cb.tickFontSize
		}
		r.dc.SetFontFace(r.fonts.Face(size, false))
		mid := length / 2
		switch cb.tickPosition {
		case "top":
			lx, ly := at(mid, 0)
			r.dc.DrawStringAnchored(cb.label, lx, ly+pad, 0.5, 1)
		case "bottom":
			lx, ly := at(mid, 1)
			r.dc.DrawStringAnchored(cb.label, lx, ly-pad, 0.5, 0)
		default:
			side := 1.0
			if cb.tickPosition == "right" {
				side = 0
			}
			lx, ly := at(mid, side)
			r.dc.Push()
			r.dc.RotateAbout(math.Radians(-90.0), lx, ly)
			r.dc.DrawStringAnchored(cb.label, lx, ly, 0.5, side)
			r.dc.Pop()
		}
	}
	return nil
}

// valueExtent returns an extent spanning the contour set's levels.
func (cs *ContourSet) valueExtent() math.Extent {
	return math.Extent{X0: cs.Levels[0], X1: cs.Levels[len(cs.Levels)-1], Y0: 0, Y1: 1}
}

// extendColor returns the color of the under (min) or over band.
func (cs *ContourSet) extendColor(under bool) RGBA {
	for _, b := range cs.bands {
		if under && !math.IsFinite(b.Lo) {
			return b.Color
		}
		if !under && !math.IsFinite(b.Hi) {
			return b.Color
		}
	}
	return Transparent
}
