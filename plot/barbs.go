// plot/barbs.go
// Copyright(c) 2025 metproducts contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package plot

import (
	"fmt"
	gomath "math"

	"github.com/hdwx/metproducts/math"
)

// BarbSizes gives the parts of a barb as fractions of its length.
type BarbSizes struct {
	Spacing   float64 `json:"spacing,omitempty"`
	Height    float64 `json:"height,omitempty"`
	Width     float64 `json:"width,omitempty"`
	EmptyBarb float64 `json:"emptybarb,omitempty"`
}

// BarbIncrements are the speeds represented by each kind of barb element.
type BarbIncrements struct {
	Half float64 `json:"half,omitempty"`
	Full float64 `json:"full,omitempty"`
	Flag float64 `json:"flag,omitempty"`
}

type BarbOptions struct {
	Length    float64 `json:"length,omitempty"`    // points
	LineWidth float64 `json:"linewidth,omitempty"` // points
	Color     RGBA    `json:"color"`
	// Fill color of flags; defaults to Color.
	FlagColor *RGBA `json:"flagcolor,omitempty"`
	// "tip" puts the end of the staff at the barb's location; "middle"
	// centers the staff on it.
	Pivot      string         `json:"pivot,omitempty"`
	Sizes      BarbSizes      `json:"sizes"`
	Increments BarbIncrements `json:"barb_increments"`
	// Rounding rounds speeds to the nearest half increment before drawing.
	Rounding bool `json:"rounding"`
	// FillEmpty fills the circle drawn for calm winds.
	FillEmpty bool    `json:"fill_empty,omitempty"`
	ZOrder    float64 `json:"zorder,omitempty"`
}

func DefaultBarbOptions() BarbOptions {
	return BarbOptions{
		Length:     7,
		LineWidth:  1,
		Color:      Black,
		Pivot:      "tip",
		Sizes:      BarbSizes{Spacing: 0.125, Height: 0.4, Width: 0.25, EmptyBarb: 0.15},
		Increments: BarbIncrements{Half: 5, Full: 10, Flag: 50},
		Rounding:   true,
	}
}

// withDefaults fills in zero-valued options.
func (o BarbOptions) withDefaults() BarbOptions {
	d := DefaultBarbOptions()
	if o.Length <= 0 {
		o.Length = d.Length
	}
	if o.LineWidth <= 0 {
		o.LineWidth = d.LineWidth
	}
	if o.Pivot == "" {
		o.Pivot = d.Pivot
	}
	if o.Color == (RGBA{}) {
		o.Color = d.Color
	}
	def := func(v *float64, dv float64) {
		if *v <= 0 {
			*v = dv
		}
	}
	def(&o.Sizes.Spacing, d.Sizes.Spacing)
	def(&o.Sizes.Height, d.Sizes.Height)
	def(&o.Sizes.Width, d.Sizes.Width)
	def(&o.Sizes.EmptyBarb, d.Sizes.EmptyBarb)
	def(&o.Increments.Half, d.Increments.Half)
	def(&o.Increments.Full, d.Increments.Full)
	def(&o.Increments.Flag, d.Increments.Flag)
	if o.ZOrder == 0 {
		o.ZOrder = ZOrderLine
	}
	return o
}

// BarbElements counts the parts of a barb drawn for a wind speed.
type BarbElements struct {
	Flags, Full int
	Half, Empty bool
}

// Elements decomposes speed into flags, full barbs and a half barb.
func (inc BarbIncrements) Elements(speed float64, rounding bool) BarbElements {
	if rounding {
		speed = inc.Half * gomath.RoundToEven(speed/inc.Half)
	}

	var e BarbElements
	e.Flags = int(speed / inc.Flag)
	speed -= float64(e.Flags) * inc.Flag
	e.Full = int(speed / inc.Full)
	speed -= float64(e.Full) * inc.Full
	e.Half = speed >= inc.Half
	e.Empty = e.Flags == 0 && e.Full == 0 && !e.Half
	return e
}

// BarbSet is a collection of wind barbs.
type BarbSet struct {
	X, Y, U, V []float64
	Opts       BarbOptions
}

func (b *BarbSet) Len() int {
	return len(b.X)
}

// Barbs adds wind barbs at the points (x, y) in data coordinates. The
// wind components u and v are in the axes' x and y directions; the staff
// points into the wind.
func (ax *Axes) Barbs(x, y, u, v []float64, opts BarbOptions) (*BarbSet, error) {
	if len(y) != len(x) || len(u) != len(x) || len(v) != len(x) {
		return nil, fmt.Errorf("barbs: %d x, %d y, %d u and %d v values", len(x), len(y), len(u), len(v))
	}
	opts = opts.withDefaults()
	if opts.Pivot != "tip" && opts.Pivot != "middle" {
		return nil, fmt.Errorf("%q: invalid barb pivot", opts.Pivot)
	}

	b := &BarbSet{X: x, Y: y, U: u, V: v, Opts: opts}
	ax.updateLimits(x, y)
	ax.add(b)
	return b, nil
}

func (b *BarbSet) zorder() float64 { return b.Opts.ZOrder }
func (b *BarbSet) clipped() bool   { return true }

func (b *BarbSet) draw(r *renderer) error {
	o := b.Opts
	length := r.px(o.Length)
	flagColor := o.Color
	if o.FlagColor != nil {
		flagColor = *o.FlagColor
	}

	r.dc.SetLineWidth(r.px(o.LineWidth))
	r.dc.SetDash()
	r.dc.SetLineCapRound()
	r.dc.SetLineJoinRound()

	for i := range b.X {
		u, v := b.U[i], b.V[i]
		if !math.IsFinite(b.X[i]) || !math.IsFinite(b.Y[i]) || !math.IsFinite(u) || !math.IsFinite(v) {
			continue
		}
		x, y := r.toPixel(Point{b.X[i], b.Y[i]})
		g := barbGlyph(x, y, u, v, length, o)

		if g.circle > 0 {
			r.dc.DrawCircle(x, y, g.circle)
			r.dc.SetColor(o.Color)
			if o.FillEmpty {
				r.dc.FillPreserve()
			}
			r.dc.Stroke()
			continue
		}

		r.dc.SetColor(o.Color)
		for _, l := range g.lines {
			r.dc.DrawLine(l[0].X, l[0].Y, l[1].X, l[1].Y)
		}
		r.dc.Stroke()

		if len(g.flags) > 0 {
			for _, f := range g.flags {
				r.dc.NewSubPath()
				r.dc.MoveTo(f[0].X, f[0].Y)
				r.dc.LineTo(f[1].X, f[1].Y)
				r.dc.LineTo(f[2].X, f[2].Y)
				r.dc.ClosePath()
			}
			r.dc.SetColor(flagColor)
			r.dc.FillPreserve()
			r.dc.SetColor(o.Color)
			r.dc.Stroke()
		}
	}
	return nil
}

// glyph is a barb laid out in pixel coordinates.
type glyph struct {
	circle float64 // radius, for calm winds
	lines  [][2]Point
	flags  [][3]Point
}

// barbGlyph lays out the barb for wind (u, v) at pixel (x, y). Distances
// along the staff are measured from the station; feathers go on the
// clockwise side of the staff, seen looking from the station along it.
func barbGlyph(x, y, u, v, length float64, o BarbOptions) glyph {
	speed := gomath.Hypot(u, v)
	el := o.Increments.Elements(speed, o.Rounding)
	if el.Empty {
		return glyph{circle: o.Sizes.EmptyBarb * length}
	}

	// Unit vector along the staff, pointing into the wind, in pixel
	// coordinates (y down), and the unit vector toward the feathers.
	sx, sy := -u/speed, v/speed
	fx, fy := -sy, sx

	if o.Pivot == "middle" {
		x -= sx * length / 2
		y -= sy * length / 2
	}
	at := func(along, side float64) Point {
		return Point{x + sx*along + fx*side, y + sy*along + fy*side}
	}

	height := o.Sizes.Height * length
	width := o.Sizes.Width * length
	spacing := o.Sizes.Spacing * length

	g := glyph{lines: [][2]Point{{at(0, 0), at(length, 0)}}}

	pos := length
	for range el.Flags {
		g.flags = append(g.flags, [3]Point{at(pos, 0), at(pos-width/2, height), at(pos-width, 0)})
		pos -= width + spacing
	}
	for range el.Full {
		g.lines = append(g.lines, [2]Point{at(pos, 0), at(pos+width/2, height)})
		pos -= spacing
	}
	if el.Half {
		if pos == length {
			// A lone half barb is moved in from the end of the staff.
			pos -= 1.5 * spacing
		}
		g.lines = append(g.lines, [2]Point{at(pos, 0), at(pos+width/4, height/2)})
	}
	return g
}
