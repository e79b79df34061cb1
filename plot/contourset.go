// plot/contourset.go
// Copyright(c) 2025 metproducts contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package plot

import (
	"fmt"
	gomath "math"
	"slices"

	"github.com/hdwx/metproducts/math"
	"github.com/hdwx/metproducts/wx"
)

// Extend selects whether filled contours also cover values below the
// first and above the last level.
type Extend string

const (
	ExtendNeither Extend = "neither"
	ExtendMin     Extend = "min"
	ExtendMax     Extend = "max"
	ExtendBoth    Extend = "both"
)

func (e Extend) Valid() bool {
	switch e {
	case "", ExtendNeither, ExtendMin, ExtendMax, ExtendBoth:
		return true
	default:
		return false
	}
}

func (e Extend) Min() bool { return e == ExtendMin || e == ExtendBoth }
func (e Extend) Max() bool { return e == ExtendMax || e == ExtendBoth }

// ContourOptions configures Contour and Contourf. The JSON names follow
// the keyword names used in shared plotting option files.
type ContourOptions struct {
	// Levels to contour; if empty, about NumLevels round-numbered levels
	// spanning the data are chosen.
	Levels    Floats `json:"levels,omitempty"`
	NumLevels int    `json:"nlevels,omitempty"`

	// Colors for lines (Contour) or bands (Contourf), cycled as needed.
	// If empty, colors come from Cmap.
	Colors     Colors  `json:"colors,omitempty"`
	LineWidths Floats  `json:"linewidths,omitempty"` // points
	LineStyles Strings `json:"linestyles,omitempty"`
	// Line style of negative levels when a single color is used.
	NegativeLineStyle string `json:"negative_linestyles,omitempty"`

	Extend Extend  `json:"extend,omitempty"`
	Alpha  float64 `json:"alpha,omitempty"`
	ZOrder float64 `json:"zorder,omitempty"`

	Cmap *Colormap     `json:"-"`
	Norm *BoundaryNorm `json:"-"`
}

const defaultLineWidth = 1.5

// band is the region between two consecutive bounds of a filled contour
// set, with the polygons covering it.
type band struct {
	Lo, Hi float64
	Color  RGBA
	Polys  []Polyline
}

// contourLine holds the polylines of one contour level.
type contourLine struct {
	Level float64
	Style LineStyle
	Lines []Polyline
}

// ContourSet holds the result of contouring a field.
type ContourSet struct {
	Levels []float64
	Filled bool
	Extend Extend
	Cmap   *Colormap
	Norm   *BoundaryNorm

	ax     *Axes
	bands  []band
	lines  []contourLine
	labels []*ContourLabel
	alpha  float64
	z      float64
}

func (cs *ContourSet) Axes() *Axes { return cs.ax }

// Lines returns the polylines at the i'th level of a line contour set.
func (cs *ContourSet) Lines(i int) []Polyline {
	if i < 0 || i >= len(cs.lines) {
		return nil
	}
	return cs.lines[i].Lines
}

// NumPolylines returns the total number of contour lines or, for filled
// contours, band polygons.
func (cs *ContourSet) NumPolylines() int {
	n := 0
	for _, l := range cs.lines {
		n += len(l.Lines)
	}
	for _, b := range cs.bands {
		n += len(b.Polys)
	}
	return n
}

// BandColors returns the fill colors of the bands between consecutive
// levels, not including any extended bands.
func (cs *ContourSet) BandColors() []RGBA {
	var c []RGBA
	for _, b := range cs.bands {
		if math.IsFinite(b.Lo) && math.IsFinite(b.Hi) {
			c = append(c, b.Color)
		}
	}
	return c
}

func (cs *ContourSet) Labels() []*ContourLabel {
	return slices.Clone(cs.labels)
}

func (cs *ContourSet) zorder() float64 { return cs.z }
func (cs *ContourSet) clipped() bool   { return true }

func (cs *ContourSet) draw(r *renderer) error {
	for _, b := range cs.bands {
		if len(b.Polys) == 0 || b.Color.A == 0 {
			continue
		}
		r.dc.ClearPath()
		for _, pl := range b.Polys {
			r.dc.NewSubPath()
			r.pathPolyline(pl)
			r.dc.ClosePath()
		}
		r.dc.SetFillRuleWinding()
		r.dc.SetColor(b.Color.WithAlpha(b.Color.A * cs.alpha))
		r.dc.Fill()
	}

	for _, l := range cs.lines {
		if len(l.Lines) == 0 {
			continue
		}
		ls := l.Style
		ls.Color = ls.Color.WithAlpha(ls.Color.A * cs.alpha)
		if err := r.setLineStyle(ls); err != nil {
			return err
		}
		r.dc.ClearPath()
		for _, pl := range l.Lines {
			r.dc.NewSubPath()
			r.pathPolyline(pl)
		}
		r.dc.Stroke()
	}
	r.dc.SetDash()
	return nil
}

func makeMesh(x, y, z *wx.Field) (*mesh, error) {
	if x == nil || y == nil || z == nil {
		return nil, fmt.Errorf("contour: missing coordinates or values")
	}
	if !x.SameShape(y) || !x.SameShape(z) {
		return nil, fmt.Errorf("contour: coordinates %dx%d, %dx%d and values %dx%d: %w",
			x.NY, x.NX, y.NY, y.NX, z.NY, z.NX, wx.ErrShapeMismatch)
	}
	return &mesh{nx: z.NX, ny: z.NY, x: x.Data, y: y.Data, z: z.Data}, nil
}

func (opts ContourOptions) levels(z *wx.Field) ([]float64, error) {
	if len(opts.Levels) > 0 {
		if !slices.IsSorted(opts.Levels) {
			return nil, fmt.Errorf("contour levels must be increasing: %v", opts.Levels)
		}
		return slices.Clone(opts.Levels), nil
	}
	lo, hi, ok := z.Range()
	if !ok {
		return nil, fmt.Errorf("contour: no finite values")
	}
	n := opts.NumLevels
	if n <= 0 {
		n = 7
	}
	return niceLevels(lo, hi, n), nil
}

// levelColor returns the colormap color for v, normalizing over the
// levels if no norm was given.
func (opts ContourOptions) levelColor(v float64, levels []float64) RGBA {
	if opts.Norm != nil {
		return opts.Norm.Color(opts.Cmap, v)
	}
	lo, hi := levels[0], levels[len(levels)-1]
	if hi == lo {
		return opts.Cmap.At(0.5)
	}
	return opts.Cmap.At((v - lo) / (hi - lo))
}

func (opts ContourOptions) alpha() float64 {
	if opts.Alpha <= 0 || opts.Alpha > 1 {
		return 1
	}
	return opts.Alpha
}

// Contourf adds filled contours of z, sampled at the points (x, y) in
// data coordinates.
func (ax *Axes) Contourf(x, y, z *wx.Field, opts ContourOptions) (*ContourSet, error) {
	m, err := makeMesh(x, y, z)
	if err != nil {
		return nil, err
	}
	levels, err := opts.levels(z)
	if err != nil {
		return nil, err
	}
	if len(levels) < 2 {
		return nil, fmt.Errorf("contourf: need at least two levels, got %v", levels)
	}
	if !opts.Extend.Valid() {
		return nil, fmt.Errorf("%q: invalid extend", opts.Extend)
	}
	if len(opts.Colors) == 0 && opts.Cmap == nil {
		return nil, fmt.Errorf("contourf: no colors or colormap given")
	}

	bounds := slices.Clone(levels)
	if opts.Extend.Min() {
		bounds = slices.Insert(bounds, 0, gomath.Inf(-1))
	}
	if opts.Extend.Max() {
		bounds = append(bounds, gomath.Inf(1))
	}

	cs := &ContourSet{
		Levels: levels,
		Filled: true,
		Extend: opts.Extend,
		Cmap:   opts.Cmap,
		Norm:   opts.Norm,
		ax:     ax,
		alpha:  opts.alpha(),
		z:      opts.ZOrder,
	}
	if cs.z == 0 {
		cs.z = ZOrderFill
	}

	polys := bandPolygons(m, bounds)
	interior := 0
	for k := range polys {
		b := band{Lo: bounds[k], Hi: bounds[k+1], Polys: polys[k]}
		switch {
		case len(opts.Colors) > 0 && !math.IsFinite(b.Lo):
			b.Color = opts.Colors.At(0)
		case len(opts.Colors) > 0 && !math.IsFinite(b.Hi):
			b.Color = opts.Colors.At(len(levels) - 2)
		case len(opts.Colors) > 0:
			b.Color = opts.Colors.At(interior)
		case !math.IsFinite(b.Lo):
			b.Color = opts.Cmap.Under
		case !math.IsFinite(b.Hi):
			b.Color = opts.Cmap.Over
		default:
			b.Color = opts.levelColor((b.Lo+b.Hi)/2, levels)
		}
		if math.IsFinite(b.Lo) && math.IsFinite(b.Hi) {
			interior++
		}
		cs.bands = append(cs.bands, b)
	}

	ax.updateLimits(x.Data, y.Data)
	ax.add(cs)
	return cs, nil
}

// Contour adds contour lines of z, sampled at the points (x, y) in data
// coordinates.
func (ax *Axes) Contour(x, y, z *wx.Field, opts ContourOptions) (*ContourSet, error) {
	m, err := makeMesh(x, y, z)
	if err != nil {
		return nil, err
	}
	levels, err := opts.levels(z)
	if err != nil {
		return nil, err
	}
	if len(levels) == 0 {
		return nil, fmt.Errorf("contour: no levels")
	}

	cs := &ContourSet{
		Levels: levels,
		Cmap:   opts.Cmap,
		Norm:   opts.Norm,
		ax:     ax,
		alpha:  opts.alpha(),
		z:      opts.ZOrder,
	}
	if cs.z == 0 {
		cs.z = ZOrderLine
	}

	monochrome := len(opts.Colors) == 1 || (len(opts.Colors) == 0 && opts.Cmap == nil)
	negStyle := opts.NegativeLineStyle
	if negStyle == "" {
		negStyle = "dashed"
	}

	for k, pl := range isolines(m, levels) {
		ls := LineStyle{Width: defaultLineWidth, Color: Black}
		if len(opts.LineWidths) > 0 {
			ls.Width = opts.LineWidths.At(k)
		}
		switch {
		case len(opts.Colors) > 0:
			ls.Color = opts.Colors.At(k)
		case opts.Cmap != nil:
			ls.Color = opts.levelColor(levels[k], levels)
		}
		switch {
		case len(opts.LineStyles) > 0:
			ls.Dashes = opts.LineStyles.At(k)
		case monochrome && levels[k] < 0:
			ls.Dashes = negStyle
		}
		if _, err := dashPattern(ls.Dashes, ls.Width); err != nil {
			return nil, err
		}

		cs.lines = append(cs.lines, contourLine{Level: levels[k], Style: ls, Lines: pl})
	}

	ax.updateLimits(x.Data, y.Data)
	ax.add(cs)
	return cs, nil
}

// bandIndex returns the index of the band containing v, or -1.
func (cs *ContourSet) bandIndex(v float64) int {
	for i, b := range cs.bands {
		if v >= b.Lo && v <= b.Hi {
			return i
		}
	}
	return -1
}

// ColorAt returns the fill color used for the value v.
func (cs *ContourSet) ColorAt(v float64) (RGBA, bool) {
	if i := cs.bandIndex(v); i >= 0 {
		return cs.bands[i].Color, true
	}
	return RGBA{}, false
}
