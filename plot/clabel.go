// plot/clabel.go
// Copyright(c) 2025 metproducts contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package plot

import (
	"errors"
	"fmt"
	gomath "math"
	"regexp"
	"strconv"

	"golang.org/x/image/font"

	"github.com/hdwx/metproducts/math"
)

type ClabelOptions struct {
	FontSize float64 `json:"fontsize,omitempty"` // points
	// Colors of the labels; if empty, each label takes its line's color.
	Colors Colors `json:"colors,omitempty"`
	// Inline removes the contour line underneath each label.
	Inline bool `json:"inline"`
	// Extra space, in pixels, left on each side of inline labels.
	InlineSpacing float64 `json:"inline_spacing,omitempty"`
	// printf-style format for the level values, e.g. "%d" or "%1.1f".
	Fmt string `json:"fmt,omitempty"`
}

func DefaultClabelOptions() ClabelOptions {
	return ClabelOptions{FontSize: 10, Inline: true, InlineSpacing: 5}
}

// ContourLabel is a label placed along a contour line.
type ContourLabel struct {
	Level float64
	Text  string
	// Position in data coordinates.
	X, Y float64
	// Rotation in degrees in image space, where y increases downward;
	// positive angles turn clockwise.
	Angle float64
	Color RGBA
}

var intVerb = regexp.MustCompile(`%[-+# 0]*[0-9]*d`)

// FormatLevel formats a contour level for labelling.
func FormatLevel(format string, v float64) string {
	switch {
	case format == "":
		return strconv.FormatFloat(v, 'g', -1, 64)
	case intVerb.MatchString(format):
		return fmt.Sprintf(format, int(gomath.Round(v)))
	default:
		return fmt.Sprintf(format, v)
	}
}

// Clabel places one label on each contour line of cs that is long enough
// to hold it. The axes' extent should be set first, since placement
// depends on the lines' lengths in the rendered image.
func (ax *Axes) Clabel(cs *ContourSet, opts ClabelOptions) ([]*ContourLabel, error) {
	if cs.Filled {
		return nil, errors.New("clabel: filled contour sets cannot be labelled")
	}
	if cs.ax != ax {
		return nil, errors.New("clabel: contour set belongs to another axes")
	}
	if opts.FontSize <= 0 {
		opts.FontSize = DefaultClabelOptions().FontSize
	}

	fc := newFontCache(ax.fig.DPI)
	face := fc.Face(opts.FontSize, false)
	xf := ax.DataToPixel()

	var labels []*ContourLabel
	for k := range cs.lines {
		cl := &cs.lines[k]
		text := FormatLevel(opts.Fmt, cl.Level)
		w := float64(font.MeasureString(face, text)) / 64

		color := cl.Style.Color
		if len(opts.Colors) > 0 {
			color = opts.Colors.At(k)
		}

		var kept []Polyline
		for _, pl := range cl.Lines {
			lbl, pieces := placeLabel(pl, xf, w, opts.InlineSpacing)
			if lbl == nil {
				kept = append(kept, pl)
				continue
			}
			lbl.Level, lbl.Text, lbl.Color = cl.Level, text, color
			labels = append(labels, lbl)
			if opts.Inline {
				kept = append(kept, pieces...)
			} else {
				kept = append(kept, pl)
			}
		}
		cl.Lines = kept
	}

	cs.labels = append(cs.labels, labels...)
	ax.add(&contourLabels{labels: labels, fontSize: opts.FontSize, z: cs.z + 0.1})
	return labels, nil
}

// placeLabel positions a label of width w pixels at the middle of pl and
// returns the parts of pl left visible around it. It returns nil if pl is
// too short in the image to hold the label.
func placeLabel(pl Polyline, xf math.Matrix3, w, spacing float64) (*ContourLabel, []Polyline) {
	if len(pl) < 2 {
		return nil, nil
	}

	// Cumulative arc length in pixels.
	px := make([]Point, len(pl))
	cum := make([]float64, len(pl))
	for i, p := range pl {
		px[i].X, px[i].Y = xf.TransformPoint(p.X, p.Y)
		if i > 0 {
			cum[i] = cum[i-1] + gomath.Hypot(px[i].X-px[i-1].X, px[i].Y-px[i-1].Y)
		}
	}
	total := cum[len(cum)-1]
	if !math.IsFinite(total) || total < 1.5*w {
		return nil, nil
	}

	mid := total / 2
	x0, y0 := pointAt(px, cum, mid-w/2)
	x1, y1 := pointAt(px, cum, mid+w/2)
	cx, cy := pointAt(pl, cum, mid)
	lbl := &ContourLabel{X: cx, Y: cy, Angle: angleDegrees(x0, y0, x1, y1)}

	a0, a1 := max(mid-w/2-spacing, 0), min(mid+w/2+spacing, total)
	if pl.Closed() {
		// One piece running from the end of the gap around to its start.
		rest := subPolyline(pl, cum, a1, total)
		rest = append(rest, subPolyline(pl, cum, 0, a0)[1:]...)
		return lbl, []Polyline{rest}
	}

	var pieces []Polyline
	if a0 > 0 {
		pieces = append(pieces, subPolyline(pl, cum, 0, a0))
	}
	if a1 < total {
		pieces = append(pieces, subPolyline(pl, cum, a1, total))
	}
	return lbl, pieces
}

// pointAt returns the point at arc length s along pts, where cum holds
// the cumulative arc length at each point.
func pointAt(pts []Point, cum []float64, s float64) (float64, float64) {
	i := segmentAt(cum, s)
	t := 0.0
	if d := cum[i+1] - cum[i]; d > 0 {
		t = (s - cum[i]) / d
	}
	return math.Lerp(t, pts[i].X, pts[i+1].X), math.Lerp(t, pts[i].Y, pts[i+1].Y)
}

// segmentAt returns the index of the segment containing arc length s.
func segmentAt(cum []float64, s float64) int {
	for i := 0; i+2 < len(cum); i++ {
		if s <= cum[i+1] {
			return i
		}
	}
	return len(cum) - 2
}

// subPolyline returns the part of pl between arc lengths a0 and a1.
func subPolyline(pl Polyline, cum []float64, a0, a1 float64) Polyline {
	x, y := pointAt(pl, cum, a0)
	sub := Polyline{{x, y}}
	for i := range pl {
		if cum[i] > a0 && cum[i] < a1 {
			sub = append(sub, pl[i])
		}
	}
	x, y = pointAt(pl, cum, a1)
	return append(sub, Point{x, y})
}

type contourLabels struct {
	labels   []*ContourLabel
	fontSize float64
	z        float64
}

func (cl *contourLabels) zorder() float64 { return cl.z }
func (cl *contourLabels) clipped() bool   { return true }

func (cl *contourLabels) draw(r *renderer) error {
	r.dc.SetFontFace(r.fonts.Face(cl.fontSize, false))
	for _, l := range cl.labels {
		x, y := r.toPixel(Point{l.X, l.Y})
		r.dc.Push()
		r.dc.RotateAbout(math.Radians(l.Angle), x, y)
		r.dc.SetColor(l.Color)
		r.dc.DrawStringAnchored(l.Text, x, y, 0.5, 0.5)
		r.dc.Pop()
	}
	return nil
}

func (l *ContourLabel) String() string {
	return fmt.Sprintf("%s at (%.1f, %.1f) %.0f deg", l.Text, l.X, l.Y, l.Angle)
}
