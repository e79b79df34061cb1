// plot/text.go
// Copyright(c) 2025 metproducts contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package plot

import (
	"fmt"
	"strings"
)

// Coords selects the coordinate system of a text position.
type Coords int

const (
	// AxesCoords positions are fractions of the axes, (0,0) at the lower
	// left.
	AxesCoords Coords = iota
	DataCoords
)

type TextOptions struct {
	FontSize float64 `json:"fontsize,omitempty"` // points
	Bold     bool    `json:"bold,omitempty"`
	Color    RGBA    `json:"color"`
	// "left", "center" or "right".
	HAlign string `json:"horizontalalignment,omitempty"`
	// "top", "center", "baseline" or "bottom".
	VAlign string `json:"verticalalignment,omitempty"`
	// Line spacing as a multiple of the font height.
	LineSpacing float64 `json:"linespacing,omitempty"`
	Coords      Coords  `json:"-"`
	ZOrder      float64 `json:"zorder,omitempty"`
}

func DefaultTextOptions() TextOptions {
	return TextOptions{
		FontSize:    10,
		Color:       Black,
		HAlign:      "left",
		VAlign:      "baseline",
		LineSpacing: 1.2,
	}
}

// anchors returns gg's anchor fractions for the alignment.
func (o TextOptions) anchors() (ax, ay float64, err error) {
	switch o.HAlign {
	case "", "left":
		ax = 0
	case "center":
		ax = 0.5
	case "right":
		ax = 1
	default:
		return 0, 0, fmt.Errorf("%q: invalid horizontal alignment", o.HAlign)
	}

	switch o.VAlign {
	case "top":
		ay = 1
	case "center":
		ay = 0.5
	case "", "baseline", "bottom":
		ay = 0
	default:
		return 0, 0, fmt.Errorf("%q: invalid vertical alignment", o.VAlign)
	}
	return
}

// Text is a possibly multi-line string drawn on an Axes. It is not
// clipped to the axes, so that labels may be placed outside them.
type Text struct {
	X, Y  float64
	Lines []string
	Opts  TextOptions

	ax *Axes
}

func (t *Text) String() string {
	return strings.Join(t.Lines, "\n")
}

// Text adds the string s, which may contain newlines, at (x, y).
func (ax *Axes) Text(x, y float64, s string, opts TextOptions) (*Text, error) {
	if _, _, err := opts.anchors(); err != nil {
		return nil, err
	}
	if opts.FontSize <= 0 {
		opts.FontSize = DefaultTextOptions().FontSize
	}
	if opts.LineSpacing <= 0 {
		opts.LineSpacing = DefaultTextOptions().LineSpacing
	}
	if opts.ZOrder == 0 {
		opts.ZOrder = ZOrderText
	}
	if opts.Color == (RGBA{}) {
		opts.Color = Black
	}

	t := &Text{X: x, Y: y, Lines: strings.Split(s, "\n"), Opts: opts, ax: ax}
	ax.add(t)
	return t, nil
}

func (t *Text) zorder() float64 { return t.Opts.ZOrder }
func (t *Text) clipped() bool   { return false }

func (t *Text) draw(r *renderer) error {
	var x, y float64
	switch t.Opts.Coords {
	case AxesCoords:
		x, y = t.ax.AxesToPixel(t.X, t.Y)
	case DataCoords:
		x, y = r.toPixel(Point{t.X, t.Y})
	}

	r.dc.SetFontFace(r.fonts.Face(t.Opts.FontSize, t.Opts.Bold))
	r.dc.SetColor(t.Opts.Color)

	ax, ay, err := t.Opts.anchors()
	if err != nil {
		return err
	}

	// Position the block of lines as a whole, then draw each line.
	lh := r.dc.FontHeight() * t.Opts.LineSpacing
	blockHeight := lh * float64(len(t.Lines)-1)
	top := y - (1-ay)*blockHeight
	for i, line := range t.Lines {
		r.dc.DrawStringAnchored(line, x, top+float64(i)*lh, ax, ay)
	}
	return nil
}
