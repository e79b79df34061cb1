// plot/color.go
// Copyright(c) 2025 metproducts contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package plot

import (
	"encoding/json"
	"fmt"
	"image/color"
	gomath "math"
	"slices"
	"strconv"
	"strings"

	"github.com/hdwx/metproducts/math"
)

// RGBA is a color with components in [0,1]; A is opacity.
type RGBA struct {
	R, G, B, A float64
}

func RGB(r, g, b float64) RGBA {
	return RGBA{R: r, G: g, B: b, A: 1}
}

var (
	Black       = RGB(0, 0, 0)
	White       = RGB(1, 1, 1)
	Transparent = RGBA{}
)

var namedColors = map[string]RGBA{
	"k": Black, "black": Black,
	"w": White, "white": White,
	"r": RGB(1, 0, 0), "red": RGB(1, 0, 0),
	"g": RGB(0, 0.5, 0), "green": RGB(0, 0.5, 0),
	"b": RGB(0, 0, 1), "blue": RGB(0, 0, 1),
	"c": RGB(0, 0.75, 0.75), "cyan": RGB(0, 1, 1),
	"m": RGB(0.75, 0, 0.75), "magenta": RGB(1, 0, 1),
	"y": RGB(0.75, 0.75, 0), "yellow": RGB(1, 1, 0),
	"gray": RGB(0.5, 0.5, 0.5), "grey": RGB(0.5, 0.5, 0.5),
	"none": Transparent,
}

// ParseColor accepts a named color ("black", "k", ...), "#rrggbb" or
// "#rrggbbaa", or a gray level given as a number string in [0,1].
func ParseColor(s string) (RGBA, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := namedColors[s]; ok {
		return c, nil
	}

	if hex, ok := strings.CutPrefix(s, "#"); ok && (len(hex) == 6 || len(hex) == 8) {
		v, err := strconv.ParseUint(hex, 16, 32)
		if err == nil {
			if len(hex) == 6 {
				v = v<<8 | 0xff
			}
			return RGBA{
				R: float64(v>>24&0xff) / 255,
				G: float64(v>>16&0xff) / 255,
				B: float64(v>>8&0xff) / 255,
				A: float64(v&0xff) / 255,
			}, nil
		}
	}

	if g, err := strconv.ParseFloat(s, 64); err == nil && g >= 0 && g <= 1 {
		return RGB(g, g, g), nil
	}

	return RGBA{}, fmt.Errorf("%q: unknown color", s)
}

// UnmarshalJSON accepts a color string or an array of three or four
// numeric components.
func (c *RGBA) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		c2, err := ParseColor(s)
		if err != nil {
			return err
		}
		*c = c2
		return nil
	}

	var v []float64
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("%s: expected a color name or component array", string(b))
	}
	switch len(v) {
	case 3:
		*c = RGB(v[0], v[1], v[2])
	case 4:
		*c = RGBA{v[0], v[1], v[2], v[3]}
	default:
		return fmt.Errorf("%s: expected 3 or 4 color components", string(b))
	}
	return nil
}

func (c RGBA) MarshalJSON() ([]byte, error) {
	return json.Marshal([]float64{c.R, c.G, c.B, c.A})
}

// RGBA implements color.Color.
func (c RGBA) RGBA() (r, g, b, a uint32) {
	return c.NRGBA().RGBA()
}

func (c RGBA) NRGBA() color.NRGBA {
	cv := func(f float64) uint8 { return uint8(math.Clamp(f, 0, 1)*255 + 0.5) }
	return color.NRGBA{R: cv(c.R), G: cv(c.G), B: cv(c.B), A: cv(c.A)}
}

func (c RGBA) WithAlpha(a float64) RGBA {
	c.A = a
	return c
}

func LerpRGBA(x float64, a, b RGBA) RGBA {
	return RGBA{
		R: math.Lerp(x, a.R, b.R),
		G: math.Lerp(x, a.G, b.G),
		B: math.Lerp(x, a.B, b.B),
		A: math.Lerp(x, a.A, b.A),
	}
}

// Colormap maps values in [0,1] to colors by linear interpolation between
// evenly-spaced control colors. Under and Over are used for values below
// 0 and above 1.
type Colormap struct {
	Name        string
	Colors      []RGBA
	Under, Over RGBA
	Bad         RGBA
}

func NewColormap(name string, colors ...RGBA) *Colormap {
	return &Colormap{
		Name:   name,
		Colors: colors,
		Under:  colors[0],
		Over:   colors[len(colors)-1],
		Bad:    Transparent,
	}
}

// At returns the color for x.
func (cm *Colormap) At(x float64) RGBA {
	switch {
	case gomath.IsNaN(x):
		return cm.Bad
	case x < 0:
		return cm.Under
	case x > 1:
		return cm.Over
	case len(cm.Colors) == 1:
		return cm.Colors[0]
	}

	f := x * float64(len(cm.Colors)-1)
	i := min(int(f), len(cm.Colors)-2)
	return LerpRGBA(f-float64(i), cm.Colors[i], cm.Colors[i+1])
}

// Sample returns n colors evenly spaced across the colormap, from 0 to 1.
func (cm *Colormap) Sample(n int) []RGBA {
	c := make([]RGBA, n)
	for i := range c {
		if n == 1 {
			c[i] = cm.At(0.5)
		} else {
			c[i] = cm.At(float64(i) / float64(n-1))
		}
	}
	return c
}

// BoundaryNorm maps values to discrete colors: the value v falls in bin
// i if Boundaries[i] <= v < Boundaries[i+1], and bins are spread evenly
// across the colormap.
type BoundaryNorm struct {
	Boundaries []float64
}

func NewBoundaryNorm(boundaries []float64) (*BoundaryNorm, error) {
	if len(boundaries) < 2 {
		return nil, fmt.Errorf("need at least two boundaries, got %d", len(boundaries))
	}
	if !slices.IsSorted(boundaries) {
		return nil, fmt.Errorf("boundaries must be increasing")
	}
	return &BoundaryNorm{Boundaries: slices.Clone(boundaries)}, nil
}

// Bin returns the bin index of v; values below the first boundary give
// -1 and values beyond the last give len(Boundaries)-1. The last
// boundary itself is included in the final bin.
func (n *BoundaryNorm) Bin(v float64) int {
	i, found := slices.BinarySearch(n.Boundaries, v)
	if found {
		return min(i, len(n.Boundaries)-2)
	}
	return i - 1
}

// Normalize maps v to [0,1] for colormap lookup; values outside the
// boundaries map below 0 or above 1.
func (n *BoundaryNorm) Normalize(v float64) float64 {
	if gomath.IsNaN(v) {
		return v
	}
	nbins := len(n.Boundaries) - 1
	b := n.Bin(v)
	switch {
	case b < 0:
		return -1
	case b >= nbins:
		return 2
	case nbins == 1:
		return 0.5
	}
	return float64(b) / float64(nbins-1)
}

// Color returns the color for v using cm.
func (n *BoundaryNorm) Color(cm *Colormap, v float64) RGBA {
	return cm.At(n.Normalize(v))
}
