// panel/options.go
// Copyright(c) 2025 metproducts contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package panel

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/brunoga/deep"
	"github.com/iancoleman/orderedmap"

	"github.com/hdwx/metproducts/basemap"
	"github.com/hdwx/metproducts/plot"
	"github.com/hdwx/metproducts/util"
)

// Options holds the drawing options for each kind of plotting call made
// when rendering a panel. It is read from a JSON file whose top-level
// keys name the option groups; any option not given in the file keeps
// the value from DefaultOptions.
type Options struct {
	// Filled temperature contours. Levels, colormap and norm come from
	// Temp850 and are not read from here.
	Contourf plot.ContourOptions `json:"contourf_Opts"`
	// Geopotential height contours.
	Contour  plot.ContourOptions  `json:"contour_Opts"`
	Clabel   plot.ClabelOptions   `json:"clabel_Opts"`
	Colorbar plot.ColorbarOptions `json:"colorbar_Opts"`
	Barb     plot.BarbOptions     `json:"barb_Opts"`
	Basemap  BasemapOptions       `json:"basemap_Opts"`
}

// BasemapOptions configures PlotBasemap.
type BasemapOptions struct {
	// Projected units per centimeter of figure.
	Scale      float64 `json:"scale,omitempty"`
	Resolution string  `json:"resolution,omitempty"`
	LineWidth  float64 `json:"linewidth,omitempty"` // points

	// Source of the map lines; if nil, the built-in data is used.
	Library *basemap.Library `json:"-"`
}

func DefaultBasemapOptions() BasemapOptions {
	return BasemapOptions{Scale: 5.0e5, Resolution: string(basemap.Res50m), LineWidth: 0.5}
}

// DefaultOptions returns the options used when no options file is given.
func DefaultOptions() *Options {
	return &Options{
		Contourf: plot.ContourOptions{
			Extend: plot.ExtendBoth,
		},
		Contour: plot.ContourOptions{
			Levels:     plot.Floats(evenlySpaced(900, 1800, 30)),
			Colors:     plot.Colors{plot.Black},
			LineWidths: plot.Floats{1.5},
		},
		Clabel: plot.ClabelOptions{
			FontSize:      8,
			Inline:        true,
			InlineSpacing: 5,
			Fmt:           "%d",
		},
		Colorbar: plot.ColorbarOptions{
			Orientation: "horizontal",
			ExtendFrac:  0.05,
			LineWidth:   0.8,
			TickLength:  3.5,
			Format:      "%d",
		},
		Barb: plot.BarbOptions{
			Length:     5.5,
			LineWidth:  0.5,
			Color:      plot.Black,
			Pivot:      "tip",
			Sizes:      plot.DefaultBarbOptions().Sizes,
			Increments: plot.DefaultBarbOptions().Increments,
			Rounding:   true,
			ZOrder:     plot.ZOrderLine,
		},
		Basemap: DefaultBasemapOptions(),
	}
}

// LoadOptions reads options from the JSON file at path.
func LoadOptions(path string) (*Options, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	opts, err := ParseOptions(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return opts, nil
}

// ParseOptions parses options in JSON. Unknown option names are errors so
// that misspellings are caught.
func ParseOptions(b []byte) (*Options, error) {
	var e util.ErrorLogger
	util.CheckJSONKeys[Options](b, &e)
	if e.HaveErrors() {
		return nil, e.Err()
	}

	opts := DefaultOptions()
	if err := util.UnmarshalJSONBytes(b, opts); err != nil {
		return nil, err
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return opts, nil
}

// Validate checks the option values, reporting all problems found.
func (o *Options) Validate() error {
	var e util.ErrorLogger

	checkContour := func(group string, c plot.ContourOptions) {
		e.Push(group)
		defer e.Pop()

		if !c.Extend.Valid() {
			e.ErrorString("%q: invalid extend", c.Extend)
		}
		for _, s := range c.LineStyles {
			if !validLineStyle(s) {
				e.ErrorString("%q: invalid line style", s)
			}
		}
		if c.NegativeLineStyle != "" && !validLineStyle(c.NegativeLineStyle) {
			e.ErrorString("%q: invalid negative line style", c.NegativeLineStyle)
		}
		for _, w := range c.LineWidths {
			if w <= 0 {
				e.ErrorString("line width %g must be positive", w)
			}
		}
		if c.Alpha < 0 || c.Alpha > 1 {
			e.ErrorString("alpha %g must be between 0 and 1", c.Alpha)
		}
	}
	checkContour("contourf_Opts", o.Contourf)
	checkContour("contour_Opts", o.Contour)

	e.Push("clabel_Opts")
	if o.Clabel.FontSize < 0 {
		e.ErrorString("font size %g must be positive", o.Clabel.FontSize)
	}
	e.Pop()

	e.Push("colorbar_Opts")
	switch o.Colorbar.Orientation {
	case "", "horizontal", "vertical":
	default:
		e.ErrorString("%q: invalid orientation", o.Colorbar.Orientation)
	}
	e.Pop()

	e.Push("barb_Opts")
	switch o.Barb.Pivot {
	case "", "tip", "middle":
	default:
		e.ErrorString("%q: invalid pivot", o.Barb.Pivot)
	}
	if inc := o.Barb.Increments; inc.Half < 0 || inc.Full < 0 || inc.Flag < 0 {
		e.ErrorString("barb increments must be positive")
	}
	e.Pop()

	e.Push("basemap_Opts")
	if o.Basemap.Resolution != "" {
		if _, err := basemap.ParseResolution(o.Basemap.Resolution); err != nil {
			e.Error(err)
		}
	}
	if o.Basemap.Scale < 0 {
		e.ErrorString("scale %g must be positive", o.Basemap.Scale)
	}
	e.Pop()

	if e.HaveErrors() {
		return e.Err()
	}
	return nil
}

func validLineStyle(s string) bool {
	switch s {
	case "", "solid", "-", "dashed", "--", "dotted", ":", "dashdot", "-.":
		return true
	default:
		return false
	}
}

// Clone returns a deep copy of the options, for per-call overrides. The
// basemap library is shared, not copied.
func (o *Options) Clone() *Options {
	s := *o
	s.Basemap.Library = nil

	c := deep.MustCopy(&s)
	c.Basemap.Library = o.Basemap.Library
	return c
}

// Ordered returns the options as an ordered map, with groups and their
// options in declaration order, for printing.
func (o *Options) Ordered() (*orderedmap.OrderedMap, error) {
	b, err := json.Marshal(o)
	if err != nil {
		return nil, err
	}
	om := orderedmap.New()
	if err := json.Unmarshal(b, om); err != nil {
		return nil, err
	}
	om.SetEscapeHTML(false)
	return om, nil
}

func evenlySpaced(lo, hi, step float64) []float64 {
	var v []float64
	for i := 0; lo+float64(i)*step <= hi; i++ {
		v = append(v, lo+float64(i)*step)
	}
	return v
}
