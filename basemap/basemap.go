// basemap/basemap.go
// Copyright(c) 2025 metproducts contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package basemap provides coastline, state and country border lines for
// map axes. Lines are read from Natural Earth GeoJSON files when they are
// available and otherwise from a coarse built-in North American dataset.
package basemap

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	gomath "math"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/simplify"

	"github.com/hdwx/metproducts/log"
	"github.com/hdwx/metproducts/math"
	"github.com/hdwx/metproducts/plot"
)

//go:embed data/*.geojson
var builtinFS embed.FS

// Resolution is a Natural Earth scale: "10m", "50m" or "110m".
type Resolution string

const (
	Res10m  Resolution = "10m"
	Res50m  Resolution = "50m"
	Res110m Resolution = "110m"
)

func ParseResolution(s string) (Resolution, error) {
	switch r := Resolution(strings.TrimSpace(s)); r {
	case Res10m, Res50m, Res110m:
		return r, nil
	default:
		return "", fmt.Errorf("%q: unknown resolution; expected 10m, 50m or 110m", s)
	}
}

// tolerance returns the Douglas-Peucker threshold in degrees used when
// lines at the resolution have to be derived from another dataset.
func (r Resolution) tolerance() float64 {
	switch r {
	case Res110m:
		return 0.25
	case Res50m:
		return 0.05
	default:
		return 0
	}
}

// Kind identifies one of the line datasets.
type Kind int

const (
	Coastline Kind = iota
	States
	Borders
)

func (k Kind) String() string {
	switch k {
	case Coastline:
		return "coastline"
	case States:
		return "states"
	case Borders:
		return "borders"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// naturalEarthName returns the Natural Earth file name stem for the kind.
func (k Kind) naturalEarthName(r Resolution) string {
	switch k {
	case Coastline:
		return "ne_" + string(r) + "_coastline"
	case States:
		return "ne_" + string(r) + "_admin_1_states_provinces_lines"
	default:
		return "ne_" + string(r) + "_admin_0_boundary_lines_land"
	}
}

type linesKey struct {
	kind Kind
	res  Resolution
}

type pathsKey struct {
	linesKey
	proj string
}

// Library loads and caches basemap lines. It is safe for concurrent use.
type Library struct {
	fsys fs.FS
	lg   *log.Logger

	mu    sync.Mutex
	lines map[linesKey][]orb.LineString

	// Projected lines, by projection.
	paths *expirable.LRU[pathsKey, []plot.Polyline]
}

// NewLibrary returns a Library reading Natural Earth GeoJSON files from
// fsys, falling back to the built-in data for any that are missing. fsys
// may be nil to use only the built-in data.
func NewLibrary(fsys fs.FS, lg *log.Logger) *Library {
	return &Library{
		fsys:  fsys,
		lg:    lg,
		lines: make(map[linesKey][]orb.LineString),
		paths: expirable.NewLRU[pathsKey, []plot.Polyline](64, nil, time.Hour),
	}
}

// Feature returns the lines of the given kind at resolution r as a
// feature that can be added to map axes.
func (l *Library) Feature(kind Kind, r Resolution) *Feature {
	return &Feature{lib: l, Kind: kind, Resolution: r}
}

// Lines returns the geographic lines of the given kind, with longitude
// and latitude in degrees.
func (l *Library) Lines(kind Kind, r Resolution) ([]orb.LineString, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	k := linesKey{kind, r}
	if ls, ok := l.lines[k]; ok {
		return ls, nil
	}

	ls, err := l.load(kind, r)
	if err != nil {
		return nil, err
	}
	l.lines[k] = ls
	return ls, nil
}

func (l *Library) load(kind Kind, r Resolution) ([]orb.LineString, error) {
	if l.fsys != nil {
		fn := kind.naturalEarthName(r) + ".geojson"
		b, err := fs.ReadFile(l.fsys, fn)
		if err == nil {
			ls, err := parseLines(b)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", fn, err)
			}
			l.lg.Debugf("basemap: %d %s lines from %s", len(ls), kind, fn)
			return ls, nil
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		l.lg.Debugf("basemap: %s not found; using built-in %s", fn, kind)
	}

	fn := "data/" + kind.String() + ".geojson"
	b, err := builtinFS.ReadFile(fn)
	if err != nil {
		return nil, err
	}
	ls, err := parseLines(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fn, err)
	}
	if tol := r.tolerance(); tol > 0 {
		dp := simplify.DouglasPeucker(tol)
		for i := range ls {
			ls[i] = dp.LineString(ls[i])
		}
	}
	l.lg.Debugf("basemap: %d built-in %s lines at %s", len(ls), kind, r)
	return ls, nil
}

// parseLines returns the lines of all of the line and polygon features
// in a GeoJSON feature collection; polygons contribute their rings.
func parseLines(b []byte) ([]orb.LineString, error) {
	fc, err := geojson.UnmarshalFeatureCollection(b)
	if err != nil {
		return nil, err
	}

	var ls []orb.LineString
	var add func(g orb.Geometry) error
	add = func(g orb.Geometry) error {
		switch g := g.(type) {
		case orb.LineString:
			ls = append(ls, g)
		case orb.MultiLineString:
			ls = append(ls, g...)
		case orb.Ring:
			ls = append(ls, orb.LineString(g))
		case orb.Polygon:
			for _, r := range g {
				ls = append(ls, orb.LineString(r))
			}
		case orb.MultiPolygon:
			for _, p := range g {
				if err := add(p); err != nil {
					return err
				}
			}
		case orb.Collection:
			for _, c := range g {
				if err := add(c); err != nil {
					return err
				}
			}
		case orb.Point, orb.MultiPoint:
		default:
			return fmt.Errorf("unexpected geometry type %T", g)
		}
		return nil
	}

	for _, f := range fc.Features {
		if f.Geometry == nil {
			continue
		}
		if err := add(f.Geometry); err != nil {
			return nil, fmt.Errorf("%s: %w", f.Properties.MustString("name", "feature"), err)
		}
	}
	return ls, nil
}

// projectLines maps geographic lines into proj. Lines are broken, with a
// NaN point, where they cross the antimeridian or leave the projection's
// domain.
func projectLines(ls []orb.LineString, proj math.Projection) []plot.Polyline {
	brk := plot.Point{X: gomath.NaN(), Y: gomath.NaN()}

	var paths []plot.Polyline
	for _, line := range ls {
		if len(line) < 2 {
			continue
		}
		pl := make(plot.Polyline, 0, len(line))
		for i, p := range line {
			if i > 0 && gomath.Abs(p.Lon()-line[i-1].Lon()) > 180 {
				pl = append(pl, brk)
			}
			x, y := proj.Forward(p.Lon(), p.Lat())
			if !math.IsFinite(x) || !math.IsFinite(y) {
				pl = append(pl, brk)
				continue
			}
			pl = append(pl, plot.Point{X: x, Y: y})
		}
		paths = append(paths, pl)
	}
	return paths
}

// projectionKey identifies a projection and its parameters.
func projectionKey(p math.Projection) string {
	return fmt.Sprintf("%s %+v", p.Name(), p)
}

// Feature is a basemap line dataset at a particular resolution. It
// implements plot.Feature.
type Feature struct {
	Kind       Kind
	Resolution Resolution

	lib *Library
}

func (f *Feature) Name() string {
	return f.Kind.String() + " (" + string(f.Resolution) + ")"
}

// Paths returns the feature's lines projected with proj.
func (f *Feature) Paths(proj math.Projection) ([]plot.Polyline, error) {
	k := pathsKey{linesKey{f.Kind, f.Resolution}, projectionKey(proj)}
	if p, ok := f.lib.paths.Get(k); ok {
		return p, nil
	}

	ls, err := f.lib.Lines(f.Kind, f.Resolution)
	if err != nil {
		return nil, err
	}
	p := projectLines(ls, proj)
	f.lib.paths.Add(k, p)
	return p, nil
}

var _ plot.Feature = (*Feature)(nil)

var (
	builtinOnce sync.Once
	builtinLib  *Library
)

// Builtin returns a shared Library holding only the built-in data.
func Builtin() *Library {
	builtinOnce.Do(func() { builtinLib = NewLibrary(nil, nil) })
	return builtinLib
}
