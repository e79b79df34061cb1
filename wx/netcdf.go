// wx/netcdf.go
// Copyright(c) 2025 metproducts contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package wx

import (
	"fmt"
	gomath "math"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"

	"github.com/hdwx/metproducts/log"
	"github.com/hdwx/metproducts/util"
)

// NetCDFVars names the variables and dimensions to read from a model
// output file.
type NetCDFVars struct {
	Lon, Lat   string
	Temp, Hght string
	U, V       string // optional
	Time       string
	Level      string
	// Value of the Level coordinate to select; ignored for fields
	// without a level dimension.
	Pressure float64
}

// DefaultNetCDFVars matches ERA5 pressure-level downloads.
var DefaultNetCDFVars = NetCDFVars{
	Lon:      "longitude",
	Lat:      "latitude",
	Temp:     "t",
	Hght:     "z",
	U:        "u",
	V:        "v",
	Time:     "time",
	Level:    "level",
	Pressure: 850,
}

// NetCDFFile is an open model output file; Grid returns the 850 hPa grid
// for each of its forecast times.
type NetCDFFile struct {
	Model string
	Vars  NetCDFVars

	nc      api.Group
	times   []time.Time
	lon     *Field
	lat     *Field
	levelIx int
	lg      *log.Logger
}

func OpenNetCDF(path, model string, vars NetCDFVars, lg *log.Logger) (*NetCDFFile, error) {
	nc, err := netcdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	f := &NetCDFFile{Model: model, Vars: vars, nc: nc, levelIx: -1, lg: lg}
	if err := f.readCoordinates(); err != nil {
		nc.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	lg.Info("opened netcdf", "path", path, "model", model, "times", len(f.times),
		"nx", f.lon.NX, "ny", f.lon.NY, "level_index", f.levelIx)
	return f, nil
}

func (f *NetCDFFile) Close() {
	f.nc.Close()
}

// Times returns the forecast times available in the file.
func (f *NetCDFFile) Times() []time.Time {
	return slices.Clone(f.times)
}

func (f *NetCDFFile) readCoordinates() error {
	lon, lonDims, err := f.readVar(f.Vars.Lon, -1)
	if err != nil {
		return err
	}
	lat, latDims, err := f.readVar(f.Vars.Lat, -1)
	if err != nil {
		return err
	}

	switch {
	case len(lonDims) == 1 && len(latDims) == 1:
		f.lon, f.lat = Meshgrid(lon.Data, lat.Data)
	case len(lonDims) == 2 && len(latDims) == 2:
		if !lon.SameShape(lat) {
			return fmt.Errorf("%s and %s: %w", f.Vars.Lon, f.Vars.Lat, ErrShapeMismatch)
		}
		f.lon, f.lat = lon, lat
	default:
		return fmt.Errorf("%s/%s: unsupported coordinate dimensions %v and %v", f.Vars.Lon, f.Vars.Lat,
			lonDims, latDims)
	}
	f.lon.Unit, f.lat.Unit = Degrees, Degrees

	if f.Vars.Time != "" {
		tv, err := f.nc.GetVarGetter(f.Vars.Time)
		if err != nil {
			return fmt.Errorf("%s: %w", f.Vars.Time, err)
		}
		vals, err := tv.Values()
		if err != nil {
			return fmt.Errorf("%s: %w", f.Vars.Time, err)
		}
		units, _ := stringAttribute(tv.Attributes(), "units")
		if f.times, err = ParseCFTimes(flatten(vals), units); err != nil {
			return fmt.Errorf("%s: %w", f.Vars.Time, err)
		}
	}

	if f.Vars.Level != "" {
		if lv, err := f.nc.GetVarGetter(f.Vars.Level); err == nil {
			vals, err := lv.Values()
			if err != nil {
				return fmt.Errorf("%s: %w", f.Vars.Level, err)
			}
			levels := flatten(vals)
			f.levelIx = slices.IndexFunc(levels, func(l float64) bool {
				return gomath.Abs(l-f.Vars.Pressure) < 1e-3
			})
			if f.levelIx == -1 {
				return fmt.Errorf("%s: no %g level in %v", f.Vars.Level, f.Vars.Pressure, levels)
			}
		}
	}

	return nil
}

// Grid reads the fields for the i'th time in the file. The earliest time
// in the file is taken as the model initialization time.
func (f *NetCDFFile) Grid(i int) (*Grid, error) {
	if len(f.times) > 0 && (i < 0 || i >= len(f.times)) {
		return nil, fmt.Errorf("time index %d out of range [0,%d)", i, len(f.times))
	}

	g := &Grid{Model: f.Model, Lon: f.lon, Lat: f.lat}
	if len(f.times) > 0 {
		g.InitTime, g.FcstTime = slices.MinFunc(f.times, time.Time.Compare), f.times[i]
	}

	var e util.ErrorLogger
	read := func(name string, required bool) *Field {
		if name == "" {
			return nil
		}
		e.Push(name)
		defer e.Pop()

		fld, _, err := f.readVar(name, i)
		if err != nil {
			if required {
				e.Error(err)
			} else {
				f.lg.Warnf("%s: %v", name, err)
			}
			return nil
		}
		return fld
	}

	g.Temp = read(f.Vars.Temp, true)
	g.Hght = read(f.Vars.Hght, true)
	g.U = read(f.Vars.U, false)
	g.V = read(f.Vars.V, false)
	if e.HaveErrors() {
		return nil, e.Err()
	}

	if g.Hght != nil && g.Hght.Unit == Geopotential {
		g.Hght = g.Hght.MustTo(Meters)
	}
	if g.U == nil || g.V == nil {
		g.U, g.V = nil, nil
	}

	return g, g.Validate()
}

// readVar reads a variable, selecting time index ti if the variable's
// leading dimension is time and the configured level if it has a level
// dimension. CF packing (scale_factor and add_offset) and _FillValue are
// applied and the units attribute is parsed.
func (f *NetCDFFile) readVar(name string, ti int) (*Field, []string, error) {
	vg, err := f.nc.GetVarGetter(name)
	if err != nil {
		return nil, nil, err
	}

	dims := vg.Dimensions()
	var vals any
	if ti >= 0 && len(dims) > 0 && dims[0] == f.Vars.Time {
		v, err := vg.GetSlice(int64(ti), int64(ti)+1)
		if err != nil {
			return nil, nil, err
		}
		vals = reflect.ValueOf(v).Index(0).Interface()
		dims = dims[1:]
	} else if vals, err = vg.Values(); err != nil {
		return nil, nil, err
	}

	if len(dims) > 0 && dims[0] == f.Vars.Level && f.Vars.Level != "" {
		if f.levelIx < 0 {
			return nil, nil, fmt.Errorf("no %s coordinate to select from", f.Vars.Level)
		}
		vals = reflect.ValueOf(vals).Index(f.levelIx).Interface()
		dims = dims[1:]
	}

	var nx, ny int
	switch len(dims) {
	case 1:
		nx, ny = reflect.ValueOf(vals).Len(), 1
	case 2:
		rv := reflect.ValueOf(vals)
		ny = rv.Len()
		if ny > 0 {
			nx = rv.Index(0).Len()
		}
	default:
		return nil, nil, fmt.Errorf("unexpected dimensions %v", dims)
	}

	data := flatten(vals)
	attrs := vg.Attributes()
	scale, offset := 1.0, 0.0
	if s, ok := numericAttribute(attrs, "scale_factor"); ok {
		scale = s
	}
	if o, ok := numericAttribute(attrs, "add_offset"); ok {
		offset = o
	}
	fill, haveFill := numericAttribute(attrs, "_FillValue")
	for i, v := range data {
		if haveFill && v == fill {
			data[i] = gomath.NaN()
		} else {
			data[i] = v*scale + offset
		}
	}

	unit := Dimensionless
	if us, ok := stringAttribute(attrs, "units"); ok {
		if unit, err = ParseUnit(us); err != nil {
			f.lg.Warnf("%s: %v", name, err)
		}
	}

	fld, err := NewField(nx, ny, data, unit)
	return fld, dims, err
}

func numericAttribute(attrs api.AttributeMap, key string) (float64, bool) {
	if attrs == nil {
		return 0, false
	}
	v, ok := attrs.Get(key)
	if !ok {
		return 0, false
	}
	if f := flatten(v); len(f) > 0 {
		return f[0], true
	}
	return 0, false
}

func stringAttribute(attrs api.AttributeMap, key string) (string, bool) {
	if attrs == nil {
		return "", false
	}
	v, ok := attrs.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// flatten converts arbitrarily nested slices of any numeric type to a
// flat []float64 in row-major order.
func flatten(v any) []float64 {
	var r []float64
	var rec func(rv reflect.Value)
	rec = func(rv reflect.Value) {
		switch rv.Kind() {
		case reflect.Slice, reflect.Array:
			for i := range rv.Len() {
				rec(rv.Index(i))
			}
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			r = append(r, float64(rv.Int()))
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			r = append(r, float64(rv.Uint()))
		case reflect.Float32, reflect.Float64:
			r = append(r, rv.Float())
		case reflect.Interface, reflect.Pointer:
			if !rv.IsNil() {
				rec(rv.Elem())
			}
		}
	}
	rec(reflect.ValueOf(v))
	return r
}

// ParseCFTimes converts time coordinate values with CF units such as
// "hours since 1900-01-01 00:00:00" to times in UTC.
func ParseCFTimes(vals []float64, units string) ([]time.Time, error) {
	unit, since, ok := strings.Cut(units, " since ")
	if !ok {
		return nil, fmt.Errorf("%q: expected \"<units> since <time>\"", units)
	}

	var step time.Duration
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "seconds", "second", "secs", "s":
		step = time.Second
	case "minutes", "minute", "mins", "min":
		step = time.Minute
	case "hours", "hour", "hrs", "h":
		step = time.Hour
	case "days", "day", "d":
		step = 24 * time.Hour
	default:
		return nil, fmt.Errorf("%q: unsupported time unit", unit)
	}

	since = strings.TrimSuffix(strings.TrimSpace(since), " UTC")
	var ref time.Time
	var err error
	for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02T15:04:05Z", "2006-01-02 15:04", "2006-01-02", time.RFC3339} {
		if ref, err = time.Parse(layout, since); err == nil {
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("%q: unable to parse reference time", since)
	}

	t := make([]time.Time, len(vals))
	for i, v := range vals {
		t[i] = ref.Add(time.Duration(gomath.Round(v * float64(step)))).UTC()
	}
	return t, nil
}
