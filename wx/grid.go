// wx/grid.go
// Copyright(c) 2025 metproducts contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package wx

import (
	"fmt"
	"time"

	"github.com/hdwx/metproducts/util"
)

// Grid holds the 850 hPa fields of one model forecast time on a common
// grid. U and V may be nil, in which case no winds are available.
type Grid struct {
	Model    string
	InitTime time.Time
	FcstTime time.Time

	Lon, Lat *Field // degrees
	Temp     *Field // any temperature unit
	Hght     *Field // geopotential height (or geopotential)
	U, V     *Field // grid-relative eastward and northward wind
}

// LeadTime returns the time from model initialization to forecast validity.
func (g *Grid) LeadTime() time.Duration {
	return g.FcstTime.Sub(g.InitTime)
}

func (g *Grid) HaveWinds() bool {
	return g.U != nil && g.V != nil
}

// Validate checks that all fields are present where required and share
// the coordinate grid's shape.
func (g *Grid) Validate() error {
	var e util.ErrorLogger
	e.Push(g.Model)
	defer e.Pop()

	check := func(name string, f *Field, required bool) {
		if f == nil {
			if required {
				e.ErrorString("%s: missing field", name)
			}
			return
		}
		if len(f.Data) != f.NX*f.NY {
			e.ErrorString("%s: %d values for %dx%d: %w", name, len(f.Data), f.NX, f.NY, ErrShapeMismatch)
		} else if g.Lon != nil && !f.SameShape(g.Lon) {
			e.ErrorString("%s: shape %dx%d does not match coordinates %dx%d: %w", name, f.NY, f.NX,
				g.Lon.NY, g.Lon.NX, ErrShapeMismatch)
		}
	}

	check("lon", g.Lon, true)
	check("lat", g.Lat, true)
	check("temperature", g.Temp, true)
	check("height", g.Hght, true)
	check("u", g.U, false)
	check("v", g.V, false)
	if (g.U == nil) != (g.V == nil) {
		e.ErrorString("only one wind component given")
	}
	if g.FcstTime.Before(g.InitTime) {
		e.ErrorString("forecast time %s is before initialization %s", g.FcstTime, g.InitTime)
	}

	if e.HaveErrors() {
		return fmt.Errorf("invalid grid: %w", e.Err())
	}
	return nil
}

// Spacing returns the x distance between the first two columns of row 0
// of xx; for projected coordinates this is the grid spacing used to space
// wind barbs.
func Spacing(xx *Field) float64 {
	if xx.NX < 2 {
		return 0
	}
	return xx.At(0, 1) - xx.At(0, 0)
}

// Meshgrid expands 1-D longitude and latitude coordinate vectors into 2-D
// fields with len(lat) rows and len(lon) columns.
func Meshgrid(lon, lat []float64) (*Field, *Field) {
	nx, ny := len(lon), len(lat)
	lons, lats := MakeField(nx, ny, Degrees), MakeField(nx, ny, Degrees)
	for i := range ny {
		for j := range nx {
			lons.Set(i, j, lon[j])
			lats.Set(i, j, lat[i])
		}
	}
	return lons, lats
}
