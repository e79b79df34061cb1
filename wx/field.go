// wx/field.go
// Copyright(c) 2025 metproducts contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package wx

import (
	"errors"
	"fmt"
	gomath "math"

	"github.com/hdwx/metproducts/math"
)

var ErrShapeMismatch = errors.New("shape mismatch")

// Field is a 2-D grid of values stored row-major: NY rows of NX columns.
// Row index i runs along the grid's y (latitude) axis and column index j
// along x (longitude). Fields are treated as immutable; operations return
// new fields.
type Field struct {
	NX, NY int
	Data   []float64
	Unit   Unit
}

func MakeField(nx, ny int, unit Unit) *Field {
	return &Field{NX: nx, NY: ny, Data: make([]float64, nx*ny), Unit: unit}
}

// NewField wraps data, which must hold nx*ny values.
func NewField(nx, ny int, data []float64, unit Unit) (*Field, error) {
	if nx <= 0 || ny <= 0 {
		return nil, fmt.Errorf("invalid field dimensions %dx%d", nx, ny)
	}
	if len(data) != nx*ny {
		return nil, fmt.Errorf("%d values for a %dx%d field: %w", len(data), nx, ny, ErrShapeMismatch)
	}
	return &Field{NX: nx, NY: ny, Data: data, Unit: unit}, nil
}

func (f *Field) At(i, j int) float64 {
	return f.Data[i*f.NX+j]
}

func (f *Field) Set(i, j int, v float64) {
	f.Data[i*f.NX+j] = v
}

func (f *Field) Shape() (ny, nx int) {
	return f.NY, f.NX
}

func (f *Field) SameShape(g *Field) bool {
	return f != nil && g != nil && f.NX == g.NX && f.NY == g.NY
}

// To returns the field converted to the given unit.
func (f *Field) To(unit Unit) (*Field, error) {
	conv, err := Converter(f.Unit, unit)
	if err != nil {
		return nil, err
	}
	return f.Map(conv, unit), nil
}

// MustTo is To for unit pairs known to be compatible.
func (f *Field) MustTo(unit Unit) *Field {
	g, err := f.To(unit)
	if err != nil {
		panic(err)
	}
	return g
}

// Map returns a new field with fn applied to each value.
func (f *Field) Map(fn func(float64) float64, unit Unit) *Field {
	g := &Field{NX: f.NX, NY: f.NY, Data: make([]float64, len(f.Data)), Unit: unit}
	for i, v := range f.Data {
		g.Data[i] = fn(v)
	}
	return g
}

// Decimate samples every stride'th row and column starting at (0, 0), so
// the result has ceil(NY/stride) rows and ceil(NX/stride) columns. stride
// must be positive.
func (f *Field) Decimate(stride int) (*Field, error) {
	if stride <= 0 {
		return nil, fmt.Errorf("decimation stride %d must be positive", stride)
	}

	nx, ny := math.CeilDiv(f.NX, stride), math.CeilDiv(f.NY, stride)
	g := &Field{NX: nx, NY: ny, Data: make([]float64, 0, nx*ny), Unit: f.Unit}
	for i := 0; i < f.NY; i += stride {
		for j := 0; j < f.NX; j += stride {
			g.Data = append(g.Data, f.At(i, j))
		}
	}
	return g, nil
}

// Range returns the minimum and maximum finite values in the field; ok is
// false if there are none.
func (f *Field) Range() (lo, hi float64, ok bool) {
	lo, hi = gomath.Inf(1), gomath.Inf(-1)
	for _, v := range f.Data {
		if math.IsFinite(v) {
			lo, hi = min(lo, v), max(hi, v)
			ok = true
		}
	}
	return
}
