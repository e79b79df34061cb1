// wx/gridfile.go
// Copyright(c) 2025 metproducts contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package wx

import (
	"errors"
	"fmt"
	"io"
	gomath "math"
	"os"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/hdwx/metproducts/util"
)

// GridFileExtension is the suffix of compressed grid cache files.
const GridFileExtension = ".msgpack.zst"

// Values are stored quantized to these steps; the result is well below
// what is visible in a rendered panel.
const (
	coordStep = 1e-4 // degrees
	tempStep  = 0.01 // K or degC
	hghtStep  = 0.1  // m
	windStep  = 0.01 // m/s or kts
)

// GridSOA is the serialized form of a Grid. Each field is quantized and
// delta-encoded so that the zstd stage sees long runs of small integers.
type GridSOA struct {
	Model    string
	InitTime int64 // Unix seconds
	FcstTime int64
	NX, NY   int

	Lon, Lat FieldSOA
	Temp     FieldSOA
	Hght     FieldSOA
	U, V     *FieldSOA
}

type FieldSOA struct {
	Unit   string
	Offset float64
	Step   float64
	// NaN values are stored as the minimum int32 before delta encoding.
	Deltas []int32
}

const missingQuantum = gomath.MinInt32

func makeFieldSOA(f *Field, step float64) FieldSOA {
	offset := 0.0
	if lo, _, ok := f.Range(); ok {
		offset = gomath.Floor(lo)
	}

	q := util.Quantize(f.Data, offset, step)
	for i, v := range f.Data {
		if gomath.IsNaN(v) {
			q[i] = missingQuantum
		}
	}
	return FieldSOA{Unit: string(f.Unit), Offset: offset, Step: step, Deltas: util.DeltaEncode(q)}
}

func (fs FieldSOA) toField(nx, ny int) (*Field, error) {
	q := util.DeltaDecode(fs.Deltas)
	data := util.Dequantize(q, fs.Offset, fs.Step)
	for i, v := range q {
		if v == missingQuantum {
			data[i] = gomath.NaN()
		}
	}
	if data == nil {
		data = []float64{}
	}
	return NewField(nx, ny, data, Unit(fs.Unit))
}

func (g *Grid) ToSOA() (GridSOA, error) {
	if err := g.Validate(); err != nil {
		return GridSOA{}, err
	}

	soa := GridSOA{
		Model:    g.Model,
		InitTime: g.InitTime.Unix(),
		FcstTime: g.FcstTime.Unix(),
		NX:       g.Lon.NX,
		NY:       g.Lon.NY,
		Lon:      makeFieldSOA(g.Lon, coordStep),
		Lat:      makeFieldSOA(g.Lat, coordStep),
		Temp:     makeFieldSOA(g.Temp, tempStep),
		Hght:     makeFieldSOA(g.Hght, hghtStep),
	}
	if g.HaveWinds() {
		u, v := makeFieldSOA(g.U, windStep), makeFieldSOA(g.V, windStep)
		soa.U, soa.V = &u, &v
	}
	return soa, nil
}

func (soa GridSOA) ToGrid() (*Grid, error) {
	g := &Grid{
		Model:    soa.Model,
		InitTime: time.Unix(soa.InitTime, 0).UTC(),
		FcstTime: time.Unix(soa.FcstTime, 0).UTC(),
	}

	var errs []error
	field := func(fs *FieldSOA) *Field {
		if fs == nil {
			return nil
		}
		f, err := fs.toField(soa.NX, soa.NY)
		errs = append(errs, err)
		return f
	}
	g.Lon, g.Lat = field(&soa.Lon), field(&soa.Lat)
	g.Temp, g.Hght = field(&soa.Temp), field(&soa.Hght)
	g.U, g.V = field(soa.U), field(soa.V)

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return g, g.Validate()
}

// WriteGrid writes g to w as zstd-compressed msgpack.
func WriteGrid(w io.Writer, g *Grid) error {
	soa, err := g.ToSOA()
	if err != nil {
		return err
	}

	zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	if err != nil {
		return fmt.Errorf("failed to create zstd writer: %w", err)
	}
	defer zw.Close()

	if err := msgpack.NewEncoder(zw).Encode(soa); err != nil {
		return fmt.Errorf("failed to encode grid: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to close zstd writer: %w", err)
	}
	return nil
}

func ReadGrid(r io.Reader) (*Grid, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd reader: %w", err)
	}
	defer zr.Close()

	var soa GridSOA
	if err := msgpack.NewDecoder(zr).Decode(&soa); err != nil {
		return nil, fmt.Errorf("failed to decode grid: %w", err)
	}
	return soa.ToGrid()
}

func WriteGridFile(path string, g *Grid) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteGrid(f, g); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	return f.Close()
}

func ReadGridFile(path string) (*Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	g, err := ReadGrid(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}
