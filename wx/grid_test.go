// wx/grid_test.go
// Copyright(c) 2025 metproducts contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package wx

import (
	"bytes"
	"errors"
	gomath "math"
	"path/filepath"
	"testing"
	"time"
)

var testInit = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestSynthetic(t *testing.T) {
	g := Synthetic("TEST", 10, 8, testInit, 6*time.Hour)
	if err := g.Validate(); err != nil {
		t.Fatal(err)
	}
	if g.LeadTime() != 6*time.Hour {
		t.Errorf("lead time %s", g.LeadTime())
	}
	if ny, nx := g.Temp.Shape(); ny != 8 || nx != 10 {
		t.Errorf("shape (%d, %d)", ny, nx)
	}
	if !g.HaveWinds() {
		t.Errorf("expected winds")
	}

	lo, hi, _ := g.Temp.MustTo(Celsius).Range()
	if lo >= 0 || hi <= 0 {
		t.Errorf("temperature range [%g, %g] should straddle freezing", lo, hi)
	}
	if d := Spacing(g.Lon); gomath.Abs(d-58.0/9) > 1e-9 {
		t.Errorf("spacing %g", d)
	}

	// Same inputs give the same grid.
	g2 := Synthetic("TEST", 10, 8, testInit, 6*time.Hour)
	for i := range g.Hght.Data {
		if g.Hght.Data[i] != g2.Hght.Data[i] {
			t.Fatalf("synthetic grids differ at %d", i)
		}
	}
}

func TestGridValidate(t *testing.T) {
	g := Synthetic("TEST", 4, 4, testInit, 0)
	g.Temp = MakeField(3, 4, Kelvin)
	if err := g.Validate(); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("expected ErrShapeMismatch, got %v", err)
	}

	g = Synthetic("TEST", 4, 4, testInit, 0)
	g.V = nil
	if err := g.Validate(); err == nil {
		t.Errorf("expected an error with a single wind component")
	}

	g = Synthetic("TEST", 4, 4, testInit, 0)
	g.Hght = nil
	if err := g.Validate(); err == nil {
		t.Errorf("expected an error for missing heights")
	}

	g = Synthetic("TEST", 4, 4, testInit, 0)
	g.U, g.V = nil, nil
	if err := g.Validate(); err != nil {
		t.Errorf("winds are optional: %v", err)
	}
}

func TestMeshgrid(t *testing.T) {
	lon, lat := Meshgrid([]float64{1, 2, 3}, []float64{10, 20})
	if lon.NX != 3 || lon.NY != 2 || !lon.SameShape(lat) {
		t.Fatalf("shape %dx%d", lon.NY, lon.NX)
	}
	if lon.At(1, 2) != 3 || lat.At(1, 2) != 20 || lat.At(0, 2) != 10 {
		t.Errorf("unexpected values %v %v", lon.Data, lat.Data)
	}
}

func checkGridsClose(t *testing.T, a, b *Grid) {
	t.Helper()

	if a.Model != b.Model || !a.InitTime.Equal(b.InitTime) || !a.FcstTime.Equal(b.FcstTime) {
		t.Errorf("metadata mismatch: %s %s %s vs %s %s %s", a.Model, a.InitTime, a.FcstTime,
			b.Model, b.InitTime, b.FcstTime)
	}
	for _, f := range []struct {
		name string
		a, b *Field
		tol  float64
	}{
		{"lon", a.Lon, b.Lon, coordStep},
		{"lat", a.Lat, b.Lat, coordStep},
		{"temp", a.Temp, b.Temp, tempStep},
		{"hght", a.Hght, b.Hght, hghtStep},
		{"u", a.U, b.U, windStep},
		{"v", a.V, b.V, windStep},
	} {
		if !f.a.SameShape(f.b) {
			t.Errorf("%s: shape mismatch", f.name)
			continue
		}
		if f.a.Unit != f.b.Unit {
			t.Errorf("%s: unit %q vs %q", f.name, f.a.Unit, f.b.Unit)
		}
		for i := range f.a.Data {
			va, vb := f.a.Data[i], f.b.Data[i]
			if gomath.IsNaN(va) != gomath.IsNaN(vb) || gomath.Abs(va-vb) > f.tol {
				t.Errorf("%s[%d]: %g vs %g", f.name, i, va, vb)
				break
			}
		}
	}
}

func TestGridFile(t *testing.T) {
	g := Synthetic("HRRR", 17, 11, testInit, 18*time.Hour)
	g.Temp.Data[5] = gomath.NaN()

	var buf bytes.Buffer
	if err := WriteGrid(&buf, g); err != nil {
		t.Fatal(err)
	}
	g2, err := ReadGrid(&buf)
	if err != nil {
		t.Fatal(err)
	}
	checkGridsClose(t, g, g2)

	path := filepath.Join(t.TempDir(), "grid"+GridFileExtension)
	if err := WriteGridFile(path, g); err != nil {
		t.Fatal(err)
	}
	g3, err := ReadGridFile(path)
	if err != nil {
		t.Fatal(err)
	}
	checkGridsClose(t, g, g3)

	if _, err := ReadGrid(bytes.NewReader([]byte("not zstd"))); err == nil {
		t.Errorf("expected an error decoding garbage")
	}
}

func TestGridFileNoWinds(t *testing.T) {
	g := Synthetic("NAM", 5, 5, testInit, 0)
	g.U, g.V = nil, nil

	var buf bytes.Buffer
	if err := WriteGrid(&buf, g); err != nil {
		t.Fatal(err)
	}
	g2, err := ReadGrid(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if g2.HaveWinds() {
		t.Errorf("winds appeared from nowhere")
	}
}

func TestParseCFTimes(t *testing.T) {
	for _, tc := range []struct {
		units string
		vals  []float64
		want  []time.Time
	}{
		{"hours since 1900-01-01 00:00:00", []float64{1087128},
			[]time.Time{time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)}},
		{"seconds since 1970-01-01", []float64{0, 3600},
			[]time.Time{time.Unix(0, 0).UTC(), time.Unix(3600, 0).UTC()}},
		{"minutes since 2024-01-01T00:00:00Z", []float64{360},
			[]time.Time{testInit.Add(6 * time.Hour)}},
		{"days since 2024-01-01 00:00", []float64{0.5},
			[]time.Time{testInit.Add(12 * time.Hour)}},
	} {
		got, err := ParseCFTimes(tc.vals, tc.units)
		if err != nil {
			t.Errorf("%q: %v", tc.units, err)
			continue
		}
		for i := range got {
			if !got[i].Equal(tc.want[i]) {
				t.Errorf("%q: %g -> %s, want %s", tc.units, tc.vals[i], got[i], tc.want[i])
			}
		}
	}

	for _, units := range []string{"hours", "fortnights since 2024-01-01", "hours since yesterday"} {
		if _, err := ParseCFTimes([]float64{1}, units); err == nil {
			t.Errorf("%q: expected an error", units)
		}
	}
}

func TestFlatten(t *testing.T) {
	got := flatten([][][]int16{{{1, 2}, {3, 4}}, {{5, 6}, {7, 8}}})
	if len(got) != 8 {
		t.Fatalf("got %d values", len(got))
	}
	for i, v := range got {
		if v != float64(i+1) {
			t.Errorf("[%d] = %g", i, v)
		}
	}
	if f := flatten([]float32{0.5}); len(f) != 1 || f[0] != 0.5 {
		t.Errorf("got %v", f)
	}
	if f := flatten(int32(7)); len(f) != 1 || f[0] != 7 {
		t.Errorf("scalar: got %v", f)
	}
	if f := flatten("units"); len(f) != 0 {
		t.Errorf("string: got %v", f)
	}
}
