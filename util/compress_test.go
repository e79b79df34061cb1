// util/compress_test.go
// Copyright(c) 2025 metproducts contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import (
	"math"
	"slices"
	"testing"
)

func TestDeltaEncodeDecode(t *testing.T) {
	tests := []struct {
		name  string
		input []int32
	}{
		{name: "single", input: []int32{42}},
		{name: "ascending", input: []int32{0, 1, 2, 3, 4, 5}},
		{name: "constant", input: []int32{10, 10, 10, 10}},
		{name: "mixed", input: []int32{100, -50, 75, 200, 150}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decoded := DeltaDecode(DeltaEncode(tt.input))
			if !slices.Equal(decoded, tt.input) {
				t.Errorf("DeltaDecode(DeltaEncode(%v)) = %v, want %v", tt.input, decoded, tt.input)
			}
		})
	}

	if got := DeltaEncode[int](nil); got != nil {
		t.Errorf("DeltaEncode(nil) = %v, want nil", got)
	}
}

func TestQuantize(t *testing.T) {
	v := []float64{-12.26, 0, 0.04, 1500.5, 1499.96}
	const step = 0.1

	q := Quantize(v, 0, step)
	back := Dequantize(q, 0, step)
	for i := range v {
		if math.Abs(back[i]-v[i]) > step/2+1e-9 {
			t.Errorf("value %d: %f -> %d -> %f exceeds half step", i, v[i], q[i], back[i])
		}
	}

	if q[0] != -123 {
		t.Errorf("negative values should round away from zero: got %d", q[0])
	}
}
