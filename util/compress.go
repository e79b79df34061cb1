// util/compress.go
// Copyright(c) 2025 metproducts contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import (
	"golang.org/x/exp/constraints"
)

func DeltaEncode[T constraints.Integer](d []T) []T {
	if len(d) == 0 {
		return nil
	}
	r := make([]T, len(d))

	var prev T
	for i, v := range d {
		r[i] = v - prev
		prev = v
	}
	return r
}

func DeltaDecode[T constraints.Integer](d []T) []T {
	if len(d) == 0 {
		return nil
	}
	r := make([]T, len(d))

	var prev T
	for i, delta := range d {
		r[i] = prev + delta
		prev = r[i]
	}
	return r
}

// Quantize maps each value to an integer count of step, relative to
// offset. Dequantize is its inverse up to step/2.
func Quantize[F constraints.Float](v []F, offset, step F) []int32 {
	if len(v) == 0 {
		return nil
	}
	q := make([]int32, len(v))
	for i, f := range v {
		x := (f - offset) / step
		if x < 0 {
			x -= 0.5
		} else {
			x += 0.5
		}
		q[i] = int32(x)
	}
	return q
}

func Dequantize[F constraints.Float](q []int32, offset, step F) []F {
	if len(q) == 0 {
		return nil
	}
	v := make([]F, len(q))
	for i, x := range q {
		v[i] = offset + F(x)*step
	}
	return v
}
