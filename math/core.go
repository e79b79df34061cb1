// math/core.go
// Copyright(c) 2025 metproducts contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package math

import (
	gomath "math"

	"golang.org/x/exp/constraints"
)

func Radians[F constraints.Float](d F) F {
	return d / 180 * gomath.Pi
}

func Degrees[F constraints.Float](r F) F {
	return r * 180 / gomath.Pi
}

func Abs[T constraints.Integer | constraints.Float](a T) T {
	if a < 0 {
		return -a
	}
	return a
}

func Clamp[T constraints.Integer | constraints.Float](x, low, high T) T {
	if x < low {
		return low
	} else if x > high {
		return high
	}
	return x
}

// Lerp linearly interpolates x of the way between a and b.
func Lerp[F constraints.Float](x, a, b F) F {
	return (1-x)*a + x*b
}

// CeilDiv returns ceil(n/d) for positive d, matching the number of
// elements selected by slicing n items with step d.
func CeilDiv(n, d int) int {
	return (n + d - 1) / d
}

func IsFinite(v float64) bool {
	return !gomath.IsNaN(v) && !gomath.IsInf(v, 0)
}

// NormalizeLongitude maps lon into [-180, 180).
func NormalizeLongitude(lon float64) float64 {
	lon = gomath.Mod(lon+180, 360)
	if lon < 0 {
		lon += 360
	}
	return lon - 180
}
