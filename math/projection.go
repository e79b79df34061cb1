// math/projection.go
// Copyright(c) 2025 metproducts contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package math

import (
	"fmt"
	gomath "math"
)

// WGS84 ellipsoid.
const (
	EarthSemiMajorAxis = 6378137.0
	EarthFlattening    = 1 / 298.257223563
)

var earthEccentricity = gomath.Sqrt(EarthFlattening * (2 - EarthFlattening))

// Projection converts between geographic longitude/latitude (degrees)
// and a projected plane. Points outside the projection's domain map to
// NaN.
type Projection interface {
	Name() string
	Forward(lon, lat float64) (x, y float64)
	Inverse(x, y float64) (lon, lat float64)
}

// PlateCarree is the equirectangular projection with coordinates in
// degrees; it is the default projection of longitude/latitude data.
type PlateCarree struct {
	CentralLongitude float64
}

func (p PlateCarree) Name() string { return "platecarree" }

func (p PlateCarree) Forward(lon, lat float64) (float64, float64) {
	return NormalizeLongitude(lon - p.CentralLongitude), lat
}

func (p PlateCarree) Inverse(x, y float64) (float64, float64) {
	return NormalizeLongitude(x + p.CentralLongitude), y
}

// tsfn is Snyder's t(phi) for the ellipsoid (eq. 15-9).
func tsfn(phi float64) float64 {
	es := earthEccentricity * gomath.Sin(phi)
	return gomath.Tan(gomath.Pi/4-phi/2) / gomath.Pow((1-es)/(1+es), earthEccentricity/2)
}

// phi2 inverts tsfn by fixed-point iteration (Snyder eq. 7-9).
func phi2(ts float64) float64 {
	e := earthEccentricity
	phi := gomath.Pi/2 - 2*gomath.Atan(ts)
	for range 15 {
		es := e * gomath.Sin(phi)
		next := gomath.Pi/2 - 2*gomath.Atan(ts*gomath.Pow((1-es)/(1+es), e/2))
		if gomath.Abs(next-phi) < 1e-12 {
			return next
		}
		phi = next
	}
	return phi
}

// msfn is Snyder's m(phi) (eq. 14-15).
func msfn(phi float64) float64 {
	es := earthEccentricity * gomath.Sin(phi)
	return gomath.Cos(phi) / gomath.Sqrt(1-es*es)
}

// LambertConformal is the ellipsoidal Lambert conformal conic projection
// with coordinates in metres.
type LambertConformal struct {
	CentralLongitude  float64
	CentralLatitude   float64
	StandardParallels [2]float64
	FalseEasting      float64
	FalseNorthing     float64

	n, f, rho0 float64
}

// NewLambertConformal returns the projection with the given origin and
// standard parallels.
func NewLambertConformal(centralLon, centralLat float64, parallels [2]float64) (*LambertConformal, error) {
	p1, p2 := Radians(parallels[0]), Radians(parallels[1])
	if gomath.Abs(p1+p2) < 1e-10 {
		return nil, fmt.Errorf("standard parallels %v are symmetric about the equator", parallels)
	}
	if gomath.Abs(parallels[0]) >= 90 || gomath.Abs(parallels[1]) >= 90 {
		return nil, fmt.Errorf("standard parallels %v must be between the poles", parallels)
	}

	lc := &LambertConformal{
		CentralLongitude:  centralLon,
		CentralLatitude:   centralLat,
		StandardParallels: parallels,
	}

	m1, m2 := msfn(p1), msfn(p2)
	t1, t2 := tsfn(p1), tsfn(p2)
	if gomath.Abs(p1-p2) < 1e-10 {
		lc.n = gomath.Sin(p1)
	} else {
		lc.n = gomath.Log(m1/m2) / gomath.Log(t1/t2)
	}
	lc.f = m1 / (lc.n * gomath.Pow(t1, lc.n))
	lc.rho0 = EarthSemiMajorAxis * lc.f * gomath.Pow(tsfn(Radians(centralLat)), lc.n)
	return lc, nil
}

// DefaultLambertConformal matches the conventional CONUS setup: central
// longitude -96, central latitude 39, standard parallels 33 and 45.
func DefaultLambertConformal() *LambertConformal {
	lc, err := NewLambertConformal(-96, 39, [2]float64{33, 45})
	if err != nil {
		panic(err)
	}
	return lc
}

func (lc *LambertConformal) Name() string { return "lambertconformal" }

func (lc *LambertConformal) Forward(lon, lat float64) (float64, float64) {
	phi := Radians(lat)
	if gomath.Abs(gomath.Abs(phi)-gomath.Pi/2) < 1e-10 && phi*lc.n <= 0 {
		// The pole opposite the cone's apex is at infinity.
		return gomath.NaN(), gomath.NaN()
	}

	var rho float64
	if gomath.Abs(gomath.Abs(phi)-gomath.Pi/2) >= 1e-10 {
		rho = EarthSemiMajorAxis * lc.f * gomath.Pow(tsfn(phi), lc.n)
	}
	theta := lc.n * Radians(NormalizeLongitude(lon-lc.CentralLongitude))

	return lc.FalseEasting + rho*gomath.Sin(theta), lc.FalseNorthing + lc.rho0 - rho*gomath.Cos(theta)
}

func (lc *LambertConformal) Inverse(x, y float64) (float64, float64) {
	x -= lc.FalseEasting
	y = lc.rho0 - (y - lc.FalseNorthing)

	rho := gomath.Hypot(x, y)
	if lc.n < 0 {
		rho, x, y = -rho, -x, -y
	}
	if rho == 0 {
		return lc.CentralLongitude, gomath.Copysign(90, lc.n)
	}

	theta := gomath.Atan2(x, y)
	ts := gomath.Pow(rho/(EarthSemiMajorAxis*lc.f), 1/lc.n)
	lat := Degrees(phi2(ts))
	lon := NormalizeLongitude(Degrees(theta/lc.n) + lc.CentralLongitude)
	return lon, lat
}

// Mercator is the ellipsoidal Mercator projection with coordinates in
// metres.
type Mercator struct {
	CentralLongitude float64
}

func (m Mercator) Name() string { return "mercator" }

func (m Mercator) Forward(lon, lat float64) (float64, float64) {
	if gomath.Abs(lat) >= 90 {
		return gomath.NaN(), gomath.NaN()
	}
	x := EarthSemiMajorAxis * Radians(NormalizeLongitude(lon-m.CentralLongitude))
	y := -EarthSemiMajorAxis * gomath.Log(tsfn(Radians(lat)))
	return x, y
}

func (m Mercator) Inverse(x, y float64) (float64, float64) {
	lon := NormalizeLongitude(Degrees(x/EarthSemiMajorAxis) + m.CentralLongitude)
	lat := Degrees(phi2(gomath.Exp(-y / EarthSemiMajorAxis)))
	return lon, lat
}

// TransformPoints reprojects the points (xs[i], ys[i]) given in src into
// dst.
func TransformPoints(dst, src Projection, xs, ys []float64) ([]float64, []float64, error) {
	if len(xs) != len(ys) {
		return nil, nil, fmt.Errorf("coordinate length mismatch: %d x values, %d y values", len(xs), len(ys))
	}

	ox, oy := make([]float64, len(xs)), make([]float64, len(ys))
	for i := range xs {
		lon, lat := src.Inverse(xs[i], ys[i])
		ox[i], oy[i] = dst.Forward(lon, lat)
	}
	return ox, oy, nil
}

// ParseProjection returns the named projection with its default
// parameters.
func ParseProjection(name string) (Projection, error) {
	switch name {
	case "platecarree", "latlon":
		return PlateCarree{}, nil
	case "lambertconformal", "lcc", "":
		return DefaultLambertConformal(), nil
	case "mercator":
		return Mercator{}, nil
	default:
		return nil, fmt.Errorf("%s: unknown projection", name)
	}
}
