// wx/units.go
// Copyright(c) 2025 metproducts contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package wx

import (
	"errors"
	"fmt"
	"strings"
)

// Unit identifies the physical unit of a Field's values.
type Unit string

const (
	Dimensionless Unit = ""
	Degrees       Unit = "degrees"
	Kelvin        Unit = "K"
	Celsius       Unit = "degC"
	Fahrenheit    Unit = "degF"
	MetersPerSec  Unit = "m/s"
	Knots         Unit = "kts"
	Meters        Unit = "m"
	Decameters    Unit = "dam"
	Geopotential  Unit = "m**2 s**-2"
)

// Standard gravity, used to turn geopotential into geopotential height.
const StandardGravity = 9.80665

var ErrIncompatibleUnits = errors.New("incompatible units")

type dimension int

const (
	dimNone dimension = iota
	dimAngle
	dimTemperature
	dimSpeed
	dimHeight
)

// toBase and fromBase map values to and from the SI base unit of the
// unit's dimension (K, m/s, m).
var units = map[Unit]struct {
	dim      dimension
	toBase   func(float64) float64
	fromBase func(float64) float64
}{
	Dimensionless: {dimNone, ident, ident},
	Degrees:       {dimAngle, ident, ident},
	Kelvin:        {dimTemperature, ident, ident},
	Celsius:       {dimTemperature, func(v float64) float64 { return v + 273.15 }, func(v float64) float64 { return v - 273.15 }},
	Fahrenheit: {dimTemperature,
		func(v float64) float64 { return (v-32)*5/9 + 273.15 },
		func(v float64) float64 { return (v-273.15)*9/5 + 32 }},
	MetersPerSec: {dimSpeed, ident, ident},
	Knots:        {dimSpeed, func(v float64) float64 { return v * 0.514444 }, func(v float64) float64 { return v / 0.514444 }},
	Meters:       {dimHeight, ident, ident},
	Decameters:   {dimHeight, func(v float64) float64 { return v * 10 }, func(v float64) float64 { return v / 10 }},
	Geopotential: {dimHeight, func(v float64) float64 { return v / StandardGravity }, func(v float64) float64 { return v * StandardGravity }},
}

func ident(v float64) float64 { return v }

// Converter returns a function converting values from one unit to another.
func Converter(from, to Unit) (func(float64) float64, error) {
	f, ok := units[from]
	if !ok {
		return nil, fmt.Errorf("%q: unknown unit", from)
	}
	t, ok := units[to]
	if !ok {
		return nil, fmt.Errorf("%q: unknown unit", to)
	}
	if f.dim != t.dim {
		return nil, fmt.Errorf("%s to %s: %w", from, to, ErrIncompatibleUnits)
	}
	if from == to {
		return ident, nil
	}
	return func(v float64) float64 { return t.fromBase(f.toBase(v)) }, nil
}

// ParseUnit maps the unit strings found in model output files (CF/UDUNITS
// spellings) to a Unit.
func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "1", "none":
		return Dimensionless, nil
	case "degrees", "degree", "degrees_north", "degrees_east", "degree_north", "degree_east", "deg":
		return Degrees, nil
	case "k", "kelvin":
		return Kelvin, nil
	case "degc", "c", "celsius", "deg_c", "degree_celsius", "degrees_celsius":
		return Celsius, nil
	case "degf", "f", "fahrenheit":
		return Fahrenheit, nil
	case "m/s", "m s**-1", "m s-1", "m.s-1", "meters/second", "m s^-1":
		return MetersPerSec, nil
	case "kts", "kt", "knots", "knot":
		return Knots, nil
	case "m", "gpm", "meters", "metre", "meter":
		return Meters, nil
	case "dam", "decameters", "gpdam":
		return Decameters, nil
	case "m**2 s**-2", "m2 s-2", "m^2/s^2", "m2/s2", "m^2 s^-2":
		return Geopotential, nil
	default:
		return Dimensionless, fmt.Errorf("%q: unknown unit", s)
	}
}
