// plot/values.go
// Copyright(c) 2025 metproducts contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package plot

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Colors is a list of colors. In JSON it may be given as a single color
// (a name, "#rrggbb" or a 3 or 4 element component array) or as an array
// of colors.
type Colors []RGBA

func (c *Colors) UnmarshalJSON(b []byte) error {
	var one RGBA
	if err := one.UnmarshalJSON(b); err == nil {
		*c = Colors{one}
		return nil
	}

	var many []RGBA
	if err := json.Unmarshal(b, &many); err != nil {
		return fmt.Errorf("%s: expected a color or an array of colors", string(b))
	}
	*c = many
	return nil
}

// At returns the i'th color, cycling through the list.
func (c Colors) At(i int) RGBA {
	return c[i%len(c)]
}

// Floats is a list of numbers that may be given in JSON as a single
// number or as an array.
type Floats []float64

func (f *Floats) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '[' {
		var v []float64
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*f = v
		return nil
	}

	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("%s: expected a number or an array of numbers", string(b))
	}
	*f = Floats{v}
	return nil
}

func (f Floats) At(i int) float64 {
	return f[i%len(f)]
}

// Strings is a list of strings that may be given in JSON as a single
// string or as an array.
type Strings []string

func (s *Strings) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '[' {
		var v []string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = v
		return nil
	}

	var v string
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("%s: expected a string or an array of strings", string(b))
	}
	*s = Strings{v}
	return nil
}

func (s Strings) At(i int) string {
	return s[i%len(s)]
}
