// wx/synthetic.go
// Copyright(c) 2025 metproducts contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package wx

import (
	gomath "math"
	"time"

	"github.com/hdwx/metproducts/math"
)

// Synthetic returns a deterministic nx x ny 850 hPa grid over the
// continental US: a north-south temperature gradient with a warm
// anomaly, a height trough over the middle of the domain, and winds in
// approximate geostrophic balance with it.
func Synthetic(model string, nx, ny int, init time.Time, lead time.Duration) *Grid {
	const (
		lon0, lon1 = -125.0, -67.0
		lat0, lat1 = 24.0, 50.0
	)

	lon := make([]float64, nx)
	for j := range lon {
		lon[j] = math.Lerp(frac(j, nx), lon0, lon1)
	}
	lat := make([]float64, ny)
	for i := range lat {
		lat[i] = math.Lerp(frac(i, ny), lat0, lat1)
	}
	lons, lats := Meshgrid(lon, lat)

	g := &Grid{
		Model:    model,
		InitTime: init,
		FcstTime: init.Add(lead),
		Lon:      lons,
		Lat:      lats,
		Temp:     MakeField(nx, ny, Kelvin),
		Hght:     MakeField(nx, ny, Meters),
		U:        MakeField(nx, ny, MetersPerSec),
		V:        MakeField(nx, ny, MetersPerSec),
	}

	phase := 2 * gomath.Pi * lead.Hours() / 48
	for i := range ny {
		for j := range nx {
			x, y := frac(j, nx), frac(i, ny)

			// Temperature: 22C in the south, -12C in the north.
			tc := 22 - 34*y + 6*gomath.Exp(-((x-0.3)*(x-0.3)+(y-0.4)*(y-0.4))/0.02)
			g.Temp.Set(i, j, tc+273.15)

			// Heights: 1560m in the south falling to 1380m, with a trough
			// that propagates east with lead time.
			trough := gomath.Cos(2*gomath.Pi*x - phase)
			g.Hght.Set(i, j, 1560-180*y+40*trough*gomath.Sin(gomath.Pi*y))

			// Winds follow the height gradient: westerlies strengthening to
			// the north, with the trough's meridional component.
			g.U.Set(i, j, 5+20*y)
			g.V.Set(i, j, 12*gomath.Sin(2*gomath.Pi*x-phase)*gomath.Sin(gomath.Pi*y))
		}
	}

	return g
}

func frac(i, n int) float64 {
	if n < 2 {
		return 0
	}
	return float64(i) / float64(n-1)
}
