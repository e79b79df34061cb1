// panel/panel_test.go
// Copyright(c) 2025 metproducts contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package panel

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hdwx/metproducts/log"
	"github.com/hdwx/metproducts/math"
	"github.com/hdwx/metproducts/plot"
	"github.com/hdwx/metproducts/wx"
)

var testInit = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func newMapAxes() (*plot.Figure, *plot.Axes) {
	fig := plot.NewFigure(4, 3, 50)
	ax := fig.AddAxes(math.Bounds{X0: 0.05, Y0: 0.15, W: 0.9, H: 0.8}, math.DefaultLambertConformal())
	return fig, ax
}

func TestBaseLabel(t *testing.T) {
	lines := BaseLabel("HRRR", testInit, testInit.Add(6*time.Hour))
	require.Len(t, lines, 2)
	assert.Equal(t, "HRRR FORECAST INIT 240101/0000F360", lines[0])
	assert.Equal(t, "360-HR FCST VALID Mon 240101/0600V360", lines[1])

	lines = BaseLabel("GFS", testInit, testInit)
	assert.True(t, strings.HasSuffix(lines[0], "F000"))
	assert.True(t, strings.HasPrefix(lines[1], "000-HR"))

	// Leads longer than a day are not wrapped.
	lines = BaseLabel("GFS", testInit, testInit.Add(30*time.Hour))
	assert.True(t, strings.HasSuffix(lines[0], "F1800"))
	assert.Contains(t, lines[1], "Tue 240102/0600V1800")
}

func TestTemp850(t *testing.T) {
	cs := Temp850()
	require.Len(t, cs.Levels, 41)
	assert.Equal(t, -40.0, cs.Levels[0])
	assert.Equal(t, 40.0, cs.Levels[40])

	cold := cs.Norm.Color(cs.Cmap, -39)
	warm := cs.Norm.Color(cs.Cmap, 39)
	assert.Greater(t, cold.B, cold.R, "cold end should be blue")
	assert.Greater(t, warm.R, warm.B, "warm end should be red")
}

func TestPlotBasemap(t *testing.T) {
	fig, ax := newMapAxes()

	scale, err := PlotBasemap(ax, BasemapOptions{}, nil)
	require.NoError(t, err)
	assert.Equal(t, 5.0e5, scale)
	assert.False(t, ax.FrameVisible())
	assert.Equal(t, []string{"coastline (50m)", "states (50m)", "borders (50m)"}, ax.Features())

	w, h := fig.SizeCentimeters()
	assert.Equal(t, math.MapExtent(w, h, ax.Bounds, scale), ax.Extent())

	_, ax = newMapAxes()
	_, err = PlotBasemap(ax, BasemapOptions{Resolution: "1m"}, nil)
	assert.Error(t, err)

	fig = plot.NewFigure(4, 3, 50)
	_, err = PlotBasemap(fig.AddAxes(math.Bounds{W: 1, H: 1}, nil), BasemapOptions{}, nil)
	assert.Error(t, err)
}

// spacedField returns an nx x ny field whose value at column j is j*dx.
func spacedField(nx, ny int, dx float64) *wx.Field {
	f := wx.MakeField(nx, ny, wx.Dimensionless)
	for i := range ny {
		for j := range nx {
			f.Set(i, j, float64(j)*dx)
		}
	}
	return f
}

func constantField(nx, ny int, v float64, unit wx.Unit) *wx.Field {
	f := wx.MakeField(nx, ny, unit)
	for i := range f.Data {
		f.Data[i] = v
	}
	return f
}

func TestPlotBarbs(t *testing.T) {
	xx := spacedField(10, 10, 100)
	yy := spacedField(10, 10, 50)
	u := constantField(10, 10, 10, wx.MetersPerSec)
	v := constantField(10, 10, 0, wx.MetersPerSec)

	for _, tc := range []struct {
		scale float64
		n     int
	}{
		{400, 25},  // stride 2
		{600, 16},  // stride 3
		{1000, 4},  // stride 5
		{2000, 1},  // stride 10
		{250, 100}, // 2.5 rounds to 2, stride 1
	} {
		_, ax := newMapAxes()
		b, err := PlotBarbs(ax, tc.scale, xx, yy, u, v, DefaultOptions().Barb)
		require.NoError(t, err, "scale %g", tc.scale)
		assert.Equal(t, tc.n, b.Len(), "scale %g", tc.scale)
	}

	_, ax := newMapAxes()
	b, err := PlotBarbs(ax, 400, xx, yy, u, v, DefaultOptions().Barb)
	require.NoError(t, err)
	assert.InDelta(t, 19.438, b.U[0], 0.01, "winds should be in knots")
	assert.Equal(t, 200.0, b.X[1])

	_, err = PlotBarbs(ax, 100, xx, yy, u, v, plot.BarbOptions{})
	assert.True(t, errors.Is(err, ErrZeroStride), "got %v", err)

	b, err = PlotBarbs(ax, 400, xx, yy, nil, v, plot.BarbOptions{})
	assert.NoError(t, err)
	assert.Nil(t, b)

	_, err = PlotBarbs(ax, 400, xx, yy, constantField(10, 10, 0, wx.Kelvin), v, plot.BarbOptions{})
	assert.ErrorIs(t, err, wx.ErrIncompatibleUnits)
}

func TestAddColorbar(t *testing.T) {
	fig, ax := newMapAxes()
	g := wx.Synthetic("TEST", 10, 10, testInit, 0)
	cs := Temp850()
	temp := g.Temp.MustTo(wx.Celsius)
	cf, err := ax.Contourf(g.Lon, g.Lat, temp, plot.ContourOptions{Levels: cs.Levels, Cmap: cs.Cmap, Norm: cs.Norm})
	require.NoError(t, err)

	cbar, err := AddColorbar(cf, ax, cs.Levels, DefaultOptions().Colorbar, 0, "")
	require.NoError(t, err)
	assert.Len(t, cbar.Ticks(), len(cs.Levels))
	assert.Equal(t, "top", cbar.TicksPosition())
	assert.Equal(t, 8.0, cbar.TickFontSize())
	assert.Empty(t, cbar.Label())
	assert.InDelta(t, 0.05, cbar.Ax.Bounds.X0, 1e-12)
	assert.InDelta(t, 0.9/4, cbar.Ax.Bounds.W, 1e-12)
	assert.InDelta(t, 0.8/40, cbar.Ax.Bounds.H, 1e-12)
	assert.InDelta(t, 0.15-3*0.8/40, cbar.Ax.Bounds.Y0, 1e-12)
	assert.Len(t, fig.Colorbars(), 1)

	cbar, err = AddColorbar(cf, ax, []float64{-20, 0, 20}, DefaultOptions().Colorbar, 10, "Temperature")
	require.NoError(t, err)
	assert.Len(t, cbar.Ticks(), 3)
	assert.Equal(t, "Temperature", cbar.Label())
	assert.Equal(t, 10.0, cbar.TickFontSize())
}

func TestPanelSmoke(t *testing.T) {
	g := wx.Synthetic("HRRR", 10, 10, testInit, 6*time.Hour)
	opts := DefaultOptions()
	// A 10x10 grid is too coarse for barbs at the default scale and would
	// fail with ErrZeroStride.
	opts.Basemap.Scale = 2.0e6

	var buf bytes.Buffer
	fig, ax := newMapAxes()
	cf, c2, cbar, err := Plot850hPaTempHghtBarbs(ax, g, opts, WithLogger(log.NewWriter(&buf, "debug")))
	require.NoError(t, err)
	require.NotNil(t, cf)
	require.NotNil(t, c2)
	require.NotNil(t, cbar)

	assert.True(t, cf.Filled)
	assert.False(t, c2.Filled)
	assert.Equal(t, []float64(opts.Contour.Levels), c2.Levels)
	assert.NotEmpty(t, c2.Labels())
	assert.Len(t, cbar.Ticks(), len(Temp850().Levels))
	assert.Contains(t, buf.String(), "Plotting geopotential height")

	var out bytes.Buffer
	require.NoError(t, fig.EncodePNG(&out))
	assert.NotZero(t, out.Len())
}

func TestPanelNoWinds(t *testing.T) {
	g := wx.Synthetic("NAM", 10, 10, testInit, 12*time.Hour)
	g.U, g.V = nil, nil

	_, ax := newMapAxes()
	cf, c2, cbar, err := Plot850hPaTempHghtBarbs(ax, g, nil)
	require.NoError(t, err)
	assert.NotNil(t, cf)
	assert.NotNil(t, c2)
	assert.NotNil(t, cbar)
}

func TestPanelErrors(t *testing.T) {
	g := wx.Synthetic("HRRR", 10, 10, testInit, 6*time.Hour)

	// The default scale is too small for barbs on so coarse a grid.
	_, ax := newMapAxes()
	_, _, _, err := Plot850hPaTempHghtBarbs(ax, g, DefaultOptions())
	assert.ErrorIs(t, err, ErrZeroStride)

	fig := plot.NewFigure(4, 3, 50)
	_, _, _, err = Plot850hPaTempHghtBarbs(fig.AddAxes(math.Bounds{W: 1, H: 1}, nil), g, nil)
	assert.Error(t, err)

	bad := wx.Synthetic("HRRR", 10, 10, testInit, 0)
	bad.Temp = wx.MakeField(5, 5, wx.Kelvin)
	_, ax = newMapAxes()
	_, _, _, err = Plot850hPaTempHghtBarbs(ax, bad, nil)
	assert.ErrorIs(t, err, wx.ErrShapeMismatch)

	bad = wx.Synthetic("HRRR", 10, 10, testInit, 0)
	bad.Hght.Unit = wx.Knots
	_, ax = newMapAxes()
	opts := DefaultOptions()
	opts.Basemap.Scale = 2.0e6
	_, _, _, err = Plot850hPaTempHghtBarbs(ax, bad, opts)
	assert.ErrorIs(t, err, wx.ErrIncompatibleUnits)
}

func TestDataProjection(t *testing.T) {
	// Longitudes given relative to 100W.
	g := wx.Synthetic("HRRR", 10, 10, testInit, 0)
	for i, lon := range g.Lon.Data {
		g.Lon.Data[i] = lon + 100
	}
	opts := DefaultOptions()
	opts.Basemap.Scale = 2.0e6

	_, ax := newMapAxes()
	_, _, _, err := Plot850hPaTempHghtBarbs(ax, g, opts,
		WithDataProjection(math.PlateCarree{CentralLongitude: -100}),
		WithColorbarTitle("C"), WithColorbarFontSize(6))
	require.NoError(t, err)
}
