// panel/options_test.go
// Copyright(c) 2025 metproducts contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package panel

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hdwx/metproducts/basemap"
	"github.com/hdwx/metproducts/plot"
)

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	require.NoError(t, opts.Validate())
	assert.Equal(t, plot.ExtendBoth, opts.Contourf.Extend)
	assert.Equal(t, 900.0, opts.Contour.Levels[0])
	assert.Equal(t, 1800.0, opts.Contour.Levels[len(opts.Contour.Levels)-1])
	assert.Equal(t, "horizontal", opts.Colorbar.Orientation)
	assert.Equal(t, 5.0e5, opts.Basemap.Scale)
}

func TestParseOptions(t *testing.T) {
	opts, err := ParseOptions([]byte(`{
  "contour_Opts": {"levels": [1400, 1500], "colors": "k", "linewidths": 2},
  "clabel_Opts": {"fontsize": 6, "inline": false},
  "barb_Opts": {"length": 6, "color": "#404040", "barb_increments": {"half": 2.5}},
  "basemap_Opts": {"resolution": "110m"}
}`))
	require.NoError(t, err)

	assert.Equal(t, plot.Floats{1400, 1500}, opts.Contour.Levels)
	assert.Equal(t, plot.Colors{plot.Black}, opts.Contour.Colors)
	assert.Equal(t, plot.Floats{2}, opts.Contour.LineWidths)
	assert.Equal(t, 6.0, opts.Clabel.FontSize)
	assert.False(t, opts.Clabel.Inline)
	assert.Equal(t, "%d", opts.Clabel.Fmt, "unset options keep their defaults")
	assert.Equal(t, 6.0, opts.Barb.Length)
	assert.InDelta(t, 0x40/255.0, opts.Barb.Color.R, 1e-9)
	assert.Equal(t, 2.5, opts.Barb.Increments.Half)
	assert.Equal(t, string(basemap.Res110m), opts.Basemap.Resolution)
	assert.Equal(t, plot.ExtendBoth, opts.Contourf.Extend)
}

func TestParseOptionsErrors(t *testing.T) {
	for _, tc := range []struct {
		name string
		json string
		msg  string
	}{
		{"misspelled group", `{"contour_opts": {}}`, "misspelled"},
		{"misspelled option", `{"clabel_Opts": {"font_size": 8}}`, "clabel_Opts"},
		{"syntax", "{\n  \"contour_Opts\": {\n    \"levels\": [1, 2,]\n  }\n}", "line 3"},
		{"bad color", `{"barb_Opts": {"color": "chartreuse-ish"}}`, "chartreuse-ish"},
		{"bad extend", `{"contourf_Opts": {"extend": "sideways"}}`, "sideways"},
		{"bad line style", `{"contour_Opts": {"linestyles": ["wavy"]}}`, "wavy"},
		{"bad orientation", `{"colorbar_Opts": {"orientation": "diagonal"}}`, "diagonal"},
		{"bad resolution", `{"basemap_Opts": {"resolution": "5m"}}`, "5m"},
		{"negative scale", `{"basemap_Opts": {"scale": -1}}`, "scale"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseOptions([]byte(tc.json))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.msg)
		})
	}
}

func TestLoadOptions(t *testing.T) {
	dir := t.TempDir()
	fn := filepath.Join(dir, "plot_opts.json")
	require.NoError(t, os.WriteFile(fn, []byte(`{"contour_Opts": {"linewidths": [1]}}`), 0o644))

	opts, err := LoadOptions(fn)
	require.NoError(t, err)
	assert.Equal(t, plot.Floats{1}, opts.Contour.LineWidths)

	_, err = LoadOptions(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(fn, []byte(`{"contour_Opts": {"linewidth": [1]}}`), 0o644))
	_, err = LoadOptions(fn)
	require.Error(t, err)
	assert.Contains(t, err.Error(), fn)
}

func TestShippedOptions(t *testing.T) {
	// plot_opts.json spells out the defaults and must stay in sync with them.
	opts, err := LoadOptions("plot_opts.json")
	require.NoError(t, err)
	assert.Equal(t, DefaultOptions(), opts)

	om, err := opts.Ordered()
	require.NoError(t, err)
	assert.Equal(t, []string{"contourf_Opts", "contour_Opts", "clabel_Opts", "colorbar_Opts", "barb_Opts", "basemap_Opts"}, om.Keys())
}

func TestOptionsClone(t *testing.T) {
	lib := basemap.NewLibrary(nil, nil)
	opts := DefaultOptions()
	opts.Basemap.Library = lib

	c := opts.Clone()
	c.Contour.Levels[0] = 0
	c.Contour.Colors[0] = plot.White
	c.Barb.Length = 99

	assert.Equal(t, 900.0, opts.Contour.Levels[0])
	assert.Equal(t, plot.Black, opts.Contour.Colors[0])
	assert.Equal(t, 5.5, opts.Barb.Length)
	assert.Same(t, lib, c.Basemap.Library)
	assert.Same(t, lib, opts.Basemap.Library)
}

func TestOptionsOrdered(t *testing.T) {
	om, err := DefaultOptions().Ordered()
	require.NoError(t, err)
	assert.Equal(t, []string{"contourf_Opts", "contour_Opts", "clabel_Opts", "colorbar_Opts", "barb_Opts", "basemap_Opts"},
		om.Keys())
}
