// plot/figure_test.go
// Copyright(c) 2025 metproducts contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package plot

import (
	"bytes"
	"errors"
	"image/png"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/hdwx/metproducts/math"
	"github.com/hdwx/metproducts/wx"
)

var testBounds = math.Bounds{X0: 0.1, Y0: 0.1, W: 0.8, H: 0.8}

func testGrid() *wx.Grid {
	return wx.Synthetic("TEST", 20, 15, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 6*time.Hour)
}

func evenLevels(lo, hi, step float64) []float64 {
	var l []float64
	for v := lo; v <= hi; v += step {
		l = append(l, v)
	}
	return l
}

type lineFeature struct {
	lines []Polyline
}

func (f lineFeature) Name() string { return "lines" }

func (f lineFeature) Paths(proj math.Projection) ([]Polyline, error) {
	var out []Polyline
	for _, l := range f.lines {
		var pl Polyline
		for _, p := range l {
			x, y := proj.Forward(p.X, p.Y)
			pl = append(pl, Point{x, y})
		}
		out = append(out, pl)
	}
	return out, nil
}

type failingFeature struct{}

func (failingFeature) Name() string { return "broken" }
func (failingFeature) Paths(math.Projection) ([]Polyline, error) {
	return nil, errors.New("no data")
}

func TestFigureGeometry(t *testing.T) {
	fig := NewFigure(11, 8.5, 100)
	if w, h := fig.PixelSize(); w != 1100 || h != 850 {
		t.Errorf("pixel size %dx%d", w, h)
	}
	if w, h := fig.SizeCentimeters(); w != 11*2.54 || h != 8.5*2.54 {
		t.Errorf("size %gx%g cm", w, h)
	}

	ax := fig.AddAxes(math.Bounds{X0: 0.5, Y0: 0, W: 0.5, H: 0.5}, nil)
	ax.SetExtent(math.Extent{X0: 0, X1: 10, Y0: 0, Y1: 10})
	xf := ax.DataToPixel()
	if x, y := xf.TransformPoint(0, 0); x != 550 || y != 850 {
		t.Errorf("data origin at pixel (%g, %g)", x, y)
	}
	if x, y := xf.TransformPoint(10, 10); x != 1100 || y != 425 {
		t.Errorf("data (10,10) at pixel (%g, %g)", x, y)
	}
	if x, y := ax.AxesToPixel(0.5, 0); x != 825 || y != 850 {
		t.Errorf("axes (0.5, 0) at pixel (%g, %g)", x, y)
	}
}

func TestAxesExtent(t *testing.T) {
	ax := NewFigure(4, 3, 50).AddAxes(testBounds, nil)
	if e := ax.Extent(); e != (math.Extent{X0: 0, X1: 1, Y0: 0, Y1: 1}) {
		t.Errorf("empty axes extent %s", e)
	}

	ax.updateLimits([]float64{1, 3, 2}, []float64{-1, 5, 0})
	if e := ax.Extent(); e != (math.Extent{X0: 1, X1: 3, Y0: -1, Y1: 5}) {
		t.Errorf("data limits %s", e)
	}

	ax.SetExtent(math.Extent{X0: -5, X1: 5, Y0: -2, Y1: 2})
	if e := ax.Extent(); e.X0 != -5 || e.Y1 != 2 {
		t.Errorf("explicit extent %s", e)
	}
}

func TestDegenerateExtent(t *testing.T) {
	fig := NewFigure(4, 3, 50)
	ax := fig.AddAxes(testBounds, nil)
	ax.SetExtent(math.MapExtent(0, 10, testBounds, 5e5))
	if _, err := fig.Render(); err == nil {
		t.Errorf("expected an error rendering a degenerate extent")
	}
}

func TestTextAnchors(t *testing.T) {
	for _, tc := range []struct {
		h, v   string
		ax, ay float64
		err    bool
	}{
		{h: "", v: "", ax: 0, ay: 0},
		{h: "center", v: "top", ax: 0.5, ay: 1},
		{h: "right", v: "center", ax: 1, ay: 0.5},
		{h: "middle", v: "top", err: true},
		{h: "left", v: "up", err: true},
	} {
		ax, ay, err := TextOptions{HAlign: tc.h, VAlign: tc.v}.anchors()
		if tc.err {
			if err == nil {
				t.Errorf("%q/%q: expected error", tc.h, tc.v)
			}
			continue
		}
		if err != nil || ax != tc.ax || ay != tc.ay {
			t.Errorf("%q/%q: got (%g, %g, %v), expected (%g, %g)", tc.h, tc.v, ax, ay, err, tc.ax, tc.ay)
		}
	}
}

func TestText(t *testing.T) {
	ax := NewFigure(4, 3, 50).AddAxes(testBounds, nil)
	txt, err := ax.Text(0.5, 0, "line one\nline two", TextOptions{HAlign: "center", VAlign: "top"})
	if err != nil {
		t.Fatal(err)
	}
	if len(txt.Lines) != 2 || txt.String() != "line one\nline two" {
		t.Errorf("lines %q", txt.Lines)
	}
	if txt.Opts.FontSize != 10 || txt.Opts.Color != Black || txt.Opts.ZOrder != ZOrderText {
		t.Errorf("defaults not applied: %+v", txt.Opts)
	}
	if _, err := ax.Text(0, 0, "x", TextOptions{HAlign: "justify"}); err == nil {
		t.Errorf("expected alignment error")
	}
}

func TestDashPattern(t *testing.T) {
	for _, s := range []string{"", "solid", "-", "dashed", "--", "dotted", ":", "dashdot", "-."} {
		if _, err := dashPattern(s, 1); err != nil {
			t.Errorf("%q: %v", s, err)
		}
	}
	if d, _ := dashPattern("dashed", 2); len(d) != 2 || d[0] != 7.4 {
		t.Errorf("dashed pattern %v", d)
	}
	if _, err := dashPattern("wavy", 1); err == nil {
		t.Errorf("expected error for unknown style")
	}
}

func TestFormatLevel(t *testing.T) {
	for _, tc := range []struct {
		f    string
		v    float64
		want string
	}{
		{"", 1530, "1530"},
		{"", 2.5, "2.5"},
		{"%d", 1529.6, "1530"},
		{"%4d", 12, "  12"},
		{"%1.1f", 3.14159, "3.1"},
	} {
		if s := FormatLevel(tc.f, tc.v); s != tc.want {
			t.Errorf("FormatLevel(%q, %g) = %q, expected %q", tc.f, tc.v, s, tc.want)
		}
	}
}

func TestAngleDegrees(t *testing.T) {
	for _, tc := range []struct {
		x1, y1, want float64
	}{
		{1, 0, 0},
		{-1, 0, 0},
		{0, 1, 90},
		{0, -1, 90},
		{1, 1, 45},
		{-1, -1, 45},
	} {
		if a := angleDegrees(0, 0, tc.x1, tc.y1); math.Abs(a-tc.want) > 1e-9 {
			t.Errorf("angle to (%g, %g) = %g, expected %g", tc.x1, tc.y1, a, tc.want)
		}
	}
}

func TestContourErrors(t *testing.T) {
	g := testGrid()
	ax := NewFigure(4, 3, 50).AddAxes(testBounds, math.PlateCarree{})

	small := wx.MakeField(3, 3, wx.Kelvin)
	if _, err := ax.Contourf(g.Lon, g.Lat, small, ContourOptions{Cmap: NewColormap("g", Black, White)}); !errors.Is(err, wx.ErrShapeMismatch) {
		t.Errorf("expected shape mismatch, got %v", err)
	}
	if _, err := ax.Contourf(g.Lon, g.Lat, g.Temp, ContourOptions{}); err == nil {
		t.Errorf("expected error without colors")
	}
	if _, err := ax.Contourf(g.Lon, g.Lat, g.Temp, ContourOptions{Levels: Floats{3, 1, 2}, Colors: Colors{Black}}); err == nil {
		t.Errorf("expected error for unsorted levels")
	}
	if _, err := ax.Contourf(g.Lon, g.Lat, g.Temp, ContourOptions{Colors: Colors{Black}, Extend: "sideways"}); err == nil {
		t.Errorf("expected error for invalid extend")
	}
	if _, err := ax.Contour(g.Lon, g.Lat, g.Temp, ContourOptions{LineStyles: Strings{"wavy"}}); err == nil {
		t.Errorf("expected error for invalid line style")
	}
}

func TestContourStyles(t *testing.T) {
	ax := NewFigure(4, 3, 50).AddAxes(testBounds, math.PlateCarree{})
	lon, lat := wx.Meshgrid([]float64{0, 1, 2, 3, 4}, []float64{0, 1, 2})
	z := lon.Map(func(v float64) float64 { return v - 2 }, wx.Dimensionless)

	cs, err := ax.Contour(lon, lat, z, ContourOptions{Levels: Floats{-1, 0, 1}, Colors: Colors{Black}})
	if err != nil {
		t.Fatal(err)
	}
	if got := cs.lines[0].Style.Dashes; got != "dashed" {
		t.Errorf("negative level style %q", got)
	}
	if got := cs.lines[2].Style.Dashes; got != "" {
		t.Errorf("positive level style %q", got)
	}
	if cs.lines[1].Style.Width != defaultLineWidth {
		t.Errorf("default width %g", cs.lines[1].Style.Width)
	}
	if n := cs.NumPolylines(); n != 3 {
		t.Errorf("%d polylines, expected 3", n)
	}
	if len(cs.Lines(1)) != 1 || cs.Lines(7) != nil {
		t.Errorf("Lines accessor")
	}
}

func TestContourfColors(t *testing.T) {
	ax := NewFigure(4, 3, 50).AddAxes(testBounds, math.PlateCarree{})
	lon, lat := wx.Meshgrid([]float64{0, 1, 2, 3, 4}, []float64{0, 1, 2})

	cm := NewColormap("rb", RGB(0, 0, 1), RGB(1, 0, 0))
	cm.Under, cm.Over = Black, White
	norm, err := NewBoundaryNorm([]float64{1, 2, 3})
	if err != nil {
		t.Fatal(err)
	}
	cs, err := ax.Contourf(lon, lat, lon, ContourOptions{Levels: Floats{1, 2, 3}, Cmap: cm, Norm: norm, Extend: ExtendBoth})
	if err != nil {
		t.Fatal(err)
	}

	if bc := cs.BandColors(); len(bc) != 2 || bc[0] != RGB(0, 0, 1) || bc[1] != RGB(1, 0, 0) {
		t.Errorf("band colors %v", bc)
	}
	if c, ok := cs.ColorAt(0.5); !ok || c != Black {
		t.Errorf("under color %v", c)
	}
	if c, ok := cs.ColorAt(3.5); !ok || c != White {
		t.Errorf("over color %v", c)
	}
	if cs.extendColor(true) != Black || cs.extendColor(false) != White {
		t.Errorf("extend colors")
	}
}

func TestClabel(t *testing.T) {
	g := testGrid()
	fig := NewFigure(8, 6, 100)
	ax := fig.AddAxes(testBounds, math.PlateCarree{})
	ax.SetExtent(math.Extent{X0: -125, X1: -67, Y0: 24, Y1: 50})

	cs, err := ax.Contour(g.Lon, g.Lat, g.Hght, ContourOptions{Levels: Floats(evenLevels(1380, 1560, 30)), Colors: Colors{Black}})
	if err != nil {
		t.Fatal(err)
	}
	before := cs.NumPolylines()

	labels, err := ax.Clabel(cs, ClabelOptions{Fmt: "%d", Inline: true, InlineSpacing: 5})
	if err != nil {
		t.Fatal(err)
	}
	if len(labels) == 0 {
		t.Fatalf("no labels placed")
	}
	if cs.NumPolylines() <= before {
		t.Errorf("inline labels should split lines: %d before, %d after", before, cs.NumPolylines())
	}
	for _, l := range labels {
		if !slices.Contains(cs.Levels, l.Level) {
			t.Errorf("label %s has an unknown level", l)
		}
		if strings.Contains(l.Text, ".") {
			t.Errorf("label %q should be an integer", l.Text)
		}
		if l.Angle <= -90 || l.Angle > 90 {
			t.Errorf("label %s would be upside down", l)
		}
	}
	if len(cs.Labels()) != len(labels) {
		t.Errorf("contour set holds %d labels, expected %d", len(cs.Labels()), len(labels))
	}

	cf, err := ax.Contourf(g.Lon, g.Lat, g.Hght, ContourOptions{Colors: Colors{Black, White}})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ax.Clabel(cf, ClabelOptions{}); err == nil {
		t.Errorf("expected error labelling filled contours")
	}
	other := fig.AddAxes(testBounds, nil)
	if _, err := other.Clabel(cs, ClabelOptions{}); err == nil {
		t.Errorf("expected error labelling another axes' contours")
	}
}

func TestColorbar(t *testing.T) {
	g := testGrid()
	fig := NewFigure(4, 3, 50)
	ax := fig.AddAxes(testBounds, math.PlateCarree{})
	levels := evenLevels(-40, 40, 2)

	cm := NewColormap("rb", RGB(0, 0, 1), RGB(1, 0, 0))
	cf, err := ax.Contourf(g.Lon, g.Lat, g.Temp.MustTo(wx.Celsius), ContourOptions{Levels: Floats(levels), Cmap: cm, Extend: ExtendBoth})
	if err != nil {
		t.Fatal(err)
	}

	cax := fig.AddAxes(math.Bounds{X0: 0.1, Y0: 0.025, W: 0.2, H: 0.02}, nil)
	cb, err := fig.Colorbar(cf, cax, levels, ColorbarOptions{Orientation: "horizontal"})
	if err != nil {
		t.Fatal(err)
	}
	if len(cb.Ticks()) != len(levels) {
		t.Errorf("%d ticks, expected %d", len(cb.Ticks()), len(levels))
	}
	if l := cb.TickLabels(); l[0] != "−40" || l[20] != "0" || l[40] != "40" {
		t.Errorf("tick labels %q ... %q", l[0], l[40])
	}
	if cb.TicksPosition() != "bottom" {
		t.Errorf("default tick position %q", cb.TicksPosition())
	}
	if err := cb.SetTicksPosition("top"); err != nil {
		t.Error(err)
	}
	if err := cb.SetTicksPosition("left"); err == nil {
		t.Errorf("expected error for a vertical tick position on a horizontal colorbar")
	}
	cb.SetTickFontSize(8)
	cb.SetLabel("TEMP (C)", 8)
	if cax.FrameVisible() {
		t.Errorf("colorbar axes frame should be hidden")
	}
	if len(fig.Colorbars()) != 1 {
		t.Errorf("figure has %d colorbars", len(fig.Colorbars()))
	}

	if p := cb.position(-40); p != 0 {
		t.Errorf("position of first level %g", p)
	}
	if p := cb.position(1); p != 0.5125 {
		t.Errorf("position of 1 is %g", p)
	}
	if p := cb.position(100); p != 1 {
		t.Errorf("position beyond the last level %g", p)
	}

	cs, err := ax.Contour(g.Lon, g.Lat, g.Hght, ContourOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fig.Colorbar(cs, cax, levels, ColorbarOptions{}); err == nil {
		t.Errorf("expected error for an unfilled contour set")
	}
	if _, err := fig.Colorbar(cf, cax, levels, ColorbarOptions{Orientation: "diagonal"}); err == nil {
		t.Errorf("expected error for a bad orientation")
	}
	if _, err := fig.Colorbar(cf, NewFigure(1, 1, 10).AddAxes(testBounds, nil), levels, ColorbarOptions{}); err == nil {
		t.Errorf("expected error for axes of another figure")
	}

	if _, err := fig.Render(); err != nil {
		t.Fatal(err)
	}
}

func TestAddFeature(t *testing.T) {
	fig := NewFigure(4, 3, 50)
	ax := fig.AddAxes(testBounds, math.PlateCarree{})
	f := lineFeature{lines: []Polyline{{{-100, 30}, {-90, 40}}}}

	if err := ax.AddFeature(f, LineStyle{Width: 0.5}); err != nil {
		t.Fatal(err)
	}
	if names := ax.Features(); len(names) != 1 || names[0] != "lines" {
		t.Errorf("features %v", names)
	}
	if err := ax.AddFeature(failingFeature{}, LineStyle{}); err == nil || !strings.Contains(err.Error(), "broken") {
		t.Errorf("expected feature error, got %v", err)
	}
	if err := ax.AddFeature(f, LineStyle{Dashes: "wavy"}); err == nil {
		t.Errorf("expected line style error")
	}
	if err := fig.AddAxes(testBounds, nil).AddFeature(f, LineStyle{}); err == nil {
		t.Errorf("expected error adding a feature to non-map axes")
	}
}

func TestRenderPanel(t *testing.T) {
	g := testGrid()
	fig := NewFigure(4, 3, 50)
	ax := fig.AddAxes(testBounds, math.PlateCarree{})
	ax.SetExtent(math.Extent{X0: -125, X1: -67, Y0: 24, Y1: 50})
	ax.SetFrameVisible(false)

	if err := ax.AddFeature(lineFeature{lines: []Polyline{{{-120, 30}, {-70, 45}}}}, LineStyle{Width: 0.5}); err != nil {
		t.Fatal(err)
	}
	cf, err := ax.Contourf(g.Lon, g.Lat, g.Temp.MustTo(wx.Celsius),
		ContourOptions{Levels: Floats(evenLevels(-40, 40, 2)), Cmap: NewColormap("rb", RGB(0, 0, 1), RGB(1, 0, 0))})
	if err != nil {
		t.Fatal(err)
	}
	cs, err := ax.Contour(g.Lon, g.Lat, g.Hght, ContourOptions{Colors: Colors{Black}})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ax.Clabel(cs, DefaultClabelOptions()); err != nil {
		t.Fatal(err)
	}
	if _, err := ax.Barbs(g.Lon.Data, g.Lat.Data, g.U.Data, g.V.Data, DefaultBarbOptions()); err != nil {
		t.Fatal(err)
	}
	if _, err := ax.Text(0.5, 0, "TEST\nPANEL", TextOptions{HAlign: "center", VAlign: "top"}); err != nil {
		t.Fatal(err)
	}
	cax := fig.AddAxes(math.Bounds{X0: 0.1, Y0: 0.04, W: 0.2, H: 0.02}, nil)
	if _, err := fig.Colorbar(cf, cax, cf.Levels, ColorbarOptions{Orientation: "horizontal"}); err != nil {
		t.Fatal(err)
	}
	if n := ax.NumArtists(); n != 6 {
		t.Errorf("%d artists, expected 6", n)
	}

	var buf bytes.Buffer
	if err := fig.EncodePNG(&buf); err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 200 || b.Dy() != 150 {
		t.Errorf("image size %v", b)
	}

	// The corner of the figure is outside every axes and keeps the
	// face color; the middle of the map is covered by filled contours.
	if r, g, b, _ := img.At(1, 1).RGBA(); r != 0xffff || g != 0xffff || b != 0xffff {
		t.Errorf("corner pixel (%x, %x, %x) is not white", r, g, b)
	}
	if r, g, b, _ := img.At(100, 60).RGBA(); r == 0xffff && g == 0xffff && b == 0xffff {
		t.Errorf("map interior is blank")
	}
}
