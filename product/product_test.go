// product/product_test.go
// Copyright(c) 2025 metproducts contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package product

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hdwx/metproducts/log"
	"github.com/hdwx/metproducts/metrics"
	"github.com/hdwx/metproducts/notify"
	"github.com/hdwx/metproducts/panel"
	"github.com/hdwx/metproducts/storage"
	"github.com/hdwx/metproducts/wx"
)

var testInit = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type recordingPublisher struct {
	events []notify.ProductEvent
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, events ...notify.ProductEvent) error {
	p.events = append(p.events, events...)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func newTestRenderer(t *testing.T) (*Renderer, *storage.LocalBackend, *recordingPublisher) {
	t.Helper()

	b, err := storage.NewLocalBackend(t.TempDir())
	require.NoError(t, err)

	opts := panel.DefaultOptions()
	opts.Basemap.Scale = 2.0e6

	layout := DefaultLayout()
	layout.Width, layout.Height, layout.DPI = 4, 3, 50

	clock := clockwork.NewFakeClockAt(testInit.Add(2 * time.Hour))
	pub := &recordingPublisher{}
	return &Renderer{
		Layout:    layout,
		Options:   opts,
		Backend:   b,
		Publisher: pub,
		Metrics:   metrics.NewForTesting(clock),
		Clock:     clock,
	}, b, pub
}

func TestPath(t *testing.T) {
	g := wx.Synthetic("HRRR", 4, 4, testInit, 6*time.Hour)
	assert.Equal(t, "hrrr/2024010100/850_temp_hght_barbs_f0360.png", Path(Name850, g))

	g = wx.Synthetic("GFS", 4, 4, testInit.Add(12*time.Hour), 0)
	assert.Equal(t, "gfs/2024010112/850_temp_hght_barbs_f0000.png", Path(Name850, g))
}

func TestRender(t *testing.T) {
	r, b, pub := newTestRenderer(t)
	g := wx.Synthetic("HRRR", 10, 10, testInit, 6*time.Hour)

	ev, err := r.Render(context.Background(), g)
	require.NoError(t, err)

	assert.Equal(t, Name850, ev.Product)
	assert.Equal(t, "HRRR", ev.Model)
	assert.Equal(t, 360, ev.LeadMinutes)
	assert.Equal(t, testInit.Add(2*time.Hour), ev.RenderedAt)
	require.Len(t, pub.events, 1)
	assert.Equal(t, ev, pub.events[0])

	rd, err := b.OpenRead(context.Background(), ev.Path)
	require.NoError(t, err)
	defer rd.Close()
	img, err := png.Decode(rd)
	require.NoError(t, err)
	assert.Equal(t, 200, img.Bounds().Dx())
	assert.Equal(t, 150, img.Bounds().Dy())

	assert.Equal(t, 1.0, testutil.ToFloat64(r.Metrics.PanelsRendered.WithLabelValues(Name850, "success")))
	assert.Equal(t, float64(ev.Size), testutil.ToFloat64(r.Metrics.BytesStored))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Metrics.EventsSent.WithLabelValues("success")))
}

func TestRenderPublishFailure(t *testing.T) {
	r, _, pub := newTestRenderer(t)
	pub.err = errors.New("no brokers")

	var buf bytes.Buffer
	r.Logger = log.NewWriter(&buf, "info")

	_, err := r.Render(context.Background(), wx.Synthetic("HRRR", 10, 10, testInit, 0))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "no brokers")
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Metrics.EventsSent.WithLabelValues("error")))
}

func TestRenderError(t *testing.T) {
	r, b, pub := newTestRenderer(t)
	r.Options = panel.DefaultOptions() // scale too small for a 10x10 grid

	_, err := r.Render(context.Background(), wx.Synthetic("HRRR", 10, 10, testInit, 0))
	assert.ErrorIs(t, err, panel.ErrZeroStride)
	assert.Empty(t, pub.events)
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Metrics.PanelsRendered.WithLabelValues(Name850, "error")))

	stored, err := b.List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestRenderAll(t *testing.T) {
	r, b, _ := newTestRenderer(t)

	var grids []*wx.Grid
	for h := 0; h < 4; h++ {
		grids = append(grids, wx.Synthetic("NAM", 10, 10, testInit, time.Duration(h)*3*time.Hour))
	}

	events, err := r.RenderAll(context.Background(), grids, 2)
	require.NoError(t, err)
	require.Len(t, events, 4)
	for i, ev := range events {
		assert.Equal(t, i*180, ev.LeadMinutes)
	}

	stored, err := b.List(context.Background(), "nam/2024010100")
	require.NoError(t, err)
	assert.Len(t, stored, 4)

	grids = append(grids, wx.Synthetic("NAM", 3, 3, testInit, 0))
	grids[4].Temp = wx.MakeField(2, 2, wx.Kelvin)
	_, err = r.RenderAll(context.Background(), grids, 2)
	assert.ErrorIs(t, err, wx.ErrShapeMismatch)
}

func TestLoadGrid(t *testing.T) {
	b, err := storage.NewLocalBackend(t.TempDir())
	require.NoError(t, err)

	g := wx.Synthetic("HRRR", 6, 5, testInit, time.Hour)
	var buf bytes.Buffer
	require.NoError(t, wx.WriteGrid(&buf, g))
	_, err = b.Store(context.Background(), "grids/hrrr"+wx.GridFileExtension, &buf)
	require.NoError(t, err)

	g2, err := LoadGrid(context.Background(), b, "grids/hrrr"+wx.GridFileExtension)
	require.NoError(t, err)
	assert.Equal(t, g.Model, g2.Model)
	assert.True(t, g.FcstTime.Equal(g2.FcstTime))
	assert.Equal(t, 6, g2.Temp.NX)

	_, err = LoadGrid(context.Background(), b, "grids/missing"+wx.GridFileExtension)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestReadGrids(t *testing.T) {
	dir := t.TempDir()
	fn := filepath.Join(dir, "gfs"+wx.GridFileExtension)
	require.NoError(t, wx.WriteGridFile(fn, wx.Synthetic("GFS", 5, 5, testInit, 0)))

	grids, err := ReadGrids(fn, "", nil)
	require.NoError(t, err)
	require.Len(t, grids, 1)
	assert.Equal(t, "GFS", grids[0].Model)

	_, err = ReadGrids(filepath.Join(dir, "grids.txt"), "GFS", nil)
	assert.Error(t, err)
}
