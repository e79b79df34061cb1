// storage/storage_test.go
// Copyright(c) 2025 metproducts contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hdwx/metproducts/wx"
)

func TestClean(t *testing.T) {
	for _, tc := range []struct {
		in, out string
		err     bool
	}{
		{"a/b/c.png", "a/b/c.png", false},
		{"/a//b/./c.png", "a/b/c.png", false},
		{`a\b.png`, "a/b.png", false},
		{"a/../b.png", "b.png", false},
		{"../b.png", "", true},
		{"", "", false},
	} {
		out, err := Clean(tc.in)
		if tc.err {
			assert.Error(t, err, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.out, out, tc.in)
	}
}

func TestLocalBackend(t *testing.T) {
	ctx := context.Background()
	b, err := NewLocalBackend(t.TempDir())
	require.NoError(t, err)
	defer b.Close()

	n, err := b.Store(ctx, "hrrr/2024010100/f006.png", strings.NewReader("png data"))
	require.NoError(t, err)
	assert.Equal(t, int64(8), n)
	_, err = b.Store(ctx, "gfs/f012.png", strings.NewReader("more"))
	require.NoError(t, err)

	m, err := b.List(ctx, "hrrr/")
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"hrrr/2024010100/f006.png": 8}, m)

	m, err = b.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, m, 2)

	r, err := b.OpenRead(ctx, "hrrr/2024010100/f006.png")
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	r.Close()
	require.NoError(t, err)
	assert.Equal(t, "png data", string(data))

	_, err = b.OpenRead(ctx, "nope.png")
	assert.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, b.Delete(ctx, "gfs/f012.png"))
	assert.ErrorIs(t, b.Delete(ctx, "gfs/f012.png"), ErrNotFound)

	_, err = b.Store(ctx, "../escape.png", strings.NewReader("x"))
	assert.Error(t, err)
}

func TestStoreObject(t *testing.T) {
	ctx := context.Background()
	b, err := New(ctx, "file://"+t.TempDir(), false)
	require.NoError(t, err)

	g := wx.Synthetic("HRRR", 12, 8, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 6*time.Hour)
	soa, err := g.ToSOA()
	require.NoError(t, err)

	n, err := b.StoreObject(ctx, "grids/hrrr-f006"+wx.GridFileExtension, soa)
	require.NoError(t, err)
	assert.Positive(t, n)

	var back wx.GridSOA
	require.NoError(t, LoadObject(ctx, b, "grids/hrrr-f006"+wx.GridFileExtension, &back))
	g2, err := back.ToGrid()
	require.NoError(t, err)
	assert.Equal(t, g.Model, g2.Model)
	assert.True(t, g.FcstTime.Equal(g2.FcstTime))
	assert.InDelta(t, g.Temp.At(3, 4), g2.Temp.At(3, 4), 0.01)

	m, err := b.List(ctx, "grids")
	require.NoError(t, err)
	assert.Equal(t, n, m["grids/hrrr-f006"+wx.GridFileExtension])
}

func TestDryRun(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	local, err := NewLocalBackend(dir)
	require.NoError(t, err)
	_, err = local.Store(ctx, "existing.png", strings.NewReader("abc"))
	require.NoError(t, err)

	b, err := New(ctx, dir, true)
	require.NoError(t, err)
	require.IsType(t, DryRunBackend{}, b)

	n, err := b.Store(ctx, "new.png", strings.NewReader("12345"))
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)

	n, err = b.StoreObject(ctx, "obj", map[string]int{"a": 1})
	require.NoError(t, err)
	assert.Positive(t, n)

	require.NoError(t, b.Delete(ctx, "existing.png"))

	m, err := b.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"existing.png": 3}, m)
}

func TestNewErrors(t *testing.T) {
	_, err := New(context.Background(), "ftp://host/dir", false)
	assert.Error(t, err)

	t.Setenv("METPRODUCTS_GCS_CREDENTIALS", `{"type": "service_account"`)
	_, err = New(context.Background(), "gs://bucket", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "METPRODUCTS_GCS_CREDENTIALS")
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "image/png", contentType("a/b.png"))
	assert.Equal(t, "application/json", contentType("a.json"))
	assert.Equal(t, "application/octet-stream", contentType("grid.msgpack.zst"))
}
