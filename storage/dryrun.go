// storage/dryrun.go
// Copyright(c) 2025 metproducts contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package storage

import (
	"context"
	"io"
)

type SinkWriter struct{}

func (w *SinkWriter) Write(b []byte) (int, error) {
	return len(b), nil
}

// DryRunBackend discards writes and deletes, reporting the sizes that
// would have been written; reads go to the wrapped backend.
type DryRunBackend struct {
	b Backend // for read-only operations
}

func NewDryRunBackend(b Backend) DryRunBackend {
	return DryRunBackend{b: b}
}

func (d DryRunBackend) List(ctx context.Context, prefix string) (map[string]int64, error) {
	return d.b.List(ctx, prefix)
}

func (d DryRunBackend) OpenRead(ctx context.Context, path string) (io.ReadCloser, error) {
	return d.b.OpenRead(ctx, path)
}

func (d DryRunBackend) Store(ctx context.Context, path string, r io.Reader) (int64, error) {
	return io.Copy(&SinkWriter{}, r)
}

func (d DryRunBackend) StoreObject(ctx context.Context, path string, object any) (int64, error) {
	return encodeObject(&SinkWriter{}, object)
}

func (d DryRunBackend) Delete(ctx context.Context, path string) error { return nil }

func (d DryRunBackend) Close() error { return d.b.Close() }
