// storage/storage.go
// Copyright(c) 2025 metproducts contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package storage provides the places rendered products and grid caches
// are written to and read from: a local directory, Google Cloud Storage,
// S3-compatible object stores, and a dry-run backend that discards writes.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
)

// ErrNotFound is returned when reading an object that does not exist.
var ErrNotFound = errors.New("object not found")

// Backend stores objects under slash-separated paths.
type Backend interface {
	// List returns the sizes of all objects whose path starts with prefix.
	List(ctx context.Context, prefix string) (map[string]int64, error)
	OpenRead(ctx context.Context, path string) (io.ReadCloser, error)
	// Store writes the contents of r to path and returns the number of
	// bytes written.
	Store(ctx context.Context, path string, r io.Reader) (int64, error)
	// StoreObject writes object as zstd-compressed msgpack.
	StoreObject(ctx context.Context, path string, object any) (int64, error)
	Delete(ctx context.Context, path string) error
	Close() error
}

// Pool a limited number of them to keep memory use under control.
var zstdEncoders chan *zstd.Encoder

func init() {
	const nenc = 4
	zstdEncoders = make(chan *zstd.Encoder, nenc)
	for range nenc {
		ze, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBestCompression), zstd.WithEncoderConcurrency(1))
		if err != nil {
			panic(err)
		}
		zstdEncoders <- ze
	}
}

type CountingWriter struct {
	io.Writer
	N int64
}

func (w *CountingWriter) Write(b []byte) (int, error) {
	n, err := w.Writer.Write(b)
	w.N += int64(n)
	return n, err
}

// encodeObject writes object to w as zstd-compressed msgpack and returns
// the number of compressed bytes.
func encodeObject(w io.Writer, object any) (int64, error) {
	cw := &CountingWriter{Writer: w}

	zw := <-zstdEncoders
	defer func() { zstdEncoders <- zw }()
	zw.Reset(cw)

	if err := msgpack.NewEncoder(zw).Encode(object); err != nil {
		return 0, err
	} else if err := zw.Close(); err != nil {
		return 0, err
	}
	return cw.N, nil
}

// LoadObject decodes the object at path, written with StoreObject, into
// object.
func LoadObject(ctx context.Context, b Backend, path string, object any) error {
	r, err := b.OpenRead(ctx, path)
	if err != nil {
		return err
	}
	defer r.Close()

	zr, err := zstd.NewReader(r)
	if err != nil {
		return err
	}
	defer zr.Close()

	if err := msgpack.NewDecoder(zr).Decode(object); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// New returns the backend for a location of the form "gs://bucket",
// "s3://bucket", "file://dir" or a bare directory name. If dryRun is set,
// writes are discarded while reads still go to the location.
func New(ctx context.Context, location string, dryRun bool) (Backend, error) {
	var b Backend
	var err error

	scheme, rest, ok := strings.Cut(location, "://")
	if !ok {
		scheme, rest = "file", location
	}
	switch scheme {
	case "file":
		b, err = NewLocalBackend(rest)
	case "gs":
		b, err = NewGCSBackend(ctx, rest)
	case "s3":
		b, err = NewS3Backend(ctx, rest)
	default:
		return nil, fmt.Errorf("%s: unknown storage scheme %q", location, scheme)
	}
	if err != nil {
		return nil, err
	}

	if dryRun {
		return NewDryRunBackend(b), nil
	}
	return b, nil
}

// Clean normalizes an object path: slashes only, with no leading slash or
// "." and ".." elements. Paths that would escape the root give an error.
func Clean(path string) (string, error) {
	var elems []string
	for _, e := range strings.Split(strings.ReplaceAll(path, "\\", "/"), "/") {
		switch e {
		case "", ".":
		case "..":
			if len(elems) == 0 {
				return "", fmt.Errorf("%s: path is outside of the storage root", path)
			}
			elems = elems[:len(elems)-1]
		default:
			elems = append(elems, e)
		}
	}
	return strings.Join(elems, "/"), nil
}
