// storage/gcs.go
// Copyright(c) 2025 metproducts contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	fpath "path"

	"cloud.google.com/go/storage"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// GCSBackend stores objects in a Google Cloud Storage bucket. Service
// account credentials are taken from the METPRODUCTS_GCS_CREDENTIALS
// environment variable if it is set and otherwise from the application
// default credentials.
type GCSBackend struct {
	client *storage.Client
	bucket *storage.BucketHandle
}

func NewGCSBackend(ctx context.Context, bucketName string) (*GCSBackend, error) {
	var opts []option.ClientOption
	if credsJSON := os.Getenv("METPRODUCTS_GCS_CREDENTIALS"); credsJSON != "" {
		jwtConfig, err := google.JWTConfigFromJSON([]byte(credsJSON), storage.ScopeReadWrite)
		if err != nil {
			return nil, fmt.Errorf("METPRODUCTS_GCS_CREDENTIALS: %w", err)
		}
		opts = append(opts, option.WithTokenSource(jwtConfig.TokenSource(ctx)))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}

	return &GCSBackend{
		client: client,
		bucket: client.Bucket(bucketName),
	}, nil
}

func (g *GCSBackend) List(ctx context.Context, prefix string) (map[string]int64, error) {
	prefix, err := Clean(prefix)
	if err != nil {
		return nil, err
	}
	query := storage.Query{
		Projection: storage.ProjectionNoACL,
		Prefix:     prefix,
	}

	m := make(map[string]int64)
	it := g.bucket.Objects(ctx, &query)
	for {
		if obj, err := it.Next(); err == iterator.Done {
			break
		} else if err != nil {
			return nil, err
		} else if fpath.Clean(obj.Name) != prefix { // don't return the root ~folder
			m[obj.Name] = obj.Size
		}
	}

	return m, nil
}

func (g *GCSBackend) OpenRead(ctx context.Context, path string) (io.ReadCloser, error) {
	r, err := g.bucket.Object(path).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, errors.Join(ErrNotFound, err)
	}
	return r, err
}

func (g *GCSBackend) Store(ctx context.Context, path string, r io.Reader) (int64, error) {
	objw := g.bucket.Object(path).NewWriter(ctx)
	objw.ContentType = contentType(path)
	n, err := io.Copy(objw, r)
	if err != nil {
		objw.Close()
		return n, err
	}
	return n, objw.Close()
}

func (g *GCSBackend) StoreObject(ctx context.Context, path string, object any) (int64, error) {
	objw := g.bucket.Object(path).NewWriter(ctx)
	n, err := encodeObject(objw, object)
	if err != nil {
		objw.Close()
		return 0, err
	}
	return n, objw.Close()
}

func (g *GCSBackend) Delete(ctx context.Context, path string) error {
	err := g.bucket.Object(path).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return errors.Join(ErrNotFound, err)
	}
	return err
}

func (g *GCSBackend) Close() error { return g.client.Close() }

func contentType(path string) string {
	switch fpath.Ext(path) {
	case ".png":
		return "image/png"
	case ".json":
		return "application/json"
	default:
		return "application/octet-stream"
	}
}
