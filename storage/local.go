// storage/local.go
// Copyright(c) 2025 metproducts contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package storage

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	fpath "path/filepath"
	"strings"
)

// LocalBackend stores objects as files under a directory.
type LocalBackend struct {
	dir string
}

func NewLocalBackend(dir string) (*LocalBackend, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &LocalBackend{dir: dir}, nil
}

func (l *LocalBackend) filename(path string) (string, error) {
	p, err := Clean(path)
	if err != nil {
		return "", err
	}
	return fpath.Join(l.dir, fpath.FromSlash(p)), nil
}

func (l *LocalBackend) List(ctx context.Context, prefix string) (map[string]int64, error) {
	prefix, err := Clean(prefix)
	if err != nil {
		return nil, err
	}

	m := make(map[string]int64)
	err = fpath.WalkDir(l.dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".tmp-") {
			return nil
		}

		rel, err := fpath.Rel(l.dir, p)
		if err != nil {
			return err
		}
		rel = fpath.ToSlash(rel)
		if !strings.HasPrefix(rel, prefix) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		m[rel] = info.Size()
		return nil
	})
	return m, err
}

func (l *LocalBackend) OpenRead(ctx context.Context, path string) (io.ReadCloser, error) {
	fn, err := l.filename(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(fn)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, errors.Join(ErrNotFound, err)
	}
	return f, err
}

// create opens a temporary file next to path's final location; commit
// renames it into place so readers never see partial objects.
func (l *LocalBackend) create(path string) (*os.File, func() error, error) {
	fn, err := l.filename(path)
	if err != nil {
		return nil, nil, err
	}
	if err := os.MkdirAll(fpath.Dir(fn), 0o755); err != nil {
		return nil, nil, err
	}
	f, err := os.CreateTemp(fpath.Dir(fn), ".tmp-"+fpath.Base(fn)+"-*")
	if err != nil {
		return nil, nil, err
	}
	commit := func() error {
		if err := f.Close(); err != nil {
			os.Remove(f.Name())
			return err
		}
		return os.Rename(f.Name(), fn)
	}
	return f, commit, nil
}

func (l *LocalBackend) Store(ctx context.Context, path string, r io.Reader) (int64, error) {
	f, commit, err := l.create(path)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(f, r)
	if err != nil {
		f.Close()
		os.Remove(f.Name())
		return n, err
	}
	return n, commit()
}

func (l *LocalBackend) StoreObject(ctx context.Context, path string, object any) (int64, error) {
	f, commit, err := l.create(path)
	if err != nil {
		return 0, err
	}
	n, err := encodeObject(f, object)
	if err != nil {
		f.Close()
		os.Remove(f.Name())
		return 0, err
	}
	return n, commit()
}

func (l *LocalBackend) Delete(ctx context.Context, path string) error {
	fn, err := l.filename(path)
	if err != nil {
		return err
	}
	err = os.Remove(fn)
	if errors.Is(err, fs.ErrNotExist) {
		return errors.Join(ErrNotFound, err)
	}
	return err
}

func (l *LocalBackend) Close() error { return nil }
