// product/grids.go
// Copyright(c) 2025 metproducts contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package product

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hdwx/metproducts/log"
	"github.com/hdwx/metproducts/storage"
	"github.com/hdwx/metproducts/wx"
)

// LoadGrid reads a grid file written with wx.WriteGrid from b.
func LoadGrid(ctx context.Context, b storage.Backend, path string) (*wx.Grid, error) {
	r, err := b.OpenRead(ctx, path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	g, err := wx.ReadGrid(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

// ReadGrids reads all forecast times from a local file: either a NetCDF
// file or a grid file with wx.GridFileExtension. model names the model of
// NetCDF grids; grid files carry their own.
func ReadGrids(path, model string, lg *log.Logger) ([]*wx.Grid, error) {
	switch {
	case strings.HasSuffix(path, wx.GridFileExtension):
		g, err := wx.ReadGridFile(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return []*wx.Grid{g}, nil

	case filepath.Ext(path) == ".nc":
		f, err := wx.OpenNetCDF(path, model, wx.DefaultNetCDFVars, lg)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		var grids []*wx.Grid
		for i := range f.Times() {
			g, err := f.Grid(i)
			if err != nil {
				return nil, fmt.Errorf("%s: time %d: %w", path, i, err)
			}
			grids = append(grids, g)
		}
		return grids, nil

	default:
		return nil, fmt.Errorf("%s: unknown grid file type", path)
	}
}
