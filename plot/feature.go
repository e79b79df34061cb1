// plot/feature.go
// Copyright(c) 2025 metproducts contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package plot

import (
	"errors"
	"fmt"

	"github.com/hdwx/metproducts/math"
)

// Feature is a set of geographic lines, such as coastlines or political
// boundaries, that can be drawn on map axes.
type Feature interface {
	Name() string
	// Paths returns the feature's lines in the coordinates of proj.
	// Lines that cross a discontinuity of the projection should be split
	// with non-finite points.
	Paths(proj math.Projection) ([]Polyline, error)
}

type featureArtist struct {
	feature Feature
	style   LineStyle
	paths   []Polyline
}

// AddFeature draws f on the axes, which must have a projection.
func (ax *Axes) AddFeature(f Feature, style LineStyle) error {
	if ax.Projection == nil {
		return errors.New("features can only be added to map axes")
	}
	if style.Width <= 0 {
		style.Width = 1
	}
	if style.Color == (RGBA{}) {
		style.Color = Black
	}
	if _, err := dashPattern(style.Dashes, style.Width); err != nil {
		return err
	}

	paths, err := f.Paths(ax.Projection)
	if err != nil {
		return fmt.Errorf("%s: %w", f.Name(), err)
	}
	ax.add(&featureArtist{feature: f, style: style, paths: paths})
	return nil
}

// Features returns the names of the features added to the axes.
func (ax *Axes) Features() []string {
	var names []string
	for _, a := range ax.artists {
		if fa, ok := a.(*featureArtist); ok {
			names = append(names, fa.feature.Name())
		}
	}
	return names
}

func (fa *featureArtist) zorder() float64 { return ZOrderFeature }
func (fa *featureArtist) clipped() bool   { return true }

func (fa *featureArtist) draw(r *renderer) error {
	if err := r.setLineStyle(fa.style); err != nil {
		return err
	}
	r.dc.ClearPath()
	for _, pl := range fa.paths {
		r.dc.NewSubPath()
		r.pathPolyline(pl)
	}
	r.dc.Stroke()
	return nil
}
