// plot/contour.go
// Copyright(c) 2025 metproducts contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package plot

import (
	gomath "math"
	"slices"
	"sort"

	"github.com/hdwx/metproducts/math"
)

// Point is a position in an axes' data coordinates.
type Point struct {
	X, Y float64
}

// Polyline is a connected sequence of points; closed polylines repeat
// their first point at the end.
type Polyline []Point

func (pl Polyline) Closed() bool {
	return len(pl) > 2 && pl[0] == pl[len(pl)-1]
}

// mesh is a structured grid of nx*ny vertices stored row-major, split
// into two triangles per cell for contouring.
type mesh struct {
	nx, ny  int
	x, y, z []float64
}

type triangle [3]int

// eachTriangle calls fn for every triangle whose vertices all have finite
// coordinates and values. The diagonal of each cell runs from its lower
// left to its upper right corner so that edges are shared consistently
// between neighboring triangles.
func (m *mesh) eachTriangle(fn func(t triangle)) {
	ok := func(i int) bool {
		return math.IsFinite(m.x[i]) && math.IsFinite(m.y[i]) && math.IsFinite(m.z[i])
	}

	for i := 0; i+1 < m.ny; i++ {
		for j := 0; j+1 < m.nx; j++ {
			v00, v01 := i*m.nx+j, i*m.nx+j+1
			v10, v11 := v00+m.nx, v01+m.nx
			if ok(v00) && ok(v11) {
				if ok(v01) {
					fn(triangle{v00, v01, v11})
				}
				if ok(v10) {
					fn(triangle{v00, v11, v10})
				}
			}
		}
	}
}

func (m *mesh) zrange(t triangle) (lo, hi float64) {
	za, zb, zc := m.z[t[0]], m.z[t[1]], m.z[t[2]]
	return min(za, zb, zc), max(za, zb, zc)
}

///////////////////////////////////////////////////////////////////////////
// Isolines

// edgeKey identifies a mesh edge by its two vertex indices, smaller first.
type edgeKey struct {
	a, b int
}

func makeEdgeKey(a, b int) edgeKey {
	if a > b {
		a, b = b, a
	}
	return edgeKey{a, b}
}

type isoSegment struct {
	e [2]edgeKey
}

type isoTracer struct {
	m        *mesh
	level    float64
	segments []isoSegment
	points   map[edgeKey]Point
	adj      map[edgeKey][]int
}

// isolines returns the polylines along which the linearly-interpolated
// field equals each of levels.
func isolines(m *mesh, levels []float64) [][]Polyline {
	tracers := make([]*isoTracer, len(levels))
	for i, l := range levels {
		tracers[i] = &isoTracer{m: m, level: l, points: make(map[edgeKey]Point), adj: make(map[edgeKey][]int)}
	}

	sorted := slices.IsSorted(levels)
	m.eachTriangle(func(t triangle) {
		lo, hi := m.zrange(t)
		if !sorted {
			for _, tr := range tracers {
				tr.add(t)
			}
			return
		}
		// Only levels in (lo, hi] can cross the triangle.
		start := sort.SearchFloat64s(levels, lo)
		for k := start; k < len(levels) && levels[k] <= hi; k++ {
			tracers[k].add(t)
		}
	})

	lines := make([][]Polyline, len(levels))
	for i, tr := range tracers {
		lines[i] = tr.chain()
	}
	return lines
}

// add records the segment where the level crosses t, if any. Vertices
// with values at or above the level are treated as above it, so each
// triangle is crossed by either zero or two of its edges.
func (tr *isoTracer) add(t triangle) {
	var crossings [2]edgeKey
	n := 0
	for k := range 3 {
		a, b := t[k], t[(k+1)%3]
		za, zb := tr.m.z[a], tr.m.z[b]
		if (za >= tr.level) == (zb >= tr.level) {
			continue
		}

		e := makeEdgeKey(a, b)
		if _, ok := tr.points[e]; !ok {
			s := (tr.level - za) / (zb - za)
			tr.points[e] = Point{
				X: tr.m.x[a] + s*(tr.m.x[b]-tr.m.x[a]),
				Y: tr.m.y[a] + s*(tr.m.y[b]-tr.m.y[a]),
			}
		}
		crossings[n] = e
		n++
	}

	if n == 2 {
		idx := len(tr.segments)
		tr.segments = append(tr.segments, isoSegment{e: crossings})
		tr.adj[crossings[0]] = append(tr.adj[crossings[0]], idx)
		tr.adj[crossings[1]] = append(tr.adj[crossings[1]], idx)
	}
}

// chain joins segments that share edges into polylines. Open lines,
// which end at the mesh boundary or at missing data, are traced first
// from one of their ends; the remaining segments form closed loops.
func (tr *isoTracer) chain() []Polyline {
	used := make([]bool, len(tr.segments))
	var lines []Polyline

	nextSegment := func(e edgeKey) int {
		for _, s := range tr.adj[e] {
			if !used[s] {
				return s
			}
		}
		return -1
	}
	trace := func(start edgeKey, seg int) Polyline {
		pl := Polyline{tr.points[start]}
		cur := start
		for seg != -1 {
			used[seg] = true
			s := tr.segments[seg]
			if s.e[0] == cur {
				cur = s.e[1]
			} else {
				cur = s.e[0]
			}
			pl = append(pl, tr.points[cur])
			seg = nextSegment(cur)
		}
		return pl
	}

	// Map iteration order is random; walk segments in order so that
	// output is deterministic.
	for i, s := range tr.segments {
		for _, e := range s.e {
			if !used[i] && len(tr.adj[e]) == 1 {
				lines = append(lines, trace(e, i))
			}
		}
	}
	for i, s := range tr.segments {
		if !used[i] {
			lines = append(lines, trace(s.e[0], i))
		}
	}

	return lines
}

///////////////////////////////////////////////////////////////////////////
// Filled bands

type zvertex struct {
	x, y, z float64
}

// clipPolygon returns the part of poly where keep(z) >= 0, assuming z
// varies linearly along each edge.
func clipPolygon(poly []zvertex, keep func(z float64) float64) []zvertex {
	if len(poly) == 0 {
		return nil
	}

	var out []zvertex
	prev := poly[len(poly)-1]
	kprev := keep(prev.z)
	for _, cur := range poly {
		kcur := keep(cur.z)
		if (kcur >= 0) != (kprev >= 0) {
			s := kprev / (kprev - kcur)
			out = append(out, zvertex{
				x: prev.x + s*(cur.x-prev.x),
				y: prev.y + s*(cur.y-prev.y),
				z: prev.z + s*(cur.z-prev.z),
			})
		}
		if kcur >= 0 {
			out = append(out, cur)
		}
		prev, kprev = cur, kcur
	}
	return out
}

func signedArea(poly Polyline) float64 {
	var a float64
	for i := range poly {
		p, q := poly[i], poly[(i+1)%len(poly)]
		a += p.X*q.Y - q.X*p.Y
	}
	return a / 2
}

// bandPolygons returns, for each consecutive pair of bounds, the polygons
// covering the region where bounds[k] <= z <= bounds[k+1]. Bounds may
// start at -Inf or end at +Inf. All polygons are counter-clockwise so that
// a band's polygons can be filled together without seams.
func bandPolygons(m *mesh, bounds []float64) [][]Polyline {
	bands := make([][]Polyline, max(len(bounds)-1, 0))
	if len(bands) == 0 {
		return bands
	}

	m.eachTriangle(func(t triangle) {
		lo, hi := m.zrange(t)
		if hi < bounds[0] || lo > bounds[len(bounds)-1] {
			return
		}

		tri := make([]zvertex, 3)
		for k, v := range t {
			tri[k] = zvertex{m.x[v], m.y[v], m.z[v]}
		}

		first := max(sort.SearchFloat64s(bounds, lo)-1, 0)
		for k := first; k < len(bands) && bounds[k] <= hi; k++ {
			blo, bhi := bounds[k], bounds[k+1]
			var poly []zvertex
			switch {
			case lo >= blo && hi <= bhi:
				poly = tri
			default:
				poly = clipPolygon(tri, func(z float64) float64 { return z - blo })
				poly = clipPolygon(poly, func(z float64) float64 { return bhi - z })
			}
			if len(poly) < 3 {
				continue
			}

			pl := make(Polyline, len(poly))
			for i, v := range poly {
				pl[i] = Point{v.x, v.y}
			}
			a := signedArea(pl)
			if a == 0 {
				continue
			} else if a < 0 {
				slices.Reverse(pl)
			}
			bands[k] = append(bands[k], pl)
		}
	})

	return bands
}

///////////////////////////////////////////////////////////////////////////
// Levels

// niceLevels returns about n evenly spaced round-numbered levels that
// span [lo, hi].
func niceLevels(lo, hi float64, n int) []float64 {
	if !math.IsFinite(lo) || !math.IsFinite(hi) {
		return nil
	}
	if lo == hi {
		return []float64{lo}
	}

	raw := (hi - lo) / float64(max(n, 1))
	mag := gomath.Pow(10, gomath.Floor(gomath.Log10(raw)))
	step := mag * 10
	for _, f := range []float64{1, 2, 2.5, 5, 10} {
		if f*mag >= raw {
			step = f * mag
			break
		}
	}

	var levels []float64
	for k := gomath.Floor(lo / step); k <= gomath.Ceil(hi/step); k++ {
		levels = append(levels, k*step)
	}
	return levels
}
