// Package stl decodes STL meshes (ASCII and binary) and normalizes them for
// display: recomputed normals, a centered bounding box and a fit-to-view
// scale factor.
package stl

import (
	"errors"
	"math"
)

var (
	// ErrNoTriangles is returned when a document yields no complete triangle.
	ErrNoTriangles = errors.New("invalid or incomplete STL content: no triangles parsed")
	// ErrTruncated is returned when a binary STL is shorter than its
	// declared triangle count.
	ErrTruncated = errors.New("binary STL truncated")
	// ErrTooLarge is returned when a download exceeds the configured limit.
	ErrTooLarge = errors.New("STL exceeds size limit")
)

// Vec3 is a single vertex position or normal.
type Vec3 [3]float32

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v[0] - o[0], v[1] - o[1], v[2] - o[2]}
}

// Cross returns the cross product v x o.
func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		v[1]*o[2] - v[2]*o[1],
		v[2]*o[0] - v[0]*o[2],
		v[0]*o[1] - v[1]*o[0],
	}
}

// Normalize returns v scaled to unit length. The zero vector is returned
// unchanged.
func (v Vec3) Normalize() Vec3 {
	l := float32(math.Sqrt(float64(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])))
	if l == 0 {
		return v
	}
	return Vec3{v[0] / l, v[1] / l, v[2] / l}
}

// Geometry is a non-indexed triangle list. Every three consecutive positions
// form one triangle. Normals is either nil or the same length as Positions.
type Geometry struct {
	Positions []Vec3
	Normals   []Vec3
}

// VertexCount returns the number of vertices.
func (g *Geometry) VertexCount() int {
	if g == nil {
		return 0
	}
	return len(g.Positions)
}

// TriangleCount returns the number of complete triangles.
func (g *Geometry) TriangleCount() int {
	return g.VertexCount() / 3
}

// Clone returns a deep copy.
func (g *Geometry) Clone() *Geometry {
	if g == nil {
		return nil
	}
	out := &Geometry{Positions: append([]Vec3(nil), g.Positions...)}
	if g.Normals != nil {
		out.Normals = append([]Vec3(nil), g.Normals...)
	}
	return out
}

// Box is an axis-aligned bounding box.
type Box struct {
	Min Vec3 `json:"min"`
	Max Vec3 `json:"max"`
}

// Size returns the extent along each axis.
func (b Box) Size() Vec3 {
	return b.Max.Sub(b.Min)
}

// Center returns the midpoint of the box.
func (b Box) Center() Vec3 {
	return Vec3{
		(b.Min[0] + b.Max[0]) / 2,
		(b.Min[1] + b.Max[1]) / 2,
		(b.Min[2] + b.Max[2]) / 2,
	}
}

// MaxDim returns the largest extent.
func (b Box) MaxDim() float32 {
	s := b.Size()
	return max(s[0], s[1], s[2])
}

// Bounds computes the bounding box of all positions. An empty geometry
// yields the zero box.
func Bounds(g *Geometry) Box {
	if g.VertexCount() == 0 {
		return Box{}
	}
	b := Box{Min: g.Positions[0], Max: g.Positions[0]}
	for _, p := range g.Positions[1:] {
		for i := 0; i < 3; i++ {
			b.Min[i] = min(b.Min[i], p[i])
			b.Max[i] = max(b.Max[i], p[i])
		}
	}
	return b
}
