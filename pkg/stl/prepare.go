package stl

// DefaultTargetSize is the display size the largest bounding box dimension
// is scaled to.
const DefaultTargetSize float32 = 1.8

// Options controls Prepare.
type Options struct {
	// TargetSize is the size of the largest dimension after scaling.
	// Zero means DefaultTargetSize.
	TargetSize float32
	// KeepParsedNormals skips normal recomputation when the geometry
	// already carries a full set of normals.
	KeepParsedNormals bool
}

// Prepared is a geometry ready for display.
type Prepared struct {
	// Geometry is centered on the origin. Scale is not applied to it.
	Geometry *Geometry
	// Scale maps the largest bounding box dimension to the target size.
	Scale float32
	// Bounds is the bounding box before centering.
	Bounds Box
}

// Prepare recomputes vertex normals, computes the bounding box and the
// fit-to-view scale, and translates a copy of g so that the box center sits
// at the origin. g itself is not modified.
func Prepare(g *Geometry, opts Options) Prepared {
	target := opts.TargetSize
	if target <= 0 {
		target = DefaultTargetSize
	}

	out := g.Clone()
	if out == nil {
		out = &Geometry{}
	}
	if !opts.KeepParsedNormals || len(out.Normals) != len(out.Positions) {
		out.Normals = ComputeVertexNormals(out)
	}

	bounds := Bounds(out)
	maxDim := bounds.MaxDim()
	if maxDim == 0 {
		maxDim = 1
	}

	center := bounds.Center()
	for i := range out.Positions {
		out.Positions[i] = out.Positions[i].Sub(center)
	}

	return Prepared{
		Geometry: out,
		Scale:    target / maxDim,
		Bounds:   bounds,
	}
}

// ComputeVertexNormals returns one normal per vertex. Vertices are not
// shared between triangles, so each vertex gets its face normal. Degenerate
// triangles get the zero vector.
func ComputeVertexNormals(g *Geometry) []Vec3 {
	normals := make([]Vec3, len(g.Positions))
	for t := 0; t < g.TriangleCount(); t++ {
		n := faceNormal(g.Positions[t*3], g.Positions[t*3+1], g.Positions[t*3+2])
		normals[t*3], normals[t*3+1], normals[t*3+2] = n, n, n
	}
	return normals
}

func faceNormal(a, b, c Vec3) Vec3 {
	return c.Sub(b).Cross(a.Sub(b)).Normalize()
}

func facetNormal(g *Geometry, t int) Vec3 {
	if len(g.Normals) == len(g.Positions) {
		return g.Normals[t*3]
	}
	return faceNormal(g.Positions[t*3], g.Positions[t*3+1], g.Positions[t*3+2])
}
