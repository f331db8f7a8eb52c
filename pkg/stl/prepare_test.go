package stl

import (
	"bytes"
	"math"
	"testing"
)

func approx(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-5
}

func TestPrepare_CentersAndScales(t *testing.T) {
	g := &Geometry{Positions: []Vec3{
		{0, 0, 0}, {4, 0, 0}, {0, 2, 0},
		{0, 0, 1}, {4, 2, 1}, {0, 2, 1},
	}}

	p := Prepare(g, Options{})
	if !approx(p.Scale, 1.8/4) {
		t.Errorf("Scale = %v, want %v", p.Scale, 1.8/4)
	}
	if p.Bounds.Min != (Vec3{0, 0, 0}) || p.Bounds.Max != (Vec3{4, 2, 1}) {
		t.Errorf("Unexpected bounds %+v", p.Bounds)
	}

	centered := Bounds(p.Geometry)
	c := centered.Center()
	for i := 0; i < 3; i++ {
		if !approx(c[i], 0) {
			t.Errorf("center[%d] = %v, want 0", i, c[i])
		}
	}
	if g.Positions[1] != (Vec3{4, 0, 0}) {
		t.Error("Prepare must not modify its input")
	}
}

func TestPrepare_RecomputesNormals(t *testing.T) {
	g, err := ParseASCII("facet normal 9 9 9\nvertex 0 0 0\nvertex 1 0 0\nvertex 0 1 0\n")
	if err != nil {
		t.Fatalf("ParseASCII() error: %v", err)
	}

	p := Prepare(g, Options{})
	for i, n := range p.Geometry.Normals {
		if n != (Vec3{0, 0, 1}) {
			t.Errorf("normal %d = %v, want (0,0,1)", i, n)
		}
	}

	kept := Prepare(g, Options{KeepParsedNormals: true})
	if kept.Geometry.Normals[0] != (Vec3{9, 9, 9}) {
		t.Errorf("Expected parsed normal to be kept, got %v", kept.Geometry.Normals[0])
	}
}

func TestPrepare_FlatMeshUsesUnitDimension(t *testing.T) {
	g := &Geometry{Positions: []Vec3{{2, 2, 2}, {2, 2, 2}, {2, 2, 2}}}
	p := Prepare(g, Options{TargetSize: 3})
	if p.Scale != 3 {
		t.Errorf("Scale = %v, want 3", p.Scale)
	}
	if p.Geometry.Normals[0] != (Vec3{}) {
		t.Errorf("Expected zero normal for degenerate triangle, got %v", p.Geometry.Normals[0])
	}
}

func TestWriteASCII_RoundTrip(t *testing.T) {
	g, _ := ParseASCII(singleFacet)

	var buf bytes.Buffer
	if err := WriteASCII(&buf, "copy", g, 2); err != nil {
		t.Fatalf("WriteASCII() error: %v", err)
	}

	back, err := ParseASCII(buf.String())
	if err != nil {
		t.Fatalf("ParseASCII() error: %v", err)
	}
	if back.Positions[1] != (Vec3{2, 0, 0}) {
		t.Errorf("Expected scaled vertex (2,0,0), got %v", back.Positions[1])
	}
	if back.Normals[0] != (Vec3{0, 0, 1}) {
		t.Errorf("Expected normal (0,0,1), got %v", back.Normals[0])
	}
}
