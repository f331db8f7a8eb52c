package stl

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"
)

const singleFacet = `solid one
  facet normal 0 0 1
    outer loop
      vertex 0 0 0
      vertex 1 0 0
      vertex 0 1 0
    endloop
  endfacet
endsolid one
`

func TestParseASCII_SingleTriangle(t *testing.T) {
	g, err := ParseASCII(singleFacet)
	if err != nil {
		t.Fatalf("ParseASCII() error: %v", err)
	}
	if g.TriangleCount() != 1 || g.VertexCount() != 3 {
		t.Fatalf("Expected 1 triangle / 3 vertices, got %d / %d", g.TriangleCount(), g.VertexCount())
	}
	for i, n := range g.Normals {
		if n != (Vec3{0, 0, 1}) {
			t.Errorf("normal %d = %v, want (0,0,1)", i, n)
		}
	}
	if g.Positions[1] != (Vec3{1, 0, 0}) {
		t.Errorf("Expected second vertex (1,0,0), got %v", g.Positions[1])
	}
}

func TestParseASCII_TruncatesPartialTriangle(t *testing.T) {
	var b strings.Builder
	b.WriteString("solid ten\n")
	for i := 0; i < 10; i++ {
		fmt.Fprintf(&b, "vertex %d 0 0\n", i)
	}

	g, err := ParseASCII(b.String())
	if err != nil {
		t.Fatalf("ParseASCII() error: %v", err)
	}
	if g.VertexCount() != 9 || g.TriangleCount() != 3 {
		t.Fatalf("Expected 9 vertices / 3 triangles, got %d / %d", g.VertexCount(), g.TriangleCount())
	}
	if len(g.Normals) != len(g.Positions) {
		t.Fatalf("Normals length %d != positions length %d", len(g.Normals), len(g.Positions))
	}
	if g.Positions[8][0] != 8 {
		t.Errorf("Expected last kept vertex x=8, got %v", g.Positions[8])
	}
}

func TestParseASCII_NoVertices(t *testing.T) {
	for _, input := range []string{"", "solid empty\nendsolid empty\n", "facet normal 0 0 1\n", "vertex 1 2 3\nvertex 4 5 6\n"} {
		g, err := ParseASCII(input)
		if !errors.Is(err, ErrNoTriangles) {
			t.Errorf("ParseASCII(%q) error = %v, want ErrNoTriangles", input, err)
		}
		if g != nil {
			t.Errorf("ParseASCII(%q) returned geometry", input)
		}
	}
}

func TestParseASCII_NormalTracking(t *testing.T) {
	input := `FACET NORMAL 1 0 0
vertex 0 0 0
vertex 0 1 0
vertex 0 0 1
facet normal only two 5 6
vertex 1 1 1
vertex 2 2 2
vertex 3 3 3
facet normal -1.5e0 +2 .25
Vertex 4 4 4
  vertex 5 5 5
vertex 6 6 6`

	g, err := ParseASCII(input)
	if err != nil {
		t.Fatalf("ParseASCII() error: %v", err)
	}
	if g.TriangleCount() != 3 {
		t.Fatalf("Expected 3 triangles, got %d", g.TriangleCount())
	}

	want := []Vec3{{1, 0, 0}, {1, 0, 0}, {-1.5, 2, 0.25}}
	for tri, n := range want {
		for v := 0; v < 3; v++ {
			if got := g.Normals[tri*3+v]; got != n {
				t.Errorf("triangle %d vertex %d normal = %v, want %v", tri, v, got, n)
			}
		}
	}
}

func TestParseASCII_SkipsMalformedTokens(t *testing.T) {
	input := "vertex 1 2 3\nvertex a b c\nvertex 4 5\nvertex 7 8 9\nvertex 1e2 -3.5 x 6\n"
	g, err := ParseASCII(input)
	if err != nil {
		t.Fatalf("ParseASCII() error: %v", err)
	}
	if g.VertexCount() != 3 {
		t.Fatalf("Expected 3 vertices, got %d", g.VertexCount())
	}
	if g.Positions[2] != (Vec3{100, -3.5, 6}) {
		t.Errorf("Expected (100,-3.5,6), got %v", g.Positions[2])
	}
}

func TestParseASCII_CRLF(t *testing.T) {
	g, err := ParseASCII(strings.ReplaceAll(singleFacet, "\n", "\r\n"))
	if err != nil {
		t.Fatalf("ParseASCII() error: %v", err)
	}
	if g.TriangleCount() != 1 {
		t.Fatalf("Expected 1 triangle, got %d", g.TriangleCount())
	}
}

func TestParseASCII_OverflowKeptAsInf(t *testing.T) {
	text := "facet normal 0 0 1\nvertex 1e39 0 0\nvertex 1 0 0\nvertex 0 -1e39 0\n"
	g, err := ParseASCII(text)
	if err != nil {
		t.Fatalf("ParseASCII() error: %v", err)
	}
	if g.TriangleCount() != 1 {
		t.Fatalf("Expected 1 triangle, got %d", g.TriangleCount())
	}
	if !math.IsInf(float64(g.Positions[0][0]), 1) {
		t.Errorf("Expected +Inf x, got %v", g.Positions[0][0])
	}
	if !math.IsInf(float64(g.Positions[2][1]), -1) {
		t.Errorf("Expected -Inf y, got %v", g.Positions[2][1])
	}
}
