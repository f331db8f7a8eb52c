package stl

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
)

// WriteASCII serialises g as ASCII STL. When scale is not 1 every position
// is multiplied by it.
func WriteASCII(w io.Writer, name string, g *Geometry, scale float32) error {
	if scale == 0 {
		scale = 1
	}
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "solid %s\n", name)
	for t := 0; t < g.TriangleCount(); t++ {
		n := facetNormal(g, t)
		fmt.Fprintf(bw, "  facet normal %s %s %s\n", formatFloat(n[0]), formatFloat(n[1]), formatFloat(n[2]))
		bw.WriteString("    outer loop\n")
		for v := 0; v < 3; v++ {
			p := g.Positions[t*3+v]
			fmt.Fprintf(bw, "      vertex %s %s %s\n",
				formatFloat(p[0]*scale), formatFloat(p[1]*scale), formatFloat(p[2]*scale))
		}
		bw.WriteString("    endloop\n")
		bw.WriteString("  endfacet\n")
	}
	fmt.Fprintf(bw, "endsolid %s\n", name)

	return bw.Flush()
}

func formatFloat(f float32) string {
	return strconv.FormatFloat(float64(f), 'e', 6, 32)
}
