package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"meshchat/pkg/stl"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printStats(w io.Writer, p stl.Prepared) {
	size := p.Bounds.Size()
	fmt.Fprintf(w, "triangles: %d\n", p.Geometry.TriangleCount())
	fmt.Fprintf(w, "bounds:    min(%g, %g, %g) max(%g, %g, %g)\n",
		p.Bounds.Min[0], p.Bounds.Min[1], p.Bounds.Min[2],
		p.Bounds.Max[0], p.Bounds.Max[1], p.Bounds.Max[2])
	fmt.Fprintf(w, "size:      %g x %g x %g\n", size[0], size[1], size[2])
	fmt.Fprintf(w, "scale:     %g\n", p.Scale)
}

// writeMesh saves p as normalized ASCII STL: centered and scaled to the
// target size.
func writeMesh(path string, p stl.Prepared) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if err := stl.WriteASCII(f, name, p.Geometry, p.Scale); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	return strings.Count(strings.TrimRight(s, "\n"), "\n") + 1
}
