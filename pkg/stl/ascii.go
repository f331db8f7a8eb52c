package stl

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

var (
	numberPattern = regexp.MustCompile(`[-+]?\d*\.?\d+(?:[eE][+-]?\d+)?`)
	lineSplit     = regexp.MustCompile(`\r?\n`)
)

// ParseASCII decodes ASCII STL text. Only "facet normal" and "vertex" lines
// are consumed; every other keyword is ignored. Each vertex carries the
// normal of the most recent facet declaration, starting from (0,0,1).
// Trailing vertices that do not complete a triangle are dropped, and a
// document without a single triangle returns ErrNoTriangles.
func ParseASCII(text string) (*Geometry, error) {
	var positions, normals []Vec3
	normal := Vec3{0, 0, 1}

	for _, raw := range lineSplit.Split(text, -1) {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		lower := strings.ToLower(line)

		switch {
		case strings.HasPrefix(lower, "facet normal"):
			if v, ok := firstThree(line); ok {
				normal = v
			}
		case strings.HasPrefix(lower, "vertex"):
			if v, ok := firstThree(line); ok {
				positions = append(positions, v)
				normals = append(normals, normal)
			}
		}
	}

	n := len(positions) / 3 * 3
	if n == 0 {
		return nil, ErrNoTriangles
	}
	return &Geometry{Positions: positions[:n], Normals: normals[:n]}, nil
}

// firstThree extracts the first three numeric tokens on a line.
func firstThree(line string) (Vec3, bool) {
	tokens := numberPattern.FindAllString(line, 3)
	if len(tokens) < 3 {
		return Vec3{}, false
	}
	var v Vec3
	for i, tok := range tokens {
		// Out-of-range values come back as ±Inf with ErrRange and are kept.
		f, err := strconv.ParseFloat(tok, 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return Vec3{}, false
		}
		v[i] = float32(f)
	}
	return v, true
}
