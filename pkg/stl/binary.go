package stl

import (
	"encoding/binary"
	"fmt"
	"math"
	"unicode/utf8"
)

const (
	binaryHeaderSize = 80
	binaryPrefixSize = binaryHeaderSize + 4
	binaryFaceSize   = 50
)

// ParseBinary decodes a little-endian binary STL: an 80 byte header, a
// uint32 triangle count, then 50 bytes per triangle.
func ParseBinary(data []byte) (*Geometry, error) {
	if len(data) < binaryPrefixSize {
		return nil, fmt.Errorf("%w: %d bytes, header needs %d", ErrTruncated, len(data), binaryPrefixSize)
	}
	faces := int(binary.LittleEndian.Uint32(data[binaryHeaderSize:binaryPrefixSize]))
	if faces == 0 {
		return nil, ErrNoTriangles
	}
	want := binaryPrefixSize + faces*binaryFaceSize
	if len(data) < want {
		return nil, fmt.Errorf("%w: %d triangles need %d bytes, got %d", ErrTruncated, faces, want, len(data))
	}

	g := &Geometry{
		Positions: make([]Vec3, 0, faces*3),
		Normals:   make([]Vec3, 0, faces*3),
	}
	off := binaryPrefixSize
	for f := 0; f < faces; f++ {
		normal := readVec3(data[off:])
		for v := 0; v < 3; v++ {
			g.Positions = append(g.Positions, readVec3(data[off+12+v*12:]))
			g.Normals = append(g.Normals, normal)
		}
		off += binaryFaceSize
	}
	return g, nil
}

// IsBinary reports whether data looks like a binary STL. A size that
// matches the declared triangle count wins. Anything else is treated as
// ASCII unless it is not text.
func IsBinary(data []byte) bool {
	if len(data) >= binaryPrefixSize {
		faces := int(binary.LittleEndian.Uint32(data[binaryHeaderSize:binaryPrefixSize]))
		if binaryPrefixSize+faces*binaryFaceSize == len(data) {
			return true
		}
	}
	return !isText(data)
}

func isText(data []byte) bool {
	for _, b := range data {
		if (b < 0x20 && b != '\t' && b != '\n' && b != '\r' && b != '\f') || b == 0x7f {
			return false
		}
	}
	return utf8.Valid(data)
}

// Decode parses data as binary or ASCII STL.
func Decode(data []byte) (*Geometry, error) {
	if IsBinary(data) {
		return ParseBinary(data)
	}
	return ParseASCII(string(data))
}

// EncodeBinary serialises g as binary STL. Facet normals are taken from the
// first vertex normal of each triangle, or computed when g has none.
func EncodeBinary(g *Geometry, header string) []byte {
	tris := g.TriangleCount()
	buf := make([]byte, binaryPrefixSize+tris*binaryFaceSize)
	copy(buf[:binaryHeaderSize], header)
	binary.LittleEndian.PutUint32(buf[binaryHeaderSize:], uint32(tris))

	off := binaryPrefixSize
	for t := 0; t < tris; t++ {
		writeVec3(buf[off:], facetNormal(g, t))
		for v := 0; v < 3; v++ {
			writeVec3(buf[off+12+v*12:], g.Positions[t*3+v])
		}
		off += binaryFaceSize
	}
	return buf
}

func readVec3(b []byte) Vec3 {
	return Vec3{
		math.Float32frombits(binary.LittleEndian.Uint32(b[0:])),
		math.Float32frombits(binary.LittleEndian.Uint32(b[4:])),
		math.Float32frombits(binary.LittleEndian.Uint32(b[8:])),
	}
}

func writeVec3(b []byte, v Vec3) {
	binary.LittleEndian.PutUint32(b[0:], math.Float32bits(v[0]))
	binary.LittleEndian.PutUint32(b[4:], math.Float32bits(v[1]))
	binary.LittleEndian.PutUint32(b[8:], math.Float32bits(v[2]))
}
