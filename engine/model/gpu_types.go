package model

import (
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/cespare/xxhash/v2"
)

// Vertex is the GPU representation of a single mesh vertex.
// The layout is tightly packed and matches the default pipeline's vertex buffer layout.
// Size: 44 bytes.
type Vertex struct {
	Position [3]float32 // offset  0: position in model space (12 bytes)
	Color    [3]float32 // offset 12: per-vertex RGB color (12 bytes)
	Normal   [3]float32 // offset 24: vertex normal (12 bytes)
	UV       [2]float32 // offset 36: texture coordinate (8 bytes)
}

// Byte offsets of the Vertex attributes, used to build the vertex buffer layout.
const (
	VertexPositionOffset = 0
	VertexColorOffset    = 12
	VertexNormalOffset   = 24
	VertexUVOffset       = 36
	VertexStride         = 44
)

// Size returns the size of the Vertex struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (v *Vertex) Size() int {
	return int(unsafe.Sizeof(*v))
}

// Marshal serializes the vertex into its little-endian GPU byte layout.
//
// Returns:
//   - [VertexStride]byte: the packed vertex
func (v *Vertex) Marshal() [VertexStride]byte {
	var buf [VertexStride]byte
	putFloats(buf[VertexPositionOffset:], v.Position[:])
	putFloats(buf[VertexColorOffset:], v.Color[:])
	putFloats(buf[VertexNormalOffset:], v.Normal[:])
	putFloats(buf[VertexUVOffset:], v.UV[:])
	return buf
}

// Hash combines every attribute of the vertex into a single 64-bit key.
// Vertices that compare equal always hash equal.
func (v *Vertex) Hash() uint64 {
	buf := v.Marshal()
	return xxhash.Sum64(buf[:])
}

func putFloats(dst []byte, src []float32) {
	for i, f := range src {
		if f == 0 {
			// fold -0 into +0 so equal vertices share a hash
			f = 0
		}
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(f))
	}
}

// verticesToBytes packs vertices for upload.
func verticesToBytes(vertices []Vertex) []byte {
	out := make([]byte, 0, len(vertices)*VertexStride)
	for i := range vertices {
		buf := vertices[i].Marshal()
		out = append(out, buf[:]...)
	}
	return out
}
