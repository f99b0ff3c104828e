package model

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ErrMeshParse is wrapped by every error returned while reading a mesh file.
var ErrMeshParse = errors.New("model: mesh parse")

// Builder holds deduplicated CPU-side mesh data ready to be turned into a Model.
// Vertices holds each unique vertex once and Indices references them in face order.
type Builder struct {
	Vertices []Vertex
	Indices  []uint32

	buckets map[uint64][]uint32
}

// AddVertex appends an index for v, reusing an existing vertex when an identical one was added before.
//
// Parameters:
//   - v: the vertex to add
//
// Returns:
//   - uint32: the index of the stored vertex
func (b *Builder) AddVertex(v Vertex) uint32 {
	if b.buckets == nil {
		b.buckets = make(map[uint64][]uint32)
	}

	h := v.Hash()
	for _, idx := range b.buckets[h] {
		if b.Vertices[idx] == v {
			b.Indices = append(b.Indices, idx)
			return idx
		}
	}

	idx := uint32(len(b.Vertices))
	b.Vertices = append(b.Vertices, v)
	b.buckets[h] = append(b.buckets[h], idx)
	b.Indices = append(b.Indices, idx)
	return idx
}

// LoadBuilder reads a Wavefront OBJ file into a deduplicated Builder.
//
// Parameters:
//   - path: file system path of the OBJ file
//
// Returns:
//   - *Builder: the parsed mesh
//   - error: an error wrapping ErrMeshParse, or the open error
func LoadBuilder(path string) (*Builder, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMeshParse, path, err)
	}
	defer f.Close()

	b, err := ParseOBJ(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return b, nil
}

type objIndex struct {
	position, uv, normal int
}

// ParseOBJ reads the Wavefront OBJ subset used by engine assets: positions with optional RGB colors,
// texture coordinates, normals and polygonal faces, which are fan-triangulated in winding order.
// Vertices without a color are white. Other statements are ignored.
//
// Parameters:
//   - r: the OBJ source
//
// Returns:
//   - *Builder: the parsed, deduplicated mesh
//   - error: an error wrapping ErrMeshParse on malformed input
func ParseOBJ(r io.Reader) (*Builder, error) {
	var (
		positions [][3]float32
		colors    [][3]float32
		uvs       [][2]float32
		normals   [][3]float32
		b         = &Builder{}
	)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || text[0] == '#' {
			continue
		}
		fields := strings.Fields(text)

		switch fields[0] {
		case "v":
			vals, err := parseFloats(fields[1:], 3, line)
			if err != nil {
				return nil, err
			}
			positions = append(positions, [3]float32{vals[0], vals[1], vals[2]})
			color := [3]float32{1, 1, 1}
			if len(vals) >= 6 {
				color = [3]float32{vals[3], vals[4], vals[5]}
			}
			colors = append(colors, color)
		case "vt":
			vals, err := parseFloats(fields[1:], 2, line)
			if err != nil {
				return nil, err
			}
			uvs = append(uvs, [2]float32{vals[0], vals[1]})
		case "vn":
			vals, err := parseFloats(fields[1:], 3, line)
			if err != nil {
				return nil, err
			}
			normals = append(normals, [3]float32{vals[0], vals[1], vals[2]})
		case "f":
			if len(fields) < 4 {
				return nil, fmt.Errorf("%w: line %d: face needs at least 3 vertices", ErrMeshParse, line)
			}
			corners := make([]Vertex, 0, len(fields)-1)
			for _, ref := range fields[1:] {
				idx, err := parseFaceRef(ref, len(positions), len(uvs), len(normals), line)
				if err != nil {
					return nil, err
				}
				v := Vertex{
					Position: positions[idx.position],
					Color:    colors[idx.position],
				}
				if idx.uv >= 0 {
					v.UV = uvs[idx.uv]
				}
				if idx.normal >= 0 {
					v.Normal = normals[idx.normal]
				}
				corners = append(corners, v)
			}
			for i := 1; i+1 < len(corners); i++ {
				b.AddVertex(corners[0])
				b.AddVertex(corners[i])
				b.AddVertex(corners[i+1])
			}
		default:
			// o, g, s, usemtl, mtllib and friends carry nothing the mesh needs
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMeshParse, err)
	}
	return b, nil
}

func parseFloats(fields []string, want, line int) ([]float32, error) {
	if len(fields) < want {
		return nil, fmt.Errorf("%w: line %d: expected at least %d values, got %d", ErrMeshParse, line, want, len(fields))
	}
	out := make([]float32, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %q is not a number", ErrMeshParse, line, f)
		}
		out[i] = float32(v)
	}
	return out, nil
}

// parseFaceRef resolves one "v", "v/vt", "v//vn" or "v/vt/vn" reference to zero-based indices.
// Missing texture or normal references resolve to -1.
func parseFaceRef(ref string, nPos, nUV, nNorm, line int) (objIndex, error) {
	parts := strings.Split(ref, "/")
	if len(parts) > 3 {
		return objIndex{}, fmt.Errorf("%w: line %d: bad face reference %q", ErrMeshParse, line, ref)
	}

	idx := objIndex{position: -1, uv: -1, normal: -1}
	targets := []*int{&idx.position, &idx.uv, &idx.normal}
	counts := []int{nPos, nUV, nNorm}
	for i, p := range parts {
		if p == "" {
			if i == 0 {
				return objIndex{}, fmt.Errorf("%w: line %d: face reference %q has no position", ErrMeshParse, line, ref)
			}
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil || n == 0 {
			return objIndex{}, fmt.Errorf("%w: line %d: bad face index %q", ErrMeshParse, line, p)
		}
		if n < 0 {
			n += counts[i]
		} else {
			n--
		}
		if n < 0 || n >= counts[i] {
			return objIndex{}, fmt.Errorf("%w: line %d: face index %q out of range", ErrMeshParse, line, p)
		}
		*targets[i] = n
	}
	return idx, nil
}
