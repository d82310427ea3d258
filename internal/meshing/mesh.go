// Package meshing turns tile geometry into flat, renderer ready meshes.
package meshing

import (
	"errors"
	"fmt"
	"slices"
)

// ErrInvalidMesh is returned by Mesh.Validate when the parallel arrays disagree.
var ErrInvalidMesh = errors.New("invalid mesh")

// Mesh accumulates the geometry of one tile as four parallel arrays.
// Vertex i owns Vertices[3i:3i+3] (x, y, elevation), Colors[i] and
// UVs[2i:2i+2]; Triangles holds vertex record indices, three per face.
// A Mesh is append only and must not be shared between goroutines while
// it is being built.
type Mesh struct {
	Name      string
	Vertices  []float64
	Triangles []int
	Colors    []uint32
	UVs       []float64
}

// NewMesh creates an empty named mesh.
func NewMesh(name string) *Mesh {
	return &Mesh{Name: name}
}

// VertexCount returns the number of vertex records.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of faces.
func (m *Mesh) TriangleCount() int {
	return len(m.Triangles) / 3
}

// Validate checks the parallel array invariants.
func (m *Mesh) Validate() error {
	if len(m.Vertices)%3 != 0 {
		return fmt.Errorf("%w: %d vertex components", ErrInvalidMesh, len(m.Vertices))
	}
	n := m.VertexCount()
	if len(m.Colors) != n {
		return fmt.Errorf("%w: %d colors for %d vertices", ErrInvalidMesh, len(m.Colors), n)
	}
	if len(m.UVs) != 2*n {
		return fmt.Errorf("%w: %d uv components for %d vertices", ErrInvalidMesh, len(m.UVs), n)
	}
	if len(m.Triangles)%3 != 0 {
		return fmt.Errorf("%w: %d triangle indices", ErrInvalidMesh, len(m.Triangles))
	}
	for i, idx := range m.Triangles {
		if idx < 0 || idx >= n {
			return fmt.Errorf("%w: triangle index %d at %d out of range [0, %d)", ErrInvalidMesh, idx, i, n)
		}
	}
	return nil
}

// Reset empties the mesh while keeping its buffers.
func (m *Mesh) Reset() {
	m.Vertices = m.Vertices[:0]
	m.Triangles = m.Triangles[:0]
	m.Colors = m.Colors[:0]
	m.UVs = m.UVs[:0]
}

// appendVertex pushes one complete vertex record and returns its index.
func (m *Mesh) appendVertex(x, y, ele float64, color uint32, u, v float64) int {
	idx := len(m.Vertices) / 3
	m.Vertices = append(m.Vertices, x, y, ele)
	m.Colors = append(m.Colors, color)
	m.UVs = append(m.UVs, u, v)
	return idx
}

func (m *Mesh) appendTriangle(a, b, c int) {
	m.Triangles = append(m.Triangles, a, b, c)
}

// ensureCapacity grows the arrays for points more vertices and tris more faces.
func (m *Mesh) ensureCapacity(points, tris int) {
	m.Vertices = slices.Grow(m.Vertices, points*3)
	m.Triangles = slices.Grow(m.Triangles, tris*3)
	m.Colors = slices.Grow(m.Colors, points)
	m.UVs = slices.Grow(m.UVs, points*2)
}
