// Package formats reads and writes mesh exchange formats.
package formats

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
)

// TMSH format errors.
var (
	ErrInvalidMeshMagic       = errors.New("invalid mesh magic: expected 'TMSH'")
	ErrUnsupportedMeshVersion = errors.New("unsupported mesh version")
	ErrTruncatedMeshData      = errors.New("truncated mesh data")
	ErrInvalidMeshData        = errors.New("invalid mesh data")
)

// Current TMSH version written by WriteMesh.
const (
	MeshVersionMajor = 1
	MeshVersionMinor = 0
)

// maxMeshElements bounds vertex and triangle counts read from a header.
const maxMeshElements = 1 << 26

// Mesh is the wire form of a tile mesh: four parallel arrays in insertion
// order. Vertex i owns Vertices[3i:3i+3], Colors[i] and UVs[2i:2i+2].
type Mesh struct {
	Name      string
	Vertices  []float64
	Triangles []int
	Colors    []uint32
	UVs       []float64
}

// VertexCount returns the number of vertex records.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of faces.
func (m *Mesh) TriangleCount() int {
	return len(m.Triangles) / 3
}

// validate checks that the arrays agree before they are encoded.
func (m *Mesh) validate() error {
	n := m.VertexCount()
	switch {
	case len(m.Vertices)%3 != 0, len(m.Colors) != n, len(m.UVs) != 2*n, len(m.Triangles)%3 != 0:
		return fmt.Errorf("%w: %d vertex components, %d colors, %d uv components, %d indices",
			ErrInvalidMeshData, len(m.Vertices), len(m.Colors), len(m.UVs), len(m.Triangles))
	}
	if n > maxMeshElements || m.TriangleCount() > maxMeshElements {
		return fmt.Errorf("%w: %d vertices, %d triangles", ErrInvalidMeshData, n, m.TriangleCount())
	}
	if len(m.Name) > math.MaxUint16 {
		return fmt.Errorf("%w: name of %d bytes", ErrInvalidMeshData, len(m.Name))
	}
	for i, idx := range m.Triangles {
		if idx < 0 || idx >= n {
			return fmt.Errorf("%w: index %d at %d out of range", ErrInvalidMeshData, idx, i)
		}
	}
	return nil
}

// WriteMesh encodes m as TMSH:
//
//	"TMSH" | minor u8 | major u8 | name len u16 | name
//	| vertex count u32 | triangle count u32
//	| vertices f64*3n | colors u32*n | uvs f64*2n | indices u32*3t
//
// All values are little endian.
func WriteMesh(w io.Writer, m *Mesh) error {
	if err := m.validate(); err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	bw.WriteString("TMSH")
	bw.WriteByte(MeshVersionMinor)
	bw.WriteByte(MeshVersionMajor)

	le := binary.LittleEndian
	var buf [8]byte
	le.PutUint16(buf[:2], uint16(len(m.Name)))
	bw.Write(buf[:2])
	bw.WriteString(m.Name)

	le.PutUint32(buf[:4], uint32(m.VertexCount()))
	bw.Write(buf[:4])
	le.PutUint32(buf[:4], uint32(m.TriangleCount()))
	bw.Write(buf[:4])

	for _, v := range m.Vertices {
		le.PutUint64(buf[:], math.Float64bits(v))
		bw.Write(buf[:])
	}
	for _, c := range m.Colors {
		le.PutUint32(buf[:4], c)
		bw.Write(buf[:4])
	}
	for _, uv := range m.UVs {
		le.PutUint64(buf[:], math.Float64bits(uv))
		bw.Write(buf[:])
	}
	for _, idx := range m.Triangles {
		le.PutUint32(buf[:4], uint32(idx))
		bw.Write(buf[:4])
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("writing mesh: %w", err)
	}
	return nil
}

// WriteMeshFile encodes m into a file at path.
func WriteMeshFile(path string, m *Mesh) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating mesh file: %w", err)
	}
	if err := WriteMesh(f, m); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadMesh parses a TMSH file from raw bytes.
func ReadMesh(data []byte) (*Mesh, error) {
	if len(data) < 6 {
		return nil, ErrTruncatedMeshData
	}
	if string(data[0:4]) != "TMSH" {
		return nil, ErrInvalidMeshMagic
	}
	// Version is stored as [minor, major]
	if major := data[5]; major != MeshVersionMajor {
		return nil, fmt.Errorf("%w: %d.%d", ErrUnsupportedMeshVersion, major, data[4])
	}

	r := bytes.NewReader(data[6:])
	le := binary.LittleEndian

	var nameLen uint16
	if err := binary.Read(r, le, &nameLen); err != nil {
		return nil, fmt.Errorf("%w: reading name length", ErrTruncatedMeshData)
	}
	name := make([]byte, nameLen)
	if _, err := io.ReadFull(r, name); err != nil {
		return nil, fmt.Errorf("%w: reading name", ErrTruncatedMeshData)
	}

	var counts [2]uint32
	if err := binary.Read(r, le, &counts); err != nil {
		return nil, fmt.Errorf("%w: reading counts", ErrTruncatedMeshData)
	}
	vertexCount, triCount := int(counts[0]), int(counts[1])
	if vertexCount > maxMeshElements || triCount > maxMeshElements {
		return nil, fmt.Errorf("%w: %d vertices, %d triangles", ErrInvalidMeshData, vertexCount, triCount)
	}
	if need := vertexCount*(3*8+4+2*8) + triCount*3*4; r.Len() < need {
		return nil, fmt.Errorf("%w: need %d payload bytes, have %d", ErrTruncatedMeshData, need, r.Len())
	}

	m := &Mesh{
		Name:      string(name),
		Vertices:  make([]float64, 3*vertexCount),
		Colors:    make([]uint32, vertexCount),
		UVs:       make([]float64, 2*vertexCount),
		Triangles: make([]int, 3*triCount),
	}
	if err := binary.Read(r, le, m.Vertices); err != nil {
		return nil, fmt.Errorf("%w: reading vertices", ErrTruncatedMeshData)
	}
	if err := binary.Read(r, le, m.Colors); err != nil {
		return nil, fmt.Errorf("%w: reading colors", ErrTruncatedMeshData)
	}
	if err := binary.Read(r, le, m.UVs); err != nil {
		return nil, fmt.Errorf("%w: reading uvs", ErrTruncatedMeshData)
	}
	indices := make([]uint32, 3*triCount)
	if err := binary.Read(r, le, indices); err != nil {
		return nil, fmt.Errorf("%w: reading triangles", ErrTruncatedMeshData)
	}
	for i, idx := range indices {
		if int(idx) >= vertexCount {
			return nil, fmt.Errorf("%w: index %d at %d out of range", ErrInvalidMeshData, idx, i)
		}
		m.Triangles[i] = int(idx)
	}

	return m, nil
}

// ReadMeshFile parses a TMSH file from disk.
func ReadMeshFile(path string) (*Mesh, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading mesh file: %w", err)
	}
	return ReadMesh(data)
}
