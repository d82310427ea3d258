package formats

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// WriteOBJ writes m as a Wavefront OBJ object. Positions are emitted Y up
// as (x, elevation, y) followed by the vertex colour, texture coordinates
// follow as vt lines and faces use 1-based v/vt pairs.
func WriteOBJ(w io.Writer, m *Mesh) error {
	if err := m.validate(); err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	if m.Name != "" {
		fmt.Fprintf(bw, "o %s\n", m.Name)
	}
	for i, ni := 0, m.VertexCount(); i < ni; i++ {
		x, y, ele := m.Vertices[3*i], m.Vertices[3*i+1], m.Vertices[3*i+2]
		c := m.Colors[i]
		fmt.Fprintf(bw, "v %g %g %g %.4g %.4g %.4g\n", x, ele, y,
			float64(c>>24)/255, float64(c>>16&0xFF)/255, float64(c>>8&0xFF)/255)
	}
	for i, ni := 0, m.VertexCount(); i < ni; i++ {
		fmt.Fprintf(bw, "vt %g %g\n", m.UVs[2*i], m.UVs[2*i+1])
	}
	for k, nk := 0, m.TriangleCount(); k < nk; k++ {
		a, b, c := m.Triangles[3*k]+1, m.Triangles[3*k+1]+1, m.Triangles[3*k+2]+1
		fmt.Fprintf(bw, "f %d/%d %d/%d %d/%d\n", a, a, b, b, c, c)
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("writing obj: %w", err)
	}
	return nil
}

// WriteOBJFile writes m to an OBJ file at path.
func WriteOBJFile(path string, m *Mesh) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating obj file: %w", err)
	}
	if err := WriteOBJ(f, m); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
