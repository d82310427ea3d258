package meshing

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/Faultbox/terramesh/internal/elevation"
	"github.com/Faultbox/terramesh/internal/triangle"
	"github.com/Faultbox/terramesh/pkg/colors"
	"github.com/Faultbox/terramesh/pkg/geo"
	vec "github.com/Faultbox/terramesh/pkg/math"
	"github.com/Faultbox/terramesh/pkg/noise"
)

func testGradient(t *testing.T) *colors.Gradient {
	t.Helper()
	g, err := colors.ParseGradient("gradient(#000000, #ff0000 50%, #ffffff)")
	if err != nil {
		t.Fatalf("ParseGradient failed: %v", err)
	}
	return g
}

func square(t *testing.T, minX, minY, maxX, maxY float64) *Polygon {
	t.Helper()
	p := NewPolygon(4, 0)
	err := p.AddContour([]vec.Vec2{
		{X: minX, Y: minY}, {X: maxX, Y: minY}, {X: maxX, Y: maxY}, {X: minX, Y: maxY},
	})
	if err != nil {
		t.Fatalf("AddContour failed: %v", err)
	}
	return p
}

// signedArea returns the planar signed area of face k.
func signedArea(m *Mesh, k int) float64 {
	p := func(i int) (float64, float64) {
		idx := m.Triangles[3*k+i]
		return m.Vertices[3*idx], m.Vertices[3*idx+1]
	}
	ax, ay := p(0)
	bx, by := p(1)
	cx, cy := p(2)
	return 0.5 * ((bx-ax)*(cy-ay) - (by-ay)*(cx-ax))
}

func TestAddPolygonUnitSquare(t *testing.T) {
	bbox := geo.NewBoundingBox(-0.5, -0.5, 0.5, 0.5)
	b := NewMeshBuilderWithBoundingBox(bbox, elevation.Flat(0))
	gradient := testGradient(t)
	mesh := NewMesh("square")

	geom := DefaultGeometryOptions()
	app := AppearanceOptions{Gradient: gradient}
	if err := b.AddPolygon(mesh, square(t, -0.5, -0.5, 0.5, 0.5), geom, app); err != nil {
		t.Fatalf("AddPolygon failed: %v", err)
	}

	if err := mesh.Validate(); err != nil {
		t.Fatalf("invalid mesh: %v", err)
	}
	if mesh.VertexCount() != 4 {
		t.Fatalf("expected 4 vertices, got %d", mesh.VertexCount())
	}
	if mesh.TriangleCount() != 2 {
		t.Fatalf("expected 2 triangles, got %d", mesh.TriangleCount())
	}

	want := gradient.Evaluate(0.5)
	for i, ni := 0, mesh.VertexCount(); i < ni; i++ {
		if ele := mesh.Vertices[3*i+2]; ele != 0 {
			t.Errorf("vertex %d: expected elevation 0, got %v", i, ele)
		}
		if mesh.Colors[i] != want {
			t.Errorf("vertex %d: expected color %08x, got %08x", i, want, mesh.Colors[i])
		}
		if mesh.UVs[2*i] != 0 || mesh.UVs[2*i+1] != 0 {
			t.Errorf("vertex %d: expected uv (0,0), got (%v,%v)", i, mesh.UVs[2*i], mesh.UVs[2*i+1])
		}
	}
}

func TestAddPolygonWinding(t *testing.T) {
	b := NewMeshBuilderWithBoundingBox(geo.NewBoundingBox(0, 0, 1, 1), elevation.Flat(0))

	tests := []struct {
		name     string
		flip     bool
		positive bool
	}{
		{"normal", false, false},
		{"flipped", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mesh := NewMesh(tt.name)
			geom := DefaultGeometryOptions()
			geom.FlipSide = tt.flip
			if err := b.AddPolygon(mesh, square(t, 0, 0, 1, 1), geom, AppearanceOptions{}); err != nil {
				t.Fatalf("AddPolygon failed: %v", err)
			}
			for k, nk := 0, mesh.TriangleCount(); k < nk; k++ {
				if a := signedArea(mesh, k); (a > 0) != tt.positive {
					t.Errorf("triangle %d has signed area %v", k, a)
				}
			}
		})
	}
}

func TestAddPolygonExplicitElevation(t *testing.T) {
	b := NewMeshBuilderWithBoundingBox(geo.NewBoundingBox(0, 0, 1, 1), elevation.Flat(100))
	mesh := NewMesh("roof")

	geom := DefaultGeometryOptions()
	geom.Elevation = 7
	geom.HeightOffset = 3
	if err := b.AddPolygon(mesh, square(t, 0, 0, 1, 1), geom, AppearanceOptions{}); err != nil {
		t.Fatalf("AddPolygon failed: %v", err)
	}

	for i, ni := 0, mesh.VertexCount(); i < ni; i++ {
		if ele := mesh.Vertices[3*i+2]; ele != 10 {
			t.Errorf("vertex %d: expected elevation 10, got %v", i, ele)
		}
		if mesh.Colors[i] != colors.White {
			t.Errorf("vertex %d: expected white without gradient, got %08x", i, mesh.Colors[i])
		}
	}
}

func TestAddPolygonRefinement(t *testing.T) {
	const (
		ground = 5.0
		freq   = 0.37
		area   = 2.0
	)
	b := NewMeshBuilderWithBoundingBox(geo.NewBoundingBox(0, 0, 10, 10), elevation.Flat(ground))
	mesh := NewMesh("refined")

	geom := DefaultGeometryOptions()
	geom.Area = area
	geom.EleNoiseFreq = freq
	if err := b.AddPolygon(mesh, square(t, 0, 0, 10, 10), geom, AppearanceOptions{}); err != nil {
		t.Fatalf("AddPolygon failed: %v", err)
	}
	if err := mesh.Validate(); err != nil {
		t.Fatalf("invalid mesh: %v", err)
	}
	if mesh.VertexCount() <= 4 {
		t.Fatalf("expected Steiner points, got %d vertices", mesh.VertexCount())
	}

	var total float64
	for k, nk := 0, mesh.TriangleCount(); k < nk; k++ {
		a := -signedArea(mesh, k)
		if a > area*(1+1e-9) {
			t.Errorf("triangle %d has area %v > %v", k, a, area)
		}
		total += a
	}
	if math.Abs(total-100) > 1e-6 {
		t.Errorf("expected total area 100, got %v", total)
	}

	boundary, interior := 0, 0
	for i, ni := 0, mesh.VertexCount(); i < ni; i++ {
		x, y, ele := mesh.Vertices[3*i], mesh.Vertices[3*i+1], mesh.Vertices[3*i+2]
		onEdge := x == 0 || x == 10 || y == 0 || y == 10
		if onEdge {
			boundary++
			if ele != ground {
				t.Errorf("boundary vertex (%v,%v) has elevation %v, want %v", x, y, ele, ground)
			}
			continue
		}
		interior++
		if want := ground + noise.Perlin2D(x, y, freq); ele != want {
			t.Errorf("interior vertex (%v,%v) has elevation %v, want %v", x, y, ele, want)
		}
	}
	if boundary < 4 || interior == 0 {
		t.Errorf("expected boundary and interior vertices, got %d and %d", boundary, interior)
	}
}

func TestAddPolygonUnrefinedHasNoNoise(t *testing.T) {
	b := NewMeshBuilderWithBoundingBox(geo.NewBoundingBox(0, 0, 1, 1), elevation.Flat(1))
	mesh := NewMesh("flat")

	geom := DefaultGeometryOptions()
	geom.EleNoiseFreq = 0.9
	if err := b.AddPolygon(mesh, square(t, 0.1, 0.1, 0.8, 0.7), geom, AppearanceOptions{}); err != nil {
		t.Fatalf("AddPolygon failed: %v", err)
	}
	for i, ni := 0, mesh.VertexCount(); i < ni; i++ {
		if ele := mesh.Vertices[3*i+2]; ele != 1 {
			t.Errorf("vertex %d: expected elevation 1, got %v", i, ele)
		}
	}
}

func TestAddPolygonWithHole(t *testing.T) {
	b := NewMeshBuilderWithBoundingBox(geo.NewBoundingBox(0, 0, 4, 4), elevation.Flat(0))
	p := square(t, 0, 0, 4, 4)
	err := p.AddHole([]vec.Vec2{{X: 1, Y: 1}, {X: 3, Y: 1}, {X: 3, Y: 3}, {X: 1, Y: 3}, {X: 1, Y: 1}})
	if err != nil {
		t.Fatalf("AddHole failed: %v", err)
	}

	mesh := NewMesh("courtyard")
	if err := b.AddPolygon(mesh, p, DefaultGeometryOptions(), AppearanceOptions{}); err != nil {
		t.Fatalf("AddPolygon failed: %v", err)
	}
	if mesh.VertexCount() != 8 {
		t.Errorf("expected 8 vertices, got %d", mesh.VertexCount())
	}
	if mesh.TriangleCount() != 8 {
		t.Errorf("expected 8 triangles, got %d", mesh.TriangleCount())
	}
}

func TestAddPolygonTexture(t *testing.T) {
	b := NewMeshBuilderWithBoundingBox(geo.NewBoundingBox(0, 0, 1, 1), elevation.Flat(0))
	mesh := NewMesh("textured")

	app := AppearanceOptions{
		TextureRegion: TextureRegion{AtlasWidth: 100, AtlasHeight: 100, X: 10, Y: 20, Width: 50, Height: 40},
		TextureScale:  1,
	}
	if err := b.AddPolygon(mesh, square(t, 0, 0, 1, 1), DefaultGeometryOptions(), app); err != nil {
		t.Fatalf("AddPolygon failed: %v", err)
	}

	for i, ni := 0, mesh.VertexCount(); i < ni; i++ {
		x, y := mesh.Vertices[3*i], mesh.Vertices[3*i+1]
		wantU := 0.1 + 0.5*x
		wantV := 0.2 + 0.4*y
		if math.Abs(mesh.UVs[2*i]-wantU) > 1e-12 || math.Abs(mesh.UVs[2*i+1]-wantV) > 1e-12 {
			t.Errorf("vertex (%v,%v): uv (%v,%v), want (%v,%v)", x, y, mesh.UVs[2*i], mesh.UVs[2*i+1], wantU, wantV)
		}
	}
}

func TestAddPolygonErrors(t *testing.T) {
	b := NewMeshBuilderWithBoundingBox(geo.NewBoundingBox(0, 0, 1, 1), elevation.Flat(0))
	mesh := NewMesh("broken")

	bad := &Polygon{Points: []float64{0, 0, 1, 1}, Segments: []int{0, 1}}
	err := b.AddPolygon(mesh, bad, DefaultGeometryOptions(), AppearanceOptions{})
	if !errors.Is(err, ErrGeometry) {
		t.Errorf("expected ErrGeometry, got %v", err)
	}
	if !errors.Is(err, triangle.ErrTooFewPoints) {
		t.Errorf("expected ErrTooFewPoints cause, got %v", err)
	}

	if err := b.AddPolygon(mesh, nil, DefaultGeometryOptions(), AppearanceOptions{}); !errors.Is(err, ErrGeometry) {
		t.Errorf("expected ErrGeometry for nil polygon, got %v", err)
	}

	if mesh.VertexCount() != 0 || len(mesh.Triangles) != 0 {
		t.Error("expected mesh to stay empty after failures")
	}
}

// failingRefiner passes the first pass through and fails refinement.
type failingRefiner struct {
	inner *triangle.Triangulator
	calls int
}

var errRefine = errors.New("refinement failed")

func (f *failingRefiner) Triangulate(sw triangle.Switches, in *triangle.Input) (*triangle.Output, error) {
	f.calls++
	if sw.Refine {
		if len(in.TriangleAreas) != len(in.Triangles)/3 {
			return nil, errors.New("area per triangle expected")
		}
		return nil, errRefine
	}
	return f.inner.Triangulate(sw, in)
}

func TestAddPolygonRefinementFailure(t *testing.T) {
	tri := &failingRefiner{inner: triangle.New()}
	b := NewMeshBuilderWithBoundingBox(geo.NewBoundingBox(0, 0, 1, 1), elevation.Flat(0), WithTriangulator(tri))
	mesh := NewMesh("refine")

	geom := DefaultGeometryOptions()
	geom.Area = 0.1
	geom.SegmentSplit = 2
	err := b.AddPolygon(mesh, square(t, 0, 0, 1, 1), geom, AppearanceOptions{})
	if !errors.Is(err, ErrGeometry) || !errors.Is(err, errRefine) {
		t.Errorf("expected wrapped refinement error, got %v", err)
	}
	if tri.calls != 2 {
		t.Errorf("expected 2 triangulation passes, got %d", tri.calls)
	}
	if mesh.VertexCount() != 0 {
		t.Error("expected mesh to stay empty")
	}
}

func TestRefinementSwitches(t *testing.T) {
	tests := []struct {
		split int
		want  string
	}{
		{0, "prqazPQ"},
		{1, "prqazPQY"},
		{2, "prqazPQYY"},
		{-1, "prqazPQ"},
	}
	for _, tt := range tests {
		if got := refinement(tt.split).String(); got != tt.want {
			t.Errorf("refinement(%d) = %q, want %q", tt.split, got, tt.want)
		}
	}
	if got := unrefined.String(); got != "pzBQ" {
		t.Errorf("unrefined = %q, want pzBQ", got)
	}
}

func TestAddPlane(t *testing.T) {
	b := NewMeshBuilderWithBoundingBox(geo.NewBoundingBox(0, 0, 1, 1), elevation.Flat(2))
	mesh := NewMesh("wall")

	geom := DefaultGeometryOptions()
	geom.HeightOffset = 4
	app := AppearanceOptions{Gradient: testGradient(t), ColorNoiseFreq: 3.3}
	p1 := vec.Vec2{X: 0.1, Y: 0.2}
	p2 := vec.Vec2{X: 0.4, Y: 0.25}
	b.AddPlane(mesh, p1, p2, geom, app)

	if err := mesh.Validate(); err != nil {
		t.Fatalf("invalid mesh: %v", err)
	}
	if mesh.VertexCount() != 6 || mesh.TriangleCount() != 2 {
		t.Fatalf("expected 6 vertices and 2 triangles, got %d and %d", mesh.VertexCount(), mesh.TriangleCount())
	}

	wantVertices := []float64{
		0.1, 0.2, 2,
		0.4, 0.25, 2,
		0.4, 0.25, 6,
		0.1, 0.2, 6,
		0.1, 0.2, 2,
		0.4, 0.25, 6,
	}
	for i, want := range wantVertices {
		if mesh.Vertices[i] != want {
			t.Errorf("Vertices[%d] = %v, want %v", i, mesh.Vertices[i], want)
		}
	}

	wantTriangles := []int{0, 2, 1, 3, 5, 4}
	for i, want := range wantTriangles {
		if mesh.Triangles[i] != want {
			t.Errorf("Triangles[%d] = %d, want %d", i, mesh.Triangles[i], want)
		}
	}

	for i := 1; i < 6; i++ {
		if mesh.Colors[i] != mesh.Colors[0] {
			t.Errorf("vertex %d colour %08x differs from %08x", i, mesh.Colors[i], mesh.Colors[0])
		}
	}
}

func TestAddPlaneWithElevationAppends(t *testing.T) {
	b := NewMeshBuilderWithBoundingBox(geo.NewBoundingBox(0, 0, 1, 1), nil)
	mesh := NewMesh("walls")

	geom := DefaultGeometryOptions()
	geom.HeightOffset = 1
	for i, ni := 0, 3; i < ni; i++ {
		x := float64(i) / 4
		b.AddPlaneWithElevation(mesh, vec.Vec2{X: x}, vec.Vec2{X: x + 0.25}, 10, 12, geom, AppearanceOptions{})
	}

	if mesh.VertexCount() != 18 || mesh.TriangleCount() != 6 {
		t.Fatalf("expected 18 vertices and 6 triangles, got %d and %d", mesh.VertexCount(), mesh.TriangleCount())
	}
	if err := mesh.Validate(); err != nil {
		t.Fatalf("invalid mesh: %v", err)
	}
	// The third wall references only its own records.
	for _, idx := range mesh.Triangles[12:] {
		if idx < 12 {
			t.Errorf("third wall references vertex %d", idx)
		}
	}
	if top := mesh.Vertices[3*2+2]; top != 13 {
		t.Errorf("expected top of p2 at 13, got %v", top)
	}
}

func TestColorNoiseOverflow(t *testing.T) {
	b := NewMeshBuilderWithBoundingBox(geo.NewBoundingBox(0, 0, 5, 5), elevation.Flat(0))
	mesh := NewMesh("overflow")
	gradient := testGradient(t)
	app := AppearanceOptions{Gradient: gradient, ColorNoiseFreq: 1e308}

	// 3e308 overflows: the noise is zero and the colour sits mid gradient.
	b.AddPlane(mesh, vec.Vec2{X: 3, Y: 4}, vec.Vec2{X: 4, Y: 4}, DefaultGeometryOptions(), app)
	if err := b.AddPolygon(mesh, square(t, 2, 2, 3, 3), DefaultGeometryOptions(), app); err != nil {
		t.Fatalf("AddPolygon failed: %v", err)
	}
	if err := mesh.Validate(); err != nil {
		t.Fatalf("invalid mesh: %v", err)
	}
	want := gradient.Evaluate(0.5)
	for i, ni := 0, 6; i < ni; i++ {
		if mesh.Colors[i] != want {
			t.Errorf("wall vertex %d colour %08x, want %08x", i, mesh.Colors[i], want)
		}
	}
}

func TestAddTriangle(t *testing.T) {
	b := NewMeshBuilderWithBoundingBox(geo.NewBoundingBox(0, 0, 1, 1), elevation.Flat(0))
	v0 := vec.Vec3{X: 0, Y: 5, Z: 0}
	v1 := vec.Vec3{X: 1, Y: 6, Z: 0}
	v2 := vec.Vec3{X: 0, Y: 7, Z: 1}

	t.Run("single side", func(t *testing.T) {
		mesh := NewMesh("single")
		b.AddTriangle(mesh, v0, v1, v2, DefaultGeometryOptions(), AppearanceOptions{})

		if mesh.VertexCount() != 3 || mesh.TriangleCount() != 1 {
			t.Fatalf("expected 3 vertices and 1 triangle, got %d and %d", mesh.VertexCount(), mesh.TriangleCount())
		}
		// Records are laid out as (x, z, y).
		want := []float64{0, 0, 5, 1, 0, 6, 0, 1, 7}
		for i, w := range want {
			if mesh.Vertices[i] != w {
				t.Errorf("Vertices[%d] = %v, want %v", i, mesh.Vertices[i], w)
			}
		}
	})

	t.Run("back side", func(t *testing.T) {
		mesh := NewMesh("double")
		mesh.appendVertex(9, 9, 9, 0, 0, 0)
		geom := DefaultGeometryOptions()
		geom.HasBackSide = true
		b.AddTriangle(mesh, v0, v1, v2, geom, AppearanceOptions{Gradient: testGradient(t)})

		if mesh.VertexCount() != 7 || mesh.TriangleCount() != 2 {
			t.Fatalf("expected 7 vertices and 2 triangles, got %d and %d", mesh.VertexCount(), mesh.TriangleCount())
		}
		if want := []int{1, 2, 3, 4, 5, 6}; !equalInts(mesh.Triangles, want) {
			t.Errorf("Triangles = %v, want %v", mesh.Triangles, want)
		}
		if a, back := signedArea(mesh, 0), signedArea(mesh, 1); a*back >= 0 {
			t.Errorf("expected opposite winding, got areas %v and %v", a, back)
		}
		// Back face starts with v2.
		if mesh.Vertices[3*4+2] != 7 {
			t.Errorf("expected back face to start at v2, got elevation %v", mesh.Vertices[3*4+2])
		}
	})
}

func TestBuilderConcurrentMeshes(t *testing.T) {
	grad, err := colors.NewGradient(
		colors.Stop{Position: 0, Color: colorful.Color{R: 0, G: 0.5, B: 0}, Alpha: 1},
		colors.Stop{Position: 1, Color: colorful.Color{R: 0.5, G: 0.5, B: 0.5}, Alpha: 1},
	)
	if err != nil {
		t.Fatalf("NewGradient failed: %v", err)
	}
	b := NewMeshBuilder(geo.QuadKey{TileX: 1, TileY: 1, LevelOfDetail: 1}, elevation.Flat(1))
	center := b.BoundingBox().Center()

	var wg sync.WaitGroup
	meshes := make([]*Mesh, 8)
	for i := range meshes {
		p := square(t, center.Longitude-10, center.Latitude-10, center.Longitude+10, center.Latitude+10)
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m := NewMesh("tile")
			geom := DefaultGeometryOptions()
			geom.Area = 10
			if err := b.AddPolygon(m, p, geom, AppearanceOptions{Gradient: grad, ColorNoiseFreq: 0.1}); err != nil {
				t.Errorf("AddPolygon failed: %v", err)
			}
			meshes[i] = m
		}(i)
	}
	wg.Wait()

	for i, m := range meshes[1:] {
		if m == nil || meshes[0] == nil {
			continue
		}
		if m.VertexCount() != meshes[0].VertexCount() || !equalInts(m.Triangles, meshes[0].Triangles) {
			t.Errorf("mesh %d differs from mesh 0", i+1)
		}
	}
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
