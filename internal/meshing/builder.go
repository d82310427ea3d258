package meshing

import (
	"errors"
	"fmt"
	stdmath "math"

	"go.uber.org/zap"

	"github.com/Faultbox/terramesh/internal/elevation"
	"github.com/Faultbox/terramesh/internal/triangle"
	"github.com/Faultbox/terramesh/pkg/colors"
	"github.com/Faultbox/terramesh/pkg/geo"
	"github.com/Faultbox/terramesh/pkg/math"
	"github.com/Faultbox/terramesh/pkg/noise"
)

// ErrGeometry marks a polygon the triangulator could not process. The tile
// being built should be abandoned.
var ErrGeometry = errors.New("unrecoverable geometry")

// Triangulator runs one triangulation pass.
type Triangulator interface {
	Triangulate(sw triangle.Switches, in *triangle.Input) (*triangle.Output, error)
}

// unrefined preserves the input segments and adds no Steiner points.
var unrefined = triangle.Switches{
	PSLG:              true,
	ZeroIndexed:       true,
	NoBoundaryMarkers: true,
	Quiet:             true,
}

func refinement(segmentSplit int) triangle.Switches {
	return triangle.Switches{
		PSLG:             true,
		Refine:           true,
		Quality:          true,
		AreaConstraint:   true,
		ZeroIndexed:      true,
		NoOutputSegments: true,
		Quiet:            true,
		SplitSuppression: max(segmentSplit, 0),
	}
}

// MeshBuilder appends polygons, walls and triangles of one tile to a Mesh.
// It is immutable after construction; a single builder may serve several
// goroutines as long as each one fills its own Mesh.
type MeshBuilder struct {
	bbox         geo.BoundingBox
	provider     elevation.Provider
	triangulator Triangulator
	noise        *noise.Generator
	log          *zap.Logger
}

// Option configures a MeshBuilder.
type Option func(*MeshBuilder)

// WithLogger sets the builder logger.
func WithLogger(log *zap.Logger) Option {
	return func(b *MeshBuilder) {
		if log != nil {
			b.log = log
		}
	}
}

// WithTriangulator replaces the default triangulator.
func WithTriangulator(t Triangulator) Option {
	return func(b *MeshBuilder) {
		if t != nil {
			b.triangulator = t
		}
	}
}

// WithNoise replaces the reference noise field.
func WithNoise(g *noise.Generator) Option {
	return func(b *MeshBuilder) {
		if g != nil {
			b.noise = g
		}
	}
}

// NewMeshBuilder creates a builder for the tile identified by qk.
func NewMeshBuilder(qk geo.QuadKey, provider elevation.Provider, opts ...Option) *MeshBuilder {
	return NewMeshBuilderWithBoundingBox(geo.QuadKeyToBoundingBox(qk), provider, opts...)
}

// NewMeshBuilderWithBoundingBox creates a builder for an explicit tile frame.
// A nil provider is treated as flat ground at zero.
func NewMeshBuilderWithBoundingBox(bbox geo.BoundingBox, provider elevation.Provider, opts ...Option) *MeshBuilder {
	if provider == nil {
		provider = elevation.Flat(0)
	}
	b := &MeshBuilder{
		bbox:     bbox,
		provider: provider,
		noise:    noise.Reference(),
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.triangulator == nil {
		b.triangulator = triangle.New(triangle.WithLogger(b.log))
	}
	return b
}

// BoundingBox returns the tile frame.
func (b *MeshBuilder) BoundingBox() geo.BoundingBox {
	return b.bbox
}

// AddPolygon triangulates polygon and appends the result to mesh. With a
// non zero geom.Area the triangulation is refined so that no triangle exceeds
// it. On error mesh is left untouched and the error wraps ErrGeometry.
func (b *MeshBuilder) AddPolygon(mesh *Mesh, polygon *Polygon, geom GeometryOptions, app AppearanceOptions) error {
	if polygon == nil {
		return fmt.Errorf("%w: nil polygon", ErrGeometry)
	}
	in := &triangle.Input{
		Points:   polygon.Points,
		Holes:    polygon.Holes,
		Segments: polygon.Segments,
	}

	mid, err := b.triangulator.Triangulate(unrefined, in)
	if err != nil {
		return fmt.Errorf("%w: triangulate polygon: %w", ErrGeometry, err)
	}
	defer mid.Release()

	// Do not refine when no area is set.
	if stdmath.Abs(geom.Area) < epsilon {
		b.fillMesh(mid, mesh, geom, app)
		return nil
	}

	areas := make([]float64, mid.TriangleCount())
	for i := range areas {
		areas[i] = geom.Area
	}

	sw := refinement(geom.SegmentSplit)
	out, err := b.triangulator.Triangulate(sw, &triangle.Input{
		Points:        mid.Points,
		Segments:      mid.Segments,
		PointMarkers:  mid.PointMarkers,
		Triangles:     mid.Triangles,
		Corners:       mid.Corners,
		TriangleAreas: areas,
	})
	if err != nil {
		return fmt.Errorf("%w: refine polygon (%s): %w", ErrGeometry, sw, err)
	}
	defer out.Release()

	b.log.Debug("polygon refined",
		zap.Int("points", mid.PointCount()),
		zap.Int("refined_points", out.PointCount()),
		zap.Int("triangles", out.TriangleCount()),
		zap.Float64("area", geom.Area))

	b.fillMesh(out, mesh, geom, app)
	return nil
}

// epsilon matches the smallest step from 1.0 of a float64.
const epsilon = 0x1p-52

// fillMesh appends the points and triangles of a triangulation pass.
func (b *MeshBuilder) fillMesh(tri *triangle.Output, mesh *Mesh, geom GeometryOptions, app AppearanceOptions) {
	start := mesh.VertexCount()
	mapper := newTextureMapper(b.bbox, app)

	mesh.ensureCapacity(tri.PointCount(), tri.TriangleCount())

	for i, ni := 0, tri.PointCount(); i < ni; i++ {
		x := tri.Points[2*i]
		y := tri.Points[2*i+1]

		ele := geom.HeightOffset
		if geom.HasElevation() {
			ele += geom.Elevation
		} else {
			ele += b.provider.Elevation(y, x)
		}

		// Boundary points stay on the exact elevation so neighbouring
		// geometry joins without seams.
		if tri.PointMarkers != nil && !tri.IsBoundary(i) {
			ele += b.noise.Perlin2D(x, y, geom.EleNoiseFreq)
		}

		u, v := mapper.uv(x, y)
		mesh.appendVertex(x, y, ele, b.color(app, x, y), u, v)
	}

	// Corner order (0,2,1) faces up, (0,1,2) faces down.
	second, third := 2, 1
	if geom.FlipSide {
		second, third = 1, 2
	}
	c := tri.Corners
	for k, nk := 0, tri.TriangleCount(); k < nk; k++ {
		t := tri.Triangles[k*c : k*c+c]
		mesh.appendTriangle(start+t[0], start+t[second], start+t[third])
	}
}

// AddPlane appends a wall from p1 to p2 standing on the provider elevation
// at both ends, perturbed by elevation noise.
func (b *MeshBuilder) AddPlane(mesh *Mesh, p1, p2 math.Vec2, geom GeometryOptions, app AppearanceOptions) {
	ele1 := b.provider.Elevation(p1.Y, p1.X) + b.noise.Perlin2D(p1.X, p1.Y, geom.EleNoiseFreq)
	ele2 := b.provider.Elevation(p2.Y, p2.X) + b.noise.Perlin2D(p2.X, p2.Y, geom.EleNoiseFreq)
	b.AddPlaneWithElevation(mesh, p1, p2, ele1, ele2, geom, app)
}

// AddPlaneWithElevation appends a wall from p1 at ele1 to p2 at ele2, rising
// by HeightOffset. The whole quad shares the colour sampled at p1.
func (b *MeshBuilder) AddPlaneWithElevation(mesh *Mesh, p1, p2 math.Vec2, ele1, ele2 float64, geom GeometryOptions, app AppearanceOptions) {
	color := b.color(app, p1.X, p1.Y)
	mapper := newTextureMapper(b.bbox, app)
	top1 := ele1 + geom.HeightOffset
	top2 := ele2 + geom.HeightOffset

	mesh.ensureCapacity(6, 2)
	add := func(p math.Vec2, ele float64) int {
		u, v := mapper.uv(p.X, p.Y)
		return mesh.appendVertex(p.X, p.Y, ele, color, u, v)
	}

	// Each face references its own records in (0,2,1) order.
	a := add(p1, ele1)
	c := add(p2, ele2)
	d := add(p2, top2)
	mesh.appendTriangle(a, d, c)

	e := add(p1, top1)
	f := add(p1, ele1)
	g := add(p2, top2)
	mesh.appendTriangle(e, g, f)
}

// AddTriangle appends a single triangle. Vertices are (x, elevation, z)
// with z on the planar y axis. With HasBackSide a reversed copy is
// appended right after it.
func (b *MeshBuilder) AddTriangle(mesh *Mesh, v0, v1, v2 math.Vec3, geom GeometryOptions, app AppearanceOptions) {
	ground := v0.XZ()
	color := b.color(app, ground.X, ground.Y)
	mapper := newTextureMapper(b.bbox, app)

	faces := 1
	if geom.HasBackSide {
		faces = 2
	}
	mesh.ensureCapacity(3*faces, faces)

	add := func(v math.Vec3) int {
		p := v.XZ()
		u, w := mapper.uv(p.X, p.Y)
		return mesh.appendVertex(p.X, p.Y, v.Y, color, u, w)
	}

	mesh.appendTriangle(add(v0), add(v1), add(v2))
	if geom.HasBackSide {
		mesh.appendTriangle(add(v2), add(v1), add(v0))
	}
}

// color samples the gradient at a noise perturbed position.
func (b *MeshBuilder) color(app AppearanceOptions, x, y float64) uint32 {
	if app.Gradient == nil {
		return colors.White
	}
	return app.Gradient.Evaluate((b.noise.Perlin2D(x, y, app.ColorNoiseFreq) + 1) / 2)
}
