package features

import (
	"fmt"

	"github.com/Faultbox/terramesh/internal/elevation"
	"github.com/Faultbox/terramesh/internal/meshing"
	"github.com/Faultbox/terramesh/pkg/math"
)

// tileMesh is the per tile state shared by the builders.
type tileMesh struct {
	mb       *meshing.MeshBuilder
	mesh     *meshing.Mesh
	provider elevation.Provider
}

func (t *tileMesh) build(f *Feature, s *Style) error {
	switch s.Builder {
	case BuildArea:
		return t.buildArea(f, s)
	case BuildBuilding:
		return t.buildBuilding(f, s)
	case BuildBarrier:
		t.buildBarrier(f, s)
		return nil
	}
	return fmt.Errorf("%w: builder %s", ErrInvalidStyle, s.Builder)
}

// buildArea fills every polygon of the feature on the ground.
func (t *tileMesh) buildArea(f *Feature, s *Style) error {
	for i, a := range f.Areas {
		poly, err := toPolygon(a)
		if err != nil {
			return fmt.Errorf("area %d: %w", i, err)
		}
		if err := t.mb.AddPolygon(t.mesh, poly, s.Geometry, s.Appearance); err != nil {
			return fmt.Errorf("area %d: %w", i, err)
		}
	}
	return nil
}

// buildBuilding extrudes every polygon: walls rise HeightOffset above the
// lowest ground point of the outline and a flat roof closes them.
func (t *tileMesh) buildBuilding(f *Feature, s *Style) error {
	for i, a := range f.Areas {
		outer := ccw(math.OpenRing(a.Outer))
		if len(outer) < 3 {
			continue
		}

		base := s.Geometry.Elevation
		if !s.Geometry.HasElevation() {
			base = t.lowestGround(outer)
		}
		height := s.Geometry.HeightOffset

		roof := s.Geometry
		roof.Elevation = base
		roof.HeightOffset = height
		roof.EleNoiseFreq = 0
		poly, err := toPolygon(a)
		if err != nil {
			return fmt.Errorf("building %d: %w", i, err)
		}
		if err := t.mb.AddPolygon(t.mesh, poly, roof, s.Appearance); err != nil {
			return fmt.Errorf("building %d roof: %w", i, err)
		}

		wall := meshing.DefaultGeometryOptions()
		wall.HeightOffset = height
		t.walls(outer, base, wall, s.Appearance)
		for _, h := range a.Holes {
			// Courtyard walls face into the hole.
			t.walls(reverse(ccw(math.OpenRing(h))), base, wall, s.Appearance)
		}
	}
	return nil
}

func (t *tileMesh) walls(ring []math.Vec2, base float64, geom meshing.GeometryOptions, app meshing.AppearanceOptions) {
	for i := range ring {
		p1, p2 := ring[i], ring[(i+1)%len(ring)]
		t.mb.AddPlaneWithElevation(t.mesh, p1, p2, base, base, geom, app)
	}
}

// buildBarrier stands walls on the ground along lines and area outlines.
func (t *tileMesh) buildBarrier(f *Feature, s *Style) {
	segment := func(p1, p2 math.Vec2) {
		t.mb.AddPlane(t.mesh, p1, p2, s.Geometry, s.Appearance)
		if s.Geometry.HasBackSide {
			t.mb.AddPlane(t.mesh, p2, p1, s.Geometry, s.Appearance)
		}
	}
	for _, l := range f.Lines {
		for i := 0; i+1 < len(l); i++ {
			segment(l[i], l[i+1])
		}
	}
	for _, a := range f.Areas {
		ring := ccw(math.OpenRing(a.Outer))
		if len(ring) < 2 {
			continue
		}
		for i := range ring {
			segment(ring[i], ring[(i+1)%len(ring)])
		}
	}
}

func (t *tileMesh) lowestGround(ring []math.Vec2) float64 {
	lowest := t.provider.Elevation(ring[0].Y, ring[0].X)
	for _, p := range ring[1:] {
		lowest = min(lowest, t.provider.Elevation(p.Y, p.X))
	}
	return lowest
}

func toPolygon(a Area) (*meshing.Polygon, error) {
	points := len(a.Outer)
	for _, h := range a.Holes {
		points += len(h)
	}
	poly := meshing.NewPolygon(points, len(a.Holes))
	if err := poly.AddContour(a.Outer); err != nil {
		return nil, err
	}
	for _, h := range a.Holes {
		if err := poly.AddHole(h); err != nil {
			return nil, err
		}
	}
	return poly, nil
}

// ccw returns ring in counter-clockwise order, copying when it reverses.
func ccw(ring []math.Vec2) []math.Vec2 {
	if math.SignedArea(ring) < 0 {
		return reverse(ring)
	}
	return ring
}

func reverse(ring []math.Vec2) []math.Vec2 {
	out := make([]math.Vec2, len(ring))
	for i, p := range ring {
		out[len(ring)-1-i] = p
	}
	return out
}
