package meshing

import (
	"errors"
	"fmt"
	"slices"

	"github.com/Faultbox/terramesh/pkg/math"
)

// ErrInvalidContour is returned for rings that cannot bound an area.
var ErrInvalidContour = errors.New("invalid contour")

// Polygon is the planar straight line graph handed to the triangulator:
// flat x,y point pairs, one interior point per hole, and constrained
// segments as point index pairs.
type Polygon struct {
	Points   []float64
	Holes    []float64
	Segments []int
}

// NewPolygon creates a polygon with room for the given number of points and holes.
func NewPolygon(points, holes int) *Polygon {
	return &Polygon{
		Points:   make([]float64, 0, points*2),
		Holes:    make([]float64, 0, holes*2),
		Segments: make([]int, 0, points*2),
	}
}

// PointCount returns the number of points.
func (p *Polygon) PointCount() int {
	return len(p.Points) / 2
}

// AddContour appends a closed ring and its closing segments. A repeated
// closing point is dropped.
func (p *Polygon) AddContour(ring []math.Vec2) error {
	ring = math.OpenRing(ring)
	if len(ring) < 3 {
		return fmt.Errorf("%w: %d distinct points", ErrInvalidContour, len(ring))
	}

	start := p.PointCount()
	for i, v := range ring {
		p.Points = append(p.Points, v.X, v.Y)
		p.Segments = append(p.Segments, start+i, start+(i+1)%len(ring))
	}
	return nil
}

// AddHole appends an inner ring and records a point strictly inside it so
// the triangulator can carve the hole region.
func (p *Polygon) AddHole(ring []math.Vec2) error {
	ring = math.OpenRing(ring)
	inside, ok := interiorPoint(ring)
	if !ok {
		return fmt.Errorf("%w: hole has no interior", ErrInvalidContour)
	}
	if err := p.AddContour(ring); err != nil {
		return err
	}
	p.Holes = append(p.Holes, inside.X, inside.Y)
	return nil
}

// interiorPoint finds a point strictly inside a simple ring: the midpoint of
// the widest span of a horizontal scanline through the middle of an edge.
func interiorPoint(ring []math.Vec2) (math.Vec2, bool) {
	if len(ring) < 3 {
		return math.Vec2{}, false
	}

	lo, hi := ring[0], ring[0]
	for _, v := range ring[1:] {
		lo, hi = lo.Min(v), hi.Max(v)
	}
	minY, maxY := lo.Y, hi.Y
	if minY == maxY {
		return math.Vec2{}, false
	}

	candidates := []float64{(minY + maxY) / 2}
	for _, v := range ring {
		if v.Y > minY && v.Y < maxY {
			candidates = append(candidates, (v.Y+minY)/2, (v.Y+maxY)/2)
		}
	}

	for _, y := range candidates {
		xs := scanline(ring, y)
		best, bestWidth := 0.0, 0.0
		for i := 0; i+1 < len(xs); i += 2 {
			if w := xs[i+1] - xs[i]; w > bestWidth {
				best, bestWidth = (xs[i]+xs[i+1])/2, w
			}
		}
		if bestWidth > 0 {
			return math.Vec2{X: best, Y: y}, true
		}
	}
	return math.Vec2{}, false
}

// scanline returns the sorted x coordinates where the line at y crosses the ring.
func scanline(ring []math.Vec2, y float64) []float64 {
	var xs []float64
	for i := range ring {
		a, b := ring[i], ring[(i+1)%len(ring)]
		if (a.Y > y) == (b.Y > y) {
			continue
		}
		xs = append(xs, a.Lerp(b, (y-a.Y)/(b.Y-a.Y)).X)
	}
	slices.Sort(xs)
	return xs
}
