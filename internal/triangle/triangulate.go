// Package triangle builds constrained Delaunay triangulations of planar
// straight line graphs and refines them under per triangle area bounds.
//
// The package mirrors the contract of Shewchuk's Triangle: callers describe
// a pass with a switch string, hand over flat coordinate and index buffers,
// and receive pooled output buffers that they release when done.
package triangle

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r2"
)

// Triangulation errors.
var (
	ErrTooFewPoints         = errors.New("triangulation needs at least three points")
	ErrDuplicatePoint       = errors.New("duplicate point")
	ErrDegenerateInput      = errors.New("degenerate triangulation input")
	ErrIntersectingSegments = errors.New("segments intersect")
	ErrSegmentThroughVertex = errors.New("segment passes through a vertex")
	ErrNoTriangles          = errors.New("triangulation produced no triangles")
	ErrRefinementLimit      = errors.New("refinement exceeded the Steiner point limit")
)

// DefaultSteinerLimit bounds the points a single refinement pass may add.
const DefaultSteinerLimit = 1 << 20

// Triangulator runs triangulation passes. It holds no per call state and is
// safe for concurrent use.
type Triangulator struct {
	log          *zap.Logger
	steinerLimit int
}

// Option configures a Triangulator.
type Option func(*Triangulator)

// WithLogger sets the logger used for pass statistics and warnings.
func WithLogger(log *zap.Logger) Option {
	return func(t *Triangulator) {
		if log != nil {
			t.log = log
		}
	}
}

// WithSteinerLimit caps the Steiner points added by one refinement pass.
func WithSteinerLimit(n int) Option {
	return func(t *Triangulator) {
		if n > 0 {
			t.steinerLimit = n
		}
	}
}

// New creates a Triangulator.
func New(opts ...Option) *Triangulator {
	t := &Triangulator{
		log:          zap.NewNop(),
		steinerLimit: DefaultSteinerLimit,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Triangulate runs one pass. Without Refine it triangulates in.Points and
// in.Segments, carving concavities and in.Holes when PSLG is set. With
// Refine it rebuilds in.Triangles and inserts Steiner points until every
// triangle satisfies its area bound.
func (tr *Triangulator) Triangulate(sw Switches, in *Input) (*Output, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: nil input", ErrDegenerateInput)
	}
	if sw.Refine {
		return tr.refine(sw, in)
	}
	return tr.triangulate(sw, in)
}

func (tr *Triangulator) triangulate(sw Switches, in *Input) (*Output, error) {
	pts, err := readPoints(in.Points)
	if err != nil {
		return nil, err
	}
	n := len(pts)
	if n < 3 {
		return nil, fmt.Errorf("%w: got %d", ErrTooFewPoints, n)
	}
	holes, err := readPoints(in.Holes)
	if err != nil {
		return nil, fmt.Errorf("holes: %w", err)
	}

	m := &mesh{
		pts:  make([]r2.Vec, 0, n+3),
		tris: make([]tri, 0, 2*n+8),
	}
	m.pts = append(m.pts, pts...)
	if err := m.addSuperTriangle(n); err != nil {
		return nil, err
	}

	for i := 0; i < n; i++ {
		t, e, ok := m.locate(m.pts[i], m.last)
		if !ok {
			return nil, fmt.Errorf("%w: point %d could not be located", ErrDegenerateInput, i)
		}
		if v := m.vertexAt(t, m.pts[i]); v >= 0 {
			return nil, fmt.Errorf("%w: points %d and %d", ErrDuplicatePoint, v, i)
		}
		m.insert(t, e, i)
	}
	if !m.hasRealTriangle(n) {
		return nil, fmt.Errorf("%w: all points are collinear", ErrDegenerateInput)
	}

	if len(in.Segments)%2 != 0 {
		return nil, fmt.Errorf("%w: odd segment index count %d", ErrDegenerateInput, len(in.Segments))
	}
	for s := 0; s < len(in.Segments); s += 2 {
		a, b := in.Segments[s], in.Segments[s+1]
		if a < 0 || b < 0 || a >= n || b >= n {
			return nil, fmt.Errorf("%w: segment %d references missing point", ErrDegenerateInput, s/2)
		}
		if a == b {
			return nil, fmt.Errorf("%w: segment %d has equal endpoints", ErrDegenerateInput, s/2)
		}
		if err := m.insertSegment(a, b); err != nil {
			return nil, fmt.Errorf("segment %d (%d, %d): %w", s/2, a, b, err)
		}
	}

	if sw.PSLG {
		tr.carve(m, n, holes, sw.Quiet)
	} else {
		m.removeSuper(n)
	}

	out := acquireOutput()
	m.write(out, n, sw)
	if out.TriangleCount() == 0 {
		out.Release()
		return nil, ErrNoTriangles
	}

	tr.log.Debug("triangulated",
		zap.String("switches", sw.String()),
		zap.Int("points", out.PointCount()),
		zap.Int("segments", len(in.Segments)/2),
		zap.Int("holes", len(holes)),
		zap.Int("triangles", out.TriangleCount()))
	return out, nil
}

// addSuperTriangle appends three far away vertices enclosing the first n
// points and a single triangle over them.
func (m *mesh) addSuperTriangle(n int) error {
	minP, maxP := m.pts[0], m.pts[0]
	for _, p := range m.pts[:n] {
		minP.X = min(minP.X, p.X)
		minP.Y = min(minP.Y, p.Y)
		maxP.X = max(maxP.X, p.X)
		maxP.Y = max(maxP.Y, p.Y)
	}
	d := max(maxP.X-minP.X, maxP.Y-minP.Y)
	if d == 0 {
		return fmt.Errorf("%w: all points coincide", ErrDegenerateInput)
	}
	c := midpoint(minP, maxP)

	s0 := m.addPoint(r2.Vec{X: c.X - 20*d, Y: c.Y - 10*d})
	s1 := m.addPoint(r2.Vec{X: c.X + 20*d, Y: c.Y - 10*d})
	s2 := m.addPoint(r2.Vec{X: c.X, Y: c.Y + 20*d})
	m.addTri(tri{v: [3]int{s0, s1, s2}, n: [3]int{-1, -1, -1}})
	return nil
}

func (m *mesh) hasRealTriangle(n int) bool {
	for t := range m.tris {
		tr := &m.tris[t]
		if tr.dead || tr.v[0] >= n || tr.v[1] >= n || tr.v[2] >= n {
			continue
		}
		if m.area(t) > 0 {
			return true
		}
	}
	return false
}

// insertSegment forces edge ab into the triangulation by flipping every
// edge that crosses it, then restores the Delaunay property around it.
func (m *mesh) insertSegment(a, b int) error {
	if t, i, ok := m.findEdge(a, b); ok {
		m.setConstrained(t, i)
		return nil
	}

	crossing, err := m.crossings(a, b)
	if err != nil {
		return err
	}
	pa, pb := m.pts[a], m.pts[b]

	var created [][2]int
	limit := 8*len(crossing)*len(crossing) + 64
	for steps := 0; len(crossing) > 0; steps++ {
		if steps > limit {
			return fmt.Errorf("%w: could not recover segment", ErrDegenerateInput)
		}
		e := crossing[0]
		crossing = crossing[1:]
		t, i, ok := m.findEdge(e[0], e[1])
		if !ok {
			continue
		}
		if !m.canFlip(t, i) {
			crossing = append(crossing, e)
			continue
		}
		t2, _ := m.flip(t, i)
		d := [2]int{m.tris[t2].v[0], m.tris[t2].v[2]}
		if crossesProperly(pa, pb, m.pts[d[0]], m.pts[d[1]]) {
			crossing = append(crossing, d)
		} else {
			created = append(created, d)
		}
	}

	t, i, ok := m.findEdge(a, b)
	if !ok {
		return fmt.Errorf("%w: segment missing after recovery", ErrDegenerateInput)
	}
	m.setConstrained(t, i)

	// Swap the new edges back toward Delaunay; ab itself is now a wall.
	for changed, rounds := true, 0; changed && rounds < len(created)+8; rounds++ {
		changed = false
		for k, e := range created {
			t, i, ok := m.findEdge(e[0], e[1])
			if !ok || m.tris[t].c[i] || !m.illegal(t, i) || !m.canFlip(t, i) {
				continue
			}
			t2, _ := m.flip(t, i)
			created[k] = [2]int{m.tris[t2].v[0], m.tris[t2].v[2]}
			changed = true
		}
	}
	return nil
}

// crossings walks from a toward b through the triangles the segment
// passes and returns the edges it crosses, in order.
func (m *mesh) crossings(a, b int) ([][2]int, error) {
	pa, pb := m.pts[a], m.pts[b]

	t, e := -1, -1
	var err error
	m.around(a, func(u, k int) bool {
		p1, p2 := m.tris[u].v[next(k)], m.tris[u].v[prev(k)]
		for _, p := range [2]int{p1, p2} {
			if strictlyBetween(pa, pb, m.pts[p]) {
				err = fmt.Errorf("%w: vertex %d", ErrSegmentThroughVertex, p)
				return false
			}
		}
		if orientSign(pa, m.pts[p1], pb) > 0 && orientSign(pa, m.pts[p2], pb) < 0 {
			t, e = u, k
			return false
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	if t < 0 {
		return nil, fmt.Errorf("%w: no triangle at vertex %d faces vertex %d", ErrDegenerateInput, a, b)
	}

	var crossing [][2]int
	for iter, iterN := 0, len(m.tris); iter < iterN; iter++ {
		x, y := m.edge(t, e)
		if m.tris[t].c[e] {
			return nil, fmt.Errorf("%w: crosses segment (%d, %d)", ErrIntersectingSegments, x, y)
		}
		crossing = append(crossing, [2]int{x, y})

		u := m.tris[t].n[e]
		if u < 0 || m.tris[u].dead {
			return nil, fmt.Errorf("%w: segment leaves the triangulation", ErrDegenerateInput)
		}
		j := m.neighborIndex(u, t)
		if j < 0 {
			return nil, fmt.Errorf("%w: broken adjacency at triangle %d", ErrDegenerateInput, u)
		}
		q := m.tris[u].v[j]
		if q == b {
			return crossing, nil
		}

		left, right := x, y
		if orientSign(pa, pb, m.pts[x]) < 0 {
			left, right = y, x
		}
		switch orientSign(pa, pb, m.pts[q]) {
		case 0:
			return nil, fmt.Errorf("%w: vertex %d", ErrSegmentThroughVertex, q)
		case 1:
			// The segment leaves through (q, right).
			e = m.slotOf(u, left)
		default:
			e = m.slotOf(u, right)
		}
		t = u
	}
	return nil, fmt.Errorf("%w: segment walk did not reach vertex %d", ErrDegenerateInput, b)
}

// carve removes triangles outside the segment bounded region and inside
// holes: everything reachable from the enclosing triangle, or from a hole
// point, without crossing a segment.
func (tr *Triangulator) carve(m *mesh, n int, holes []r2.Vec, quiet bool) {
	var seeds []int
	for _, h := range holes {
		t, _, ok := m.locate(h, m.last)
		if !ok || m.touchesSuper(t, n) {
			if !quiet {
				tr.log.Warn("hole point outside triangulation", zap.Float64("x", h.X), zap.Float64("y", h.Y))
			}
			continue
		}
		seeds = append(seeds, t)
	}
	for t := range m.tris {
		if m.touchesSuper(t, n) {
			seeds = append(seeds, t)
		}
	}

	queue := make([]int, 0, len(seeds))
	for _, t := range seeds {
		if !m.tris[t].dead {
			m.tris[t].dead = true
			queue = append(queue, t)
		}
	}
	for len(queue) > 0 {
		t := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		cur := &m.tris[t]
		for i := 0; i < 3; i++ {
			u := cur.n[i]
			if u < 0 || cur.c[i] || m.tris[u].dead {
				continue
			}
			m.tris[u].dead = true
			queue = append(queue, u)
		}
	}
}

// removeSuper drops only the triangles that use an enclosing vertex,
// leaving the convex hull.
func (m *mesh) removeSuper(n int) {
	for t := range m.tris {
		if m.touchesSuper(t, n) {
			m.tris[t].dead = true
		}
	}
}

func (m *mesh) touchesSuper(t, n int) bool {
	v := m.tris[t].v
	return v[0] >= n || v[1] >= n || v[2] >= n
}

// write copies the first keep points and every live triangle into out.
func (m *mesh) write(out *Output, keep int, sw Switches) {
	out.Corners = 3
	for _, p := range m.pts[:keep] {
		out.Points = append(out.Points, p.X, p.Y)
	}
	for t := range m.tris {
		tr := &m.tris[t]
		if tr.dead {
			continue
		}
		out.Triangles = append(out.Triangles, tr.v[0], tr.v[1], tr.v[2])
	}

	if !sw.NoBoundaryMarkers {
		markers := out.PointMarkers[:0]
		for i := 0; i < keep; i++ {
			markers = append(markers, 0)
		}
		for t := range m.tris {
			if m.tris[t].dead {
				continue
			}
			for i := 0; i < 3; i++ {
				if m.isWall(t, i) {
					a, b := m.edge(t, i)
					markers[a] = 1
					markers[b] = 1
				}
			}
		}
		out.PointMarkers = markers
	} else {
		out.PointMarkers = nil
	}

	if !sw.NoOutputSegments {
		for t := range m.tris {
			tr := &m.tris[t]
			if tr.dead {
				continue
			}
			for i := 0; i < 3; i++ {
				if !tr.c[i] {
					continue
				}
				if u := tr.n[i]; u >= 0 && !m.tris[u].dead && u < t {
					continue
				}
				a, b := m.edge(t, i)
				out.Segments = append(out.Segments, a, b)
			}
		}
	}
}

func readPoints(flat []float64) ([]r2.Vec, error) {
	if len(flat)%2 != 0 {
		return nil, fmt.Errorf("%w: odd coordinate count %d", ErrDegenerateInput, len(flat))
	}
	pts := make([]r2.Vec, len(flat)/2)
	for i := range pts {
		x, y := flat[2*i], flat[2*i+1]
		if !finite(x) || !finite(y) {
			return nil, fmt.Errorf("%w: point %d is not finite", ErrDegenerateInput, i)
		}
		pts[i] = r2.Vec{X: x, Y: y}
	}
	return pts, nil
}
