package triangle

import (
	"fmt"
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r2"
)

type edgeRef struct {
	t, i int
}

func edgeKey(a, b int) [2]int {
	if a > b {
		a, b = b, a
	}
	return [2]int{a, b}
}

func (tr *Triangulator) refine(sw Switches, in *Input) (*Output, error) {
	pts, err := readPoints(in.Points)
	if err != nil {
		return nil, err
	}
	corners := in.Corners
	if corners == 0 {
		corners = 3
	}
	if corners < 3 {
		return nil, fmt.Errorf("%w: %d corners per triangle", ErrDegenerateInput, corners)
	}
	count := len(in.Triangles) / corners
	if count == 0 {
		return nil, ErrNoTriangles
	}

	m := &mesh{
		pts:  pts,
		tris: make([]tri, 0, 4*count),
	}
	edges := make(map[[2]int]edgeRef, 3*count)
	for k := 0; k < count; k++ {
		v := [3]int{in.Triangles[k*corners], in.Triangles[k*corners+1], in.Triangles[k*corners+2]}
		for _, idx := range v {
			if idx < 0 || idx >= len(pts) {
				return nil, fmt.Errorf("%w: triangle %d references missing point %d", ErrDegenerateInput, k, idx)
			}
		}
		switch orientSign(pts[v[0]], pts[v[1]], pts[v[2]]) {
		case 0:
			return nil, fmt.Errorf("%w: triangle %d is flat", ErrDegenerateInput, k)
		case -1:
			v[1], v[2] = v[2], v[1]
		}

		var bound float64
		if sw.AreaConstraint {
			if k < len(in.TriangleAreas) && in.TriangleAreas[k] > 0 {
				bound = in.TriangleAreas[k]
			}
			bound = minBound(bound, sw.MaxArea)
		}

		t := m.addTri(tri{v: v, n: [3]int{-1, -1, -1}, bound: bound})
		for i := 0; i < 3; i++ {
			a, b := m.edge(t, i)
			key := edgeKey(a, b)
			if ref, ok := edges[key]; ok {
				m.tris[t].n[i] = ref.t
				m.tris[ref.t].n[ref.i] = t
				continue
			}
			edges[key] = edgeRef{t, i}
		}
	}

	for s := 0; s+1 < len(in.Segments); s += 2 {
		ref, ok := edges[edgeKey(in.Segments[s], in.Segments[s+1])]
		if !ok {
			if !sw.Quiet {
				tr.log.Warn("segment is not an edge of the mesh",
					zap.Int("from", in.Segments[s]), zap.Int("to", in.Segments[s+1]))
			}
			continue
		}
		m.setConstrained(ref.t, ref.i)
	}

	inputPoints := len(m.pts)
	if sw.Quality {
		m.ratio = qualityRatio(sw.MinAngle)
	}
	if err := tr.refineMesh(m, sw); err != nil {
		return nil, err
	}

	out := acquireOutput()
	m.write(out, len(m.pts), sw)

	tr.log.Debug("refined",
		zap.String("switches", sw.String()),
		zap.Int("points", out.PointCount()),
		zap.Int("steiner", len(m.pts)-inputPoints),
		zap.Int("triangles", out.TriangleCount()))
	return out, nil
}

// DefaultMinAngle is the smallest angle the q switch enforces when it
// carries no value.
const DefaultMinAngle = 20.0

// maxMinAngle caps q; larger bounds need not terminate.
const maxMinAngle = 34.0

// qualityRatio converts a minimum angle in degrees to the largest allowed
// ratio of circumradius to shortest edge.
func qualityRatio(minAngle float64) float64 {
	if minAngle <= 0 {
		minAngle = DefaultMinAngle
	}
	minAngle = min(minAngle, maxMinAngle)
	return 1 / (2 * math.Sin(minAngle*math.Pi/180))
}

// refineMesh inserts Steiner points until no live triangle exceeds its area
// bound and, with Quality, no triangle is skinnier than the ratio bound and
// no segment is encroached. Area splits fail past the Steiner limit; quality
// work past its own budget is abandoned and leaves the triangle as it is.
func (tr *Triangulator) refineMesh(m *mesh, sw Switches) error {
	if !sw.AreaConstraint && !sw.Quality {
		return nil
	}
	qualityLimit := min(tr.steinerLimit, max(4096, 64*len(m.pts)))

	var segs [][2]int
	var queue []int
	enqueue := func(ts []int) {
		for _, t := range ts {
			if m.tooLarge(t) || m.skinny(t) {
				queue = append(queue, t)
			}
			if sw.Quality {
				for i := 0; i < 3; i++ {
					if m.encroached(t, i) && m.canSplit(t, i, sw) {
						a, b := m.edge(t, i)
						segs = append(segs, [2]int{a, b})
					}
				}
			}
		}
	}
	all := make([]int, len(m.tris))
	for t := range all {
		all[t] = t
	}
	enqueue(all)

	inserted := 0
	for len(segs) > 0 || len(queue) > 0 {
		m.touched = m.touched[:0]

		if len(segs) > 0 {
			s := segs[len(segs)-1]
			segs = segs[:len(segs)-1]
			if inserted >= qualityLimit {
				continue
			}
			t, i, ok := m.findEdge(s[0], s[1])
			if !ok || !m.encroached(t, i) || !m.canSplit(t, i, sw) {
				continue
			}
			if err := m.splitSegment(t, i); err != nil {
				continue
			}
			inserted++
			enqueue(m.touched)
			continue
		}

		t := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		large := m.tooLarge(t)
		if !large && !m.skinny(t) {
			continue
		}
		if large && inserted >= tr.steinerLimit {
			return fmt.Errorf("%w: %d points", ErrRefinementLimit, inserted)
		}
		if !large && inserted >= qualityLimit {
			continue
		}

		ok, err := m.splitLarge(t, sw, large)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		inserted++
		enqueue(m.touched)
	}
	return nil
}

func (m *mesh) tooLarge(t int) bool {
	tr := &m.tris[t]
	return !tr.dead && tr.bound > 0 && m.area(t) > tr.bound
}

// skinny reports whether the circumradius of t exceeds ratio times its
// shortest edge.
func (m *mesh) skinny(t int) bool {
	tr := &m.tris[t]
	if tr.dead || m.ratio == 0 {
		return false
	}
	a, b, c := m.pts[tr.v[0]], m.pts[tr.v[1]], m.pts[tr.v[2]]
	ab, bc, ca := r2.Norm2(r2.Sub(b, a)), r2.Norm2(r2.Sub(c, b)), r2.Norm2(r2.Sub(a, c))
	area2 := orient(a, b, c)
	if area2 <= 0 {
		return false
	}
	// R = |ab||bc||ca| / (2 * area2), compared squared.
	r2sq := ab * bc * ca / (area2 * area2 * 4)
	return r2sq > m.ratio*m.ratio*min(ab, bc, ca)
}

// encroached reports whether wall edge i of t has the apex of t, or of the
// live triangle across it, inside its diametral circle.
func (m *mesh) encroached(t, i int) bool {
	tr := &m.tris[t]
	if tr.dead || !m.isWall(t, i) {
		return false
	}
	a, b := m.edge(t, i)
	if inDiametralCircle(m.pts[a], m.pts[b], m.pts[tr.v[i]]) {
		return true
	}
	u := tr.n[i]
	if u < 0 || m.tris[u].dead {
		return false
	}
	j := m.neighborIndex(u, t)
	return j >= 0 && inDiametralCircle(m.pts[a], m.pts[b], m.pts[m.tris[u].v[j]])
}

// splitLarge adds one Steiner point for triangle t and reports whether it
// did. With Quality the point is t's circumcentre unless it would encroach
// a segment, which is then split at its midpoint when allowed. When neither
// works a triangle over its area bound (mustSplit) takes its centroid, which
// always lies inside it; a triangle that is only skinny is left alone.
func (m *mesh) splitLarge(t int, sw Switches, mustSplit bool) (bool, error) {
	tr := m.tris[t]
	a, b, c := m.pts[tr.v[0]], m.pts[tr.v[1]], m.pts[tr.v[2]]
	fallback := func() (bool, error) {
		if !mustSplit {
			return false, nil
		}
		return true, m.insertPoint(t, -1, centroid(a, b, c))
	}
	if !sw.Quality {
		return fallback()
	}

	target, ok := circumcenter(a, b, c)
	if !ok {
		return fallback()
	}

	dest, onEdge, blockT, blockI := m.walk(t, target)
	if blockT >= 0 {
		if m.canSplit(blockT, blockI, sw) {
			return true, m.splitSegment(blockT, blockI)
		}
		return fallback()
	}
	if dest < 0 {
		return fallback()
	}

	if wt, wi, ok := m.encroachedBy(dest, target); ok {
		if m.canSplit(wt, wi, sw) {
			return true, m.splitSegment(wt, wi)
		}
		return fallback()
	}
	if m.nearVertex(dest, target) {
		return fallback()
	}
	return true, m.insertPoint(dest, onEdge, target)
}

// encroachedBy collects the cavity target would open, the triangles
// reachable from dest whose circumcircle holds target, and returns a wall
// on it whose diametral circle holds target.
func (m *mesh) encroachedBy(dest int, target r2.Vec) (int, int, bool) {
	seen := map[int]bool{dest: true}
	stack := []int{dest}
	for len(stack) > 0 {
		t := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		tr := &m.tris[t]
		for i := 0; i < 3; i++ {
			if m.isWall(t, i) {
				a, b := m.edge(t, i)
				if inDiametralCircle(m.pts[a], m.pts[b], target) {
					return t, i, true
				}
				continue
			}
			u := tr.n[i]
			if seen[u] {
				continue
			}
			ur := &m.tris[u]
			if inCircle(m.pts[ur.v[0]], m.pts[ur.v[1]], m.pts[ur.v[2]], target) > 0 {
				seen[u] = true
				stack = append(stack, u)
			}
		}
	}
	return -1, -1, false
}

func (m *mesh) insertPoint(t, e int, p r2.Vec) error {
	if m.nearVertex(t, p) {
		return fmt.Errorf("%w: Steiner point collapses onto a vertex", ErrRefinementLimit)
	}
	idx := m.addPoint(p)
	m.insert(t, e, idx)
	return nil
}

// splitSegment inserts the midpoint of wall edge i of t.
func (m *mesh) splitSegment(t, i int) error {
	a, b := m.edge(t, i)
	mid := midpoint(m.pts[a], m.pts[b])
	if mid == m.pts[a] || mid == m.pts[b] {
		return fmt.Errorf("%w: segment too short to split", ErrRefinementLimit)
	}
	idx := m.addPoint(mid)
	m.splitEdge(t, i, idx)
	return nil
}

// canSplit applies the Y switch: one keeps boundary segments whole, two
// keep every segment whole. Ordinary edges can always be split.
func (m *mesh) canSplit(t, i int, sw Switches) bool {
	tr := &m.tris[t]
	boundary := tr.n[i] < 0 || m.tris[tr.n[i]].dead
	if !boundary && !tr.c[i] {
		return true
	}
	switch {
	case sw.SplitSuppression >= 2:
		return false
	case sw.SplitSuppression == 1 && boundary:
		return false
	default:
		return true
	}
}

// nearVertex reports whether p is within rounding distance of a vertex of t.
func (m *mesh) nearVertex(t int, p r2.Vec) bool {
	tr := &m.tris[t]
	var scale float64
	for i := 0; i < 3; i++ {
		a, b := m.edge(t, i)
		scale = max(scale, r2.Norm(r2.Sub(m.pts[a], m.pts[b])))
	}
	tol := 1e-9 * scale
	for _, v := range tr.v {
		if r2.Norm(r2.Sub(m.pts[v], p)) <= tol {
			return true
		}
	}
	return false
}

// walk follows the straight line from the centroid of t to target. It
// returns the triangle containing target and the edge target lies on, or
// the wall edge (blockT, blockI) the line would have to cross.
func (m *mesh) walk(t int, target r2.Vec) (dest, onEdge, blockT, blockI int) {
	tr := &m.tris[t]
	start := centroid(m.pts[tr.v[0]], m.pts[tr.v[1]], m.pts[tr.v[2]])

	cur := t
	limit := 4*len(m.tris) + 16
	for step := 0; step < limit; step++ {
		ct := &m.tris[cur]
		exit, fallback, on := -1, -1, -1
		for i := 0; i < 3; i++ {
			a, b := m.pts[ct.v[next(i)]], m.pts[ct.v[prev(i)]]
			switch orientSign(a, b, target) {
			case -1:
				if intersects(start, target, a, b) {
					if exit < 0 {
						exit = i
					}
				} else if fallback < 0 {
					fallback = i
				}
			case 0:
				on = i
			}
		}
		if exit < 0 {
			exit = fallback
		}
		if exit < 0 {
			return cur, on, -1, -1
		}
		if m.isWall(cur, exit) {
			return -1, -1, cur, exit
		}
		cur = ct.n[exit]
	}
	return -1, -1, -1, -1
}
