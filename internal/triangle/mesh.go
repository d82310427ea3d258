package triangle

import (
	"gonum.org/v1/gonum/spatial/r2"
)

// tri is one triangle of the working mesh. Edge i is the edge opposite v[i],
// running from v[next(i)] to v[prev(i)]; n[i] is the neighbour across it and
// c[i] marks it as a constrained segment.
type tri struct {
	v     [3]int
	n     [3]int
	c     [3]bool
	bound float64 // area bound, zero when unbounded
	dead  bool
}

// mesh is the working triangulation shared by both passes. inc holds one
// triangle per vertex that contained it when last written; lookups verify
// it and rescan when it went stale.
type mesh struct {
	pts     []r2.Vec
	tris    []tri
	inc     []int
	last    int
	touched []int
	ratio   float64 // largest circumradius to shortest edge ratio, zero when unchecked
}

func next(i int) int { return (i + 1) % 3 }
func prev(i int) int { return (i + 2) % 3 }

func (m *mesh) addPoint(p r2.Vec) int {
	m.pts = append(m.pts, p)
	return len(m.pts) - 1
}

func (m *mesh) addTri(t tri) int {
	m.tris = append(m.tris, t)
	idx := len(m.tris) - 1
	m.touched = append(m.touched, idx)
	m.setIncident(t.v, idx)
	return idx
}

func (m *mesh) setTri(idx int, t tri) {
	m.tris[idx] = t
	m.touched = append(m.touched, idx)
	m.setIncident(t.v, idx)
}

func (m *mesh) setIncident(vs [3]int, t int) {
	for _, v := range vs {
		for len(m.inc) <= v {
			m.inc = append(m.inc, -1)
		}
		m.inc[v] = t
	}
}

// slotOf returns the slot of vertex v in triangle t, or -1.
func (m *mesh) slotOf(t, v int) int {
	for k, w := range m.tris[t].v {
		if w == v {
			return k
		}
	}
	return -1
}

// incident returns a live triangle using vertex v, or -1.
func (m *mesh) incident(v int) int {
	if v < len(m.inc) {
		if t := m.inc[v]; t >= 0 && !m.tris[t].dead && m.slotOf(t, v) >= 0 {
			return t
		}
	}
	for t := range m.tris {
		if !m.tris[t].dead && m.slotOf(t, v) >= 0 {
			m.setIncident([3]int{v, v, v}, t)
			return t
		}
	}
	return -1
}

// around calls fn for the live triangles sharing vertex v, with the slot v
// occupies, until fn returns false. It turns counter-clockwise first and,
// when it meets the mesh boundary, clockwise from the start.
func (m *mesh) around(v int, fn func(t, k int) bool) {
	t0 := m.incident(v)
	if t0 < 0 {
		return
	}
	t := t0
	for iter, iterN := 0, len(m.tris); iter < iterN; iter++ {
		k := m.slotOf(t, v)
		if k < 0 || !fn(t, k) {
			return
		}
		u := m.tris[t].n[next(k)]
		if u == t0 {
			return
		}
		if u < 0 || m.tris[u].dead {
			break
		}
		t = u
	}

	t = t0
	for iter, iterN := 0, len(m.tris); iter < iterN; iter++ {
		u := m.tris[t].n[prev(m.slotOf(t, v))]
		if u < 0 || u == t0 || m.tris[u].dead {
			return
		}
		k := m.slotOf(u, v)
		if k < 0 || !fn(u, k) {
			return
		}
		t = u
	}
}

// edge returns the endpoints of edge i of triangle t.
func (m *mesh) edge(t, i int) (int, int) {
	tr := &m.tris[t]
	return tr.v[next(i)], tr.v[prev(i)]
}

func (m *mesh) area(t int) float64 {
	tr := &m.tris[t]
	return 0.5 * orient(m.pts[tr.v[0]], m.pts[tr.v[1]], m.pts[tr.v[2]])
}

// neighborIndex returns the slot of t in u's neighbour list.
func (m *mesh) neighborIndex(u, t int) int {
	for j := 0; j < 3; j++ {
		if m.tris[u].n[j] == t {
			return j
		}
	}
	return -1
}

func (m *mesh) replaceNeighbor(u, old, repl int) {
	if u < 0 {
		return
	}
	if j := m.neighborIndex(u, old); j >= 0 {
		m.tris[u].n[j] = repl
	}
}

// isWall reports whether edge i of t may not be crossed or flipped.
func (m *mesh) isWall(t, i int) bool {
	tr := &m.tris[t]
	return tr.c[i] || tr.n[i] < 0 || m.tris[tr.n[i]].dead
}

// setConstrained marks edge i of t, and its twin, as a segment.
func (m *mesh) setConstrained(t, i int) {
	m.tris[t].c[i] = true
	if u := m.tris[t].n[i]; u >= 0 {
		if j := m.neighborIndex(u, t); j >= 0 {
			m.tris[u].c[j] = true
		}
	}
}

// findEdge locates a triangle and slot holding edge ab in either direction.
func (m *mesh) findEdge(a, b int) (int, int, bool) {
	t, e := -1, -1
	m.around(a, func(u, k int) bool {
		switch b {
		case m.tris[u].v[next(k)]:
			t, e = u, prev(k)
		case m.tris[u].v[prev(k)]:
			t, e = u, next(k)
		default:
			return true
		}
		return false
	})
	return t, e, t >= 0
}

// locate walks from start toward p. It returns the containing triangle and
// the edge p lies on, or -1. ok is false when p is outside the mesh.
func (m *mesh) locate(p r2.Vec, start int) (t int, onEdge int, ok bool) {
	t = start
	if t < 0 || t >= len(m.tris) || m.tris[t].dead {
		t = m.anyAlive()
		if t < 0 {
			return -1, -1, false
		}
	}

	limit := 4*len(m.tris) + 16
	for step := 0; step < limit; step++ {
		tr := &m.tris[t]
		moved := false
		onEdge = -1
		for k := 0; k < 3; k++ {
			i := (k + step) % 3
			a, b := m.pts[tr.v[next(i)]], m.pts[tr.v[prev(i)]]
			switch orientSign(a, b, p) {
			case -1:
				u := tr.n[i]
				if u < 0 || m.tris[u].dead {
					return t, -1, false
				}
				t = u
				moved = true
			case 0:
				onEdge = i
			}
			if moved {
				break
			}
		}
		if !moved {
			m.last = t
			return t, onEdge, true
		}
	}
	return m.locateBrute(p)
}

// locateBrute scans every triangle; used when the walk cycles on
// near-degenerate input.
func (m *mesh) locateBrute(p r2.Vec) (int, int, bool) {
	for t := range m.tris {
		tr := &m.tris[t]
		if tr.dead {
			continue
		}
		onEdge := -1
		inside := true
		for i := 0; i < 3; i++ {
			switch orientSign(m.pts[tr.v[next(i)]], m.pts[tr.v[prev(i)]], p) {
			case -1:
				inside = false
			case 0:
				onEdge = i
			}
		}
		if inside {
			m.last = t
			return t, onEdge, true
		}
	}
	return -1, -1, false
}

func (m *mesh) anyAlive() int {
	for t := range m.tris {
		if !m.tris[t].dead {
			return t
		}
	}
	return -1
}

// vertexAt returns the index of a vertex of t equal to p, or -1.
func (m *mesh) vertexAt(t int, p r2.Vec) int {
	for _, v := range m.tris[t].v {
		if m.pts[v] == p {
			return v
		}
	}
	return -1
}

// insert adds point p (already appended as vertex idx) inside triangle t,
// or on its edge e when e >= 0, and restores the Delaunay property.
func (m *mesh) insert(t, e, idx int) {
	if e >= 0 {
		m.splitEdge(t, e, idx)
		return
	}
	m.splitTri(t, idx)
}

func (m *mesh) splitTri(t, p int) {
	old := m.tris[t]
	a, b, c := old.v[0], old.v[1], old.v[2]
	t1 := len(m.tris)
	t2 := t1 + 1

	m.setTri(t, tri{v: [3]int{p, b, c}, n: [3]int{old.n[0], t1, t2}, c: [3]bool{old.c[0], false, false}, bound: old.bound})
	m.addTri(tri{v: [3]int{p, c, a}, n: [3]int{old.n[1], t2, t}, c: [3]bool{old.c[1], false, false}, bound: old.bound})
	m.addTri(tri{v: [3]int{p, a, b}, n: [3]int{old.n[2], t, t1}, c: [3]bool{old.c[2], false, false}, bound: old.bound})
	m.replaceNeighbor(old.n[1], t, t1)
	m.replaceNeighbor(old.n[2], t, t2)

	m.legalize([][2]int{{t, 0}, {t1, 0}, {t2, 0}})
}

func (m *mesh) splitEdge(t, e, p int) {
	old := m.tris[t]
	a, b, c := old.v[e], old.v[next(e)], old.v[prev(e)]
	tNb, tCb := old.n[next(e)], old.c[next(e)]
	tNc, tCc := old.n[prev(e)], old.c[prev(e)]
	seg := old.c[e]

	u := old.n[e]
	if u >= 0 && m.tris[u].dead {
		u = -1
	}

	t1 := len(m.tris)
	if u < 0 {
		m.setTri(t, tri{v: [3]int{a, b, p}, n: [3]int{-1, t1, tNc}, c: [3]bool{seg, false, tCc}, bound: old.bound})
		m.addTri(tri{v: [3]int{a, p, c}, n: [3]int{-1, tNb, t}, c: [3]bool{seg, tCb, false}, bound: old.bound})
		m.replaceNeighbor(tNb, t, t1)
		m.legalize([][2]int{{t, 2}, {t1, 1}})
		return
	}

	uo := m.tris[u]
	j := m.neighborIndex(u, t)
	q := uo.v[j]
	uNc, uCc := uo.n[next(j)], uo.c[next(j)] // opposite c: edge (b, q)
	uNb, uCb := uo.n[prev(j)], uo.c[prev(j)] // opposite b: edge (q, c)
	u1 := t1 + 1

	m.setTri(t, tri{v: [3]int{a, b, p}, n: [3]int{u1, t1, tNc}, c: [3]bool{seg, false, tCc}, bound: old.bound})
	m.addTri(tri{v: [3]int{a, p, c}, n: [3]int{u, tNb, t}, c: [3]bool{seg, tCb, false}, bound: old.bound})
	m.setTri(u, tri{v: [3]int{q, c, p}, n: [3]int{t1, u1, uNb}, c: [3]bool{seg, false, uCb}, bound: uo.bound})
	m.addTri(tri{v: [3]int{q, p, b}, n: [3]int{t, uNc, u}, c: [3]bool{seg, uCc, false}, bound: uo.bound})
	m.replaceNeighbor(tNb, t, t1)
	m.replaceNeighbor(uNc, u, u1)

	m.legalize([][2]int{{t, 2}, {t1, 1}, {u, 2}, {u1, 1}})
}

// flip replaces the diagonal shared by t (edge i) and its neighbour. Both
// resulting triangles keep t.v[i] at slot 0.
func (m *mesh) flip(t, i int) (int, int) {
	tr := m.tris[t]
	p0, p1, p2 := tr.v[i], tr.v[next(i)], tr.v[prev(i)]
	tN1, tC1 := tr.n[next(i)], tr.c[next(i)] // edge (p2, p0)
	tN2, tC2 := tr.n[prev(i)], tr.c[prev(i)] // edge (p0, p1)

	u := tr.n[i]
	ur := m.tris[u]
	j := m.neighborIndex(u, t)
	q := ur.v[j]
	uNp2, uCp2 := ur.n[next(j)], ur.c[next(j)] // edge (p1, q)
	uNp1, uCp1 := ur.n[prev(j)], ur.c[prev(j)] // edge (q, p2)

	bound := minBound(tr.bound, ur.bound)
	m.setTri(t, tri{v: [3]int{p0, p1, q}, n: [3]int{uNp2, u, tN2}, c: [3]bool{uCp2, false, tC2}, bound: bound})
	m.setTri(u, tri{v: [3]int{p0, q, p2}, n: [3]int{uNp1, tN1, t}, c: [3]bool{uCp1, tC1, false}, bound: bound})
	m.replaceNeighbor(uNp2, u, t)
	m.replaceNeighbor(tN1, t, u)
	return t, u
}

// canFlip reports whether the quad around edge i of t is strictly convex.
func (m *mesh) canFlip(t, i int) bool {
	tr := &m.tris[t]
	u := tr.n[i]
	if u < 0 || m.tris[u].dead {
		return false
	}
	j := m.neighborIndex(u, t)
	if j < 0 {
		return false
	}
	p0 := m.pts[tr.v[i]]
	p1 := m.pts[tr.v[next(i)]]
	p2 := m.pts[tr.v[prev(i)]]
	q := m.pts[m.tris[u].v[j]]
	return orientSign(p0, p1, q) > 0 && orientSign(p0, q, p2) > 0
}

// illegal reports whether edge i of t violates the Delaunay criterion.
func (m *mesh) illegal(t, i int) bool {
	tr := &m.tris[t]
	if m.isWall(t, i) {
		return false
	}
	u := tr.n[i]
	j := m.neighborIndex(u, t)
	if j < 0 {
		return false
	}
	q := m.tris[u].v[j]
	return inCircle(m.pts[tr.v[0]], m.pts[tr.v[1]], m.pts[tr.v[2]], m.pts[q]) > 0
}

// legalize flips edges opposite the inserted vertex until every edge on the
// stack is locally Delaunay. Each entry is (triangle, slot of new vertex).
func (m *mesh) legalize(stack [][2]int) {
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		t, i := top[0], top[1]
		if !m.illegal(t, i) || !m.canFlip(t, i) {
			continue
		}
		t2, u2 := m.flip(t, i)
		stack = append(stack, [2]int{t2, 0}, [2]int{u2, 0})
	}
}

func minBound(a, b float64) float64 {
	switch {
	case a <= 0:
		return b
	case b <= 0:
		return a
	case a < b:
		return a
	default:
		return b
	}
}
