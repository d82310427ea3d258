package triangle

import "sync"

// Input describes a planar straight line graph, or a previous Output when
// refining. Slices are borrowed for the duration of Triangulate only.
type Input struct {
	Points        []float64 // x, y pairs
	Holes         []float64 // x, y pairs, one per hole region
	Segments      []int     // vertex index pairs
	PointMarkers  []int     // optional, one per point
	Triangles     []int     // refine only: corner indices, Corners per triangle
	Corners       int       // refine only: defaults to 3
	TriangleAreas []float64 // refine only: area bound per triangle, <= 0 means unbounded
}

// PointCount returns the number of input points.
func (in *Input) PointCount() int {
	return len(in.Points) / 2
}

// Output is the result of a triangulation pass. Its buffers come from a pool
// and must be handed back with Release once the caller is done with them.
type Output struct {
	Points       []float64
	Triangles    []int
	Corners      int
	PointMarkers []int
	Segments     []int

	released bool
}

var outputPool = sync.Pool{
	New: func() any { return new(Output) },
}

func acquireOutput() *Output {
	out := outputPool.Get().(*Output)
	out.released = false
	out.Corners = 3
	return out
}

// PointCount returns the number of output points.
func (o *Output) PointCount() int {
	return len(o.Points) / 2
}

// TriangleCount returns the number of output triangles.
func (o *Output) TriangleCount() int {
	if o.Corners == 0 {
		return 0
	}
	return len(o.Triangles) / o.Corners
}

// IsBoundary reports whether point i carries a boundary marker. Without
// markers no point is treated as boundary.
func (o *Output) IsBoundary(i int) bool {
	return o.PointMarkers != nil && o.PointMarkers[i] == 1
}

// Release returns the buffers to the pool. The Output must not be used
// afterwards; releasing twice is a no-op.
func (o *Output) Release() {
	if o == nil || o.released {
		return
	}
	o.Points = o.Points[:0]
	o.Triangles = o.Triangles[:0]
	o.Segments = o.Segments[:0]
	if o.PointMarkers != nil {
		o.PointMarkers = o.PointMarkers[:0]
	}
	o.released = true
	outputPool.Put(o)
}
