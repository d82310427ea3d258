package triangle

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// epsilon scales the tolerance of the orientation test.
const epsilon = 1e-12

// orient is twice the signed area of abc, positive when counter-clockwise.
func orient(a, b, c r2.Vec) float64 {
	return r2.Cross(r2.Sub(b, a), r2.Sub(c, a))
}

// orientSign classifies c against the directed line ab with a magnitude
// relative tolerance: 1 left, -1 right, 0 collinear.
func orientSign(a, b, c r2.Vec) int {
	d := orient(a, b, c)
	tol := epsilon * (math.Abs((b.X-a.X)*(c.Y-a.Y)) + math.Abs((b.Y-a.Y)*(c.X-a.X)))
	switch {
	case d > tol:
		return 1
	case d < -tol:
		return -1
	default:
		return 0
	}
}

// inCircle is positive when d lies inside the circumcircle of the
// counter-clockwise triangle abc.
func inCircle(a, b, c, d r2.Vec) float64 {
	ad := r2.Sub(a, d)
	bd := r2.Sub(b, d)
	cd := r2.Sub(c, d)
	return r2.Norm2(ad)*r2.Cross(bd, cd) -
		r2.Norm2(bd)*r2.Cross(ad, cd) +
		r2.Norm2(cd)*r2.Cross(ad, bd)
}

// circumcenter returns the centre of the circle through a, b and c. The
// second result is false for degenerate triangles.
func circumcenter(a, b, c r2.Vec) (r2.Vec, bool) {
	ab := r2.Sub(b, a)
	ac := r2.Sub(c, a)
	d := 2 * r2.Cross(ab, ac)
	if d == 0 {
		return r2.Vec{}, false
	}
	lb := r2.Norm2(ab)
	lc := r2.Norm2(ac)
	center := r2.Add(a, r2.Vec{
		X: (ac.Y*lb - ab.Y*lc) / d,
		Y: (ab.X*lc - ac.X*lb) / d,
	})
	if math.IsNaN(center.X) || math.IsInf(center.X, 0) || math.IsNaN(center.Y) || math.IsInf(center.Y, 0) {
		return r2.Vec{}, false
	}
	return center, true
}

func centroid(a, b, c r2.Vec) r2.Vec {
	return r2.Scale(1.0/3, r2.Add(a, r2.Add(b, c)))
}

func midpoint(a, b r2.Vec) r2.Vec {
	return r2.Scale(0.5, r2.Add(a, b))
}

// crossesProperly reports whether segments ab and cd intersect at a single
// point interior to both.
func crossesProperly(a, b, c, d r2.Vec) bool {
	return orientSign(a, b, c)*orientSign(a, b, d) < 0 &&
		orientSign(c, d, a)*orientSign(c, d, b) < 0
}

// intersects reports whether segments ab and cd share any point.
func intersects(a, b, c, d r2.Vec) bool {
	o1 := orientSign(a, b, c)
	o2 := orientSign(a, b, d)
	o3 := orientSign(c, d, a)
	o4 := orientSign(c, d, b)
	if o1*o2 < 0 && o3*o4 < 0 {
		return true
	}
	return (o1 == 0 && onSegment(a, b, c)) || (o2 == 0 && onSegment(a, b, d)) ||
		(o3 == 0 && onSegment(c, d, a)) || (o4 == 0 && onSegment(c, d, b))
}

// onSegment reports whether collinear point p lies within the box of ab.
func onSegment(a, b, p r2.Vec) bool {
	return p.X >= math.Min(a.X, b.X) && p.X <= math.Max(a.X, b.X) &&
		p.Y >= math.Min(a.Y, b.Y) && p.Y <= math.Max(a.Y, b.Y)
}

// strictlyBetween reports whether p lies on the open segment ab.
func strictlyBetween(a, b, p r2.Vec) bool {
	if p == a || p == b || orientSign(a, b, p) != 0 {
		return false
	}
	return onSegment(a, b, p)
}

// inDiametralCircle reports whether p lies strictly inside the circle whose
// diameter is ab.
func inDiametralCircle(a, b, p r2.Vec) bool {
	return r2.Dot(r2.Sub(a, p), r2.Sub(b, p)) < 0
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
