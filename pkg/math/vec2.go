// Package math provides the planar and spatial vector types used by the mesh builders.
package math

import (
	"gonum.org/v1/gonum/spatial/r2"
)

// Vec2 is a planar point, X = longitude and Y = latitude for geographic input.
type Vec2 struct {
	X, Y float64
}

// Add returns v + other.
func (v Vec2) Add(other Vec2) Vec2 {
	return FromR2(r2.Add(v.R2(), other.R2()))
}

// Sub returns v - other.
func (v Vec2) Sub(other Vec2) Vec2 {
	return FromR2(r2.Sub(v.R2(), other.R2()))
}

// Scale returns v * scalar.
func (v Vec2) Scale(s float64) Vec2 {
	return FromR2(r2.Scale(s, v.R2()))
}

// Cross returns the z component of the cross product, positive when other
// lies counter-clockwise of v.
func (v Vec2) Cross(other Vec2) float64 {
	return r2.Cross(v.R2(), other.R2())
}

// Lerp returns the point a fraction t of the way from v to other.
func (v Vec2) Lerp(other Vec2, t float64) Vec2 {
	return v.Add(other.Sub(v).Scale(t))
}

// Min returns the componentwise minimum.
func (v Vec2) Min(other Vec2) Vec2 {
	return Vec2{min(v.X, other.X), min(v.Y, other.Y)}
}

// Max returns the componentwise maximum.
func (v Vec2) Max(other Vec2) Vec2 {
	return Vec2{max(v.X, other.X), max(v.Y, other.Y)}
}

// R2 converts v to a gonum planar vector.
func (v Vec2) R2() r2.Vec {
	return r2.Vec{X: v.X, Y: v.Y}
}

// FromR2 converts a gonum planar vector.
func FromR2(p r2.Vec) Vec2 {
	return Vec2{p.X, p.Y}
}

// OpenRing drops a closing point equal to the first one.
func OpenRing(ring []Vec2) []Vec2 {
	if n := len(ring); n > 1 && ring[0] == ring[n-1] {
		return ring[:n-1]
	}
	return ring
}

// SignedArea returns the shoelace area of a ring, positive when it runs
// counter-clockwise.
func SignedArea(ring []Vec2) float64 {
	var sum float64
	for i := range ring {
		sum += ring[i].Cross(ring[(i+1)%len(ring)])
	}
	return sum / 2
}
