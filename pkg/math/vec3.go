package math

// Vec3 is a mesh-space point. Y is elevation; X and Z form the ground plane.
type Vec3 struct {
	X, Y, Z float64
}

// XZ returns the ground plane projection.
func (v Vec3) XZ() Vec2 {
	return Vec2{v.X, v.Z}
}
