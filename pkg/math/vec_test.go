package math

import (
	"testing"
)

func TestVec2Arithmetic(t *testing.T) {
	a := Vec2{1, 2}
	b := Vec2{3, 4}

	tests := []struct {
		name string
		got  Vec2
		want Vec2
	}{
		{"add", a.Add(b), Vec2{4, 6}},
		{"sub", b.Sub(a), Vec2{2, 2}},
		{"scale", a.Scale(3), Vec2{3, 6}},
		{"lerp", a.Lerp(b, 0.5), Vec2{2, 3}},
		{"min", Vec2{1, 5}.Min(Vec2{2, -1}), Vec2{1, -1}},
		{"max", Vec2{1, 5}.Max(Vec2{2, -1}), Vec2{2, 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func TestVec2Cross(t *testing.T) {
	x := Vec2{1, 0}
	y := Vec2{0, 1}
	if got := x.Cross(y); got != 1 {
		t.Errorf("x.Cross(y) = %v, want 1", got)
	}
	if got := y.Cross(x); got != -1 {
		t.Errorf("y.Cross(x) = %v, want -1", got)
	}
}

func TestVec2R2RoundTrip(t *testing.T) {
	v := Vec2{-122.4, 37.8}
	if got := FromR2(v.R2()); got != v {
		t.Errorf("FromR2(R2()) = %v, want %v", got, v)
	}
}

func TestSignedArea(t *testing.T) {
	square := []Vec2{{0, 0}, {2, 0}, {2, 2}, {0, 2}}
	if got := SignedArea(square); got != 4 {
		t.Errorf("SignedArea(ccw) = %v, want 4", got)
	}
	cw := []Vec2{{0, 0}, {0, 2}, {2, 2}, {2, 0}}
	if got := SignedArea(cw); got != -4 {
		t.Errorf("SignedArea(cw) = %v, want -4", got)
	}
}

func TestOpenRing(t *testing.T) {
	closed := []Vec2{{0, 0}, {1, 0}, {1, 1}, {0, 0}}
	if got := OpenRing(closed); len(got) != 3 {
		t.Errorf("OpenRing(closed) has %d points, want 3", len(got))
	}
	open := closed[:3]
	if got := OpenRing(open); len(got) != 3 {
		t.Errorf("OpenRing(open) has %d points, want 3", len(got))
	}
}

func TestVec3XZ(t *testing.T) {
	v := Vec3{1, 2, 3}
	if got := v.XZ(); got != (Vec2{1, 3}) {
		t.Errorf("Vec3.XZ() = %v, want {1 3}", got)
	}
}
