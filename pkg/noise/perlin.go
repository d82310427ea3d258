// Package noise provides deterministic 2D Perlin noise for terrain perturbation
// and procedural colouring.
package noise

import "math"

// referencePermutation is Ken Perlin's reference permutation.
var referencePermutation = [256]uint8{
	151, 160, 137, 91, 90, 15, 131, 13, 201, 95, 96, 53, 194, 233, 7, 225,
	140, 36, 103, 30, 69, 142, 8, 99, 37, 240, 21, 10, 23, 190, 6, 148,
	247, 120, 234, 75, 0, 26, 197, 62, 94, 252, 219, 203, 117, 35, 11, 32,
	57, 177, 33, 88, 237, 149, 56, 87, 174, 20, 125, 136, 171, 168, 68, 175,
	74, 165, 71, 134, 139, 48, 27, 166, 77, 146, 158, 231, 83, 111, 229, 122,
	60, 211, 133, 230, 220, 105, 92, 41, 55, 46, 245, 40, 244, 102, 143, 54,
	65, 25, 63, 161, 1, 216, 80, 73, 209, 76, 132, 187, 208, 89, 18, 169,
	200, 196, 135, 130, 116, 188, 159, 86, 164, 100, 109, 198, 173, 186, 3, 64,
	52, 217, 226, 250, 124, 123, 5, 202, 38, 147, 118, 126, 255, 82, 85, 212,
	207, 206, 59, 227, 47, 16, 58, 17, 182, 189, 28, 42, 223, 183, 170, 213,
	119, 248, 152, 2, 44, 154, 163, 70, 221, 153, 101, 155, 167, 43, 172, 9,
	129, 22, 39, 253, 19, 98, 108, 110, 79, 113, 224, 232, 178, 185, 112, 104,
	218, 246, 97, 228, 251, 34, 242, 193, 238, 210, 144, 12, 191, 179, 162, 241,
	81, 51, 145, 235, 249, 14, 239, 107, 49, 192, 214, 31, 181, 199, 106, 157,
	184, 84, 204, 176, 115, 121, 50, 45, 127, 4, 150, 254, 138, 236, 205, 93,
	222, 114, 67, 29, 24, 72, 243, 141, 128, 195, 78, 66, 215, 61, 156, 180,
}

// Generator evaluates Perlin noise over a fixed permutation table.
// A Generator is immutable after construction and safe for concurrent use.
type Generator struct {
	perm [512]uint8
}

var reference = newGenerator(referencePermutation)

// Reference returns the generator backed by the reference permutation.
func Reference() *Generator {
	return reference
}

// NewGenerator creates a generator whose permutation is shuffled from seed.
func NewGenerator(seed int64) *Generator {
	var base [256]uint8
	for i := range base {
		base[i] = uint8(i)
	}

	// Fisher-Yates with an LCG so results do not depend on math/rand versions.
	s := uint64(seed)
	for i := 255; i > 0; i-- {
		s = s*6364136223846793005 + 1442695040888963407
		j := int((s >> 33) % uint64(i+1))
		base[i], base[j] = base[j], base[i]
	}
	return newGenerator(base)
}

func newGenerator(base [256]uint8) *Generator {
	g := &Generator{}
	for i := 0; i < 256; i++ {
		g.perm[i] = base[i]
		g.perm[i+256] = base[i]
	}
	return g
}

// Perlin2D samples the reference generator at (x*freq, y*freq).
// The result lies in [-1, 1] and is exactly zero when freq is zero.
func Perlin2D(x, y, freq float64) float64 {
	return reference.Perlin2D(x, y, freq)
}

// Perlin2D samples the generator at (x*freq, y*freq).
func (g *Generator) Perlin2D(x, y, freq float64) float64 {
	if freq == 0 {
		return 0
	}
	return g.Noise2D(x*freq, y*freq)
}

// Noise2D computes raw 2D Perlin noise, zero on integer lattice points
// and for non-finite input.
func (g *Generator) Noise2D(x, y float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) || math.IsNaN(y) || math.IsInf(y, 0) {
		return 0
	}
	fx := math.Floor(x)
	fy := math.Floor(y)
	xi := int(fx) & 255
	yi := int(fy) & 255

	xf := x - fx
	yf := y - fy

	u := fade(xf)
	v := fade(yf)

	aa := g.perm[int(g.perm[xi])+yi]
	ab := g.perm[int(g.perm[xi])+yi+1]
	ba := g.perm[int(g.perm[xi+1])+yi]
	bb := g.perm[int(g.perm[xi+1])+yi+1]

	x1 := lerp(u, grad(aa, xf, yf), grad(ba, xf-1, yf))
	x2 := lerp(u, grad(ab, xf, yf-1), grad(bb, xf-1, yf-1))

	n := lerp(v, x1, x2)
	if n > 1 {
		return 1
	}
	if n < -1 {
		return -1
	}
	return n
}

func fade(t float64) float64 {
	return t * t * t * (t*(t*6-15) + 10)
}

func lerp(t, a, b float64) float64 {
	return a + t*(b-a)
}

// grad picks one of eight gradient directions.
func grad(hash uint8, x, y float64) float64 {
	switch hash & 7 {
	case 0:
		return x + y
	case 1:
		return -x + y
	case 2:
		return x - y
	case 3:
		return -x - y
	case 4:
		return x
	case 5:
		return -x
	case 6:
		return y
	default:
		return -y
	}
}
