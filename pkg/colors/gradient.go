// Package colors provides colour gradients and the packed RGBA colour format
// written into mesh colour buffers.
package colors

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Gradient parsing errors.
var (
	ErrEmptyGradient   = errors.New("empty gradient")
	ErrInvalidColor    = errors.New("invalid color")
	ErrInvalidStop     = errors.New("invalid gradient stop")
	ErrUnbalancedParen = errors.New("unbalanced gradient parenthesis")
)

// White is opaque white in packed form.
const White uint32 = 0xFFFFFFFF

// Stop is one colour of a gradient at a position in [0, 1].
type Stop struct {
	Position float64
	Color    colorful.Color
	Alpha    float64
}

// Gradient maps a scalar in [0, 1] to a colour by linear interpolation
// between its stops. It is immutable once built and safe for concurrent use.
type Gradient struct {
	stops []Stop
}

// NewGradient builds a gradient from stops in any order.
func NewGradient(stops ...Stop) (*Gradient, error) {
	if len(stops) == 0 {
		return nil, ErrEmptyGradient
	}
	sorted := make([]Stop, len(stops))
	copy(sorted, stops)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Position < sorted[j].Position
	})
	for _, s := range sorted {
		if s.Position < 0 || s.Position > 1 {
			return nil, fmt.Errorf("%w: position %v outside [0,1]", ErrInvalidStop, s.Position)
		}
	}
	return &Gradient{stops: sorted}, nil
}

// Solid returns a single colour gradient.
func Solid(c colorful.Color) *Gradient {
	return &Gradient{stops: []Stop{{Position: 0, Color: c, Alpha: 1}}}
}

// Stops returns a copy of the gradient stops.
func (g *Gradient) Stops() []Stop {
	out := make([]Stop, len(g.stops))
	copy(out, g.stops)
	return out
}

// Evaluate returns the packed colour at t, clamped to [0, 1]. NaN maps to
// the first stop.
func (g *Gradient) Evaluate(t float64) uint32 {
	if g == nil || len(g.stops) == 0 {
		return White
	}
	if math.IsNaN(t) || t <= g.stops[0].Position {
		return packStop(g.stops[0].Color, g.stops[0].Alpha)
	}
	last := g.stops[len(g.stops)-1]
	if t >= last.Position {
		return packStop(last.Color, last.Alpha)
	}

	i := sort.Search(len(g.stops), func(i int) bool {
		return g.stops[i].Position >= t
	})
	if i <= 0 || i >= len(g.stops) {
		return packStop(last.Color, last.Alpha)
	}
	lo, hi := g.stops[i-1], g.stops[i]
	span := hi.Position - lo.Position
	if span <= 0 {
		return packStop(hi.Color, hi.Alpha)
	}
	f := (t - lo.Position) / span
	return packStop(lo.Color.BlendRgb(hi.Color, f), lo.Alpha+(hi.Alpha-lo.Alpha)*f)
}

// ParseGradient parses either a single hex colour ("#80a040") or a gradient
// expression "gradient(#rgb, #rrggbb 40%, #rrggbb)". Stops without a
// percentage are spread evenly between their neighbours.
func ParseGradient(s string) (*Gradient, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrEmptyGradient
	}

	if !strings.HasPrefix(s, "gradient") {
		c, err := parseColor(s)
		if err != nil {
			return nil, err
		}
		return Solid(c), nil
	}

	open := strings.IndexByte(s, '(')
	if open < 0 || !strings.HasSuffix(s, ")") {
		return nil, fmt.Errorf("%w: %q", ErrUnbalancedParen, s)
	}
	parts := strings.Split(s[open+1:len(s)-1], ",")

	stops := make([]Stop, 0, len(parts))
	explicit := make([]bool, 0, len(parts))
	for _, part := range parts {
		fields := strings.Fields(part)
		if len(fields) == 0 || len(fields) > 2 {
			return nil, fmt.Errorf("%w: %q", ErrInvalidStop, part)
		}
		c, err := parseColor(fields[0])
		if err != nil {
			return nil, err
		}
		stop := Stop{Color: c, Alpha: 1}
		hasPos := len(fields) == 2
		if hasPos {
			pct, err := strconv.ParseFloat(strings.TrimSuffix(fields[1], "%"), 64)
			if err != nil {
				return nil, fmt.Errorf("%w: %q", ErrInvalidStop, part)
			}
			stop.Position = pct / 100
		}
		stops = append(stops, stop)
		explicit = append(explicit, hasPos)
	}

	distribute(stops, explicit)
	return NewGradient(stops...)
}

// distribute assigns positions to stops that did not specify one.
func distribute(stops []Stop, explicit []bool) {
	n := len(stops)
	if n == 1 {
		return
	}
	if !explicit[0] {
		stops[0].Position = 0
		explicit[0] = true
	}
	if !explicit[n-1] {
		stops[n-1].Position = 1
		explicit[n-1] = true
	}

	prev := 0
	for i := 1; i < n; i++ {
		if !explicit[i] {
			continue
		}
		gap := i - prev
		for j := prev + 1; j < i; j++ {
			f := float64(j-prev) / float64(gap)
			stops[j].Position = stops[prev].Position + (stops[i].Position-stops[prev].Position)*f
		}
		prev = i
	}
}

func parseColor(s string) (colorful.Color, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return colorful.Color{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	return c, nil
}

func packStop(c colorful.Color, alpha float64) uint32 {
	r, g, b := c.Clamped().RGB255()
	return Pack(r, g, b, uint8(clamp01(alpha)*255+0.5))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
