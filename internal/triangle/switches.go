package triangle

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidSwitches is returned for switch strings with unknown letters.
var ErrInvalidSwitches = errors.New("invalid triangulation switches")

// Switches selects what a triangulation pass does. The letters follow the
// command line switches of Shewchuk's Triangle so existing style configs
// keep their meaning.
type Switches struct {
	PSLG              bool    // p: triangulate a planar straight line graph, carving holes and concavities
	Refine            bool    // r: refine a previous output instead of triangulating points
	Quality           bool    // q: split skinny triangles and encroached segments, Steiner points at circumcentres
	MinAngle          float64 // q<deg>: smallest angle to enforce, DefaultMinAngle when zero
	AreaConstraint    bool    // a: honour per triangle (or global) area bounds
	MaxArea           float64 // a<area>: global bound, zero when only per triangle bounds apply
	ZeroIndexed       bool    // z: indices start at zero (always true for this package)
	NoBoundaryMarkers bool    // B: omit point markers from the output
	NoOutputSegments  bool    // P: omit segments from the output
	Quiet             bool    // Q: suppress warnings
	SplitSuppression  int     // Y count: 1 keeps boundary segments whole, 2 keeps every segment whole
}

// ParseSwitches parses a Triangle style switch string such as "pzBQ" or "prqazPQY".
func ParseSwitches(s string) (Switches, error) {
	var sw Switches
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case 'p':
			sw.PSLG = true
		case 'r':
			sw.Refine = true
		case 'q':
			sw.Quality = true
			v, n, err := parseNumber(s[i+1:])
			if err != nil {
				return Switches{}, fmt.Errorf("%w: %q: %w", ErrInvalidSwitches, s, err)
			}
			sw.MinAngle = v
			i += n
		case 'a':
			sw.AreaConstraint = true
			v, n, err := parseNumber(s[i+1:])
			if err != nil {
				return Switches{}, fmt.Errorf("%w: %q: %w", ErrInvalidSwitches, s, err)
			}
			sw.MaxArea = v
			i += n
		case 'z':
			sw.ZeroIndexed = true
		case 'B':
			sw.NoBoundaryMarkers = true
		case 'P':
			sw.NoOutputSegments = true
		case 'Q':
			sw.Quiet = true
		case 'Y':
			sw.SplitSuppression++
		default:
			return Switches{}, fmt.Errorf("%w: unknown switch %q in %q", ErrInvalidSwitches, s[i], s)
		}
	}
	return sw, nil
}

// String renders the switches in canonical order.
func (sw Switches) String() string {
	var b strings.Builder
	if sw.PSLG {
		b.WriteByte('p')
	}
	if sw.Refine {
		b.WriteByte('r')
	}
	if sw.Quality {
		b.WriteByte('q')
		if sw.MinAngle > 0 {
			b.WriteString(strconv.FormatFloat(sw.MinAngle, 'g', -1, 64))
		}
	}
	if sw.AreaConstraint {
		b.WriteByte('a')
		if sw.MaxArea > 0 {
			b.WriteString(strconv.FormatFloat(sw.MaxArea, 'g', -1, 64))
		}
	}
	if sw.ZeroIndexed {
		b.WriteByte('z')
	}
	if sw.NoBoundaryMarkers {
		b.WriteByte('B')
	}
	if sw.NoOutputSegments {
		b.WriteByte('P')
	}
	if sw.Quiet {
		b.WriteByte('Q')
	}
	b.WriteString(strings.Repeat("Y", sw.SplitSuppression))
	return b.String()
}

// parseNumber reads an optional unsigned decimal prefix of s.
func parseNumber(s string) (float64, int, error) {
	n := 0
	for n < len(s) && (s[n] == '.' || (s[n] >= '0' && s[n] <= '9')) {
		n++
	}
	if n == 0 {
		return 0, 0, nil
	}
	v, err := strconv.ParseFloat(s[:n], 64)
	if err != nil {
		return 0, 0, err
	}
	return v, n, nil
}
