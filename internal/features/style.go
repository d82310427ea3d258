package features

import (
	"errors"
	"fmt"

	"github.com/Faultbox/terramesh/internal/config"
	"github.com/Faultbox/terramesh/internal/meshing"
	"github.com/Faultbox/terramesh/pkg/colors"
)

// ErrInvalidStyle is returned for style profiles that cannot be resolved.
var ErrInvalidStyle = errors.New("invalid style")

// BuilderKind selects how a feature is meshed.
type BuilderKind int

// Builder kinds.
const (
	BuildArea     BuilderKind = iota // filled polygon on the ground
	BuildBuilding                    // roof polygon plus walls
	BuildBarrier                     // walls along lines and rings
)

// String returns the config name of the kind.
func (k BuilderKind) String() string {
	switch k {
	case BuildArea:
		return "area"
	case BuildBuilding:
		return "building"
	case BuildBarrier:
		return "barrier"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// ParseBuilderKind maps a config name to a kind.
func ParseBuilderKind(s string) (BuilderKind, error) {
	switch s {
	case "area":
		return BuildArea, nil
	case "building":
		return BuildBuilding, nil
	case "barrier":
		return BuildBarrier, nil
	}
	return 0, fmt.Errorf("%w: unknown builder %q", ErrInvalidStyle, s)
}

// Style is a resolved style profile.
type Style struct {
	Name       string
	Match      map[string]string
	Builder    BuilderKind
	Geometry   meshing.GeometryOptions
	Appearance meshing.AppearanceOptions
}

// Matches reports whether every match entry is satisfied by props.
func (s *Style) Matches(props map[string]string) bool {
	if len(s.Match) == 0 {
		return false
	}
	for k, want := range s.Match {
		got, ok := props[k]
		if !ok || (want != "*" && got != want) {
			return false
		}
	}
	return true
}

// Stylesheet is an ordered list of styles; the first match wins.
type Stylesheet []Style

// Match returns the first style matching f, or nil.
func (s Stylesheet) Match(f *Feature) *Style {
	for i := range s {
		if s[i].Matches(f.Properties) {
			return &s[i]
		}
	}
	return nil
}

// NewStylesheet resolves config style profiles, parsing their gradients.
func NewStylesheet(profiles []config.StyleConfig) (Stylesheet, error) {
	sheet := make(Stylesheet, 0, len(profiles))
	for i, p := range profiles {
		s, err := resolveStyle(p)
		if err != nil {
			return nil, fmt.Errorf("style %d (%s): %w", i, p.Name, err)
		}
		sheet = append(sheet, s)
	}
	return sheet, nil
}

func resolveStyle(p config.StyleConfig) (Style, error) {
	kind, err := ParseBuilderKind(p.Builder)
	if err != nil {
		return Style{}, err
	}

	geom := meshing.DefaultGeometryOptions()
	geom.Area = p.Geometry.Area
	geom.HeightOffset = p.Geometry.HeightOffset
	geom.EleNoiseFreq = p.Geometry.EleNoiseFreq
	geom.SegmentSplit = p.Geometry.SegmentSplit
	geom.FlipSide = p.Geometry.FlipSide
	geom.HasBackSide = p.Geometry.HasBackSide
	if p.Geometry.Elevation != nil {
		geom.Elevation = *p.Geometry.Elevation
	}
	if geom.Area < 0 {
		return Style{}, fmt.Errorf("%w: negative area %v", ErrInvalidStyle, geom.Area)
	}

	app := meshing.AppearanceOptions{
		ColorNoiseFreq: p.Appearance.ColorNoiseFreq,
		TextureScale:   p.Appearance.TextureScale,
		TextureRegion: meshing.TextureRegion{
			AtlasWidth:  p.Appearance.TextureRegion.AtlasWidth,
			AtlasHeight: p.Appearance.TextureRegion.AtlasHeight,
			X:           p.Appearance.TextureRegion.X,
			Y:           p.Appearance.TextureRegion.Y,
			Width:       p.Appearance.TextureRegion.Width,
			Height:      p.Appearance.TextureRegion.Height,
		},
	}
	if app.TextureScale == 0 {
		app.TextureScale = 1
	}
	if p.Appearance.Gradient != "" {
		g, err := colors.ParseGradient(p.Appearance.Gradient)
		if err != nil {
			return Style{}, fmt.Errorf("%w: %w", ErrInvalidStyle, err)
		}
		app.Gradient = g
	}

	return Style{
		Name:       p.Name,
		Match:      p.Match,
		Builder:    kind,
		Geometry:   geom,
		Appearance: app,
	}, nil
}
