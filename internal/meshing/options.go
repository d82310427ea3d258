package meshing

import (
	"math"

	"github.com/Faultbox/terramesh/pkg/colors"
)

// NoElevation marks GeometryOptions.Elevation as unset: elevation is then
// taken from the provider.
const NoElevation = -math.MaxFloat64

// GeometryOptions controls the shape of emitted geometry.
type GeometryOptions struct {
	Area         float64 // max triangle area, 0 disables refinement
	HeightOffset float64
	Elevation    float64 // explicit elevation or NoElevation
	EleNoiseFreq float64
	SegmentSplit int // Y switches appended to the refinement pass
	FlipSide     bool
	HasBackSide  bool
}

// DefaultGeometryOptions returns options with no refinement, no offset and
// provider elevation.
func DefaultGeometryOptions() GeometryOptions {
	return GeometryOptions{Elevation: NoElevation}
}

// HasElevation reports whether an explicit elevation is set.
func (o GeometryOptions) HasElevation() bool {
	return o.Elevation > NoElevation
}

// AppearanceOptions controls colours and texture coordinates.
type AppearanceOptions struct {
	Gradient       *colors.Gradient // nil paints white
	ColorNoiseFreq float64
	TextureRegion  TextureRegion
	TextureScale   float64
}

// TextureRegion is a rectangle of a texture atlas, in atlas pixels.
type TextureRegion struct {
	AtlasWidth  int `yaml:"atlas_width"`
	AtlasHeight int `yaml:"atlas_height"`
	X           int `yaml:"x"`
	Y           int `yaml:"y"`
	Width       int `yaml:"width"`
	Height      int `yaml:"height"`
}

// IsEmpty reports whether the region maps nothing.
func (r TextureRegion) IsEmpty() bool {
	return r.Width <= 0 || r.Height <= 0 || r.AtlasWidth <= 0 || r.AtlasHeight <= 0
}

// Map converts relative region coordinates to atlas UVs. (0,0) is the
// region origin and (1,1) its opposite corner.
func (r TextureRegion) Map(u, v float64) (float64, float64) {
	aw := float64(r.AtlasWidth)
	ah := float64(r.AtlasHeight)
	return (float64(r.X) + u*float64(r.Width)) / aw, (float64(r.Y) + v*float64(r.Height)) / ah
}
