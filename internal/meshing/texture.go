package meshing

import "github.com/Faultbox/terramesh/pkg/geo"

// textureMapper projects planar positions into atlas UVs through the tile
// bounding box. The zero value maps everything to (0,0).
type textureMapper struct {
	enabled bool
	region  TextureRegion
	scale   float64
	originX float64
	originY float64
	width   float64
	height  float64
}

func newTextureMapper(bbox geo.BoundingBox, app AppearanceOptions) textureMapper {
	if app.TextureRegion.IsEmpty() {
		return textureMapper{}
	}
	return textureMapper{
		enabled: true,
		region:  app.TextureRegion,
		scale:   app.TextureScale,
		originX: bbox.MinPoint.Longitude,
		originY: bbox.MinPoint.Latitude,
		width:   bbox.Width(),
		height:  bbox.Height(),
	}
}

func (m textureMapper) uv(x, y float64) (float64, float64) {
	if !m.enabled {
		return 0, 0
	}
	relX := (x - m.originX) / m.width * m.scale
	relY := (y - m.originY) / m.height * m.scale
	return m.region.Map(relX, relY)
}
