// Package geo provides tile addressing and geographic bounding boxes.
package geo

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// MaxLevelOfDetail is the deepest supported quadkey level.
const MaxLevelOfDetail = 23

// Quadkey errors.
var (
	ErrEmptyQuadKey   = errors.New("empty quadkey")
	ErrInvalidQuadKey = errors.New("invalid quadkey digit")
	ErrQuadKeyTooDeep = errors.New("quadkey level of detail too deep")
	ErrTileOutOfRange = errors.New("tile coordinate out of range")
)

// QuadKey identifies a Web Mercator tile.
type QuadKey struct {
	TileX         int
	TileY         int
	LevelOfDetail int
}

// ParseQuadKey decodes a Bing style quadkey string such as "1202".
func ParseQuadKey(s string) (QuadKey, error) {
	if s == "" {
		return QuadKey{}, ErrEmptyQuadKey
	}
	if len(s) > MaxLevelOfDetail {
		return QuadKey{}, fmt.Errorf("%w: %d", ErrQuadKeyTooDeep, len(s))
	}

	qk := QuadKey{LevelOfDetail: len(s)}
	for i := len(s); i > 0; i-- {
		mask := 1 << (i - 1)
		switch s[len(s)-i] {
		case '0':
		case '1':
			qk.TileX |= mask
		case '2':
			qk.TileY |= mask
		case '3':
			qk.TileX |= mask
			qk.TileY |= mask
		default:
			return QuadKey{}, fmt.Errorf("%w: %q", ErrInvalidQuadKey, s[len(s)-i])
		}
	}
	return qk, nil
}

// String encodes the tile as a quadkey string.
func (q QuadKey) String() string {
	var b strings.Builder
	for i := q.LevelOfDetail; i > 0; i-- {
		digit := byte('0')
		mask := 1 << (i - 1)
		if q.TileX&mask != 0 {
			digit++
		}
		if q.TileY&mask != 0 {
			digit += 2
		}
		b.WriteByte(digit)
	}
	return b.String()
}

// Validate reports whether the tile coordinates fit the level of detail.
func (q QuadKey) Validate() error {
	if q.LevelOfDetail < 0 || q.LevelOfDetail > MaxLevelOfDetail {
		return fmt.Errorf("%w: %d", ErrQuadKeyTooDeep, q.LevelOfDetail)
	}
	n := 1 << q.LevelOfDetail
	if q.TileX < 0 || q.TileY < 0 || q.TileX >= n || q.TileY >= n {
		return fmt.Errorf("%w: (%d, %d) at level %d", ErrTileOutOfRange, q.TileX, q.TileY, q.LevelOfDetail)
	}
	return nil
}

// QuadKeyToBoundingBox returns the geographic extent of a tile.
func QuadKeyToBoundingBox(q QuadKey) BoundingBox {
	return BoundingBox{
		MinPoint: GeoCoordinate{
			Latitude:  tileYToLat(q.TileY+1, q.LevelOfDetail),
			Longitude: tileXToLon(q.TileX, q.LevelOfDetail),
		},
		MaxPoint: GeoCoordinate{
			Latitude:  tileYToLat(q.TileY, q.LevelOfDetail),
			Longitude: tileXToLon(q.TileX+1, q.LevelOfDetail),
		},
	}
}

// LatLonToQuadKey returns the tile containing the coordinate at the given level.
func LatLonToQuadKey(c GeoCoordinate, levelOfDetail int) QuadKey {
	n := float64(int(1) << levelOfDetail)
	lat := clamp(c.Latitude, -maxMercatorLatitude, maxMercatorLatitude)
	latRad := lat * math.Pi / 180

	x := int(math.Floor((c.Longitude + 180) / 360 * n))
	y := int(math.Floor((1 - math.Log(math.Tan(latRad)+1/math.Cos(latRad))/math.Pi) / 2 * n))

	maxTile := int(n) - 1
	return QuadKey{
		TileX:         clampInt(x, 0, maxTile),
		TileY:         clampInt(y, 0, maxTile),
		LevelOfDetail: levelOfDetail,
	}
}

const maxMercatorLatitude = 85.05112878

func tileXToLon(x, levelOfDetail int) float64 {
	return float64(x)/float64(int(1)<<levelOfDetail)*360 - 180
}

func tileYToLat(y, levelOfDetail int) float64 {
	n := math.Pi - 2*math.Pi*float64(y)/float64(int(1)<<levelOfDetail)
	return 180 / math.Pi * math.Atan(math.Sinh(n))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
