package geo

import "fmt"

// GeoCoordinate is a WGS84 position in degrees.
type GeoCoordinate struct {
	Latitude  float64
	Longitude float64
}

// BoundingBox is an axis aligned geographic rectangle.
type BoundingBox struct {
	MinPoint GeoCoordinate
	MaxPoint GeoCoordinate
}

// NewBoundingBox builds a box from its south-west and north-east corners.
func NewBoundingBox(minLat, minLon, maxLat, maxLon float64) BoundingBox {
	return BoundingBox{
		MinPoint: GeoCoordinate{Latitude: minLat, Longitude: minLon},
		MaxPoint: GeoCoordinate{Latitude: maxLat, Longitude: maxLon},
	}
}

// Width returns the longitude span.
func (b BoundingBox) Width() float64 {
	return b.MaxPoint.Longitude - b.MinPoint.Longitude
}

// Height returns the latitude span.
func (b BoundingBox) Height() float64 {
	return b.MaxPoint.Latitude - b.MinPoint.Latitude
}

// Center returns the middle of the box.
func (b BoundingBox) Center() GeoCoordinate {
	return GeoCoordinate{
		Latitude:  (b.MinPoint.Latitude + b.MaxPoint.Latitude) / 2,
		Longitude: (b.MinPoint.Longitude + b.MaxPoint.Longitude) / 2,
	}
}

// Contains reports whether the coordinate lies inside the box, edges included.
func (b BoundingBox) Contains(c GeoCoordinate) bool {
	return c.Latitude >= b.MinPoint.Latitude && c.Latitude <= b.MaxPoint.Latitude &&
		c.Longitude >= b.MinPoint.Longitude && c.Longitude <= b.MaxPoint.Longitude
}

// IsValid reports whether the box has a positive extent.
func (b BoundingBox) IsValid() bool {
	return b.Width() > 0 && b.Height() > 0
}

// String returns "(minLat,minLon) - (maxLat,maxLon)".
func (b BoundingBox) String() string {
	return fmt.Sprintf("(%.6f,%.6f) - (%.6f,%.6f)",
		b.MinPoint.Latitude, b.MinPoint.Longitude, b.MaxPoint.Latitude, b.MaxPoint.Longitude)
}
