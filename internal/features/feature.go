// Package features loads map features and drives the mesh builder per tile.
package features

import (
	"errors"
	"fmt"
	"io"
	"os"

	geojson "github.com/paulmach/go.geojson"

	"github.com/Faultbox/terramesh/pkg/geo"
	"github.com/Faultbox/terramesh/pkg/math"
)

// ErrUnsupportedGeometry is returned for GeoJSON geometries with no mesh form.
var ErrUnsupportedGeometry = errors.New("unsupported geometry")

// Area is a polygon with optional holes, coordinates as (lon, lat).
type Area struct {
	Outer []math.Vec2
	Holes [][]math.Vec2
}

// Feature is a map feature reduced to what mesh builders need.
type Feature struct {
	ID         string
	Properties map[string]string
	Areas      []Area
	Lines      [][]math.Vec2
}

// Bounds returns the bounding box of every coordinate of the feature.
func (f *Feature) Bounds() geo.BoundingBox {
	var lo, hi math.Vec2
	first := true
	add := func(p math.Vec2) {
		if first {
			lo, hi, first = p, p, false
			return
		}
		lo, hi = lo.Min(p), hi.Max(p)
	}
	for _, a := range f.Areas {
		for _, p := range a.Outer {
			add(p)
		}
	}
	for _, l := range f.Lines {
		for _, p := range l {
			add(p)
		}
	}
	return geo.NewBoundingBox(lo.Y, lo.X, hi.Y, hi.X)
}

// Intersects reports whether the feature bounds overlap bbox.
func (f *Feature) Intersects(bbox geo.BoundingBox) bool {
	if f.IsEmpty() {
		return false
	}
	b := f.Bounds()
	return b.MinPoint.Latitude <= bbox.MaxPoint.Latitude && b.MaxPoint.Latitude >= bbox.MinPoint.Latitude &&
		b.MinPoint.Longitude <= bbox.MaxPoint.Longitude && b.MaxPoint.Longitude >= bbox.MinPoint.Longitude
}

// IsEmpty reports whether the feature has no geometry.
func (f *Feature) IsEmpty() bool {
	return len(f.Areas) == 0 && len(f.Lines) == 0
}

// LoadGeoJSONFile reads a feature collection from disk.
func LoadGeoJSONFile(path string) ([]Feature, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open features: %w", err)
	}
	defer f.Close()
	return LoadGeoJSON(f)
}

// LoadGeoJSON reads a GeoJSON feature collection. Points are skipped;
// features whose geometry cannot be meshed are reported as errors.
func LoadGeoJSON(r io.Reader) ([]Feature, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read features: %w", err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("decode feature collection: %w", err)
	}

	features := make([]Feature, 0, len(fc.Features))
	for i, gf := range fc.Features {
		if gf == nil || gf.Geometry == nil {
			continue
		}
		f := Feature{
			ID:         featureID(gf, i),
			Properties: stringProperties(gf.Properties),
		}
		if err := addGeometry(&f, gf.Geometry); err != nil {
			return nil, fmt.Errorf("feature %s: %w", f.ID, err)
		}
		if !f.IsEmpty() {
			features = append(features, f)
		}
	}
	return features, nil
}

func addGeometry(f *Feature, g *geojson.Geometry) error {
	switch g.Type {
	case geojson.GeometryPoint, geojson.GeometryMultiPoint:
		// nothing to mesh
	case geojson.GeometryLineString:
		f.Lines = append(f.Lines, toPath(g.LineString))
	case geojson.GeometryMultiLineString:
		for _, l := range g.MultiLineString {
			f.Lines = append(f.Lines, toPath(l))
		}
	case geojson.GeometryPolygon:
		f.Areas = append(f.Areas, toArea(g.Polygon))
	case geojson.GeometryMultiPolygon:
		for _, p := range g.MultiPolygon {
			f.Areas = append(f.Areas, toArea(p))
		}
	case geojson.GeometryCollection:
		for _, child := range g.Geometries {
			if err := addGeometry(f, child); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedGeometry, g.Type)
	}
	return nil
}

func toArea(rings [][][]float64) Area {
	var a Area
	for i, r := range rings {
		if i == 0 {
			a.Outer = toPath(r)
			continue
		}
		a.Holes = append(a.Holes, toPath(r))
	}
	return a
}

func toPath(coords [][]float64) []math.Vec2 {
	path := make([]math.Vec2, 0, len(coords))
	for _, c := range coords {
		if len(c) < 2 {
			continue
		}
		p := math.Vec2{X: c[0], Y: c[1]}
		if n := len(path); n > 0 && path[n-1] == p {
			continue
		}
		path = append(path, p)
	}
	return path
}

func featureID(f *geojson.Feature, index int) string {
	if f.ID != nil {
		return fmt.Sprint(f.ID)
	}
	return fmt.Sprintf("#%d", index)
}

func stringProperties(props map[string]interface{}) map[string]string {
	out := make(map[string]string, len(props))
	for k, v := range props {
		if v == nil {
			continue
		}
		out[k] = fmt.Sprint(v)
	}
	return out
}
