package geo

import (
	"encoding/json"
	"fmt"
	"sort"

	geom "github.com/peterstace/simplefeatures/geom"
)

// GeoJSONLayer summarises a decoded GeoJSON feature collection attached to a map.
type GeoJSONLayer struct {
	Path          string                        `json:"path"`
	Features      int                           `json:"features"`
	GeometryTypes []string                      `json:"geometryTypes"`
	Collection    geom.GeoJSONFeatureCollection `json:"-"`
}

// DecodeGeoJSON parses a GeoJSON FeatureCollection document.
func DecodeGeoJSON(path string, data []byte) (GeoJSONLayer, error) {
	var fc geom.GeoJSONFeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return GeoJSONLayer{}, fmt.Errorf("geojson %s: %w", path, err)
	}

	seen := map[string]struct{}{}
	for _, feature := range fc {
		seen[feature.Geometry.Type().String()] = struct{}{}
	}
	types := make([]string, 0, len(seen))
	for name := range seen {
		types = append(types, name)
	}
	sort.Strings(types)

	return GeoJSONLayer{
		Path:          path,
		Features:      len(fc),
		GeometryTypes: types,
		Collection:    fc,
	}, nil
}
