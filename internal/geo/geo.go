package geo

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/wroge/wgs84"
)

// Overlay geometry is computed in EPSG:3857 so radii can be expressed in
// meters, then projected back to EPSG:4326 for display and storage.

// ErrInvalidCoordinates is returned when a coordinate pair cannot be decoded.
var ErrInvalidCoordinates = errors.New("invalid coordinates provided")

// ErrInvalidRadius is returned by Circle for zero, negative or non-finite radii.
var ErrInvalidRadius = errors.New("circle radius must be a positive number")

const defaultCircleSegments = 64

// LatLng is a latitude/longitude pair. It encodes as a two element JSON array
// ([lat, lng]) to match the persisted marker shape.
type LatLng struct {
	Lat float64
	Lng float64
}

// Pair returns the coordinate as [lat, lng].
func (l LatLng) Pair() [2]float64 {
	return [2]float64{l.Lat, l.Lng}
}

// MarshalJSON encodes the coordinate as [lat, lng].
func (l LatLng) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.Pair())
}

// UnmarshalJSON decodes [lat, lng].
func (l *LatLng) UnmarshalJSON(data []byte) error {
	var pair []float64
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCoordinates, err)
	}
	if len(pair) != 2 {
		return ErrInvalidCoordinates
	}
	l.Lat, l.Lng = pair[0], pair[1]
	return nil
}

// String renders "lat, lng".
func (l LatLng) String() string {
	return fmt.Sprintf("%g, %g", l.Lat, l.Lng)
}

// ToMercator projects the coordinate into EPSG:3857 meters.
func ToMercator(l LatLng) (x, y float64) {
	f := wgs84.EPSG().Transform(4326, 3857)
	x, y, _ = f(l.Lng, l.Lat, 0)
	return x, y
}

// FromMercator projects EPSG:3857 meters back to a coordinate.
func FromMercator(x, y float64) LatLng {
	f := wgs84.EPSG().Transform(3857, 4326)
	lng, lat, _ := f(x, y, 0)
	return LatLng{Lat: lat, Lng: lng}
}

// scale is the Web Mercator distortion factor at the given latitude.
func scale(lat float64) float64 {
	c := math.Cos(lat * math.Pi / 180)
	if c <= 1e-9 {
		return 1e9
	}
	return 1 / c
}

// Circle approximates a circle of radiusMeters around center as a polygon.
func Circle(center LatLng, radiusMeters float64, segments int) (geom.Polygon, error) {
	if !(radiusMeters > 0) || math.IsInf(radiusMeters, 1) {
		return geom.Polygon{}, fmt.Errorf("%w: %v", ErrInvalidRadius, radiusMeters)
	}
	if segments < 4 {
		segments = defaultCircleSegments
	}
	cx, cy := ToMercator(center)
	r := radiusMeters * scale(center.Lat)

	flat := make([]float64, 0, (segments+1)*2)
	for i := 0; i < segments; i++ {
		angle := 2 * math.Pi * float64(i) / float64(segments)
		p := FromMercator(cx+r*math.Cos(angle), cy+r*math.Sin(angle))
		flat = append(flat, p.Lng, p.Lat)
	}
	// close the ring
	flat = append(flat, flat[0], flat[1])

	ring, err := geom.NewLineString(geom.NewSequence(flat, geom.DimXY))
	if err != nil {
		return geom.Polygon{}, fmt.Errorf("circle ring: %w", err)
	}
	poly, err := geom.NewPolygon([]geom.LineString{ring})
	if err != nil {
		return geom.Polygon{}, fmt.Errorf("circle polygon: %w", err)
	}
	return poly, nil
}

// Within reports whether p lies inside the circle of radiusMeters around center.
func Within(center, p LatLng, radiusMeters float64) bool {
	cx, cy := ToMercator(center)
	px, py := ToMercator(p)
	d := math.Hypot(px-cx, py-cy) / scale(center.Lat)
	return d <= radiusMeters
}

// Point converts the coordinate into a simplefeatures point (x=lng, y=lat).
func Point(l LatLng) (geom.Point, error) {
	p, err := geom.NewPoint(geom.Coordinates{
		XY:   geom.XY{X: l.Lng, Y: l.Lat},
		Type: geom.DimXY,
	})
	if err != nil {
		return geom.Point{}, fmt.Errorf("%w: %s", ErrInvalidCoordinates, l)
	}
	return p, nil
}
