package overlays

import (
	"strings"

	"github.com/google/uuid"
	"github.com/peterstace/simplefeatures/geom"

	"github.com/goliatone/go-mapblocks/internal/distance"
	"github.com/goliatone/go-mapblocks/internal/geo"
	"github.com/goliatone/go-mapblocks/internal/identity"
)

// Properties is the persisted shape of an overlay.
type Properties struct {
	ID          string     `json:"id"`
	Color       string     `json:"color"`
	Loc         geo.LatLng `json:"loc"`
	Radius      float64    `json:"radius"`
	Unit        string     `json:"unit"`
	Description string     `json:"desc,omitempty"`
	Mutable     bool       `json:"mutable"`
	Tooltip     string     `json:"tooltip,omitempty"`
}

// Overlay is a circle drawn around a point.
type Overlay struct {
	props   Properties
	groupID string
}

// New builds an overlay from persisted properties, minting an id when missing.
func New(props Properties) *Overlay {
	if strings.TrimSpace(props.ID) == "" {
		props.ID = identity.MarkerID(uuid.New())
	}
	if props.Unit == "" {
		props.Unit = string(distance.Meters)
	}
	return &Overlay{props: props}
}

// FromLength builds an immutable overlay from a "<number> <unit>" length.
func FromLength(id, color string, loc geo.LatLng, length, description, groupID string) (*Overlay, error) {
	d, err := distance.Parse(length)
	if err != nil {
		return nil, err
	}
	o := New(Properties{
		ID:          id,
		Color:       color,
		Loc:         loc,
		Radius:      d.Value,
		Unit:        string(d.Unit),
		Description: description,
	})
	o.groupID = groupID
	return o, nil
}

func (o *Overlay) ID() string      { return o.props.ID }
func (o *Overlay) GroupID() string { return o.groupID }
func (o *Overlay) Mutable() bool   { return o.props.Mutable }
func (o *Overlay) Loc() geo.LatLng { return o.props.Loc }

// Properties returns the persisted shape.
func (o *Overlay) Properties() Properties {
	return o.props
}

// Distance returns the radius with its unit.
func (o *Overlay) Distance() distance.Distance {
	return distance.Distance{Value: o.props.Radius, Unit: distance.Unit(o.props.Unit)}
}

// RadiusMeters converts the radius to meters.
func (o *Overlay) RadiusMeters() float64 {
	return o.Distance().Meters()
}

// SetLoc moves the overlay center.
func (o *Overlay) SetLoc(loc geo.LatLng) {
	o.props.Loc = loc
}

// SetRadius replaces the radius.
func (o *Overlay) SetRadius(d distance.Distance) {
	o.props.Radius = d.Value
	o.props.Unit = string(d.Unit)
}

// Polygon approximates the overlay circle.
func (o *Overlay) Polygon() (geom.Polygon, error) {
	return geo.Circle(o.props.Loc, o.RadiusMeters(), 0)
}

// Contains reports whether loc falls inside the overlay.
func (o *Overlay) Contains(loc geo.LatLng) bool {
	return geo.Within(o.props.Loc, loc, o.RadiusMeters())
}
