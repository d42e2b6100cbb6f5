package markers

import (
	"github.com/goliatone/go-mapblocks/internal/geo"
)

// Tooltip controls when a marker tooltip is displayed.
type Tooltip string

const (
	TooltipAlways Tooltip = "always"
	TooltipHover  Tooltip = "hover"
	TooltipNever  Tooltip = "never"
)

// ParseTooltip maps free-form input to a tooltip mode. Unknown values return fallback.
func ParseTooltip(value string, fallback Tooltip) Tooltip {
	switch Tooltip(value) {
	case TooltipAlways, TooltipHover, TooltipNever:
		return Tooltip(value)
	default:
		return fallback
	}
}

// Properties is the persisted shape of a marker. Building a marker from it and
// calling Properties again returns an identical record.
type Properties struct {
	ID          string      `json:"id"`
	Type        string      `json:"type"`
	Loc         geo.LatLng  `json:"loc"`
	Link        string      `json:"link"`
	Layer       string      `json:"layer"`
	Mutable     bool        `json:"mutable"`
	Command     bool        `json:"command"`
	Zoom        *float64    `json:"zoom"`
	Percent     *[2]float64 `json:"percent"`
	Description string      `json:"description,omitempty"`
	MinZoom     *float64    `json:"minZoom"`
	MaxZoom     *float64    `json:"maxZoom"`
	Tooltip     Tooltip     `json:"tooltip,omitempty"`
}

// ImageBounds is the size of an image layer in map units.
type ImageBounds struct {
	Height float64 `json:"height"`
	Width  float64 `json:"width"`
}

// PercentOf expresses loc relative to the image bounds. It returns nil for
// geographic maps (nil or empty bounds).
func PercentOf(loc geo.LatLng, bounds *ImageBounds) *[2]float64 {
	if bounds == nil || bounds.Height == 0 || bounds.Width == 0 {
		return nil
	}
	return &[2]float64{loc.Lat / bounds.Height, loc.Lng / bounds.Width}
}

func copyFloat(value *float64) *float64 {
	if value == nil {
		return nil
	}
	out := *value
	return &out
}

func copyPercent(value *[2]float64) *[2]float64 {
	if value == nil {
		return nil
	}
	out := *value
	return &out
}
