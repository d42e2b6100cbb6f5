package domain

import "strings"

// Category names the source of an immutable item. The values double as the
// block parameter keys that declare them.
type Category string

const (
	// CategoryMarker marks inline marker declarations
	CategoryMarker Category = "marker"
	// CategoryCommandMarker marks markers bound to a command palette entry
	CategoryCommandMarker Category = "commandMarker"
	// CategoryMarkerFile marks markers read from a single note
	CategoryMarkerFile Category = "markerFile"
	// CategoryMarkerFolder marks markers read from every note in a folder
	CategoryMarkerFolder Category = "markerFolder"
	// CategoryMarkerTag marks markers read from tagged notes
	CategoryMarkerTag Category = "markerTag"
	// CategoryLinksTo marks markers read from notes linked by a target
	CategoryLinksTo Category = "linksTo"
	// CategoryLinksFrom marks markers read from notes linking to a target
	CategoryLinksFrom Category = "linksFrom"
	// CategoryOverlay marks overlays declared in the block or in mapoverlay frontmatter
	CategoryOverlay Category = "overlay"
	// CategoryMapMarkers marks markers read from mapmarkers frontmatter
	CategoryMapMarkers Category = "mapmarkers"
	// CategoryOverlayTag marks overlays read from the configured overlay tag field
	CategoryOverlayTag Category = "overlayTag"
	// CategoryGeoJSON marks GeoJSON layers
	CategoryGeoJSON Category = "geojson"
)

// FileCategories lists the categories resolved through the vault, in resolution order.
var FileCategories = []Category{
	CategoryMarkerFile,
	CategoryMarkerFolder,
	CategoryMarkerTag,
	CategoryLinksTo,
	CategoryLinksFrom,
}

const (
	// DefaultLayer is the sentinel image layer used when a block declares none
	DefaultLayer = "real"
	// DefaultMarkerType is the marker type used when none or an unknown one is given
	DefaultMarkerType = "default"
	// UndefinedMarkerType is the literal some sources write for a missing type
	UndefinedMarkerType = "undefined"
)

// Warning is a user-facing message raised while building a map. Warnings never
// abort the operation that produced them.
type Warning struct {
	Category Category `json:"category,omitempty"`
	Source   string   `json:"source,omitempty"`
	Code     string   `json:"code,omitempty"`
	Message  string   `json:"message"`
}

func (w Warning) String() string {
	parts := make([]string, 0, 3)
	if w.Category != "" {
		parts = append(parts, string(w.Category))
	}
	if w.Source != "" {
		parts = append(parts, w.Source)
	}
	if len(parts) == 0 {
		return w.Message
	}
	return strings.Join(parts, " ") + ": " + w.Message
}

// NormalizeMarkerType maps empty and undefined marker types to the default type.
func NormalizeMarkerType(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" || trimmed == UndefinedMarkerType {
		return DefaultMarkerType
	}
	return trimmed
}
