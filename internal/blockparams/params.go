package blockparams

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-mapblocks/internal/domain"
)

// ErrMapIDRequired is returned when a block does not declare an id.
var ErrMapIDRequired = errors.New("blockparams: map id is required")

// BlockParameters is the normalized configuration of one map block.
type BlockParameters struct {
	ID     string   `json:"id"`
	Image  string   `json:"image"`
	Layers []string `json:"layers"`

	Lat         *float64 `json:"lat,omitempty"`
	Long        *float64 `json:"long,omitempty"`
	Height      string   `json:"height,omitempty"`
	Width       string   `json:"width,omitempty"`
	MinZoom     *float64 `json:"minZoom,omitempty"`
	MaxZoom     *float64 `json:"maxZoom,omitempty"`
	DefaultZoom *float64 `json:"defaultZoom,omitempty"`
	ZoomDelta   *float64 `json:"zoomDelta,omitempty"`
	Scale       *float64 `json:"scale,omitempty"`
	Unit        string   `json:"unit,omitempty"`

	Tooltip      string `json:"tooltip,omitempty"`
	OverlayTag   string `json:"overlayTag,omitempty"`
	OverlayColor string `json:"overlayColor,omitempty"`
	Verbose      bool   `json:"verbose,omitempty"`

	Marker        []string   `json:"marker"`
	MarkerFile    []string   `json:"markerFile"`
	MarkerFolder  []string   `json:"markerFolder"`
	MarkerTag     [][]string `json:"markerTag"`
	CommandMarker []string   `json:"commandMarker"`
	GeoJSON       []string   `json:"geojson"`
	LinksTo       []string   `json:"linksTo"`
	LinksFrom     []string   `json:"linksFrom"`

	// Overlay holds raw overlay tuples declared in the block itself.
	Overlay [][]any `json:"overlay,omitempty"`

	// Options keeps the last decoded value of every key, including unknown ones.
	Options map[string]any `json:"options,omitempty"`

	Warnings []domain.Warning `json:"-"`
}

// HasFileFilters reports whether any cross-document source is configured.
func (p BlockParameters) HasFileFilters() bool {
	return len(p.MarkerFile) > 0 || len(p.MarkerFolder) > 0 || len(p.MarkerTag) > 0 ||
		len(p.LinksTo) > 0 || len(p.LinksFrom) > 0
}

// Validate enforces the block-scoped requirements. A missing id returns ErrMapIDRequired.
func Validate(params BlockParameters) error {
	if strings.TrimSpace(params.ID) == "" {
		return ErrMapIDRequired
	}
	return validation.ValidateStruct(&params,
		validation.Field(&params.Layers, validation.Required),
		validation.Field(&params.Image, validation.By(func(value any) error {
			if len(params.Layers) > 0 && value.(string) != params.Layers[0] {
				return validation.NewError("maps.block.image_layer_mismatch", "image must be the first layer")
			}
			return nil
		})),
		validation.Field(&params.MaxZoom, validation.By(func(value any) error {
			max, _ := value.(*float64)
			if max == nil || params.MinZoom == nil {
				return nil
			}
			if *max < *params.MinZoom {
				return validation.NewError("maps.block.zoom_range", "maxZoom must not be lower than minZoom")
			}
			return nil
		})),
		validation.Field(&params.Tooltip, validation.In("always", "hover", "never")),
	)
}
