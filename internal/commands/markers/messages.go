package markerscmd

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-mapblocks/internal/markers"
)

const (
	addMarkerMessageType    = "maps.markers.add"
	moveMarkerMessageType   = "maps.markers.move"
	updateMarkerMessageType = "maps.markers.update"
	deleteMarkerMessageType = "maps.markers.delete"
)

// AddMarkerCommand places a user marker on an open map.
type AddMarkerCommand struct {
	// MapID selects the map; every open view of it receives the marker.
	MapID string `json:"map_id"`
	// View optionally names the view handle the edit originates from.
	View        string   `json:"view,omitempty"`
	MarkerID    string   `json:"marker_id,omitempty"`
	MarkerType  string   `json:"type,omitempty"`
	Lat         float64  `json:"lat"`
	Long        float64  `json:"long"`
	Link        string   `json:"link,omitempty"`
	Command     bool     `json:"command,omitempty"`
	Description string   `json:"description,omitempty"`
	Layer       string   `json:"layer,omitempty"`
	MinZoom     *float64 `json:"min_zoom,omitempty"`
	MaxZoom     *float64 `json:"max_zoom,omitempty"`
}

// Type implements command.Message.
func (AddMarkerCommand) Type() string { return addMarkerMessageType }

// Validate ensures the map id is present and the zoom range is ordered.
func (cmd AddMarkerCommand) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.MapID, validation.Required, validation.By(notBlank("maps.markers.add.map_id_required", "map id is required"))),
		validation.Field(&cmd.MaxZoom, validation.By(zoomOrder(cmd.MinZoom))),
	)
}

// MoveMarkerCommand moves a marker. Dragging moves are replicated but not persisted.
type MoveMarkerCommand struct {
	MapID    string  `json:"map_id"`
	View     string  `json:"view,omitempty"`
	MarkerID string  `json:"marker_id"`
	Lat      float64 `json:"lat"`
	Long     float64 `json:"long"`
	Dragging bool    `json:"dragging,omitempty"`
}

// Type implements command.Message.
func (MoveMarkerCommand) Type() string { return moveMarkerMessageType }

// Validate ensures the marker reference is complete.
func (cmd MoveMarkerCommand) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.MapID, validation.Required, validation.By(notBlank("maps.markers.move.map_id_required", "map id is required"))),
		validation.Field(&cmd.MarkerID, validation.Required, validation.By(notBlank("maps.markers.move.marker_id_required", "marker id is required"))),
	)
}

// UpdateMarkerCommand edits marker properties. Nil fields are left untouched.
type UpdateMarkerCommand struct {
	MapID       string   `json:"map_id"`
	View        string   `json:"view,omitempty"`
	MarkerID    string   `json:"marker_id"`
	MarkerType  *string  `json:"type,omitempty"`
	Link        *string  `json:"link,omitempty"`
	Command     *bool    `json:"command,omitempty"`
	Description *string  `json:"description,omitempty"`
	Tooltip     *string  `json:"tooltip,omitempty"`
	MinZoom     *float64 `json:"min_zoom,omitempty"`
	MaxZoom     *float64 `json:"max_zoom,omitempty"`
	ClearZoom   bool     `json:"clear_zoom,omitempty"`
}

// Type implements command.Message.
func (UpdateMarkerCommand) Type() string { return updateMarkerMessageType }

// Validate ensures the marker reference is complete and the edit is coherent.
func (cmd UpdateMarkerCommand) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.MapID, validation.Required, validation.By(notBlank("maps.markers.update.map_id_required", "map id is required"))),
		validation.Field(&cmd.MarkerID, validation.Required, validation.By(notBlank("maps.markers.update.marker_id_required", "marker id is required"))),
		validation.Field(&cmd.Tooltip, validation.NilOrNotEmpty, validation.In(
			string(markers.TooltipAlways), string(markers.TooltipHover), string(markers.TooltipNever),
		)),
		validation.Field(&cmd.MaxZoom, validation.By(zoomOrder(cmd.MinZoom))),
		validation.Field(&cmd.ClearZoom, validation.By(func(any) error {
			if cmd.ClearZoom && (cmd.MinZoom != nil || cmd.MaxZoom != nil) {
				return validation.NewError("maps.markers.update.zoom_conflict", "clear_zoom cannot be combined with zoom bounds")
			}
			return nil
		})),
	)
}

// DeleteMarkerCommand removes a marker.
type DeleteMarkerCommand struct {
	MapID    string `json:"map_id"`
	View     string `json:"view,omitempty"`
	MarkerID string `json:"marker_id"`
}

// Type implements command.Message.
func (DeleteMarkerCommand) Type() string { return deleteMarkerMessageType }

// Validate ensures the marker reference is complete.
func (cmd DeleteMarkerCommand) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.MapID, validation.Required, validation.By(notBlank("maps.markers.delete.map_id_required", "map id is required"))),
		validation.Field(&cmd.MarkerID, validation.Required, validation.By(notBlank("maps.markers.delete.marker_id_required", "marker id is required"))),
	)
}

func notBlank(code, message string) validation.RuleFunc {
	return func(value any) error {
		if strings.TrimSpace(value.(string)) == "" {
			return validation.NewError(code, message)
		}
		return nil
	}
}

func zoomOrder(minZoom *float64) validation.RuleFunc {
	return func(value any) error {
		maxZoom, _ := value.(*float64)
		if minZoom != nil && maxZoom != nil && *maxZoom < *minZoom {
			return validation.NewError("maps.markers.zoom_order", "max zoom must not be lower than min zoom")
		}
		return nil
	}
}
