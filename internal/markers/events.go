package markers

import "github.com/goliatone/go-mapblocks/internal/geo"

// EventKind names a marker lifecycle event.
type EventKind string

const (
	EventAdded       EventKind = "marker-added"
	EventUpdated     EventKind = "marker-updated"
	EventDataUpdated EventKind = "marker-data-updated"
	EventDragging    EventKind = "marker-dragging"
	EventDeleted     EventKind = "marker-deleted"
)

// Event carries enough state for another view of the same map to locate and
// update its copy of the marker.
type Event struct {
	Kind       EventKind
	MarkerID   string
	Properties Properties
	// Previous is the position before a move, set for dragging and data-updated events.
	Previous *geo.LatLng
}

// Listener receives marker events.
type Listener func(Event)
