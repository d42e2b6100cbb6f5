package views

import (
	"github.com/goliatone/go-mapblocks/internal/geo"
	"github.com/goliatone/go-mapblocks/internal/markers"
)

// Message is a marker mutation replicated between views of the same map.
type Message interface {
	Map() string
	Marker() string
}

// Added is sent when a marker is placed.
type Added struct {
	MapID      string
	Properties markers.Properties
}

// Moved is sent when a drag is committed.
type Moved struct {
	MapID    string
	MarkerID string
	Loc      geo.LatLng
	Previous geo.LatLng
}

// Dragging is sent while a marker is being dragged.
type Dragging struct {
	MapID    string
	MarkerID string
	Loc      geo.LatLng
	Previous geo.LatLng
}

// Updated is sent when a property edit is committed.
type Updated struct {
	MapID      string
	Properties markers.Properties
}

// Deleted is sent when a marker is removed.
type Deleted struct {
	MapID    string
	MarkerID string
}

func (m Added) Map() string       { return m.MapID }
func (m Added) Marker() string    { return m.Properties.ID }
func (m Moved) Map() string       { return m.MapID }
func (m Moved) Marker() string    { return m.MarkerID }
func (m Dragging) Map() string    { return m.MapID }
func (m Dragging) Marker() string { return m.MarkerID }
func (m Updated) Map() string     { return m.MapID }
func (m Updated) Marker() string  { return m.Properties.ID }
func (m Deleted) Map() string     { return m.MapID }
func (m Deleted) Marker() string  { return m.MarkerID }

// messageFromEvent maps a marker event onto its replicated message.
func messageFromEvent(mapID string, event markers.Event) Message {
	previous := event.Properties.Loc
	if event.Previous != nil {
		previous = *event.Previous
	}
	switch event.Kind {
	case markers.EventAdded:
		return Added{MapID: mapID, Properties: event.Properties}
	case markers.EventDataUpdated:
		return Moved{MapID: mapID, MarkerID: event.MarkerID, Loc: event.Properties.Loc, Previous: previous}
	case markers.EventDragging:
		return Dragging{MapID: mapID, MarkerID: event.MarkerID, Loc: event.Properties.Loc, Previous: previous}
	case markers.EventUpdated:
		return Updated{MapID: mapID, Properties: event.Properties}
	case markers.EventDeleted:
		return Deleted{MapID: mapID, MarkerID: event.MarkerID}
	default:
		return nil
	}
}
