package markers

import (
	"strings"

	"github.com/google/uuid"

	"github.com/goliatone/go-mapblocks/internal/domain"
	"github.com/goliatone/go-mapblocks/internal/geo"
	"github.com/goliatone/go-mapblocks/internal/identity"
)

// Marker is one placed marker. It owns exactly one presentation proxy.
type Marker struct {
	id          string
	markerType  string
	icon        string
	loc         geo.LatLng
	percent     *[2]float64
	target      Target
	mutable     bool
	layer       string
	zoom        *float64
	minZoom     *float64
	maxZoom     *float64
	tooltip     Tooltip
	description string
	groupID     string

	state    domain.VisibilityState
	proxy    *Proxy
	listener Listener
}

// Option customises a marker at construction.
type Option func(*Marker)

// WithGroupID ties an immutable marker to the note field that produced it.
func WithGroupID(groupID string) Option {
	return func(m *Marker) {
		m.groupID = groupID
	}
}

// WithListener sets the event listener.
func WithListener(listener Listener) Option {
	return func(m *Marker) {
		m.listener = listener
	}
}

// WithIcon sets the icon name pushed to the proxy.
func WithIcon(icon string) Option {
	return func(m *Marker) {
		m.icon = icon
	}
}

// NewID mints a marker id.
func NewID() string {
	return identity.MarkerID(uuid.New())
}

// New builds a marker from its persisted properties. A missing id is generated
// once and kept for the marker's lifetime.
func New(props Properties, opts ...Option) *Marker {
	id := strings.TrimSpace(props.ID)
	if id == "" {
		id = NewID()
	}
	m := &Marker{
		id:          id,
		markerType:  domain.NormalizeMarkerType(props.Type),
		loc:         props.Loc,
		percent:     copyPercent(props.Percent),
		target:      NewTarget(props.Link, props.Command),
		mutable:     props.Mutable,
		layer:       props.Layer,
		zoom:        copyFloat(props.Zoom),
		minZoom:     copyFloat(props.MinZoom),
		maxZoom:     copyFloat(props.MaxZoom),
		tooltip:     props.Tooltip,
		description: props.Description,
		state:       domain.VisibilityHiddenZoom,
		proxy:       &Proxy{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

// Properties returns the persisted shape of the marker.
func (m *Marker) Properties() Properties {
	return Properties{
		ID:          m.id,
		Type:        m.markerType,
		Loc:         m.loc,
		Link:        m.target.Text,
		Layer:       m.layer,
		Mutable:     m.mutable,
		Command:     m.target.IsCommand(),
		Zoom:        copyFloat(m.zoom),
		Percent:     copyPercent(m.percent),
		Description: m.description,
		MinZoom:     copyFloat(m.minZoom),
		MaxZoom:     copyFloat(m.maxZoom),
		Tooltip:     m.tooltip,
	}
}

func (m *Marker) ID() string                    { return m.id }
func (m *Marker) Type() string                  { return m.markerType }
func (m *Marker) Loc() geo.LatLng               { return m.loc }
func (m *Marker) Percent() *[2]float64          { return copyPercent(m.percent) }
func (m *Marker) Link() string                  { return m.target.Text }
func (m *Marker) Command() bool                 { return m.target.IsCommand() }
func (m *Marker) Target() Target                { return m.target }
func (m *Marker) Mutable() bool                 { return m.mutable }
func (m *Marker) Layer() string                 { return m.layer }
func (m *Marker) GroupID() string               { return m.groupID }
func (m *Marker) Description() string           { return m.description }
func (m *Marker) Tooltip() Tooltip              { return m.tooltip }
func (m *Marker) Proxy() *Proxy                 { return m.proxy }
func (m *Marker) State() domain.VisibilityState { return m.state }

// Displayed reports whether the marker is in its display group.
func (m *Marker) Displayed() bool {
	return !m.state.Hidden()
}

// ZoomRange returns copies of the visibility bounds.
func (m *Marker) ZoomRange() (*float64, *float64) {
	return copyFloat(m.minZoom), copyFloat(m.maxZoom)
}

// SetLink replaces the target text and keeps the target kind.
func (m *Marker) SetLink(link string) {
	m.target = NewTarget(link, m.target.IsCommand())
}

// SetCommand switches the target kind without losing the text.
func (m *Marker) SetCommand(command bool) {
	m.target = m.target.WithCommand(command)
}

// SetMutable marks the marker as user editable.
func (m *Marker) SetMutable(mutable bool) {
	m.mutable = mutable
}

// SetType changes the icon category. The owning view moves the proxy between
// display groups.
func (m *Marker) SetType(markerType string) {
	m.markerType = domain.NormalizeMarkerType(markerType)
}

// SetIcon changes the icon name drawn by the proxy.
func (m *Marker) SetIcon(icon string) {
	m.icon = icon
}

// SetLoc moves the marker and recomputes its image relative position.
func (m *Marker) SetLoc(loc geo.LatLng, bounds *ImageBounds) {
	m.loc = loc
	if percent := PercentOf(loc, bounds); percent != nil {
		m.percent = percent
	}
}

// SetDescription replaces the free-form description.
func (m *Marker) SetDescription(description string) {
	m.description = description
}

// SetTooltip changes the tooltip mode.
func (m *Marker) SetTooltip(tooltip Tooltip) {
	m.tooltip = tooltip
}

// SetZoomRange replaces the visibility bounds.
func (m *Marker) SetZoomRange(minZoom, maxZoom *float64) {
	m.minZoom = copyFloat(minZoom)
	m.maxZoom = copyFloat(maxZoom)
}

// SetListener replaces the event listener.
func (m *Marker) SetListener(listener Listener) {
	m.listener = listener
}

// Sync pushes the current state onto the proxy.
func (m *Marker) Sync(label DisplayLabel) ProxyPatch {
	patch := SyncToPresentation(m, label)
	m.proxy.Apply(patch)
	return patch
}

// ShouldShow reports whether a zoom change should display the marker. Markers
// without bounds always qualify; otherwise both bounds must be set.
func (m *Marker) ShouldShow(zoom float64) bool {
	if m.minZoom == nil && m.maxZoom == nil {
		return true
	}
	if !m.state.Hidden() {
		return false
	}
	if m.minZoom == nil || m.maxZoom == nil {
		return false
	}
	return *m.minZoom <= zoom && zoom <= *m.maxZoom
}

// ShouldHide reports whether a zoom change should remove a displayed marker.
// Either bound is enough to hide.
func (m *Marker) ShouldHide(zoom float64) bool {
	if m.state.Hidden() {
		return false
	}
	if m.minZoom != nil && zoom < *m.minZoom {
		return true
	}
	return m.maxZoom != nil && zoom > *m.maxZoom
}

// Show adds the proxy to group. Showing a displayed marker does nothing.
func (m *Marker) Show(group *DisplayGroup) bool {
	if !m.state.Hidden() {
		return false
	}
	group.add(m)
	m.state = domain.VisibilityShown
	return true
}

// Hide removes the proxy from group, recording why. Hiding a hidden marker
// does nothing.
func (m *Marker) Hide(group *DisplayGroup, reason domain.VisibilityState) bool {
	if m.state.Hidden() {
		return false
	}
	if !reason.Hidden() {
		reason = domain.VisibilityHiddenZoom
	}
	group.remove(m)
	m.state = reason
	return true
}

func (m *Marker) emit(kind EventKind, previous *geo.LatLng) {
	if m.listener == nil {
		return
	}
	m.listener(Event{Kind: kind, MarkerID: m.id, Properties: m.Properties(), Previous: previous})
}

// Added announces a newly placed marker.
func (m *Marker) Added() {
	m.emit(EventAdded, nil)
}

// Updated announces a committed property edit.
func (m *Marker) Updated() {
	m.emit(EventUpdated, nil)
}

// Drag moves the marker while the user is still dragging it.
func (m *Marker) Drag(loc geo.LatLng, bounds *ImageBounds) {
	previous := m.loc
	m.SetLoc(loc, bounds)
	m.emit(EventDragging, &previous)
}

// Drop commits a move.
func (m *Marker) Drop(loc geo.LatLng, bounds *ImageBounds, previous geo.LatLng) {
	m.SetLoc(loc, bounds)
	m.emit(EventDataUpdated, &previous)
}

// Deleted announces removal.
func (m *Marker) Deleted() {
	m.emit(EventDeleted, nil)
}
