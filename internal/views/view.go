package views

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/goliatone/go-mapblocks/internal/domain"
	"github.com/goliatone/go-mapblocks/internal/geo"
	"github.com/goliatone/go-mapblocks/internal/icons"
	"github.com/goliatone/go-mapblocks/internal/identity"
	"github.com/goliatone/go-mapblocks/internal/markers"
	"github.com/goliatone/go-mapblocks/internal/overlays"
	"github.com/goliatone/go-mapblocks/internal/resolver"
	"github.com/goliatone/go-mapblocks/pkg/interfaces"
)

// Config describes one rendered map instance.
type Config struct {
	MapID    string
	Document string
	Layers   []string
	Bounds   *markers.ImageBounds
	Zoom     float64
	Tooltip  markers.Tooltip
	Icons    *icons.Registry
	Palette  interfaces.CommandPalette
}

// MarkerPatch lists the editable marker fields. Nil fields are left alone.
type MarkerPatch struct {
	Type        *string
	Link        *string
	Command     *bool
	Description *string
	Tooltip     *markers.Tooltip
	MinZoom     *float64
	MaxZoom     *float64
	ClearZoom   bool

	// exactZoom replaces both bounds, nil included. Replicated updates use it
	// so every view ends with the origin's window.
	exactZoom bool
}

// View is one open rendering of a map. Several views may show the same map id.
type View struct {
	handle   string
	mapID    string
	document string
	layers   []string
	bounds   *markers.ImageBounds
	tooltip  markers.Tooltip
	icons    *icons.Registry
	palette  interfaces.CommandPalette

	mu          sync.Mutex
	zoom        float64
	markers     map[string]*markers.Marker
	order       []string
	groups      map[string]*markers.DisplayGroup
	overlays    map[string]*overlays.Overlay
	overlayIDs  []string
	hiddenTypes map[string]struct{}
	sourceIndex resolver.SourceIndex
	geojson     []geo.GeoJSONLayer
	pending     []Message
	publish     func(Message)
}

// New creates an empty view.
func New(cfg Config) *View {
	layers := append([]string(nil), cfg.Layers...)
	if len(layers) == 0 {
		layers = []string{domain.DefaultLayer}
	}
	registry := cfg.Icons
	if registry == nil {
		registry = icons.NewRegistry(nil)
	}
	tooltip := cfg.Tooltip
	if tooltip == "" {
		tooltip = markers.TooltipHover
	}
	return &View{
		handle:      uuid.NewString(),
		mapID:       cfg.MapID,
		document:    cfg.Document,
		layers:      layers,
		bounds:      cfg.Bounds,
		tooltip:     tooltip,
		icons:       registry,
		palette:     cfg.Palette,
		zoom:        cfg.Zoom,
		markers:     map[string]*markers.Marker{},
		groups:      map[string]*markers.DisplayGroup{},
		overlays:    map[string]*overlays.Overlay{},
		hiddenTypes: map[string]struct{}{},
		sourceIndex: resolver.SourceIndex{},
	}
}

func (v *View) Handle() string   { return v.handle }
func (v *View) MapID() string    { return v.mapID }
func (v *View) Document() string { return v.document }

// Layers returns the image layers; the first one is the map image.
func (v *View) Layers() []string {
	return append([]string(nil), v.layers...)
}

// Zoom returns the current zoom level.
func (v *View) Zoom() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.zoom
}

// LoadResolved adds the immutable markers and overlays of a resolution pass.
// Ids are derived from the declaration so re-resolving replaces in place.
func (v *View) LoadResolved(result resolver.Result) []domain.Warning {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.loadResolvedLocked(result)
}

func (v *View) loadResolvedLocked(result resolver.Result) []domain.Warning {
	var warnings []domain.Warning
	ordinals := map[string]int{}
	for _, tuple := range result.Markers {
		key := string(tuple.Category) + ":" + tuple.Source
		ordinal := ordinals[key]
		ordinals[key]++
		id := identity.MarkerID(identity.ImmutableMarkerUUID(v.mapID, key, ordinal))
		props := markers.Properties{
			ID:          id,
			Type:        tuple.Type,
			Loc:         tuple.Loc(),
			Link:        tuple.Link,
			Layer:       lo.Ternary(tuple.Layer != "", tuple.Layer, v.layers[0]),
			Command:     tuple.Command,
			Percent:     markers.PercentOf(tuple.Loc(), v.bounds),
			Description: tuple.Description,
			MinZoom:     tuple.MinZoom,
			MaxZoom:     tuple.MaxZoom,
			Tooltip:     v.tooltip,
		}
		v.addLocked(markers.New(props, markers.WithGroupID(tuple.GroupID)))
	}

	ordinals = map[string]int{}
	for _, tuple := range result.Overlays {
		key := string(tuple.Category) + ":" + tuple.Source
		ordinal := ordinals[key]
		ordinals[key]++
		id := identity.MarkerID(identity.OverlayUUID(v.mapID, key, ordinal))
		overlay, err := overlays.FromLength(id, tuple.Color, tuple.Loc, tuple.Length, tuple.Description, tuple.GroupID)
		if err != nil {
			warnings = append(warnings, domain.Warning{Category: tuple.Category, Source: tuple.Source, Message: err.Error()})
			continue
		}
		v.addOverlayLocked(overlay)
	}

	v.sourceIndex.Merge(result.SourceIndex)
	v.geojson = append(v.geojson, result.GeoJSON...)
	return warnings
}

// LoadRecord adds persisted user placed markers and overlays.
func (v *View) LoadRecord(markerProps []markers.Properties, overlayProps []overlays.Properties) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, props := range markerProps {
		props.Mutable = true
		v.addLocked(markers.New(props))
	}
	for _, props := range overlayProps {
		props.Mutable = true
		v.addOverlayLocked(overlays.New(props))
	}
}

// AddMarker places a user marker and announces it to the other views.
func (v *View) AddMarker(props markers.Properties) *markers.Marker {
	v.mu.Lock()
	props.Mutable = true
	if props.Layer == "" {
		props.Layer = v.layers[0]
	}
	if props.Tooltip == "" {
		props.Tooltip = v.tooltip
	}
	if props.Zoom == nil {
		zoom := v.zoom
		props.Zoom = &zoom
	}
	if props.Percent == nil {
		props.Percent = markers.PercentOf(props.Loc, v.bounds)
	}
	m := markers.New(props)
	v.addLocked(m)
	m.Added()
	msgs, publish := v.drainLocked()
	v.mu.Unlock()

	flush(publish, msgs)
	return m
}

// MoveMarker commits a drag of marker id to loc.
func (v *View) MoveMarker(id string, loc geo.LatLng) error {
	return v.withMarker(id, func(m *markers.Marker) {
		m.Drop(loc, v.bounds, m.Loc())
		m.Sync(v.label(m))
	})
}

// DragMarker moves marker id while the drag is in progress.
func (v *View) DragMarker(id string, loc geo.LatLng) error {
	return v.withMarker(id, func(m *markers.Marker) {
		m.Drag(loc, v.bounds)
		m.Sync(v.label(m))
	})
}

// UpdateMarker applies a property edit and announces it.
func (v *View) UpdateMarker(id string, patch MarkerPatch) error {
	return v.withMarker(id, func(m *markers.Marker) {
		v.applyPatchLocked(m, patch)
		m.Updated()
	})
}

// DeleteMarker removes marker id and announces it.
func (v *View) DeleteMarker(id string) error {
	return v.withMarker(id, func(m *markers.Marker) {
		m.Deleted()
		v.removeLocked(m)
	})
}

func (v *View) withMarker(id string, fn func(*markers.Marker)) error {
	v.mu.Lock()
	m, ok := v.markers[id]
	if !ok {
		v.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrMarkerNotFound, id)
	}
	fn(m)
	msgs, publish := v.drainLocked()
	v.mu.Unlock()

	flush(publish, msgs)
	return nil
}

// Marker returns marker id.
func (v *View) Marker(id string) (*markers.Marker, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	m, ok := v.markers[id]
	return m, ok
}

// Markers lists markers in insertion order.
func (v *View) Markers() []*markers.Marker {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]*markers.Marker, 0, len(v.order))
	for _, id := range v.order {
		out = append(out, v.markers[id])
	}
	return out
}

// Overlays lists overlays in insertion order.
func (v *View) Overlays() []*overlays.Overlay {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]*overlays.Overlay, 0, len(v.overlayIDs))
	for _, id := range v.overlayIDs {
		out = append(out, v.overlays[id])
	}
	return out
}

// GeoJSON lists the decoded GeoJSON layers.
func (v *View) GeoJSON() []geo.GeoJSONLayer {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]geo.GeoJSONLayer(nil), v.geojson...)
}

// MutableMarkers returns the persisted shape of every user placed marker.
func (v *View) MutableMarkers() []markers.Properties {
	v.mu.Lock()
	defer v.mu.Unlock()
	var out []markers.Properties
	for _, id := range v.order {
		if m := v.markers[id]; m.Mutable() {
			out = append(out, m.Properties())
		}
	}
	return out
}

// MutableOverlays returns the persisted shape of every user drawn overlay.
func (v *View) MutableOverlays() []overlays.Properties {
	v.mu.Lock()
	defer v.mu.Unlock()
	var out []overlays.Properties
	for _, id := range v.overlayIDs {
		if o := v.overlays[id]; o.Mutable() {
			out = append(out, o.Properties())
		}
	}
	return out
}

// SourceIndex returns the groups each note contributed.
func (v *View) SourceIndex() resolver.SourceIndex {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := resolver.SourceIndex{}
	out.Merge(v.sourceIndex)
	return out
}

// SetZoom runs the visibility state machine for every marker.
func (v *View) SetZoom(zoom float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.zoom = zoom
	for _, id := range v.order {
		v.applyZoomLocked(v.markers[id])
	}
}

// Group returns the display group of markerType.
func (v *View) Group(markerType string) *markers.DisplayGroup {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.groupLocked(markerType)
}

// SetTypeVisible retracts or restores every marker of markerType.
func (v *View) SetTypeVisible(markerType string, visible bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	group := v.groupLocked(markerType)
	if visible {
		delete(v.hiddenTypes, group.Type)
	} else {
		v.hiddenTypes[group.Type] = struct{}{}
	}
	for _, id := range v.order {
		m := v.markers[id]
		if m.Type() != group.Type {
			continue
		}
		if !visible {
			m.Hide(group, domain.VisibilityHiddenGroup)
			continue
		}
		if m.State() == domain.VisibilityHiddenGroup {
			v.placeLocked(m)
		}
	}
}

// TypeVisible reports whether markerType is currently shown on the map.
func (v *View) TypeVisible(markerType string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	_, hidden := v.hiddenTypes[domain.NormalizeMarkerType(markerType)]
	return !hidden
}

// RetractGroups removes every immutable marker and overlay carrying one of
// groupIDs and returns how many items were removed.
func (v *View) RetractGroups(groupIDs []string) int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.retractLocked(groupIDs)
}

func (v *View) retractLocked(groupIDs []string) int {
	if len(groupIDs) == 0 {
		return 0
	}
	wanted := lo.SliceToMap(groupIDs, func(id string) (string, struct{}) { return id, struct{}{} })
	removed := 0
	for _, id := range append([]string(nil), v.order...) {
		m := v.markers[id]
		if _, ok := wanted[m.GroupID()]; ok && m.GroupID() != "" {
			v.removeLocked(m)
			removed++
		}
	}
	for _, id := range append([]string(nil), v.overlayIDs...) {
		o := v.overlays[id]
		if _, ok := wanted[o.GroupID()]; ok && o.GroupID() != "" {
			delete(v.overlays, id)
			v.overlayIDs = lo.Without(v.overlayIDs, id)
			removed++
		}
	}
	for path, categories := range v.sourceIndex {
		for category, group := range categories {
			if _, ok := wanted[group]; ok {
				delete(categories, category)
			}
		}
		if len(categories) == 0 {
			delete(v.sourceIndex, path)
		}
	}
	return removed
}

// ReplaceDocument retracts what path contributed and loads result in its place.
func (v *View) ReplaceDocument(path string, result resolver.Result) int {
	v.mu.Lock()
	defer v.mu.Unlock()
	removed := v.retractLocked(v.sourceIndex.Groups(path))
	v.loadResolvedLocked(result)
	return removed
}

// Apply replays a message from another view. Messages for other maps or
// unknown markers are ignored.
func (v *View) Apply(msg Message) {
	if msg == nil || msg.Map() != v.mapID {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()

	switch typed := msg.(type) {
	case Added:
		if _, exists := v.markers[typed.Properties.ID]; exists {
			return
		}
		v.addLocked(markers.New(typed.Properties))
	case Moved:
		if m, ok := v.markers[typed.MarkerID]; ok {
			m.SetLoc(typed.Loc, v.bounds)
			m.Sync(v.label(m))
		}
	case Dragging:
		if m, ok := v.markers[typed.MarkerID]; ok {
			m.SetLoc(typed.Loc, v.bounds)
			m.Sync(v.label(m))
		}
	case Updated:
		if m, ok := v.markers[typed.Properties.ID]; ok {
			p := typed.Properties
			v.applyPatchLocked(m, MarkerPatch{
				Type:        &p.Type,
				Link:        &p.Link,
				Command:     &p.Command,
				Description: &p.Description,
				Tooltip:     &p.Tooltip,
				MinZoom:     p.MinZoom,
				MaxZoom:     p.MaxZoom,
				exactZoom:   true,
			})
		}
	case Deleted:
		if m, ok := v.markers[typed.MarkerID]; ok {
			v.removeLocked(m)
		}
	}
}

func (v *View) applyPatchLocked(m *markers.Marker, patch MarkerPatch) {
	if patch.Type != nil && *patch.Type != m.Type() {
		wasShown := m.Displayed()
		m.Hide(v.groupLocked(m.Type()), domain.VisibilityHiddenZoom)
		resolved, _ := v.icons.Resolve(*patch.Type)
		m.SetType(resolved)
		m.SetIcon(v.iconName(resolved))
		if wasShown {
			v.placeLocked(m)
		}
	}
	if patch.Link != nil {
		m.SetLink(*patch.Link)
	}
	if patch.Command != nil {
		m.SetCommand(*patch.Command)
	}
	if patch.Description != nil {
		m.SetDescription(*patch.Description)
	}
	if patch.Tooltip != nil {
		m.SetTooltip(*patch.Tooltip)
	}
	switch {
	case patch.exactZoom:
		m.SetZoomRange(patch.MinZoom, patch.MaxZoom)
	case patch.ClearZoom:
		m.SetZoomRange(nil, nil)
	case patch.MinZoom != nil || patch.MaxZoom != nil:
		minZoom, maxZoom := m.ZoomRange()
		if patch.MinZoom != nil {
			minZoom = patch.MinZoom
		}
		if patch.MaxZoom != nil {
			maxZoom = patch.MaxZoom
		}
		m.SetZoomRange(minZoom, maxZoom)
	}
	v.applyZoomLocked(m)
	m.Sync(v.label(m))
}

func (v *View) addLocked(m *markers.Marker) {
	if existing, ok := v.markers[m.ID()]; ok {
		v.removeLocked(existing)
	}
	m.SetIcon(v.iconName(m.Type()))
	m.SetListener(func(event markers.Event) {
		if msg := messageFromEvent(v.mapID, event); msg != nil {
			v.pending = append(v.pending, msg)
		}
	})
	v.markers[m.ID()] = m
	v.order = append(v.order, m.ID())
	v.placeLocked(m)
	m.Sync(v.label(m))
}

func (v *View) removeLocked(m *markers.Marker) {
	m.Hide(v.groupLocked(m.Type()), domain.VisibilityHiddenZoom)
	m.SetListener(nil)
	delete(v.markers, m.ID())
	v.order = lo.Without(v.order, m.ID())
}

func (v *View) addOverlayLocked(o *overlays.Overlay) {
	if _, exists := v.overlays[o.ID()]; !exists {
		v.overlayIDs = append(v.overlayIDs, o.ID())
	}
	v.overlays[o.ID()] = o
}

// placeLocked displays a marker on arrival, then lets the zoom bounds hide it.
func (v *View) placeLocked(m *markers.Marker) {
	group := v.groupLocked(m.Type())
	if _, hidden := v.hiddenTypes[group.Type]; hidden {
		m.Hide(group, domain.VisibilityHiddenGroup)
		return
	}
	m.Show(group)
	if m.ShouldHide(v.zoom) {
		m.Hide(group, domain.VisibilityHiddenZoom)
	}
}

func (v *View) applyZoomLocked(m *markers.Marker) {
	group := v.groupLocked(m.Type())
	if _, hidden := v.hiddenTypes[group.Type]; hidden {
		return
	}
	if m.ShouldHide(v.zoom) {
		m.Hide(group, domain.VisibilityHiddenZoom)
		return
	}
	if m.ShouldShow(v.zoom) {
		m.Show(group)
	}
}

func (v *View) groupLocked(markerType string) *markers.DisplayGroup {
	group, ok := v.groups[markerType]
	if !ok {
		group = markers.NewDisplayGroup(markerType)
		v.groups[markerType] = group
	}
	return group
}

func (v *View) label(m *markers.Marker) markers.DisplayLabel {
	return markers.ResolveDisplay(m.Target(), v.palette)
}

func (v *View) iconName(markerType string) string {
	if icon, ok := v.icons.Lookup(markerType); ok {
		return icon.IconName
	}
	if icon, ok := v.icons.Lookup(domain.DefaultMarkerType); ok {
		return icon.IconName
	}
	return ""
}

func (v *View) drainLocked() ([]Message, func(Message)) {
	msgs := v.pending
	v.pending = nil
	return msgs, v.publish
}

func flush(publish func(Message), msgs []Message) {
	if publish == nil {
		return
	}
	for _, msg := range msgs {
		publish(msg)
	}
}

// Types lists the marker types present in the view.
func (v *View) Types() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	types := lo.Uniq(lo.Map(v.order, func(id string, _ int) string { return v.markers[id].Type() }))
	sort.Strings(types)
	return types
}
