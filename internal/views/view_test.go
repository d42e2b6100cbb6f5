package views

import (
	"errors"
	"testing"

	"github.com/goliatone/go-mapblocks/internal/domain"
	"github.com/goliatone/go-mapblocks/internal/geo"
	"github.com/goliatone/go-mapblocks/internal/icons"
	"github.com/goliatone/go-mapblocks/internal/markers"
	"github.com/goliatone/go-mapblocks/internal/resolver"
)

func floatPtr(v float64) *float64 { return &v }

func sampleResult() resolver.Result {
	return resolver.Result{
		Markers: []resolver.MarkerTuple{
			{Type: "default", Lat: 40, Long: -75, Link: "Note", Category: domain.CategoryMarker, Source: "default,40,-75,[[Note]]"},
			{Type: "default", Lat: 41, Long: -74, Link: "Zoomed", MinZoom: floatPtr(2), MaxZoom: floatPtr(5), Category: domain.CategoryMarker, Source: "default,41,-74,[[Zoomed]],,2,5"},
			{Type: "castle", Lat: 10, Long: 20, Link: "notes/keep", GroupID: "g1", Category: domain.CategoryMarker, Source: "notes/keep.md"},
		},
		Overlays: []resolver.OverlayTuple{
			{Color: "blue", Loc: geo.LatLng{Lat: 10, Lng: 20}, Length: "5 km", Description: "keep", GroupID: "g1", Category: domain.CategoryOverlay, Source: "notes/keep.md"},
		},
		SourceIndex: resolver.SourceIndex{
			"notes/keep.md": {domain.CategoryMarker: "g1"},
		},
	}
}

func testIcons() *icons.Registry {
	return icons.NewRegistry(nil, icons.Icon{Type: "castle", IconName: "chess-rook"}, icons.Icon{Type: "tavern", IconName: "beer"})
}

func TestLoadResolvedUsesStableIDs(t *testing.T) {
	first := New(Config{MapID: "world", Icons: testIcons()})
	second := New(Config{MapID: "world", Icons: testIcons()})
	first.LoadResolved(sampleResult())
	second.LoadResolved(sampleResult())

	a, b := first.Markers(), second.Markers()
	if len(a) != 3 || len(b) != 3 {
		t.Fatalf("expected 3 markers per view, got %d and %d", len(a), len(b))
	}
	for i := range a {
		if a[i].ID() != b[i].ID() {
			t.Fatalf("marker %d: ids differ %q vs %q", i, a[i].ID(), b[i].ID())
		}
		if a[i].Mutable() {
			t.Fatalf("resolved marker %q must be immutable", a[i].ID())
		}
	}
	if len(first.Overlays()) != 1 {
		t.Fatalf("expected 1 overlay, got %d", len(first.Overlays()))
	}

	first.LoadResolved(sampleResult())
	if got := len(first.Markers()); got != 3 {
		t.Fatalf("reloading must replace in place, got %d markers", got)
	}
}

func TestSetZoomRunsVisibilityStateMachine(t *testing.T) {
	v := New(Config{MapID: "world", Zoom: 1})
	v.LoadResolved(sampleResult())
	markersByLink := map[string]*markers.Marker{}
	for _, m := range v.Markers() {
		markersByLink[m.Link()] = m
	}
	free, zoomed := markersByLink["Note"], markersByLink["Zoomed"]

	if !free.Displayed() {
		t.Fatalf("unbounded marker should be displayed")
	}
	if zoomed.Displayed() || zoomed.State() != domain.VisibilityHiddenZoom {
		t.Fatalf("bounded marker should start hidden at zoom 1, state %q", zoomed.State())
	}

	v.SetZoom(3)
	if !zoomed.Displayed() {
		t.Fatalf("bounded marker should show at zoom 3")
	}
	if !v.Group("default").Has(zoomed.ID()) {
		t.Fatalf("shown marker should be in its display group")
	}

	v.SetZoom(6)
	if zoomed.Displayed() || v.Group("default").Has(zoomed.ID()) {
		t.Fatalf("bounded marker should hide at zoom 6")
	}
	if !free.Displayed() {
		t.Fatalf("unbounded marker should stay displayed")
	}
}

func TestSingleBoundMarkerNeverReappears(t *testing.T) {
	v := New(Config{MapID: "world", Zoom: 5})
	v.LoadResolved(resolver.Result{Markers: []resolver.MarkerTuple{
		{Type: "default", Lat: 1, Long: 1, MinZoom: floatPtr(4), Category: domain.CategoryMarker, Source: "row"},
	}})
	m := v.Markers()[0]
	if !m.Displayed() {
		t.Fatalf("marker inside its bound should be displayed on arrival")
	}
	v.SetZoom(2)
	if m.Displayed() {
		t.Fatalf("single bound should be enough to hide")
	}
	v.SetZoom(5)
	if m.Displayed() {
		t.Fatalf("single bound marker should not show again")
	}
}

func TestSetTypeVisible(t *testing.T) {
	v := New(Config{MapID: "world", Icons: testIcons()})
	v.LoadResolved(sampleResult())

	v.SetTypeVisible("castle", false)
	if v.TypeVisible("castle") {
		t.Fatalf("castle should be hidden")
	}
	if v.Group("castle").Len() != 0 {
		t.Fatalf("castle group should be empty")
	}
	v.SetZoom(3)
	if v.Group("castle").Len() != 0 {
		t.Fatalf("zoom changes must not restore a hidden type")
	}

	v.SetTypeVisible("castle", true)
	if v.Group("castle").Len() != 1 {
		t.Fatalf("castle marker should be restored")
	}
}

func TestChangeTypeMovesMarkerBetweenGroups(t *testing.T) {
	v := New(Config{MapID: "world", Icons: testIcons()})
	m := v.AddMarker(markers.Properties{Type: "castle", Loc: geo.LatLng{Lat: 1, Lng: 2}})

	tavern := "tavern"
	if err := v.UpdateMarker(m.ID(), MarkerPatch{Type: &tavern}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if v.Group("castle").Has(m.ID()) {
		t.Fatalf("marker should leave the castle group")
	}
	if !v.Group("tavern").Has(m.ID()) {
		t.Fatalf("marker should join the tavern group")
	}
	if got := m.Proxy().State().Icon; got != "beer" {
		t.Fatalf("expected proxy icon beer, got %q", got)
	}

	unknown := "dragon"
	if err := v.UpdateMarker(m.ID(), MarkerPatch{Type: &unknown}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if m.Type() != domain.DefaultMarkerType {
		t.Fatalf("unknown type should resolve to default, got %q", m.Type())
	}
}

func TestRetractGroupsRemovesContributedItems(t *testing.T) {
	v := New(Config{MapID: "world"})
	v.LoadResolved(sampleResult())

	if removed := v.RetractGroups(nil); removed != 0 {
		t.Fatalf("empty retraction removed %d", removed)
	}
	if removed := v.RetractGroups([]string{"g1"}); removed != 2 {
		t.Fatalf("expected 2 removed items, got %d", removed)
	}
	if len(v.Markers()) != 2 || len(v.Overlays()) != 0 {
		t.Fatalf("unexpected remaining items: %d markers, %d overlays", len(v.Markers()), len(v.Overlays()))
	}
	if _, ok := v.SourceIndex()["notes/keep.md"]; ok {
		t.Fatalf("source index entry should be dropped")
	}
}

func TestReplaceDocumentSwapsContribution(t *testing.T) {
	v := New(Config{MapID: "world"})
	v.LoadResolved(sampleResult())

	next := resolver.Result{
		Markers: []resolver.MarkerTuple{
			{Type: "default", Lat: 11, Long: 21, Link: "notes/keep", GroupID: "g2", Category: domain.CategoryMarker, Source: "notes/keep.md"},
		},
		SourceIndex: resolver.SourceIndex{"notes/keep.md": {domain.CategoryMarker: "g2"}},
	}
	if removed := v.ReplaceDocument("notes/keep.md", next); removed != 2 {
		t.Fatalf("expected 2 retracted items, got %d", removed)
	}
	var moved *markers.Marker
	for _, m := range v.Markers() {
		if m.Link() == "notes/keep" {
			moved = m
		}
	}
	if moved == nil || moved.Loc() != (geo.LatLng{Lat: 11, Lng: 21}) {
		t.Fatalf("expected replacement marker at 11,21, got %+v", moved)
	}
}

func TestMutableMarkersOnlyListsUserMarkers(t *testing.T) {
	v := New(Config{MapID: "world", Zoom: 4})
	v.LoadResolved(sampleResult())
	placed := v.AddMarker(markers.Properties{Loc: geo.LatLng{Lat: 5, Lng: 6}})

	got := v.MutableMarkers()
	if len(got) != 1 || got[0].ID != placed.ID() {
		t.Fatalf("expected only the placed marker, got %+v", got)
	}
	if !got[0].Mutable || got[0].Layer != domain.DefaultLayer {
		t.Fatalf("unexpected persisted shape %+v", got[0])
	}
	if got[0].Zoom == nil || *got[0].Zoom != 4 {
		t.Fatalf("placement zoom should be recorded, got %v", got[0].Zoom)
	}
}

func TestMutationOnUnknownMarker(t *testing.T) {
	v := New(Config{MapID: "world"})
	err := v.MoveMarker("ID_missing", geo.LatLng{})
	if !errors.Is(err, ErrMarkerNotFound) {
		t.Fatalf("expected ErrMarkerNotFound, got %v", err)
	}
}
