package resolver

import (
	"context"
	"fmt"
	"reflect"
	"testing"
	"testing/fstest"

	"github.com/goliatone/go-mapblocks/internal/blockparams"
	"github.com/goliatone/go-mapblocks/internal/domain"
	"github.com/goliatone/go-mapblocks/internal/icons"
	"github.com/goliatone/go-mapblocks/internal/vault"
	"github.com/goliatone/go-mapblocks/pkg/interfaces"
)

func sequentialGroups() func() string {
	next := 0
	return func() string {
		next++
		return fmt.Sprintf("group-%d", next)
	}
}

func fixtureVault() *vault.FSVault {
	return vault.New(fstest.MapFS{
		"Places/Castle.md":  {Data: []byte("---\nlocation: [10, 20]\nmapmarker: castle\nmapzoom: [2, 6]\ntags: [north]\nradius: 3 km\n---\nNear [[Village]].\n")},
		"Places/Village.md": {Data: []byte("---\nlocation:\n  - [\"50%\", \"25.5%\"]\n  - [bad, 1]\n  - [1, 2]\ntags: [north, small]\n---\n")},
		"Places/Lake.md":    {Data: []byte("---\nmapoverlay: [blue, [10, 20], \"5 km\", \"test overlay\"]\n---\n")},
		"Places/Bogus.md":   {Data: []byte("---\nmapoverlay: [blue, [10, 20], \"bogus\", \"x\"]\n---\n")},
		"Places/Camp.md":    {Data: []byte("---\nlocation: [5, 5]\nmapmarkers:\n  - [tent, [1, 1], first camp, 1, 3]\n  - [default, [2, 2]]\n  - [broken]\n---\nSee [[Castle]].\n")},
		"Notes/Plain.md":    {Data: []byte("No frontmatter here, links to [[Castle]].\n")},
		"data/rivers.json":  {Data: []byte(`{"type":"FeatureCollection","features":[{"type":"Feature","geometry":{"type":"Point","coordinates":[1,2]},"properties":{}}]}`)},
	}, vault.DefaultConfig())
}

func TestResolveEndToEndInlineMarker(t *testing.T) {
	params := blockparams.Parse("id: test\nmarker: pin,40.0,-75.0,[[Note]],,2,8")
	result, err := New(nil).Resolve(context.Background(), InputFromParams(params))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(result.Markers) != 1 {
		t.Fatalf("expected one marker, got %d", len(result.Markers))
	}
	got := result.Markers[0]
	if got.Type != "default" || got.Lat != 40 || got.Long != -75 || got.Link != "Note" || got.Layer != "" ||
		got.Command || got.GroupID != "" || got.Description != "" {
		t.Fatalf("unexpected tuple %+v", got)
	}
	if got.MinZoom == nil || *got.MinZoom != 2 || got.MaxZoom == nil || *got.MaxZoom != 8 {
		t.Fatalf("unexpected zoom bounds %v %v", got.MinZoom, got.MaxZoom)
	}
}

func TestResolveInlineMarkerTypes(t *testing.T) {
	r := New(nil, WithIcons(icons.NewRegistry(nil, icons.Icon{Type: "pin"})))
	cases := []struct {
		row  string
		want string
	}{
		{row: ",1,2", want: "default"},
		{row: "undefined,1,2", want: "default"},
		{row: "pin,1,2", want: "pin"},
		{row: "default,1,2", want: "default"},
	}
	for _, tc := range cases {
		result, err := r.Resolve(context.Background(), Input{Markers: []string{tc.row}})
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if len(result.Markers) != 1 || result.Markers[0].Type != tc.want {
			t.Fatalf("row %q: got %+v want type %q", tc.row, result.Markers, tc.want)
		}
		if len(result.Warnings) != 0 {
			t.Fatalf("row %q: unexpected warnings %v", tc.row, result.Warnings)
		}
	}
}

func TestResolveInlineMarkerRows(t *testing.T) {
	rows := []string{
		"",
		"default,abc,2",
		"default,1",
		"default,1,2,[[Folder/Note, with comma|Alias]],layer-2,low,4",
	}
	result, err := New(nil).Resolve(context.Background(), Input{Markers: rows})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(result.Warnings) != 3 {
		t.Fatalf("expected 3 warnings, got %v", result.Warnings)
	}
	for _, w := range result.Warnings {
		if w.Code != codeInvalidRow {
			t.Fatalf("unexpected warning code %q", w.Code)
		}
	}
	if len(result.Markers) != 1 {
		t.Fatalf("expected one marker, got %+v", result.Markers)
	}
	got := result.Markers[0]
	if got.Link != "Folder/Note, with comma|Alias" || got.Layer != "layer-2" {
		t.Fatalf("unexpected link or layer %+v", got)
	}
	if got.MinZoom != nil || got.MaxZoom == nil || *got.MaxZoom != 4 {
		t.Fatalf("non-numeric zoom must be unbounded, got %v %v", got.MinZoom, got.MaxZoom)
	}
}

func TestResolveCommandMarkers(t *testing.T) {
	palette := interfaces.StaticPalette{{ID: "app:reload", Name: "Reload app"}}
	r := New(nil, WithCommandPalette(palette))

	result, err := r.Resolve(context.Background(), Input{CommandMarkers: []string{
		"default,1,2,reload APP",
		"default,3,4,APP:RELOAD",
		"default,5,6,missing",
	}})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(result.Markers) != 2 {
		t.Fatalf("expected two command markers, got %+v", result.Markers)
	}
	for _, m := range result.Markers {
		if !m.Command || m.Link != "app:reload" || m.Category != domain.CategoryCommandMarker {
			t.Fatalf("unexpected command marker %+v", m)
		}
	}
	if len(result.Warnings) != 1 || result.Warnings[0].Code != codeCommandNotFound {
		t.Fatalf("expected COMMAND_NOT_FOUND warning, got %v", result.Warnings)
	}
}

func TestResolveMapOverlayFrontmatter(t *testing.T) {
	r := New(fixtureVault(), WithGroupIDGenerator(sequentialGroups()))

	result, err := r.Resolve(context.Background(), Input{MapID: "m", Files: []string{"[[Lake]]"}})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(result.Overlays) != 1 {
		t.Fatalf("expected one overlay, got %+v", result.Overlays)
	}
	got := result.Overlays[0]
	if got.Color != "blue" || got.Loc.Lat != 10 || got.Loc.Lng != 20 || got.Length != "5 km" || got.Description != "test overlay" || got.GroupID == "" {
		t.Fatalf("unexpected overlay %+v", got)
	}
	if result.SourceIndex["Places/Lake.md"][domain.CategoryOverlay] != got.GroupID {
		t.Fatalf("source index not recorded: %v", result.SourceIndex)
	}

	bogus, err := r.Resolve(context.Background(), Input{MapID: "m", Files: []string{"Bogus"}})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(bogus.Overlays) != 0 || len(bogus.Warnings) != 1 {
		t.Fatalf("expected no overlays and one warning, got %+v / %v", bogus.Overlays, bogus.Warnings)
	}
	if bogus.Warnings[0].Source != "Places/Bogus.md" || bogus.Warnings[0].Code != codeInvalidOverlay {
		t.Fatalf("unexpected warning %+v", bogus.Warnings[0])
	}
}

func TestResolveLocationFrontmatter(t *testing.T) {
	registry := icons.NewRegistry(nil, icons.Icon{Type: "castle"}, icons.Icon{Type: "tent"})
	r := New(fixtureVault(), WithIcons(registry), WithGroupIDGenerator(sequentialGroups()))

	result, err := r.Resolve(context.Background(), Input{
		MapID:      "m",
		Folders:    []string{"Places"},
		OverlayTag: "radius",
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	byLink := map[string][]MarkerTuple{}
	for _, m := range result.Markers {
		byLink[m.Link] = append(byLink[m.Link], m)
	}

	castle := byLink["Places/Castle"]
	if len(castle) != 1 || castle[0].Type != "castle" || *castle[0].MinZoom != 2 || *castle[0].MaxZoom != 6 {
		t.Fatalf("unexpected castle markers %+v", castle)
	}

	village := byLink["Places/Village"]
	if len(village) != 2 || village[0].Lat != 50 || village[0].Long != 25.5 || village[1].Lat != 1 {
		t.Fatalf("unexpected village markers %+v", village)
	}
	if village[0].GroupID != village[1].GroupID {
		t.Fatalf("locations of one note must share a group")
	}

	camp := byLink["Places/Camp"]
	if len(camp) != 3 {
		t.Fatalf("expected location plus two mapmarkers for camp, got %+v", camp)
	}
	if camp[1].Type != "tent" || camp[1].Description != "first camp" || camp[1].GroupID != camp[2].GroupID || camp[1].GroupID == camp[0].GroupID {
		t.Fatalf("unexpected mapmarkers %+v", camp)
	}

	var tagOverlay *OverlayTuple
	for i := range result.Overlays {
		if result.Overlays[i].Category == domain.CategoryOverlayTag {
			tagOverlay = &result.Overlays[i]
		}
	}
	if tagOverlay == nil || tagOverlay.Length != "3 km" || tagOverlay.Description != "Castle: 3 km" || tagOverlay.Color != "blue" {
		t.Fatalf("unexpected overlay tag overlay %+v", tagOverlay)
	}

	codes := map[string]int{}
	for _, w := range result.Warnings {
		codes[w.Code]++
	}
	if codes[codeInvalidCoordinate] != 1 || codes[codeInvalidMarker] != 1 || codes[codeInvalidOverlay] != 1 {
		t.Fatalf("unexpected warnings %v", result.Warnings)
	}

	groups := result.SourceIndex["Places/Camp.md"]
	if groups[domain.CategoryMarker] == "" || groups[domain.CategoryMapMarkers] == "" {
		t.Fatalf("expected marker and mapmarkers groups for camp, got %v", groups)
	}
	if _, ok := result.SourceIndex["Places/Bogus.md"]; ok {
		t.Fatalf("notes without valid items must not be indexed")
	}
}

func TestResolveTagsWithoutIndexWarnsOnce(t *testing.T) {
	r := New(fixtureVault())
	result, err := r.Resolve(context.Background(), Input{
		Tags:      [][]string{{"north"}},
		LinksTo:   []string{"Castle"},
		LinksFrom: []string{"Camp"},
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(result.Markers) != 0 {
		t.Fatalf("filters without index must be ineffective, got %+v", result.Markers)
	}
	if len(result.Warnings) != 1 || result.Warnings[0].Code != codeIndexMissing {
		t.Fatalf("expected one consolidated warning, got %v", result.Warnings)
	}
	if result.Warnings[0].Message != "no data index installed, ignoring markerTag, linksTo, linksFrom" {
		t.Fatalf("unexpected message %q", result.Warnings[0].Message)
	}
}

func TestResolveTagFilters(t *testing.T) {
	v := fixtureVault()
	r := New(v, WithDataIndex(vault.NewIndex(v)))
	ctx := context.Background()

	only, _, err := r.Candidates(ctx, Input{Tags: [][]string{{"north", "small"}}})
	if err != nil {
		t.Fatalf("Candidates: %v", err)
	}
	if !reflect.DeepEqual(only, []string{"Places/Village.md"}) {
		t.Fatalf("AND group mismatch: %v", only)
	}

	union, _, _ := r.Candidates(ctx, Input{Tags: [][]string{{"small"}, {"north"}}})
	if len(union) != 2 {
		t.Fatalf("OR groups must union, got %v", union)
	}

	intersected, _, _ := r.Candidates(ctx, Input{Files: []string{"Castle", "Lake"}, Tags: [][]string{{"north"}}})
	if !reflect.DeepEqual(intersected, []string{"Places/Castle.md"}) {
		t.Fatalf("tags must intersect explicit files, got %v", intersected)
	}
}

func TestResolveLinkFilters(t *testing.T) {
	v := fixtureVault()
	r := New(v, WithDataIndex(vault.NewIndex(v)))
	ctx := context.Background()

	to, _, err := r.Candidates(ctx, Input{LinksTo: []string{"[[Castle]]"}})
	if err != nil {
		t.Fatalf("Candidates: %v", err)
	}
	if !reflect.DeepEqual(to, []string{"Notes/Plain.md", "Places/Camp.md"}) {
		t.Fatalf("linksTo mismatch: %v", to)
	}

	from, _, _ := r.Candidates(ctx, Input{LinksFrom: []string{"Castle"}})
	if !reflect.DeepEqual(from, []string{"Places/Village.md"}) {
		t.Fatalf("linksFrom mismatch: %v", from)
	}

	result, err := r.Resolve(ctx, Input{LinksTo: []string{"Castle"}})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if _, ok := result.SourceIndex["Notes/Plain.md"]; ok {
		t.Fatalf("notes without location or mapoverlay must be skipped")
	}
	if len(result.SourceIndex) != 1 {
		t.Fatalf("expected only camp to contribute, got %v", result.SourceIndex)
	}
}

func TestResolveDocumentsOnlyTouchesListedNotes(t *testing.T) {
	r := New(fixtureVault(), WithGroupIDGenerator(sequentialGroups()))
	result, err := r.ResolveDocuments(context.Background(), Input{MapID: "m"}, []string{"Places/Castle.md", "Places/Missing.md"})
	if err != nil {
		t.Fatalf("ResolveDocuments: %v", err)
	}
	if len(result.Markers) != 1 || result.Markers[0].Source != "Places/Castle.md" {
		t.Fatalf("unexpected markers %+v", result.Markers)
	}
}

func TestResolveGeoJSONAndBlockOverlays(t *testing.T) {
	r := New(fixtureVault())
	result, err := r.Resolve(context.Background(), Input{
		GeoJSON:  []string{"[[rivers.json]]", "missing.json"},
		Overlays: [][]any{{"red", []any{1, 2}, "2 mi", "block"}, {"red", []any{1, 2}, "far"}},
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(result.GeoJSON) != 1 || result.GeoJSON[0].Features != 1 {
		t.Fatalf("unexpected geojson layers %+v", result.GeoJSON)
	}
	if len(result.Overlays) != 1 || result.Overlays[0].Color != "red" || result.Overlays[0].GroupID != "" {
		t.Fatalf("unexpected overlays %+v", result.Overlays)
	}
	if len(result.Warnings) != 2 {
		t.Fatalf("expected two warnings, got %v", result.Warnings)
	}
}

func TestResolveHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New(fixtureVault()).Resolve(ctx, Input{Folders: []string{"Places"}}); err == nil {
		t.Fatalf("expected context error")
	}
}
