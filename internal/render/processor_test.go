package render

import (
	"context"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/goliatone/go-mapblocks/internal/geo"
	"github.com/goliatone/go-mapblocks/internal/markers"
	"github.com/goliatone/go-mapblocks/internal/resolver"
	"github.com/goliatone/go-mapblocks/internal/store"
	"github.com/goliatone/go-mapblocks/internal/vault"
	"github.com/goliatone/go-mapblocks/internal/views"
	"github.com/goliatone/go-mapblocks/pkg/interfaces"
)

func fixtureFS() fstest.MapFS {
	return fstest.MapFS{
		"Places/Castle.md":  {Data: []byte("---\nlocation: [10, 20]\ntags: [north]\n---\nA castle.\n"), ModTime: time.Unix(100, 0)},
		"Places/Village.md": {Data: []byte("---\nlocation: [11, 21]\ntags: [north]\n---\n"), ModTime: time.Unix(100, 0)},
		"Notes/Plain.md":    {Data: []byte("nothing to see\n"), ModTime: time.Unix(100, 0)},
	}
}

func newProcessor(fsys fstest.MapFS, opts ...Option) *Processor {
	v := vault.New(fsys, vault.DefaultConfig())
	idx := vault.NewIndex(v)
	res := resolver.New(v, resolver.WithDataIndex(idx))
	opts = append([]Option{WithInvalidation(v, idx)}, opts...)
	return New(res, views.NewRegistry(), opts...)
}

func TestProcessRequiresMapID(t *testing.T) {
	p := newProcessor(fixtureFS())
	out := p.Process(context.Background(), Request{Source: "marker: default,1,1,[[Note]]", DocumentPath: "maps/world.md"})
	if out.Error == nil {
		t.Fatal("expected error block")
	}
	if out.Error.Code != codeMapIDRequired {
		t.Fatalf("expected %s, got %+v", codeMapIDRequired, out.Error)
	}
	if out.View != nil || len(p.Views()) != 0 {
		t.Fatal("no view should be registered for an invalid block")
	}
}

func TestProcessBuildsAndRegistersView(t *testing.T) {
	p := newProcessor(fixtureFS())
	source := strings.Join([]string{
		"id: world",
		"image: world.png",
		"marker: default,40,-75,[[Note]],,2,8",
		"markerTag: north",
		"overlay: [red, [1, 1], 2 km, camp]",
	}, "\n")

	out := p.Process(context.Background(), Request{Source: source, DocumentPath: "maps/world.md"})
	if out.Error != nil {
		t.Fatalf("unexpected error block %+v", out.Error)
	}
	if out.View == nil {
		t.Fatal("expected a view")
	}
	if got := len(out.View.Markers()); got != 3 {
		t.Fatalf("expected 3 markers, got %d", got)
	}
	if got := len(out.View.Overlays()); got != 1 {
		t.Fatalf("expected 1 overlay, got %d", got)
	}
	if layers := out.View.Layers(); len(layers) != 1 || layers[0] != "world.png" {
		t.Fatalf("unexpected layers %v", layers)
	}
	if out.View.Zoom() != DefaultDefaults().DefaultZoom {
		t.Fatalf("unexpected zoom %v", out.View.Zoom())
	}
	if views := p.Registry().Views("world"); len(views) != 1 || views[0] != out.View {
		t.Fatalf("view should be registered, got %v", views)
	}
	if out.Notices != nil {
		t.Fatalf("notices are only produced for verbose blocks, got %v", out.Notices)
	}
}

func TestProcessVerbosePromotesWarnings(t *testing.T) {
	p := newProcessor(fixtureFS())
	out := p.Process(context.Background(), Request{Source: "id: world\nverbose: true\nmarker: default,north,south"})
	if out.Error != nil {
		t.Fatalf("unexpected error block %+v", out.Error)
	}
	if len(out.Warnings) == 0 || len(out.Notices) != len(out.Warnings) {
		t.Fatalf("expected notices for every warning, warnings=%v notices=%v", out.Warnings, out.Notices)
	}
}

func TestProcessLoadsPersistedMarkers(t *testing.T) {
	ctx := context.Background()
	repo := store.NewMemoryRecordRepository(store.MapRecord{
		ID:      "world",
		Markers: []markers.Properties{{ID: "ID_saved", Type: "default", Loc: geo.LatLng{Lat: 3, Lng: 4}, Mutable: true}},
	})
	svc := store.NewService(repo)
	p := newProcessor(fixtureFS(), WithStore(svc))

	out := p.Process(ctx, Request{Source: "id: world", DocumentPath: "maps/world.md"})
	if out.Error != nil {
		t.Fatalf("unexpected error block %+v", out.Error)
	}
	saved, ok := out.View.Marker("ID_saved")
	if !ok || !saved.Mutable() {
		t.Fatalf("persisted marker should be loaded as mutable, got %v %v", saved, ok)
	}
	record, err := repo.Get(ctx, "world")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(record.Files) != 1 || record.Files[0] != "maps/world.md" {
		t.Fatalf("document should be associated with the record, got %v", record.Files)
	}
}

func TestDocumentChangedReResolvesOnlyThatDocument(t *testing.T) {
	ctx := context.Background()
	fsys := fixtureFS()
	p := newProcessor(fsys)
	out := p.Process(ctx, Request{Source: "id: world\nmarkerTag: north", DocumentPath: "maps/world.md"})
	if out.Error != nil {
		t.Fatalf("unexpected error block %+v", out.Error)
	}
	if got := len(out.View.Markers()); got != 2 {
		t.Fatalf("expected 2 markers, got %d", got)
	}

	fsys["Places/Castle.md"] = &fstest.MapFile{Data: []byte("---\nlocation: [30, 40]\ntags: [north]\n---\n"), ModTime: time.Unix(200, 0)}
	changed, err := p.DocumentChanged(ctx, "Places/Castle.md")
	if err != nil {
		t.Fatalf("DocumentChanged: %v", err)
	}
	if changed != 1 {
		t.Fatalf("expected one view to change, got %d", changed)
	}
	locs := map[geo.LatLng]bool{}
	for _, m := range out.View.Markers() {
		locs[m.Loc()] = true
	}
	if len(locs) != 2 || !locs[geo.LatLng{Lat: 30, Lng: 40}] || !locs[geo.LatLng{Lat: 11, Lng: 21}] {
		t.Fatalf("unexpected markers after change %v", locs)
	}

	fsys["Places/Castle.md"] = &fstest.MapFile{Data: []byte("---\ntags: [south]\n---\n"), ModTime: time.Unix(300, 0)}
	if _, err := p.DocumentChanged(ctx, "Places/Castle.md"); err != nil {
		t.Fatalf("DocumentChanged: %v", err)
	}
	if got := len(out.View.Markers()); got != 1 {
		t.Fatalf("castle left the tag set, expected 1 marker, got %d", got)
	}

	changed, err = p.DocumentChanged(ctx, "Notes/Plain.md")
	if err != nil {
		t.Fatalf("DocumentChanged: %v", err)
	}
	if changed != 0 {
		t.Fatalf("unrelated documents should not touch views, got %d", changed)
	}
}

func TestUnloadUnregistersView(t *testing.T) {
	p := newProcessor(fixtureFS())
	out := p.Process(context.Background(), Request{Source: "id: world"})
	p.Unload(out.View)
	if len(p.Registry().Views("world")) != 0 || len(p.Views()) != 0 {
		t.Fatal("view should be gone")
	}
}

type panickingPalette struct{}

func (panickingPalette) Commands() []interfaces.PaletteCommand {
	panic("palette unavailable")
}

func TestProcessRecoversPanics(t *testing.T) {
	v := vault.New(fixtureFS(), vault.DefaultConfig())
	res := resolver.New(v, resolver.WithCommandPalette(panickingPalette{}))
	p := New(res, nil)

	out := p.Process(context.Background(), Request{Source: "id: world\ncommandMarker: default,1,1,app:reload"})
	if out.Error == nil || out.Error.Code != codeRenderPanic {
		t.Fatalf("expected panic error block, got %+v", out.Error)
	}
	if out.Params.ID != "world" {
		t.Fatalf("params should survive the panic, got %+v", out.Params)
	}
}

func TestInitialZoom(t *testing.T) {
	p := New(nil, nil)
	cases := []struct {
		name   string
		source string
		want   float64
	}{
		{name: "default", source: "id: a", want: 5},
		{name: "explicit", source: "id: a\ndefaultZoom: 2", want: 2},
		{name: "raised to min", source: "id: a\nminZoom: 7\nmaxZoom: 12", want: 7},
		{name: "lowered to max", source: "id: a\nmaxZoom: 3", want: 3},
		{name: "inside bounds", source: "id: a\nminZoom: 1\nmaxZoom: 9", want: 5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := p.Process(context.Background(), Request{Source: tc.source})
			if out.Error != nil {
				t.Fatalf("unexpected error block %+v", out.Error)
			}
			if got := out.View.Zoom(); got != tc.want {
				t.Fatalf("expected zoom %v, got %v", tc.want, got)
			}
		})
	}
}
