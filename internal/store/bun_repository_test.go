package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	repocache "github.com/goliatone/go-repository-cache/cache"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-mapblocks/internal/geo"
	"github.com/goliatone/go-mapblocks/internal/markers"
	"github.com/goliatone/go-mapblocks/internal/overlays"
	"github.com/goliatone/go-mapblocks/internal/store"
	"github.com/goliatone/go-mapblocks/pkg/testsupport"
)

func newBunDB(t *testing.T, name string) *bun.DB {
	t.Helper()
	db := testsupport.NewBunSQLite(t, name)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := store.EnsureSchema(ctx, db); err != nil {
		t.Fatalf("create table: %v", err)
	}
	return db
}

func TestBunRecordRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	repo := store.NewBunRecordRepository(newBunDB(t, "records_crud"))
	exerciseRecordRepository(ctx, t, repo)
}

func TestBunRecordRepository_WithCache(t *testing.T) {
	ctx := context.Background()

	cacheCfg := repocache.DefaultConfig()
	cacheCfg.TTL = time.Minute
	cacheSvc, err := repocache.NewCacheService(cacheCfg)
	if err != nil {
		t.Fatalf("cache service: %v", err)
	}
	keySerializer := repocache.NewDefaultKeySerializer()

	repo := store.NewBunRecordRepositoryWithCache(newBunDB(t, "records_cache"), cacheSvc, keySerializer)
	exerciseRecordRepository(ctx, t, repo)
}

func TestServiceOverBunRepository(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	repo := store.NewBunRecordRepository(newBunDB(t, "records_service"))
	svc := store.NewService(repo, store.WithNow(func() time.Time { return now }))

	props := []markers.Properties{{ID: "ID_user", Type: "default", Loc: geo.LatLng{Lat: 1, Lng: 2}, Mutable: true}}
	if _, err := svc.SaveMap(ctx, "world", props, nil, "maps/world.md"); err != nil {
		t.Fatalf("SaveMap: %v", err)
	}
	dropped, err := svc.SaveMap(ctx, "world", nil, nil)
	if err != nil {
		t.Fatalf("SaveMap clear: %v", err)
	}
	if len(dropped) != 1 || dropped[0] != "world" {
		t.Fatalf("cleared record should be pruned, got %v", dropped)
	}
	if _, err := repo.Get(ctx, "world"); !errors.Is(err, store.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound after prune, got %v", err)
	}
}

func exerciseRecordRepository(ctx context.Context, t *testing.T, repo store.RecordRepository) {
	t.Helper()

	zoom := 3.0
	record := store.MapRecord{
		ID: "world",
		Markers: []markers.Properties{
			{ID: "ID_a", Type: "castle", Loc: geo.LatLng{Lat: 10, Lng: 20}, Link: "Keep", Layer: "real", Mutable: true, Zoom: &zoom, Tooltip: markers.TooltipHover},
		},
		Overlays: []overlays.Properties{
			{ID: "ID_o", Color: "blue", Loc: geo.LatLng{Lat: 10, Lng: 20}, Radius: 5, Unit: "km", Mutable: true},
		},
		Files:        []string{"maps/world.md"},
		LastAccessed: 1717243200000,
	}

	created, err := repo.Upsert(ctx, record)
	if err != nil {
		t.Fatalf("Upsert create: %v", err)
	}
	if created.ID != "world" || len(created.Markers) != 1 {
		t.Fatalf("unexpected created record %+v", created)
	}

	fetched, err := repo.Get(ctx, "world")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got := fetched.Markers[0]; got.Link != "Keep" || got.Zoom == nil || *got.Zoom != 3 || got.Loc != (geo.LatLng{Lat: 10, Lng: 20}) {
		t.Fatalf("unexpected marker %+v", got)
	}
	if fetched.Overlays[0].Radius != 5 || fetched.Files[0] != "maps/world.md" {
		t.Fatalf("unexpected record %+v", fetched)
	}

	record.Markers = append(record.Markers, markers.Properties{ID: "ID_b", Type: "default", Loc: geo.LatLng{Lat: 1, Lng: 1}, Mutable: true})
	if _, err := repo.Upsert(ctx, record); err != nil {
		t.Fatalf("Upsert update: %v", err)
	}
	fetched, err = repo.Get(ctx, "world")
	if err != nil {
		t.Fatalf("Get after update: %v", err)
	}
	if len(fetched.Markers) != 2 {
		t.Fatalf("expected 2 markers after update, got %d", len(fetched.Markers))
	}

	list, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected a single record, got %d", len(list))
	}

	if err := repo.Delete(ctx, "world"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.Get(ctx, "world"); !errors.Is(err, store.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
	if err := repo.Delete(ctx, "world"); !errors.Is(err, store.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound on second delete, got %v", err)
	}
	if _, err := repo.Upsert(ctx, store.MapRecord{}); !errors.Is(err, store.ErrMapIDRequired) {
		t.Fatalf("expected ErrMapIDRequired, got %v", err)
	}
}

func TestMemoryRecordRepository_CRUD(t *testing.T) {
	exerciseRecordRepository(context.Background(), t, store.NewMemoryRecordRepository())
}

func TestFileSettingsRepository_Records(t *testing.T) {
	repo := store.NewFileSettingsRepository(t.TempDir() + "/settings.json")
	exerciseRecordRepository(context.Background(), t, repo)
}
