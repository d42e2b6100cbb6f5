package store

import (
	"path/filepath"
	"testing"

	"github.com/goliatone/go-mapblocks/pkg/testsupport"
)

func TestSettingsFixtureValidatesAndDecodes(t *testing.T) {
	path := filepath.Join("testdata", "settings.json")
	if err := ValidateSettingsDocument(testsupport.Fixture(t, path)); err != nil {
		t.Fatalf("fixture should satisfy the schema: %v", err)
	}

	var settings Settings
	testsupport.Golden(t, path, &settings)
	if len(settings.MapMarkers) != 1 {
		t.Fatalf("expected one record, got %d", len(settings.MapMarkers))
	}
	record := settings.MapMarkers[0]
	if record.ID != "world" || len(record.Markers) != 1 || len(record.Overlays) != 1 {
		t.Fatalf("unexpected record %+v", record)
	}
	if record.Markers[0].Loc.Lat != 12.5 || record.Markers[0].Loc.Lng != -3.25 {
		t.Fatalf("unexpected marker location %+v", record.Markers[0].Loc)
	}
	if resolved, known := settings.Icons().Resolve("castle"); !known || resolved != "castle" {
		t.Fatalf("fixture icon should resolve, got %q %v", resolved, known)
	}
}
