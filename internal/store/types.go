package store

import (
	"errors"
	"maps"
	"strings"
	"time"

	"github.com/goliatone/go-mapblocks/internal/icons"
	"github.com/goliatone/go-mapblocks/internal/markers"
	"github.com/goliatone/go-mapblocks/internal/overlays"
)

// DefaultPruneWindow is how long a record without documents survives unused.
const DefaultPruneWindow = 604_800_000 * time.Millisecond

var (
	// ErrRecordNotFound indicates no record is stored for a map id.
	ErrRecordNotFound = errors.New("store: map record not found")
	// ErrMapIDRequired indicates a record operation without a map id.
	ErrMapIDRequired = errors.New("store: map id is required")
	// ErrSettingsInvalid indicates a settings document failed schema validation.
	ErrSettingsInvalid = errors.New("store: settings document is invalid")
)

// MapRecord is the persisted state of one map id.
type MapRecord struct {
	ID           string                `json:"id"`
	Markers      []markers.Properties  `json:"markers"`
	Overlays     []overlays.Properties `json:"overlays"`
	Files        []string              `json:"files"`
	LastAccessed int64                 `json:"lastAccessed"`
}

// Empty reports whether the record holds neither markers nor overlays.
func (r MapRecord) Empty() bool {
	return len(r.Markers) == 0 && len(r.Overlays) == 0
}

// Touch stamps the record as accessed at now.
func (r *MapRecord) Touch(now time.Time) {
	r.LastAccessed = now.UnixMilli()
}

// AddFile associates a document path with the record.
func (r *MapRecord) AddFile(path string) bool {
	path = strings.TrimSpace(path)
	if path == "" {
		return false
	}
	for _, existing := range r.Files {
		if existing == path {
			return false
		}
	}
	r.Files = append(r.Files, path)
	return true
}

// RemoveFile drops a document path from the record.
func (r *MapRecord) RemoveFile(path string) bool {
	for idx, existing := range r.Files {
		if existing == path {
			r.Files = append(r.Files[:idx], r.Files[idx+1:]...)
			return true
		}
	}
	return false
}

// Settings is the whole persisted plugin state.
type Settings struct {
	DefaultMarker icons.Icon      `json:"defaultMarker"`
	MarkerIcons   []icons.Icon    `json:"markerIcons"`
	MapMarkers    []MapRecord     `json:"mapMarkers"`
	Toggles       map[string]bool `json:"toggles,omitempty"`
}

// DefaultSettings returns the state used before anything was saved.
func DefaultSettings() Settings {
	return Settings{
		DefaultMarker: icons.DefaultIcon,
		MarkerIcons:   []icons.Icon{},
		MapMarkers:    []MapRecord{},
		Toggles: map[string]bool{
			"displayMarkerTooltips": true,
			"copyOnClick":           false,
		},
	}
}

// Icons builds an icon registry from the saved icons.
func (s Settings) Icons() *icons.Registry {
	def := s.DefaultMarker
	if strings.TrimSpace(def.Type) == "" {
		def = icons.DefaultIcon
	}
	return icons.NewRegistry(&def, s.MarkerIcons...)
}

func cloneRecord(record MapRecord) MapRecord {
	cloned := record
	if record.Markers != nil {
		cloned.Markers = append([]markers.Properties(nil), record.Markers...)
	}
	if record.Overlays != nil {
		cloned.Overlays = append([]overlays.Properties(nil), record.Overlays...)
	}
	if record.Files != nil {
		cloned.Files = append([]string(nil), record.Files...)
	}
	return cloned
}

func cloneSettings(settings Settings) Settings {
	cloned := settings
	cloned.MarkerIcons = append([]icons.Icon(nil), settings.MarkerIcons...)
	cloned.MapMarkers = make([]MapRecord, len(settings.MapMarkers))
	for i, record := range settings.MapMarkers {
		cloned.MapMarkers[i] = cloneRecord(record)
	}
	if settings.Toggles != nil {
		cloned.Toggles = maps.Clone(settings.Toggles)
	}
	return cloned
}
