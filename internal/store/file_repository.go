package store

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/goliatone/go-mapblocks/internal/icons"
)

//go:embed schema/settings.schema.json
var settingsSchemaJSON []byte

const settingsSchemaURL = "mapblocks://settings.schema.json"

var (
	settingsSchemaOnce sync.Once
	settingsSchema     *jsonschema.Schema
	settingsSchemaErr  error
)

func compiledSettingsSchema() (*jsonschema.Schema, error) {
	settingsSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource(settingsSchemaURL, bytes.NewReader(settingsSchemaJSON)); err != nil {
			settingsSchemaErr = err
			return
		}
		settingsSchema, settingsSchemaErr = compiler.Compile(settingsSchemaURL)
	})
	return settingsSchema, settingsSchemaErr
}

// ValidateSettingsDocument checks raw JSON against the settings schema.
func ValidateSettingsDocument(raw []byte) error {
	schema, err := compiledSettingsSchema()
	if err != nil {
		return fmt.Errorf("store: compile settings schema: %w", err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrSettingsInvalid, err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %s", ErrSettingsInvalid, describeValidation(err))
	}
	return nil
}

func describeValidation(err error) string {
	var validationErr *jsonschema.ValidationError
	if !errors.As(err, &validationErr) {
		return err.Error()
	}
	var issues []string
	var walk func(*jsonschema.ValidationError)
	walk = func(node *jsonschema.ValidationError) {
		if len(node.Causes) == 0 {
			location := node.InstanceLocation
			if location == "" {
				location = "/"
			}
			issues = append(issues, location+": "+strings.TrimSpace(node.Message))
			return
		}
		for _, cause := range node.Causes {
			walk(cause)
		}
	}
	walk(validationErr)
	sort.Strings(issues)
	return strings.Join(issues, "; ")
}

// FileSettingsRepository keeps the settings document in a JSON file. It also
// serves map records out of that document.
type FileSettingsRepository struct {
	mu   sync.Mutex
	path string
}

// NewFileSettingsRepository binds the repository to path.
func NewFileSettingsRepository(path string) *FileSettingsRepository {
	return &FileSettingsRepository{path: path}
}

// Path returns the settings file location.
func (r *FileSettingsRepository) Path() string {
	return r.path
}

// Load reads the settings document. A missing file yields DefaultSettings.
func (r *FileSettingsRepository) Load(ctx context.Context) (Settings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loadLocked(ctx)
}

// Save validates and writes the settings document.
func (r *FileSettingsRepository) Save(ctx context.Context, settings Settings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saveLocked(ctx, settings)
}

func (r *FileSettingsRepository) loadLocked(ctx context.Context) (Settings, error) {
	if err := ctx.Err(); err != nil {
		return Settings{}, err
	}
	raw, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultSettings(), nil
		}
		return Settings{}, fmt.Errorf("store: read settings: %w", err)
	}
	if err := ValidateSettingsDocument(raw); err != nil {
		return Settings{}, err
	}
	settings := DefaultSettings()
	if err := json.Unmarshal(raw, &settings); err != nil {
		return Settings{}, fmt.Errorf("%w: %v", ErrSettingsInvalid, err)
	}
	return settings, nil
}

func (r *FileSettingsRepository) saveLocked(ctx context.Context, settings Settings) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	settings = cloneSettings(settings)
	if settings.MapMarkers == nil {
		settings.MapMarkers = []MapRecord{}
	}
	if settings.MarkerIcons == nil {
		settings.MarkerIcons = []icons.Icon{}
	}
	raw, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("store: encode settings: %w", err)
	}
	if err := ValidateSettingsDocument(raw); err != nil {
		return err
	}
	if dir := filepath.Dir(r.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("store: create settings dir: %w", err)
		}
	}
	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("store: write settings: %w", err)
	}
	return os.Rename(tmp, r.path)
}

// List returns the records of the settings document ordered by id.
func (r *FileSettingsRepository) List(ctx context.Context) ([]MapRecord, error) {
	settings, err := r.Load(ctx)
	if err != nil {
		return nil, err
	}
	out := cloneSettings(settings).MapMarkers
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Get retrieves the record of mapID.
func (r *FileSettingsRepository) Get(ctx context.Context, mapID string) (*MapRecord, error) {
	trimmed := strings.TrimSpace(mapID)
	if trimmed == "" {
		return nil, ErrMapIDRequired
	}
	settings, err := r.Load(ctx)
	if err != nil {
		return nil, err
	}
	for _, record := range settings.MapMarkers {
		if record.ID == trimmed {
			cloned := cloneRecord(record)
			return &cloned, nil
		}
	}
	return nil, ErrRecordNotFound
}

// Upsert creates or replaces a record inside the settings document.
func (r *FileSettingsRepository) Upsert(ctx context.Context, record MapRecord) (*MapRecord, error) {
	trimmed := strings.TrimSpace(record.ID)
	if trimmed == "" {
		return nil, ErrMapIDRequired
	}
	record.ID = trimmed

	r.mu.Lock()
	defer r.mu.Unlock()
	settings, err := r.loadLocked(ctx)
	if err != nil {
		return nil, err
	}
	replaced := false
	for i := range settings.MapMarkers {
		if settings.MapMarkers[i].ID == trimmed {
			settings.MapMarkers[i] = cloneRecord(record)
			replaced = true
			break
		}
	}
	if !replaced {
		settings.MapMarkers = append(settings.MapMarkers, cloneRecord(record))
	}
	if err := r.saveLocked(ctx, settings); err != nil {
		return nil, err
	}
	out := cloneRecord(record)
	return &out, nil
}

// Delete removes the record of mapID from the settings document.
func (r *FileSettingsRepository) Delete(ctx context.Context, mapID string) error {
	trimmed := strings.TrimSpace(mapID)
	if trimmed == "" {
		return ErrMapIDRequired
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	settings, err := r.loadLocked(ctx)
	if err != nil {
		return err
	}
	for i := range settings.MapMarkers {
		if settings.MapMarkers[i].ID == trimmed {
			settings.MapMarkers = append(settings.MapMarkers[:i], settings.MapMarkers[i+1:]...)
			return r.saveLocked(ctx, settings)
		}
	}
	return ErrRecordNotFound
}
