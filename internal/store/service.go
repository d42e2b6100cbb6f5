package store

import (
	"context"
	"errors"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-mapblocks/internal/logging"
	"github.com/goliatone/go-mapblocks/internal/markers"
	"github.com/goliatone/go-mapblocks/internal/overlays"
	"github.com/goliatone/go-mapblocks/pkg/interfaces"
)

const (
	codeSaveFailed  = "STORE_SAVE_FAILED"
	codePruneFailed = "STORE_PRUNE_FAILED"
)

// ServiceOption configures the store service.
type ServiceOption func(*Service)

// WithNow overrides the clock used for lastAccessed and pruning.
func WithNow(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithPruneWindow overrides DefaultPruneWindow.
func WithPruneWindow(window time.Duration) ServiceOption {
	return func(s *Service) {
		if window > 0 {
			s.window = window
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(logger interfaces.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Service owns map record persistence and applies pruning on every save.
type Service struct {
	records RecordRepository
	now     func() time.Time
	window  time.Duration
	logger  interfaces.Logger
}

// NewService wraps a record repository.
func NewService(records RecordRepository, opts ...ServiceOption) *Service {
	if records == nil {
		records = NewMemoryRecordRepository()
	}
	s := &Service{
		records: records,
		now:     time.Now,
		window:  DefaultPruneWindow,
		logger:  logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Record returns the stored record of mapID, or an empty one stamped now.
func (s *Service) Record(ctx context.Context, mapID string) (MapRecord, error) {
	mapID = strings.TrimSpace(mapID)
	if mapID == "" {
		return MapRecord{}, ErrMapIDRequired
	}
	record, err := s.records.Get(ctx, mapID)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			fresh := MapRecord{ID: mapID}
			fresh.Touch(s.now())
			return fresh, nil
		}
		return MapRecord{}, err
	}
	return *record, nil
}

// Records lists every stored record.
func (s *Service) Records(ctx context.Context) ([]MapRecord, error) {
	return s.records.List(ctx)
}

// Save stores record and prunes the whole collection. It returns the ids
// dropped by pruning, which may include record itself.
func (s *Service) Save(ctx context.Context, record MapRecord) ([]string, error) {
	if strings.TrimSpace(record.ID) == "" {
		return nil, ErrMapIDRequired
	}
	logger := logging.WithMapContext(s.logger, record.ID, "", "save").WithContext(ctx)
	if _, err := s.records.Upsert(ctx, record); err != nil {
		logger.Error("store.save.failed", "error", err)
		return nil, wrapStoreError(err, "save map record", codeSaveFailed)
	}
	dropped, err := s.Prune(ctx)
	if err != nil {
		return nil, err
	}
	logger.Debug("store.save.completed", "markers", len(record.Markers), "overlays", len(record.Overlays), "pruned", len(dropped))
	return dropped, nil
}

// SaveMap replaces the mutable markers and overlays of mapID, associates the
// given documents and saves.
func (s *Service) SaveMap(ctx context.Context, mapID string, markerProps []markers.Properties, overlayProps []overlays.Properties, files ...string) ([]string, error) {
	record, err := s.Record(ctx, mapID)
	if err != nil {
		return nil, err
	}
	record.Markers = mutableMarkers(markerProps)
	record.Overlays = mutableOverlays(overlayProps)
	for _, file := range files {
		record.AddFile(file)
	}
	record.Touch(s.now())
	return s.Save(ctx, record)
}

// Touch records that path rendered mapID and stamps the access time. Records
// without content are not written.
func (s *Service) Touch(ctx context.Context, mapID, path string) (MapRecord, error) {
	record, err := s.Record(ctx, mapID)
	if err != nil {
		return MapRecord{}, err
	}
	record.AddFile(path)
	record.Touch(s.now())
	if record.Empty() {
		return record, nil
	}
	if _, err := s.records.Upsert(ctx, record); err != nil {
		return MapRecord{}, wrapStoreError(err, "touch map record", codeSaveFailed)
	}
	return record, nil
}

// ForgetFile removes path from every record, as when a document is deleted.
func (s *Service) ForgetFile(ctx context.Context, path string) error {
	records, err := s.records.List(ctx)
	if err != nil {
		return wrapStoreError(err, "list map records", codePruneFailed)
	}
	for _, record := range records {
		if !record.RemoveFile(path) {
			continue
		}
		if _, err := s.records.Upsert(ctx, record); err != nil {
			return wrapStoreError(err, "update map record", codeSaveFailed)
		}
	}
	return nil
}

// Prune removes the records Prune drops and returns their ids.
func (s *Service) Prune(ctx context.Context) ([]string, error) {
	records, err := s.records.List(ctx)
	if err != nil {
		return nil, wrapStoreError(err, "list map records", codePruneFailed)
	}
	_, dropped := Prune(records, s.now(), s.window)
	for _, id := range dropped {
		if err := s.records.Delete(ctx, id); err != nil && !errors.Is(err, ErrRecordNotFound) {
			return nil, wrapStoreError(err, "delete map record", codePruneFailed)
		}
		s.logger.Info("store.record.pruned", "map_id", id)
	}
	return dropped, nil
}

// Export assembles the full settings document.
func (s *Service) Export(ctx context.Context, base Settings) (Settings, error) {
	records, err := s.records.List(ctx)
	if err != nil {
		return Settings{}, wrapStoreError(err, "list map records", codeSaveFailed)
	}
	out := cloneSettings(base)
	out.MapMarkers = records
	return out, nil
}

func mutableMarkers(props []markers.Properties) []markers.Properties {
	out := []markers.Properties{}
	for _, p := range props {
		if p.Mutable {
			out = append(out, p)
		}
	}
	return out
}

func mutableOverlays(props []overlays.Properties) []overlays.Properties {
	out := []overlays.Properties{}
	for _, p := range props {
		if p.Mutable {
			out = append(out, p)
		}
	}
	return out
}

func wrapStoreError(err error, message, code string) error {
	if err == nil {
		return nil
	}
	if goerrors.IsWrapped(err) {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryInternal, message).WithTextCode(code)
}
