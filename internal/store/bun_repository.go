package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	cache "github.com/goliatone/go-repository-cache/cache"
	repositorycache "github.com/goliatone/go-repository-cache/repositorycache"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-mapblocks/internal/identity"
	"github.com/goliatone/go-mapblocks/internal/markers"
	"github.com/goliatone/go-mapblocks/internal/overlays"
)

const recordNamespace = "map_record"

// RecordModel is the bun row of a map record.
type RecordModel struct {
	bun.BaseModel `bun:"table:map_records,alias:mr"`

	ID           uuid.UUID             `bun:",pk,type:uuid" json:"id"`
	MapID        string                `bun:"map_id,notnull,unique" json:"map_id"`
	Markers      []markers.Properties  `bun:"markers,type:jsonb" json:"markers"`
	Overlays     []overlays.Properties `bun:"overlays,type:jsonb" json:"overlays"`
	Files        []string              `bun:"files,type:jsonb" json:"files"`
	LastAccessed int64                 `bun:"last_accessed" json:"last_accessed"`
	CreatedAt    time.Time             `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt    time.Time             `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`
}

// NewRecordRepository builds the generic bun repository for map records.
func NewRecordRepository(db *bun.DB) repository.Repository[*RecordModel] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*RecordModel]{
		NewRecord: func() *RecordModel { return &RecordModel{} },
		GetID: func(m *RecordModel) uuid.UUID {
			return m.ID
		},
		SetID: func(m *RecordModel, id uuid.UUID) {
			m.ID = id
		},
		GetIdentifier: func() string {
			return "map_id"
		},
		GetIdentifierValue: func(m *RecordModel) string {
			return m.MapID
		},
	})
}

// EnsureSchema creates the map_records table when it does not exist yet.
func EnsureSchema(ctx context.Context, db *bun.DB) error {
	if db == nil {
		return fmt.Errorf("store: bun db is nil")
	}
	if _, err := db.NewCreateTable().Model((*RecordModel)(nil)).IfNotExists().Exec(ctx); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "create map_records table").
			WithTextCode("STORE_SCHEMA_FAILED")
	}
	return nil
}

// BunRecordRepository implements RecordRepository with optional caching.
type BunRecordRepository struct {
	repo         repository.Repository[*RecordModel]
	cacheService cache.CacheService
	cachePrefix  string
	now          func() time.Time
}

// NewBunRecordRepository creates a record repository without caching.
func NewBunRecordRepository(db *bun.DB) *BunRecordRepository {
	return NewBunRecordRepositoryWithCache(db, nil, nil)
}

// NewBunRecordRepositoryWithCache creates a record repository with caching services.
func NewBunRecordRepositoryWithCache(db *bun.DB, cacheService cache.CacheService, serializer cache.KeySerializer) *BunRecordRepository {
	base := NewRecordRepository(db)
	var svc cache.CacheService
	if cacheService != nil && serializer != nil {
		base = repositorycache.New(base, cacheService, serializer)
		svc = cacheService
	}
	prefix := ""
	if svc != nil {
		prefix = recordNamespace + cache.KeySeparator
	}
	return &BunRecordRepository{
		repo:         base,
		cacheService: svc,
		cachePrefix:  prefix,
		now:          time.Now,
	}
}

// List returns every stored record ordered by map id.
func (r *BunRecordRepository) List(ctx context.Context) ([]MapRecord, error) {
	models, _, err := r.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.OrderExpr("?TableAlias.map_id ASC")
		}),
	)
	if err != nil {
		return nil, mapRepositoryError(err, "")
	}
	out := make([]MapRecord, 0, len(models))
	for _, model := range models {
		out = append(out, modelToRecord(model))
	}
	return out, nil
}

// Get retrieves the record of mapID.
func (r *BunRecordRepository) Get(ctx context.Context, mapID string) (*MapRecord, error) {
	trimmed := strings.TrimSpace(mapID)
	if trimmed == "" {
		return nil, ErrMapIDRequired
	}
	model, err := r.repo.GetByIdentifier(ctx, trimmed)
	if err != nil {
		return nil, mapRepositoryError(err, trimmed)
	}
	record := modelToRecord(model)
	return &record, nil
}

// Upsert creates or replaces the record of record.ID.
func (r *BunRecordRepository) Upsert(ctx context.Context, record MapRecord) (*MapRecord, error) {
	trimmed := strings.TrimSpace(record.ID)
	if trimmed == "" {
		return nil, ErrMapIDRequired
	}
	record.ID = trimmed
	model := modelFromRecord(record)
	model.UpdatedAt = r.now().UTC()

	existing, err := r.repo.GetByIdentifier(ctx, trimmed)
	switch {
	case err == nil:
		model.ID = existing.ID
		model.CreatedAt = existing.CreatedAt
		updated, err := r.repo.Update(ctx, model)
		if err != nil {
			return nil, mapRepositoryError(err, trimmed)
		}
		model = updated
	case goerrors.IsCategory(err, repository.CategoryDatabaseNotFound):
		model.CreatedAt = model.UpdatedAt
		created, err := r.repo.Create(ctx, model)
		if err != nil {
			return nil, mapRepositoryError(err, trimmed)
		}
		model = created
	default:
		return nil, mapRepositoryError(err, trimmed)
	}

	if err := r.InvalidateCache(ctx); err != nil {
		return nil, mapRepositoryError(err, trimmed)
	}
	out := modelToRecord(model)
	return &out, nil
}

// Delete removes the record of mapID.
func (r *BunRecordRepository) Delete(ctx context.Context, mapID string) error {
	trimmed := strings.TrimSpace(mapID)
	if trimmed == "" {
		return ErrMapIDRequired
	}
	existing, err := r.repo.GetByIdentifier(ctx, trimmed)
	if err != nil {
		return mapRepositoryError(err, trimmed)
	}
	if err := r.repo.Delete(ctx, &RecordModel{ID: existing.ID}); err != nil {
		return mapRepositoryError(err, trimmed)
	}
	return r.InvalidateCache(ctx)
}

// InvalidateCache drops every cached record.
func (r *BunRecordRepository) InvalidateCache(ctx context.Context) error {
	if r.cacheService == nil || r.cachePrefix == "" {
		return nil
	}
	return r.cacheService.DeleteByPrefix(ctx, r.cachePrefix)
}

func modelFromRecord(record MapRecord) *RecordModel {
	cloned := cloneRecord(record)
	if cloned.Markers == nil {
		cloned.Markers = []markers.Properties{}
	}
	if cloned.Overlays == nil {
		cloned.Overlays = []overlays.Properties{}
	}
	if cloned.Files == nil {
		cloned.Files = []string{}
	}
	return &RecordModel{
		ID:           identity.MapRecordUUID(cloned.ID),
		MapID:        cloned.ID,
		Markers:      cloned.Markers,
		Overlays:     cloned.Overlays,
		Files:        cloned.Files,
		LastAccessed: cloned.LastAccessed,
	}
}

func modelToRecord(model *RecordModel) MapRecord {
	if model == nil {
		return MapRecord{}
	}
	return cloneRecord(MapRecord{
		ID:           model.MapID,
		Markers:      model.Markers,
		Overlays:     model.Overlays,
		Files:        model.Files,
		LastAccessed: model.LastAccessed,
	})
}

func mapRepositoryError(err error, mapID string) error {
	if err == nil {
		return nil
	}
	if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
		return fmt.Errorf("%w: %s", ErrRecordNotFound, mapID)
	}
	return goerrors.Wrap(err, goerrors.CategoryInternal, "map record repository error").
		WithTextCode("STORE_REPOSITORY_ERROR")
}
