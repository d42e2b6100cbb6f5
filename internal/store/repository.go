package store

import "context"

// RecordRepository persists map records keyed by map id.
type RecordRepository interface {
	List(ctx context.Context) ([]MapRecord, error)
	Get(ctx context.Context, mapID string) (*MapRecord, error)
	Upsert(ctx context.Context, record MapRecord) (*MapRecord, error)
	Delete(ctx context.Context, mapID string) error
}

// SettingsRepository loads and saves the settings document as a whole.
type SettingsRepository interface {
	Load(ctx context.Context) (Settings, error)
	Save(ctx context.Context, settings Settings) error
}
