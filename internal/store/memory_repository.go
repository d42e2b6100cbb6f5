package store

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryRecordRepository stores records in-memory for tests and the CLI.
type MemoryRecordRepository struct {
	mu      sync.RWMutex
	records map[string]MapRecord
}

// NewMemoryRecordRepository constructs a repository seeded with records.
func NewMemoryRecordRepository(seed ...MapRecord) *MemoryRecordRepository {
	repo := &MemoryRecordRepository{records: make(map[string]MapRecord, len(seed))}
	for _, record := range seed {
		if id := strings.TrimSpace(record.ID); id != "" {
			record.ID = id
			repo.records[id] = cloneRecord(record)
		}
	}
	return repo
}

// List returns the stored records ordered by id.
func (r *MemoryRecordRepository) List(context.Context) ([]MapRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]MapRecord, 0, len(r.records))
	for _, record := range r.records {
		out = append(out, cloneRecord(record))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Get retrieves the record of mapID.
func (r *MemoryRecordRepository) Get(_ context.Context, mapID string) (*MapRecord, error) {
	trimmed := strings.TrimSpace(mapID)
	if trimmed == "" {
		return nil, ErrMapIDRequired
	}

	r.mu.RLock()
	record, ok := r.records[trimmed]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrRecordNotFound
	}
	cloned := cloneRecord(record)
	return &cloned, nil
}

// Upsert creates or replaces a record.
func (r *MemoryRecordRepository) Upsert(_ context.Context, record MapRecord) (*MapRecord, error) {
	trimmed := strings.TrimSpace(record.ID)
	if trimmed == "" {
		return nil, ErrMapIDRequired
	}
	record.ID = trimmed
	stored := cloneRecord(record)

	r.mu.Lock()
	r.records[trimmed] = stored
	r.mu.Unlock()

	out := cloneRecord(stored)
	return &out, nil
}

// Delete removes the record of mapID.
func (r *MemoryRecordRepository) Delete(_ context.Context, mapID string) error {
	trimmed := strings.TrimSpace(mapID)
	if trimmed == "" {
		return ErrMapIDRequired
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[trimmed]; !ok {
		return ErrRecordNotFound
	}
	delete(r.records, trimmed)
	return nil
}
