package store

import (
	"context"
	"sync"

	"github.com/fieldwise/fieldwise/internal/record"
)

// Memory is the reference RecordStore: a mutex-guarded map. Tests and the
// scenario harness run against it; production deployments use the SQLite
// or Postgres adapters.
type Memory struct {
	mu      sync.Mutex
	schema  *record.Schema
	records map[string]record.Record

	updates int
}

// NewMemory creates an empty in-memory store.
func NewMemory(schema *record.Schema) *Memory {
	return &Memory{schema: schema, records: make(map[string]record.Record)}
}

// Put inserts or replaces a whole record.
func (m *Memory) Put(rec record.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[rec.ID] = rec.Clone()
}

// Get implements RecordStore.
func (m *Memory) Get(ctx context.Context, id string) (record.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return record.Record{}, &StoreError{Kind: KindNotFound, Op: "get", ID: id}
	}
	return rec.Clone(), nil
}

// Update implements RecordStore. Last-writer-wins, like the real
// adapters.
func (m *Memory) Update(ctx context.Context, id string, changes []Change) (record.Record, error) {
	if err := ValidateChanges(m.schema, id, changes); err != nil {
		return record.Record{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return record.Record{}, &StoreError{Kind: KindNotFound, Op: "update", ID: id}
	}
	updated := rec.Clone()
	ApplyChanges(updated, changes)
	m.records[id] = updated
	m.updates++
	return updated.Clone(), nil
}

// UpdateCount returns how many updates have been applied. Tests use it to
// assert that failed saves never reached the store.
func (m *Memory) UpdateCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updates
}
