package testutil

import (
	"context"
	"sync"

	"github.com/fieldwise/fieldwise/internal/record"
	"github.com/fieldwise/fieldwise/internal/store"
)

// FlakyStore wraps a RecordStore and fails a scripted number of Update
// calls before letting them through. Gets are never failed; the save is
// the only blocking I/O point in the workflow.
type FlakyStore struct {
	mu      sync.Mutex
	inner   store.RecordStore
	pending int
	err     error

	updateCalls int
}

// NewFlakyStore wraps inner with no failures scheduled.
func NewFlakyStore(inner store.RecordStore) *FlakyStore {
	return &FlakyStore{inner: inner}
}

// FailNextUpdates schedules the next n Update calls to return err.
func (f *FlakyStore) FailNextUpdates(n int, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending = n
	f.err = err
}

// Get implements store.RecordStore.
func (f *FlakyStore) Get(ctx context.Context, id string) (record.Record, error) {
	return f.inner.Get(ctx, id)
}

// Update implements store.RecordStore.
func (f *FlakyStore) Update(ctx context.Context, id string, changes []store.Change) (record.Record, error) {
	f.mu.Lock()
	f.updateCalls++
	if f.pending > 0 {
		f.pending--
		err := f.err
		f.mu.Unlock()
		return record.Record{}, err
	}
	f.mu.Unlock()
	return f.inner.Update(ctx, id, changes)
}

// UpdateCalls returns how many Update calls were attempted, failures
// included.
func (f *FlakyStore) UpdateCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.updateCalls
}
