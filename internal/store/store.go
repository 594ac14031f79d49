package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/fieldwise/fieldwise/internal/record"
)

// ErrorKind classifies store failures into the three cases the workflow
// engine distinguishes.
type ErrorKind string

const (
	// KindTransient covers network and availability failures. Safe to
	// retry; the persistence coordinator does so with bounded backoff.
	KindTransient ErrorKind = "TRANSIENT"

	// KindRejected means the store refused the payload. Never retried.
	KindRejected ErrorKind = "REJECTED"

	// KindNotFound means the record does not exist. Never retried.
	KindNotFound ErrorKind = "NOT_FOUND"
)

// StoreError is the adapter-neutral failure type. Adapters wrap their
// driver errors into one of the three kinds; layers above classify with
// IsTransient/IsRejected/IsNotFound and never inspect driver errors.
type StoreError struct {
	Kind ErrorKind
	Op   string // "get" or "update"
	ID   string // record identifier
	Err  error  // underlying driver error, may be nil
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s %s: %v", e.Kind, e.Op, e.ID, e.Err)
	}
	return fmt.Sprintf("%s: %s %s", e.Kind, e.Op, e.ID)
}

// Unwrap exposes the driver error for errors.Is chains.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err is a retryable store failure.
func IsTransient(err error) bool {
	return kindOf(err) == KindTransient
}

// IsRejected reports whether err is a store-side validation rejection.
func IsRejected(err error) bool {
	return kindOf(err) == KindRejected
}

// IsNotFound reports whether err is a missing-record failure.
func IsNotFound(err error) bool {
	return kindOf(err) == KindNotFound
}

func kindOf(err error) ErrorKind {
	var se *StoreError
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}

// Change is one field mutation in an update call. Clear removes the
// field's value; otherwise Value replaces it.
type Change struct {
	Field string
	Value record.Value
	Clear bool
}

// RecordStore is the remote record store boundary.
// Update applies the change set atomically: either every change lands or
// none do, so a failed save never leaves a half-written record.
type RecordStore interface {
	Get(ctx context.Context, id string) (record.Record, error)
	Update(ctx context.Context, id string, changes []Change) (record.Record, error)
}

// ApplyChanges overlays a change set onto a record in place. Shared by
// adapters that read-modify-write.
func ApplyChanges(rec record.Record, changes []Change) {
	for _, ch := range changes {
		if ch.Clear {
			rec.Set(ch.Field, record.Unset())
			continue
		}
		rec.Set(ch.Field, ch.Value)
	}
}

// ValidateChanges rejects changes naming fields the schema does not
// define, standing in for the remote store's own payload validation.
func ValidateChanges(schema *record.Schema, id string, changes []Change) error {
	for _, ch := range changes {
		if !schema.Has(ch.Field) {
			return &StoreError{
				Kind: KindRejected,
				Op:   "update",
				ID:   id,
				Err:  fmt.Errorf("unknown field %q", ch.Field),
			}
		}
	}
	return nil
}
