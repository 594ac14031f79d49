// Package session implements per-operator editing sessions: the original
// record snapshot, the ordered set of pending edits, entity
// reconstruction, and the confirmation diff.
//
// One session per operator. Sessions for different operators are fully
// independent, including against the same underlying record; the engine
// imposes no cross-operator ordering (see internal/store on the
// last-writer-wins consequence).
//
// # Pending Edit Ordering
//
// Pending edits form an ordered mapping: insertion order is edit order,
// and re-editing a field overwrites its value in place (last write wins,
// original position kept). Reconstruction and diffing therefore depend
// only on the final value per field, while transcripts can still show the
// order the operator worked in.
package session

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fieldwise/fieldwise/internal/record"
)

// State is the dialogue position of a session.
type State string

const (
	// StateFieldSelection waits for the operator to pick a field or a
	// command (save, cancel).
	StateFieldSelection State = "FIELD_SELECTION"

	// StateAwaitingInput waits for a value for ActiveField.
	StateAwaitingInput State = "AWAITING_INPUT"

	// StateConfirming shows the diff and waits for save/back/cancel.
	StateConfirming State = "CONFIRMING"

	// StateSaving is the persistence call. Cancel is not reachable here;
	// the save is a single atomic call, so there is never a partial save
	// to roll back.
	StateSaving State = "SAVING"
)

// PendingEdit is one staged, unsaved field change. Clear marks an explicit
// "unset this field" request; Value is the unset value in that case.
type PendingEdit struct {
	Field string
	Value record.Value
	Clear bool
}

// Session binds one operator to one in-progress edit of one record.
type Session struct {
	ID       string
	Operator string

	// Original is the immutable snapshot fetched when the session began.
	Original record.Record

	State State

	// ActiveField is the field awaiting input, "" outside AWAITING_INPUT.
	ActiveField string

	// Deadline is the inactivity deadline. Checked lazily by Store.Get.
	Deadline time.Time

	edits []PendingEdit
	index map[string]int
}

// newSession captures a deep copy of the record so store-side mutation
// cannot leak into the session.
func newSession(id, operator string, rec record.Record) *Session {
	return &Session{
		ID:       id,
		Operator: operator,
		Original: rec.Clone(),
		State:    StateFieldSelection,
		index:    make(map[string]int),
	}
}

// Apply stages a pending edit. A repeat edit of the same field overwrites
// the staged value in place. Only values accepted by internal/validate may
// be applied; the session does not re-validate.
func (s *Session) Apply(field string, v record.Value, clear bool) {
	edit := PendingEdit{Field: field, Value: v, Clear: clear}
	if clear {
		edit.Value = record.Unset()
	}
	if i, ok := s.index[field]; ok {
		s.edits[i] = edit
		return
	}
	s.index[field] = len(s.edits)
	s.edits = append(s.edits, edit)
}

// Pending returns the staged edit for a field, if any.
func (s *Session) Pending(field string) (PendingEdit, bool) {
	i, ok := s.index[field]
	if !ok {
		return PendingEdit{}, false
	}
	return s.edits[i], true
}

// Edits returns the pending edits in insertion order. The returned slice
// is a copy.
func (s *Session) Edits() []PendingEdit {
	out := make([]PendingEdit, len(s.edits))
	copy(out, s.edits)
	return out
}

// HasEdits reports whether anything is staged.
func (s *Session) HasEdits() bool {
	return len(s.edits) > 0
}

// Effective returns the field's value as it would be saved: the pending
// edit when one exists (clear = unset), otherwise the snapshot value.
// Implements rules.View.
func (s *Session) Effective(field string) record.Value {
	if edit, ok := s.Pending(field); ok {
		if edit.Clear {
			return record.Unset()
		}
		return edit.Value
	}
	return s.Original.Get(field)
}

// Reconstruct materializes the "as it will be saved" view of the record.
// Pure: calling it twice with no intervening edits yields identical
// output.
func (s *Session) Reconstruct(schema *record.Schema) record.Record {
	out := record.New(s.Original.ID)
	for _, def := range schema.Fields() {
		if v := s.Effective(def.Name); v.IsSet() {
			out.Set(def.Name, v)
		}
	}
	return out
}

// DiffEntry is one changed field in the confirmation view.
type DiffEntry struct {
	Field  string
	Label  string
	Before string // canonical display of the snapshot value
	After  string // canonical display of the pending value
}

// Diff computes the confirmation diff: schema field order, pending fields
// only, canonical display formatting. An empty diff means "nothing to
// save" and is not an error.
func (s *Session) Diff(schema *record.Schema) []DiffEntry {
	var out []DiffEntry
	for _, def := range schema.Fields() {
		edit, ok := s.Pending(def.Name)
		if !ok {
			continue
		}
		after := ""
		if !edit.Clear {
			after = edit.Value.Display()
		}
		out = append(out, DiffEntry{
			Field:  def.Name,
			Label:  def.Label,
			Before: s.Original.Get(def.Name).Display(),
			After:  after,
		})
	}
	return out
}

// IDGenerator produces session identifiers. Production code uses
// UUIDv7Generator; tests substitute a fixed sequence.
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 session IDs.
type UUIDv7Generator struct{}

// Generate returns a new hyphenated UUIDv7 string.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Clock abstracts wall time so expiry is testable.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real wall clock.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() time.Time { return time.Now() }

// ExpiredError reports that an operator's session passed its inactivity
// deadline. The session has already been discarded when this is returned;
// pending edits are lost, the one case where that happens without an
// explicit cancel.
type ExpiredError struct {
	Operator string
	Deadline time.Time
}

// Error implements the error interface.
func (e *ExpiredError) Error() string {
	return fmt.Sprintf("SESSION_EXPIRED: session for %s expired at %s", e.Operator, e.Deadline.Format(time.RFC3339))
}
