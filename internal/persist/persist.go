// Package persist implements the persistence coordinator: the single
// point where pending edits leave the process.
//
// A save runs in three phases. First the business-rule guard: every
// active blocking requirement is re-checked against the session's
// effective state, independent of how the operator navigated the dialogue
// afterward; any unmet requirement fails fast and never reaches the
// network. Then the change set is built from the pending edits. Finally
// the store update runs with bounded exponential backoff for transient
// failures only — store-side rejections and missing records are
// surfaced immediately.
//
// On success the coordinator clears the session. On any failure the
// session and its pending edits are preserved unchanged so the operator
// can retry or fix the blocking field.
package persist

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fieldwise/fieldwise/internal/record"
	"github.com/fieldwise/fieldwise/internal/rules"
	"github.com/fieldwise/fieldwise/internal/session"
	"github.com/fieldwise/fieldwise/internal/store"
)

// Policy bounds the retry loop for transient store failures.
type Policy struct {
	// MaxAttempts is the total number of update attempts, first try
	// included.
	MaxAttempts int

	// BaseDelay is the wait before the second attempt; it doubles per
	// attempt after that.
	BaseDelay time.Duration
}

// DefaultPolicy retries twice after the first failure: waits of 250ms and
// 500ms, then the error surfaces with a retry affordance.
var DefaultPolicy = Policy{MaxAttempts: 3, BaseDelay: 250 * time.Millisecond}

// ErrNothingToSave is returned for a session with no pending edits.
// Callers treat it as "nothing to do", distinct from a failure.
var ErrNothingToSave = fmt.Errorf("no pending edits to save")

// RetriesExhaustedError wraps the last transient failure after every
// attempt failed. The session is untouched; the operator may retry.
type RetriesExhaustedError struct {
	Attempts int
	Last     error
}

// Error implements the error interface.
func (e *RetriesExhaustedError) Error() string {
	return fmt.Sprintf("TRANSIENT: save failed after %d attempts: %v", e.Attempts, e.Last)
}

// Unwrap exposes the last store error for classification.
func (e *RetriesExhaustedError) Unwrap() error {
	return e.Last
}

// sleepFunc waits for d or until ctx is done. Tests substitute a no-op.
type sleepFunc func(ctx context.Context, d time.Duration) error

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Coordinator applies a session's pending edits to the record store.
type Coordinator struct {
	records  store.RecordStore
	rules    *rules.Engine
	sessions *session.Store
	policy   Policy
	logger   *slog.Logger
	sleep    sleepFunc
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithPolicy overrides the retry policy.
func WithPolicy(p Policy) Option {
	return func(c *Coordinator) { c.policy = p }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) { c.logger = l }
}

// WithSleep substitutes the backoff wait. Tests pass a recorder so retry
// timing is asserted without real waits.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Coordinator) { c.sleep = fn }
}

// New creates a Coordinator with the default policy.
func New(records store.RecordStore, ruleEngine *rules.Engine, sessions *session.Store, opts ...Option) *Coordinator {
	c := &Coordinator{
		records:  records,
		rules:    ruleEngine,
		sessions: sessions,
		policy:   DefaultPolicy,
		logger:   slog.Default(),
		sleep:    sleepWithContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Save applies the session's pending edits to the record store.
//
// Returns the canonical saved record on success, having cleared the
// session. On failure the session is preserved unchanged and the error is
// one of: *rules.Violation, ErrNothingToSave, *RetriesExhaustedError, or
// a *store.StoreError (rejected / not-found).
func (c *Coordinator) Save(ctx context.Context, sess *session.Session) (record.Record, error) {
	if !sess.HasEdits() {
		return record.Record{}, ErrNothingToSave
	}

	// Final business-rule guard. Unmet requirements never reach the
	// network.
	if violations := c.rules.Unmet(sess); len(violations) > 0 {
		c.logger.Info("save blocked by business rule",
			"operator", sess.Operator,
			"record", sess.Original.ID,
			"field", violations[0].Field,
		)
		return record.Record{}, violations[0]
	}

	changes := changeSet(sess)

	var lastErr error
	for attempt := 1; attempt <= c.policy.MaxAttempts; attempt++ {
		saved, err := c.records.Update(ctx, sess.Original.ID, changes)
		if err == nil {
			c.logger.Info("record saved",
				"operator", sess.Operator,
				"record", sess.Original.ID,
				"fields", len(changes),
				"attempt", attempt,
			)
			c.sessions.Clear(sess.Operator)
			return saved, nil
		}

		if !store.IsTransient(err) {
			// Rejected or not-found: no retry, session preserved.
			return record.Record{}, err
		}

		lastErr = err
		if attempt == c.policy.MaxAttempts {
			break
		}
		delay := c.policy.BaseDelay << (attempt - 1)
		c.logger.Warn("transient save failure, backing off",
			"operator", sess.Operator,
			"record", sess.Original.ID,
			"attempt", attempt,
			"delay", delay,
		)
		if err := c.sleep(ctx, delay); err != nil {
			return record.Record{}, err
		}
	}

	return record.Record{}, &RetriesExhaustedError{Attempts: c.policy.MaxAttempts, Last: lastErr}
}

// changeSet converts pending edits to store changes, insertion order
// preserved.
func changeSet(sess *session.Session) []store.Change {
	edits := sess.Edits()
	out := make([]store.Change, len(edits))
	for i, e := range edits {
		out[i] = store.Change{Field: e.Field, Value: e.Value, Clear: e.Clear}
	}
	return out
}
