package session

import (
	"sync"
	"time"

	"github.com/fieldwise/fieldwise/internal/record"
)

// DefaultTTL is the inactivity window before a session expires.
const DefaultTTL = 15 * time.Minute

// Store is the operator-keyed session table. All access goes through the
// store; there is no ambient "current session" anywhere in the engine,
// which keeps concurrent-operator tests deterministic.
//
// Expiry is lazy: a session past its deadline is discarded by the next
// Get for that operator. No background sweep runs.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	clock    Clock
	ids      IDGenerator
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithTTL overrides the inactivity window.
func WithTTL(ttl time.Duration) StoreOption {
	return func(s *Store) { s.ttl = ttl }
}

// WithClock substitutes the time source. Tests use a deterministic clock.
func WithClock(c Clock) StoreOption {
	return func(s *Store) { s.clock = c }
}

// WithIDGenerator substitutes the session ID source.
func WithIDGenerator(g IDGenerator) StoreOption {
	return func(s *Store) { s.ids = g }
}

// NewStore creates an empty session table with production defaults.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		sessions: make(map[string]*Session),
		ttl:      DefaultTTL,
		clock:    SystemClock{},
		ids:      UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Begin creates a session for the operator, replacing any existing one,
// and starts its inactivity deadline. The record is snapshotted; later
// changes to the caller's copy do not affect the session.
func (s *Store) Begin(operator string, rec record.Record) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := newSession(s.ids.Generate(), operator, rec)
	sess.Deadline = s.clock.Now().Add(s.ttl)
	s.sessions[operator] = sess
	return sess
}

// Get returns the operator's live session. A session past its deadline is
// discarded and reported via ExpiredError; no session at all returns
// (nil, nil).
func (s *Store) Get(operator string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[operator]
	if !ok {
		return nil, nil
	}
	if s.clock.Now().After(sess.Deadline) {
		delete(s.sessions, operator)
		return nil, &ExpiredError{Operator: operator, Deadline: sess.Deadline}
	}
	return sess, nil
}

// Touch extends the inactivity deadline. Called on every interaction.
func (s *Store) Touch(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess.Deadline = s.clock.Now().Add(s.ttl)
}

// Cancel discards the operator's session and all pending edits
// unconditionally. Reports whether a session existed.
func (s *Store) Cancel(operator string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[operator]
	delete(s.sessions, operator)
	return ok
}

// Clear removes the operator's session after a successful save.
func (s *Store) Clear(operator string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, operator)
}

// Len returns the number of live sessions (expiry not applied).
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
