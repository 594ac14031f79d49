package persist

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldwise/fieldwise/internal/record"
	"github.com/fieldwise/fieldwise/internal/rules"
	"github.com/fieldwise/fieldwise/internal/session"
	"github.com/fieldwise/fieldwise/internal/store"
	"github.com/fieldwise/fieldwise/internal/testutil"
)

type fixture struct {
	schema   *record.Schema
	rules    *rules.Engine
	sessions *session.Store
	memory   *store.Memory
	flaky    *testutil.FlakyStore
	sleeps   []time.Duration
	coord    *Coordinator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	schema, err := record.NewSchema("customer", []record.FieldDef{
		{Name: "name", Label: "Name", Kind: record.KindText},
		{Name: "tier", Label: "Tier", Kind: record.KindEnum, Tokens: []string{"standard", "premium"}},
		{Name: "account_manager", Label: "Account manager", Kind: record.KindText, Optional: true},
	})
	require.NoError(t, err)

	ruleEngine, err := rules.NewEngine(schema, []rules.Trigger{
		{Name: "premium-needs-manager", Field: "tier", To: "premium", Requires: "account_manager"},
		{Name: "standard-clears-manager", Field: "tier", To: "standard", Clears: "account_manager"},
	})
	require.NoError(t, err)

	f := &fixture{
		schema:   schema,
		rules:    ruleEngine,
		sessions: session.NewStore(),
		memory:   store.NewMemory(schema),
	}
	f.flaky = testutil.NewFlakyStore(f.memory)
	f.coord = New(f.flaky, ruleEngine, f.sessions,
		WithSleep(func(ctx context.Context, d time.Duration) error {
			f.sleeps = append(f.sleeps, d)
			return nil
		}),
	)

	rec := record.New("cust-1")
	rec.Set("name", record.Text("Ada"))
	rec.Set("tier", record.Enum("standard"))
	f.memory.Put(rec)
	return f
}

func (f *fixture) begin(t *testing.T) *session.Session {
	t.Helper()
	ctx := context.Background()
	rec, err := f.memory.Get(ctx, "cust-1")
	require.NoError(t, err)
	return f.sessions.Begin("op-1", rec)
}

func TestSave_NothingToSave(t *testing.T) {
	f := newFixture(t)
	sess := f.begin(t)

	_, err := f.coord.Save(context.Background(), sess)
	assert.ErrorIs(t, err, ErrNothingToSave)
	assert.Equal(t, 0, f.flaky.UpdateCalls())
}

func TestSave_AppliesChangeSetAndClearsSession(t *testing.T) {
	f := newFixture(t)
	sess := f.begin(t)
	sess.Apply("tier", record.Enum("premium"), false)
	sess.Apply("account_manager", record.Text("Morgan"), false)

	saved, err := f.coord.Save(context.Background(), sess)
	require.NoError(t, err)
	assert.Equal(t, "premium", saved.Get("tier").Display())
	assert.Equal(t, "Morgan", saved.Get("account_manager").Display())

	got, err := f.sessions.Get("op-1")
	require.NoError(t, err)
	assert.Nil(t, got, "session should be cleared after save")
}

func TestSave_BusinessRuleViolationNeverReachesStore(t *testing.T) {
	f := newFixture(t)
	sess := f.begin(t)
	sess.Apply("tier", record.Enum("premium"), false)

	_, err := f.coord.Save(context.Background(), sess)
	var violation *rules.Violation
	require.ErrorAs(t, err, &violation)
	assert.Equal(t, "account_manager", violation.Field)
	assert.Equal(t, 0, f.flaky.UpdateCalls(), "violation must fail fast before the network")

	// Session preserved with edits intact.
	got, err := f.sessions.Get("op-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.HasEdits())
}

func TestSave_TransientFailureRetriesWithBackoff(t *testing.T) {
	f := newFixture(t)
	sess := f.begin(t)
	sess.Apply("name", record.Text("Grace"), false)

	f.flaky.FailNextUpdates(2, &store.StoreError{Kind: store.KindTransient, Op: "update", ID: "cust-1", Err: errors.New("timeout")})

	saved, err := f.coord.Save(context.Background(), sess)
	require.NoError(t, err)
	assert.Equal(t, "Grace", saved.Get("name").Display())
	assert.Equal(t, 3, f.flaky.UpdateCalls())
	assert.Equal(t, []time.Duration{250 * time.Millisecond, 500 * time.Millisecond}, f.sleeps)
}

func TestSave_RetriesExhaustedPreservesSession(t *testing.T) {
	f := newFixture(t)
	sess := f.begin(t)
	sess.Apply("name", record.Text("Grace"), false)

	f.flaky.FailNextUpdates(3, &store.StoreError{Kind: store.KindTransient, Op: "update", ID: "cust-1", Err: errors.New("timeout")})

	_, err := f.coord.Save(context.Background(), sess)
	var exhausted *RetriesExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 3, exhausted.Attempts)
	assert.True(t, store.IsTransient(err), "exhausted error keeps transient classification")

	got, gerr := f.sessions.Get("op-1")
	require.NoError(t, gerr)
	require.NotNil(t, got, "session preserved after exhausted retries")
	assert.Len(t, got.Edits(), 1)

	// A later save applies the original full change set.
	saved, err := f.coord.Save(context.Background(), got)
	require.NoError(t, err)
	assert.Equal(t, "Grace", saved.Get("name").Display())
}

func TestSave_RejectedIsNotRetried(t *testing.T) {
	f := newFixture(t)
	sess := f.begin(t)
	sess.Apply("name", record.Text("Grace"), false)

	f.flaky.FailNextUpdates(1, &store.StoreError{Kind: store.KindRejected, Op: "update", ID: "cust-1"})

	_, err := f.coord.Save(context.Background(), sess)
	assert.True(t, store.IsRejected(err))
	assert.Equal(t, 1, f.flaky.UpdateCalls())
	assert.Empty(t, f.sleeps)
}

func TestSave_NotFoundIsNotRetried(t *testing.T) {
	f := newFixture(t)
	sess := f.begin(t)
	sess.Apply("name", record.Text("Grace"), false)

	f.flaky.FailNextUpdates(1, &store.StoreError{Kind: store.KindNotFound, Op: "update", ID: "cust-1"})

	_, err := f.coord.Save(context.Background(), sess)
	assert.True(t, store.IsNotFound(err))
	assert.Equal(t, 1, f.flaky.UpdateCalls())
}

func TestSave_DowngradeClearLandsInStore(t *testing.T) {
	f := newFixture(t)

	// Snapshot starts at premium with a manager assigned.
	rec := record.New("cust-1")
	rec.Set("name", record.Text("Ada"))
	rec.Set("tier", record.Enum("premium"))
	rec.Set("account_manager", record.Text("Morgan"))
	f.memory.Put(rec)

	sess := f.begin(t)
	sess.Apply("tier", record.Enum("standard"), false)
	sess.Apply("account_manager", record.Unset(), true) // what the rule engine stages

	saved, err := f.coord.Save(context.Background(), sess)
	require.NoError(t, err)
	assert.Equal(t, "standard", saved.Get("tier").Display())
	assert.False(t, saved.Get("account_manager").IsSet())
}

func TestSave_ContextCancelledDuringBackoff(t *testing.T) {
	f := newFixture(t)
	sess := f.begin(t)
	sess.Apply("name", record.Text("Grace"), false)

	ctx, cancel := context.WithCancel(context.Background())
	coord := New(f.flaky, f.rules, f.sessions,
		WithSleep(func(ctx context.Context, d time.Duration) error {
			cancel()
			return ctx.Err()
		}),
	)
	f.flaky.FailNextUpdates(1, &store.StoreError{Kind: store.KindTransient, Op: "update", ID: "cust-1", Err: errors.New("timeout")})

	_, err := coord.Save(ctx, sess)
	assert.ErrorIs(t, err, context.Canceled)
}
