package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fieldwise/fieldwise/internal/catalog"
	"github.com/fieldwise/fieldwise/internal/engine"
	"github.com/fieldwise/fieldwise/internal/persist"
	"github.com/fieldwise/fieldwise/internal/record"
	"github.com/fieldwise/fieldwise/internal/session"
	"github.com/fieldwise/fieldwise/internal/store"
	"github.com/fieldwise/fieldwise/internal/testutil"
)

// Result is the outcome of one scenario run.
type Result struct {
	Scenario *Scenario

	// Transcript is every prompt the engine sent, in order.
	Transcript []testutil.Prompt

	// Stored is the record as it stands in the store after the dialogue.
	Stored record.Record

	// UpdateCalls counts Update attempts, injected failures included.
	UpdateCalls int

	// SessionsLeft is the number of live sessions after the dialogue; a
	// finished dialogue leaves zero.
	SessionsLeft int

	// RunErr is the dialogue error, nil for a clean run. A script that
	// ends before the dialogue does surfaces here.
	RunErr error
}

// Run executes a scenario against a fresh in-memory store and the real
// engine. The clock is frozen, session IDs are fixed, and retry backoff
// advances the clock instead of sleeping, so runs are deterministic and
// instant.
func Run(sc *Scenario) (*Result, error) {
	bundle := catalog.Default()
	if sc.Catalog != "" {
		var err error
		bundle, err = catalog.CompileFile(filepath.Join(sc.dir, sc.Catalog))
		if err != nil {
			return nil, fmt.Errorf("scenario catalog: %w", err)
		}
	}
	ruleEngine, err := bundle.RuleEngine()
	if err != nil {
		return nil, fmt.Errorf("scenario rules: %w", err)
	}

	rec, err := buildRecord(bundle.Schema, sc.Record)
	if err != nil {
		return nil, err
	}

	mem := store.NewMemory(bundle.Schema)
	mem.Put(rec)
	flaky := testutil.NewFlakyStore(mem)
	if sc.Failures != nil {
		ferr, err := failureError(sc.Failures, sc.Record.ID)
		if err != nil {
			return nil, err
		}
		flaky.FailNextUpdates(sc.Failures.Updates, ferr)
	}

	clock := testutil.NewClock(time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC))
	sessions := session.NewStore(
		session.WithClock(clock),
		session.WithIDGenerator(testutil.NewFixedIDs("sess-0001")),
	)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	coordinator := persist.New(flaky, ruleEngine, sessions,
		persist.WithLogger(logger),
		persist.WithSleep(func(ctx context.Context, d time.Duration) error {
			clock.Advance(d)
			return nil
		}),
	)
	transport := testutil.NewScriptedTransport(sc.Inputs...)
	eng := engine.New(bundle.Schema, ruleEngine, sessions, coordinator, transport,
		engine.WithLogger(logger))

	operator := sc.Operator
	if operator == "" {
		operator = "op-1"
	}

	ctx := context.Background()
	runErr := eng.Run(ctx, operator, rec)

	stored, err := mem.Get(ctx, sc.Record.ID)
	if err != nil {
		return nil, fmt.Errorf("read back %s: %w", sc.Record.ID, err)
	}

	return &Result{
		Scenario:     sc,
		Transcript:   transport.Prompts(),
		Stored:       stored,
		UpdateCalls:  flaky.UpdateCalls(),
		SessionsLeft: sessions.Len(),
		RunErr:       runErr,
	}, nil
}

func failureError(fc *FailureClause, recID string) (error, error) {
	kind := store.KindTransient
	switch fc.Kind {
	case "", string(store.KindTransient):
	case string(store.KindRejected):
		kind = store.KindRejected
	case string(store.KindNotFound):
		kind = store.KindNotFound
	default:
		return nil, fmt.Errorf("unknown failure kind %q", fc.Kind)
	}
	return &store.StoreError{
		Kind: kind,
		Op:   "update",
		ID:   recID,
		Err:  fmt.Errorf("injected %s failure", kind),
	}, nil
}
