package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fieldwise/fieldwise/internal/record"
)

// Postgres is a RecordStore over a pgx connection pool. Fields live in a
// jsonb column; row-level locking (SELECT ... FOR UPDATE) makes each
// update's read-modify-write atomic against concurrent saves, but there
// is still no version check across saves — last writer wins.
type Postgres struct {
	pool   *pgxpool.Pool
	schema *record.Schema
}

// OpenPostgres connects to the given DSN and ensures the records table
// exists.
func OpenPostgres(ctx context.Context, dsn string, schema *record.Schema) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	if _, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS records (
			id         TEXT PRIMARY KEY,
			fields     JSONB NOT NULL DEFAULT '{}',
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &Postgres{pool: pool, schema: schema}, nil
}

// Close releases the pool.
func (p *Postgres) Close() {
	p.pool.Close()
}

// Get implements RecordStore.
func (p *Postgres) Get(ctx context.Context, id string) (record.Record, error) {
	var fields string
	err := p.pool.QueryRow(ctx, `SELECT fields::text FROM records WHERE id = $1`, id).Scan(&fields)
	if errors.Is(err, pgx.ErrNoRows) {
		return record.Record{}, &StoreError{Kind: KindNotFound, Op: "get", ID: id}
	}
	if err != nil {
		return record.Record{}, p.classify("get", id, err)
	}
	rec, err := unmarshalFields(p.schema, id, fields)
	if err != nil {
		return record.Record{}, &StoreError{Kind: KindRejected, Op: "get", ID: id, Err: err}
	}
	return rec, nil
}

// Put inserts or replaces a whole record. Used by seeding and tests.
func (p *Postgres) Put(ctx context.Context, rec record.Record) error {
	fields, err := marshalFields(rec)
	if err != nil {
		return &StoreError{Kind: KindRejected, Op: "update", ID: rec.ID, Err: err}
	}
	_, err = p.pool.Exec(ctx, `
		INSERT INTO records (id, fields) VALUES ($1, $2::jsonb)
		ON CONFLICT (id) DO UPDATE SET fields = excluded.fields, updated_at = now()
	`, rec.ID, fields)
	if err != nil {
		return p.classify("update", rec.ID, err)
	}
	return nil
}

// Update implements RecordStore.
func (p *Postgres) Update(ctx context.Context, id string, changes []Change) (record.Record, error) {
	if err := ValidateChanges(p.schema, id, changes); err != nil {
		return record.Record{}, err
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return record.Record{}, p.classify("update", id, err)
	}
	defer tx.Rollback(ctx)

	var fields string
	err = tx.QueryRow(ctx, `SELECT fields::text FROM records WHERE id = $1 FOR UPDATE`, id).Scan(&fields)
	if errors.Is(err, pgx.ErrNoRows) {
		return record.Record{}, &StoreError{Kind: KindNotFound, Op: "update", ID: id}
	}
	if err != nil {
		return record.Record{}, p.classify("update", id, err)
	}

	rec, err := unmarshalFields(p.schema, id, fields)
	if err != nil {
		return record.Record{}, &StoreError{Kind: KindRejected, Op: "update", ID: id, Err: err}
	}
	ApplyChanges(rec, changes)

	updated, err := marshalFields(rec)
	if err != nil {
		return record.Record{}, &StoreError{Kind: KindRejected, Op: "update", ID: id, Err: err}
	}
	if _, err := tx.Exec(ctx, `
		UPDATE records SET fields = $1::jsonb, updated_at = now() WHERE id = $2
	`, updated, id); err != nil {
		return record.Record{}, p.classify("update", id, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return record.Record{}, p.classify("update", id, err)
	}
	return rec, nil
}

// classify maps Postgres errors onto the tri-state taxonomy by SQLSTATE
// class: connection failures (08) and serialization conflicts (40) are
// transient; data and constraint classes (22, 23) are rejections.
// Anything unclassifiable — typically a network error before a SQLSTATE
// exists — is transient.
func (p *Postgres) classify(op, id string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case strings.HasPrefix(pgErr.Code, "22"), strings.HasPrefix(pgErr.Code, "23"):
			return &StoreError{Kind: KindRejected, Op: op, ID: id, Err: err}
		case strings.HasPrefix(pgErr.Code, "08"), strings.HasPrefix(pgErr.Code, "40"), strings.HasPrefix(pgErr.Code, "57"):
			return &StoreError{Kind: KindTransient, Op: op, ID: id, Err: err}
		}
	}
	return &StoreError{Kind: KindTransient, Op: op, ID: id, Err: err}
}
