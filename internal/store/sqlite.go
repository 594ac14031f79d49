package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"github.com/fieldwise/fieldwise/internal/record"
)

//go:embed schema.sql
var schemaSQL string

// SQLite is a RecordStore over a local SQLite database. Useful as a
// standalone record store for single-host deployments and as the backing
// store for the CLI.
type SQLite struct {
	db     *sql.DB
	schema *record.Schema
}

// OpenSQLite creates or opens a SQLite database at the given path and
// applies the schema. Idempotent.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
func OpenSQLite(path string, schema *record.Schema) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite supports one writer at a time; a single connection avoids
	// SQLITE_BUSY under concurrent saves.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply pragma %q: %w", p, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &SQLite{db: db, schema: schema}, nil
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Get implements RecordStore.
func (s *SQLite) Get(ctx context.Context, id string) (record.Record, error) {
	var fields string
	err := s.db.QueryRowContext(ctx, `SELECT fields FROM records WHERE id = ?`, id).Scan(&fields)
	if errors.Is(err, sql.ErrNoRows) {
		return record.Record{}, &StoreError{Kind: KindNotFound, Op: "get", ID: id}
	}
	if err != nil {
		return record.Record{}, s.classify("get", id, err)
	}

	rec, err := unmarshalFields(s.schema, id, fields)
	if err != nil {
		return record.Record{}, &StoreError{Kind: KindRejected, Op: "get", ID: id, Err: err}
	}
	return rec, nil
}

// Put inserts or replaces a whole record. Used by seeding and tests; the
// workflow engine only calls Get and Update.
func (s *SQLite) Put(ctx context.Context, rec record.Record) error {
	fields, err := marshalFields(rec)
	if err != nil {
		return &StoreError{Kind: KindRejected, Op: "update", ID: rec.ID, Err: err}
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO records (id, fields) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET
			fields = excluded.fields,
			updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')
	`, rec.ID, fields)
	if err != nil {
		return s.classify("update", rec.ID, err)
	}
	return nil
}

// Update implements RecordStore. Read-modify-write inside one
// transaction; the change set lands atomically or not at all.
//
// Last-writer-wins: no version check guards against a concurrent save by
// another operator.
func (s *SQLite) Update(ctx context.Context, id string, changes []Change) (record.Record, error) {
	if err := ValidateChanges(s.schema, id, changes); err != nil {
		return record.Record{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return record.Record{}, s.classify("update", id, err)
	}
	defer tx.Rollback()

	var fields string
	err = tx.QueryRowContext(ctx, `SELECT fields FROM records WHERE id = ?`, id).Scan(&fields)
	if errors.Is(err, sql.ErrNoRows) {
		return record.Record{}, &StoreError{Kind: KindNotFound, Op: "update", ID: id}
	}
	if err != nil {
		return record.Record{}, s.classify("update", id, err)
	}

	rec, err := unmarshalFields(s.schema, id, fields)
	if err != nil {
		return record.Record{}, &StoreError{Kind: KindRejected, Op: "update", ID: id, Err: err}
	}
	ApplyChanges(rec, changes)

	updated, err := marshalFields(rec)
	if err != nil {
		return record.Record{}, &StoreError{Kind: KindRejected, Op: "update", ID: id, Err: err}
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE records SET fields = ?, updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now') WHERE id = ?
	`, updated, id); err != nil {
		return record.Record{}, s.classify("update", id, err)
	}
	if err := tx.Commit(); err != nil {
		return record.Record{}, s.classify("update", id, err)
	}
	return rec, nil
}

// classify maps sqlite driver errors onto the tri-state taxonomy.
// Constraint violations are payload problems (rejected); everything else
// (locked database, I/O) is treated as transient.
func (s *SQLite) classify(op, id string, err error) error {
	var serr sqlite3.Error
	if errors.As(err, &serr) {
		switch serr.Code {
		case sqlite3.ErrConstraint, sqlite3.ErrMismatch, sqlite3.ErrTooBig:
			return &StoreError{Kind: KindRejected, Op: op, ID: id, Err: err}
		}
	}
	return &StoreError{Kind: KindTransient, Op: op, ID: id, Err: err}
}
