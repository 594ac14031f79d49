// Package store defines the remote record store boundary and its
// adapters.
//
// The workflow engine depends only on the RecordStore interface and the
// tri-state error taxonomy {transient, rejected, not-found}. Adapters own
// everything behind that line: drivers, connection pooling, and error
// classification. Authentication, rate limiting, and field-ID mapping are
// adapter concerns and out of scope here.
//
// # Consistency
//
// Update is a last-writer-wins overwrite of the changed fields. There is
// no optimistic version check: two operators saving edits to the same
// record will silently interleave, last save wins per field set. This is
// inherited behavior, flagged rather than fixed — adding a version column
// would change the Update contract for every adapter.
//
// # Adapters
//
//   - SQLite: embedded schema, WAL mode, single-writer pool.
//   - Postgres: pgx pool, SQLSTATE-class error mapping.
//   - Memory: reference implementation for tests and the harness.
package store
