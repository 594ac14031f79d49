// Package engine implements the dialogue state machine that drives an
// editing session from record selection through confirmation and save.
//
// # State Machine
//
// A session moves through:
//
//	FIELD_SELECTION → AWAITING_INPUT(field) → (validate) →
//	    {FIELD_SELECTION | AWAITING_INPUT on error | AWAITING_INPUT(required field)}
//	FIELD_SELECTION --save--> CONFIRMING → SAVING →
//	    {done on success | CONFIRMING on persistence failure | FIELD_SELECTION on rule violation}
//
// cancel is honored in every state except SAVING and discards all pending
// edits unconditionally. Saving is a single synchronous call, so there is
// no window where cancel could race a half-applied save.
//
// # Concurrency
//
// Each operator's dialogue is strictly sequential — one field awaits
// input at a time, one Handle call at a time. The engine imposes no
// ordering across operators; two operators may edit the same record
// concurrently and the later save wins (see internal/store).
//
// The engine owns no I/O beyond the Transport and the persistence
// coordinator. All validation and rule evaluation is pure and happens
// inline in Handle.
package engine
