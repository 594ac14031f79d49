// Package record defines the record model shared by every layer of the
// editing workflow: typed field values, field definitions, and the schema
// that fixes field order and display formatting.
//
// Everything in this package is pure data. Validation lives in
// internal/validate, cross-field rules in internal/rules, and persistence
// in internal/store. A Record fetched from a store is treated as an
// immutable snapshot for the lifetime of an editing session; layers above
// overlay pending edits rather than mutating it.
//
// # Canonical Forms
//
// Dates are carried as canonical YYYY-MM-DD strings. Enum values are
// carried as their canonical declared token (matching is tolerant, storage
// is not). All operator input is NFC-normalized before it reaches a
// validator, so two visually identical inputs produce identical stored
// bytes.
package record
