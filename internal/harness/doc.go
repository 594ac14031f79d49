// Package harness runs end-to-end dialogue scenarios against the real
// editing engine: a seeded in-memory record store, a scripted transport,
// and deterministic clock and session IDs. Scenarios are YAML files; the
// full prompt transcript is compared against golden files so any change
// to dialogue wording or flow shows up as a diff.
package harness
