// Package store provides SQLite-backed storage for the broker's decision
// journal and the host's opaque snapshot blob.
//
// The journal is append-only:
//   - One row per broker transition (enqueued, prompt_opened, granted, ...)
//   - Rows are keyed by (run_id, seq); rewriting a row is a silent no-op
//   - Request payloads are stored as canonical JSON with a fingerprint
//
// # Ordering
//
// All ordering uses seq (the broker's logical clock), never timestamps.
// Queries include ORDER BY run_id, seq so traces read back identically.
//
// # Snapshot
//
// The snapshot table holds a single row. The blob is stored as given and
// never interpreted.
//
// # Schema
//
// schema.sql is applied on every Open. Later changes are numbered
// migrations tracked in PRAGMA user_version, so a journal written by an
// older binary opens cleanly. File databases run in WAL mode so the trace
// command can read while simulate writes.
package store
