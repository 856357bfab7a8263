// Package journal provides SQLite-backed durable storage for change
// groups.
//
// The journal is an append-only log of every grouped mutation batch the
// bus publishes: one row per group, one row per change with its
// before/after snapshots serialized as canonical JSON. Hosts use it as an
// undo-history-grade audit trail and as a replay source; the journal
// records groups, it does not apply undo.
//
// # Critical Patterns
//
//   - Idempotent writes: ON CONFLICT DO NOTHING on group and change rows,
//     so re-publishing a group (e.g. on crash recovery) is harmless.
//   - Logical ordering: all reads ORDER BY seq ASC, id ASC COLLATE BINARY.
//     Wall-clock timestamps are never used for ordering.
//   - Atomicity: a group and all its changes are written in one
//     transaction; a crash never leaves a group half-recorded.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: changes reference their group row
package journal
