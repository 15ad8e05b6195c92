// Package store provides SQLite-backed storage for table entities and the
// grid event journal.
//
// The store holds:
//   - Entities: one JSON document per (table, key), ordered by seq
//   - Row limits: the maximum row count of a table
//   - Grid events: an append-only journal of emitted engine events
//
// # Ordering
//
// All queries order by seq (a logical counter), never by timestamps, so a
// session replays identically regardless of wall time.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Entity documents and journal payloads are canonical JSON from
// internal/trace.
package store
