// Package store is a SQLite archive of captured snapshots.
//
// A capture is one point-in-time copy of every active stream, optionally
// with the fusion summary taken at the same instant. Captures are
// append-only and addressed by an opaque id (UUIDv7 in production).
//
// # Patterns
//
// Idempotent writes
//   - INSERT ... ON CONFLICT DO NOTHING; saving a capture id twice is a no-op
//
// Logical ordering
//   - captures carry a seq INTEGER; listing uses ORDER BY seq ASC, id ASC COLLATE BINARY
//
// Integrity
//   - each stream row stores the snapshot fingerprint; reads recompute and
//     compare it
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL
//   - busy_timeout=5000
//   - foreign_keys=ON
package store
