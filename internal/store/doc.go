// Package store provides SQLite-backed attribute storage for fixed point
// records.
//
// A record belongs to a model and holds raw integer attributes keyed by
// field name. *Record implements fixedpoint.Attributes, so an accessor built
// from a model's registry can read and write it directly.
//
// # Tables
//
//   - records: id, model, seq (logical insertion counter)
//   - attributes: record_id, field, raw (NULL when no value is recorded)
//
// Queries that list rows order by seq or field name with BINARY collation so
// results are stable across runs.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
