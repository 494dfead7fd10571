// Package store provides SQLite-backed quad storage for the engine.
//
// The store holds two tables:
//   - quads: one row per (graph, subject, predicate, object), set semantics
//   - graphs: declared named graphs, including empty ones
//
// # Critical Patterns
//
// Canonical Terms
//   - Every term column holds ir.Encode output; equality is byte equality
//   - The default graph is the empty string and is never listed in graphs
//
// Deterministic Query Results
//   - All reads MUST include ORDER BY ... COLLATE BINARY
//   - Ensures identical results and dumps across runs
//
// Single Connection
//   - MaxOpenConns is 1, so readers materialize their rows before returning
//   - This also keeps :memory: databases alive for the handle's lifetime
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes (files only)
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
