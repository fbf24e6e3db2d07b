// Package store persists finished tables to a SQL warehouse with replace
// semantics and keeps a run log of what was written.
//
// Two backends are supported: SQLite (go-sqlite3) and DuckDB (duckdb-go).
// Every statement is built as queryir and compiled by querysql for the
// backend's dialect; values are always bound as parameters.
//
// # Replace
//
// Replace writes one table inside a single transaction:
//
//  1. Look up the stored columns of the table.
//  2. Create the table when it is absent. Drop and create it when its
//     columns or types differ from the new schema. Otherwise DELETE FROM it;
//     a failure there is returned in WriteResult.DeleteErr and the write
//     continues.
//  3. INSERT every row.
//
// A failure anywhere else rolls back, leaving the previous rows in place.
// Replacing the same table twice leaves exactly one copy of the rows.
//
// # SQLite Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// # Run Log
//
// RecordRun appends one featsynth_runs row per stored table with the run ID,
// plan identity, row count, and ir.Fingerprint of the table, so repeated
// runs over the same input can be compared without rereading the data.
package store
