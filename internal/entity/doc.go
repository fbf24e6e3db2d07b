// Package entity holds the table store and relationship graph for a run.
//
// An EntitySet owns validated copies of every input table and the directed
// one-to-many links between them. Link builds a grouping index per
// relationship once, so the synthesis engine resolves "which child rows
// belong to parent X" with a map lookup.
//
// # Referential Integrity
//
// A child row whose foreign key is present but names no parent row is an
// orphan. Orphans are excluded from that relationship's aggregates and
// counted by Validate; they never fail the run. Structural problems (missing
// columns, duplicate keys, unknown tables) fail fast with *SchemaError.
package entity
