// Package ir provides the typed table model shared by every featsynth stage.
//
// This package contains value, schema, table, and plan definitions only. All
// other internal packages import ir; ir imports nothing internal. This keeps
// the table model the foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Values are a sealed interface (Null, String, Int, Float, Bool, Timestamp);
//     no untyped any values cross a stage boundary
//   - Row order is insertion order and never depends on map iteration
//   - Grouping and key lookup use CanonicalKey, never fmt.Sprint
//   - Tables are immutable once built; stages Clone before extending
package ir
