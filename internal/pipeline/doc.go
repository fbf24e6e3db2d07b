// Package pipeline runs a plan end to end:
//
//	load → prepare → entity set → synthesize → select → merge → export → store
//
// Everything up to and including merge is fatal on error: a run that fails
// there produces no output tables, exports, or warehouse writes. Export and
// store failures are per table; they are logged, recorded in
// Result.Failures, and the remaining tables are still written.
//
// Stage boundaries are logged through slog.Default().
package pipeline
