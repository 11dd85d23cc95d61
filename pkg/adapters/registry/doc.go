// Package registry is the adaptor for registry backends. It owns the
// query-composition and session-lifecycle engine: one authenticated session
// per pipeline execution, canonical filter merging with per-entity default
// clauses, paginated reads (including strict two-step dependent lookups)
// and the pure reduction of backend results into the next pipeline state.
//
// The other adaptors in this repository are structurally identical
// simplifications of the pattern implemented here.
package registry
