// Package sync implements the bidirectional reconciliation engine
// between the host's task store and GitHub issues.
//
// The Engine is pure: it diffs a remote issue set against a local task
// set and emits an ordered action sequence without performing any I/O.
// The Orchestrator drives full cycles per repository (fetch, reconcile,
// apply, commit checkpoint) with per-repo failure isolation.
package sync
