// Package pipeline models the host build pipeline's task graph: named tasks
// with activation conditions, "depends on" ordering edges, and "finalized by"
// edges that run diagnostic tasks after a task regardless of its outcome.
//
// The graph is assembled during the configuration phase and executed once.
// Activation conditions are evaluated at execution time, immediately before
// a task would run, so they observe the frozen post-finalization extension
// state rather than a snapshot taken at wiring time.
package pipeline
