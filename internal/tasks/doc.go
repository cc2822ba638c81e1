// Package tasks holds in-flight analysis runs in memory and exposes helpers
// for driving their lifecycle.
//
// The Store manages task creation, batch-result accumulation, progress
// counters, terminal transitions, and retention sweeps. Tasks capture the
// request parameters, per-batch outcomes, and timestamps so the API layer can
// serve poll snapshots without touching workflow state.
//
// Task records are transient: process restart loses all tasks, and the sweep
// drops anything older than the retention window. Accessors return deep
// copies, so callers never observe a record mid-mutation.
package tasks
