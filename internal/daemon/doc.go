// Package daemon coordinates the long-running mailscout process and its
// HTTP surface.
//
// It wires configuration, the task store, and the workflow manager into a
// single lifecycle with flock-based locking to prevent multiple instances.
// The daemon owns the API server that accepts analysis requests, serves
// task and sender snapshots, reports runtime status, streams logs, and
// handles remote shutdown.
//
// Keep orchestration logic here: batch processing lives in workflow while
// the daemon focuses on startup, shutdown, and request routing.
package daemon
