// Package services defines shared utilities consumed by the analysis workflow
// and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp task IDs, sender IDs, batch numbers, and
//     correlation identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper that keep failure
//     classification consistent (task-fatal vs batch-scoped vs client error).
//
// Use these helpers when wiring new pipeline logic so operational behaviour
// (error handling, observability) stays uniform across the system.
package services
