// Package api defines wire-format types, converters, and the HTTP client
// for the daemon API. It translates internal task models into
// transport-friendly DTOs so CLI commands and other consumers never
// couple to internal types.
//
// # Key Types
//
// Task: transport snapshot of an analysis task with progress, batch
// results, and timestamps. List views omit Results and carry ResultCount.
//
// BatchResult: one batch outcome with the parsed analysis, the raw model
// markdown, and the original emails the model saw.
//
// DaemonStatus: daemon running state, task stats, and component health.
//
// LogEvent/LogStreamResponse: structured log payloads for live tailing.
//
// # Converters
//
// FromTask: tasks.Task -> Task with RFC3339 timestamps.
//
// FromSenders/FromHealth/FromTaskStats: registry and health projections.
//
// # Client
//
// Client wraps every daemon endpoint with context-aware requests and
// converts HTTP error payloads back into the services error taxonomy, so
// CLI code can errors.Is against the same sentinels the daemon used.
// IsDaemonUnavailable distinguishes "daemon not running" from errors the
// daemon returned.
//
// # Design Notes
//
// DTOs use snake_case JSON tags matching the original wire format.
// Status enums are exposed as lowercase strings. Timestamps use RFC3339
// with milliseconds. The analysis payload stays a string of JSON text;
// renderers parse it with the sections package.
package api
