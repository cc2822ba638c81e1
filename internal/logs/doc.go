// Package logs provides file tailing and offset helpers for reading daemon
// log files directly.
//
// It streams log files with bounded memory usage, supports negative offsets
// for "tail last N lines" operations, and powers follow-mode updates for
// `mailscout logs --follow` when the daemon is offline. Callers supply
// context deadlines so background polling shuts down cleanly when the CLI
// exits.
//
// When the daemon is running the CLI prefers the /api/logs stream; this
// package is the fallback that reads the files the daemon leaves behind.
package logs
