// Package notifications delivers push notifications for analysis
// lifecycle events via ntfy.
//
// When no ntfy topic is configured the constructor returns a noop
// implementation, so callers never need to guard notification calls.
// Delivery failures are returned to the caller for logging but must
// never fail the analysis that triggered them.
package notifications
