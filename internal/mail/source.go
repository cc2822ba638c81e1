package mail

import (
	"context"

	"mailscout/internal/services"
)

// Thread is one fetched conversation, flattened for analysis. Subject and
// Date come from the first message; Body joins every message body with
// per-message separators.
type Thread struct {
	ID           string
	Subject      string
	Date         string
	Body         string
	MessageCount int
}

// Source abstracts the mailbox backend.
type Source interface {
	// FetchThreads returns up to limit threads from the given sender,
	// newest first as the backend lists them. Individual thread fetch
	// failures are skipped; a listing failure is returned.
	FetchThreads(ctx context.Context, address string, limit int) ([]Thread, error)
	// HealthCheck reports whether the backend is reachable and authorized.
	HealthCheck(ctx context.Context) services.Health
}
