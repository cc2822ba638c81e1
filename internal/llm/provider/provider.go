// Package provider holds the provider contract shared by the llm
// pipeline package and its backend implementations. It exists as a leaf
// package so backends under internal/llm can implement the contract
// without importing the pipeline package that constructs them.
package provider

import (
	"context"
	"strings"
	"time"
)

// GenerateRequest describes a single chat-completion exchange.
type GenerateRequest struct {
	System string
	User   string
	// Timeout bounds the call with a context deadline when positive;
	// otherwise the provider's transport timeout applies alone.
	Timeout time.Duration
	// JSONMode asks the provider to force a JSON object response.
	JSONMode bool
}

// Provider abstracts an OpenAI-compatible chat-completions backend.
type Provider interface {
	// Name identifies the backend in logs and health reports.
	Name() string
	// Generate runs one completion and returns the message content.
	Generate(ctx context.Context, req GenerateRequest) (string, error)
	// HealthCheck verifies the key and model with a minimal round trip.
	HealthCheck(ctx context.Context) error
}

// SummarizeSnippet condenses payload text into a single short line for
// error messages and logs.
func SummarizeSnippet(text string) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "<empty>"
	}
	clean := strings.Join(strings.Fields(trimmed), " ")
	const limit = 160
	runes := []rune(clean)
	if len(runes) > limit {
		clean = string(runes[:limit]) + "..."
	}
	return clean
}
