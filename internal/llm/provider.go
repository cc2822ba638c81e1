package llm

import "mailscout/internal/llm/provider"

// GenerateRequest describes a single chat-completion exchange. It is an
// alias for the shared contract in internal/llm/provider.
type GenerateRequest = provider.GenerateRequest

// Provider abstracts an OpenAI-compatible chat-completions backend. It
// is an alias for the shared contract in internal/llm/provider.
type Provider = provider.Provider
