// Package testsupport provides shared fixtures for package tests:
// configs rooted in per-test temp directories, prompt files, and
// pre-populated task stores.
package testsupport

import (
	"path/filepath"
	"testing"

	"mailscout/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t   testing.TB
	cfg *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test,
// a loopback bind, and stub API keys. Options apply on top.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.ArtifactsDir = filepath.Join(base, "artifacts")
	cfgVal.Paths.CacheDir = filepath.Join(base, "cache")
	cfgVal.Paths.CredentialsDir = filepath.Join(base, "credentials")
	cfgVal.Paths.PromptsPath = filepath.Join(base, "prompts.yaml")
	cfgVal.Paths.APIBind = "127.0.0.1:0"
	cfgVal.LLM.OpenAIAPIKey = "test-openai-key"
	cfgVal.LLM.GroqAPIKey = "test-groq-key"
	cfgVal.Gmail.CacheEnabled = false
	cfgVal.Notifications.Enabled = false

	builder := &configBuilder{t: t, cfg: &cfgVal}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithSender appends a sender entry to the test config.
func WithSender(id, email, promptKey string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Senders = append(b.cfg.Senders, config.Sender{
			ID:        id,
			Email:     email,
			PromptKey: promptKey,
		})
	}
}

// WithArtifacts enables artifact capture on the test config.
func WithArtifacts() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Analysis.ArtifactsEnabled = true
	}
}

// WithoutCleanContent disables the metadata-stripping model call.
func WithoutCleanContent() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Analysis.CleanContent = false
	}
}

// WithProvider selects the analysis provider on the test config.
func WithProvider(name string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.LLM.Provider = name
	}
}

// WithAnalysisLimits overrides the request bound checks.
func WithAnalysisLimits(maxEmails, maxBatch int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Analysis.MaxEmailLimit = maxEmails
		b.cfg.Analysis.MaxBatchSize = maxBatch
	}
}
