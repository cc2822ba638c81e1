package llm

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"mailscout/internal/logging"
	"mailscout/internal/services"
)

const (
	defaultAnalysisTimeout = 180 * time.Second
	defaultParseTimeout    = 30 * time.Second
)

// Settings bounds the pipeline calls.
type Settings struct {
	AnalysisTimeout time.Duration
	ParseTimeout    time.Duration
}

// Service runs the model calls of the analysis pipeline and owns their
// degradation behavior.
type Service struct {
	analysis Provider
	parse    Provider
	settings Settings
	logger   *slog.Logger
}

// NewService wires the analysis provider with an optional parse provider.
// A nil parse provider disables markdown-to-JSON conversion.
func NewService(analysis Provider, parse Provider, settings Settings, logger *slog.Logger) *Service {
	if settings.AnalysisTimeout <= 0 {
		settings.AnalysisTimeout = defaultAnalysisTimeout
	}
	if settings.ParseTimeout <= 0 {
		settings.ParseTimeout = defaultParseTimeout
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{
		analysis: analysis,
		parse:    parse,
		settings: settings,
		logger:   logging.NewComponentLogger(logger, "llm"),
	}
}

// CleanContent strips signatures, footers, and other metadata from the
// combined email text. Any failure keeps the original text so a flaky
// cleanup can never fail a batch.
func (s *Service) CleanContent(ctx context.Context, emailText string) string {
	if strings.TrimSpace(emailText) == "" {
		return emailText
	}
	log := logging.WithContext(ctx, s.logger)
	log.Debug("stripping metadata", logging.Int("chars", len(emailText)))
	cleaned, err := s.analysis.Generate(ctx, GenerateRequest{
		System:  cleaningSystemPrompt,
		User:    cleaningUserPrompt(emailText),
		Timeout: s.settings.AnalysisTimeout,
	})
	if err != nil {
		logging.WarnWithContext(log, "metadata cleanup failed, using original text", "llm_clean_failed",
			logging.Error(err))
		return emailText
	}
	log.Debug("metadata stripped",
		logging.Int("chars_before", len(emailText)),
		logging.Int("chars_after", len(cleaned)))
	return cleaned
}

// Analyze runs the sender-specific analysis over the cleaned batch text.
// Errors propagate so the surrounding batch is recorded as failed.
func (s *Service) Analyze(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	log := logging.WithContext(ctx, s.logger)
	log.Info("analysis call",
		logging.String("provider", s.analysis.Name()),
		logging.Int("system_chars", len(systemPrompt)),
		logging.Int("user_chars", len(userPrompt)))
	output, err := s.analysis.Generate(ctx, GenerateRequest{
		System:  systemPrompt,
		User:    userPrompt,
		Timeout: s.settings.AnalysisTimeout,
	})
	if err != nil {
		return "", services.Wrap(classifyProviderError(err), "analyze", s.analysis.Name(), "analysis call failed", err)
	}
	log.Debug("analysis call completed", logging.Int("chars", len(output)))
	return output, nil
}

// MarkdownToJSON converts the markdown analysis into structured JSON with
// the fast parse model. Every failure path returns the raw markdown
// unchanged; with no parse provider configured the call is skipped.
func (s *Service) MarkdownToJSON(ctx context.Context, markdown string) string {
	if strings.TrimSpace(markdown) == "" {
		return markdown
	}
	log := logging.WithContext(ctx, s.logger)
	if s.parse == nil {
		logging.WarnWithContext(log, "parse provider not configured, keeping raw markdown", "llm_parse_skipped")
		return markdown
	}
	output, err := s.parse.Generate(ctx, GenerateRequest{
		System:   parseSystemPrompt,
		User:     parseUserPrompt(markdown),
		Timeout:  s.settings.ParseTimeout,
		JSONMode: true,
	})
	if err != nil {
		logging.WarnWithContext(log, "markdown parse failed, keeping raw markdown", "llm_parse_failed",
			logging.Error(err))
		return markdown
	}
	extracted := ExtractJSON(output)
	if !json.Valid([]byte(extracted)) {
		logging.WarnWithContext(log, "parse output is not valid JSON, keeping raw markdown", "llm_parse_invalid",
			logging.String("snippet", SummarizeSnippet(extracted)))
		return markdown
	}
	return extracted
}

// HealthCheck pings the analysis provider.
func (s *Service) HealthCheck(ctx context.Context) error {
	return s.analysis.HealthCheck(ctx)
}

// AnalysisProviderName reports the configured analysis backend for status views.
func (s *Service) AnalysisProviderName() string {
	return s.analysis.Name()
}

// ParseEnabled reports whether the markdown-to-JSON step is configured.
func (s *Service) ParseEnabled() bool {
	return s.parse != nil
}

func classifyProviderError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return services.ErrTimeout
	}
	return services.ErrExternalService
}
