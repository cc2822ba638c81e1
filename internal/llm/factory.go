package llm

import (
	"time"

	"log/slog"

	"mailscout/internal/config"
	"mailscout/internal/llm/groq"
	"mailscout/internal/llm/openai"
	"mailscout/internal/services"
)

// NewFromConfig builds the pipeline service from application config: the
// configured analysis provider plus the Groq parse provider when its key
// is present.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) (*Service, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "llm", "init", "config is required", nil)
	}

	analysisSettings := cfg.AnalysisLLM()
	if analysisSettings.APIKey == "" {
		return nil, services.Wrap(services.ErrConfiguration, "llm", "init",
			"analysis provider "+analysisSettings.Name+" has no API key", nil)
	}

	backoff := time.Duration(cfg.LLM.RetryBackoffSeconds) * time.Second

	var analysis Provider
	switch analysisSettings.Name {
	case "groq":
		analysis = groq.NewClient(groq.Config{
			APIKey:         analysisSettings.APIKey,
			BaseURL:        analysisSettings.BaseURL,
			Model:          analysisSettings.Model,
			TimeoutSeconds: analysisSettings.TimeoutSeconds,
		})
	default:
		analysis = openai.NewClient(openai.Config{
			APIKey:         analysisSettings.APIKey,
			BaseURL:        analysisSettings.BaseURL,
			Model:          analysisSettings.Model,
			TimeoutSeconds: analysisSettings.TimeoutSeconds,
		},
			openai.WithRetryMaxAttempts(cfg.LLM.RetryMaxAttempts),
			openai.WithRetryBackoff(backoff, 10*backoff),
		)
	}

	var parse Provider
	parseSettings := cfg.ParseLLM()
	if parseSettings.APIKey != "" {
		parse = groq.NewClient(groq.Config{
			APIKey:         parseSettings.APIKey,
			BaseURL:        parseSettings.BaseURL,
			Model:          parseSettings.Model,
			TimeoutSeconds: parseSettings.TimeoutSeconds,
		})
	}

	settings := Settings{
		AnalysisTimeout: time.Duration(cfg.LLM.TimeoutSeconds) * time.Second,
		ParseTimeout:    time.Duration(cfg.LLM.ParseTimeoutSeconds) * time.Second,
	}
	return NewService(analysis, parse, settings, logger), nil
}
