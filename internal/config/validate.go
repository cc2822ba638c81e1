package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateLLM(); err != nil {
		return err
	}
	if err := c.validateAnalysis(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateSenders(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return errors.New("paths.log_dir must be set")
	}
	if strings.TrimSpace(c.Paths.APIBind) == "" {
		return errors.New("paths.api_bind must be set")
	}
	return nil
}

func (c *Config) validateLLM() error {
	switch c.LLM.Provider {
	case "openai", "groq":
	default:
		return fmt.Errorf("llm.provider must be openai or groq, got %q", c.LLM.Provider)
	}
	if err := ensurePositiveMap(map[string]int{
		"llm.timeout_seconds":       c.LLM.TimeoutSeconds,
		"llm.parse_timeout_seconds": c.LLM.ParseTimeoutSeconds,
	}); err != nil {
		return err
	}
	if c.LLM.RetryMaxAttempts < 1 {
		return errors.New("llm.retry_max_attempts must be >= 1")
	}
	if c.LLM.RetryBackoffSeconds < 0 {
		return errors.New("llm.retry_backoff_seconds must be >= 0")
	}
	return nil
}

func (c *Config) validateAnalysis() error {
	if err := ensurePositiveMap(map[string]int{
		"analysis.default_email_limit": c.Analysis.DefaultEmailLimit,
		"analysis.default_batch_size":  c.Analysis.DefaultBatchSize,
		"analysis.max_email_limit":     c.Analysis.MaxEmailLimit,
		"analysis.max_batch_size":      c.Analysis.MaxBatchSize,
		"analysis.retention_hours":     c.Analysis.RetentionHours,
		"analysis.sweep_interval":      c.Analysis.SweepInterval,
	}); err != nil {
		return err
	}
	if c.Analysis.DefaultEmailLimit > c.Analysis.MaxEmailLimit {
		return errors.New("analysis.default_email_limit must not exceed analysis.max_email_limit")
	}
	if c.Analysis.DefaultBatchSize > c.Analysis.MaxBatchSize {
		return errors.New("analysis.default_batch_size must not exceed analysis.max_batch_size")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.Enabled && strings.TrimSpace(c.Notifications.NtfyTopic) == "" {
		return errors.New("notifications.ntfy_topic must be set when notifications.enabled is true")
	}
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	switch c.Logging.Output {
	case "stdout", "file", "both":
	default:
		return fmt.Errorf("logging.output must be stdout, file, or both, got %q", c.Logging.Output)
	}
	for stage, level := range c.Logging.StageOverrides {
		switch level {
		case "debug", "info", "warn", "error":
		default:
			return fmt.Errorf("logging.stage_overrides[%s] must be debug, info, warn, or error, got %q", stage, level)
		}
	}
	return nil
}

func (c *Config) validateSenders() error {
	seen := make(map[string]struct{}, len(c.Senders))
	for i, sender := range c.Senders {
		if sender.ID == "" {
			return fmt.Errorf("senders[%d].id must be set", i)
		}
		if _, dup := seen[sender.ID]; dup {
			return fmt.Errorf("senders[%d].id %q is duplicated", i, sender.ID)
		}
		seen[sender.ID] = struct{}{}
		if sender.Email == "" {
			return fmt.Errorf("senders[%d].email must be set for sender %q", i, sender.ID)
		}
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
