package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeGmail()
	c.normalizeLLM()
	c.normalizeAnalysis()
	c.normalizeNotifications()
	c.normalizeLogging()
	c.normalizeSenders()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.ArtifactsDir) == "" {
		c.Paths.ArtifactsDir = defaultArtifactsDir
	}
	if c.Paths.ArtifactsDir, err = expandPath(c.Paths.ArtifactsDir); err != nil {
		return fmt.Errorf("paths.artifacts_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		c.Paths.CacheDir = defaultCacheDir()
	}
	if c.Paths.CacheDir, err = expandPath(c.Paths.CacheDir); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	if c.Paths.CredentialsDir, err = expandPath(c.Paths.CredentialsDir); err != nil {
		return fmt.Errorf("paths.credentials_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.PromptsPath) == "" {
		c.Paths.PromptsPath = defaultPromptsPath
	}
	if c.Paths.PromptsPath, err = expandPath(c.Paths.PromptsPath); err != nil {
		return fmt.Errorf("paths.prompts_path: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	return nil
}

func (c *Config) normalizeGmail() {
	c.Gmail.CredentialsFile = strings.TrimSpace(c.Gmail.CredentialsFile)
	if c.Gmail.CredentialsFile == "" {
		c.Gmail.CredentialsFile = defaultGmailCredentials
	}
	c.Gmail.TokenFile = strings.TrimSpace(c.Gmail.TokenFile)
	if c.Gmail.TokenFile == "" {
		c.Gmail.TokenFile = defaultGmailToken
	}
	c.Gmail.User = strings.TrimSpace(c.Gmail.User)
	if c.Gmail.User == "" {
		c.Gmail.User = defaultGmailUser
	}
}

func (c *Config) normalizeLLM() {
	c.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))
	if c.LLM.Provider == "" {
		c.LLM.Provider = defaultLLMProvider
	}
	c.LLM.OpenAIBaseURL = strings.TrimSpace(c.LLM.OpenAIBaseURL)
	if c.LLM.OpenAIBaseURL == "" {
		c.LLM.OpenAIBaseURL = defaultOpenAIBaseURL
	}
	c.LLM.OpenAIModel = strings.TrimSpace(c.LLM.OpenAIModel)
	if c.LLM.OpenAIModel == "" {
		c.LLM.OpenAIModel = defaultOpenAIModel
	}
	c.LLM.GroqBaseURL = strings.TrimSpace(c.LLM.GroqBaseURL)
	if c.LLM.GroqBaseURL == "" {
		c.LLM.GroqBaseURL = defaultGroqBaseURL
	}
	c.LLM.GroqModel = strings.TrimSpace(c.LLM.GroqModel)
	if c.LLM.GroqModel == "" {
		c.LLM.GroqModel = defaultGroqModel
	}
	c.LLM.ParseModel = strings.TrimSpace(c.LLM.ParseModel)
	if c.LLM.ParseModel == "" {
		c.LLM.ParseModel = defaultParseModel
	}

	// Environment keys win over file values so deployments can rotate
	// credentials without touching config.toml.
	c.LLM.OpenAIAPIKey = strings.TrimSpace(c.LLM.OpenAIAPIKey)
	if value, ok := os.LookupEnv("OPENAI_API_KEY"); ok && strings.TrimSpace(value) != "" {
		c.LLM.OpenAIAPIKey = strings.TrimSpace(value)
	}
	c.LLM.GroqAPIKey = strings.TrimSpace(c.LLM.GroqAPIKey)
	if value, ok := os.LookupEnv("GROQ_API_KEY"); ok && strings.TrimSpace(value) != "" {
		c.LLM.GroqAPIKey = strings.TrimSpace(value)
	}

	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
	if c.LLM.ParseTimeoutSeconds <= 0 {
		c.LLM.ParseTimeoutSeconds = defaultParseTimeoutSeconds
	}
	if c.LLM.RetryMaxAttempts <= 0 {
		c.LLM.RetryMaxAttempts = defaultRetryMaxAttempts
	}
	if c.LLM.RetryBackoffSeconds < 0 {
		c.LLM.RetryBackoffSeconds = defaultRetryBackoffSeconds
	}
}

func (c *Config) normalizeAnalysis() {
	if c.Analysis.DefaultEmailLimit <= 0 {
		c.Analysis.DefaultEmailLimit = defaultEmailLimit
	}
	if c.Analysis.DefaultBatchSize <= 0 {
		c.Analysis.DefaultBatchSize = defaultBatchSize
	}
	if c.Analysis.MaxEmailLimit <= 0 {
		c.Analysis.MaxEmailLimit = defaultMaxEmailLimit
	}
	if c.Analysis.MaxBatchSize <= 0 {
		c.Analysis.MaxBatchSize = defaultMaxBatchSize
	}
	if c.Analysis.RetentionHours <= 0 {
		c.Analysis.RetentionHours = defaultRetentionHours
	}
	if c.Analysis.SweepInterval <= 0 {
		c.Analysis.SweepInterval = defaultSweepInterval
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.Output = strings.ToLower(strings.TrimSpace(c.Logging.Output))
	if c.Logging.Output == "" {
		c.Logging.Output = defaultLogOutput
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
	if len(c.Logging.StageOverrides) > 0 {
		overrides := make(map[string]string, len(c.Logging.StageOverrides))
		for stage, level := range c.Logging.StageOverrides {
			stage = strings.ToLower(strings.TrimSpace(stage))
			level = strings.ToLower(strings.TrimSpace(level))
			if stage == "" || level == "" {
				continue
			}
			overrides[stage] = level
		}
		c.Logging.StageOverrides = overrides
	}
}

func (c *Config) normalizeSenders() {
	for i := range c.Senders {
		c.Senders[i].ID = strings.TrimSpace(c.Senders[i].ID)
		c.Senders[i].Name = strings.TrimSpace(c.Senders[i].Name)
		c.Senders[i].Email = strings.TrimSpace(c.Senders[i].Email)
		c.Senders[i].Description = strings.TrimSpace(c.Senders[i].Description)
		c.Senders[i].ExpectedVolume = strings.TrimSpace(c.Senders[i].ExpectedVolume)
		c.Senders[i].PromptKey = strings.TrimSpace(c.Senders[i].PromptKey)
	}
}
