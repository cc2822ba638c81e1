package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	LogDir         string `toml:"log_dir"`
	ArtifactsDir   string `toml:"artifacts_dir"`
	CacheDir       string `toml:"cache_dir"`
	CredentialsDir string `toml:"credentials_dir"`
	PromptsPath    string `toml:"prompts_path"`
	APIBind        string `toml:"api_bind"`
}

// Gmail contains configuration for the Gmail mail source.
type Gmail struct {
	CredentialsFile string `toml:"credentials_file"`
	TokenFile       string `toml:"token_file"`
	User            string `toml:"user"`
	CacheEnabled    bool   `toml:"cache_enabled"`
}

// LLM contains connection settings for the analysis and parse providers.
type LLM struct {
	Provider            string `toml:"provider"`
	OpenAIAPIKey        string `toml:"openai_api_key"`
	OpenAIBaseURL       string `toml:"openai_base_url"`
	OpenAIModel         string `toml:"openai_model"`
	GroqAPIKey          string `toml:"groq_api_key"`
	GroqBaseURL         string `toml:"groq_base_url"`
	GroqModel           string `toml:"groq_model"`
	TimeoutSeconds      int    `toml:"timeout_seconds"`
	ParseModel          string `toml:"parse_model"`
	ParseTimeoutSeconds int    `toml:"parse_timeout_seconds"`
	RetryMaxAttempts    int    `toml:"retry_max_attempts"`
	RetryBackoffSeconds int    `toml:"retry_backoff_seconds"`
}

// Analysis contains limits and timing for mailbox analysis tasks.
type Analysis struct {
	DefaultEmailLimit int  `toml:"default_email_limit"`
	DefaultBatchSize  int  `toml:"default_batch_size"`
	MaxEmailLimit     int  `toml:"max_email_limit"`
	MaxBatchSize      int  `toml:"max_batch_size"`
	RetentionHours    int  `toml:"retention_hours"`
	SweepInterval     int  `toml:"sweep_interval"`
	CleanContent      bool `toml:"clean_content"`
	ArtifactsEnabled  bool `toml:"artifacts_enabled"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	Enabled        bool   `toml:"enabled"`
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format         string            `toml:"format"`
	Level          string            `toml:"level"`
	Output         string            `toml:"output"`
	RetentionDays  int               `toml:"retention_days"`
	StageOverrides map[string]string `toml:"stage_overrides"`
}

// Sender declares a known mail source with its analysis prompt binding.
type Sender struct {
	ID             string `toml:"id"`
	Name           string `toml:"name"`
	Email          string `toml:"email"`
	Description    string `toml:"description"`
	ExpectedVolume string `toml:"expected_volume"`
	PromptKey      string `toml:"prompt_key"`
}

// Config encapsulates all configuration values for mailscout.
//
// Configuration sections by subsystem:
//   - Paths: directories, prompt file location, and API bind address
//   - Gmail: OAuth credential files and thread cache toggle
//   - LLM: provider selection plus per-provider keys, models, and timeouts
//   - Analysis: batch limits, task retention, and artifact capture
//   - Notifications: ntfy push notification settings
//   - Logging: log format, level, output routing, and retention
//   - Senders: the static sender registry ([[senders]] tables)
type Config struct {
	Paths         Paths         `toml:"paths"`
	Gmail         Gmail         `toml:"gmail"`
	LLM           LLM           `toml:"llm"`
	Analysis      Analysis      `toml:"analysis"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
	Senders       []Sender      `toml:"senders"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/mailscout/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// ResolvePath reports the configuration file path Load would use for the
// given override, and whether a file currently exists there.
func ResolvePath(path string) (string, bool, error) {
	return resolveConfigPath(path)
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath("~/.config/mailscout/config.toml")
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("mailscout.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.LogDir, c.Paths.CredentialsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if c.Analysis.ArtifactsEnabled && strings.TrimSpace(c.Paths.ArtifactsDir) != "" {
		if err := os.MkdirAll(c.Paths.ArtifactsDir, 0o755); err != nil {
			return fmt.Errorf("create artifacts directory %q: %w", c.Paths.ArtifactsDir, err)
		}
	}
	if c.Gmail.CacheEnabled && strings.TrimSpace(c.Paths.CacheDir) != "" {
		if err := os.MkdirAll(c.Paths.CacheDir, 0o755); err != nil {
			return fmt.Errorf("create cache directory %q: %w", c.Paths.CacheDir, err)
		}
	}
	return nil
}

// GmailCredentialsPath returns the resolved OAuth client secret location.
func (c *Config) GmailCredentialsPath() string {
	return filepath.Join(c.Paths.CredentialsDir, c.Gmail.CredentialsFile)
}

// GmailTokenPath returns the resolved OAuth token cache location.
func (c *Config) GmailTokenPath() string {
	return filepath.Join(c.Paths.CredentialsDir, c.Gmail.TokenFile)
}

// ThreadCachePath returns the sqlite thread cache location.
func (c *Config) ThreadCachePath() string {
	return filepath.Join(c.Paths.CacheDir, "threads.db")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func defaultCacheDir() string {
	if base, ok := os.LookupEnv("XDG_CACHE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "mailscout")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "~/.cache/mailscout"
	}
	return filepath.Join(home, ".cache", "mailscout")
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	sample := sampleConfig

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// LLMSettings contains resolved connection settings for one provider role.
type LLMSettings struct {
	Name           string
	APIKey         string
	BaseURL        string
	Model          string
	TimeoutSeconds int
}

// AnalysisLLM returns the connection settings for the configured analysis provider.
func (c *Config) AnalysisLLM() LLMSettings {
	switch c.LLM.Provider {
	case "groq":
		return LLMSettings{
			Name:           "groq",
			APIKey:         strings.TrimSpace(c.LLM.GroqAPIKey),
			BaseURL:        strings.TrimSpace(c.LLM.GroqBaseURL),
			Model:          strings.TrimSpace(c.LLM.GroqModel),
			TimeoutSeconds: c.LLM.TimeoutSeconds,
		}
	default:
		return LLMSettings{
			Name:           "openai",
			APIKey:         strings.TrimSpace(c.LLM.OpenAIAPIKey),
			BaseURL:        strings.TrimSpace(c.LLM.OpenAIBaseURL),
			Model:          strings.TrimSpace(c.LLM.OpenAIModel),
			TimeoutSeconds: c.LLM.TimeoutSeconds,
		}
	}
}

// ParseLLM returns the connection settings for the markdown-to-JSON parse step.
// The parse step always runs on Groq; an empty APIKey disables it.
func (c *Config) ParseLLM() LLMSettings {
	return LLMSettings{
		Name:           "groq",
		APIKey:         strings.TrimSpace(c.LLM.GroqAPIKey),
		BaseURL:        strings.TrimSpace(c.LLM.GroqBaseURL),
		Model:          strings.TrimSpace(c.LLM.ParseModel),
		TimeoutSeconds: c.LLM.ParseTimeoutSeconds,
	}
}
