package config_test

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"mailscout/internal/config"
)

func TestLoadDefaultConfigUsesEnvLLMKeyAndExpandsPaths(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "test-key")
	t.Setenv("GROQ_API_KEY", "test-groq-key")
	t.Setenv("XDG_CACHE_HOME", "")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantLogs := filepath.Join(tempHome, ".local", "share", "mailscout", "logs")
	if cfg.Paths.LogDir != wantLogs {
		t.Fatalf("unexpected log dir: got %q want %q", cfg.Paths.LogDir, wantLogs)
	}
	if cfg.Paths.CredentialsDir != filepath.Join(tempHome, ".config", "mailscout", "credentials") {
		t.Fatalf("unexpected credentials dir: %q", cfg.Paths.CredentialsDir)
	}
	if cfg.Paths.CacheDir != filepath.Join(tempHome, ".cache", "mailscout") {
		t.Fatalf("unexpected cache dir: %q", cfg.Paths.CacheDir)
	}
	if cfg.Paths.APIBind != "127.0.0.1:7480" {
		t.Fatalf("unexpected api bind: %q", cfg.Paths.APIBind)
	}
	if cfg.LLM.Provider != "openai" {
		t.Fatalf("expected default provider openai, got %q", cfg.LLM.Provider)
	}
	if cfg.LLM.OpenAIAPIKey != "test-key" {
		t.Fatalf("expected OpenAI key from env, got %q", cfg.LLM.OpenAIAPIKey)
	}
	if cfg.LLM.GroqAPIKey != "test-groq-key" {
		t.Fatalf("expected Groq key from env, got %q", cfg.LLM.GroqAPIKey)
	}
	if cfg.LLM.OpenAIBaseURL != config.Default().LLM.OpenAIBaseURL {
		t.Fatalf("unexpected OpenAI base url: %q", cfg.LLM.OpenAIBaseURL)
	}
	if !cfg.Gmail.CacheEnabled {
		t.Fatal("expected Gmail thread cache enabled by default")
	}
	if cfg.Gmail.User != "me" {
		t.Fatalf("expected Gmail user 'me', got %q", cfg.Gmail.User)
	}
	if cfg.Analysis.DefaultEmailLimit != 50 {
		t.Fatalf("unexpected default email limit: %d", cfg.Analysis.DefaultEmailLimit)
	}
	if cfg.Analysis.DefaultBatchSize != 5 {
		t.Fatalf("unexpected default batch size: %d", cfg.Analysis.DefaultBatchSize)
	}
	if cfg.Notifications.Enabled {
		t.Fatal("expected notifications disabled by default")
	}
	if cfg.Analysis.ArtifactsEnabled {
		t.Fatal("expected artifacts disabled by default")
	}
	if !cfg.Analysis.CleanContent {
		t.Fatal("expected content cleaning enabled by default")
	}
	if len(cfg.Senders) != 0 {
		t.Fatalf("expected no senders by default, got %d", len(cfg.Senders))
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}

	for _, dir := range []string{cfg.Paths.LogDir, cfg.Paths.CredentialsDir, cfg.Paths.CacheDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "mailscout.toml")

	type payload struct {
		Paths struct {
			APIBind string `toml:"api_bind"`
		} `toml:"paths"`
		LLM struct {
			Provider  string `toml:"provider"`
			GroqModel string `toml:"groq_model"`
		} `toml:"llm"`
		Analysis struct {
			DefaultBatchSize int `toml:"default_batch_size"`
			MaxBatchSize     int `toml:"max_batch_size"`
		} `toml:"analysis"`
		Senders []config.Sender `toml:"senders"`
	}
	custom := payload{}
	custom.Paths.APIBind = "0.0.0.0:9000"
	custom.LLM.Provider = "groq"
	custom.LLM.GroqModel = "llama-custom"
	custom.Analysis.DefaultBatchSize = 10
	custom.Analysis.MaxBatchSize = 20
	custom.Senders = []config.Sender{{
		ID:        "fellowship-ai",
		Name:      "Fellowship AI",
		Email:     "digest@fellowship.ai",
		PromptKey: "research_digest",
	}}
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Paths.APIBind != "0.0.0.0:9000" {
		t.Fatalf("expected api bind override, got %q", cfg.Paths.APIBind)
	}
	if cfg.LLM.Provider != "groq" {
		t.Fatalf("expected provider groq, got %q", cfg.LLM.Provider)
	}
	if cfg.LLM.GroqModel != "llama-custom" {
		t.Fatalf("expected groq model override, got %q", cfg.LLM.GroqModel)
	}
	if cfg.Analysis.DefaultBatchSize != 10 {
		t.Fatalf("expected batch size 10, got %d", cfg.Analysis.DefaultBatchSize)
	}
	if cfg.Analysis.MaxBatchSize != 20 {
		t.Fatalf("expected max batch size 20, got %d", cfg.Analysis.MaxBatchSize)
	}
	if cfg.Analysis.DefaultEmailLimit != config.Default().Analysis.DefaultEmailLimit {
		t.Fatalf("expected default email limit to survive, got %d", cfg.Analysis.DefaultEmailLimit)
	}
	if len(cfg.Senders) != 1 || cfg.Senders[0].ID != "fellowship-ai" {
		t.Fatalf("expected configured sender, got %+v", cfg.Senders)
	}
	if cfg.Senders[0].Email != "digest@fellowship.ai" {
		t.Fatalf("unexpected sender email: %q", cfg.Senders[0].Email)
	}
}

func TestEnvVarOverridesConfigFileForAPIKeys(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "mailscout.toml")

	// Write config file with API keys
	type payload struct {
		LLM struct {
			OpenAIAPIKey string `toml:"openai_api_key"`
			GroqAPIKey   string `toml:"groq_api_key"`
		} `toml:"llm"`
	}
	custom := payload{}
	custom.LLM.OpenAIAPIKey = "file-openai"
	custom.LLM.GroqAPIKey = "file-groq"

	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	// Set env vars that should override
	t.Setenv("OPENAI_API_KEY", "env-openai")
	t.Setenv("GROQ_API_KEY", "env-groq")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.LLM.OpenAIAPIKey != "env-openai" {
		t.Errorf("expected OpenAI key from env, got %q", cfg.LLM.OpenAIAPIKey)
	}
	if cfg.LLM.GroqAPIKey != "env-groq" {
		t.Errorf("expected Groq key from env, got %q", cfg.LLM.GroqAPIKey)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "your_openai_api_key_here") {
		t.Fatalf("sample config missing placeholder OpenAI key: %s", contents)
	}

	// Validate it decodes
	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}

	if len(cfg.Senders) != 1 || cfg.Senders[0].ID != "fellowship-ai" {
		t.Fatalf("expected sample sender block, got %+v", cfg.Senders)
	}

	// On Windows join uses backslashes; skip path expectation specifics when running there to avoid
	// differences in drive letters during CI.
	if runtime.GOOS != "windows" {
		if !strings.Contains(cfg.Paths.LogDir, "mailscout") {
			t.Fatalf("expected log dir to contain mailscout, got %q", cfg.Paths.LogDir)
		}
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	cfg := config.Default()
	cfg.LLM.Provider = "claude"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown provider")
	}

	cfg = config.Default()
	cfg.LLM.TimeoutSeconds = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for non-positive timeout")
	}

	cfg = config.Default()
	cfg.LLM.RetryMaxAttempts = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for zero retry attempts")
	}

	cfg = config.Default()
	cfg.Analysis.DefaultEmailLimit = cfg.Analysis.MaxEmailLimit + 1
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when default limit exceeds max")
	}

	cfg = config.Default()
	cfg.Notifications.Enabled = true
	cfg.Notifications.NtfyTopic = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when notifications enabled without topic")
	}

	cfg = config.Default()
	cfg.Logging.Output = "syslog"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown log output")
	}

	cfg = config.Default()
	cfg.Logging.StageOverrides = map[string]string{"fetch": "verbose"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown stage override level")
	}

	cfg = config.Default()
	cfg.Senders = []config.Sender{
		{ID: "fellowship-ai", Email: "a@example.com"},
		{ID: "fellowship-ai", Email: "b@example.com"},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for duplicate sender ids")
	}

	cfg = config.Default()
	cfg.Senders = []config.Sender{{ID: "fellowship-ai"}}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for sender without email")
	}
}
