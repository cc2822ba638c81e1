package config

const (
	defaultLogDir              = "~/.local/share/mailscout/logs"
	defaultArtifactsDir        = "~/.local/share/mailscout/artifacts"
	defaultCredentialsDir      = "~/.config/mailscout/credentials"
	defaultPromptsPath         = "~/.config/mailscout/prompts.yaml"
	defaultAPIBind             = "127.0.0.1:7480"
	defaultGmailCredentials    = "client_secret.json"
	defaultGmailToken          = "token.json"
	defaultGmailUser           = "me"
	defaultLLMProvider         = "openai"
	defaultOpenAIBaseURL       = "https://api.openai.com/v1"
	defaultOpenAIModel         = "gpt-4o-mini"
	defaultGroqBaseURL         = "https://api.groq.com/openai/v1"
	defaultGroqModel           = "llama-3.1-70b-versatile"
	defaultParseModel          = "llama-3.1-8b-instant"
	defaultLLMTimeoutSeconds   = 180
	defaultParseTimeoutSeconds = 30
	defaultRetryMaxAttempts    = 3
	defaultRetryBackoffSeconds = 2
	defaultEmailLimit          = 50
	defaultBatchSize           = 5
	defaultMaxEmailLimit       = 500
	defaultMaxBatchSize        = 50
	defaultRetentionHours      = 24
	defaultSweepInterval       = 300
	defaultNotifyTimeout       = 10
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultLogOutput           = "both"
	defaultLogRetentionDays    = 60
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:         defaultLogDir,
			ArtifactsDir:   defaultArtifactsDir,
			CacheDir:       defaultCacheDir(),
			CredentialsDir: defaultCredentialsDir,
			PromptsPath:    defaultPromptsPath,
			APIBind:        defaultAPIBind,
		},
		Gmail: Gmail{
			CredentialsFile: defaultGmailCredentials,
			TokenFile:       defaultGmailToken,
			User:            defaultGmailUser,
			CacheEnabled:    true,
		},
		LLM: LLM{
			Provider:            defaultLLMProvider,
			OpenAIBaseURL:       defaultOpenAIBaseURL,
			OpenAIModel:         defaultOpenAIModel,
			GroqBaseURL:         defaultGroqBaseURL,
			GroqModel:           defaultGroqModel,
			TimeoutSeconds:      defaultLLMTimeoutSeconds,
			ParseModel:          defaultParseModel,
			ParseTimeoutSeconds: defaultParseTimeoutSeconds,
			RetryMaxAttempts:    defaultRetryMaxAttempts,
			RetryBackoffSeconds: defaultRetryBackoffSeconds,
		},
		Analysis: Analysis{
			DefaultEmailLimit: defaultEmailLimit,
			DefaultBatchSize:  defaultBatchSize,
			MaxEmailLimit:     defaultMaxEmailLimit,
			MaxBatchSize:      defaultMaxBatchSize,
			RetentionHours:    defaultRetentionHours,
			SweepInterval:     defaultSweepInterval,
			CleanContent:      true,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			Output:        defaultLogOutput,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
