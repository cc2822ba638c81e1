// Package groq implements a lean single-shot provider against the Groq
// chat-completions API. The workflow uses it both as a selectable
// analysis backend and as the fast markdown-to-JSON parse backend.
package groq

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	llm "mailscout/internal/llm/provider"
)

const (
	defaultBaseURL     = "https://api.groq.com/openai/v1"
	defaultModel       = "llama-3.1-70b-versatile"
	defaultHTTPTimeout = 30 * time.Second
)

// Config captures the runtime settings required to talk to the API.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	TimeoutSeconds int
}

// Client wraps the Groq chat-completions API. Unlike the OpenAI client it
// never retries; parse calls are cheap enough to simply fail through to
// the raw-markdown fallback.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

var _ llm.Provider = (*Client)(nil)

// Option customizes the Groq client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs a Groq API client.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			APIKey:         strings.TrimSpace(cfg.APIKey),
			BaseURL:        strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
			Model:          strings.TrimSpace(cfg.Model),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = defaultBaseURL
	}
	if client.cfg.Model == "" {
		client.cfg.Model = defaultModel
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: timeout}
	}
	return client
}

// Name identifies the backend in logs and health reports.
func (c *Client) Name() string {
	return "groq"
}

// Generate runs one chat completion and returns the message content.
// JSON-mode requests that the model rejects with a 400 are replayed once
// without response_format, since not every Groq model supports it.
func (c *Client) Generate(ctx context.Context, req llm.GenerateRequest) (string, error) {
	if strings.TrimSpace(req.System) == "" {
		return "", errors.New("groq generate: system prompt required")
	}
	if strings.TrimSpace(req.User) == "" {
		return "", errors.New("groq generate: user prompt required")
	}
	if c.cfg.APIKey == "" {
		return "", errors.New("groq generate: api key required")
	}
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}
	payload := chatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.User},
		},
	}
	if req.JSONMode {
		payload.ResponseFormat = map[string]string{"type": "json_object"}
		content, err := c.sendChatRequest(ctx, payload)
		if err == nil {
			return content, nil
		}
		var statusErr *httpStatusError
		if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusBadRequest {
			return "", err
		}
		payload.ResponseFormat = nil
	}
	return c.sendChatRequest(ctx, payload)
}

// HealthCheck verifies the key and model with a minimal round trip.
func (c *Client) HealthCheck(ctx context.Context) error {
	content, err := c.Generate(ctx, llm.GenerateRequest{
		System:  "You are a helpful assistant.",
		User:    "Respond with 'OK' if you can read this.",
		Timeout: 30 * time.Second,
	})
	if err != nil {
		return fmt.Errorf("groq health: %w", err)
	}
	if strings.TrimSpace(content) == "" {
		return errors.New("groq health: empty response")
	}
	return nil
}

type chatCompletionRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	ResponseFormat map[string]string `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type httpStatusError struct {
	StatusCode int
	Body       string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("groq request: http %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

func (c *Client) sendChatRequest(ctx context.Context, payload chatCompletionRequest) (string, error) {
	endpoint, err := url.JoinPath(c.cfg.BaseURL, "/chat/completions")
	if err != nil {
		return "", fmt.Errorf("groq request: build url: %w", err)
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("groq request: encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("groq request: new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("groq request: request failed: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("groq request: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return "", &httpStatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	var completion chatCompletionResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return "", fmt.Errorf("groq request: decode response: %w", err)
	}
	if completion.Error != nil {
		return "", fmt.Errorf("groq request: api error: %s", strings.TrimSpace(completion.Error.Message))
	}
	if len(completion.Choices) == 0 {
		return "", errors.New("groq request: empty choices")
	}
	content := strings.TrimSpace(completion.Choices[0].Message.Content)
	if content == "" {
		return "", errors.New("groq request: empty content")
	}
	return content, nil
}
