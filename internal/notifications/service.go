package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"mailscout/internal/config"
)

const userAgent = "mailscout/0.1.0"

// Service defines the notification surface exposed to workflow components.
type Service interface {
	NotifyAnalysisStarted(ctx context.Context, senderName string, emailLimit int) error
	NotifyAnalysisCompleted(ctx context.Context, senderName string, succeeded, total int, duration time.Duration) error
	NotifyAnalysisFailed(ctx context.Context, senderName string, cause error) error
	NotifyDaemonStarted(ctx context.Context, bind string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When disabled or no topic is set, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if !cfg.Notifications.Enabled || topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyAnalysisStarted(ctx context.Context, senderName string, emailLimit int) error {
	senderName = strings.TrimSpace(senderName)
	data := payload{
		title:   "Mailscout - Analysis Started",
		message: fmt.Sprintf("Analyzing up to %d emails from %s", emailLimit, senderName),
		tags:    []string{"mailscout", "analysis", "started"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyAnalysisCompleted(ctx context.Context, senderName string, succeeded, total int, duration time.Duration) error {
	senderName = strings.TrimSpace(senderName)
	duration = duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}
	durationText := duration.String()
	if duration == 0 {
		durationText = "0s"
	}

	var title, message string
	if succeeded == total {
		title = "Mailscout - Analysis Complete"
		message = fmt.Sprintf("Analysis complete: %s %d/%d batches in %s", senderName, succeeded, total, durationText)
	} else {
		title = "Mailscout - Analysis Complete (with errors)"
		message = fmt.Sprintf("Analysis complete: %s %d/%d batches succeeded in %s", senderName, succeeded, total, durationText)
	}

	data := payload{
		title:    title,
		message:  message,
		tags:     []string{"mailscout", "analysis", "completed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyAnalysisFailed(ctx context.Context, senderName string, cause error) error {
	senderName = strings.TrimSpace(senderName)
	detail := "unknown"
	if cause != nil {
		detail = strings.TrimSpace(cause.Error())
	}
	data := payload{
		title:    "Mailscout - Analysis Failed",
		message:  fmt.Sprintf("Analysis failed for %s: %s", senderName, detail),
		tags:     []string{"mailscout", "analysis", "failed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyDaemonStarted(ctx context.Context, bind string) error {
	bind = strings.TrimSpace(bind)
	data := payload{
		title:   "Mailscout - Daemon Started",
		message: fmt.Sprintf("Daemon listening on %s", bind),
		tags:    []string{"mailscout", "daemon", "started"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Mailscout - Test",
		message:  "Notification system test",
		tags:     []string{"mailscout", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyAnalysisStarted(context.Context, string, int) error { return nil }
func (noopService) NotifyAnalysisCompleted(context.Context, string, int, int, time.Duration) error {
	return nil
}
func (noopService) NotifyAnalysisFailed(context.Context, string, error) error { return nil }
func (noopService) NotifyDaemonStarted(context.Context, string) error         { return nil }
func (noopService) TestNotification(context.Context) error                    { return nil }
