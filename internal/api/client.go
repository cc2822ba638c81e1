package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"mailscout/internal/services"
)

// ErrDaemonUnavailable marks transport failures reaching the daemon API,
// as opposed to errors the daemon itself returned.
var ErrDaemonUnavailable = errors.New("daemon API unavailable")

// Client talks to the daemon's HTTP API. CLI commands and daemon control
// share one client so error classification stays consistent.
type Client struct {
	base *url.URL
	http *http.Client
}

// LogQuery selects which log events a Logs call should return.
type LogQuery struct {
	Since     uint64
	Limit     int
	Follow    bool
	Tail      bool
	Component string
	TaskID    string
	Level     string
}

// NewClient builds a client for the given bind address. A bare host:port
// is promoted to an http URL. Returns nil when bind is empty so callers
// can treat a disabled API uniformly.
func NewClient(bind string) (*Client, error) {
	bind = strings.TrimSpace(bind)
	if bind == "" {
		return nil, nil
	}
	if !strings.Contains(bind, "://") {
		bind = "http://" + bind
	}
	base, err := url.Parse(bind)
	if err != nil {
		return nil, fmt.Errorf("parse api address: %w", err)
	}
	base.Path = ""
	base.RawQuery = ""
	base.Fragment = ""

	return &Client{
		base: base,
		// No timeout: log follow mode blocks until the caller cancels.
		// Everything else bounds itself through the request context.
		http: &http.Client{},
	}, nil
}

// Health probes the daemon liveness endpoint.
func (c *Client) Health(ctx context.Context) error {
	var payload HealthResponse
	return c.get(ctx, "/health", nil, &payload)
}

// Analyze submits an analysis request and returns the accepted task handle.
func (c *Client) Analyze(ctx context.Context, req AnalyzeRequest) (AnalyzeResponse, error) {
	var payload AnalyzeResponse
	if err := c.post(ctx, "/api/analyze", req, &payload); err != nil {
		return AnalyzeResponse{}, err
	}
	return payload, nil
}

// TaskStatus fetches the full snapshot for one task.
func (c *Client) TaskStatus(ctx context.Context, taskID string) (Task, error) {
	taskID = strings.TrimSpace(taskID)
	if taskID == "" {
		return Task{}, services.Wrap(services.ErrValidation, "api", "status", "task id is required", nil)
	}
	var payload Task
	if err := c.get(ctx, "/api/status/"+url.PathEscape(taskID), nil, &payload); err != nil {
		return Task{}, err
	}
	return payload, nil
}

// Tasks lists metadata for every live task.
func (c *Client) Tasks(ctx context.Context) ([]Task, error) {
	var payload TasksResponse
	if err := c.get(ctx, "/api/tasks", nil, &payload); err != nil {
		return nil, err
	}
	return payload.Tasks, nil
}

// Senders lists the daemon's configured senders.
func (c *Client) Senders(ctx context.Context) ([]Sender, error) {
	var payload SendersResponse
	if err := c.get(ctx, "/api/senders", nil, &payload); err != nil {
		return nil, err
	}
	return payload.Senders, nil
}

// DaemonStatus fetches aggregated daemon runtime information.
func (c *Client) DaemonStatus(ctx context.Context) (DaemonStatus, error) {
	var payload DaemonStatus
	if err := c.get(ctx, "/api/daemon/status", nil, &payload); err != nil {
		return DaemonStatus{}, err
	}
	return payload, nil
}

// StopDaemon asks the daemon to shut itself down.
func (c *Client) StopDaemon(ctx context.Context) error {
	return c.post(ctx, "/api/daemon/stop", nil, nil)
}

// Logs fetches a page of structured log events.
func (c *Client) Logs(ctx context.Context, q LogQuery) (LogStreamResponse, error) {
	values := url.Values{}
	if q.Since > 0 {
		values.Set("since", strconv.FormatUint(q.Since, 10))
	}
	if q.Limit > 0 {
		values.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Follow {
		values.Set("follow", "1")
	}
	if q.Tail {
		values.Set("tail", "1")
	}
	if strings.TrimSpace(q.Component) != "" {
		values.Set("component", q.Component)
	}
	if strings.TrimSpace(q.TaskID) != "" {
		values.Set("task", q.TaskID)
	}
	if strings.TrimSpace(q.Level) != "" {
		values.Set("level", q.Level)
	}

	var payload LogStreamResponse
	if err := c.get(ctx, "/api/logs", values, &payload); err != nil {
		return LogStreamResponse{}, err
	}
	return payload, nil
}

func (c *Client) get(ctx context.Context, path string, values url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, values, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

func (c *Client) do(ctx context.Context, method, path string, values url.Values, body any, out any) error {
	if c == nil {
		return ErrDaemonUnavailable
	}

	endpoint := c.base.ResolveReference(&url.URL{Path: path})
	if len(values) > 0 {
		endpoint.RawQuery = values.Encode()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDaemonUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return statusError(resp)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// statusError turns an HTTP error payload back into a classified error so
// callers can errors.Is against the same sentinels the daemon used.
func statusError(resp *http.Response) error {
	message := strings.TrimSpace(readErrorMessage(resp.Body))
	if message == "" {
		message = fmt.Sprintf("daemon returned status %d", resp.StatusCode)
	}
	switch resp.StatusCode {
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", services.ErrValidation, message)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", services.ErrNotFound, message)
	default:
		return fmt.Errorf("%w: %s", services.ErrExternalService, message)
	}
}

func readErrorMessage(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil {
		return ""
	}
	var payload ErrorResponse
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	return string(bytes.TrimSpace(raw))
}

// IsDaemonUnavailable reports whether err means the daemon could not be
// reached at all (no listener, connection refused, DNS failure).
func IsDaemonUnavailable(err error) bool {
	if err == nil {
		return false
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		err = urlErr.Err
	}
	var opErr *net.OpError
	return errors.Is(err, ErrDaemonUnavailable) || errors.As(err, &opErr)
}
