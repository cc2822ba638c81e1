package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mailscout/internal/api"
	"mailscout/internal/logging"
	"mailscout/internal/mail"
	"mailscout/internal/services"
	"mailscout/internal/tasks"
)

func startedFixture(t *testing.T, threads []mail.Thread) (*daemonFixture, *api.Client) {
	t.Helper()

	f := newDaemonFixture(t, threads)
	if err := f.daemon.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	client, err := api.NewClient(f.daemon.APIAddr())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return f, client
}

func waitForTerminal(t *testing.T, client *api.Client, taskID string) api.Task {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		task, err := client.TaskStatus(context.Background(), taskID)
		if err != nil {
			t.Fatalf("TaskStatus: %v", err)
		}
		if task.Status == string(tasks.StatusCompleted) || task.Status == string(tasks.StatusFailed) {
			return task
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("task %s did not reach a terminal status", taskID)
	return api.Task{}
}

func TestAPIAnalyzeLifecycle(t *testing.T) {
	threads := []mail.Thread{
		{ID: "t1", Subject: "Issue 1", Date: "Mon, 6 Jan 2025", Body: "body 1", MessageCount: 1},
		{ID: "t2", Subject: "Issue 2", Date: "Tue, 7 Jan 2025", Body: "body 2", MessageCount: 2},
		{ID: "t3", Subject: "Issue 3", Date: "Wed, 8 Jan 2025", Body: "body 3", MessageCount: 1},
	}
	_, client := startedFixture(t, threads)

	resp, err := client.Analyze(context.Background(), api.AnalyzeRequest{SenderID: "f5bot", EmailLimit: 3, BatchSize: 2})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if resp.TaskID == "" || resp.Status != "processing" {
		t.Fatalf("unexpected analyze response: %+v", resp)
	}

	task := waitForTerminal(t, client, resp.TaskID)
	if task.Status != "completed" {
		t.Fatalf("expected completed task, got %+v", task)
	}
	// 3 threads at batch size 2 means 2 batches.
	if task.Progress != "2/2" || task.TotalBatches != 2 || task.ResultCount != 2 {
		t.Fatalf("unexpected batching: %+v", task)
	}
	if len(task.Results) != 2 {
		t.Fatalf("expected full results in status payload, got %d", len(task.Results))
	}
	if task.Results[0].Analysis == "" || task.Results[0].ProcessedAt == "" {
		t.Fatalf("expected analysis payload on first batch: %+v", task.Results[0])
	}

	list, err := client.Tasks(context.Background())
	if err != nil {
		t.Fatalf("Tasks: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected one task in list, got %d", len(list))
	}
	if len(list[0].Results) != 0 {
		t.Fatalf("task list should omit full results: %+v", list[0])
	}
	if list[0].ResultCount != 2 {
		t.Fatalf("task list should carry result_count: %+v", list[0])
	}
}

func TestAPIAnalyzeValidation(t *testing.T) {
	_, client := startedFixture(t, nil)

	_, err := client.Analyze(context.Background(), api.AnalyzeRequest{SenderID: "nope"})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for unknown sender, got %v", err)
	}
	if err == nil || !strings.Contains(err.Error(), "unknown sender") {
		t.Fatalf("expected descriptive message, got %v", err)
	}

	_, err = client.Analyze(context.Background(), api.AnalyzeRequest{SenderID: "f5bot", EmailLimit: 100000})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for out-of-bounds limit, got %v", err)
	}
}

func TestAPITaskStatusNotFound(t *testing.T) {
	_, client := startedFixture(t, nil)

	_, err := client.TaskStatus(context.Background(), "does-not-exist")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAPISendersAndDaemonStatus(t *testing.T) {
	_, client := startedFixture(t, nil)

	senderList, err := client.Senders(context.Background())
	if err != nil {
		t.Fatalf("Senders: %v", err)
	}
	if len(senderList) != 1 || senderList[0].ID != "f5bot" || senderList[0].Email != "alerts@f5bot.com" {
		t.Fatalf("unexpected senders: %+v", senderList)
	}

	status, err := client.DaemonStatus(context.Background())
	if err != nil {
		t.Fatalf("DaemonStatus: %v", err)
	}
	if !status.Running || status.PID <= 0 {
		t.Fatalf("unexpected daemon status: %+v", status)
	}
	if !status.Workflow.Running || status.Workflow.Provider != "stub-llm" {
		t.Fatalf("unexpected workflow status: %+v", status.Workflow)
	}
	if len(status.Components) == 0 {
		t.Fatal("expected component health in daemon status")
	}
}

func TestAPIHealthAndStop(t *testing.T) {
	f, client := startedFixture(t, nil)

	if err := client.Health(context.Background()); err != nil {
		t.Fatalf("Health: %v", err)
	}

	if err := client.StopDaemon(context.Background()); err != nil {
		t.Fatalf("StopDaemon: %v", err)
	}
	select {
	case <-f.daemon.ShutdownRequested():
	case <-time.After(time.Second):
		t.Fatal("stop endpoint did not request shutdown")
	}
}

func TestAPILogsServesHubEvents(t *testing.T) {
	f, client := startedFixture(t, nil)

	hub := f.daemon.LogStream()
	hub.Publish(logging.LogEvent{Level: "INFO", Message: "analysis started", Component: "workflow", TaskID: "task-1"})
	hub.Publish(logging.LogEvent{Level: "INFO", Message: "batch started", Component: "workflow", TaskID: "task-2"})
	hub.Publish(logging.LogEvent{Level: "WARN", Message: "retrying request", Component: "llm", TaskID: "task-2"})

	resp, err := client.Logs(context.Background(), api.LogQuery{Tail: true, Limit: 10})
	if err != nil {
		t.Fatalf("Logs: %v", err)
	}
	if len(resp.Events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(resp.Events))
	}
	if resp.Next == 0 {
		t.Fatal("expected a forward cursor")
	}

	filtered, err := client.Logs(context.Background(), api.LogQuery{Tail: true, Limit: 10, TaskID: "task-1"})
	if err != nil {
		t.Fatalf("Logs filtered: %v", err)
	}
	if len(filtered.Events) != 1 || filtered.Events[0].TaskID != "task-1" {
		t.Fatalf("unexpected filtered events: %+v", filtered.Events)
	}
}

func TestHandleAnalyzeRejectsBadJSON(t *testing.T) {
	f := newDaemonFixture(t, nil)
	if err := f.daemon.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	f.daemon.api.handleAnalyze(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	var payload api.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode error payload: %v", err)
	}
	if payload.Error == "" {
		t.Fatal("expected error message in payload")
	}
}

func TestHandleMethodNotAllowed(t *testing.T) {
	f := newDaemonFixture(t, nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/tasks", nil)
	w := httptest.NewRecorder()
	f.daemon.api.handleTasks(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/daemon/stop", nil)
	w = httptest.NewRecorder()
	f.daemon.api.handleDaemonStop(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 for GET stop, got %d", w.Code)
	}
}
