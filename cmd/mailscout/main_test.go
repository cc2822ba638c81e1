package main

import (
	"encoding/json"
	"strings"
	"testing"

	"mailscout/internal/api"
	"mailscout/internal/tasks"
)

func TestCLIAnalyzeStatusTasksFlow(t *testing.T) {
	env := setupCLITestEnv(t, sampleThreads(12))

	out, _, err := runCLI(t, []string{"analyze", "f5bot", "--limit", "12", "--batch-size", "5"}, env.configPath)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	requireContains(t, out, "Analysis started for f5bot")
	requireContains(t, out, "Task ID:")
	requireContains(t, out, "Track progress with `mailscout status")

	taskID := extractTaskID(t, out)
	waitForTaskStatus(t, env.store, taskID, tasks.StatusCompleted)

	out, _, err = runCLI(t, []string{"status", taskID}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Task "+taskID)
	requireContains(t, out, "Completed")
	requireContains(t, out, "3/3")
	requireContains(t, out, "12 (batches of 5)")
	requireContains(t, out, "Batch 1/3")
	requireContains(t, out, "Batch 3/3")
	requireContains(t, out, "Top Stories")
	requireContains(t, out, "1. Example thread - http://example.com/a")

	out, _, err = runCLI(t, []string{"status", taskID, "--emails"}, env.configPath)
	if err != nil {
		t.Fatalf("status --emails: %v", err)
	}
	requireContains(t, out, "Source emails:")
	requireContains(t, out, "Mention 1 (alerts@f5bot.com, message 1/1)")

	out, _, err = runCLI(t, []string{"tasks"}, env.configPath)
	if err != nil {
		t.Fatalf("tasks: %v", err)
	}
	requireContains(t, out, taskID)
	requireContains(t, out, "f5bot")
	requireContains(t, out, "Completed")
}

func TestCLIAnalyzeJSONOutput(t *testing.T) {
	env := setupCLITestEnv(t, sampleThreads(3))

	out, _, err := runCLI(t, []string{"--json", "analyze", "f5bot"}, env.configPath)
	if err != nil {
		t.Fatalf("analyze --json: %v", err)
	}

	var resp api.AnalyzeResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("unmarshal analyze response: %v\noutput: %q", err, out)
	}
	if resp.TaskID == "" {
		t.Fatal("expected a task id in the JSON response")
	}
	if resp.Status != "processing" {
		t.Fatalf("expected processing status, got %q", resp.Status)
	}

	waitForTaskStatus(t, env.store, resp.TaskID, tasks.StatusCompleted)
}

func TestCLIAnalyzeUnknownSender(t *testing.T) {
	env := setupCLITestEnv(t, nil)

	_, _, err := runCLI(t, []string{"analyze", "nobody"}, env.configPath)
	if err == nil {
		t.Fatal("expected error for unknown sender")
	}
	if !strings.Contains(err.Error(), "unknown sender") {
		t.Fatalf("expected unknown sender error, got %v", err)
	}
}

func TestCLIStatusUnknownTask(t *testing.T) {
	env := setupCLITestEnv(t, nil)

	_, _, err := runCLI(t, []string{"status", "no-such-task"}, env.configPath)
	if err == nil {
		t.Fatal("expected error for unknown task")
	}
	if !strings.Contains(err.Error(), "task not found") {
		t.Fatalf("expected task not found error, got %v", err)
	}
}

func TestCLITasksEmpty(t *testing.T) {
	env := setupCLITestEnv(t, nil)

	out, _, err := runCLI(t, []string{"tasks"}, env.configPath)
	if err != nil {
		t.Fatalf("tasks: %v", err)
	}
	requireContains(t, out, "No analysis tasks")
}

func TestCLISendersCommand(t *testing.T) {
	env := setupCLITestEnv(t, nil)

	out, _, err := runCLI(t, []string{"senders"}, env.configPath)
	if err != nil {
		t.Fatalf("senders: %v", err)
	}
	requireContains(t, out, "f5bot")
	requireContains(t, out, "alerts@f5bot.com")
}

func TestCLISendersOfflineFallback(t *testing.T) {
	env := setupOfflineCLIEnv(t)

	out, _, err := runCLI(t, []string{"senders"}, env.configPath)
	if err != nil {
		t.Fatalf("senders offline: %v", err)
	}
	requireContains(t, out, "f5bot")
	requireContains(t, out, "alerts@f5bot.com")
}

func TestCLIDaemonDownGuidance(t *testing.T) {
	env := setupOfflineCLIEnv(t)

	_, _, err := runCLI(t, []string{"tasks"}, env.configPath)
	if err == nil {
		t.Fatal("expected error when daemon is down")
	}
	if !strings.Contains(err.Error(), "daemon not reachable") {
		t.Fatalf("expected reachability guidance, got %v", err)
	}
	if !strings.Contains(err.Error(), "mailscout daemon start") {
		t.Fatalf("expected start hint, got %v", err)
	}
}

func extractTaskID(t *testing.T, output string) string {
	t.Helper()
	for _, line := range strings.Split(output, "\n") {
		if strings.HasPrefix(line, "Task ID: ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "Task ID: "))
		}
	}
	t.Fatalf("no task id in output: %q", output)
	return ""
}
