package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNewWritesJSONToFile(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "mailscoutd.log")

	logger, err := New(Options{
		Level:            "info",
		Format:           "json",
		OutputPaths:      []string{logPath},
		ErrorOutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger.Info("task queued", slog.String("task_id", "abc"), slog.String("sender_id", "weekly-digest"))

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	output := string(data)
	for _, fragment := range []string{`"msg":"task queued"`, `"level":"info"`, `"task_id":"abc"`, `"sender_id":"weekly-digest"`} {
		if !strings.Contains(output, fragment) {
			t.Errorf("expected %s in output, got: %s", fragment, output)
		}
	}
}

func TestNewConsoleHeaderIncludesSubject(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "console.log")

	logger, err := New(Options{
		Level:       "info",
		Format:      "console",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger.Info("analysis started",
		slog.String(FieldComponent, "workflow"),
		slog.String(FieldSenderID, "fellowship-ai"),
		slog.String(FieldTaskID, "3f6c9c1e-5a6f-4b42-9a53-0d6a6f9f1e21"),
		slog.String(FieldStage, "fetch"),
	)

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	output := string(data)
	if !strings.Contains(output, "[workflow]") {
		t.Errorf("expected component in header, got: %s", output)
	}
	if !strings.Contains(output, "Fellowship-ai · Task #3f6c9c1e (fetch)") {
		t.Errorf("expected subject in header, got: %s", output)
	}
	if !strings.Contains(output, "analysis started") {
		t.Errorf("expected message in header, got: %s", output)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNewPublishesToStream(t *testing.T) {
	hub := NewStreamHub(16)
	dir := t.TempDir()

	logger, err := New(Options{
		Level:       "info",
		Format:      "json",
		OutputPaths: []string{filepath.Join(dir, "out.log")},
		Stream:      hub,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger.Info("streamed", slog.String(FieldTaskID, "task-1"))

	events, _ := hub.Tail(5)
	if len(events) != 1 {
		t.Fatalf("expected 1 streamed event, got %d", len(events))
	}
	if events[0].TaskID != "task-1" {
		t.Errorf("expected task_id='task-1', got %q", events[0].TaskID)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"  ERROR  ", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.input); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestFormatSubject(t *testing.T) {
	tests := []struct {
		name     string
		senderID string
		taskID   string
		stage    string
		want     string
	}{
		{"all parts", "fellowship-ai", "3f6c9c1e-5a6f-4b42-9a53-0d6a6f9f1e21", "analyze", "Fellowship-ai · Task #3f6c9c1e (analyze)"},
		{"task only", "", "3f6c9c1e-5a6f-4b42-9a53-0d6a6f9f1e21", "", "Task #3f6c9c1e"},
		{"stage only", "", "", "fetch", "fetch"},
		{"sender only", "weekly-digest", "", "", "Weekly-digest"},
		{"empty", "", "", "", ""},
		{"non-uuid task kept whole", "", "task-7", "", "Task #task-7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatSubject(tt.senderID, tt.taskID, tt.stage); got != tt.want {
				t.Errorf("FormatSubject = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSelectInfoFieldsPrefersHighlights(t *testing.T) {
	attrs := []kv{
		{key: "zebra", value: slog.StringValue("last")},
		{key: "status", value: slog.StringValue("completed")},
		{key: FieldEventType, value: slog.StringValue("task_completed")},
	}

	fields, hidden := selectInfoFields(attrs, 0, true)
	if hidden != 0 {
		t.Fatalf("expected no hidden fields, got %d", hidden)
	}
	if len(fields) != 3 {
		t.Fatalf("expected 3 fields, got %d", len(fields))
	}
	if fields[0].label != "Event" {
		t.Errorf("expected Event first, got %q", fields[0].label)
	}
	if fields[1].label != "Status" {
		t.Errorf("expected Status second, got %q", fields[1].label)
	}
}

func TestSelectInfoFieldsHidesDebugKeys(t *testing.T) {
	attrs := []kv{
		{key: "history_id", value: slog.StringValue("184a9f")},
		{key: "thread_id", value: slog.StringValue("t-1")},
		{key: "status", value: slog.StringValue("processing")},
	}

	fields, hidden := selectInfoFields(attrs, 0, false)
	if len(fields) != 1 || fields[0].label != "Status" {
		t.Fatalf("expected only Status to survive, got %+v", fields)
	}
	if hidden != 2 {
		t.Errorf("expected 2 hidden fields, got %d", hidden)
	}
}

func TestFormatValueForKeyHumanizesUnits(t *testing.T) {
	if got := formatValueForKeyWithAttrs("combined_bytes", slog.Int64Value(3*1024*1024), nil); got != "3.00 MiB" {
		t.Errorf("expected 3.00 MiB, got %q", got)
	}
	if got := formatValueForKeyWithAttrs("fetch_duration", slog.DurationValue(90*time.Second), nil); got != "1m30s" {
		t.Errorf("expected 1m30s, got %q", got)
	}
	if got := formatValueForKeyWithAttrs(FieldProgressPercent, slog.Float64Value(42.5), nil); got != "42.5%" {
		t.Errorf("expected 42.5%%, got %q", got)
	}
	if got := formatValueForKeyWithAttrs("cache_enabled", slog.BoolValue(true), nil); got != "yes" {
		t.Errorf("expected yes, got %q", got)
	}
}

func TestTruncateErrorValueAppendsDetailPointer(t *testing.T) {
	long := strings.Repeat("x", 240)
	attrs := []kv{{key: FieldErrorDetailPath, value: slog.StringValue("/tmp/artifacts/task/batch2_analysis.txt")}}
	got := formatValueForKeyWithAttrs("error_message", slog.StringValue(long), attrs)
	if !strings.HasSuffix(got, "(see error_detail_path)") {
		t.Errorf("expected detail pointer suffix, got %q", got)
	}
	if len(got) > 240 {
		t.Errorf("expected truncation, got %d chars", len(got))
	}
}
