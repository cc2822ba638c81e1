package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"mailscout/internal/config"
	"mailscout/internal/logging"
	"mailscout/internal/mail"
)

type artifactKind string

const (
	artifactCombined    artifactKind = "combined_messages.txt"
	artifactCleaned     artifactKind = "llm_call1_output.txt"
	artifactAnalysis    artifactKind = "llm_call2_raw.txt"
	artifactParseInput  artifactKind = "llm_call3_input.txt"
	artifactParseOutput artifactKind = "llm_call3_output.json"
)

func (k artifactKind) label() string {
	switch k {
	case artifactCombined:
		return "Combined Messages BEFORE Metadata Stripping"
	case artifactCleaned:
		return "LLM Call #1 Output (AFTER Metadata Stripping)"
	case artifactAnalysis:
		return "LLM Call #2 Raw Output"
	case artifactParseInput:
		return "LLM Call #3 Input (Markdown to be parsed)"
	default:
		return string(k)
	}
}

// ArtifactWriter captures per-task pipeline intermediates for offline
// inspection. Disabled by default; every write failure is logged and
// swallowed so artifacts can never fail an analysis.
type ArtifactWriter struct {
	root    string
	enabled bool
	logger  *slog.Logger
}

// NewArtifactWriter builds a writer rooted at the configured artifacts
// directory.
func NewArtifactWriter(cfg *config.Config, logger *slog.Logger) *ArtifactWriter {
	if logger == nil {
		logger = logging.NewNop()
	}
	root := strings.TrimSpace(cfg.Paths.ArtifactsDir)
	return &ArtifactWriter{
		root:    root,
		enabled: cfg.Analysis.ArtifactsEnabled && root != "",
		logger:  logging.NewComponentLogger(logger, "artifacts"),
	}
}

// Enabled reports whether artifact capture is active.
func (w *ArtifactWriter) Enabled() bool {
	return w != nil && w.enabled
}

// TaskDir returns the directory artifacts for taskID land in.
func (w *ArtifactWriter) TaskDir(taskID string) string {
	return filepath.Join(w.root, taskID)
}

// SaveFetchedThreads records the fetch result before partitioning.
func (w *ArtifactWriter) SaveFetchedThreads(ctx context.Context, taskID, senderEmail string, requested int, threads []mail.Thread) {
	if !w.Enabled() {
		return
	}

	type threadRecord struct {
		ThreadID     string `json:"thread_id"`
		Subject      string `json:"subject"`
		Date         string `json:"date"`
		Body         string `json:"body"`
		MessageCount int    `json:"message_count"`
	}
	records := make([]threadRecord, 0, len(threads))
	for _, thread := range threads {
		records = append(records, threadRecord{
			ThreadID:     thread.ID,
			Subject:      thread.Subject,
			Date:         thread.Date,
			Body:         thread.Body,
			MessageCount: thread.MessageCount,
		})
	}

	doc := struct {
		TaskID              string         `json:"task_id"`
		SenderEmail         string         `json:"sender_email"`
		ThreadsRequested    int            `json:"threads_requested"`
		TotalThreadsFetched int            `json:"total_threads_fetched"`
		Threads             []threadRecord `json:"threads"`
	}{
		TaskID:              taskID,
		SenderEmail:         senderEmail,
		ThreadsRequested:    requested,
		TotalThreadsFetched: len(threads),
		Threads:             records,
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		w.warnWrite(ctx, taskID, "fetched_messages.json", err)
		return
	}
	w.write(ctx, taskID, "fetched_messages.json", data)
}

// SaveBatchText records one text intermediate with a header describing
// where in the pipeline it was captured.
func (w *ArtifactWriter) SaveBatchText(ctx context.Context, taskID string, batchNum, totalBatches int, kind artifactKind, content string) {
	if !w.Enabled() {
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "=== %s ===\n", kind.label())
	fmt.Fprintf(&b, "Task ID: %s\n", taskID)
	fmt.Fprintf(&b, "Batch: %d/%d\n", batchNum, totalBatches)
	fmt.Fprintf(&b, "Length: %d chars\n", len(content))
	fmt.Fprintf(&b, "Timestamp: %s\n", time.Now().UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "\n%s\n\n", strings.Repeat("=", 60))
	b.WriteString(content)

	w.write(ctx, taskID, batchFileName(batchNum, kind), []byte(b.String()))
}

// SaveParseOutput records the final parse result bare, so the file is
// valid JSON whenever the parse succeeded.
func (w *ArtifactWriter) SaveParseOutput(ctx context.Context, taskID string, batchNum int, content string) {
	if !w.Enabled() {
		return
	}
	w.write(ctx, taskID, batchFileName(batchNum, artifactParseOutput), []byte(content))
}

func batchFileName(batchNum int, kind artifactKind) string {
	return fmt.Sprintf("batch%d_%s", batchNum, kind)
}

func (w *ArtifactWriter) write(ctx context.Context, taskID, name string, data []byte) {
	dir := w.TaskDir(taskID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		w.warnWrite(ctx, taskID, name, err)
		return
	}
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		w.warnWrite(ctx, taskID, name, err)
	}
}

func (w *ArtifactWriter) warnWrite(ctx context.Context, taskID, name string, err error) {
	logging.WarnWithContext(logging.WithContext(ctx, w.logger), "artifact write failed", "artifact_write_failed",
		logging.String("artifact", name),
		logging.String(logging.FieldTaskID, taskID),
		logging.Error(err),
		logging.String(logging.FieldImpact, "analysis continues without this artifact"))
}
