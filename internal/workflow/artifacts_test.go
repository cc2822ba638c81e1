package workflow

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"mailscout/internal/logging"
	"mailscout/internal/mail"
	"mailscout/internal/testsupport"
)

func TestPartitionThreads(t *testing.T) {
	threads := makeNumberedThreads(7)

	cases := []struct {
		name  string
		count int
		size  int
		want  []int
	}{
		{name: "empty", count: 0, size: 5, want: nil},
		{name: "single batch", count: 3, size: 5, want: []int{3}},
		{name: "exact multiple", count: 6, size: 3, want: []int{3, 3}},
		{name: "remainder", count: 7, size: 3, want: []int{3, 3, 1}},
		{name: "size one", count: 3, size: 1, want: []int{1, 1, 1}},
		{name: "size clamped to one", count: 2, size: 0, want: []int{1, 1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			batches := partitionThreads(threads[:tc.count], tc.size)
			if len(batches) != len(tc.want) {
				t.Fatalf("got %d batches, want %d", len(batches), len(tc.want))
			}
			seen := 0
			for i, batch := range batches {
				if len(batch) != tc.want[i] {
					t.Fatalf("batch %d has %d threads, want %d", i+1, len(batch), tc.want[i])
				}
				for _, thread := range batch {
					seen++
					if want := threadID(seen); thread.ID != want {
						t.Fatalf("thread order broken: got %s, want %s", thread.ID, want)
					}
				}
			}
		})
	}
}

func TestCountMessages(t *testing.T) {
	batch := []mail.Thread{
		{ID: "a", MessageCount: 1},
		{ID: "b", MessageCount: 4},
		{ID: "c"},
	}
	if got := countMessages(batch); got != 5 {
		t.Fatalf("countMessages = %d, want 5", got)
	}
}

func TestOriginalEmailsPreserveThreadFields(t *testing.T) {
	batch := []mail.Thread{
		{ID: "t1", Subject: "Weekly digest", Date: "Mon, 6 Jan 2025", Body: "hello", MessageCount: 3},
	}
	emails := originalEmails(batch, "news@example.com")
	if len(emails) != 1 {
		t.Fatalf("got %d emails, want 1", len(emails))
	}
	email := emails[0]
	if email.Subject != "Weekly digest" || email.ThreadID != "t1" || email.Body != "hello" {
		t.Fatalf("email = %+v", email)
	}
	if email.From != "news@example.com" {
		t.Fatalf("From = %q", email.From)
	}
	if email.MessageNumber != 1 || email.TotalInThread != 3 {
		t.Fatalf("thread counters = %d/%d", email.MessageNumber, email.TotalInThread)
	}
}

func newTestWriter(t *testing.T) *ArtifactWriter {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithArtifacts())
	return NewArtifactWriter(cfg, logging.NewNop())
}

func TestSaveBatchTextHeader(t *testing.T) {
	w := newTestWriter(t)
	w.SaveBatchText(context.Background(), "task-1", 2, 3, artifactAnalysis, "## Top Stories\n- item")

	data, err := os.ReadFile(filepath.Join(w.TaskDir("task-1"), "batch2_llm_call2_raw.txt"))
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	text := string(data)
	if !strings.HasPrefix(text, "=== LLM Call #2 Raw Output ===\n") {
		t.Fatalf("header line wrong: %q", text)
	}
	for _, want := range []string{
		"Task ID: task-1\n",
		"Batch: 2/3\n",
		"Length: 21 chars\n",
		strings.Repeat("=", 60),
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("artifact missing %q:\n%s", want, text)
		}
	}
	if !strings.HasSuffix(text, "## Top Stories\n- item") {
		t.Fatalf("content not at end:\n%s", text)
	}
}

func TestSaveFetchedThreadsDocument(t *testing.T) {
	w := newTestWriter(t)
	threads := []mail.Thread{
		{ID: "t1", Subject: "Issue 1", Date: "Mon, 6 Jan 2025", Body: "body", MessageCount: 2},
	}
	w.SaveFetchedThreads(context.Background(), "task-9", "news@example.com", 25, threads)

	data, err := os.ReadFile(filepath.Join(w.TaskDir("task-9"), "fetched_messages.json"))
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}

	var doc struct {
		TaskID              string `json:"task_id"`
		SenderEmail         string `json:"sender_email"`
		ThreadsRequested    int    `json:"threads_requested"`
		TotalThreadsFetched int    `json:"total_threads_fetched"`
		Threads             []struct {
			ThreadID     string `json:"thread_id"`
			MessageCount int    `json:"message_count"`
		} `json:"threads"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("artifact is not valid JSON: %v", err)
	}
	if doc.TaskID != "task-9" || doc.SenderEmail != "news@example.com" {
		t.Fatalf("doc = %+v", doc)
	}
	if doc.ThreadsRequested != 25 || doc.TotalThreadsFetched != 1 {
		t.Fatalf("counts = %d/%d", doc.ThreadsRequested, doc.TotalThreadsFetched)
	}
	if len(doc.Threads) != 1 || doc.Threads[0].ThreadID != "t1" || doc.Threads[0].MessageCount != 2 {
		t.Fatalf("threads = %+v", doc.Threads)
	}
}

func TestSaveParseOutputWritesBareJSON(t *testing.T) {
	w := newTestWriter(t)
	w.SaveParseOutput(context.Background(), "task-2", 1, `{"sections":[]}`)

	data, err := os.ReadFile(filepath.Join(w.TaskDir("task-2"), "batch1_llm_call3_output.json"))
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	if string(data) != `{"sections":[]}` {
		t.Fatalf("parse output = %q, want bare content", data)
	}
}

func TestWriterDisabledWritesNothing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	w := NewArtifactWriter(cfg, logging.NewNop())
	if w.Enabled() {
		t.Fatal("writer should be disabled by default")
	}

	w.SaveBatchText(context.Background(), "task-3", 1, 1, artifactCombined, "content")
	w.SaveFetchedThreads(context.Background(), "task-3", "news@example.com", 5, nil)
	w.SaveParseOutput(context.Background(), "task-3", 1, "{}")

	if _, err := os.Stat(w.TaskDir("task-3")); !os.IsNotExist(err) {
		t.Fatalf("task dir should not exist, stat err = %v", err)
	}
}

func makeNumberedThreads(n int) []mail.Thread {
	threads := make([]mail.Thread, 0, n)
	for i := 1; i <= n; i++ {
		threads = append(threads, mail.Thread{ID: threadID(i), MessageCount: 1})
	}
	return threads
}

func threadID(i int) string {
	return "thread-" + strconv.Itoa(i)
}
