package tasks_test

import (
	"testing"
	"time"

	"mailscout/internal/tasks"
)

func TestCreateAssignsIdentifierAndDefaults(t *testing.T) {
	store := tasks.NewMemoryStore(time.Hour)

	task := store.Create("fellowship-ai", 50, 5)
	if task.ID == "" {
		t.Fatal("expected task ID to be assigned")
	}
	if task.Status != tasks.StatusProcessing {
		t.Fatalf("expected status processing, got %s", task.Status)
	}
	if task.Progress != "0/0" {
		t.Fatalf("expected initial progress 0/0, got %q", task.Progress)
	}
	if task.SenderID != "fellowship-ai" || task.EmailLimit != 50 || task.BatchSize != 5 {
		t.Fatalf("unexpected task parameters: %+v", task)
	}
	if task.CreatedAt.IsZero() || task.UpdatedAt.IsZero() {
		t.Fatal("expected timestamps to be set")
	}

	fetched, ok := store.Get(task.ID)
	if !ok {
		t.Fatal("expected to fetch created task")
	}
	if fetched.ID != task.ID {
		t.Fatalf("unexpected fetched task: %+v", fetched)
	}
}

func TestAppendResultAdvancesProgress(t *testing.T) {
	store := tasks.NewMemoryStore(time.Hour)
	task := store.Create("f5bot", 12, 5)

	if !store.SetTotalBatches(task.ID, 3) {
		t.Fatal("SetTotalBatches reported missing task")
	}
	snapshot, _ := store.Get(task.ID)
	if snapshot.Progress != "0/3" {
		t.Fatalf("expected progress 0/3 after total set, got %q", snapshot.Progress)
	}

	want := []string{"1/3", "2/3", "3/3"}
	for i, expected := range want {
		ok := store.AppendResult(task.ID, tasks.BatchResult{
			BatchNumber:     i + 1,
			TotalBatches:    3,
			MessagesInBatch: 5,
			Analysis:        "analysis",
		})
		if !ok {
			t.Fatalf("AppendResult %d reported missing task", i+1)
		}
		snapshot, _ = store.Get(task.ID)
		if snapshot.Progress != expected {
			t.Fatalf("expected progress %q after append %d, got %q", expected, i+1, snapshot.Progress)
		}
	}

	if !store.Complete(task.ID) {
		t.Fatal("Complete reported missing task")
	}
	snapshot, _ = store.Get(task.ID)
	if snapshot.Status != tasks.StatusCompleted {
		t.Fatalf("expected completed status, got %s", snapshot.Status)
	}
	if len(snapshot.Results) != 3 || snapshot.ResultCount != 3 {
		t.Fatalf("expected 3 results, got %d (count %d)", len(snapshot.Results), snapshot.ResultCount)
	}
	for i, result := range snapshot.Results {
		if result.BatchNumber != i+1 {
			t.Fatalf("expected batch %d at position %d, got %d", i+1, i, result.BatchNumber)
		}
		if result.ProcessedAt.IsZero() {
			t.Fatalf("expected processed_at to be stamped on batch %d", i+1)
		}
	}
}

func TestAppendResultMissingTaskIsNoOp(t *testing.T) {
	store := tasks.NewMemoryStore(time.Hour)
	if store.AppendResult("no-such-task", tasks.BatchResult{BatchNumber: 1}) {
		t.Fatal("expected append to missing task to report false")
	}
}

func TestAppendResultAfterTerminalIsNoOp(t *testing.T) {
	store := tasks.NewMemoryStore(time.Hour)
	task := store.Create("f5bot", 10, 5)

	if !store.Fail(task.ID, "gmail list failed") {
		t.Fatal("Fail reported missing task")
	}
	if store.AppendResult(task.ID, tasks.BatchResult{BatchNumber: 1}) {
		t.Fatal("expected append to failed task to report false")
	}

	snapshot, _ := store.Get(task.ID)
	if snapshot.Status != tasks.StatusFailed {
		t.Fatalf("expected failed status, got %s", snapshot.Status)
	}
	if snapshot.Error != "gmail list failed" {
		t.Fatalf("unexpected error message: %q", snapshot.Error)
	}
	if len(snapshot.Results) != 0 {
		t.Fatalf("expected empty results, got %d", len(snapshot.Results))
	}
}

func TestCompleteWithNoteRecordsNote(t *testing.T) {
	store := tasks.NewMemoryStore(time.Hour)
	task := store.Create("fellowship-ai", 50, 5)

	if !store.CompleteWithNote(task.ID, tasks.NoMessagesNote) {
		t.Fatal("CompleteWithNote reported missing task")
	}
	snapshot, _ := store.Get(task.ID)
	if snapshot.Status != tasks.StatusCompleted {
		t.Fatalf("expected completed status, got %s", snapshot.Status)
	}
	if snapshot.Error != tasks.NoMessagesNote {
		t.Fatalf("expected note %q, got %q", tasks.NoMessagesNote, snapshot.Error)
	}
	if snapshot.Progress != "0/0" {
		t.Fatalf("expected progress 0/0, got %q", snapshot.Progress)
	}
}

func TestSnapshotsDoNotAliasStoreState(t *testing.T) {
	store := tasks.NewMemoryStore(time.Hour)
	task := store.Create("fellowship-ai", 10, 5)
	store.SetTotalBatches(task.ID, 1)
	store.AppendResult(task.ID, tasks.BatchResult{
		BatchNumber: 1,
		Analysis:    "original",
		OriginalEmails: []tasks.OriginalEmail{
			{Subject: "Weekly digest", ThreadID: "t1"},
		},
	})

	first, _ := store.Get(task.ID)
	first.Results[0].Analysis = "mutated"
	first.Results[0].OriginalEmails[0].Subject = "mutated"
	first.Status = tasks.StatusFailed

	second, _ := store.Get(task.ID)
	if second.Results[0].Analysis != "original" {
		t.Fatalf("snapshot mutation leaked into store: %q", second.Results[0].Analysis)
	}
	if second.Results[0].OriginalEmails[0].Subject != "Weekly digest" {
		t.Fatalf("nested snapshot mutation leaked into store: %q", second.Results[0].OriginalEmails[0].Subject)
	}
	if second.Status != tasks.StatusProcessing {
		t.Fatalf("status mutation leaked into store: %s", second.Status)
	}
}

func TestListReturnsMetadataWithoutResults(t *testing.T) {
	store := tasks.NewMemoryStore(time.Hour)
	first := store.Create("fellowship-ai", 10, 5)
	second := store.Create("f5bot", 20, 10)
	store.SetTotalBatches(first.ID, 2)
	store.AppendResult(first.ID, tasks.BatchResult{BatchNumber: 1, Analysis: "a"})

	listed := store.List()
	if len(listed) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(listed))
	}
	byID := make(map[string]*tasks.Task, len(listed))
	for _, task := range listed {
		if task.Results != nil {
			t.Fatalf("expected list entries to omit results, got %d", len(task.Results))
		}
		byID[task.ID] = task
	}
	if byID[first.ID] == nil || byID[second.ID] == nil {
		t.Fatalf("expected both tasks listed, got %v", byID)
	}
	if byID[first.ID].ResultCount != 1 {
		t.Fatalf("expected result count 1, got %d", byID[first.ID].ResultCount)
	}
	if byID[second.ID].ResultCount != 0 {
		t.Fatalf("expected result count 0, got %d", byID[second.ID].ResultCount)
	}
}

func TestStatsCountsByStatus(t *testing.T) {
	store := tasks.NewMemoryStore(time.Hour)
	running := store.Create("fellowship-ai", 10, 5)
	done := store.Create("f5bot", 10, 5)
	broken := store.Create("techcrunch", 10, 5)
	_ = running

	store.Complete(done.ID)
	store.Fail(broken.ID, "fetch failed")

	stats := store.Stats()
	if stats[tasks.StatusProcessing] != 1 {
		t.Fatalf("expected 1 processing, got %d", stats[tasks.StatusProcessing])
	}
	if stats[tasks.StatusCompleted] != 1 {
		t.Fatalf("expected 1 completed, got %d", stats[tasks.StatusCompleted])
	}
	if stats[tasks.StatusFailed] != 1 {
		t.Fatalf("expected 1 failed, got %d", stats[tasks.StatusFailed])
	}
}

func TestParseStatus(t *testing.T) {
	if status, ok := tasks.ParseStatus(" Processing "); !ok || status != tasks.StatusProcessing {
		t.Fatalf("expected processing, got %q ok=%v", status, ok)
	}
	if _, ok := tasks.ParseStatus("queued"); ok {
		t.Fatal("expected unknown status to be rejected")
	}
	if _, ok := tasks.ParseStatus(""); ok {
		t.Fatal("expected empty status to be rejected")
	}
}
