package testsupport

import (
	"testing"
	"time"

	"mailscout/internal/tasks"
)

// NewStore returns an in-memory task store with the default retention.
func NewStore(t testing.TB) *tasks.MemoryStore {
	t.Helper()
	return tasks.NewMemoryStore(0)
}

// SeedCompletedTask registers a task carrying one successful batch result.
func SeedCompletedTask(t testing.TB, store *tasks.MemoryStore, senderID string) *tasks.Task {
	t.Helper()

	task := store.Create(senderID, 10, 5)
	store.SetTotalBatches(task.ID, 1)
	store.AppendResult(task.ID, tasks.BatchResult{
		BatchNumber:        1,
		TotalBatches:       1,
		MessagesInBatch:    3,
		ThreadCountInBatch: 2,
		Analysis:           `{"sections":[{"title":"Top Stories","items":[{"text":"example"}]}]}`,
		RawMarkdown:        "## Top Stories\n- example",
		ProcessedAt:        time.Now().UTC(),
	})
	store.Complete(task.ID)

	seeded, ok := store.Get(task.ID)
	if !ok {
		t.Fatalf("seeded task %s missing from store", task.ID)
	}
	return seeded
}

// SeedProcessingTask registers a task that is still mid-flight.
func SeedProcessingTask(t testing.TB, store *tasks.MemoryStore, senderID string) *tasks.Task {
	t.Helper()

	task := store.Create(senderID, 10, 5)
	store.SetTotalBatches(task.ID, 3)
	return task
}
