package tasks

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store is the task repository the workflow manager mutates and the API layer
// reads. Implementations must make every method atomic with respect to the
// one background writer per task and any number of concurrent readers.
type Store interface {
	Create(senderID string, emailLimit, batchSize int) *Task
	SetTotalBatches(id string, total int) bool
	AppendResult(id string, result BatchResult) bool
	UpdateProgress(id string, current, total int) bool
	Complete(id string) bool
	CompleteWithNote(id, note string) bool
	Fail(id, message string) bool
	Get(id string) (*Task, bool)
	List() []*Task
	Sweep(now time.Time) int
	Stats() map[Status]int
}

// MemoryStore holds tasks in process memory. Restarts lose all tasks; the
// retention sweep is the only other way entries leave the map.
type MemoryStore struct {
	mu        sync.RWMutex
	tasks     map[string]*Task
	retention time.Duration
}

var _ Store = (*MemoryStore)(nil)

// DefaultRetention is applied when NewMemoryStore receives a non-positive window.
const DefaultRetention = 24 * time.Hour

// NewMemoryStore returns an empty store whose Sweep expires tasks created
// more than retention ago.
func NewMemoryStore(retention time.Duration) *MemoryStore {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &MemoryStore{
		tasks:     make(map[string]*Task),
		retention: retention,
	}
}

// Create registers a new processing task with a fresh identifier and returns
// a copy of it.
func (s *MemoryStore) Create(senderID string, emailLimit, batchSize int) *Task {
	now := time.Now().UTC()
	task := &Task{
		ID:         uuid.NewString(),
		SenderID:   senderID,
		EmailLimit: emailLimit,
		BatchSize:  batchSize,
		Status:     StatusProcessing,
		Progress:   formatProgress(0, 0),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	s.mu.Lock()
	s.tasks[task.ID] = task
	s.mu.Unlock()

	return task.clone(true)
}

// SetTotalBatches records the batch denominator once the fetch has resolved.
func (s *MemoryStore) SetTotalBatches(id string, total int) bool {
	if total < 0 {
		total = 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok {
		return false
	}
	task.TotalBatches = total
	task.Progress = formatProgress(len(task.Results), total)
	task.UpdatedAt = time.Now().UTC()
	return true
}

// AppendResult adds a batch result and advances progress. It is a no-op when
// the task is missing (already swept) or terminal, so a slow worker can never
// resurrect or grow a finished record.
func (s *MemoryStore) AppendResult(id string, result BatchResult) bool {
	now := time.Now().UTC()
	if result.ProcessedAt.IsZero() {
		result.ProcessedAt = now
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok || task.IsTerminal() {
		return false
	}
	task.Results = append(task.Results, result)
	task.Progress = formatProgress(len(task.Results), task.TotalBatches)
	task.UpdatedAt = now
	return true
}

// UpdateProgress overwrites the progress counter without touching results.
func (s *MemoryStore) UpdateProgress(id string, current, total int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok {
		return false
	}
	task.Progress = formatProgress(current, total)
	task.UpdatedAt = time.Now().UTC()
	return true
}

// Complete marks the task completed.
func (s *MemoryStore) Complete(id string) bool {
	return s.finish(id, StatusCompleted, "")
}

// CompleteWithNote marks the task completed and records an informational note
// in the error field, e.g. when the mailbox query matched nothing.
func (s *MemoryStore) CompleteWithNote(id, note string) bool {
	return s.finish(id, StatusCompleted, note)
}

// Fail marks the task failed with the given message.
func (s *MemoryStore) Fail(id, message string) bool {
	return s.finish(id, StatusFailed, message)
}

func (s *MemoryStore) finish(id string, status Status, note string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok {
		return false
	}
	task.Status = status
	if note != "" {
		task.Error = note
	}
	task.UpdatedAt = time.Now().UTC()
	return true
}

// Get returns a deep copy of the task, or false when it is unknown or expired.
func (s *MemoryStore) Get(id string) (*Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.tasks[id]
	if !ok {
		return nil, false
	}
	return task.clone(true), true
}

// List returns metadata copies of every live task ordered by creation time.
// Results are omitted; ResultCount carries the sequence length for views.
func (s *MemoryStore) List() []*Task {
	s.mu.RLock()
	out := make([]*Task, 0, len(s.tasks))
	for _, task := range s.tasks {
		out = append(out, task.clone(false))
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Sweep removes tasks created before now minus the retention window and
// returns how many were dropped.
func (s *MemoryStore) Sweep(now time.Time) int {
	cutoff := now.Add(-s.retention)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, task := range s.tasks {
		if task.CreatedAt.Before(cutoff) {
			delete(s.tasks, id)
			removed++
		}
	}
	return removed
}

// Stats returns a count of live tasks grouped by status.
func (s *MemoryStore) Stats() map[Status]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := make(map[Status]int, len(allStatuses))
	for _, task := range s.tasks {
		stats[task.Status]++
	}
	return stats
}

func formatProgress(current, total int) string {
	return fmt.Sprintf("%d/%d", current, total)
}
