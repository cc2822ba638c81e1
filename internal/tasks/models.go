package tasks

import (
	"strings"
	"time"
)

// Status represents the lifecycle of an analysis task.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// NoMessagesNote is the completion note set when the mailbox query matches nothing.
const NoMessagesNote = "No messages found from this sender"

var allStatuses = []Status{
	StatusProcessing,
	StatusCompleted,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// OriginalEmail preserves one source message as it entered a batch, so result
// views can show what the model actually saw.
type OriginalEmail struct {
	Subject       string
	From          string
	ThreadID      string
	MessageNumber int
	TotalInThread int
	Body          string
	Date          string
}

// BatchResult records the outcome of one model invocation over one batch of
// threads. Immutable once appended to a task.
type BatchResult struct {
	BatchNumber        int
	TotalBatches       int
	MessagesInBatch    int
	ThreadCountInBatch int
	Analysis           string
	RawMarkdown        string
	OriginalEmails     []OriginalEmail
	Error              string
	ProcessedAt        time.Time
}

// Failed reports whether the batch carries an error instead of an analysis.
func (r BatchResult) Failed() bool {
	return r.Error != ""
}

// Task represents one analysis run. Store accessors hand out deep copies, so a
// Task held by a caller never aliases worker-mutated state.
type Task struct {
	ID           string
	SenderID     string
	EmailLimit   int
	BatchSize    int
	Status       Status
	Progress     string
	TotalBatches int
	Results      []BatchResult
	ResultCount  int
	Error        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsTerminal reports whether the task has finished processing.
func (t *Task) IsTerminal() bool {
	return t.Status == StatusCompleted || t.Status == StatusFailed
}

func (t *Task) clone(includeResults bool) *Task {
	cp := *t
	cp.ResultCount = len(t.Results)
	if includeResults {
		cp.Results = cloneResults(t.Results)
	} else {
		cp.Results = nil
	}
	return &cp
}

func cloneResults(results []BatchResult) []BatchResult {
	if len(results) == 0 {
		return nil
	}
	out := make([]BatchResult, len(results))
	copy(out, results)
	for i := range out {
		if len(out[i].OriginalEmails) == 0 {
			continue
		}
		emails := make([]OriginalEmail, len(out[i].OriginalEmails))
		copy(emails, out[i].OriginalEmails)
		out[i].OriginalEmails = emails
	}
	return out
}
