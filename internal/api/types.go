package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// AnalyzeRequest starts an analysis run for one configured sender.
// Zero limits mean "use the daemon's configured defaults".
type AnalyzeRequest struct {
	SenderID   string `json:"sender_id"`
	EmailLimit int    `json:"email_limit,omitempty"`
	BatchSize  int    `json:"batch_size,omitempty"`
}

// AnalyzeResponse acknowledges an accepted analysis request.
type AnalyzeResponse struct {
	TaskID string `json:"task_id"`
	Status string `json:"status"`
}

// OriginalEmail is the transport form of one source message kept with a
// batch result for cross-checking.
type OriginalEmail struct {
	Subject       string `json:"subject"`
	From          string `json:"from"`
	ThreadID      string `json:"thread_id"`
	MessageNumber int    `json:"message_number"`
	TotalInThread int    `json:"total_in_thread"`
	Body          string `json:"body"`
	Date          string `json:"date"`
}

// BatchResult describes one batch outcome. Successful batches carry the
// parsed analysis plus the raw model markdown; failed batches carry only
// the error string.
type BatchResult struct {
	BatchNumber        int             `json:"batch_number"`
	TotalBatches       int             `json:"total_batches"`
	MessagesInBatch    int             `json:"messages_in_batch"`
	ThreadCountInBatch int             `json:"thread_count_in_batch"`
	Analysis           string          `json:"analysis,omitempty"`
	RawMarkdown        string          `json:"raw_markdown,omitempty"`
	OriginalEmails     []OriginalEmail `json:"original_emails,omitempty"`
	Error              string          `json:"error,omitempty"`
	ProcessedAt        string          `json:"processed_at,omitempty"`
}

// Task is the full transport snapshot of an analysis task. List views
// omit Results and carry ResultCount instead.
type Task struct {
	TaskID       string        `json:"task_id"`
	SenderID     string        `json:"sender_id"`
	Status       string        `json:"status"`
	Progress     string        `json:"progress"`
	EmailLimit   int           `json:"email_limit"`
	BatchSize    int           `json:"batch_size"`
	TotalBatches int           `json:"total_batches"`
	Results      []BatchResult `json:"results,omitempty"`
	ResultCount  int           `json:"result_count"`
	Error        string        `json:"error,omitempty"`
	CreatedAt    string        `json:"created_at,omitempty"`
	UpdatedAt    string        `json:"updated_at,omitempty"`
}

// TasksResponse wraps the task list endpoint payload.
type TasksResponse struct {
	Tasks []Task `json:"tasks"`
}

// Sender describes one configured mailbox sender.
type Sender struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Description    string `json:"description,omitempty"`
	ExpectedVolume string `json:"expected_volume,omitempty"`
	PromptKey      string `json:"prompt_key,omitempty"`
}

// SendersResponse wraps the sender list endpoint payload.
type SendersResponse struct {
	Senders []Sender `json:"senders"`
}

// ComponentHealth mirrors readiness reporting for daemon components.
type ComponentHealth struct {
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
	Detail string `json:"detail,omitempty"`
}

// WorkflowStatus summarizes analysis execution state.
type WorkflowStatus struct {
	Running   bool           `json:"running"`
	Provider  string         `json:"provider,omitempty"`
	TaskStats map[string]int `json:"task_stats"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool              `json:"running"`
	PID          int               `json:"pid"`
	LockFilePath string            `json:"lock_file_path,omitempty"`
	Workflow     WorkflowStatus    `json:"workflow"`
	Components   []ComponentHealth `json:"components"`
}

// HealthResponse is the liveness probe payload.
type HealthResponse struct {
	Status string `json:"status"`
}

// ErrorResponse carries a human-readable failure message.
type ErrorResponse struct {
	Error string `json:"error"`
}

// LogEvent is the transport form of a structured daemon log line.
type LogEvent struct {
	Sequence  uint64            `json:"seq"`
	Timestamp string            `json:"ts"`
	Level     string            `json:"level"`
	Message   string            `json:"msg"`
	Component string            `json:"component,omitempty"`
	Stage     string            `json:"stage,omitempty"`
	TaskID    string            `json:"task_id,omitempty"`
	SenderID  string            `json:"sender_id,omitempty"`
	Batch     int64             `json:"batch,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
	Details   []DetailField     `json:"details,omitempty"`
}

// DetailField mirrors the console handler's info bullet lines.
type DetailField struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// LogStreamResponse wraps a page of log events plus the cursor for the
// next fetch.
type LogStreamResponse struct {
	Events []LogEvent `json:"events"`
	Next   uint64     `json:"next"`
}
