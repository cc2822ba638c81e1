package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"mailscout/internal/config"
	"mailscout/internal/logging"
	"mailscout/internal/mail"
	"mailscout/internal/notifications"
	"mailscout/internal/senders"
	"mailscout/internal/services"
	"mailscout/internal/tasks"
)

// Analyzer is the model-facing surface the pipeline consumes. Satisfied
// by llm.Service.
type Analyzer interface {
	CleanContent(ctx context.Context, emailText string) string
	Analyze(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	MarkdownToJSON(ctx context.Context, markdown string) string
	AnalysisProviderName() string
	HealthCheck(ctx context.Context) error
}

// Manager coordinates analysis workers and the retention sweeper.
type Manager struct {
	cfg       *config.Config
	store     tasks.Store
	registry  *senders.Registry
	source    mail.Source
	analyzer  Analyzer
	notifier  notifications.Service
	artifacts *ArtifactWriter
	logger    *slog.Logger

	sweepInterval time.Duration

	mu      sync.Mutex
	running bool
	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewManager constructs a workflow manager. A nil logger logs nowhere.
func NewManager(
	cfg *config.Config,
	store tasks.Store,
	registry *senders.Registry,
	source mail.Source,
	analyzer Analyzer,
	notifier notifications.Service,
	logger *slog.Logger,
) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}
	return &Manager{
		cfg:           cfg,
		store:         store,
		registry:      registry,
		source:        source,
		analyzer:      analyzer,
		notifier:      notifier,
		artifacts:     NewArtifactWriter(cfg, logger),
		logger:        logging.NewComponentLogger(logger, "workflow"),
		sweepInterval: time.Duration(cfg.Analysis.SweepInterval) * time.Second,
	}
}

// Start begins background processing. Workers launched by StartAnalysis
// run on the context established here, not on the request context, so a
// finished HTTP request never cancels its analysis.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return errors.New("workflow already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.baseCtx = runCtx
	m.cancel = cancel
	m.running = true

	m.wg.Add(1)
	go m.runSweeper(runCtx)

	m.logger.Info("workflow started",
		logging.String(logging.FieldEventType, "workflow_start"),
		logging.Duration("sweep_interval", m.sweepInterval))
	return nil
}

// Stop terminates background processing and waits for in-flight
// analyses to finish.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.baseCtx = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
	m.logger.Info("workflow stopped",
		logging.String(logging.FieldEventType, "workflow_stop"))
}

// Running reports whether the manager accepts new analyses.
func (m *Manager) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// StartAnalysis validates the request, registers a task, and launches
// its worker. Zero limit or batch size selects the configured default.
func (m *Manager) StartAnalysis(ctx context.Context, senderID string, emailLimit, batchSize int) (string, error) {
	sender, ok := m.registry.Lookup(senderID)
	if !ok {
		return "", services.Wrap(services.ErrValidation, "workflow", "start",
			fmt.Sprintf("unknown sender %q", senderID), nil)
	}

	if emailLimit == 0 {
		emailLimit = m.cfg.Analysis.DefaultEmailLimit
	}
	if batchSize == 0 {
		batchSize = m.cfg.Analysis.DefaultBatchSize
	}
	if emailLimit < 1 || emailLimit > m.cfg.Analysis.MaxEmailLimit {
		return "", services.Wrap(services.ErrValidation, "workflow", "start",
			fmt.Sprintf("email_limit must be between 1 and %d, got %d", m.cfg.Analysis.MaxEmailLimit, emailLimit), nil)
	}
	if batchSize < 1 || batchSize > m.cfg.Analysis.MaxBatchSize {
		return "", services.Wrap(services.ErrValidation, "workflow", "start",
			fmt.Sprintf("batch_size must be between 1 and %d, got %d", m.cfg.Analysis.MaxBatchSize, batchSize), nil)
	}

	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return "", errors.New("workflow not running")
	}
	baseCtx := m.baseCtx
	task := m.store.Create(sender.ID, emailLimit, batchSize)
	m.wg.Add(1)
	m.mu.Unlock()

	go m.runAnalysis(baseCtx, task, sender)
	return task.ID, nil
}

func (m *Manager) runSweeper(ctx context.Context) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := m.store.Sweep(time.Now().UTC()); removed > 0 {
				m.logger.Info("expired tasks swept",
					logging.String(logging.FieldEventType, "task_sweep"),
					logging.Int("removed", removed))
			}
		}
	}
}

// Stats returns live task counts grouped by status.
func (m *Manager) Stats() map[tasks.Status]int {
	return m.store.Stats()
}

// ProviderName reports the configured analysis provider for status views.
func (m *Manager) ProviderName() string {
	return m.analyzer.AnalysisProviderName()
}

// Senders returns the configured sender roster.
func (m *Manager) Senders() []senders.Sender {
	return m.registry.All()
}
