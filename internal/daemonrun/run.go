package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"mailscout/internal/config"
	"mailscout/internal/daemon"
	"mailscout/internal/llm"
	"mailscout/internal/logging"
	"mailscout/internal/mail"
	"mailscout/internal/notifications"
	"mailscout/internal/preflight"
	"mailscout/internal/senders"
	"mailscout/internal/tasks"
	"mailscout/internal/workflow"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
	Diagnostic  bool
}

// Run starts the mailscout daemon runtime loop.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("mailscoutd-%s.log", runID))
	eventsPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("mailscoutd-%s.events", runID))
	logHub := logging.NewStreamHub(4096)
	eventArchive, archiveErr := logging.NewEventArchive(eventsPath)
	if archiveErr != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to initialize log archive: %v\n", archiveErr)
	} else if eventArchive != nil {
		logHub.AddSink(eventArchive)
	}

	var sessionID string
	var debugLogPath string
	if opts.Diagnostic {
		sessionID = uuid.NewString()
		debugDir := filepath.Join(cfg.Paths.LogDir, "debug")
		if err := os.MkdirAll(debugDir, 0o755); err != nil {
			return fmt.Errorf("create debug log directory: %w", err)
		}
		debugLogPath = filepath.Join(debugDir, fmt.Sprintf("mailscoutd-%s.log", runID))
	}

	logger, err := logging.New(logging.Options{
		Level:            opts.LogLevel,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stdout", logPath},
		ErrorOutputPaths: []string{"stderr", logPath},
		Development:      opts.Development,
		Stream:           logHub,
		SessionID:        sessionID,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	if opts.Diagnostic {
		debugLogger, debugErr := logging.New(logging.Options{
			Level:            "debug",
			Format:           "json",
			OutputPaths:      []string{debugLogPath},
			ErrorOutputPaths: []string{debugLogPath},
			Development:      true,
			SessionID:        sessionID,
		})
		if debugErr != nil {
			fmt.Fprintf(os.Stderr, "warn: unable to initialize debug logger: %v\n", debugErr)
		} else {
			logger = logging.TeeLogger(logger, debugLogger.Handler())
			if err := ensureCurrentLogPointer(filepath.Join(cfg.Paths.LogDir, "debug"), debugLogPath); err != nil {
				fmt.Fprintf(os.Stderr, "warn: unable to update debug/mailscoutd.log link: %v\n", err)
			}
		}
		logger.Info("diagnostic mode enabled",
			logging.String(logging.FieldEventType, "diagnostic_mode_enabled"),
			logging.String(logging.FieldSessionID, sessionID),
			logging.String("debug_log_path", debugLogPath),
		)
	}

	logConfigSnapshot(logger, cfg)
	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update mailscoutd.log link: %v\n", err)
	}
	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays,
		logging.RetentionTarget{Dir: cfg.Paths.LogDir, Pattern: "mailscoutd-*.log", Exclude: []string{logPath}},
		logging.RetentionTarget{Dir: cfg.Paths.LogDir, Pattern: "mailscoutd-*.events", Exclude: []string{eventsPath}},
		logging.RetentionTarget{Dir: filepath.Join(cfg.Paths.LogDir, "debug"), Pattern: "mailscoutd-*.log", Exclude: []string{debugLogPath}},
	)
	pidPath := filepath.Join(cfg.Paths.LogDir, "mailscoutd.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	checks := preflight.RunAll(cfg)
	if err := preflight.FatalError(checks); err != nil {
		logger.Error("startup checks failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "preflight_failed"),
		)
		return err
	}
	for _, check := range checks {
		if check.Passed {
			continue
		}
		logging.WarnWithContext(logger, "startup check failed", "preflight_check_failed",
			logging.String("check", check.Name),
			logging.String(logging.FieldErrorHint, check.Detail),
			logging.String(logging.FieldImpact, "daemon continues with reduced functionality"),
		)
	}

	store := tasks.NewMemoryStore(time.Duration(cfg.Analysis.RetentionHours) * time.Hour)

	registry, err := senders.NewRegistry(cfg)
	if err != nil {
		logger.Error("load sender registry", logging.Error(err))
		return err
	}

	source, err := mail.NewGmailSource(signalCtx, cfg, logger)
	if err != nil {
		logger.Error("initialize mail source", logging.Error(err))
		return err
	}
	defer source.Close()

	analyzer, err := llm.NewFromConfig(cfg, logger)
	if err != nil {
		logger.Error("initialize analysis providers", logging.Error(err))
		return err
	}

	notifier := notifications.NewService(cfg)
	manager := workflow.NewManager(cfg, store, registry, source, analyzer, notifier, logger)

	d, err := daemon.New(cfg, store, logger, manager, logHub, eventArchive)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		logger.Error("daemon start failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "daemon_start_failed"),
			logging.String(logging.FieldErrorHint, "check that no other mailscoutd instance holds the lock"),
		)
		return err
	}

	if err := notifier.NotifyDaemonStarted(signalCtx, d.APIAddr()); err != nil {
		logger.Warn("daemon start notification failed", logging.Error(err))
	}

	select {
	case <-signalCtx.Done():
	case <-d.ShutdownRequested():
	}
	logger.Info("mailscout daemon shutting down")
	return nil
}

func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, "mailscoutd.log")
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logConfigSnapshot(logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	analysis := cfg.AnalysisLLM()
	parse := cfg.ParseLLM()
	logger.Info("configuration snapshot",
		logging.String(logging.FieldEventType, "config_snapshot"),
		logging.String("analysis_provider", analysis.Name),
		logging.String("analysis_model", analysis.Model),
		logging.Bool("analysis_key_present", strings.TrimSpace(analysis.APIKey) != ""),
		logging.Bool("parse_key_present", strings.TrimSpace(parse.APIKey) != ""),
		logging.Int("sender_count", len(cfg.Senders)),
		logging.String("gmail_user", cfg.Gmail.User),
		logging.Bool("thread_cache_enabled", cfg.Gmail.CacheEnabled),
		logging.Bool("artifacts_enabled", cfg.Analysis.ArtifactsEnabled),
		logging.Bool("notifications_enabled", cfg.Notifications.Enabled),
		logging.String("api_bind", cfg.Paths.APIBind),
	)
}
