package main

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"mailscout/internal/config"
	"mailscout/internal/daemon"
	"mailscout/internal/logging"
	"mailscout/internal/mail"
	"mailscout/internal/notifications"
	"mailscout/internal/senders"
	"mailscout/internal/services"
	"mailscout/internal/tasks"
	"mailscout/internal/testsupport"
	"mailscout/internal/workflow"
)

type stubSource struct {
	threads []mail.Thread
}

func (s *stubSource) FetchThreads(context.Context, string, int) ([]mail.Thread, error) {
	out := make([]mail.Thread, len(s.threads))
	copy(out, s.threads)
	return out, nil
}

func (s *stubSource) HealthCheck(context.Context) services.Health {
	return services.Healthy("gmail")
}

type stubAnalyzer struct{}

func (stubAnalyzer) CleanContent(_ context.Context, text string) string { return text }

func (stubAnalyzer) Analyze(context.Context, string, string) (string, error) {
	return "## Top Stories\n1. Example thread - http://example.com/a", nil
}

func (stubAnalyzer) MarkdownToJSON(_ context.Context, markdown string) string {
	return `{"sections":[{"title":"Top Stories","items":[{"number":"1","title":"Example thread","link":"http://example.com/a"}]}]}`
}

func (stubAnalyzer) AnalysisProviderName() string { return "stub-llm" }

func (stubAnalyzer) HealthCheck(context.Context) error { return nil }

type cliTestEnv struct {
	cfg        *config.Config
	store      *tasks.MemoryStore
	daemon     *daemon.Daemon
	hub        *logging.StreamHub
	configPath string
	baseDir    string
}

// setupCLITestEnv starts an in-process daemon serving the HTTP API and
// writes a config file whose api_bind points at the live listener.
func setupCLITestEnv(t *testing.T, threads []mail.Thread) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)

	cfg := testsupport.NewConfig(t, testsupport.WithSender("f5bot", "alerts@f5bot.com", "f5bot"))
	testsupport.WritePrompts(t, cfg, "f5bot")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}

	registry, err := senders.NewRegistry(cfg)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	store := testsupport.NewStore(t)
	hub := logging.NewStreamHub(256)
	manager := workflow.NewManager(cfg, store, registry, &stubSource{threads: threads}, stubAnalyzer{}, notifications.NewService(cfg), logging.NewNop())

	d, err := daemon.New(cfg, store, logging.NewNop(), manager, hub, nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("daemon.Start: %v", err)
	}

	// Mirror the runtime bootstrap: a stop request over the API tears the
	// daemon down, which is what makes `daemon stop` observable here.
	go func() {
		<-d.ShutdownRequested()
		d.Stop()
	}()

	served := *cfg
	served.Paths.APIBind = d.APIAddr()
	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, &served)

	env := &cliTestEnv{
		cfg:        &served,
		store:      store,
		daemon:     d,
		hub:        hub,
		configPath: configPath,
		baseDir:    base,
	}

	t.Cleanup(func() {
		d.RequestShutdown()
		_ = d.Close()
	})

	return env
}

// setupOfflineCLIEnv writes a config pointing at a loopback port with no
// listener, for exercising the daemon-down fallbacks.
func setupOfflineCLIEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)

	cfg := testsupport.NewConfig(t, testsupport.WithSender("f5bot", "alerts@f5bot.com", "f5bot"))
	testsupport.WritePrompts(t, cfg, "f5bot")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	cfg.Paths.APIBind = reservedLoopbackAddr(t)

	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{cfg: cfg, configPath: configPath, baseDir: base}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	// An explicit empty stdin keeps bubbletea off the real os.Stdin, which
	// under `go test` is /dev/null and not epoll-compatible on Linux.
	var stdin, stdout, stderr bytes.Buffer
	cmd.SetIn(&stdin)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

// reservedLoopbackAddr returns a loopback address nothing listens on.
func reservedLoopbackAddr(t *testing.T) string {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("reserve loopback port: %v", err)
	}
	addr := listener.Addr().String()
	if err := listener.Close(); err != nil {
		t.Fatalf("close reserved listener: %v", err)
	}
	return addr
}

func sampleThreads(n int) []mail.Thread {
	threads := make([]mail.Thread, 0, n)
	for i := 1; i <= n; i++ {
		threads = append(threads, mail.Thread{
			ID:           fmt.Sprintf("thread-%02d", i),
			Subject:      fmt.Sprintf("Mention %d", i),
			Date:         "2026-01-02",
			Body:         "Your keyword was mentioned.",
			MessageCount: 1,
		})
	}
	return threads
}

func waitForTaskStatus(t *testing.T, store *tasks.MemoryStore, taskID string, status tasks.Status) {
	t.Helper()
	waitFor(t, 5*time.Second, func() bool {
		task, ok := store.Get(taskID)
		return ok && task.Status == status
	})
}

func waitFor(t *testing.T, duration time.Duration, fn func() bool) {
	t.Helper()
	deadline := time.Now().Add(duration)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s", duration)
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
