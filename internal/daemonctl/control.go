package daemonctl

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"mailscout/internal/api"
	"mailscout/internal/config"
)

// ErrDaemonNotRunning indicates no daemon answers on the API bind.
var ErrDaemonNotRunning = errors.New("daemon not running")

const pollInterval = 200 * time.Millisecond

// LaunchOptions controls daemon process launch behavior.
type LaunchOptions struct {
	ConfigPath string
	Diagnostic bool
}

type StartState string

const (
	StartStateStarted        StartState = "started"
	StartStateAlreadyRunning StartState = "already_running"
)

// StartResult captures daemon start orchestration state.
type StartResult struct {
	State    StartState
	Launched bool
}

// StopResult captures daemon stop/termination outcome.
type StopResult struct {
	StopAcknowledged bool
	ForcedKill       bool
	PID              int
}

// Probe reports whether a daemon currently answers health checks on bind.
func Probe(ctx context.Context, bind string) bool {
	client, err := api.NewClient(bind)
	if err != nil || client == nil {
		return false
	}
	probeCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return client.Health(probeCtx) == nil
}

// Launch starts a detached daemon process via the CLI's hidden run command.
func Launch(executablePath string, opts LaunchOptions) error {
	if strings.TrimSpace(executablePath) == "" {
		return fmt.Errorf("resolve executable: executable path is empty")
	}

	args := []string{"daemon", "run"}
	if cfg := strings.TrimSpace(opts.ConfigPath); cfg != "" {
		args = append(args, "--config", cfg)
	}
	if opts.Diagnostic {
		args = append(args, "--diagnostic")
	}

	proc := exec.Command(executablePath, args...)
	// New session so the daemon outlives the launching terminal.
	proc.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := proc.Start(); err != nil {
		return fmt.Errorf("launch daemon: %w", err)
	}
	return proc.Process.Release()
}

// WaitForReady polls the health endpoint until the daemon answers or the
// timeout elapses.
func WaitForReady(ctx context.Context, bind string, timeout time.Duration) error {
	client, err := api.NewClient(bind)
	if err != nil {
		return err
	}
	if client == nil {
		return fmt.Errorf("daemon api bind not configured")
	}

	deadline := time.Now().Add(timeout)
	var lastErr error
	for time.Now().Before(deadline) {
		probeCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		lastErr = client.Health(probeCtx)
		cancel()
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		time.Sleep(pollInterval)
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("timeout waiting for daemon")
	}
	return fmt.Errorf("daemon failed to start: %w", lastErr)
}

// EnsureStarted probes for a running daemon, launches one when absent, and
// waits for readiness.
func EnsureStarted(ctx context.Context, bind, executablePath string, opts LaunchOptions, waitTimeout time.Duration) (StartResult, error) {
	if Probe(ctx, bind) {
		return StartResult{State: StartStateAlreadyRunning}, nil
	}

	if err := Launch(executablePath, opts); err != nil {
		return StartResult{}, err
	}
	if err := WaitForReady(ctx, bind, waitTimeout); err != nil {
		return StartResult{}, err
	}
	return StartResult{State: StartStateStarted, Launched: true}, nil
}

// WaitForShutdown polls until the daemon stops answering health checks.
func WaitForShutdown(ctx context.Context, bind string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if !Probe(ctx, bind) {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		time.Sleep(pollInterval)
	}
	return fmt.Errorf("daemon did not stop: timeout waiting for shutdown")
}

// StopAndTerminate requests a graceful stop over the API and force-kills
// the process if it is still alive after gracePeriod.
func StopAndTerminate(ctx context.Context, bind string, cfg *config.Config, gracePeriod time.Duration) (StopResult, error) {
	client, err := api.NewClient(bind)
	if err != nil {
		return StopResult{}, err
	}
	if client == nil {
		return StopResult{}, ErrDaemonNotRunning
	}

	pid := 0
	if status, statusErr := client.DaemonStatus(ctx); statusErr == nil {
		pid = status.PID
	} else if api.IsDaemonUnavailable(statusErr) {
		return StopResult{}, ErrDaemonNotRunning
	}

	result := StopResult{PID: pid}
	if err := client.StopDaemon(ctx); err != nil {
		if api.IsDaemonUnavailable(err) {
			return StopResult{}, ErrDaemonNotRunning
		}
		return result, err
	}
	result.StopAcknowledged = true

	if WaitForShutdown(ctx, bind, gracePeriod) == nil {
		return result, nil
	}

	if cfg == nil || strings.TrimSpace(cfg.Paths.LogDir) == "" {
		return result, fmt.Errorf("daemon still running and log directory unknown, cannot force kill")
	}
	pidPath := filepath.Join(cfg.Paths.LogDir, "mailscoutd.pid")
	lockPath := filepath.Join(cfg.Paths.LogDir, "mailscoutd.lock")
	killedPID, killErr := ForceKillProcess(pidPath, lockPath, pid)
	if killErr != nil {
		return result, fmt.Errorf("failed to stop daemon process: %w", killErr)
	}
	result.ForcedKill = true
	result.PID = killedPID
	return result, nil
}

// RestartResult captures the combined stop and start outcome.
type RestartResult struct {
	WasRunning bool
	Stop       StopResult
	Start      StartResult
}

// Restart stops any running daemon and launches a fresh one.
func Restart(ctx context.Context, bind string, cfg *config.Config, executablePath string, opts LaunchOptions, stopTimeout, startTimeout time.Duration) (RestartResult, error) {
	result := RestartResult{}

	stop, err := StopAndTerminate(ctx, bind, cfg, stopTimeout)
	switch {
	case errors.Is(err, ErrDaemonNotRunning):
	case err != nil:
		return result, err
	default:
		result.WasRunning = true
		result.Stop = stop
	}

	start, err := EnsureStarted(ctx, bind, executablePath, opts, startTimeout)
	if err != nil {
		return result, err
	}
	result.Start = start
	return result, nil
}

// ForceKillProcess sends SIGKILL to the daemon process and cleans pid/lock files.
func ForceKillProcess(pidPath, lockPath string, fallbackPID int) (int, error) {
	pid := fallbackPID
	data, err := os.ReadFile(pidPath)
	if err == nil {
		pidStr := strings.TrimSpace(string(data))
		if pidStr != "" {
			if parsed, parseErr := strconv.Atoi(pidStr); parseErr == nil && parsed > 0 {
				pid = parsed
			}
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return 0, fmt.Errorf("read daemon pid file %q: %w", pidPath, err)
	}
	if pid <= 0 {
		return 0, fmt.Errorf("unable to determine daemon pid (pid file: %s)", pidPath)
	}
	if pid == os.Getpid() {
		return 0, fmt.Errorf("refusing to kill current process (pid %d)", pid)
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return 0, fmt.Errorf("locate daemon process %d: %w", pid, err)
	}
	if err := proc.Kill(); err != nil {
		return 0, fmt.Errorf("kill daemon process %d: %w", pid, err)
	}
	if err := os.Remove(pidPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return 0, fmt.Errorf("remove pid file %q: %w", pidPath, err)
	}
	if lockPath != "" {
		_ = os.Remove(lockPath)
	}
	return pid, nil
}
