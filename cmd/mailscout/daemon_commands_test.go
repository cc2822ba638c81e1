package main

import (
	"testing"
	"time"

	"mailscout/internal/testsupport"
)

func TestDaemonStatusRunning(t *testing.T) {
	env := setupCLITestEnv(t, nil)
	testsupport.SeedProcessingTask(t, env.store, "f5bot")

	out, _, err := runCLI(t, []string{"daemon", "status"}, env.configPath)
	if err != nil {
		t.Fatalf("daemon status: %v", err)
	}
	requireContains(t, out, "Daemon Status")
	requireContains(t, out, "Running (pid")
	requireContains(t, out, "stub-llm")
	requireContains(t, out, "mailscoutd.lock")
	requireContains(t, out, "Components")
	requireContains(t, out, "gmail")
	requireContains(t, out, "Tasks")
	requireContains(t, out, "Processing")
}

func TestDaemonStatusNotRunning(t *testing.T) {
	env := setupOfflineCLIEnv(t)

	out, _, err := runCLI(t, []string{"daemon", "status"}, env.configPath)
	if err != nil {
		t.Fatalf("daemon status offline: %v", err)
	}
	requireContains(t, out, "Daemon Status")
	requireContains(t, out, "[ERROR] Not running")
}

func TestDaemonStatusJSON(t *testing.T) {
	env := setupCLITestEnv(t, nil)

	out, _, err := runCLI(t, []string{"--json", "daemon", "status"}, env.configPath)
	if err != nil {
		t.Fatalf("daemon status --json: %v", err)
	}
	requireContains(t, out, `"running": true`)
	requireContains(t, out, `"components"`)
}

func TestDaemonStartAlreadyRunning(t *testing.T) {
	env := setupCLITestEnv(t, nil)

	out, _, err := runCLI(t, []string{"daemon", "start"}, env.configPath)
	if err != nil {
		t.Fatalf("daemon start: %v", err)
	}
	requireContains(t, out, "Daemon already running")
}

func TestDaemonStopLifecycle(t *testing.T) {
	env := setupCLITestEnv(t, nil)

	out, _, err := runCLI(t, []string{"daemon", "stop"}, env.configPath)
	if err != nil {
		t.Fatalf("daemon stop: %v", err)
	}
	requireContains(t, out, "Stopping daemon workflow...")
	requireContains(t, out, "Daemon stopped")

	waitFor(t, 5*time.Second, func() bool { return !env.daemon.Running() })

	out, _, err = runCLI(t, []string{"daemon", "stop"}, env.configPath)
	if err != nil {
		t.Fatalf("daemon stop (already stopped): %v", err)
	}
	requireContains(t, out, "Daemon is not running")
}

func TestDaemonRunCommandHidden(t *testing.T) {
	root := newRootCommand()
	daemonCmd, _, err := root.Find([]string{"daemon", "run"})
	if err != nil {
		t.Fatalf("find daemon run: %v", err)
	}
	if !daemonCmd.Hidden {
		t.Fatal("daemon run should be hidden from help output")
	}
	if !shouldSkipConfig(daemonCmd) {
		t.Fatal("daemon run should skip the eager config load")
	}
}

func TestShouldSkipConfigAnnotations(t *testing.T) {
	root := newRootCommand()
	initCmd, _, err := root.Find([]string{"config", "init"})
	if err != nil {
		t.Fatalf("find config init: %v", err)
	}
	if !shouldSkipConfig(initCmd) {
		t.Fatal("config init should skip config load")
	}

	statusCmd, _, err := root.Find([]string{"daemon", "status"})
	if err != nil {
		t.Fatalf("find daemon status: %v", err)
	}
	if shouldSkipConfig(statusCmd) {
		t.Fatal("daemon status should load config")
	}
}
