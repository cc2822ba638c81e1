package daemonctl

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"
)

func healthServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(server.Close)
	return server, server.Listener.Addr().String()
}

func TestProbe(t *testing.T) {
	server, bind := healthServer(t)

	if !Probe(context.Background(), bind) {
		t.Fatal("expected probe to succeed against live server")
	}

	server.Close()
	if Probe(context.Background(), bind) {
		t.Fatal("expected probe to fail after server close")
	}

	if Probe(context.Background(), "") {
		t.Fatal("expected probe to fail for empty bind")
	}
}

func TestEnsureStartedAlreadyRunning(t *testing.T) {
	_, bind := healthServer(t)

	result, err := EnsureStarted(context.Background(), bind, "/does/not/matter", LaunchOptions{}, time.Second)
	if err != nil {
		t.Fatalf("EnsureStarted: %v", err)
	}
	if result.State != StartStateAlreadyRunning || result.Launched {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestWaitForShutdown(t *testing.T) {
	server, bind := healthServer(t)

	go func() {
		time.Sleep(150 * time.Millisecond)
		server.Close()
	}()
	if err := WaitForShutdown(context.Background(), bind, 3*time.Second); err != nil {
		t.Fatalf("WaitForShutdown: %v", err)
	}
}

func TestWaitForReadyTimesOut(t *testing.T) {
	err := WaitForReady(context.Background(), "127.0.0.1:1", 300*time.Millisecond)
	if err == nil {
		t.Fatal("expected timeout against closed port")
	}
	if !strings.Contains(err.Error(), "daemon failed to start") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLaunchRequiresExecutable(t *testing.T) {
	if err := Launch("  ", LaunchOptions{}); err == nil {
		t.Fatal("expected error for empty executable path")
	}
}

func TestForceKillProcessErrors(t *testing.T) {
	dir := t.TempDir()
	pidPath := filepath.Join(dir, "mailscoutd.pid")

	if _, err := ForceKillProcess(pidPath, "", 0); err == nil {
		t.Fatal("expected error with no pid source")
	}

	if err := os.WriteFile(pidPath, []byte("not-a-pid\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ForceKillProcess(pidPath, "", 0); err == nil {
		t.Fatal("expected error for malformed pid file with no fallback")
	}

	if err := os.WriteFile(pidPath, []byte(strconv.Itoa(os.Getpid())+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := ForceKillProcess(pidPath, "", 0)
	if err == nil || !strings.Contains(err.Error(), "refusing to kill current process") {
		t.Fatalf("expected self-kill refusal, got %v", err)
	}
}
