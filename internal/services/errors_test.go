package services_test

import (
	"errors"
	"strings"
	"testing"

	"mailscout/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalService, "analyze", "chat completion", "request failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalService) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"analyze", "chat completion", "request failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapNilMarkerDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "fetch", "threads list", "", errors.New("io"))
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
}

func TestFatalToTaskClassification(t *testing.T) {
	configErr := services.Wrap(services.ErrConfiguration, "fetch", "credentials", "missing", nil)
	if !services.FatalToTask(configErr) {
		t.Fatalf("expected configuration error to be task fatal")
	}

	timeoutErr := services.Wrap(services.ErrTimeout, "analyze", "chat completion", "deadline exceeded", nil)
	if services.FatalToTask(timeoutErr) {
		t.Fatalf("expected timeout to stay batch scoped")
	}

	if services.FatalToTask(nil) {
		t.Fatalf("expected nil error to not be task fatal")
	}
}
