package llm_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"mailscout/internal/llm"
	"mailscout/internal/services"
)

type fakeProvider struct {
	name     string
	response string
	err      error
	requests []llm.GenerateRequest
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Generate(_ context.Context, req llm.GenerateRequest) (string, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func (f *fakeProvider) HealthCheck(context.Context) error { return f.err }

func TestServiceCleanContentReturnsCleaned(t *testing.T) {
	analysis := &fakeProvider{name: "openai", response: "just the message"}
	service := llm.NewService(analysis, nil, llm.Settings{}, nil)

	cleaned := service.CleanContent(context.Background(), "From: x\n\njust the message\n--\nsig")
	if cleaned != "just the message" {
		t.Fatalf("unexpected cleaned text %q", cleaned)
	}
	if len(analysis.requests) != 1 {
		t.Fatalf("expected 1 request, got %d", len(analysis.requests))
	}
	req := analysis.requests[0]
	if !strings.Contains(req.User, "Clean the following email content:") {
		t.Fatalf("unexpected user prompt %q", req.User)
	}
	if req.JSONMode {
		t.Fatal("cleanup call must not force JSON mode")
	}
}

func TestServiceCleanContentDegradesToOriginal(t *testing.T) {
	analysis := &fakeProvider{name: "openai", err: errors.New("boom")}
	service := llm.NewService(analysis, nil, llm.Settings{}, nil)

	original := "original body"
	if got := service.CleanContent(context.Background(), original); got != original {
		t.Fatalf("expected original text back, got %q", got)
	}
}

func TestServiceAnalyzePropagatesExternalError(t *testing.T) {
	analysis := &fakeProvider{name: "openai", err: errors.New("upstream down")}
	service := llm.NewService(analysis, nil, llm.Settings{}, nil)

	_, err := service.Analyze(context.Background(), "system", "user")
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalService) {
		t.Fatalf("expected external service marker, got %v", err)
	}
	if services.FatalToTask(err) {
		t.Fatal("analysis failure must stay batch-scoped")
	}
}

func TestServiceAnalyzeClassifiesTimeout(t *testing.T) {
	analysis := &fakeProvider{name: "openai", err: fmt.Errorf("call: %w", context.DeadlineExceeded)}
	service := llm.NewService(analysis, nil, llm.Settings{}, nil)

	_, err := service.Analyze(context.Background(), "system", "user")
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected timeout marker, got %v", err)
	}
}

func TestServiceMarkdownToJSONSkipsWithoutParseProvider(t *testing.T) {
	analysis := &fakeProvider{name: "openai"}
	service := llm.NewService(analysis, nil, llm.Settings{}, nil)

	markdown := "## Section\n- Key: Value"
	if got := service.MarkdownToJSON(context.Background(), markdown); got != markdown {
		t.Fatalf("expected raw markdown back, got %q", got)
	}
	if service.ParseEnabled() {
		t.Fatal("parse must report disabled")
	}
}

func TestServiceMarkdownToJSONExtractsFencedJSON(t *testing.T) {
	parse := &fakeProvider{name: "groq", response: "```json\n{\"sections\":[]}\n```"}
	service := llm.NewService(&fakeProvider{name: "openai"}, parse, llm.Settings{}, nil)

	got := service.MarkdownToJSON(context.Background(), "## Section")
	if got != `{"sections":[]}` {
		t.Fatalf("expected extracted JSON, got %q", got)
	}
	if len(parse.requests) != 1 {
		t.Fatalf("expected 1 parse request, got %d", len(parse.requests))
	}
	if !parse.requests[0].JSONMode {
		t.Fatal("parse call must request JSON mode")
	}
}

func TestServiceMarkdownToJSONInvalidOutputKeepsMarkdown(t *testing.T) {
	parse := &fakeProvider{name: "groq", response: "sorry, I cannot do that"}
	service := llm.NewService(&fakeProvider{name: "openai"}, parse, llm.Settings{}, nil)

	markdown := "## Section\n- Key: Value"
	if got := service.MarkdownToJSON(context.Background(), markdown); got != markdown {
		t.Fatalf("expected raw markdown back, got %q", got)
	}
}

func TestServiceMarkdownToJSONParseErrorKeepsMarkdown(t *testing.T) {
	parse := &fakeProvider{name: "groq", err: errors.New("rate limited")}
	service := llm.NewService(&fakeProvider{name: "openai"}, parse, llm.Settings{}, nil)

	markdown := "## Section"
	if got := service.MarkdownToJSON(context.Background(), markdown); got != markdown {
		t.Fatalf("expected raw markdown back, got %q", got)
	}
}

func TestServiceTimeoutsFlowIntoRequests(t *testing.T) {
	analysis := &fakeProvider{name: "openai", response: "out"}
	parse := &fakeProvider{name: "groq", response: "{}"}
	service := llm.NewService(analysis, parse, llm.Settings{}, nil)

	if _, err := service.Analyze(context.Background(), "system", "user"); err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	service.MarkdownToJSON(context.Background(), "## Section")

	if analysis.requests[0].Timeout.Seconds() != 180 {
		t.Fatalf("expected 180s analysis timeout, got %v", analysis.requests[0].Timeout)
	}
	if parse.requests[0].Timeout.Seconds() != 30 {
		t.Fatalf("expected 30s parse timeout, got %v", parse.requests[0].Timeout)
	}
}
