package llm

import (
	"strings"

	"mailscout/internal/llm/provider"
)

// ExtractJSON pulls a JSON document out of model output that may carry
// markdown code fences or surrounding prose. It prefers a fenced block,
// then the outermost brace pair, and otherwise returns the trimmed input.
func ExtractJSON(text string) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return ""
	}
	if fenced, ok := cutCodeFence(trimmed); ok {
		return fenced
	}
	if start := strings.Index(trimmed, "{"); start >= 0 {
		if end := strings.LastIndex(trimmed, "}"); end > start {
			return strings.TrimSpace(trimmed[start : end+1])
		}
	}
	return trimmed
}

func cutCodeFence(text string) (string, bool) {
	start := strings.Index(text, "```")
	if start < 0 {
		return "", false
	}
	body := text[start+3:]
	body = strings.TrimLeft(body, " \t")
	if len(body) >= 4 && strings.EqualFold(body[:4], "json") {
		body = body[4:]
	}
	body = strings.TrimLeft(body, " \t\r\n")
	end := strings.Index(body, "```")
	if end < 0 {
		return strings.TrimSpace(body), true
	}
	return strings.TrimSpace(body[:end]), true
}

// SummarizeSnippet condenses payload text into a single short line for
// error messages and logs. The implementation lives in the shared
// provider leaf package so backend clients can use it too.
func SummarizeSnippet(text string) string {
	return provider.SummarizeSnippet(text)
}
