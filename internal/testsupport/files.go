package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mailscout/internal/config"
)

// WritePrompts writes a prompts fixture at the config's prompts path
// containing a minimal template for each key.
func WritePrompts(t testing.TB, cfg *config.Config, keys ...string) {
	t.Helper()

	if len(keys) == 0 {
		keys = []string{"default"}
	}
	var b strings.Builder
	for _, key := range keys {
		fmt.Fprintf(&b, "%s:\n", key)
		fmt.Fprintf(&b, "  system_prompt: |\n    You are an email analyst for %s.\n", key)
		b.WriteString("  user_prompt: |\n    Analyze the following emails:\n\n    {email_content}\n")
	}
	WriteFile(t, cfg.Paths.PromptsPath, b.String())
}

// WriteFile writes content at path, creating parent directories.
func WriteFile(t testing.TB, path, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("create fixture dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture %s: %v", path, err)
	}
}
