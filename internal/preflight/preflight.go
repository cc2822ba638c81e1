package preflight

import (
	"fmt"
	"strings"

	"mailscout/internal/config"
	"mailscout/internal/services"
)

// Result reports the outcome of a single preflight check. Fatal marks
// checks the daemon cannot start without; non-fatal failures only warn.
type Result struct {
	Name   string
	Passed bool
	Fatal  bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// Checks are only run when the corresponding feature is enabled. Every
// check is offline; live connectivity belongs to the health endpoint.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	// Log directory (always checked, holds lock and pid files too)
	results = append(results, fatal(CheckDirectoryAccess("Log directory", cfg.Paths.LogDir)))

	if cfg.Analysis.ArtifactsEnabled {
		results = append(results, CheckDirectoryAccess("Artifacts directory", cfg.Paths.ArtifactsDir))
	}
	if cfg.Gmail.CacheEnabled {
		results = append(results, CheckDirectoryAccess("Cache directory", cfg.Paths.CacheDir))
	}

	results = append(results, fatal(CheckCredentialsFile(cfg)))
	results = append(results, fatal(CheckGmailToken(cfg)))
	results = append(results, fatal(CheckAPIKey("Analysis model key", cfg.AnalysisLLM())))

	// Parse step degrades to raw markdown without a key, so never fatal.
	results = append(results, CheckAPIKey("Parse model key", cfg.ParseLLM()))

	results = append(results, fatal(CheckPrompts(cfg)))

	return results
}

// FatalError condenses fatal failures into a single startup-aborting
// error, or nil when the daemon may proceed.
func FatalError(results []Result) error {
	var failed []string
	for _, result := range results {
		if result.Fatal && !result.Passed {
			failed = append(failed, fmt.Sprintf("%s: %s", result.Name, result.Detail))
		}
	}
	if len(failed) == 0 {
		return nil
	}
	return services.Wrap(services.ErrConfiguration, "preflight", "startup",
		strings.Join(failed, "; "), nil)
}

func fatal(result Result) Result {
	result.Fatal = true
	return result
}
