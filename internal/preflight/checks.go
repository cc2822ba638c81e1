package preflight

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"mailscout/internal/config"
	"mailscout/internal/senders"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckCredentialsFile verifies the Gmail OAuth client secret is in place.
func CheckCredentialsFile(cfg *config.Config) Result {
	const name = "Gmail credentials"

	path := cfg.GmailCredentialsPath()
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s missing (download the OAuth client secret from Google Cloud Console)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s is a directory, expected a client secret file", path)}
	}
	if err := unix.Access(path, unix.R_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not readable: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: path}
}

// CheckGmailToken verifies a cached OAuth token exists for the mailbox.
func CheckGmailToken(cfg *config.Config) Result {
	const name = "Gmail token"

	path := cfg.GmailTokenPath()
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s missing (run 'mailscout auth' to authorize)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s is a directory, expected a token file", path)}
	}
	return Result{Name: name, Passed: true, Detail: path}
}

// CheckAPIKey verifies a provider key is configured. Presence only; the
// key is not validated against the provider here.
func CheckAPIKey(name string, settings config.LLMSettings) Result {
	if settings.APIKey == "" {
		return Result{Name: name, Detail: fmt.Sprintf("API key missing for %s", settings.Name)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s key configured", settings.Name)}
}

// CheckPrompts verifies the prompts file parses and every configured
// sender resolves to a template.
func CheckPrompts(cfg *config.Config) Result {
	const name = "Prompt templates"

	if _, err := senders.NewRegistry(cfg); err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d senders)", cfg.Paths.PromptsPath, len(cfg.Senders))}
}
