package mail

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"mailscout/internal/services"
)

func TestAuthCodeFromInput(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "bare code", input: "4/0AbCdEf", want: "4/0AbCdEf"},
		{name: "padded code", input: "  4/0AbCdEf \n", want: "4/0AbCdEf"},
		{name: "redirect url", input: "http://127.0.0.1:8123/?state=state-token&code=4%2F0AbCdEf&scope=x", want: "4/0AbCdEf"},
		{name: "url without code", input: "http://127.0.0.1:8123/?state=state-token", wantErr: true},
		{name: "empty", input: "   ", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := authCodeFromInput(tc.input)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("authCodeFromInput: %v", err)
			}
			if got != tc.want {
				t.Fatalf("authCodeFromInput = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestTokenSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens", "gmail.json")
	token := &oauth2.Token{
		AccessToken:  "access",
		RefreshToken: "refresh",
		TokenType:    "Bearer",
		Expiry:       time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}

	if err := saveToken(path, token); err != nil {
		t.Fatalf("saveToken: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat token: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("token mode = %o, want 600", perm)
	}

	got, err := tokenFromFile(path)
	if err != nil {
		t.Fatalf("tokenFromFile: %v", err)
	}
	if got.AccessToken != token.AccessToken || got.RefreshToken != token.RefreshToken {
		t.Fatalf("token = %+v, want %+v", got, token)
	}
	if !got.Expiry.Equal(token.Expiry) {
		t.Fatalf("Expiry = %v, want %v", got.Expiry, token.Expiry)
	}
}

func TestTokenFromFileMissing(t *testing.T) {
	if _, err := tokenFromFile(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected error for missing token file")
	}
}

func TestLoadOAuthConfigMissingCredentials(t *testing.T) {
	_, err := loadOAuthConfig(filepath.Join(t.TempDir(), "credentials.json"))
	if err == nil {
		t.Fatal("expected error for missing credentials")
	}
	if !services.FatalToTask(err) {
		t.Fatalf("missing credentials should be a configuration error: %v", err)
	}
}

func TestLoadOAuthConfigParsesInstalledApp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	const creds = `{"installed":{"client_id":"id.apps.googleusercontent.com","client_secret":"secret","auth_uri":"https://accounts.google.com/o/oauth2/auth","token_uri":"https://oauth2.googleapis.com/token","redirect_uris":["http://localhost"]}}`
	if err := os.WriteFile(path, []byte(creds), 0o600); err != nil {
		t.Fatalf("write credentials: %v", err)
	}

	cfg, err := loadOAuthConfig(path)
	if err != nil {
		t.Fatalf("loadOAuthConfig: %v", err)
	}
	if cfg.ClientID != "id.apps.googleusercontent.com" {
		t.Fatalf("ClientID = %q", cfg.ClientID)
	}
	if len(cfg.Scopes) != 1 || cfg.Scopes[0] != "https://www.googleapis.com/auth/gmail.readonly" {
		t.Fatalf("Scopes = %v, want readonly scope", cfg.Scopes)
	}
}
