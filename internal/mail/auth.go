package mail

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmailv1 "google.golang.org/api/gmail/v1"

	"mailscout/internal/services"
)

const authRedirectWait = 120 * time.Second

func loadOAuthConfig(credentialsPath string) (*oauth2.Config, error) {
	data, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "gmail", "credentials",
			fmt.Sprintf("read client credentials at %s", credentialsPath), err)
	}
	cfg, err := google.ConfigFromJSON(data, gmailv1.GmailReadonlyScope)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "gmail", "credentials",
			"parse oauth client config", err)
	}
	return cfg, nil
}

func tokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var token oauth2.Token
	if err := json.NewDecoder(f).Decode(&token); err != nil {
		return nil, fmt.Errorf("decode token at %s: %w", path, err)
	}
	return &token, nil
}

// saveToken writes through a temp file so a crash cannot leave a
// truncated token behind. Tokens are credentials, hence 0600.
func saveToken(path string, token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if err := json.NewEncoder(f).Encode(token); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

// Authorize runs the OAuth consent flow and caches the resulting token.
// It tries a loopback redirect first and falls back to manual paste of
// the code or the full redirect URL.
func Authorize(ctx context.Context, credentialsPath, tokenPath string, in io.Reader, out io.Writer) error {
	cfg, err := loadOAuthConfig(credentialsPath)
	if err != nil {
		return err
	}
	token, err := tokenFromConsent(ctx, cfg, in, out)
	if err != nil {
		return err
	}
	if err := saveToken(tokenPath, token); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	fmt.Fprintf(out, "Token saved to %s\n", tokenPath)
	return nil
}

func tokenFromConsent(ctx context.Context, cfg *oauth2.Config, in io.Reader, out io.Writer) (*oauth2.Token, error) {
	if code, ok := codeFromLoopback(ctx, cfg, out); ok {
		return exchangeCode(ctx, cfg, code)
	}

	authURL := cfg.AuthCodeURL("state-token", oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	fmt.Fprintln(out, "Open this URL in your browser to authorize mailscout:")
	fmt.Fprintln(out, authURL)
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Paste the authorization code or the full redirect URL, then press Enter.")
	fmt.Fprint(out, "> ")

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 1024), 1024*1024)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read authorization code: %w", err)
		}
		return nil, errors.New("empty authorization code")
	}
	code, err := authCodeFromInput(scanner.Text())
	if err != nil {
		return nil, err
	}
	return exchangeCode(ctx, cfg, code)
}

// codeFromLoopback serves a one-shot redirect target on a random
// localhost port. Returns false when the listener cannot start or the
// redirect never arrives, so the caller falls back to manual paste.
func codeFromLoopback(ctx context.Context, cfg *oauth2.Config, out io.Writer) (string, bool) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", false
	}
	port := ln.Addr().(*net.TCPAddr).Port
	oldRedirect := cfg.RedirectURL
	cfg.RedirectURL = fmt.Sprintf("http://127.0.0.1:%d/", port)

	codeCh := make(chan string, 1)
	mux := http.NewServeMux()
	srv := &http.Server{ReadHeaderTimeout: 5 * time.Second, Handler: mux}
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "Missing 'code' parameter", http.StatusBadRequest)
			return
		}
		fmt.Fprintln(w, "Authorization complete. You can close this window.")
		select {
		case codeCh <- code:
		default:
		}
		go func() { _ = srv.Shutdown(context.Background()) }()
	})
	go func() { _ = srv.Serve(ln) }()

	authURL := cfg.AuthCodeURL("state-token", oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	fmt.Fprintln(out, "Open this URL in your browser to authorize mailscout:")
	fmt.Fprintln(out, authURL)
	fmt.Fprintf(out, "Waiting for redirect on %s ...\n", cfg.RedirectURL)

	select {
	case <-ctx.Done():
		_ = srv.Shutdown(context.Background())
		cfg.RedirectURL = oldRedirect
		return "", false
	case code := <-codeCh:
		return code, true
	case <-time.After(authRedirectWait):
		_ = srv.Shutdown(context.Background())
		cfg.RedirectURL = oldRedirect
		fmt.Fprintln(out, "Timed out waiting for redirect; falling back to manual paste.")
		return "", false
	}
}

// authCodeFromInput accepts either the bare code or the full redirect
// URL the browser landed on.
func authCodeFromInput(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", errors.New("empty authorization code")
	}
	if strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://") {
		u, err := url.Parse(input)
		if err != nil {
			return "", fmt.Errorf("parse redirect URL: %w", err)
		}
		code := u.Query().Get("code")
		if code == "" {
			return "", errors.New("no 'code' parameter in pasted URL")
		}
		return code, nil
	}
	return input, nil
}

func exchangeCode(ctx context.Context, cfg *oauth2.Config, code string) (*oauth2.Token, error) {
	token, err := cfg.Exchange(ctx, strings.TrimSpace(code))
	if err != nil {
		return nil, fmt.Errorf("token exchange: %w", err)
	}
	return token, nil
}
