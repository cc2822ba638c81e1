package senders

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"mailscout/internal/config"
)

// Sender describes one configured mail source.
type Sender struct {
	ID             string
	Name           string
	Email          string
	Description    string
	ExpectedVolume string
	PromptKey      string
}

// Registry resolves sender identifiers and their prompt templates. It is
// built once at startup and read-only afterwards.
type Registry struct {
	senders []Sender
	byID    map[string]Sender
	prompts map[string]Template
}

// NewRegistry builds the sender roster from configuration and verifies that
// every sender's prompt key resolves against the prompts file. An empty
// roster needs no prompts file.
func NewRegistry(cfg *config.Config) (*Registry, error) {
	reg := &Registry{
		byID:    make(map[string]Sender, len(cfg.Senders)),
		prompts: make(map[string]Template),
	}

	if len(cfg.Senders) > 0 {
		prompts, err := LoadPrompts(cfg.Paths.PromptsPath)
		if err != nil {
			return nil, err
		}
		reg.prompts = prompts
	}

	for _, entry := range cfg.Senders {
		sender := Sender{
			ID:             entry.ID,
			Name:           entry.Name,
			Email:          entry.Email,
			Description:    entry.Description,
			ExpectedVolume: entry.ExpectedVolume,
			PromptKey:      entry.PromptKey,
		}
		if sender.Name == "" {
			sender.Name = displayName(sender.ID)
		}
		if sender.PromptKey == "" {
			return nil, fmt.Errorf("sender %q: prompt_key must be set", sender.ID)
		}
		if _, ok := reg.prompts[sender.PromptKey]; !ok {
			return nil, fmt.Errorf("sender %q: prompt key %q not found (available: %s)", sender.ID, sender.PromptKey, strings.Join(reg.promptKeys(), ", "))
		}
		reg.senders = append(reg.senders, sender)
		reg.byID[sender.ID] = sender
	}

	return reg, nil
}

// Lookup returns the sender registered under id.
func (r *Registry) Lookup(id string) (Sender, bool) {
	sender, ok := r.byID[id]
	return sender, ok
}

// All returns the senders in configuration order.
func (r *Registry) All() []Sender {
	out := make([]Sender, len(r.senders))
	copy(out, r.senders)
	return out
}

// Count returns how many senders are registered.
func (r *Registry) Count() int {
	return len(r.senders)
}

// Prompt returns the template registered under key.
func (r *Registry) Prompt(key string) (Template, error) {
	tmpl, ok := r.prompts[key]
	if !ok {
		return Template{}, fmt.Errorf("prompt key %q not found (available: %s)", key, strings.Join(r.promptKeys(), ", "))
	}
	return tmpl, nil
}

// RenderUser resolves the template under key and substitutes the email
// content placeholder verbatim.
func (r *Registry) RenderUser(key, emailContent string) (string, error) {
	tmpl, err := r.Prompt(key)
	if err != nil {
		return "", err
	}
	return strings.ReplaceAll(tmpl.UserPrompt, EmailContentPlaceholder, emailContent), nil
}

func (r *Registry) promptKeys() []string {
	keys := make([]string, 0, len(r.prompts))
	for key := range r.prompts {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func displayName(id string) string {
	cleaned := strings.Builder{}
	prevSpace := false
	for _, r := range id {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			cleaned.WriteRune(r)
			prevSpace = false
		case unicode.IsSpace(r) || r == '-' || r == '_' || r == '.':
			if !prevSpace {
				cleaned.WriteRune(' ')
				prevSpace = true
			}
		}
	}
	name := strings.TrimSpace(cleaned.String())
	if name == "" {
		return id
	}
	return cases.Title(language.Und).String(name)
}
