package senders

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Template is one system/user prompt pair from the prompts file.
type Template struct {
	SystemPrompt string `yaml:"system_prompt"`
	UserPrompt   string `yaml:"user_prompt"`
}

// EmailContentPlaceholder is replaced verbatim with the rendered batch text
// when building a user prompt.
const EmailContentPlaceholder = "{email_content}"

// LoadPrompts reads a YAML file mapping prompt keys to templates.
func LoadPrompts(path string) (map[string]Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompts file: %w", err)
	}
	prompts := make(map[string]Template)
	if err := yaml.Unmarshal(data, &prompts); err != nil {
		return nil, fmt.Errorf("parse prompts file %s: %w", path, err)
	}
	return prompts, nil
}
