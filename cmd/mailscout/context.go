package main

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"mailscout/internal/api"
	"mailscout/internal/config"
)

type commandContext struct {
	configFlag *string
	jsonFlag   *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string, jsonFlag *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		jsonFlag:   jsonFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

func (c *commandContext) jsonMode() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

func (c *commandContext) apiBind() string {
	cfg := c.configValue()
	if cfg == nil {
		return ""
	}
	return cfg.Paths.APIBind
}

// withClient runs fn against the daemon API and rewrites transport failures
// into actionable guidance.
func (c *commandContext) withClient(fn func(*api.Client) error) error {
	client, err := c.dialClient()
	if err != nil {
		return err
	}
	if err := fn(client); err != nil {
		return describeDaemonError(err, c.apiBind())
	}
	return nil
}

func (c *commandContext) dialClient() (*api.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	client, err := api.NewClient(cfg.Paths.APIBind)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, fmt.Errorf("daemon api bind is not configured; set paths.api_bind in the config file")
	}
	return client, nil
}

func describeDaemonError(err error, bind string) error {
	if api.IsDaemonUnavailable(err) {
		return fmt.Errorf("daemon not reachable at %s; start it with `mailscout daemon start`", bind)
	}
	return err
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
