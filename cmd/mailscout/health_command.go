package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mailscout/internal/api"
	"mailscout/internal/preflight"
)

func newHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check daemon component health, or run local checks when the daemon is offline",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)

			client, err := ctx.dialClient()
			if err != nil {
				return err
			}
			status, err := client.DaemonStatus(cmd.Context())
			if err == nil {
				if ctx.jsonMode() {
					return writeJSON(cmd, status.Components)
				}
				for _, line := range renderSectionHeader("Component Health", colorize) {
					fmt.Fprintln(stdout, line)
				}
				for _, line := range componentLines(status.Components, colorize) {
					fmt.Fprintln(stdout, line)
				}
				return nil
			}
			if !api.IsDaemonUnavailable(err) {
				return err
			}

			// Daemon down: run the offline startup checks locally instead.
			cfg, cfgErr := ctx.ensureConfig()
			if cfgErr != nil {
				return cfgErr
			}
			results := preflight.RunAll(cfg)
			if ctx.jsonMode() {
				return writeJSON(cmd, results)
			}
			for _, line := range renderSectionHeader("Startup Checks (daemon offline)", colorize) {
				fmt.Fprintln(stdout, line)
			}
			for _, result := range results {
				kind := statusOK
				if !result.Passed {
					kind = statusWarn
					if result.Fatal {
						kind = statusError
					}
				}
				fmt.Fprintln(stdout, renderStatusLine(result.Name, kind, result.Detail, colorize))
			}
			return nil
		},
	}
}
