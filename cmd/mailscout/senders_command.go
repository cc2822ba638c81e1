package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mailscout/internal/api"
	"mailscout/internal/senders"
)

func newSendersCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "senders",
		Short: "List the configured mailbox senders",
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := loadSenders(cmd, ctx)
			if err != nil {
				return err
			}
			if ctx.jsonMode() {
				return writeJSON(cmd, api.SendersResponse{Senders: items})
			}
			if len(items) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No senders configured")
				return nil
			}
			table := renderTable(
				[]string{"ID", "Name", "Email", "Volume", "Prompt"},
				buildSenderRows(items),
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
			)
			fmt.Fprintln(cmd.OutOrStdout(), table)
			return nil
		},
	}
}

// loadSenders asks the daemon first and falls back to the local config when
// no daemon is running, since the roster is static configuration.
func loadSenders(cmd *cobra.Command, ctx *commandContext) ([]api.Sender, error) {
	var items []api.Sender
	err := ctx.withClient(func(client *api.Client) error {
		fetched, err := client.Senders(cmd.Context())
		if err != nil {
			return err
		}
		items = fetched
		return nil
	})
	if err == nil {
		return items, nil
	}

	cfg, cfgErr := ctx.ensureConfig()
	if cfgErr != nil {
		return nil, err
	}
	registry, regErr := senders.NewRegistry(cfg)
	if regErr != nil {
		return nil, err
	}
	return api.FromSenders(registry.All()), nil
}
