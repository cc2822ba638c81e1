package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mailscout/internal/mail"
)

func newAuthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "auth",
		Short: "Authorize Gmail access and cache the OAuth token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := mail.Authorize(cmd.Context(), cfg.GmailCredentialsPath(), cfg.GmailTokenPath(), cmd.InOrStdin(), cmd.OutOrStdout()); err != nil {
				return fmt.Errorf("gmail authorization: %w", err)
			}
			return nil
		},
	}
}
