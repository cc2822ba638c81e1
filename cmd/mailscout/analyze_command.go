package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mailscout/internal/api"
)

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var emailLimit int
	var batchSize int
	var watch bool
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "analyze <sender-id>",
		Short: "Start a mailbox analysis run for a configured sender",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			senderID := strings.TrimSpace(args[0])
			return ctx.withClient(func(client *api.Client) error {
				resp, err := client.Analyze(cmd.Context(), api.AnalyzeRequest{
					SenderID:   senderID,
					EmailLimit: emailLimit,
					BatchSize:  batchSize,
				})
				if err != nil {
					return err
				}
				if ctx.jsonMode() {
					return writeJSON(cmd, resp)
				}
				stdout := cmd.OutOrStdout()
				fmt.Fprintf(stdout, "Analysis started for %s\n", senderID)
				fmt.Fprintf(stdout, "Task ID: %s\n", resp.TaskID)
				if watch {
					return runWatchView(cmd, client, resp.TaskID, interval)
				}
				fmt.Fprintf(stdout, "Track progress with `mailscout status %s`\n", resp.TaskID)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&emailLimit, "limit", 0, "Number of recent emails to analyze (0 uses the configured default)")
	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "Messages per analysis batch (0 uses the configured default)")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Watch task progress until it finishes")
	cmd.Flags().DurationVar(&interval, "interval", 15*time.Second, "Poll interval for --watch")
	return cmd
}
