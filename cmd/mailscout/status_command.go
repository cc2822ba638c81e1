package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"mailscout/internal/api"
	"mailscout/internal/sections"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var showEmails bool

	cmd := &cobra.Command{
		Use:   "status <task-id>",
		Short: "Show the full status and results of an analysis task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID := strings.TrimSpace(args[0])
			return ctx.withClient(func(client *api.Client) error {
				task, err := client.TaskStatus(cmd.Context(), taskID)
				if err != nil {
					return err
				}
				if ctx.jsonMode() {
					return writeJSON(cmd, task)
				}
				printTask(cmd, task, showEmails)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&showEmails, "emails", false, "Include the original source emails for each batch")
	return cmd
}

func printTask(cmd *cobra.Command, task api.Task, showEmails bool) {
	stdout := cmd.OutOrStdout()
	colorize := shouldColorize(stdout)

	for _, line := range renderSectionHeader("Task "+task.TaskID, colorize) {
		fmt.Fprintln(stdout, line)
	}
	fmt.Fprintln(stdout, renderStatusLine("Sender", statusInfo, task.SenderID, colorize))
	fmt.Fprintln(stdout, renderStatusLine("Status", taskStatusKind(task.Status), formatStatusLabel(task.Status), colorize))
	fmt.Fprintln(stdout, renderStatusLine("Progress", statusInfo, task.Progress, colorize))
	fmt.Fprintln(stdout, renderStatusLine("Email limit", statusInfo, fmt.Sprintf("%d (batches of %d)", task.EmailLimit, task.BatchSize), colorize))
	if task.CreatedAt != "" {
		fmt.Fprintln(stdout, renderStatusLine("Created", statusInfo, formatDisplayTime(task.CreatedAt), colorize))
	}
	if task.UpdatedAt != "" {
		fmt.Fprintln(stdout, renderStatusLine("Updated", statusInfo, formatDisplayTime(task.UpdatedAt), colorize))
	}
	if task.Error != "" {
		fmt.Fprintln(stdout, renderStatusLine("Error", statusError, task.Error, colorize))
	}

	for _, result := range task.Results {
		fmt.Fprintln(stdout)
		printBatchResult(cmd, result, colorize, showEmails)
	}
}

func printBatchResult(cmd *cobra.Command, result api.BatchResult, colorize, showEmails bool) {
	stdout := cmd.OutOrStdout()
	title := fmt.Sprintf("Batch %d/%d", result.BatchNumber, result.TotalBatches)
	for _, line := range renderSectionHeader(title, colorize) {
		fmt.Fprintln(stdout, line)
	}
	fmt.Fprintln(stdout, renderStatusLine("Messages", statusInfo, fmt.Sprintf("%d (%d threads)", result.MessagesInBatch, result.ThreadCountInBatch), colorize))
	if result.ProcessedAt != "" {
		fmt.Fprintln(stdout, renderStatusLine("Processed", statusInfo, formatDisplayTime(result.ProcessedAt), colorize))
	}
	if result.Error != "" {
		fmt.Fprintln(stdout, renderStatusLine("Result", statusError, result.Error, colorize))
		return
	}

	parsed := sections.ParseAnalysis(result.Analysis)
	if len(parsed) == 0 && strings.TrimSpace(result.RawMarkdown) != "" {
		parsed = sections.ParseAnalysis(result.RawMarkdown)
	}
	for _, section := range parsed {
		fmt.Fprintf(stdout, "%s%s\n", statusIndent, section.Title)
		for _, item := range section.Items {
			fmt.Fprintf(stdout, "%s%s- %s\n", statusIndent, statusIndent, formatSectionItem(item))
		}
	}
	if len(parsed) == 0 {
		fmt.Fprintln(stdout, renderStatusLine("Result", statusWarn, "no parseable sections in analysis output", colorize))
	}

	if showEmails && len(result.OriginalEmails) > 0 {
		fmt.Fprintf(stdout, "%sSource emails:\n", statusIndent)
		for _, email := range result.OriginalEmails {
			fmt.Fprintf(stdout, "%s%s- %s (%s, message %d/%d)\n",
				statusIndent, statusIndent, email.Subject, email.From, email.MessageNumber, email.TotalInThread)
		}
	}
}

func formatSectionItem(item sections.Item) string {
	switch {
	case item.Number != "":
		if item.Link != "" {
			return fmt.Sprintf("%s. %s - %s", item.Number, item.Title, item.Link)
		}
		return fmt.Sprintf("%s. %s", item.Number, item.Title)
	case item.Key != "":
		return fmt.Sprintf("%s: %s", item.Key, item.Value)
	default:
		return item.Text
	}
}

func taskStatusKind(status string) statusKind {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "completed":
		return statusOK
	case "failed":
		return statusError
	case "processing":
		return statusInfo
	default:
		return statusWarn
	}
}
