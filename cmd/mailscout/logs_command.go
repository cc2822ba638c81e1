package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mailscout/internal/api"
	"mailscout/internal/config"
	"mailscout/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var follow bool
	var lines int
	var component string
	var taskID string
	var level string

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Display daemon logs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			err = streamLogsFromAPI(cmd, ctx, lines, follow, component, taskID, level)
			if err == nil || errors.Is(err, context.Canceled) {
				return nil
			}
			if !api.IsDaemonUnavailable(err) {
				return err
			}

			// Daemon offline: read the current run's log file directly.
			return tailLogFile(cmd, cfg, lines, follow)
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Follow log output")
	cmd.Flags().IntVarP(&lines, "lines", "n", 10, "Number of recent entries to show (0 for all)")
	cmd.Flags().StringVar(&component, "component", "", "Only show events from one component")
	cmd.Flags().StringVar(&taskID, "task", "", "Only show events for one task id")
	cmd.Flags().StringVar(&level, "level", "", "Minimum level (debug, info, warn, error)")
	return cmd
}

func streamLogsFromAPI(cmd *cobra.Command, ctx *commandContext, lines int, follow bool, component, taskID, level string) error {
	client, err := ctx.dialClient()
	if err != nil {
		return err
	}

	query := api.LogQuery{
		Limit:     lines,
		Tail:      true,
		Component: component,
		TaskID:    taskID,
		Level:     level,
	}
	if query.Limit <= 0 {
		query.Limit = 200
	}

	printed := false
	for {
		resp, err := client.Logs(cmd.Context(), query)
		if err != nil {
			return err
		}
		for _, evt := range resp.Events {
			fmt.Fprintln(cmd.OutOrStdout(), formatLogEvent(evt))
			printed = true
		}
		if !follow {
			if !printed {
				fmt.Fprintln(cmd.OutOrStdout(), "No log entries available")
			}
			return nil
		}
		query.Since = resp.Next
		query.Limit = 200
		query.Tail = false
		query.Follow = true
	}
}

func tailLogFile(cmd *cobra.Command, cfg *config.Config, lines int, follow bool) error {
	logPath := filepath.Join(cfg.Paths.LogDir, "mailscoutd.log")

	offset := int64(-1)
	limit := lines
	if limit < 0 {
		limit = 0
	}
	if limit == 0 {
		offset = 0
	}

	printed := false
	for {
		result, err := logs.Tail(cmd.Context(), logPath, logs.TailOptions{
			Offset: offset,
			Limit:  limit,
			Follow: follow,
			Wait:   time.Second,
		})
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("tail logs: %w", err)
		}
		for _, line := range result.Lines {
			fmt.Fprintln(cmd.OutOrStdout(), line)
			printed = true
		}
		offset = result.Offset
		limit = 0
		if !follow {
			if !printed {
				fmt.Fprintln(cmd.OutOrStdout(), "No log entries available")
			}
			return nil
		}
		select {
		case <-cmd.Context().Done():
			return nil
		default:
		}
	}
}

func formatLogEvent(evt api.LogEvent) string {
	ts := evt.Timestamp
	if parsed := parseAPITime(evt.Timestamp); !parsed.IsZero() {
		ts = parsed.Format("2006-01-02 15:04:05")
	}
	level := strings.ToUpper(strings.TrimSpace(evt.Level))
	if level == "" {
		level = "INFO"
	}
	parts := []string{ts, level}
	if component := strings.TrimSpace(evt.Component); component != "" {
		parts = append(parts, fmt.Sprintf("[%s]", component))
	}
	line := strings.Join(parts, " ")
	if subject := composeLogSubject(evt.TaskID, evt.Stage); subject != "" {
		line += " " + subject
	}
	if message := strings.TrimSpace(evt.Message); message != "" {
		line += " – " + message
	}
	if len(evt.Details) == 0 {
		return line
	}
	builder := strings.Builder{}
	builder.WriteString(line)
	for _, detail := range evt.Details {
		if strings.TrimSpace(detail.Label) == "" || strings.TrimSpace(detail.Value) == "" {
			continue
		}
		builder.WriteString("\n    - ")
		builder.WriteString(detail.Label)
		builder.WriteString(": ")
		builder.WriteString(detail.Value)
	}
	return builder.String()
}

func composeLogSubject(taskID, stage string) string {
	taskID = strings.TrimSpace(taskID)
	stage = strings.TrimSpace(stage)
	switch {
	case taskID != "" && stage != "":
		return fmt.Sprintf("Task %s (%s)", taskID, stage)
	case taskID != "":
		return fmt.Sprintf("Task %s", taskID)
	case stage != "":
		return fmt.Sprintf("(%s)", stage)
	default:
		return ""
	}
}
