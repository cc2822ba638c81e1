package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"mailscout/internal/api"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "watch <task-id>",
		Short: "Watch an analysis task until it finishes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *api.Client) error {
				return runWatchView(cmd, client, strings.TrimSpace(args[0]), interval)
			})
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 15*time.Second, "Poll interval between status checks")
	return cmd
}

// runWatchView drives the live poll view until the task reaches a terminal
// status, the user quits, or a poll fails.
func runWatchView(cmd *cobra.Command, client *api.Client, taskID string, interval time.Duration) error {
	if interval <= 0 {
		interval = 15 * time.Second
	}

	program := tea.NewProgram(
		newWatchModel(cmd.Context(), client, taskID, interval),
		tea.WithContext(cmd.Context()),
		tea.WithInput(cmd.InOrStdin()),
		tea.WithOutput(cmd.OutOrStdout()),
	)

	final, err := program.Run()
	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) || errors.Is(err, tea.ErrInterrupted) || errors.Is(err, context.Canceled) {
			return nil
		}
		return fmt.Errorf("watch task: %w", err)
	}

	model, ok := final.(watchModel)
	if !ok {
		return nil
	}
	if model.pollErr != nil {
		return model.pollErr
	}
	if model.loaded && model.task.Status == "completed" {
		fmt.Fprintf(cmd.OutOrStdout(), "Full results: mailscout status %s\n", taskID)
	}
	return nil
}

type watchPollResultMsg struct {
	task api.Task
	err  error
}

type watchPollTickMsg struct{}

type watchModel struct {
	ctx      context.Context
	client   *api.Client
	taskID   string
	interval time.Duration

	spinner spinner.Model
	task    api.Task
	loaded  bool
	pollErr error
}

func newWatchModel(ctx context.Context, client *api.Client, taskID string, interval time.Duration) watchModel {
	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	return watchModel{
		ctx:      ctx,
		client:   client,
		taskID:   taskID,
		interval: interval,
		spinner:  sp,
	}
}

func (m watchModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.pollTask())
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		}
		return m, nil

	case watchPollResultMsg:
		if msg.err != nil {
			m.pollErr = msg.err
			return m, tea.Quit
		}
		m.task = msg.task
		m.loaded = true
		if taskStatusTerminal(m.task.Status) {
			return m, tea.Quit
		}
		return m, m.scheduleNextPoll()

	case watchPollTickMsg:
		return m, m.pollTask()

	default:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
}

func (m watchModel) View() string {
	if m.pollErr != nil {
		return fmt.Sprintf("Watch stopped: %v\n", m.pollErr)
	}
	if !m.loaded {
		return fmt.Sprintf("%s Fetching task %s...\n", m.spinner.View(), m.taskID)
	}

	builder := strings.Builder{}
	if taskStatusTerminal(m.task.Status) {
		fmt.Fprintf(&builder, "Task %s %s\n", m.task.TaskID, m.task.Status)
	} else {
		fmt.Fprintf(&builder, "%s Watching task %s (q to quit)\n", m.spinner.View(), m.task.TaskID)
	}
	fmt.Fprintf(&builder, "  Sender:    %s\n", m.task.SenderID)
	fmt.Fprintf(&builder, "  Status:    %s\n", formatStatusLabel(m.task.Status))
	if progress := strings.TrimSpace(m.task.Progress); progress != "" {
		fmt.Fprintf(&builder, "  Progress:  %s batches\n", progress)
	}
	fmt.Fprintf(&builder, "  Results:   %d\n", m.task.ResultCount)
	if updated := formatDisplayTime(m.task.UpdatedAt); updated != "" {
		fmt.Fprintf(&builder, "  Updated:   %s\n", updated)
	}
	if m.task.Error != "" {
		fmt.Fprintf(&builder, "  Error:     %s\n", m.task.Error)
	}
	return builder.String()
}

func (m watchModel) pollTask() tea.Cmd {
	return func() tea.Msg {
		task, err := m.client.TaskStatus(m.ctx, m.taskID)
		return watchPollResultMsg{task: task, err: err}
	}
}

func (m watchModel) scheduleNextPoll() tea.Cmd {
	return tea.Tick(m.interval, func(time.Time) tea.Msg {
		return watchPollTickMsg{}
	})
}

func taskStatusTerminal(status string) bool {
	return status == "completed" || status == "failed"
}
