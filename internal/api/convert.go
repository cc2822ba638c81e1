package api

import (
	"mailscout/internal/logging"
	"mailscout/internal/senders"
	"mailscout/internal/services"
	"mailscout/internal/tasks"
)

// FromTask converts a task snapshot to its API representation.
func FromTask(task *tasks.Task) Task {
	if task == nil {
		return Task{}
	}

	dto := Task{
		TaskID:       task.ID,
		SenderID:     task.SenderID,
		Status:       string(task.Status),
		Progress:     task.Progress,
		EmailLimit:   task.EmailLimit,
		BatchSize:    task.BatchSize,
		TotalBatches: task.TotalBatches,
		ResultCount:  task.ResultCount,
		Error:        task.Error,
	}
	if len(task.Results) > 0 {
		dto.Results = make([]BatchResult, 0, len(task.Results))
		for _, result := range task.Results {
			dto.Results = append(dto.Results, FromBatchResult(result))
		}
	}
	if !task.CreatedAt.IsZero() {
		dto.CreatedAt = task.CreatedAt.UTC().Format(dateTimeFormat)
	}
	if !task.UpdatedAt.IsZero() {
		dto.UpdatedAt = task.UpdatedAt.UTC().Format(dateTimeFormat)
	}
	return dto
}

// FromTasks converts a slice of task snapshots into API DTOs.
func FromTasks(items []*tasks.Task) []Task {
	if len(items) == 0 {
		return nil
	}
	out := make([]Task, 0, len(items))
	for _, item := range items {
		out = append(out, FromTask(item))
	}
	return out
}

// FromBatchResult converts one batch outcome to its API representation.
func FromBatchResult(result tasks.BatchResult) BatchResult {
	dto := BatchResult{
		BatchNumber:        result.BatchNumber,
		TotalBatches:       result.TotalBatches,
		MessagesInBatch:    result.MessagesInBatch,
		ThreadCountInBatch: result.ThreadCountInBatch,
		Analysis:           result.Analysis,
		RawMarkdown:        result.RawMarkdown,
		Error:              result.Error,
	}
	if !result.ProcessedAt.IsZero() {
		dto.ProcessedAt = result.ProcessedAt.UTC().Format(dateTimeFormat)
	}
	if len(result.OriginalEmails) > 0 {
		dto.OriginalEmails = make([]OriginalEmail, 0, len(result.OriginalEmails))
		for _, email := range result.OriginalEmails {
			dto.OriginalEmails = append(dto.OriginalEmails, OriginalEmail{
				Subject:       email.Subject,
				From:          email.From,
				ThreadID:      email.ThreadID,
				MessageNumber: email.MessageNumber,
				TotalInThread: email.TotalInThread,
				Body:          email.Body,
				Date:          email.Date,
			})
		}
	}
	return dto
}

// FromSender converts a sender record to its API representation.
func FromSender(sender senders.Sender) Sender {
	return Sender{
		ID:             sender.ID,
		Name:           sender.Name,
		Email:          sender.Email,
		Description:    sender.Description,
		ExpectedVolume: sender.ExpectedVolume,
		PromptKey:      sender.PromptKey,
	}
}

// FromSenders converts sender records into API DTOs.
func FromSenders(items []senders.Sender) []Sender {
	if len(items) == 0 {
		return nil
	}
	out := make([]Sender, 0, len(items))
	for _, item := range items {
		out = append(out, FromSender(item))
	}
	return out
}

// FromHealth converts component health records into API DTOs.
func FromHealth(items []services.Health) []ComponentHealth {
	if len(items) == 0 {
		return nil
	}
	out := make([]ComponentHealth, 0, len(items))
	for _, item := range items {
		out = append(out, ComponentHealth{
			Name:   item.Name,
			Ready:  item.Ready,
			Detail: item.Detail,
		})
	}
	return out
}

// FromTaskStats converts store status counts into string-keyed counts.
func FromTaskStats(stats map[tasks.Status]int) map[string]int {
	out := make(map[string]int, len(stats))
	for status, count := range stats {
		out[string(status)] = count
	}
	return out
}

// FromLogEvents converts streamed log events into API DTOs.
func FromLogEvents(events []logging.LogEvent) []LogEvent {
	if len(events) == 0 {
		return nil
	}
	out := make([]LogEvent, 0, len(events))
	for _, evt := range events {
		dto := LogEvent{
			Sequence:  evt.Sequence,
			Level:     evt.Level,
			Message:   evt.Message,
			Component: evt.Component,
			Stage:     evt.Stage,
			TaskID:    evt.TaskID,
			SenderID:  evt.SenderID,
			Batch:     evt.Batch,
			Fields:    evt.Fields,
		}
		if !evt.Timestamp.IsZero() {
			dto.Timestamp = evt.Timestamp.UTC().Format(dateTimeFormat)
		}
		if len(evt.Details) > 0 {
			dto.Details = make([]DetailField, 0, len(evt.Details))
			for _, detail := range evt.Details {
				dto.Details = append(dto.Details, DetailField{Label: detail.Label, Value: detail.Value})
			}
		}
		out = append(out, dto)
	}
	return out
}
