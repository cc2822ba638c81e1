package workflow

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"mailscout/internal/logging"
	"mailscout/internal/mail"
	"mailscout/internal/senders"
	"mailscout/internal/services"
	"mailscout/internal/tasks"
)

// runAnalysis executes the complete pipeline for one task: fetch,
// partition, then per batch the combine / clean / analyze / parse
// sequence. Batch errors are appended as error results and processing
// continues; fetch and prompt errors fail the task.
func (m *Manager) runAnalysis(ctx context.Context, task *tasks.Task, sender senders.Sender) {
	defer m.wg.Done()

	start := time.Now()
	ctx = services.WithTaskID(ctx, task.ID)
	ctx = services.WithSenderID(ctx, sender.ID)
	ctx = services.WithRequestID(ctx, uuid.NewString())
	logger := logging.WithContext(ctx, m.logger)

	logger.Info("analysis started",
		logging.String(logging.FieldEventType, "task_start"),
		logging.String("sender_email", sender.Email),
		logging.Int("email_limit", task.EmailLimit),
		logging.Int("batch_size", task.BatchSize))
	if err := m.notifier.NotifyAnalysisStarted(ctx, sender.Name, task.EmailLimit); err != nil {
		logger.Warn("start notification failed", logging.Error(err))
	}

	fetchCtx := services.WithStage(ctx, "fetch")
	threads, err := m.source.FetchThreads(fetchCtx, sender.Email, task.EmailLimit)
	if err != nil {
		m.failTask(ctx, logger, task, sender, "fetch", err, start)
		return
	}
	logger.Info("fetch completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.String(logging.FieldStage, "fetch"),
		logging.Int("thread_count", len(threads)),
		logging.Duration("stage_duration", time.Since(start)))

	if len(threads) == 0 {
		m.store.SetTotalBatches(task.ID, 0)
		m.store.CompleteWithNote(task.ID, tasks.NoMessagesNote)
		logger.Info("analysis completed with no messages",
			logging.String(logging.FieldEventType, "task_complete"),
			logging.Duration("task_duration", time.Since(start)))
		if err := m.notifier.NotifyAnalysisCompleted(ctx, sender.Name, 0, 0, time.Since(start)); err != nil {
			logger.Warn("completion notification failed", logging.Error(err))
		}
		return
	}

	m.artifacts.SaveFetchedThreads(ctx, task.ID, sender.Email, task.EmailLimit, threads)

	batches := partitionThreads(threads, task.BatchSize)
	m.store.SetTotalBatches(task.ID, len(batches))
	logger.Info("threads partitioned",
		logging.Int("thread_count", len(threads)),
		logging.Int("total_batches", len(batches)),
		logging.Int("batch_size", task.BatchSize))

	prompt, err := m.registry.Prompt(sender.PromptKey)
	if err != nil {
		m.failTask(ctx, logger, task, sender, "prompt",
			services.Wrap(services.ErrConfiguration, "workflow", "prompt", "resolve prompt template", err), start)
		return
	}

	succeeded := 0
	for i, batch := range batches {
		if ctx.Err() != nil {
			m.store.Fail(task.ID, "analysis canceled during shutdown")
			logger.Warn("analysis canceled",
				logging.String(logging.FieldEventType, "task_canceled"),
				logging.Int("batches_done", i),
				logging.Int("total_batches", len(batches)))
			return
		}
		result := m.processBatch(ctx, task, sender, prompt, batch, i+1, len(batches))
		if !result.Failed() {
			succeeded++
		}
		m.store.AppendResult(task.ID, result)
	}

	m.store.Complete(task.ID)
	logger.Info("analysis completed",
		logging.String(logging.FieldEventType, "task_complete"),
		logging.Int("succeeded", succeeded),
		logging.Int("total_batches", len(batches)),
		logging.Duration("task_duration", time.Since(start)))
	if err := m.notifier.NotifyAnalysisCompleted(ctx, sender.Name, succeeded, len(batches), time.Since(start)); err != nil {
		logger.Warn("completion notification failed", logging.Error(err))
	}
}

// processBatch runs one batch through the three model calls. One
// attempt, no retries beyond what the provider client does internally;
// any failure is recorded on the result and the caller moves on.
func (m *Manager) processBatch(ctx context.Context, task *tasks.Task, sender senders.Sender, prompt senders.Template, batch []mail.Thread, batchNum, totalBatches int) tasks.BatchResult {
	ctx = services.WithBatch(ctx, batchNum)
	logger := logging.WithContext(ctx, m.logger)

	batchStart := time.Now()
	logger.Info("batch started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.Int("total_batches", totalBatches),
		logging.Int("threads_in_batch", len(batch)))

	result := tasks.BatchResult{
		BatchNumber:        batchNum,
		TotalBatches:       totalBatches,
		MessagesInBatch:    countMessages(batch),
		ThreadCountInBatch: len(batch),
		OriginalEmails:     originalEmails(batch, sender.Email),
	}

	combined := mail.CombineThreads(batch)
	m.artifacts.SaveBatchText(ctx, task.ID, batchNum, totalBatches, artifactCombined, combined)

	cleaned := combined
	if m.cfg.Analysis.CleanContent {
		cleaned = m.analyzer.CleanContent(services.WithStage(ctx, "clean"), combined)
		m.artifacts.SaveBatchText(ctx, task.ID, batchNum, totalBatches, artifactCleaned, cleaned)
	}

	userPrompt, err := m.registry.RenderUser(sender.PromptKey, cleaned)
	if err != nil {
		return m.batchFailure(logger, result, batchStart, err)
	}

	analysis, err := m.analyzer.Analyze(services.WithStage(ctx, "analyze"), prompt.SystemPrompt, userPrompt)
	if err != nil {
		return m.batchFailure(logger, result, batchStart, err)
	}
	m.artifacts.SaveBatchText(ctx, task.ID, batchNum, totalBatches, artifactAnalysis, analysis)

	m.artifacts.SaveBatchText(ctx, task.ID, batchNum, totalBatches, artifactParseInput, analysis)
	parsed := m.analyzer.MarkdownToJSON(services.WithStage(ctx, "parse"), analysis)
	m.artifacts.SaveParseOutput(ctx, task.ID, batchNum, parsed)

	result.Analysis = parsed
	result.RawMarkdown = analysis

	logger.Info("batch completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Int("combined_chars", len(combined)),
		logging.Int("analysis_chars", len(analysis)),
		logging.Duration("stage_duration", time.Since(batchStart)))
	return result
}

func (m *Manager) batchFailure(logger *slog.Logger, result tasks.BatchResult, start time.Time, err error) tasks.BatchResult {
	result.Error = err.Error()
	logger.Error("batch failed",
		logging.String(logging.FieldEventType, "stage_failed"),
		logging.Error(err),
		logging.Duration("stage_duration", time.Since(start)))
	return result
}

func (m *Manager) failTask(ctx context.Context, logger *slog.Logger, task *tasks.Task, sender senders.Sender, stage string, err error, start time.Time) {
	m.store.Fail(task.ID, err.Error())
	logger.Error("analysis failed",
		logging.String(logging.FieldEventType, "task_failed"),
		logging.String(logging.FieldStage, stage),
		logging.Error(err),
		logging.Duration("task_duration", time.Since(start)))
	if notifyErr := m.notifier.NotifyAnalysisFailed(ctx, sender.Name, err); notifyErr != nil {
		logger.Warn("failure notification failed", logging.Error(notifyErr))
	}
}

// partitionThreads splits threads into ordered batches of at most size,
// keeping the final short remainder.
func partitionThreads(threads []mail.Thread, size int) [][]mail.Thread {
	if size < 1 {
		size = 1
	}
	batches := make([][]mail.Thread, 0, (len(threads)+size-1)/size)
	for start := 0; start < len(threads); start += size {
		end := start + size
		if end > len(threads) {
			end = len(threads)
		}
		batches = append(batches, threads[start:end])
	}
	return batches
}

func countMessages(batch []mail.Thread) int {
	total := 0
	for _, thread := range batch {
		total += thread.MessageCount
	}
	return total
}

// originalEmails preserves the batch's source threads so result views
// can show what the model actually saw.
func originalEmails(batch []mail.Thread, senderEmail string) []tasks.OriginalEmail {
	out := make([]tasks.OriginalEmail, 0, len(batch))
	for _, thread := range batch {
		out = append(out, tasks.OriginalEmail{
			Subject:       thread.Subject,
			From:          senderEmail,
			ThreadID:      thread.ID,
			MessageNumber: 1,
			TotalInThread: thread.MessageCount,
			Body:          thread.Body,
			Date:          thread.Date,
		})
	}
	return out
}
