package aipipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/clearvoice/feedback/pkg/queue"
)

// pollTimeout bounds each blocking Consume call so the worker loop can
// observe ctx cancellation between polls.
const pollTimeout = 5 * time.Second

// Worker repeatedly consumes jobs from the queue and runs them through the
// Orchestrator, acking, retrying, or dead-lettering as Process reports.
// The consumer is batch-parallel across messages (spec §4.6's scheduling
// model) but this loop itself processes one job at a time; concurrency
// comes from running multiple Worker instances, matching how the queue
// backend already serializes per-job state via Redis.
type Worker struct {
	backend      queue.Backend
	orchestrator *Orchestrator
	store        *Store
	logger       *slog.Logger
}

func NewWorker(backend queue.Backend, orchestrator *Orchestrator, store *Store, logger *slog.Logger) *Worker {
	return &Worker{backend: backend, orchestrator: orchestrator, store: store, logger: logger}
}

// Run blocks, consuming and processing jobs until ctx is canceled.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		job, err := w.backend.Consume(ctx, pollTimeout)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			w.logger.Error("consuming ai job", "error", err)
			continue
		}
		if job == nil {
			continue
		}

		w.processOne(ctx, *job)
	}
}

func (w *Worker) processOne(ctx context.Context, job queue.Job) {
	result := w.orchestrator.Process(ctx, job)

	if !result.Retry {
		if err := w.backend.Ack(ctx, job.ID); err != nil {
			w.logger.Error("acking ai job", "job_id", job.ID, "error", err)
		}
		w.logger.Info("ai job processed", "job_id", job.ID, "feedback_id", job.FeedbackID, "status", result.Status)
		return
	}

	reason, lastErr := firstFailure(result.Stages)
	if job.RetryCount+1 > queue.MaxRetries {
		if err := w.store.RecordDeadLetter(ctx, job, reason, lastErr); err != nil {
			w.logger.Error("recording dead letter", "job_id", job.ID, "error", err)
		}
	}
	if err := w.backend.Retry(ctx, job, result.RetryIn, reason, lastErr); err != nil {
		w.logger.Error("retrying ai job", "job_id", job.ID, "error", err)
	}
}

func firstFailure(stages []StageResult) (reason, lastErr string) {
	for _, s := range stages {
		if s.Outcome == OutcomeFailed {
			if s.Err != nil {
				return string(s.Stage), s.Err.Error()
			}
			return string(s.Stage), ""
		}
	}
	return "unknown", ""
}
