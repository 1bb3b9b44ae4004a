package aipipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/clearvoice/feedback/pkg/queue"
)

type fakeBackend struct {
	consumeErr error
}

func (f *fakeBackend) Send(ctx context.Context, job queue.Job) error         { return nil }
func (f *fakeBackend) SendBatch(ctx context.Context, jobs []queue.Job) error { return nil }
func (f *fakeBackend) Consume(ctx context.Context, timeout time.Duration) (*queue.Job, error) {
	return nil, f.consumeErr
}
func (f *fakeBackend) Ack(ctx context.Context, jobID string) error { return nil }
func (f *fakeBackend) Retry(ctx context.Context, job queue.Job, delay time.Duration, failureReason, lastError string) error {
	return nil
}
func (f *fakeBackend) DeadLetters(ctx context.Context, limit int) ([]queue.DeadLetter, error) {
	return nil, nil
}
func (f *fakeBackend) Close() error { return nil }

func TestWorkerRun_StopsOnContextCancel(t *testing.T) {
	w := NewWorker(&fakeBackend{}, nil, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := w.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}

func TestWorkerRun_StopsWhenConsumeReturnsCanceled(t *testing.T) {
	w := NewWorker(&fakeBackend{consumeErr: context.Canceled}, nil, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	if err := w.Run(context.Background()); !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}

func TestFirstFailure(t *testing.T) {
	tests := []struct {
		name       string
		stages     []StageResult
		wantReason string
		wantErr    string
	}{
		{
			name: "first failed stage reported",
			stages: []StageResult{
				{Stage: queue.StageEmbed, Outcome: OutcomeSuccess},
				{Stage: queue.StageClassify, Outcome: OutcomeFailed, Err: errors.New("boom")},
				{Stage: queue.StageTheme, Outcome: OutcomeFailed, Err: errors.New("later")},
			},
			wantReason: "classify",
			wantErr:    "boom",
		},
		{
			name: "failed stage with nil error",
			stages: []StageResult{
				{Stage: queue.StageEmbed, Outcome: OutcomeFailed},
			},
			wantReason: "embed",
			wantErr:    "",
		},
		{
			name:       "no failures returns unknown",
			stages:     []StageResult{{Stage: queue.StageEmbed, Outcome: OutcomeSuccess}},
			wantReason: "unknown",
			wantErr:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reason, lastErr := firstFailure(tt.stages)
			if reason != tt.wantReason || lastErr != tt.wantErr {
				t.Errorf("firstFailure() = (%q, %q), want (%q, %q)", reason, lastErr, tt.wantReason, tt.wantErr)
			}
		})
	}
}
