// Package queue is the durable AI job queue: jobs are enqueued for a
// feedback item and consumed by the AI pipeline worker, with retry delay
// and dead-letter handling backed by Redis.
package queue

import (
	"context"
	"time"
)

// StageName identifies one stage of the AI pipeline.
type StageName string

const (
	StageEmbed     StageName = "embed"
	StageClassify  StageName = "classify"
	StageSentiment StageName = "sentiment"
	StageDuplicate StageName = "duplicate"
	StageTheme     StageName = "theme"
)

// FullPipeline expands deterministically to every stage in execution order.
func FullPipeline() []StageName {
	return []StageName{StageEmbed, StageClassify, StageSentiment, StageDuplicate, StageTheme}
}

const MaxRetries = 3

// Job is a unit of AI pipeline work for one feedback item.
type Job struct {
	ID          string      `json:"id"`
	FeedbackID  string      `json:"feedback_id"`
	WorkspaceID int64       `json:"workspace_id"`
	Types       []StageName `json:"types"`
	Priority    int         `json:"priority"`
	RetryCount  int         `json:"retry_count"`
	CreatedAt   time.Time   `json:"created_at"`
}

// DeadLetter records a job that exhausted its retries.
type DeadLetter struct {
	OriginalJob   Job       `json:"original_job"`
	FailureReason string    `json:"failure_reason"`
	LastError     string    `json:"last_error"`
	FailedAt      time.Time `json:"failed_at"`
}

// Backend is the queue adapter interface: send, sendBatch, and a blocking
// consumer with ack/retry, matching the capability-binding vocabulary
// (QUEUE_AI) this service's configuration is built around.
type Backend interface {
	Send(ctx context.Context, job Job) error
	SendBatch(ctx context.Context, jobs []Job) error
	// Consume blocks up to timeout for the next job. Returns (nil, nil) on
	// timeout with nothing available.
	Consume(ctx context.Context, timeout time.Duration) (*Job, error)
	// Ack marks a job as successfully processed.
	Ack(ctx context.Context, jobID string) error
	// Retry re-enqueues job after delay, incrementing its retry count, or
	// moves it to the dead letter queue if MaxRetries is exhausted.
	Retry(ctx context.Context, job Job, delay time.Duration, failureReason, lastError string) error
	// DeadLetters returns up to limit entries from the dead letter queue.
	DeadLetters(ctx context.Context, limit int) ([]DeadLetter, error)
	Close() error
}

