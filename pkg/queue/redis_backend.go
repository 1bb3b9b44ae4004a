package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/clearvoice/feedback/internal/idgen"
)

const (
	readyKey    = "clearvoice:ai:jobs:ready"
	delayedZKey = "clearvoice:ai:jobs:delayed"
	processing  = "clearvoice:ai:jobs:processing" // hash: jobID -> job JSON, for Ack/Retry lookups
	dlqKey      = "clearvoice:ai:jobs:dlq"
)

// RedisBackend implements Backend over a Redis list (ready queue), a sorted
// set keyed by ready-at unix time (delayed retries), and a list for the dead
// letter queue; dead-letter entries are never trimmed.
type RedisBackend struct {
	client *redis.Client
}

func NewRedisBackend(client *redis.Client) *RedisBackend {
	return &RedisBackend{client: client}
}

func (b *RedisBackend) Send(ctx context.Context, job Job) error {
	return b.push(ctx, job)
}

func (b *RedisBackend) SendBatch(ctx context.Context, jobs []Job) error {
	pipe := b.client.Pipeline()
	for _, job := range jobs {
		payload, err := json.Marshal(job)
		if err != nil {
			return fmt.Errorf("marshaling job: %w", err)
		}
		pipe.LPush(ctx, readyKey, payload)
	}
	_, err := pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("sending job batch: %w", err)
	}
	return nil
}

func (b *RedisBackend) push(ctx context.Context, job Job) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshaling job: %w", err)
	}
	if err := b.client.LPush(ctx, readyKey, payload).Err(); err != nil {
		return fmt.Errorf("pushing job: %w", err)
	}
	return nil
}

// Consume promotes any delayed jobs whose ready-at time has passed, then
// blocks up to timeout for the next ready job.
func (b *RedisBackend) Consume(ctx context.Context, timeout time.Duration) (*Job, error) {
	if err := b.promoteDelayed(ctx); err != nil {
		return nil, err
	}

	res, err := b.client.BRPop(ctx, timeout, readyKey).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("consuming job: %w", err)
	}

	var job Job
	if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
		return nil, fmt.Errorf("unmarshaling job: %w", err)
	}

	payload, _ := json.Marshal(job)
	if err := b.client.HSet(ctx, processing, job.ID, payload).Err(); err != nil {
		return nil, fmt.Errorf("recording in-flight job: %w", err)
	}

	return &job, nil
}

func (b *RedisBackend) promoteDelayed(ctx context.Context) error {
	now := float64(time.Now().Unix())
	ids, err := b.client.ZRangeByScore(ctx, delayedZKey, &redis.ZRangeBy{
		Min: "-inf", Max: fmt.Sprintf("%f", now),
	}).Result()
	if err != nil {
		return fmt.Errorf("scanning delayed jobs: %w", err)
	}

	for _, payload := range ids {
		pipe := b.client.TxPipeline()
		pipe.ZRem(ctx, delayedZKey, payload)
		pipe.LPush(ctx, readyKey, payload)
		if _, err := pipe.Exec(ctx); err != nil {
			return fmt.Errorf("promoting delayed job: %w", err)
		}
	}
	return nil
}

func (b *RedisBackend) Ack(ctx context.Context, jobID string) error {
	if err := b.client.HDel(ctx, processing, jobID).Err(); err != nil {
		return fmt.Errorf("acking job: %w", err)
	}
	return nil
}

// Retry re-enqueues job after delay with an incremented retry count, or
// dead-letters it once MaxRetries has been exhausted.
func (b *RedisBackend) Retry(ctx context.Context, job Job, delay time.Duration, failureReason, lastError string) error {
	defer b.client.HDel(ctx, processing, job.ID)

	job.RetryCount++
	if job.RetryCount > MaxRetries {
		return b.deadLetter(ctx, job, failureReason, lastError)
	}

	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshaling retried job: %w", err)
	}

	readyAt := float64(time.Now().Add(delay).Unix())
	if err := b.client.ZAdd(ctx, delayedZKey, redis.Z{Score: readyAt, Member: payload}).Err(); err != nil {
		return fmt.Errorf("scheduling retry: %w", err)
	}
	return nil
}

func (b *RedisBackend) deadLetter(ctx context.Context, job Job, failureReason, lastError string) error {
	dl := DeadLetter{
		OriginalJob:   job,
		FailureReason: failureReason,
		LastError:     lastError,
		FailedAt:      time.Now().UTC(),
	}
	payload, err := json.Marshal(dl)
	if err != nil {
		return fmt.Errorf("marshaling dead letter: %w", err)
	}
	if err := b.client.LPush(ctx, dlqKey, payload).Err(); err != nil {
		return fmt.Errorf("dead-lettering job: %w", err)
	}
	return nil
}

func (b *RedisBackend) DeadLetters(ctx context.Context, limit int) ([]DeadLetter, error) {
	raws, err := b.client.LRange(ctx, dlqKey, 0, int64(limit)-1).Result()
	if err != nil {
		return nil, fmt.Errorf("listing dead letters: %w", err)
	}

	out := make([]DeadLetter, 0, len(raws))
	for _, raw := range raws {
		var dl DeadLetter
		if err := json.Unmarshal([]byte(raw), &dl); err != nil {
			continue
		}
		out = append(out, dl)
	}
	return out, nil
}

func (b *RedisBackend) Close() error {
	return nil
}

// NewJob constructs a Job with a fresh ID and creation timestamp.
func NewJob(feedbackID string, workspaceID int64, types []StageName, priority int) Job {
	return Job{
		ID:          idgen.New(idgen.PrefixAIJob),
		FeedbackID:  feedbackID,
		WorkspaceID: workspaceID,
		Types:       types,
		Priority:    priority,
		CreatedAt:   time.Now().UTC(),
	}
}
