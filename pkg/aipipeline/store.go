package aipipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clearvoice/feedback/internal/idgen"
	"github.com/clearvoice/feedback/pkg/queue"
)

// DuplicateSuggestion mirrors the duplicate_suggestions table: a candidate
// pair an admin must dismiss or merge.
type DuplicateSuggestion struct {
	ID                   string     `json:"id"`
	FeedbackID           string     `json:"feedback_id"`
	SuggestedDuplicateID string     `json:"suggested_duplicate_id"`
	SimilarityScore      float64    `json:"similarity_score"`
	Status               string     `json:"status"` // pending | dismissed | merged
	ReviewedBy           *string    `json:"reviewed_by,omitempty"`
	ReviewedAt           *time.Time `json:"reviewed_at,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
}

// Usage mirrors one (workspace_id, usage_date) row of ai_usage.
type Usage struct {
	WorkspaceID   int64     `json:"workspace_id"`
	UsageDate     time.Time `json:"usage_date"`
	Embeddings    int64     `json:"embeddings"`
	LLMCalls      int64     `json:"llm_calls"`
	VectorQueries int64     `json:"vector_queries"`
	InputTokens   int64     `json:"input_tokens"`
	OutputTokens  int64     `json:"output_tokens"`
}

// DeadLetterRecord mirrors one ai_dead_letters row: the durable, queryable
// counterpart to the queue backend's own Redis dead-letter list, kept so
// admins can inspect pipeline failures without reaching into Redis.
type DeadLetterRecord struct {
	ID            string    `json:"id"`
	FeedbackID    string    `json:"feedback_id"`
	OriginalJob   queue.Job `json:"original_job"`
	FailureReason string    `json:"failure_reason"`
	LastError     string    `json:"last_error"`
	FailedAt      time.Time `json:"failed_at"`
}

// Store persists AI pipeline side effects: duplicate suggestions, usage
// counters, and a queryable dead-letter record.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// UpsertDuplicateSuggestion records a candidate duplicate pair, updating only
// the similarity score on conflict against the (feedback_id,
// suggested_duplicate_id) unique constraint; an existing suggestion keeps
// its status.
func (s *Store) UpsertDuplicateSuggestion(ctx context.Context, feedbackID, suggestedID string, score float64) (DuplicateSuggestion, error) {
	d := DuplicateSuggestion{
		ID:                   idgen.New(idgen.PrefixDuplicateSugg),
		FeedbackID:           feedbackID,
		SuggestedDuplicateID: suggestedID,
		SimilarityScore:      score,
		Status:               "pending",
	}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO duplicate_suggestions (id, feedback_id, suggested_duplicate_id, similarity_score)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (feedback_id, suggested_duplicate_id) DO UPDATE SET
			similarity_score = EXCLUDED.similarity_score
		RETURNING id, status, created_at`,
		d.ID, feedbackID, suggestedID, score,
	).Scan(&d.ID, &d.Status, &d.CreatedAt)
	if err != nil {
		return DuplicateSuggestion{}, fmt.Errorf("upserting duplicate suggestion: %w", err)
	}
	return d, nil
}

// ListDuplicatesForFeedback returns every pending-or-reviewed suggestion
// naming feedbackID as the source.
func (s *Store) ListDuplicatesForFeedback(ctx context.Context, feedbackID string) ([]DuplicateSuggestion, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, feedback_id, suggested_duplicate_id, similarity_score, status, reviewed_by, reviewed_at, created_at
		FROM duplicate_suggestions WHERE feedback_id = $1 ORDER BY similarity_score DESC`,
		feedbackID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing duplicate suggestions: %w", err)
	}
	defer rows.Close()
	return scanDuplicates(rows)
}

// ListDuplicatesByStatus returns every suggestion in workspaceID matching
// status (spec §6.2 admin duplicate review queue).
func (s *Store) ListDuplicatesByStatus(ctx context.Context, workspaceID int64, status string) ([]DuplicateSuggestion, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT ds.id, ds.feedback_id, ds.suggested_duplicate_id, ds.similarity_score, ds.status, ds.reviewed_by, ds.reviewed_at, ds.created_at
		FROM duplicate_suggestions ds
		JOIN feedback_items fi ON fi.id = ds.feedback_id
		WHERE fi.workspace_id = $1 AND ds.status = $2
		ORDER BY ds.similarity_score DESC`,
		workspaceID, status,
	)
	if err != nil {
		return nil, fmt.Errorf("listing duplicate suggestions by status: %w", err)
	}
	defer rows.Close()
	return scanDuplicates(rows)
}

func scanDuplicates(rows pgx.Rows) ([]DuplicateSuggestion, error) {
	var out []DuplicateSuggestion
	for rows.Next() {
		var d DuplicateSuggestion
		if err := rows.Scan(&d.ID, &d.FeedbackID, &d.SuggestedDuplicateID, &d.SimilarityScore, &d.Status, &d.ReviewedBy, &d.ReviewedAt, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning duplicate suggestion: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// GetDuplicate returns one suggestion scoped to workspaceID.
func (s *Store) GetDuplicate(ctx context.Context, workspaceID int64, id string) (DuplicateSuggestion, error) {
	var d DuplicateSuggestion
	err := s.pool.QueryRow(ctx, `
		SELECT ds.id, ds.feedback_id, ds.suggested_duplicate_id, ds.similarity_score, ds.status, ds.reviewed_by, ds.reviewed_at, ds.created_at
		FROM duplicate_suggestions ds
		JOIN feedback_items fi ON fi.id = ds.feedback_id
		WHERE ds.id = $1 AND fi.workspace_id = $2`,
		id, workspaceID,
	).Scan(&d.ID, &d.FeedbackID, &d.SuggestedDuplicateID, &d.SimilarityScore, &d.Status, &d.ReviewedBy, &d.ReviewedAt, &d.CreatedAt)
	return d, err
}

// ReviewDuplicate marks a suggestion dismissed or merged and records the
// reviewing user.
func (s *Store) ReviewDuplicate(ctx context.Context, id, status, reviewerID string) error {
	ct, err := s.pool.Exec(ctx, `
		UPDATE duplicate_suggestions SET status = $2, reviewed_by = $3, reviewed_at = now() WHERE id = $1`,
		id, status, reviewerID,
	)
	if err != nil {
		return fmt.Errorf("reviewing duplicate suggestion: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// IncrementUsage adds the given counts to today's (workspace_id, usage_date)
// row, creating it if absent.
func (s *Store) IncrementUsage(ctx context.Context, workspaceID int64, day time.Time, embeddings, llmCalls, vectorQueries, inputTokens, outputTokens int64) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO ai_usage (workspace_id, usage_date, embeddings, llm_calls, vector_queries, input_tokens, output_tokens)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (workspace_id, usage_date) DO UPDATE SET
			embeddings = ai_usage.embeddings + EXCLUDED.embeddings,
			llm_calls = ai_usage.llm_calls + EXCLUDED.llm_calls,
			vector_queries = ai_usage.vector_queries + EXCLUDED.vector_queries,
			input_tokens = ai_usage.input_tokens + EXCLUDED.input_tokens,
			output_tokens = ai_usage.output_tokens + EXCLUDED.output_tokens`,
		workspaceID, day.UTC().Truncate(24*time.Hour), embeddings, llmCalls, vectorQueries, inputTokens, outputTokens,
	)
	if err != nil {
		return fmt.Errorf("incrementing ai usage: %w", err)
	}
	return nil
}

// ListUsage returns the last `days` of usage rows for workspaceID, most
// recent first.
func (s *Store) ListUsage(ctx context.Context, workspaceID int64, days int) ([]Usage, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT workspace_id, usage_date, embeddings, llm_calls, vector_queries, input_tokens, output_tokens
		FROM ai_usage WHERE workspace_id = $1 AND usage_date >= (current_date - $2::int)
		ORDER BY usage_date DESC`,
		workspaceID, days,
	)
	if err != nil {
		return nil, fmt.Errorf("listing ai usage: %w", err)
	}
	defer rows.Close()

	var out []Usage
	for rows.Next() {
		var u Usage
		if err := rows.Scan(&u.WorkspaceID, &u.UsageDate, &u.Embeddings, &u.LLMCalls, &u.VectorQueries, &u.InputTokens, &u.OutputTokens); err != nil {
			return nil, fmt.Errorf("scanning ai usage: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// RecordDeadLetter persists a queryable copy of a job that exhausted its
// retries, alongside the queue backend's own Redis dead-letter entry.
func (s *Store) RecordDeadLetter(ctx context.Context, job queue.Job, failureReason, lastError string) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshaling original job: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO ai_dead_letters (id, feedback_id, original_job, failure_reason, last_error)
		VALUES ($1, $2, $3, $4, $5)`,
		idgen.New(idgen.PrefixAIJob), job.FeedbackID, payload, failureReason, lastError,
	)
	if err != nil {
		return fmt.Errorf("recording dead letter: %w", err)
	}
	return nil
}
