package aipipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/clearvoice/feedback/pkg/classifier"
	"github.com/clearvoice/feedback/pkg/embedding"
	"github.com/clearvoice/feedback/pkg/feedback"
	"github.com/clearvoice/feedback/pkg/queue"
	"github.com/clearvoice/feedback/pkg/vectorindex"
)

// Orchestrator runs one job through the ordered stage pipeline described in
// spec §4.5. It is the "small state machine" the spec calls for: each
// stage's predicate decides whether it has input to work with, its runner
// does the work, and a failure is classified retryable or not before moving
// to the next stage.
type Orchestrator struct {
	feedback   *feedback.Store
	store      *Store
	embedder   embedding.Provider
	index      vectorindex.Index
	classifier classifier.Classifier
	logger     *slog.Logger
}

func NewOrchestrator(feedbackStore *feedback.Store, store *Store, embedder embedding.Provider, index vectorindex.Index, clf classifier.Classifier, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{feedback: feedbackStore, store: store, embedder: embedder, index: index, classifier: clf, logger: logger}
}

func requested(types []queue.StageName, name queue.StageName) bool {
	for _, t := range types {
		if t == name {
			return true
		}
	}
	return false
}

func ptr[T any](v T) *T { return &v }

// Process runs job through every stage it requests, persists results, and
// reports whether the caller should retry.
func (o *Orchestrator) Process(ctx context.Context, job queue.Job) RunResult {
	result := RunResult{JobID: job.ID}

	item, err := o.feedback.GetByID(ctx, job.FeedbackID)
	if err != nil {
		result.Stages = []StageResult{{Stage: "lookup", Outcome: OutcomeFailed, Err: err, Retryable: false}}
		result.Status = "failed"
		return result
	}

	description := ""
	if item.Description != nil {
		description = *item.Description
	}

	var (
		vector         []float32
		haveVector     bool
		embeddings     int64
		vectorQueries  int64
		llmCalls       int64
		inputTokens    int64
		outputTokens   int64
		classifyResult classifier.Result
		classifyOK     bool
	)

	if requested(job.Types, queue.StageEmbed) {
		res := o.runEmbed(ctx, item.ID, item.BoardID, item.WorkspaceID, item.Title, description, item.CreatedAt.Format(time.RFC3339))
		result.Stages = append(result.Stages, res.result)
		if res.result.Outcome == OutcomeSuccess {
			vector = res.vector
			haveVector = true
			embeddings++
		}
	}

	if requested(job.Types, queue.StageClassify) {
		res, r := o.runClassify(ctx, item.ID, item.Title, description)
		result.Stages = append(result.Stages, res)
		if res.Outcome == OutcomeSuccess {
			classifyResult = r
			classifyOK = true
			llmCalls++
			inputTokens += r.InputTokens
			outputTokens += r.OutputTokens
		}
	}

	if requested(job.Types, queue.StageSentiment) {
		// Sentiment is carried as part of the classifier's structured
		// result (spec §4.5 step 3), so this stage is bookkeeping only:
		// it succeeds whenever classify already produced a score.
		switch {
		case !requested(job.Types, queue.StageClassify):
			result.Stages = append(result.Stages, StageResult{Stage: queue.StageSentiment, Outcome: OutcomeSkipped})
		case classifyOK:
			result.Stages = append(result.Stages, StageResult{Stage: queue.StageSentiment, Outcome: OutcomeSuccess})
		default:
			result.Stages = append(result.Stages, StageResult{Stage: queue.StageSentiment, Outcome: OutcomeFailed, Retryable: false})
		}
	}

	if requested(job.Types, queue.StageDuplicate) {
		if !haveVector {
			if match, v, err := o.index.Get(ctx, item.ID); err == nil && match != nil {
				vector, haveVector = v, true
			}
		}
		if !haveVector {
			result.Stages = append(result.Stages, StageResult{Stage: queue.StageDuplicate, Outcome: OutcomeSkipped})
		} else {
			res := o.runDuplicate(ctx, item.ID, item.WorkspaceID, vector)
			result.Stages = append(result.Stages, res)
			if res.Outcome == OutcomeSuccess {
				vectorQueries++
			}
		}
	}

	// Priority scoring runs when the job requested classify or sentiment.
	// It needs sentiment and urgency; use the freshly classified values if
	// classify succeeded in this job, otherwise fall back to whatever is
	// already persisted on the item from an earlier run.
	if requested(job.Types, queue.StageClassify) || requested(job.Types, queue.StageSentiment) {
		sentiment := item.AISentimentScore
		urgency := item.AIUrgency
		if classifyOK {
			sentiment = &classifyResult.SentimentScore
			urgency = ptr(string(classifyResult.Urgency))
		}
		if sentiment == nil || urgency == nil {
			result.Stages = append(result.Stages, StageResult{Stage: "priority", Outcome: OutcomeSkipped})
		} else {
			score := priorityScore(item.VoteCount, *sentiment, *urgency)
			if err := o.feedback.UpdateAIFields(ctx, item.ID, feedback.AIUpdate{PriorityScore: &score, Status: feedback.AIStatusProcessing}); err != nil {
				result.Stages = append(result.Stages, StageResult{Stage: "priority", Outcome: OutcomeFailed, Err: err, Retryable: true})
			} else {
				result.Stages = append(result.Stages, StageResult{Stage: "priority", Outcome: OutcomeSuccess})
			}
		}
	}

	// Theme assignment is reserved and always skipped (spec §4.5 step 5).
	if requested(job.Types, queue.StageTheme) {
		result.Stages = append(result.Stages, StageResult{Stage: queue.StageTheme, Outcome: OutcomeSkipped})
	}

	// Persist the classify stage's fields; priority scoring above already
	// took sentiment and urgency straight from classifyResult.
	if classifyOK {
		update := feedback.AIUpdate{
			Type:            ptr(string(classifyResult.Type)),
			ProductArea:     classifyResult.ProductArea,
			Urgency:         ptr(string(classifyResult.Urgency)),
			Confidence:      &classifyResult.Confidence,
			SentimentScore:  &classifyResult.SentimentScore,
			UrgencyKeywords: classifyResult.UrgencyKeywords,
			Summary:         &classifyResult.Summary,
			Status:          feedback.AIStatusProcessing,
		}
		if err := o.feedback.UpdateAIFields(ctx, item.ID, update); err != nil {
			o.logger.Error("persisting classify result", "feedback_id", item.ID, "error", err)
		}
	}

	result.Status = overallStatus(result.Stages)
	if err := o.feedback.UpdateAIFields(ctx, item.ID, feedback.AIUpdate{Status: feedback.AIStatus(result.Status)}); err != nil {
		o.logger.Error("persisting overall ai status", "feedback_id", item.ID, "error", err)
	}

	if err := o.store.IncrementUsage(ctx, item.WorkspaceID, time.Now(), embeddings, llmCalls, vectorQueries, inputTokens, outputTokens); err != nil {
		o.logger.Error("recording ai usage", "workspace_id", item.WorkspaceID, "error", err)
	}

	for _, s := range result.Stages {
		if s.Outcome == OutcomeFailed && s.Retryable {
			result.Retry = true
			result.RetryIn = retryDelay(job.RetryCount)
			break
		}
	}
	return result
}

type embedStageResult struct {
	result StageResult
	vector []float32
}

func (o *Orchestrator) runEmbed(ctx context.Context, feedbackID, boardID string, workspaceID int64, title, description, createdAt string) embedStageResult {
	text := embedding.NormalizeFeedbackText(title, description)
	if strings.TrimSpace(text) == "" || strings.TrimSpace(title) == "" {
		return embedStageResult{result: StageResult{Stage: queue.StageEmbed, Outcome: OutcomeFailed, Err: errors.New("empty input"), Retryable: false}}
	}

	vectors, err := o.embedder.Embed(ctx, []string{text})
	if err != nil {
		cls := classifyErr(err)
		return embedStageResult{result: StageResult{Stage: queue.StageEmbed, Outcome: OutcomeFailed, Err: err, Retryable: cls.retryable}}
	}
	if len(vectors) != 1 || len(vectors[0]) != embedding.Dimensions {
		return embedStageResult{result: StageResult{Stage: queue.StageEmbed, Outcome: OutcomeFailed, Err: fmt.Errorf("expected %d dimensions", embedding.Dimensions), Retryable: false}}
	}

	meta := vectorindex.Metadata{FeedbackID: feedbackID, BoardID: boardID, WorkspaceID: workspaceID, CreatedAt: createdAt, Title: truncate(title, 100)}
	if err := o.index.Upsert(ctx, feedbackID, vectors[0], meta); err != nil {
		cls := classifyErr(err)
		return embedStageResult{result: StageResult{Stage: queue.StageEmbed, Outcome: OutcomeFailed, Err: err, Retryable: cls.retryable}}
	}
	return embedStageResult{result: StageResult{Stage: queue.StageEmbed, Outcome: OutcomeSuccess}, vector: vectors[0]}
}

func (o *Orchestrator) runClassify(ctx context.Context, feedbackID, title, description string) (StageResult, classifier.Result) {
	if strings.TrimSpace(title) == "" {
		return StageResult{Stage: queue.StageClassify, Outcome: OutcomeFailed, Err: errors.New("empty input"), Retryable: false}, classifier.Result{}
	}

	res, err := o.classifier.Classify(ctx, title, description)
	if err != nil {
		cls := classifyErr(err)
		return StageResult{Stage: queue.StageClassify, Outcome: OutcomeFailed, Err: err, Retryable: cls.retryable}, classifier.Result{}
	}
	return StageResult{Stage: queue.StageClassify, Outcome: OutcomeSuccess}, res
}

func (o *Orchestrator) runDuplicate(ctx context.Context, feedbackID string, workspaceID int64, vector []float32) StageResult {
	matches, err := o.index.Query(ctx, workspaceID, vector, vectorindex.TopK, feedbackID)
	if err != nil {
		cls := classifyErr(err)
		return StageResult{Stage: queue.StageDuplicate, Outcome: OutcomeFailed, Err: err, Retryable: cls.retryable}
	}
	for _, m := range matches {
		if m.Score < vectorindex.DuplicateThreshold {
			continue
		}
		if _, err := o.store.UpsertDuplicateSuggestion(ctx, feedbackID, m.ID, m.Score); err != nil {
			return StageResult{Stage: queue.StageDuplicate, Outcome: OutcomeFailed, Err: err, Retryable: true}
		}
	}
	return StageResult{Stage: queue.StageDuplicate, Outcome: OutcomeSuccess}
}

// priorityScore implements spec §4.5 step 4's formula.
func priorityScore(votes int64, sentiment float64, urgency string) int {
	voteComponent := math.Min(float64(votes)/100, 1)
	var urgencyComponent float64
	switch urgency {
	case "critical":
		urgencyComponent = 1.0
	case "urgent":
		urgencyComponent = 0.7
	default:
		urgencyComponent = 0.3
	}
	score := 100 * (0.3*voteComponent + 0.2*((1-sentiment)/2) + 0.5*urgencyComponent)
	return int(math.Round(score))
}

// classifyErr maps a provider error to a retryable/non-retryable class.
// Providers in this pipeline return plain errors rather than a typed
// taxonomy, so this inspects the usual signals: context deadlines, and the
// rate-limit/server-error wording providers conventionally surface.
func classifyErr(err error) failureClass {
	if errors.Is(err, context.DeadlineExceeded) {
		return classTimeout
	}
	if errors.Is(err, context.Canceled) {
		return classNetwork
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "rate limit") || strings.Contains(msg, "429") || strings.Contains(msg, "too many requests"):
		return classRateLimited
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline"):
		return classTimeout
	case strings.Contains(msg, "connection") || strings.Contains(msg, "network") || strings.Contains(msg, "dial"):
		return classNetwork
	case strings.Contains(msg, "500") || strings.Contains(msg, "502") || strings.Contains(msg, "503") || strings.Contains(msg, "504"):
		return classUpstream5xx
	case strings.Contains(msg, "dimension"):
		return classDimensionMismatch
	case strings.Contains(msg, "parsing") || strings.Contains(msg, "parse"):
		return classParseFailure
	case strings.Contains(msg, "empty"):
		return classEmptyInput
	default:
		return classUnknown
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
