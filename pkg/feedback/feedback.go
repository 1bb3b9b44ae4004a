// Package feedback implements the FeedbackItem aggregate: public
// submission/voting/commenting, admin moderation and bulk mutation, tag
// assignment, and duplicate-merge.
package feedback

import "time"

// Status is the admin-controlled workflow state. The DAG runs
// open → {under_review, planned, declined, done} and planned → in_progress
// → done; reverse transitions are allowed (spec §4.6 only requires an
// audit trail entry for them, which is out of scope to store).
type Status string

const (
	StatusOpen        Status = "open"
	StatusUnderReview Status = "under_review"
	StatusPlanned     Status = "planned"
	StatusInProgress  Status = "in_progress"
	StatusDone        Status = "done"
	StatusDeclined    Status = "declined"
)

func ValidStatus(s string) bool {
	switch Status(s) {
	case StatusOpen, StatusUnderReview, StatusPlanned, StatusInProgress, StatusDone, StatusDeclined:
		return true
	}
	return false
}

// ModerationState gates visibility in the public list.
type ModerationState string

const (
	ModerationPending  ModerationState = "pending"
	ModerationApproved ModerationState = "approved"
	ModerationRejected ModerationState = "rejected"
)

func ValidModerationState(s string) bool {
	switch ModerationState(s) {
	case ModerationPending, ModerationApproved, ModerationRejected:
		return true
	}
	return false
}

// Source is the ingress that created the item.
type Source string

const (
	SourceWidget Source = "widget"
	SourceAPI    Source = "api"
	SourceMCP    Source = "mcp"
	SourceImport Source = "import"
)

// AIStatus summarizes the outcome of the AI pipeline run for an item.
type AIStatus string

const (
	AIStatusPending    AIStatus = "pending"
	AIStatusProcessing AIStatus = "processing"
	AIStatusCompleted  AIStatus = "completed"
	AIStatusPartial    AIStatus = "partial"
	AIStatusFailed     AIStatus = "failed"
)

// Item is a FeedbackItem, the aggregate root this package revolves around.
type Item struct {
	ID              string          `json:"id"`
	BoardID         string          `json:"board_id"`
	WorkspaceID     int64           `json:"workspace_id"`
	EndUserID       *string         `json:"end_user_id,omitempty"`
	Title           string          `json:"title"`
	Description     *string         `json:"description,omitempty"`
	Status          Status          `json:"status"`
	ModerationState ModerationState `json:"moderation_state"`
	Source          Source          `json:"source"`
	IsHidden        bool            `json:"is_hidden"`
	ThemeID         *string         `json:"theme_id,omitempty"`
	MergedInto      *string         `json:"merged_into,omitempty"`
	MergedAt        *time.Time      `json:"merged_at,omitempty"`

	AIType            *string  `json:"ai_type,omitempty"`
	AIProductArea     *string  `json:"ai_product_area,omitempty"`
	AIUrgency         *string  `json:"ai_urgency,omitempty"`
	AIConfidence      *float64 `json:"ai_confidence,omitempty"`
	AISentimentScore  *float64 `json:"ai_sentiment_score,omitempty"`
	AIUrgencyKeywords []string `json:"ai_urgency_keywords"`
	AISummary         *string  `json:"ai_summary,omitempty"`
	AIPriorityScore   *int     `json:"ai_priority_score,omitempty"`
	AIStatus          AIStatus `json:"ai_status"`

	VoteCount int64     `json:"vote_count"`
	Tags      []Tag     `json:"tags,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Vote is one end user's vote on an Item; weight defaults to 1.
type Vote struct {
	FeedbackID string    `json:"feedback_id"`
	EndUserID  string    `json:"end_user_id"`
	Weight     int       `json:"weight"`
	CreatedAt  time.Time `json:"created_at"`
}

// Comment belongs to an Item; internal comments never appear publicly.
type Comment struct {
	ID         string    `json:"id"`
	FeedbackID string    `json:"feedback_id"`
	AuthorID   *string   `json:"author_id,omitempty"`
	Body       string    `json:"body"`
	IsInternal bool      `json:"is_internal"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Tag is a workspace-scoped label, assignable to many items.
type Tag struct {
	ID          int64  `json:"id"`
	WorkspaceID int64  `json:"workspace_id"`
	Name        string `json:"name"`
	Color       string `json:"color"`
}
