// Package workspace manages Workspace and Board entities: auto-provisioning
// on first widget submission, slug validation, and CRUD.
package workspace

import (
	"regexp"
	"time"
)

var slugPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,100}$`)

// ValidSlug reports whether slug matches the workspace/board slug grammar.
func ValidSlug(slug string) bool {
	return slugPattern.MatchString(slug)
}

// Workspace is the top-level tenant boundary: an integer, monotonically
// assigned ID with a unique URL-safe slug.
type Workspace struct {
	ID        int64          `json:"id"`
	Slug      string         `json:"slug"`
	Name      string         `json:"name"`
	Settings  map[string]any `json:"settings"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// ModerationPolicy controls whether public submissions require review.
type ModerationPolicy string

const (
	ModerationApproved ModerationPolicy = "approved"
	ModerationPending  ModerationPolicy = "pending"
)

// Board belongs to a Workspace; (workspace_id, slug) is unique.
type Board struct {
	ID               string           `json:"id"`
	WorkspaceID      int64            `json:"workspace_id"`
	Slug             string           `json:"slug"`
	Name             string           `json:"name"`
	IsPublic         bool             `json:"is_public"`
	IsArchived       bool             `json:"is_archived"`
	ModerationPolicy ModerationPolicy `json:"moderation_policy"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}
