// Package enduser tracks the anonymous or pseudonymous identity a widget
// submission, vote, or comment carries: an external_user_id supplied by the
// embedding site, upserted into an EndUser row scoped to its workspace.
package enduser

import "time"

// EndUser is a widget-side identity, distinct from the platform's User.
type EndUser struct {
	ID             string    `json:"id"`
	WorkspaceID    int64     `json:"workspace_id"`
	ExternalUserID *string   `json:"external_user_id,omitempty"`
	Email          *string   `json:"email,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
