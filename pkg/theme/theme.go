// Package theme implements manual theme CRUD (spec §3's Theme entity).
// Automatic clustering is reserved and never runs (spec Non-goals).
package theme

import "time"

// Theme groups related feedback items under a label.
type Theme struct {
	ID            string    `json:"id"`
	WorkspaceID   int64     `json:"workspace_id"`
	Name          string    `json:"name"`
	Description   *string   `json:"description,omitempty"`
	AutoGenerated bool      `json:"auto_generated"`
	ItemCount     int64     `json:"item_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
