// Package team manages TeamMembership and Invitation: the RBAC action
// matrix, invite/accept/revoke flows, and the sole-owner invariant.
package team

import "time"

// Membership is one user's role within one workspace.
type Membership struct {
	UserID      string     `json:"user_id"`
	WorkspaceID int64      `json:"workspace_id"`
	Role        string     `json:"role"`
	Email       string     `json:"email"`
	Name        *string    `json:"name,omitempty"`
	AcceptedAt  *time.Time `json:"accepted_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Invitation is a pending or consumed invite to join a workspace.
type Invitation struct {
	ID          string     `json:"id"`
	WorkspaceID int64      `json:"workspace_id"`
	Email       string     `json:"email"`
	Role        string     `json:"role"`
	ExpiresAt   time.Time  `json:"expires_at"`
	AcceptedAt  *time.Time `json:"accepted_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// InvitationTTL is how long a plaintext token remains acceptable before it
// must be reissued, per spec §4.4's now+7d expiry.
const InvitationTTL = 7 * 24 * time.Hour
