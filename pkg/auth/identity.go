// Package auth resolves the authenticated caller for a request (bearer →
// session → user → workspace membership → role) and provides the RBAC
// middleware every workspace-scoped route is built on.
package auth

import (
	"context"
)

// Role is one of the four membership ranks, ordered owner > admin > member > viewer.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
	RoleViewer Role = "viewer"
)

// roleRank expresses role as a minimum-comparable integer: owner=3, admin=2,
// member=1, viewer=0.
var roleRank = map[Role]int{
	RoleOwner:  3,
	RoleAdmin:  2,
	RoleMember: 1,
	RoleViewer: 0,
}

// Rank returns r's numeric privilege rank, or -1 if r is not a known role.
func Rank(r Role) int {
	v, ok := roleRank[r]
	if !ok {
		return -1
	}
	return v
}

// IsValidRole reports whether role is a recognized membership role.
func IsValidRole(role string) bool {
	_, ok := roleRank[Role(role)]
	return ok
}

// Identity represents the authenticated caller for the current request.
type Identity struct {
	UserID string
	Email  string
	Name   string

	// WorkspaceID and Role are populated once a workspace-scoped route has
	// resolved membership; both are zero-valued for routes that only need
	// the caller's identity (e.g. GET /me).
	WorkspaceID int64
	Role        Role
}

type ctxKey string

const identityKey ctxKey = "clearvoice_identity"

// NewContext stores the identity in the context.
func NewContext(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// FromContext extracts the identity from the context. Returns nil if none is set.
func FromContext(ctx context.Context) *Identity {
	v, _ := ctx.Value(identityKey).(*Identity)
	return v
}
