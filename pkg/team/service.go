package team

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/clearvoice/feedback/internal/apperror"
	"github.com/clearvoice/feedback/internal/crypto"
	"github.com/clearvoice/feedback/pkg/auth"
)

// Service implements the RBAC action matrix from spec §4.4: who may invite,
// change roles, remove members, and cancel invitations, plus the
// sole-owner invariant and invitation lifecycle.
type Service struct {
	store     *Store
	authStore *auth.Store
}

func NewService(store *Store, authStore *auth.Store) *Service {
	return &Service{store: store, authStore: authStore}
}

func (s *Service) ListMembers(ctx context.Context, workspaceID int64) ([]Membership, error) {
	return s.store.ListMemberships(ctx, workspaceID)
}

func (s *Service) ListInvitations(ctx context.Context, workspaceID int64) ([]Invitation, error) {
	return s.store.ListInvitations(ctx, workspaceID)
}

// InviteResult is either a freshly created Invitation (plainToken delivered
// out of band) or a direct membership add for an already-registered email.
type InviteResult struct {
	DirectAdd    bool
	Message      string
	MembershipID string
	Invitation   *Invitation
	PlainToken   string
}

// Invite issues an invitation for email+role, or — per spec §4.4's "current
// contract" — adds the membership directly if email already belongs to a
// registered user.
func (s *Service) Invite(ctx context.Context, actorRole auth.Role, workspaceID int64, email, role string) (InviteResult, error) {
	if !auth.IsValidRole(role) || role == string(auth.RoleOwner) {
		return InviteResult{}, apperror.Validation(apperror.CodeValidation, "invalid role")
	}
	if !canInvite(actorRole, auth.Role(role)) {
		return InviteResult{}, apperror.Authorization(apperror.CodeInsufficientPermissions, "insufficient permissions to invite this role")
	}

	email = strings.ToLower(strings.TrimSpace(email))

	if _, err := s.store.GetPendingInvitationByEmail(ctx, workspaceID, email); err == nil {
		return InviteResult{}, apperror.Conflict(apperror.CodePendingInvitation, "a pending invitation already exists for this email")
	} else if err != pgx.ErrNoRows {
		return InviteResult{}, fmt.Errorf("checking pending invitation: %w", err)
	}

	existingUser, err := s.authStore.GetUserByEmail(ctx, email)
	if err == nil {
		if _, err := s.store.GetMembership(ctx, existingUser.ID, workspaceID); err == nil {
			return InviteResult{}, apperror.Conflict(apperror.CodeAlreadyMember, "user is already a member of this workspace")
		}
		if err := s.store.CreateMembership(ctx, existingUser.ID, workspaceID, role); err != nil {
			return InviteResult{}, fmt.Errorf("creating membership: %w", err)
		}
		return InviteResult{DirectAdd: true, Message: "User added to team", MembershipID: existingUser.ID}, nil
	} else if err != auth.ErrNoRows {
		return InviteResult{}, fmt.Errorf("looking up user by email: %w", err)
	}

	token, tokenHash, err := crypto.GenerateOpaqueToken()
	if err != nil {
		return InviteResult{}, fmt.Errorf("generating invitation token: %w", err)
	}

	inv, err := s.store.CreateInvitation(ctx, workspaceID, email, role, tokenHash, "")
	if err != nil {
		return InviteResult{}, err
	}

	return InviteResult{Invitation: &inv, PlainToken: token}, nil
}

// AcceptInvitation resolves a plaintext token to an invitation, validates
// it, and creates the membership.
func (s *Service) AcceptInvitation(ctx context.Context, userID, userEmail, plainToken string) (Membership, Invitation, error) {
	inv, err := s.store.GetInvitationByTokenHash(ctx, crypto.HashToken(plainToken))
	if err == pgx.ErrNoRows {
		return Membership{}, Invitation{}, apperror.NotFound(apperror.CodeInvitationNotFound, "invitation not found")
	}
	if err != nil {
		return Membership{}, Invitation{}, fmt.Errorf("looking up invitation: %w", err)
	}

	if inv.AcceptedAt != nil {
		return Membership{}, Invitation{}, apperror.Conflict(apperror.CodeConflict, "invitation already accepted")
	}
	if !strings.EqualFold(inv.Email, userEmail) {
		return Membership{}, Invitation{}, apperror.Authorization(apperror.CodeEmailMismatch, "invitation email does not match the authenticated account")
	}
	// Checked after email match so a wrong-account accept reports the more
	// informative EMAIL_MISMATCH rather than a generic expiry.
	if time.Now().After(inv.ExpiresAt) {
		return Membership{}, Invitation{}, apperror.Validation(apperror.CodeInvitationExpired, "invitation has expired")
	}

	if err := s.store.CreateMembership(ctx, userID, inv.WorkspaceID, inv.Role); err != nil {
		return Membership{}, Invitation{}, fmt.Errorf("creating membership: %w", err)
	}
	if err := s.store.MarkInvitationAccepted(ctx, inv.ID); err != nil {
		return Membership{}, Invitation{}, fmt.Errorf("marking invitation accepted: %w", err)
	}

	membership, err := s.store.GetMembership(ctx, userID, inv.WorkspaceID)
	if err != nil {
		return Membership{}, Invitation{}, fmt.Errorf("reading new membership: %w", err)
	}
	return membership, inv, nil
}

// CancelInvitation deletes a pending invitation. Requires admin or owner.
func (s *Service) CancelInvitation(ctx context.Context, actorRole auth.Role, workspaceID int64, invitationID string) error {
	if auth.Rank(actorRole) < auth.Rank(auth.RoleAdmin) {
		return apperror.Authorization(apperror.CodeInsufficientPermissions, "admin role required")
	}
	if err := s.store.DeleteInvitation(ctx, workspaceID, invitationID); err != nil {
		if err == pgx.ErrNoRows {
			return apperror.NotFound(apperror.CodeInvitationNotFound, "invitation not found")
		}
		return fmt.Errorf("deleting invitation: %w", err)
	}
	return nil
}

// ChangeRole updates targetUserID's role, enforcing the actor-must-outrank
// rule and the CANNOT_MODIFY_OWNER / CANNOT_MODIFY_SELF guards.
func (s *Service) ChangeRole(ctx context.Context, actorRole auth.Role, actorUserID string, workspaceID int64, targetUserID, newRole string) error {
	if actorUserID == targetUserID {
		return apperror.Authorization(apperror.CodeCannotModifySelf, "cannot change your own role")
	}
	if !auth.IsValidRole(newRole) || newRole == string(auth.RoleOwner) {
		return apperror.Validation(apperror.CodeValidation, "invalid role")
	}

	target, err := s.store.GetMembership(ctx, targetUserID, workspaceID)
	if err == pgx.ErrNoRows {
		return apperror.NotFound(apperror.CodeNotFound, "membership not found")
	}
	if err != nil {
		return fmt.Errorf("looking up membership: %w", err)
	}
	if target.Role == string(auth.RoleOwner) {
		return apperror.Authorization(apperror.CodeCannotModifyOwner, "cannot change the owner's role")
	}
	if auth.Rank(actorRole) < auth.Rank(auth.RoleAdmin) || auth.Rank(actorRole) <= auth.Rank(auth.Role(target.Role)) {
		return apperror.Authorization(apperror.CodeInsufficientPermissions, "insufficient permissions")
	}

	if err := s.store.UpdateMembershipRole(ctx, targetUserID, workspaceID, newRole); err != nil {
		return fmt.Errorf("updating membership role: %w", err)
	}
	return nil
}

// RemoveMember removes targetUserID from workspaceID. Self-removal goes
// through the same sole-owner guard as any other removal.
func (s *Service) RemoveMember(ctx context.Context, actorRole auth.Role, actorUserID string, workspaceID int64, targetUserID string) error {
	target, err := s.store.GetMembership(ctx, targetUserID, workspaceID)
	if err == pgx.ErrNoRows {
		return apperror.NotFound(apperror.CodeNotFound, "membership not found")
	}
	if err != nil {
		return fmt.Errorf("looking up membership: %w", err)
	}

	if target.Role == string(auth.RoleOwner) {
		// Covers both self-removal by the owner and an admin attempting to
		// remove the owner: the sole-owner invariant forbids either.
		return apperror.Authorization(apperror.CodeCannotRemoveOwner, "cannot remove the workspace owner")
	}

	if actorUserID != targetUserID && (auth.Rank(actorRole) < auth.Rank(auth.RoleAdmin) || auth.Rank(actorRole) <= auth.Rank(auth.Role(target.Role))) {
		return apperror.Authorization(apperror.CodeInsufficientPermissions, "insufficient permissions")
	}

	if err := s.store.DeleteMembership(ctx, targetUserID, workspaceID); err != nil {
		return fmt.Errorf("deleting membership: %w", err)
	}
	return nil
}

// canInvite reports whether actorRole may issue an invitation for
// targetRole: owner may invite anything but owner; admin may only invite
// roles ranked strictly below admin; member/viewer may never invite.
func canInvite(actorRole, targetRole auth.Role) bool {
	if auth.Rank(actorRole) < auth.Rank(auth.RoleAdmin) {
		return false
	}
	return auth.Rank(actorRole) > auth.Rank(targetRole)
}
