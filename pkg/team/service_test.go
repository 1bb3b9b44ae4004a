package team

import (
	"context"
	"testing"

	"github.com/clearvoice/feedback/internal/apperror"
	"github.com/clearvoice/feedback/pkg/auth"
)

func TestCanInvite(t *testing.T) {
	tests := []struct {
		actor, target auth.Role
		want          bool
	}{
		{auth.RoleOwner, auth.RoleAdmin, true},
		{auth.RoleOwner, auth.RoleMember, true},
		{auth.RoleOwner, auth.RoleViewer, true},
		{auth.RoleOwner, auth.RoleOwner, false},
		{auth.RoleAdmin, auth.RoleMember, true},
		{auth.RoleAdmin, auth.RoleViewer, true},
		{auth.RoleAdmin, auth.RoleAdmin, false},
		{auth.RoleAdmin, auth.RoleOwner, false},
		{auth.RoleMember, auth.RoleViewer, false},
		{auth.RoleViewer, auth.RoleViewer, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.actor)+"_invites_"+string(tt.target), func(t *testing.T) {
			if got := canInvite(tt.actor, tt.target); got != tt.want {
				t.Errorf("canInvite(%s, %s) = %v, want %v", tt.actor, tt.target, got, tt.want)
			}
		})
	}
}

func TestInvite_RejectsInvalidRole(t *testing.T) {
	s := NewService(nil, nil)

	_, err := s.Invite(context.Background(), auth.RoleOwner, 1, "a@example.com", "bogus-role")
	assertValidationError(t, err)
}

func TestInvite_RejectsInvitingOwner(t *testing.T) {
	s := NewService(nil, nil)

	_, err := s.Invite(context.Background(), auth.RoleOwner, 1, "a@example.com", string(auth.RoleOwner))
	assertValidationError(t, err)
}

func TestInvite_RejectsInsufficientPermissions(t *testing.T) {
	s := NewService(nil, nil)

	_, err := s.Invite(context.Background(), auth.RoleMember, 1, "a@example.com", string(auth.RoleViewer))
	ae, ok := apperror.As(err)
	if !ok || ae.Kind != apperror.KindAuthorization {
		t.Fatalf("Invite() error = %v, want an Authorization error", err)
	}
}

func TestChangeRole_RejectsSelf(t *testing.T) {
	s := NewService(nil, nil)

	err := s.ChangeRole(context.Background(), auth.RoleOwner, "usr_1", 1, "usr_1", string(auth.RoleAdmin))
	ae, ok := apperror.As(err)
	if !ok || ae.Code != apperror.CodeCannotModifySelf {
		t.Fatalf("ChangeRole() error = %v, want CANNOT_MODIFY_SELF", err)
	}
}

func TestChangeRole_RejectsInvalidRole(t *testing.T) {
	s := NewService(nil, nil)

	err := s.ChangeRole(context.Background(), auth.RoleOwner, "usr_1", 1, "usr_2", "bogus")
	assertValidationError(t, err)
}

func TestChangeRole_RejectsPromotingToOwner(t *testing.T) {
	s := NewService(nil, nil)

	err := s.ChangeRole(context.Background(), auth.RoleOwner, "usr_1", 1, "usr_2", string(auth.RoleOwner))
	assertValidationError(t, err)
}

func TestCancelInvitation_RejectsBelowAdmin(t *testing.T) {
	s := NewService(nil, nil)

	err := s.CancelInvitation(context.Background(), auth.RoleMember, 1, "inv_1")
	ae, ok := apperror.As(err)
	if !ok || ae.Kind != apperror.KindAuthorization {
		t.Fatalf("CancelInvitation() error = %v, want an Authorization error", err)
	}
}

func assertValidationError(t *testing.T, err error) {
	t.Helper()
	ae, ok := apperror.As(err)
	if !ok || ae.Kind != apperror.KindValidation {
		t.Fatalf("error = %v, want a Validation error", err)
	}
}
