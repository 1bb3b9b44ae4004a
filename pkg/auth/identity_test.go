package auth

import (
	"context"
	"testing"
)

func TestRank(t *testing.T) {
	tests := []struct {
		role Role
		want int
	}{
		{RoleOwner, 3},
		{RoleAdmin, 2},
		{RoleMember, 1},
		{RoleViewer, 0},
		{Role("bogus"), -1},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			if got := Rank(tt.role); got != tt.want {
				t.Errorf("Rank(%q) = %d, want %d", tt.role, got, tt.want)
			}
		})
	}
}

func TestIsValidRole(t *testing.T) {
	tests := []struct {
		role string
		want bool
	}{
		{"owner", true},
		{"admin", true},
		{"member", true},
		{"viewer", true},
		{"superadmin", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			if got := IsValidRole(tt.role); got != tt.want {
				t.Errorf("IsValidRole(%q) = %v, want %v", tt.role, got, tt.want)
			}
		})
	}
}

func TestContext_RoundTrip(t *testing.T) {
	id := &Identity{UserID: "usr_1", Role: RoleAdmin}
	ctx := NewContext(context.Background(), id)

	got := FromContext(ctx)
	if got != id {
		t.Errorf("FromContext() = %+v, want %+v", got, id)
	}
}

func TestFromContext_Empty(t *testing.T) {
	if got := FromContext(context.Background()); got != nil {
		t.Errorf("FromContext() on empty context = %+v, want nil", got)
	}
}
