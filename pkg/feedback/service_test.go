package feedback

import (
	"context"
	"strings"
	"testing"

	"github.com/clearvoice/feedback/internal/apperror"
)

func TestCreate_RejectsInvalidTitle(t *testing.T) {
	s := NewService(nil, nil, nil, nil)

	tests := []struct {
		name  string
		title string
	}{
		{"empty", ""},
		{"too long", strings.Repeat("a", titleMaxLen+1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Create(context.Background(), "acme", "feature-requests", CreateInput{Title: tt.title})
			assertValidation(t, err)
		})
	}
}

func TestCreate_RejectsOversizedDescription(t *testing.T) {
	s := NewService(nil, nil, nil, nil)

	_, err := s.Create(context.Background(), "acme", "feature-requests", CreateInput{
		Title:       "ok",
		Description: strings.Repeat("a", descriptionMaxLen+1),
	})
	assertValidation(t, err)
}

func TestCreate_RejectsOversizedExternalUserID(t *testing.T) {
	s := NewService(nil, nil, nil, nil)

	_, err := s.Create(context.Background(), "acme", "feature-requests", CreateInput{
		Title:          "ok",
		ExternalUserID: strings.Repeat("a", externalUserMaxLen+1),
	})
	assertValidation(t, err)
}

func TestVote_RequiresExternalUserID(t *testing.T) {
	s := NewService(nil, nil, nil, nil)

	_, err := s.Vote(context.Background(), "acme", "feature-requests", "fb_1", "")
	assertValidation(t, err)
}

func TestCreateComment_RequiresBody(t *testing.T) {
	s := NewService(nil, nil, nil, nil)

	_, err := s.CreateComment(context.Background(), "fb_1", nil, "", false)
	assertValidation(t, err)
}

func TestListAdmin_RejectsOversizedSearch(t *testing.T) {
	s := NewService(nil, nil, nil, nil)

	_, _, err := s.ListAdmin(context.Background(), 1, AdminListFilter{Search: strings.Repeat("a", searchMaxLen+1)})
	assertValidation(t, err)
}

func TestPatch_RejectsInvalidStatus(t *testing.T) {
	s := NewService(nil, nil, nil, nil)

	bogus := "not-a-status"
	_, err := s.Patch(context.Background(), 1, "fb_1", PatchTagsInput{PatchInput: PatchInput{Status: &bogus}})
	assertValidation(t, err)
}

func TestPatch_RejectsInvalidModerationState(t *testing.T) {
	s := NewService(nil, nil, nil, nil)

	bogus := "not-a-state"
	_, err := s.Patch(context.Background(), 1, "fb_1", PatchTagsInput{PatchInput: PatchInput{ModerationState: &bogus}})
	assertValidation(t, err)
}

func TestBulkUpdate_RejectsEmptyIDs(t *testing.T) {
	s := NewService(nil, nil, nil, nil)

	_, err := s.BulkUpdate(context.Background(), 1, BulkPatchInput{})
	assertValidation(t, err)
}

func TestBulkUpdate_RejectsTooManyIDs(t *testing.T) {
	s := NewService(nil, nil, nil, nil)

	ids := make([]string, 101)
	for i := range ids {
		ids[i] = "fb_x"
	}
	hidden := true
	_, err := s.BulkUpdate(context.Background(), 1, BulkPatchInput{IDs: ids, IsHidden: &hidden})
	assertValidation(t, err)
}

func TestBulkUpdate_RejectsNoUpdateFields(t *testing.T) {
	s := NewService(nil, nil, nil, nil)

	_, err := s.BulkUpdate(context.Background(), 1, BulkPatchInput{IDs: []string{"fb_1"}})
	assertValidation(t, err)
}

func TestMerge_RejectsSelfMerge(t *testing.T) {
	s := NewService(nil, nil, nil, nil)

	err := s.Merge(context.Background(), 1, "fb_1", "fb_1")
	assertValidation(t, err)
}

func assertValidation(t *testing.T, err error) {
	t.Helper()
	ae, ok := apperror.As(err)
	if !ok || ae.Kind != apperror.KindValidation {
		t.Fatalf("error = %v, want a Validation error", err)
	}
}
