package feedback

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/clearvoice/feedback/internal/apperror"
	"github.com/clearvoice/feedback/pkg/enduser"
	"github.com/clearvoice/feedback/pkg/queue"
	"github.com/clearvoice/feedback/pkg/workspace"
)

const (
	titleMaxLen        = 160
	descriptionMaxLen  = 4000
	externalUserMaxLen = 100
	searchMaxLen       = 200
	publicListLimit    = 50
)

// Service implements spec §4.3's feedback aggregate operations, wiring the
// store to workspace auto-provisioning, end user upsert, and AI job
// enqueueing.
type Service struct {
	store     *Store
	workspace *workspace.Service
	endUsers  *enduser.Store
	queue     queue.Backend
}

func NewService(store *Store, ws *workspace.Service, endUsers *enduser.Store, q queue.Backend) *Service {
	return &Service{store: store, workspace: ws, endUsers: endUsers, queue: q}
}

// CreateInput is the public submission payload.
type CreateInput struct {
	Title          string
	Description    string
	ExternalUserID string
}

// Create auto-provisions the workspace+board, upserts the end user, inserts
// the item with source=widget, and enqueues the full AI pipeline.
func (s *Service) Create(ctx context.Context, workspaceSlug, boardSlug string, in CreateInput) (Item, error) {
	if len(in.Title) < 1 || len(in.Title) > titleMaxLen {
		return Item{}, apperror.Validation(apperror.CodeValidation, fmt.Sprintf("title must be 1..%d characters", titleMaxLen))
	}
	if len(in.Description) > descriptionMaxLen {
		return Item{}, apperror.Validation(apperror.CodeValidation, fmt.Sprintf("description must be at most %d characters", descriptionMaxLen))
	}
	if len(in.ExternalUserID) > externalUserMaxLen {
		return Item{}, apperror.Validation(apperror.CodeValidation, fmt.Sprintf("externalUserId must be at most %d characters", externalUserMaxLen))
	}

	ws, board, err := s.workspace.EnsureWorkspaceAndBoard(ctx, workspaceSlug, boardSlug)
	if err != nil {
		return Item{}, err
	}
	if board.IsArchived {
		return Item{}, apperror.Validation(apperror.CodeValidation, "board is archived and accepts no writes")
	}

	eu, err := s.endUsers.GetOrCreate(ctx, ws.ID, in.ExternalUserID)
	if err != nil {
		return Item{}, fmt.Errorf("upserting end user: %w", err)
	}

	var description *string
	if in.Description != "" {
		description = &in.Description
	}

	moderation := ModerationState(board.ModerationPolicy)
	if !ValidModerationState(string(moderation)) {
		moderation = ModerationApproved
	}

	item, err := s.store.CreateItem(ctx, board.ID, ws.ID, &eu.ID, in.Title, description, SourceWidget, moderation)
	if err != nil {
		return Item{}, fmt.Errorf("creating feedback item: %w", err)
	}

	if s.queue != nil {
		job := queue.NewJob(item.ID, ws.ID, queue.FullPipeline(), 0)
		if err := s.queue.Send(ctx, job); err != nil {
			return Item{}, fmt.Errorf("enqueueing ai pipeline job: %w", err)
		}
	}

	return item, nil
}

// ListPublic returns the public, vote-sorted feed for a board.
func (s *Service) ListPublic(ctx context.Context, workspaceSlug, boardSlug, status string, limit, offset int) ([]Item, error) {
	ws, err := s.workspace.GetWorkspaceBySlug(ctx, workspaceSlug)
	if err != nil {
		return nil, err
	}
	board, err := s.workspace.GetBoardBySlugInWorkspace(ctx, ws.ID, boardSlug)
	if err != nil {
		return nil, err
	}

	if limit <= 0 || limit > publicListLimit {
		limit = publicListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.ListPublic(ctx, board.ID, status, limit, offset)
}

// Vote records an idempotent vote and returns the current total.
func (s *Service) Vote(ctx context.Context, workspaceSlug, boardSlug, itemID, externalUserID string) (int64, error) {
	if externalUserID == "" {
		return 0, apperror.Validation(apperror.CodeValidation, "externalUserId is required")
	}
	ws, err := s.workspace.GetWorkspaceBySlug(ctx, workspaceSlug)
	if err != nil {
		return 0, err
	}
	eu, err := s.endUsers.GetOrCreate(ctx, ws.ID, externalUserID)
	if err != nil {
		return 0, fmt.Errorf("upserting end user: %w", err)
	}

	item, err := s.store.GetByID(ctx, itemID)
	if err != nil {
		return 0, apperror.NotFound(apperror.CodeNotFound, "feedback item not found")
	}
	if item.WorkspaceID != ws.ID {
		return 0, apperror.NotFound(apperror.CodeNotFound, "feedback item not found")
	}

	return s.store.Vote(ctx, itemID, eu.ID)
}

// CreateComment creates a comment. Public callers must not set isInternal.
func (s *Service) CreateComment(ctx context.Context, itemID string, authorID *string, body string, isInternal bool) (Comment, error) {
	if body == "" {
		return Comment{}, apperror.Validation(apperror.CodeValidation, "content is required")
	}
	if _, err := s.store.GetByID(ctx, itemID); err != nil {
		return Comment{}, apperror.NotFound(apperror.CodeNotFound, "feedback item not found")
	}
	return s.store.CreateComment(ctx, itemID, authorID, body, isInternal)
}

func (s *Service) GetByID(ctx context.Context, workspaceID int64, id string) (Item, error) {
	item, err := s.store.GetByID(ctx, id)
	if err == pgx.ErrNoRows || (err == nil && item.WorkspaceID != workspaceID) {
		return Item{}, apperror.NotFound(apperror.CodeNotFound, "feedback item not found")
	}
	if err != nil {
		return Item{}, fmt.Errorf("loading feedback item: %w", err)
	}
	tags, err := s.store.ListTags(ctx, id)
	if err != nil {
		return Item{}, fmt.Errorf("loading tags: %w", err)
	}
	item.Tags = tags
	return item, nil
}

// ListAdmin returns the admin feedback list for workspaceID.
func (s *Service) ListAdmin(ctx context.Context, workspaceID int64, filter AdminListFilter) ([]Item, int64, error) {
	if len(filter.Search) > searchMaxLen {
		return nil, 0, apperror.Validation(apperror.CodeValidation, fmt.Sprintf("search must be at most %d characters", searchMaxLen))
	}
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 50
	}
	if filter.Offset < 0 || filter.Offset > 10000 {
		filter.Offset = 0
	}
	return s.store.ListAdmin(ctx, workspaceID, filter)
}

// PatchTagsInput mirrors PatchInput plus the optional tag-replacement set.
type PatchTagsInput struct {
	PatchInput
	TagIDs []int64
}

// Patch applies the admin partial update, replacing tags transactionally
// when TagIDs is non-nil.
func (s *Service) Patch(ctx context.Context, workspaceID int64, id string, in PatchTagsInput) (Item, error) {
	if in.Status != nil && !ValidStatus(*in.Status) {
		return Item{}, apperror.Validation(apperror.CodeValidation, "invalid status")
	}
	if in.ModerationState != nil && !ValidModerationState(*in.ModerationState) {
		return Item{}, apperror.Validation(apperror.CodeValidation, "invalid moderation_state")
	}

	existing, err := s.store.GetByID(ctx, id)
	if err != nil || existing.WorkspaceID != workspaceID {
		return Item{}, apperror.NotFound(apperror.CodeNotFound, "feedback item not found")
	}

	item, err := s.store.Patch(ctx, id, in.PatchInput)
	if err != nil {
		return Item{}, fmt.Errorf("patching feedback item: %w", err)
	}

	if in.TagIDs != nil {
		if err := s.store.ReplaceTags(ctx, id, in.TagIDs); err != nil {
			return Item{}, fmt.Errorf("replacing tags: %w", err)
		}
	}
	tags, err := s.store.ListTags(ctx, id)
	if err == nil {
		item.Tags = tags
	}
	return item, nil
}

// BulkResult is the wire shape for the bulk update response.
type BulkResult struct {
	Succeeded []string        `json:"succeeded"`
	Failed    []BulkUpdateRow `json:"failed"`
}

// BulkPatchInput is the body of POST /feedback/bulk.
type BulkPatchInput struct {
	IDs             []string
	Status          *string
	ModerationState *string
	IsHidden        *bool
}

// BulkUpdate applies an atomic-per-row update to every id in in.IDs scoped
// to workspaceID; ids outside the workspace are reported as failed rather
// than silently skipped.
func (s *Service) BulkUpdate(ctx context.Context, workspaceID int64, in BulkPatchInput) (BulkResult, error) {
	if len(in.IDs) < 1 || len(in.IDs) > 100 {
		return BulkResult{}, apperror.Validation(apperror.CodeValidation, "ids must contain between 1 and 100 entries")
	}
	if in.Status == nil && in.ModerationState == nil && in.IsHidden == nil {
		return BulkResult{}, apperror.Validation(apperror.CodeValidation, "at least one update field is required")
	}

	patch := PatchInput{Status: in.Status, ModerationState: in.ModerationState, IsHidden: in.IsHidden}

	var scopedIDs []string
	var result BulkResult
	for _, id := range in.IDs {
		item, err := s.store.GetByID(ctx, id)
		if err != nil || item.WorkspaceID != workspaceID {
			result.Failed = append(result.Failed, BulkUpdateRow{ID: id, Error: "not found in this workspace"})
			continue
		}
		scopedIDs = append(scopedIDs, id)
	}

	succeeded, failed := s.store.BulkUpdate(ctx, scopedIDs, patch)
	result.Succeeded = append(result.Succeeded, succeeded...)
	result.Failed = append(result.Failed, failed...)
	return result, nil
}

// Merge moves votes/comments from sourceID to targetID and marks sourceID
// merged, rejecting the operation if it would form a cycle.
func (s *Service) Merge(ctx context.Context, workspaceID int64, sourceID, targetID string) error {
	if sourceID == targetID {
		return apperror.Validation(apperror.CodeValidation, "cannot merge an item into itself")
	}

	source, err := s.store.GetByID(ctx, sourceID)
	if err != nil || source.WorkspaceID != workspaceID {
		return apperror.NotFound(apperror.CodeNotFound, "source feedback item not found")
	}
	target, err := s.store.GetByID(ctx, targetID)
	if err != nil || target.WorkspaceID != workspaceID {
		return apperror.NotFound(apperror.CodeNotFound, "target feedback item not found")
	}

	// target.merged_into IS NULL and the ancestor-cycle check both happen
	// inside Store.Merge's transaction, under FOR UPDATE locks, so there is
	// no gap between validation and commit for a concurrent merge to widen.
	if err := s.store.Merge(ctx, sourceID, targetID); err != nil {
		if errors.Is(err, ErrMergeCycle) {
			return apperror.Conflict(apperror.CodeConflict, "merge would create a cycle")
		}
		if errors.Is(err, ErrAlreadyMerged) {
			return apperror.Conflict(apperror.CodeAlreadyMerged, "feedback item is already merged")
		}
		return fmt.Errorf("merging feedback items: %w", err)
	}
	return nil
}
