package workspace

import (
	"context"
	"fmt"

	"github.com/clearvoice/feedback/internal/apperror"
)

// Service wraps Store with validation and error-taxonomy mapping.
type Service struct {
	store *Store
}

func NewService(store *Store) *Service {
	return &Service{store: store}
}

// EnsureWorkspaceAndBoard auto-provisions the workspace and board named by
// workspaceSlug/boardSlug on first widget submission, per spec §3's
// "auto-created on first widget submission" lifecycle.
func (s *Service) EnsureWorkspaceAndBoard(ctx context.Context, workspaceSlug, boardSlug string) (Workspace, Board, error) {
	if !ValidSlug(workspaceSlug) {
		return Workspace{}, Board{}, apperror.Validation("VALIDATION_ERROR", "workspace slug must match [A-Za-z0-9_-]{1,100}")
	}
	if !ValidSlug(boardSlug) {
		return Workspace{}, Board{}, apperror.Validation("VALIDATION_ERROR", "board slug must match [A-Za-z0-9_-]{1,100}")
	}

	ws, err := s.store.GetOrCreateWorkspace(ctx, workspaceSlug)
	if err != nil {
		return Workspace{}, Board{}, fmt.Errorf("ensuring workspace: %w", err)
	}

	board, err := s.store.GetOrCreateBoard(ctx, ws.ID, boardSlug)
	if err != nil {
		return Workspace{}, Board{}, fmt.Errorf("ensuring board: %w", err)
	}

	return ws, board, nil
}

func (s *Service) GetWorkspaceBySlug(ctx context.Context, slug string) (Workspace, error) {
	ws, err := s.store.GetWorkspaceBySlug(ctx, slug)
	if err != nil {
		return Workspace{}, apperror.NotFound(apperror.CodeNotFound, "workspace not found")
	}
	return ws, nil
}

func (s *Service) ListBoards(ctx context.Context, workspaceID int64) ([]Board, error) {
	return s.store.ListBoards(ctx, workspaceID)
}

// GetBoardBySlugInWorkspace resolves a board by its slug within a known
// workspace, used by the public widget routes once the workspace itself is
// already resolved.
func (s *Service) GetBoardBySlugInWorkspace(ctx context.Context, workspaceID int64, slug string) (Board, error) {
	b, err := s.store.GetBoardBySlug(ctx, workspaceID, slug)
	if err != nil {
		return Board{}, apperror.NotFound(apperror.CodeNotFound, "board not found")
	}
	return b, nil
}

func (s *Service) GetBoard(ctx context.Context, id string) (Board, error) {
	b, err := s.store.GetBoardByID(ctx, id)
	if err != nil {
		return Board{}, apperror.NotFound(apperror.CodeNotFound, "board not found")
	}
	return b, nil
}

type UpdateBoardInput struct {
	Name       *string
	IsPublic   *bool
	IsArchived *bool
}

func (s *Service) UpdateBoard(ctx context.Context, id string, in UpdateBoardInput) (Board, error) {
	b, err := s.store.UpdateBoard(ctx, id, in.Name, in.IsPublic, in.IsArchived)
	if err != nil {
		return Board{}, apperror.NotFound(apperror.CodeNotFound, "board not found")
	}
	return b, nil
}
