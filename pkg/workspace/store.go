package workspace

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clearvoice/feedback/internal/idgen"
)

const workspaceColumns = `id, slug, name, settings, created_at, updated_at`
const boardColumns = `id, workspace_id, slug, name, is_public, is_archived, moderation_policy, created_at, updated_at`

// Store provides database operations for workspaces and boards.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func scanWorkspace(row pgx.Row) (Workspace, error) {
	var w Workspace
	var settings []byte
	if err := row.Scan(&w.ID, &w.Slug, &w.Name, &settings, &w.CreatedAt, &w.UpdatedAt); err != nil {
		return Workspace{}, err
	}
	if len(settings) > 0 {
		_ = json.Unmarshal(settings, &w.Settings)
	}
	if w.Settings == nil {
		w.Settings = map[string]any{}
	}
	return w, nil
}

func scanBoard(row pgx.Row) (Board, error) {
	var b Board
	err := row.Scan(&b.ID, &b.WorkspaceID, &b.Slug, &b.Name, &b.IsPublic, &b.IsArchived, &b.ModerationPolicy, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

// GetWorkspaceBySlug returns the workspace with the given slug, or
// pgx.ErrNoRows if none exists.
func (s *Store) GetWorkspaceBySlug(ctx context.Context, slug string) (Workspace, error) {
	query := `SELECT ` + workspaceColumns + ` FROM workspaces WHERE slug = $1`
	return scanWorkspace(s.pool.QueryRow(ctx, query, slug))
}

func (s *Store) GetWorkspaceByID(ctx context.Context, id int64) (Workspace, error) {
	query := `SELECT ` + workspaceColumns + ` FROM workspaces WHERE id = $1`
	return scanWorkspace(s.pool.QueryRow(ctx, query, id))
}

// CreateWorkspace inserts a new workspace. Callers must have already
// validated the slug; ON CONFLICT DO NOTHING lets concurrent
// auto-provisioning attempts race safely, with GetWorkspaceBySlug as the
// fallback read.
func (s *Store) CreateWorkspace(ctx context.Context, slug, name string) (Workspace, error) {
	query := `INSERT INTO workspaces (slug, name, settings) VALUES ($1, $2, '{}')
		ON CONFLICT (slug) DO NOTHING
		RETURNING ` + workspaceColumns

	w, err := scanWorkspace(s.pool.QueryRow(ctx, query, slug, name))
	if err == pgx.ErrNoRows {
		return s.GetWorkspaceBySlug(ctx, slug)
	}
	return w, err
}

// GetOrCreateWorkspace returns the workspace for slug, auto-provisioning it
// with name defaulting to the slug if it does not yet exist.
func (s *Store) GetOrCreateWorkspace(ctx context.Context, slug string) (Workspace, error) {
	w, err := s.GetWorkspaceBySlug(ctx, slug)
	if err == nil {
		return w, nil
	}
	if err != pgx.ErrNoRows {
		return Workspace{}, fmt.Errorf("looking up workspace: %w", err)
	}
	return s.CreateWorkspace(ctx, slug, slug)
}

func (s *Store) GetBoardBySlug(ctx context.Context, workspaceID int64, slug string) (Board, error) {
	query := `SELECT ` + boardColumns + ` FROM boards WHERE workspace_id = $1 AND slug = $2`
	return scanBoard(s.pool.QueryRow(ctx, query, workspaceID, slug))
}

func (s *Store) GetBoardByID(ctx context.Context, id string) (Board, error) {
	query := `SELECT ` + boardColumns + ` FROM boards WHERE id = $1`
	return scanBoard(s.pool.QueryRow(ctx, query, id))
}

func (s *Store) CreateBoard(ctx context.Context, workspaceID int64, slug, name string) (Board, error) {
	id := idgen.New(idgen.PrefixBoard)
	query := `INSERT INTO boards (id, workspace_id, slug, name, moderation_policy) VALUES ($1, $2, $3, $4, 'approved')
		ON CONFLICT (workspace_id, slug) DO NOTHING
		RETURNING ` + boardColumns

	b, err := scanBoard(s.pool.QueryRow(ctx, query, id, workspaceID, slug, name))
	if err == pgx.ErrNoRows {
		return s.GetBoardBySlug(ctx, workspaceID, slug)
	}
	return b, err
}

// GetOrCreateBoard returns the board for (workspaceID, slug), auto-
// provisioning it with name defaulting to the slug if it does not exist.
func (s *Store) GetOrCreateBoard(ctx context.Context, workspaceID int64, slug string) (Board, error) {
	b, err := s.GetBoardBySlug(ctx, workspaceID, slug)
	if err == nil {
		return b, nil
	}
	if err != pgx.ErrNoRows {
		return Board{}, fmt.Errorf("looking up board: %w", err)
	}
	return s.CreateBoard(ctx, workspaceID, slug, slug)
}

func (s *Store) ListBoards(ctx context.Context, workspaceID int64) ([]Board, error) {
	query := `SELECT ` + boardColumns + ` FROM boards WHERE workspace_id = $1 ORDER BY created_at ASC`
	rows, err := s.pool.Query(ctx, query, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("listing boards: %w", err)
	}
	defer rows.Close()

	var boards []Board
	for rows.Next() {
		b, err := scanBoard(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning board: %w", err)
		}
		boards = append(boards, b)
	}
	return boards, rows.Err()
}

func (s *Store) UpdateBoard(ctx context.Context, id string, name *string, isPublic, isArchived *bool) (Board, error) {
	query := `UPDATE boards SET
		name = COALESCE($2, name),
		is_public = COALESCE($3, is_public),
		is_archived = COALESCE($4, is_archived),
		updated_at = now()
		WHERE id = $1
		RETURNING ` + boardColumns
	return scanBoard(s.pool.QueryRow(ctx, query, id, name, isPublic, isArchived))
}
