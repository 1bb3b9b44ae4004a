package enduser

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clearvoice/feedback/internal/idgen"
)

const columns = `id, workspace_id, external_user_id, email, created_at`

// Store provides database operations for end users.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func scan(row pgx.Row) (EndUser, error) {
	var u EndUser
	err := row.Scan(&u.ID, &u.WorkspaceID, &u.ExternalUserID, &u.Email, &u.CreatedAt)
	return u, err
}

// GetByExternalID returns the end user for (workspaceID, externalUserID), or
// pgx.ErrNoRows if none exists.
func (s *Store) GetByExternalID(ctx context.Context, workspaceID int64, externalUserID string) (EndUser, error) {
	query := `SELECT ` + columns + ` FROM end_users WHERE workspace_id = $1 AND external_user_id = $2`
	return scan(s.pool.QueryRow(ctx, query, workspaceID, externalUserID))
}

func (s *Store) GetByID(ctx context.Context, id string) (EndUser, error) {
	query := `SELECT ` + columns + ` FROM end_users WHERE id = $1`
	return scan(s.pool.QueryRow(ctx, query, id))
}

// create inserts a new end user row.
func (s *Store) create(ctx context.Context, workspaceID int64, externalUserID *string) (EndUser, error) {
	id := idgen.New(idgen.PrefixEndUser)
	query := `INSERT INTO end_users (id, workspace_id, external_user_id) VALUES ($1, $2, $3)
		ON CONFLICT (workspace_id, external_user_id) DO NOTHING
		RETURNING ` + columns

	u, err := scan(s.pool.QueryRow(ctx, query, id, workspaceID, externalUserID))
	if err == pgx.ErrNoRows && externalUserID != nil {
		return s.GetByExternalID(ctx, workspaceID, *externalUserID)
	}
	return u, err
}

// GetOrCreate upserts the end user identified by externalUserID within
// workspaceID. A blank externalUserID always creates a fresh anonymous row,
// since the unique constraint only applies when external_user_id is set.
func (s *Store) GetOrCreate(ctx context.Context, workspaceID int64, externalUserID string) (EndUser, error) {
	if externalUserID == "" {
		id := idgen.New(idgen.PrefixEndUser)
		query := `INSERT INTO end_users (id, workspace_id, external_user_id) VALUES ($1, $2, NULL) RETURNING ` + columns
		return scan(s.pool.QueryRow(ctx, query, id, workspaceID))
	}

	u, err := s.GetByExternalID(ctx, workspaceID, externalUserID)
	if err == nil {
		return u, nil
	}
	if err != pgx.ErrNoRows {
		return EndUser{}, fmt.Errorf("looking up end user: %w", err)
	}
	return s.create(ctx, workspaceID, &externalUserID)
}
