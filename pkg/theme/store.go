package theme

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clearvoice/feedback/internal/idgen"
)

const columns = `t.id, t.workspace_id, t.name, t.description, t.auto_generated,
	COALESCE(fi.item_count, 0), t.created_at, t.updated_at`

const fromJoin = `FROM themes t LEFT JOIN (
	SELECT theme_id, count(*) AS item_count FROM feedback_items WHERE theme_id IS NOT NULL GROUP BY theme_id
) fi ON fi.theme_id = t.id`

// Store provides database operations for themes.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func scan(row pgx.Row) (Theme, error) {
	var t Theme
	err := row.Scan(&t.ID, &t.WorkspaceID, &t.Name, &t.Description, &t.AutoGenerated, &t.ItemCount, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

// List returns every theme in workspaceID, item counts included.
func (s *Store) List(ctx context.Context, workspaceID int64) ([]Theme, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+columns+` `+fromJoin+` WHERE t.workspace_id = $1 ORDER BY t.name ASC`, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("listing themes: %w", err)
	}
	defer rows.Close()

	var out []Theme
	for rows.Next() {
		t, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning theme: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Get returns one theme scoped to workspaceID.
func (s *Store) Get(ctx context.Context, workspaceID int64, id string) (Theme, error) {
	return scan(s.pool.QueryRow(ctx, `SELECT `+columns+` `+fromJoin+` WHERE t.id = $1 AND t.workspace_id = $2`, id, workspaceID))
}

// Create inserts a manually-created theme (auto_generated is always false
// here; the reserved clustering job is the only would-be caller that sets
// it true, and it never runs).
func (s *Store) Create(ctx context.Context, workspaceID int64, name string, description *string) (Theme, error) {
	id := idgen.New(idgen.PrefixTheme)
	var t Theme
	err := s.pool.QueryRow(ctx,
		`INSERT INTO themes (id, workspace_id, name, description) VALUES ($1, $2, $3, $4)
		 RETURNING id, workspace_id, name, description, auto_generated, created_at, updated_at`,
		id, workspaceID, name, description,
	).Scan(&t.ID, &t.WorkspaceID, &t.Name, &t.Description, &t.AutoGenerated, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return Theme{}, fmt.Errorf("inserting theme: %w", err)
	}
	return t, nil
}

// Update applies a partial update to a theme's name/description.
func (s *Store) Update(ctx context.Context, workspaceID int64, id string, name, description *string) (Theme, error) {
	_, err := s.pool.Exec(ctx,
		`UPDATE themes SET name = COALESCE($3, name), description = COALESCE($4, description), updated_at = now()
		 WHERE id = $1 AND workspace_id = $2`,
		id, workspaceID, name, description,
	)
	if err != nil {
		return Theme{}, fmt.Errorf("updating theme: %w", err)
	}
	return s.Get(ctx, workspaceID, id)
}

// Delete removes a theme; feedback_items.theme_id is nulled via the FK's
// ON DELETE SET NULL so affected items simply lose their theme assignment.
func (s *Store) Delete(ctx context.Context, workspaceID int64, id string) error {
	ct, err := s.pool.Exec(ctx, `DELETE FROM themes WHERE id = $1 AND workspace_id = $2`, id, workspaceID)
	if err != nil {
		return fmt.Errorf("deleting theme: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
