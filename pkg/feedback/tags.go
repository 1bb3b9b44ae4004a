package feedback

import (
	"context"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5"
)

var colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// ValidColor reports whether color matches the #RRGGBB grammar.
func ValidColor(color string) bool {
	return colorPattern.MatchString(color)
}

// ListTagsForWorkspace returns every tag defined in workspaceID.
func (s *Store) ListTagsForWorkspace(ctx context.Context, workspaceID int64) ([]Tag, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, workspace_id, name, color FROM tags WHERE workspace_id = $1 ORDER BY name ASC`, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}
	defer rows.Close()

	var tags []Tag
	for rows.Next() {
		var t Tag
		if err := rows.Scan(&t.ID, &t.WorkspaceID, &t.Name, &t.Color); err != nil {
			return nil, fmt.Errorf("scanning tag: %w", err)
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// CreateTag inserts a new tag for workspaceID.
func (s *Store) CreateTag(ctx context.Context, workspaceID int64, name, color string) (Tag, error) {
	t := Tag{WorkspaceID: workspaceID, Name: name, Color: color}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO tags (workspace_id, name, color) VALUES ($1, $2, $3) RETURNING id`,
		workspaceID, name, color,
	).Scan(&t.ID)
	if err != nil {
		return Tag{}, fmt.Errorf("inserting tag: %w", err)
	}
	return t, nil
}

// UpdateTag applies a partial update to a tag scoped to workspaceID.
func (s *Store) UpdateTag(ctx context.Context, workspaceID, id int64, name, color *string) (Tag, error) {
	var t Tag
	err := s.pool.QueryRow(ctx,
		`UPDATE tags SET name = COALESCE($3, name), color = COALESCE($4, color)
		 WHERE id = $1 AND workspace_id = $2
		 RETURNING id, workspace_id, name, color`,
		id, workspaceID, name, color,
	).Scan(&t.ID, &t.WorkspaceID, &t.Name, &t.Color)
	return t, err
}

// DeleteTag removes a tag scoped to workspaceID; the feedback_tags join rows
// are dropped automatically via the FK's ON DELETE CASCADE, re-pointing
// every assignment to "untagged" per spec §3's tag deletion rule.
func (s *Store) DeleteTag(ctx context.Context, workspaceID, id int64) error {
	ct, err := s.pool.Exec(ctx, `DELETE FROM tags WHERE id = $1 AND workspace_id = $2`, id, workspaceID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
