package feedback

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clearvoice/feedback/internal/idgen"
)

// ErrAlreadyMerged is returned by Merge when targetID has itself already
// been merged into another item (spec §4.3: "the merge operation asserts
// target.merged_into IS NULL ... inside the same transaction").
var ErrAlreadyMerged = errors.New("target feedback item is already merged")

// ErrMergeCycle is returned by Merge when merging sourceID into targetID
// would create a cycle in the merged_into chain.
var ErrMergeCycle = errors.New("merge would create a cycle")

const itemColumns = `i.id, i.board_id, i.workspace_id, i.end_user_id, i.title, i.description,
	i.status, i.moderation_state, i.source, i.is_hidden, i.theme_id, i.merged_into, i.merged_at,
	i.ai_type, i.ai_product_area, i.ai_urgency, i.ai_confidence, i.ai_sentiment_score,
	i.ai_urgency_keywords, i.ai_summary, i.ai_priority_score, i.ai_status,
	COALESCE(v.total, 0), i.created_at, i.updated_at`

const itemFromJoin = `FROM feedback_items i LEFT JOIN (
	SELECT feedback_id, SUM(weight) AS total FROM votes GROUP BY feedback_id
) v ON v.feedback_id = i.id`

// Store provides database operations for feedback items, votes, comments,
// and tag assignment.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func scanItem(row pgx.Row) (Item, error) {
	var it Item
	err := row.Scan(
		&it.ID, &it.BoardID, &it.WorkspaceID, &it.EndUserID, &it.Title, &it.Description,
		&it.Status, &it.ModerationState, &it.Source, &it.IsHidden, &it.ThemeID, &it.MergedInto, &it.MergedAt,
		&it.AIType, &it.AIProductArea, &it.AIUrgency, &it.AIConfidence, &it.AISentimentScore,
		&it.AIUrgencyKeywords, &it.AISummary, &it.AIPriorityScore, &it.AIStatus,
		&it.VoteCount, &it.CreatedAt, &it.UpdatedAt,
	)
	return it, err
}

// CreateItem inserts a new feedback item.
func (s *Store) CreateItem(ctx context.Context, boardID string, workspaceID int64, endUserID *string, title string, description *string, source Source, moderationState ModerationState) (Item, error) {
	id := idgen.New(idgen.PrefixFeedbackItem)
	query := `INSERT INTO feedback_items (id, board_id, workspace_id, end_user_id, title, description, source, moderation_state)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + itemColumnsNoVotes()

	row := s.pool.QueryRow(ctx, query, id, boardID, workspaceID, endUserID, title, description, source, moderationState)
	return scanItemNoVotes(row)
}

// itemColumnsNoVotes/scanItemNoVotes handle the RETURNING clause of an
// INSERT/UPDATE, where the votes join isn't available; vote_count is always
// 0 for a brand new item and is refreshed by GetByID for an updated one.
func itemColumnsNoVotes() string {
	return `id, board_id, workspace_id, end_user_id, title, description,
		status, moderation_state, source, is_hidden, theme_id, merged_into, merged_at,
		ai_type, ai_product_area, ai_urgency, ai_confidence, ai_sentiment_score,
		ai_urgency_keywords, ai_summary, ai_priority_score, ai_status, created_at, updated_at`
}

func scanItemNoVotes(row pgx.Row) (Item, error) {
	var it Item
	err := row.Scan(
		&it.ID, &it.BoardID, &it.WorkspaceID, &it.EndUserID, &it.Title, &it.Description,
		&it.Status, &it.ModerationState, &it.Source, &it.IsHidden, &it.ThemeID, &it.MergedInto, &it.MergedAt,
		&it.AIType, &it.AIProductArea, &it.AIUrgency, &it.AIConfidence, &it.AISentimentScore,
		&it.AIUrgencyKeywords, &it.AISummary, &it.AIPriorityScore, &it.AIStatus, &it.CreatedAt, &it.UpdatedAt,
	)
	return it, err
}

// GetByID returns a single item with its current vote total.
func (s *Store) GetByID(ctx context.Context, id string) (Item, error) {
	query := `SELECT ` + itemColumns + ` ` + itemFromJoin + ` WHERE i.id = $1`
	return scanItem(s.pool.QueryRow(ctx, query, id))
}

// ListPublic returns approved, non-hidden, non-merged items for a board,
// ordered by vote_count DESC, created_at DESC, per spec §4.3.
func (s *Store) ListPublic(ctx context.Context, boardID string, status string, limit, offset int) ([]Item, error) {
	args := []any{boardID}
	where := `i.board_id = $1 AND i.moderation_state = 'approved' AND i.is_hidden = false AND i.merged_into IS NULL`
	if status != "" {
		args = append(args, status)
		where += fmt.Sprintf(" AND i.status = $%d", len(args))
	}
	args = append(args, limit, offset)
	query := `SELECT ` + itemColumns + ` ` + itemFromJoin + ` WHERE ` + where +
		fmt.Sprintf(` ORDER BY COALESCE(v.total,0) DESC, i.created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing public feedback: %w", err)
	}
	defer rows.Close()
	return scanItems(rows)
}

// ListAdminPendingAI returns up to 200 workspace-scoped items whose AI
// pipeline has never completed, for the "process pending" manual reprocess
// trigger (spec §6.2's POST /ai/process-pending).
func (s *Store) ListAdminPendingAI(ctx context.Context, workspaceID int64) ([]Item, int64, error) {
	query := `SELECT ` + itemColumns + ` ` + itemFromJoin + `
		WHERE i.workspace_id = $1 AND i.merged_into IS NULL AND i.ai_status IN ('pending', 'failed')
		ORDER BY i.created_at ASC LIMIT 200`
	rows, err := s.pool.Query(ctx, query, workspaceID)
	if err != nil {
		return nil, 0, fmt.Errorf("listing pending ai feedback: %w", err)
	}
	defer rows.Close()
	items, err := scanItems(rows)
	return items, int64(len(items)), err
}

// AdminListFilter expresses the admin list's supported filters (spec §4.3).
type AdminListFilter struct {
	Statuses         []string
	ModerationStates []string
	Search           string
	Sort             string // created_at | updated_at | vote_count | title
	Order            string // asc | desc
	Limit            int
	Offset           int
}

var adminSortColumns = map[string]string{
	"created_at": "i.created_at",
	"updated_at": "i.updated_at",
	"vote_count": "COALESCE(v.total,0)",
	"title":      "i.title",
}

// ListAdmin returns workspace-scoped items matching filter, plus the total
// matching count (ignoring limit/offset).
func (s *Store) ListAdmin(ctx context.Context, workspaceID int64, filter AdminListFilter) ([]Item, int64, error) {
	var args []any
	args = append(args, workspaceID)
	where := `i.workspace_id = $1 AND i.merged_into IS NULL`

	if len(filter.Statuses) > 0 {
		args = append(args, filter.Statuses)
		where += fmt.Sprintf(" AND i.status = ANY($%d)", len(args))
	}
	if len(filter.ModerationStates) > 0 {
		args = append(args, filter.ModerationStates)
		where += fmt.Sprintf(" AND i.moderation_state = ANY($%d)", len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		where += fmt.Sprintf(" AND (i.title ILIKE $%d OR i.description ILIKE $%d)", len(args), len(args))
	}

	sortCol, ok := adminSortColumns[filter.Sort]
	if !ok {
		sortCol = adminSortColumns["created_at"]
	}
	order := "DESC"
	if strings.EqualFold(filter.Order, "asc") {
		order = "ASC"
	}

	var total int64
	countQuery := `SELECT count(*) ` + itemFromJoin + ` WHERE ` + where
	if err := s.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting feedback: %w", err)
	}

	args = append(args, filter.Limit, filter.Offset)
	query := `SELECT ` + itemColumns + ` ` + itemFromJoin + ` WHERE ` + where +
		fmt.Sprintf(" ORDER BY %s %s, i.id LIMIT $%d OFFSET $%d", sortCol, order, len(args)-1, len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing admin feedback: %w", err)
	}
	defer rows.Close()

	items, err := scanItems(rows)
	return items, total, err
}

func scanItems(rows pgx.Rows) ([]Item, error) {
	var items []Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning feedback item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// PatchInput carries the optional fields spec §4.3's Patch operation
// accepts; nil means "leave unchanged".
type PatchInput struct {
	Title           *string
	Description     *string
	Status          *string
	ModerationState *string
	IsHidden        *bool
}

// Patch applies a partial update to an item's own columns (not tags).
func (s *Store) Patch(ctx context.Context, id string, in PatchInput) (Item, error) {
	query := `UPDATE feedback_items SET
		title = COALESCE($2, title),
		description = COALESCE($3, description),
		status = COALESCE($4, status),
		moderation_state = COALESCE($5, moderation_state),
		is_hidden = COALESCE($6, is_hidden),
		updated_at = now()
		WHERE id = $1
		RETURNING ` + itemColumnsNoVotes()
	row := s.pool.QueryRow(ctx, query, id, in.Title, in.Description, in.Status, in.ModerationState, in.IsHidden)
	return scanItemNoVotes(row)
}

// ReplaceTags sets id's tag assignments to exactly tagIDs, transactionally.
func (s *Store) ReplaceTags(ctx context.Context, id string, tagIDs []int64) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM feedback_tags WHERE feedback_id = $1`, id); err != nil {
		return fmt.Errorf("clearing tags: %w", err)
	}
	for _, tagID := range tagIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO feedback_tags (feedback_id, tag_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			id, tagID,
		); err != nil {
			return fmt.Errorf("assigning tag: %w", err)
		}
	}
	return tx.Commit(ctx)
}

// ListTags returns every tag assigned to id.
func (s *Store) ListTags(ctx context.Context, id string) ([]Tag, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT t.id, t.workspace_id, t.name, t.color FROM tags t
		 JOIN feedback_tags ft ON ft.tag_id = t.id WHERE ft.feedback_id = $1`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("listing item tags: %w", err)
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

// BulkUpdateRow is the per-item result of a bulk status/moderation/hidden
// update. Each id is applied with its own call to Patch, independently of
// every other id in the batch — there is no shared transaction across rows,
// so a failure partway through the batch leaves earlier ids already
// committed. Per-row atomicity is just each Patch's own single UPDATE
// statement being atomic, not an intentional wrapping transaction (see
// DESIGN.md's bulk-update entry for why this, rather than one transaction
// for the whole batch, is the chosen behavior).
type BulkUpdateRow struct {
	ID    string
	Error string
}

// BulkUpdate applies in to every id in ids independently, returning the
// succeeded and failed IDs separately so one bad id doesn't fail the batch.
func (s *Store) BulkUpdate(ctx context.Context, ids []string, in PatchInput) (succeeded []string, failed []BulkUpdateRow) {
	for _, id := range ids {
		_, err := s.Patch(ctx, id, in)
		if err != nil {
			failed = append(failed, BulkUpdateRow{ID: id, Error: err.Error()})
			continue
		}
		succeeded = append(succeeded, id)
	}
	return succeeded, failed
}

// Vote upserts (feedback_id, end_user_id) idempotently and returns the
// current vote total.
func (s *Store) Vote(ctx context.Context, feedbackID, endUserID string) (int64, error) {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO votes (feedback_id, end_user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		feedbackID, endUserID,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting vote: %w", err)
	}

	var total int64
	err = s.pool.QueryRow(ctx, `SELECT COALESCE(SUM(weight),0) FROM votes WHERE feedback_id = $1`, feedbackID).Scan(&total)
	return total, err
}

// CreateComment inserts a comment. Public callers must pass isInternal=false.
func (s *Store) CreateComment(ctx context.Context, feedbackID string, authorID *string, body string, isInternal bool) (Comment, error) {
	c := Comment{ID: idgen.New(idgen.PrefixComment), FeedbackID: feedbackID, AuthorID: authorID, Body: body, IsInternal: isInternal}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO comments (id, feedback_id, author_id, body, is_internal) VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at, updated_at`,
		c.ID, c.FeedbackID, c.AuthorID, c.Body, c.IsInternal,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return Comment{}, fmt.Errorf("inserting comment: %w", err)
	}
	return c, nil
}

// ListComments returns comments for feedbackID, excluding internal ones
// unless includeInternal is set (admin callers only).
func (s *Store) ListComments(ctx context.Context, feedbackID string, includeInternal bool) ([]Comment, error) {
	query := `SELECT id, feedback_id, author_id, body, is_internal, created_at, updated_at FROM comments WHERE feedback_id = $1`
	if !includeInternal {
		query += ` AND is_internal = false`
	}
	query += ` ORDER BY created_at ASC`

	rows, err := s.pool.Query(ctx, query, feedbackID)
	if err != nil {
		return nil, fmt.Errorf("listing comments: %w", err)
	}
	defer rows.Close()

	var comments []Comment
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.FeedbackID, &c.AuthorID, &c.Body, &c.IsInternal, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning comment: %w", err)
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// Merge moves votes (ignoring conflicts against the target's existing
// per-user uniqueness) and comments from sourceID to targetID, then marks
// sourceID merged. Both of spec §4.3's merge assertions —
// target.merged_into IS NULL and source is not an ancestor of target —
// are re-checked against FOR UPDATE-locked rows inside this same
// transaction, closing the TOCTOU window a separate pre-check would leave
// between validation and commit. Runs in one transaction.
func (s *Store) Merge(ctx context.Context, sourceID, targetID string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning tx: %w", err)
	}
	defer tx.Rollback(ctx)

	cyclic, err := lockAndCheckMergeChain(ctx, tx, sourceID, targetID)
	if err != nil {
		return err
	}
	if cyclic {
		return ErrMergeCycle
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO votes (feedback_id, end_user_id, weight)
		 SELECT $2, end_user_id, weight FROM votes WHERE feedback_id = $1
		 ON CONFLICT (feedback_id, end_user_id) DO NOTHING`,
		sourceID, targetID,
	); err != nil {
		return fmt.Errorf("moving votes: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM votes WHERE feedback_id = $1`, sourceID); err != nil {
		return fmt.Errorf("clearing source votes: %w", err)
	}

	if _, err := tx.Exec(ctx, `UPDATE comments SET feedback_id = $2 WHERE feedback_id = $1`, sourceID, targetID); err != nil {
		return fmt.Errorf("moving comments: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE feedback_items SET merged_into = $2, merged_at = now(), updated_at = now() WHERE id = $1`,
		sourceID, targetID,
	); err != nil {
		return fmt.Errorf("marking source merged: %w", err)
	}

	return tx.Commit(ctx)
}

// lockAndCheckMergeChain asserts target.merged_into IS NULL and
// source.merged_into IS NULL (locking both rows FOR UPDATE so a concurrent
// merge can't change either before commit), then walks targetID's merge
// chain — locking each row it visits — looking for sourceID, per spec
// §4.3's "source is not an ancestor of target" rule.
func lockAndCheckMergeChain(ctx context.Context, tx pgx.Tx, sourceID, targetID string) (bool, error) {
	var targetMergedInto *string
	err := tx.QueryRow(ctx, `SELECT merged_into FROM feedback_items WHERE id = $1 FOR UPDATE`, targetID).Scan(&targetMergedInto)
	if err != nil {
		return false, fmt.Errorf("locking target: %w", err)
	}
	if targetMergedInto != nil {
		return false, ErrAlreadyMerged
	}

	var sourceMergedInto *string
	err = tx.QueryRow(ctx, `SELECT merged_into FROM feedback_items WHERE id = $1 FOR UPDATE`, sourceID).Scan(&sourceMergedInto)
	if err != nil {
		return false, fmt.Errorf("locking source: %w", err)
	}
	if sourceMergedInto != nil {
		return false, ErrAlreadyMerged
	}

	current := targetID
	for i := 0; i < 1000; i++ {
		if current == sourceID {
			return true, nil
		}
		var next *string
		err := tx.QueryRow(ctx, `SELECT merged_into FROM feedback_items WHERE id = $1 FOR UPDATE`, current).Scan(&next)
		if err == pgx.ErrNoRows || next == nil {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("walking merge chain: %w", err)
		}
		current = *next
	}
	return false, fmt.Errorf("merge chain exceeds maximum depth")
}

// UpdateAIFields persists the AI pipeline's output for an item.
type AIUpdate struct {
	Type            *string
	ProductArea     *string
	Urgency         *string
	Confidence      *float64
	SentimentScore  *float64
	UrgencyKeywords []string
	Summary         *string
	PriorityScore   *int
	Status          AIStatus
}

func (s *Store) UpdateAIFields(ctx context.Context, id string, in AIUpdate) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE feedback_items SET
			ai_type = COALESCE($2, ai_type),
			ai_product_area = COALESCE($3, ai_product_area),
			ai_urgency = COALESCE($4, ai_urgency),
			ai_confidence = COALESCE($5, ai_confidence),
			ai_sentiment_score = COALESCE($6, ai_sentiment_score),
			ai_urgency_keywords = COALESCE($7, ai_urgency_keywords),
			ai_summary = COALESCE($8, ai_summary),
			ai_priority_score = COALESCE($9, ai_priority_score),
			ai_status = $10,
			updated_at = now()
		 WHERE id = $1`,
		id, in.Type, in.ProductArea, in.Urgency, in.Confidence, in.SentimentScore,
		in.UrgencyKeywords, in.Summary, in.PriorityScore, in.Status,
	)
	return err
}

// DeleteItem removes a feedback item outright; spec §3 reserves this for
// explicit admin delete (everything else is soft state via status/hidden).
func (s *Store) DeleteItem(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM feedback_items WHERE id = $1`, id)
	return err
}

func (s *Store) SetThemeID(ctx context.Context, id string, themeID *string) error {
	_, err := s.pool.Exec(ctx, `UPDATE feedback_items SET theme_id = $2, updated_at = now() WHERE id = $1`, id, themeID)
	return err
}
