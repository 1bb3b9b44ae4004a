package team

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clearvoice/feedback/internal/idgen"
)

// Store provides database operations for team memberships and invitations.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const membershipColumns = `tm.user_id, tm.workspace_id, tm.role, u.email, u.name, tm.accepted_at, tm.created_at`

func scanMembership(row pgx.Row) (Membership, error) {
	var m Membership
	err := row.Scan(&m.UserID, &m.WorkspaceID, &m.Role, &m.Email, &m.Name, &m.AcceptedAt, &m.CreatedAt)
	return m, err
}

// ListMemberships returns every member of workspaceID, joined to the user's
// email and name.
func (s *Store) ListMemberships(ctx context.Context, workspaceID int64) ([]Membership, error) {
	query := `SELECT ` + membershipColumns + `
		FROM team_memberships tm JOIN users u ON u.id = tm.user_id
		WHERE tm.workspace_id = $1
		ORDER BY tm.created_at ASC`
	rows, err := s.pool.Query(ctx, query, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("listing memberships: %w", err)
	}
	defer rows.Close()

	var out []Membership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning membership: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// GetMembership returns the membership row for (userID, workspaceID), or
// pgx.ErrNoRows.
func (s *Store) GetMembership(ctx context.Context, userID string, workspaceID int64) (Membership, error) {
	query := `SELECT ` + membershipColumns + `
		FROM team_memberships tm JOIN users u ON u.id = tm.user_id
		WHERE tm.user_id = $1 AND tm.workspace_id = $2`
	return scanMembership(s.pool.QueryRow(ctx, query, userID, workspaceID))
}

// CountOwners returns the number of owner-role memberships in workspaceID.
// Service does not call it: it keeps the sole owner by refusing to change
// the role of, or remove, any owner membership.
func (s *Store) CountOwners(ctx context.Context, workspaceID int64) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM team_memberships WHERE workspace_id = $1 AND role = 'owner'`,
		workspaceID,
	).Scan(&n)
	return n, err
}

// CreateMembership inserts a membership row, e.g. for the workspace creator
// (role=owner) or a direct-add when inviting an already-registered email.
func (s *Store) CreateMembership(ctx context.Context, userID string, workspaceID int64, role string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO team_memberships (user_id, workspace_id, role, accepted_at) VALUES ($1, $2, $3, now())`,
		userID, workspaceID, role,
	)
	return err
}

func (s *Store) UpdateMembershipRole(ctx context.Context, userID string, workspaceID int64, role string) error {
	ct, err := s.pool.Exec(ctx,
		`UPDATE team_memberships SET role = $3 WHERE user_id = $1 AND workspace_id = $2`,
		userID, workspaceID, role,
	)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (s *Store) DeleteMembership(ctx context.Context, userID string, workspaceID int64) error {
	ct, err := s.pool.Exec(ctx,
		`DELETE FROM team_memberships WHERE user_id = $1 AND workspace_id = $2`,
		userID, workspaceID,
	)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

const invitationColumns = `id, workspace_id, email, role, expires_at, accepted_at, created_at`

func scanInvitation(row pgx.Row) (Invitation, error) {
	var inv Invitation
	err := row.Scan(&inv.ID, &inv.WorkspaceID, &inv.Email, &inv.Role, &inv.ExpiresAt, &inv.AcceptedAt, &inv.CreatedAt)
	return inv, err
}

// GetPendingInvitationByEmail returns the unexpired, unaccepted invitation
// for (workspaceID, email), or pgx.ErrNoRows if none.
func (s *Store) GetPendingInvitationByEmail(ctx context.Context, workspaceID int64, email string) (Invitation, error) {
	query := `SELECT ` + invitationColumns + `
		FROM invitations
		WHERE workspace_id = $1 AND lower(email) = lower($2) AND accepted_at IS NULL AND expires_at > now()`
	return scanInvitation(s.pool.QueryRow(ctx, query, workspaceID, email))
}

// CreateInvitation inserts a new invitation, returning the generated ID.
// tokenHash is SHA-256 of the plaintext token delivered out of band.
func (s *Store) CreateInvitation(ctx context.Context, workspaceID int64, email, role, tokenHash string, invitedBy string) (Invitation, error) {
	inv := Invitation{
		ID:          idgen.New(idgen.PrefixInvitation),
		WorkspaceID: workspaceID,
		Email:       email,
		Role:        role,
		ExpiresAt:   time.Now().Add(InvitationTTL),
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO invitations (id, workspace_id, email, role, token_hash, invited_by, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING created_at`,
		inv.ID, inv.WorkspaceID, inv.Email, inv.Role, tokenHash, invitedBy, inv.ExpiresAt,
	).Scan(&inv.CreatedAt)
	if err != nil {
		return Invitation{}, fmt.Errorf("inserting invitation: %w", err)
	}
	return inv, nil
}

// ListInvitations returns every invitation for workspaceID, pending or not.
func (s *Store) ListInvitations(ctx context.Context, workspaceID int64) ([]Invitation, error) {
	query := `SELECT ` + invitationColumns + ` FROM invitations WHERE workspace_id = $1 ORDER BY created_at DESC`
	rows, err := s.pool.Query(ctx, query, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("listing invitations: %w", err)
	}
	defer rows.Close()

	var out []Invitation
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning invitation: %w", err)
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func (s *Store) GetInvitationByID(ctx context.Context, workspaceID int64, id string) (Invitation, error) {
	query := `SELECT ` + invitationColumns + ` FROM invitations WHERE id = $1 AND workspace_id = $2`
	return scanInvitation(s.pool.QueryRow(ctx, query, id, workspaceID))
}

// GetInvitationByTokenHash returns the invitation matching tokenHash
// regardless of workspace, since the acceptance endpoint is workspace-agnostic.
func (s *Store) GetInvitationByTokenHash(ctx context.Context, tokenHash string) (Invitation, error) {
	query := `SELECT ` + invitationColumns + ` FROM invitations WHERE token_hash = $1`
	return scanInvitation(s.pool.QueryRow(ctx, query, tokenHash))
}

func (s *Store) MarkInvitationAccepted(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `UPDATE invitations SET accepted_at = now() WHERE id = $1`, id)
	return err
}

func (s *Store) DeleteInvitation(ctx context.Context, workspaceID int64, id string) error {
	ct, err := s.pool.Exec(ctx, `DELETE FROM invitations WHERE id = $1 AND workspace_id = $2`, id, workspaceID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
