package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clearvoice/feedback/internal/idgen"
)

// User is the minimal row this package needs from the users table; the rest
// of a user's profile is owned by whatever package renders it.
type User struct {
	ID              string
	Email           string
	PasswordHash    *string
	EmailVerifiedAt *time.Time
	Name            *string
	CreatedAt       time.Time
}

// Store provides database operations for users, sessions, and memberships.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var u User
	err := s.pool.QueryRow(ctx,
		`SELECT id, email, password_hash, email_verified_at, name, created_at FROM users WHERE email = $1`,
		email,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.EmailVerifiedAt, &u.Name, &u.CreatedAt)
	return u, err
}

func (s *Store) GetUserByID(ctx context.Context, id string) (User, error) {
	var u User
	err := s.pool.QueryRow(ctx,
		`SELECT id, email, password_hash, email_verified_at, name, created_at FROM users WHERE id = $1`,
		id,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.EmailVerifiedAt, &u.Name, &u.CreatedAt)
	return u, err
}

// CreateUser inserts a new user. email must already be lowercased.
func (s *Store) CreateUser(ctx context.Context, email string, passwordHash *string, name *string) (User, error) {
	u := User{ID: idgen.New(idgen.PrefixUser), Email: email, PasswordHash: passwordHash, Name: name}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (id, email, password_hash, name) VALUES ($1, $2, $3, $4) RETURNING created_at`,
		u.ID, u.Email, u.PasswordHash, u.Name,
	).Scan(&u.CreatedAt)
	if err != nil {
		return User{}, fmt.Errorf("inserting user: %w", err)
	}
	return u, nil
}

// MarkEmailVerified sets email_verified_at to now for the given user.
func (s *Store) MarkEmailVerified(ctx context.Context, userID string) error {
	_, err := s.pool.Exec(ctx, `UPDATE users SET email_verified_at = now() WHERE id = $1 AND email_verified_at IS NULL`, userID)
	return err
}

// CreateSession inserts a new session row keyed by a token hash; callers pass
// crypto.HashToken of the issued access JWT, which itself is never persisted.
func (s *Store) CreateSession(ctx context.Context, userID, tokenHash string, expiresAt time.Time) (string, error) {
	id := idgen.New(idgen.PrefixSession)
	_, err := s.pool.Exec(ctx,
		`INSERT INTO sessions (id, user_id, token_hash, expires_at) VALUES ($1, $2, $3, $4)`,
		id, userID, tokenHash, expiresAt,
	)
	if err != nil {
		return "", fmt.Errorf("inserting session: %w", err)
	}
	return id, nil
}

// GetSessionByTokenHash returns the (userID, expiresAt) for a session, or
// pgx.ErrNoRows if none matches.
func (s *Store) GetSessionByTokenHash(ctx context.Context, tokenHash string) (userID string, expiresAt time.Time, err error) {
	err = s.pool.QueryRow(ctx, `SELECT user_id, expires_at FROM sessions WHERE token_hash = $1`, tokenHash).
		Scan(&userID, &expiresAt)
	return
}

func (s *Store) DeleteSessionByTokenHash(ctx context.Context, tokenHash string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE token_hash = $1`, tokenHash)
	return err
}

// MembershipRole returns the caller's role in workspaceID, or pgx.ErrNoRows
// if they are not a member.
func (s *Store) MembershipRole(ctx context.Context, userID string, workspaceID int64) (Role, error) {
	var role string
	err := s.pool.QueryRow(ctx,
		`SELECT role FROM team_memberships WHERE user_id = $1 AND workspace_id = $2`,
		userID, workspaceID,
	).Scan(&role)
	if err != nil {
		return "", err
	}
	return Role(role), nil
}

// WorkspaceIDBySlug resolves a workspace slug to its ID, or pgx.ErrNoRows.
func (s *Store) WorkspaceIDBySlug(ctx context.Context, slug string) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `SELECT id FROM workspaces WHERE slug = $1`, slug).Scan(&id)
	return id, err
}

var ErrNoRows = pgx.ErrNoRows
