package sqlrefreshrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/jrsteele09/bookstore-auth/internal/errors"
	"github.com/jrsteele09/bookstore-auth/token/refresh"
)

var _ refresh.Repo = (*Repo)(nil)

// Repo keeps refresh tokens in the refresh_tokens table created by
// internal/database.Migrate. Works with sqlite3 and mysql.
type Repo struct {
	db *sql.DB
}

func New(db *sql.DB) *Repo {
	return &Repo{db: db}
}

// Replace removes the user's tokens and inserts rt in one transaction so the
// user is never left with zero or two tokens.
func (r *Repo) Replace(ctx context.Context, rt *refresh.StoredRefreshToken) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("replace refresh token: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE user_id = ?`, rt.UserID); err != nil {
		return fmt.Errorf("replace refresh token: delete: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO refresh_tokens (token, user_id, expires_at, created_at) VALUES (?, ?, ?, ?)`,
		rt.Token, rt.UserID, rt.ExpiresAt.UnixNano(), rt.CreatedAt.UnixNano(),
	); err != nil {
		return fmt.Errorf("replace refresh token: insert: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("replace refresh token: commit: %w", err)
	}
	return nil
}

func (r *Repo) Get(ctx context.Context, token string) (*refresh.StoredRefreshToken, error) {
	return r.getOne(ctx, `SELECT token, user_id, expires_at, created_at FROM refresh_tokens WHERE token = ?`, token)
}

func (r *Repo) GetByUserID(ctx context.Context, userID string) (*refresh.StoredRefreshToken, error) {
	return r.getOne(ctx, `SELECT token, user_id, expires_at, created_at FROM refresh_tokens WHERE user_id = ?`, userID)
}

func (r *Repo) Delete(ctx context.Context, token string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE token = ?`, token); err != nil {
		return fmt.Errorf("delete refresh token: %w", err)
	}
	return nil
}

func (r *Repo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE expires_at <= ?`, now.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("delete expired refresh tokens: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete expired refresh tokens: rows affected: %w", err)
	}
	return n, nil
}

func (r *Repo) getOne(ctx context.Context, query, arg string) (*refresh.StoredRefreshToken, error) {
	var (
		rt                   refresh.StoredRefreshToken
		expiresAt, createdAt int64
	)
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&rt.Token, &rt.UserID, &expiresAt, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get refresh token: %w", err)
	}
	rt.ExpiresAt = time.Unix(0, expiresAt).UTC()
	rt.CreatedAt = time.Unix(0, createdAt).UTC()
	return &rt, nil
}
