package sqluserrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/bookstore-auth/internal/database"
	apperrors "github.com/jrsteele09/bookstore-auth/internal/errors"
	"github.com/jrsteele09/bookstore-auth/users"
)

var _ users.UserRepo = (*Repo)(nil)

const userColumns = `id, email, password_hash, name, role, blocked, phone, address, position, department, created_at, updated_at, deleted_at`

// Repo stores users in a sqlite3 or mysql database migrated with
// internal/database.Migrate. Timestamps are unix nanoseconds.
type Repo struct {
	db *sql.DB
}

func New(db *sql.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) Upsert(ctx context.Context, user *users.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	user.Email = users.NormaliseEmail(user.Email)
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = user.CreatedAt
	}

	var phone, address, position, department sql.NullString
	if user.Customer != nil {
		phone = nullString(user.Customer.Phone)
		address = nullString(user.Customer.Address)
	}
	if user.Staff != nil {
		position = nullString(user.Staff.Position)
		department = nullString(user.Staff.Department)
	}
	var deletedAt sql.NullInt64
	if user.DeletedAt != nil {
		deletedAt = sql.NullInt64{Int64: user.DeletedAt.UnixNano(), Valid: true}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("upsert user: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		UPDATE users SET email = ?, password_hash = ?, name = ?, role = ?, blocked = ?,
			phone = ?, address = ?, position = ?, department = ?, created_at = ?, updated_at = ?, deleted_at = ?
		WHERE id = ?`,
		user.Email, user.PasswordHash, user.Name, string(user.Role), user.Blocked,
		phone, address, position, department, user.CreatedAt.UnixNano(), user.UpdatedAt.UnixNano(), deletedAt,
		user.ID,
	)
	if err != nil {
		return r.mapWriteErr(err, user.Email)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO users (`+userColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			user.ID, user.Email, user.PasswordHash, user.Name, string(user.Role), user.Blocked,
			phone, address, position, department, user.CreatedAt.UnixNano(), user.UpdatedAt.UnixNano(), deletedAt,
		); err != nil {
			return r.mapWriteErr(err, user.Email)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("upsert user: commit: %w", err)
	}
	return nil
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, users.NormaliseEmail(email))
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.Wrapf(apperrors.ErrNotFound, "user %s", email)
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

func (r *Repo) GetByID(ctx context.Context, id string) (*users.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.Wrapf(apperrors.ErrNotFound, "user id %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return u, nil
}

func (r *Repo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM users WHERE email = ?`, users.NormaliseEmail(email)).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("exists by email: %w", err)
	}
	return n > 0, nil
}

func (r *Repo) SetBlocked(ctx context.Context, email string, blocked bool) error {
	return r.updateByEmail(ctx, email,
		`UPDATE users SET blocked = ?, updated_at = ? WHERE email = ?`,
		blocked, time.Now().UnixNano(), users.NormaliseEmail(email))
}

func (r *Repo) SoftDelete(ctx context.Context, email string) error {
	now := time.Now().UnixNano()
	return r.updateByEmail(ctx, email,
		`UPDATE users SET deleted_at = COALESCE(deleted_at, ?), updated_at = ? WHERE email = ?`,
		now, now, users.NormaliseEmail(email))
}

func (r *Repo) updateByEmail(ctx context.Context, email, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update user %s: %w", email, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user %s: rows affected: %w", email, err)
	}
	if n == 0 {
		return apperrors.Wrapf(apperrors.ErrNotFound, "user %s", email)
	}
	return nil
}

func (r *Repo) mapWriteErr(err error, email string) error {
	if database.IsUniqueViolation(err) {
		return apperrors.Wrapf(apperrors.ErrAlreadyExists, "user %s", email)
	}
	return fmt.Errorf("upsert user %s: %w", email, err)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner) (*users.User, error) {
	var (
		u                                     users.User
		role                                  string
		phone, address, position, department sql.NullString
		createdAt, updatedAt                  int64
		deletedAt                             sql.NullInt64
	)
	if err := s.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &role, &u.Blocked,
		&phone, &address, &position, &department, &createdAt, &updatedAt, &deletedAt); err != nil {
		return nil, err
	}

	u.Role = users.Role(role)
	u.CreatedAt = time.Unix(0, createdAt).UTC()
	u.UpdatedAt = time.Unix(0, updatedAt).UTC()
	if deletedAt.Valid {
		t := time.Unix(0, deletedAt.Int64).UTC()
		u.DeletedAt = &t
	}
	if phone.Valid || address.Valid {
		u.Customer = &users.CustomerProfile{Phone: phone.String, Address: address.String}
	}
	if position.Valid || department.Valid {
		u.Staff = &users.StaffProfile{Position: position.String, Department: department.String}
	}
	return &u, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
