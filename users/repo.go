package users

import "context"

// UserRepo is the credential store. Email arguments are matched
// case-insensitively. Lookups that find nothing return an error wrapping
// internal/errors.ErrNotFound.
type UserRepo interface {
	// Upsert creates or replaces the user keyed by ID. An empty ID is assigned
	// a new uuid. A second user with an existing email fails with
	// internal/errors.ErrAlreadyExists.
	Upsert(ctx context.Context, user *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	// ExistsByEmail includes soft-deleted records.
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	SetBlocked(ctx context.Context, email string, blocked bool) error
	SoftDelete(ctx context.Context, email string) error
}
