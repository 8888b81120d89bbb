package refresh

import (
	"context"
	"time"
)

// StoredRefreshToken is the server-side record behind an opaque refresh
// token. The client only ever sees Token.
type StoredRefreshToken struct {
	Token     string    // Random hex string sent to the client
	UserID    string    // Owner
	ExpiresAt time.Time // Expired once ExpiresAt <= now
	CreatedAt time.Time
}

// Expired reports whether the token is past its expiry at now
func (rt *StoredRefreshToken) Expired(now time.Time) bool {
	return !rt.ExpiresAt.After(now)
}

// Repo stores refresh tokens keyed by the token string. Implementations keep
// at most one token per user.
type Repo interface {
	// Replace deletes every token the user holds and stores rt, atomically.
	Replace(ctx context.Context, rt *StoredRefreshToken) error
	// Get returns an error wrapping internal/errors.ErrNotFound when absent.
	Get(ctx context.Context, token string) (*StoredRefreshToken, error)
	GetByUserID(ctx context.Context, userID string) (*StoredRefreshToken, error)
	// Delete is idempotent: deleting a missing token is not an error.
	Delete(ctx context.Context, token string) error
	// DeleteExpired removes every token with ExpiresAt <= now and returns how
	// many were removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
