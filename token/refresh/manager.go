package refresh

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/jrsteele09/bookstore-auth/internal/errors"
)

// DefaultTokenLength is 32 bytes = 256 bits of randomness
const DefaultTokenLength = 32

var ErrExpired = errors.New("refresh token expired")

// Manager handles refresh token issue, lookup, expiry and revocation.
//
// Per user the lifecycle is NONE -> ACTIVE (Issue) -> EXPIRED (time passes)
// -> NONE (CheckNotExpired, Revoke or SweepExpired). Issuing again from any
// state replaces whatever the user held.
type Manager struct {
	repo        Repo
	ttl         time.Duration
	tokenLength int
	nowFunc     func() time.Time
}

type ManagerOption func(*Manager)

func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

func WithTokenLength(n int) ManagerOption {
	return func(m *Manager) {
		m.tokenLength = n
	}
}

// NewManager creates a new refresh token manager. A negative ttl is allowed
// and issues tokens that are already expired.
func NewManager(repo Repo, ttl time.Duration, options ...ManagerOption) *Manager {
	m := &Manager{
		repo:        repo,
		ttl:         ttl,
		tokenLength: DefaultTokenLength,
		nowFunc:     time.Now,
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

// Issue creates a fresh token for userID, replacing any token the user
// already holds.
func (m *Manager) Issue(ctx context.Context, userID string) (*StoredRefreshToken, error) {
	if userID == "" {
		return nil, errors.New("refresh.Issue: user id is required")
	}

	tokenBytes := make([]byte, m.tokenLength)
	if _, err := rand.Read(tokenBytes); err != nil {
		return nil, fmt.Errorf("failed to generate random bytes: %w", err)
	}

	now := m.nowFunc()
	rt := &StoredRefreshToken{
		Token:     hex.EncodeToString(tokenBytes),
		UserID:    userID,
		ExpiresAt: now.Add(m.ttl),
		CreatedAt: now,
	}
	if err := m.repo.Replace(ctx, rt); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}
	return rt, nil
}

// Lookup finds the record for token. Absence is reported with ok == false,
// not as an error.
func (m *Manager) Lookup(ctx context.Context, token string) (rt *StoredRefreshToken, ok bool, err error) {
	if token == "" {
		return nil, false, nil
	}
	rt, err = m.repo.Get(ctx, token)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to look up refresh token: %w", err)
	}
	return rt, true, nil
}

// CheckNotExpired returns rt unchanged while it is live. An expired token is
// deleted and ErrExpired returned. Inspection never extends the expiry.
func (m *Manager) CheckNotExpired(ctx context.Context, rt *StoredRefreshToken) (*StoredRefreshToken, error) {
	if !rt.Expired(m.nowFunc()) {
		return rt, nil
	}
	if err := m.repo.Delete(ctx, rt.Token); err != nil {
		return nil, fmt.Errorf("failed to delete expired refresh token: %w", err)
	}
	return nil, ErrExpired
}

// Revoke deletes token. Revoking an unknown or already revoked token
// succeeds.
func (m *Manager) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := m.repo.Delete(ctx, token); err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return nil
}

// SweepExpired deletes every token with ExpiresAt <= now
func (m *Manager) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	n, err := m.repo.DeleteExpired(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep refresh tokens: %w", err)
	}
	return n, nil
}

// Now is the manager's clock, used by the sweeper.
func (m *Manager) Now() time.Time {
	return m.nowFunc()
}
