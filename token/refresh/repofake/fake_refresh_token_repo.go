package refreshrepofake

import (
	"context"
	"sync"
	"time"

	apperrors "github.com/jrsteele09/bookstore-auth/internal/errors"
	"github.com/jrsteele09/bookstore-auth/token/refresh"
)

var _ refresh.Repo = (*FakeRefreshTokenRepo)(nil)

type FakeRefreshTokenRepo struct {
	tokens  map[string]refresh.StoredRefreshToken
	userIDs map[string]string // user ID to token
	lock    sync.RWMutex
}

func NewFakeRefreshTokenRepo() *FakeRefreshTokenRepo {
	return &FakeRefreshTokenRepo{
		tokens:  make(map[string]refresh.StoredRefreshToken),
		userIDs: make(map[string]string),
	}
}

func (tr *FakeRefreshTokenRepo) Replace(_ context.Context, rt *refresh.StoredRefreshToken) error {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	if old, ok := tr.userIDs[rt.UserID]; ok {
		delete(tr.tokens, old)
	}
	tr.tokens[rt.Token] = *rt
	tr.userIDs[rt.UserID] = rt.Token
	return nil
}

func (tr *FakeRefreshTokenRepo) Get(_ context.Context, token string) (*refresh.StoredRefreshToken, error) {
	tr.lock.RLock()
	defer tr.lock.RUnlock()

	rt, ok := tr.tokens[token]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &rt, nil
}

func (tr *FakeRefreshTokenRepo) GetByUserID(_ context.Context, userID string) (*refresh.StoredRefreshToken, error) {
	tr.lock.RLock()
	defer tr.lock.RUnlock()

	token, ok := tr.userIDs[userID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	rt := tr.tokens[token]
	return &rt, nil
}

func (tr *FakeRefreshTokenRepo) Delete(_ context.Context, token string) error {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	tr.deleteLocked(token)
	return nil
}

func (tr *FakeRefreshTokenRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	var n int64
	for token, rt := range tr.tokens {
		if rt.Expired(now) {
			tr.deleteLocked(token)
			n++
		}
	}
	return n, nil
}

// Len is the number of stored tokens
func (tr *FakeRefreshTokenRepo) Len() int {
	tr.lock.RLock()
	defer tr.lock.RUnlock()
	return len(tr.tokens)
}

func (tr *FakeRefreshTokenRepo) deleteLocked(token string) {
	rt, ok := tr.tokens[token]
	if !ok {
		return
	}
	delete(tr.tokens, token)
	if tr.userIDs[rt.UserID] == token {
		delete(tr.userIDs, rt.UserID)
	}
}
