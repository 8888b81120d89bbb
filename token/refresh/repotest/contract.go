// Package repotest holds the behaviour every refresh.Repo implementation
// must share.
package repotest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	apperrors "github.com/jrsteele09/bookstore-auth/internal/errors"
	"github.com/jrsteele09/bookstore-auth/token/refresh"
	"github.com/stretchr/testify/require"
)

func RunRefreshRepoContract(t *testing.T, newRepo func(t *testing.T) refresh.Repo) {
	t.Helper()
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

	token := func(tok, user string, expiresIn time.Duration) *refresh.StoredRefreshToken {
		return &refresh.StoredRefreshToken{
			Token:     tok,
			UserID:    user,
			ExpiresAt: now.Add(expiresIn),
			CreatedAt: now,
		}
	}

	t.Run("replace then get", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Replace(ctx, token("tok-a", "user-1", time.Hour)))

		got, err := repo.Get(ctx, "tok-a")
		require.NoError(t, err)
		require.Equal(t, "user-1", got.UserID)
		require.True(t, now.Add(time.Hour).Equal(got.ExpiresAt))
		require.True(t, now.Equal(got.CreatedAt))

		byUser, err := repo.GetByUserID(ctx, "user-1")
		require.NoError(t, err)
		require.Equal(t, "tok-a", byUser.Token)
	})

	t.Run("unknown token is not found", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.Get(ctx, "nope")
		require.ErrorIs(t, err, apperrors.ErrNotFound)
		_, err = repo.GetByUserID(ctx, "nobody")
		require.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("replace keeps one token per user", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Replace(ctx, token("tok-old", "user-1", time.Hour)))
		require.NoError(t, repo.Replace(ctx, token("tok-other", "user-2", time.Hour)))
		require.NoError(t, repo.Replace(ctx, token("tok-new", "user-1", time.Hour)))

		_, err := repo.Get(ctx, "tok-old")
		require.ErrorIs(t, err, apperrors.ErrNotFound)

		got, err := repo.GetByUserID(ctx, "user-1")
		require.NoError(t, err)
		require.Equal(t, "tok-new", got.Token)

		other, err := repo.Get(ctx, "tok-other")
		require.NoError(t, err)
		require.Equal(t, "user-2", other.UserID)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Replace(ctx, token("tok-a", "user-1", time.Hour)))

		require.NoError(t, repo.Delete(ctx, "tok-a"))
		require.NoError(t, repo.Delete(ctx, "tok-a"))
		require.NoError(t, repo.Delete(ctx, "never-existed"))

		_, err := repo.Get(ctx, "tok-a")
		require.ErrorIs(t, err, apperrors.ErrNotFound)
		_, err = repo.GetByUserID(ctx, "user-1")
		require.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("delete expired uses inclusive boundary", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Replace(ctx, token("tok-past", "user-1", -time.Minute)))
		require.NoError(t, repo.Replace(ctx, token("tok-now", "user-2", 0)))
		require.NoError(t, repo.Replace(ctx, token("tok-live", "user-3", time.Second)))

		n, err := repo.DeleteExpired(ctx, now)
		require.NoError(t, err)
		require.EqualValues(t, 2, n)

		_, err = repo.Get(ctx, "tok-past")
		require.ErrorIs(t, err, apperrors.ErrNotFound)
		_, err = repo.Get(ctx, "tok-now")
		require.ErrorIs(t, err, apperrors.ErrNotFound)
		_, err = repo.Get(ctx, "tok-live")
		require.NoError(t, err)

		n, err = repo.DeleteExpired(ctx, now)
		require.NoError(t, err)
		require.Zero(t, n)
	})

	t.Run("concurrent replace leaves a single token", func(t *testing.T) {
		repo := newRepo(t)
		const workers = 8

		var wg sync.WaitGroup
		errs := make(chan error, workers)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs <- repo.Replace(ctx, token(fmt.Sprintf("tok-%d", i), "user-1", time.Hour))
			}(i)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		winner, err := repo.GetByUserID(ctx, "user-1")
		require.NoError(t, err)

		live := 0
		for i := 0; i < workers; i++ {
			if _, err := repo.Get(ctx, fmt.Sprintf("tok-%d", i)); err == nil {
				live++
			}
		}
		require.Equal(t, 1, live)
		_, err = repo.Get(ctx, winner.Token)
		require.NoError(t, err)
	})
}
