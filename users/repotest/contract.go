// Package repotest holds the behaviour every users.UserRepo implementation
// must share. Implementations call RunUserRepoContract from their own tests.
package repotest

import (
	"context"
	"testing"
	"time"

	apperrors "github.com/jrsteele09/bookstore-auth/internal/errors"
	"github.com/jrsteele09/bookstore-auth/users"
	"github.com/stretchr/testify/require"
)

func RunUserRepoContract(t *testing.T, newRepo func(t *testing.T) users.UserRepo) {
	t.Helper()
	ctx := context.Background()
	created := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

	customer := func() *users.User {
		return &users.User{
			Email:        "  Jane.Reader@Example.com ",
			PasswordHash: "hash",
			Name:         "Jane Reader",
			Role:         users.RoleCustomer,
			CreatedAt:    created,
			UpdatedAt:    created,
			Customer:     &users.CustomerProfile{Phone: "+44 20 7946 0000", Address: "1 Shelf Street"},
		}
	}

	t.Run("upsert assigns id and normalises email", func(t *testing.T) {
		repo := newRepo(t)
		u := customer()
		require.NoError(t, repo.Upsert(ctx, u))
		require.NotEmpty(t, u.ID)
		require.Equal(t, "jane.reader@example.com", u.Email)

		got, err := repo.GetByID(ctx, u.ID)
		require.NoError(t, err)
		require.Equal(t, u.Email, got.Email)
		require.Equal(t, users.RoleCustomer, got.Role)
		require.Equal(t, "hash", got.PasswordHash)
		require.NotNil(t, got.Customer)
		require.Equal(t, "1 Shelf Street", got.Customer.Address)
		require.Nil(t, got.Staff)
		require.True(t, created.Equal(got.CreatedAt))
	})

	t.Run("email lookup is case insensitive", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Upsert(ctx, customer()))

		got, err := repo.GetByEmail(ctx, "JANE.READER@EXAMPLE.COM")
		require.NoError(t, err)
		require.Equal(t, "Jane Reader", got.Name)

		exists, err := repo.ExistsByEmail(ctx, "jane.reader@example.COM")
		require.NoError(t, err)
		require.True(t, exists)
	})

	t.Run("missing user is not found", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.GetByEmail(ctx, "nobody@example.com")
		require.ErrorIs(t, err, apperrors.ErrNotFound)
		_, err = repo.GetByID(ctx, "no-such-id")
		require.ErrorIs(t, err, apperrors.ErrNotFound)

		exists, err := repo.ExistsByEmail(ctx, "nobody@example.com")
		require.NoError(t, err)
		require.False(t, exists)

		require.ErrorIs(t, repo.SetBlocked(ctx, "nobody@example.com", true), apperrors.ErrNotFound)
		require.ErrorIs(t, repo.SoftDelete(ctx, "nobody@example.com"), apperrors.ErrNotFound)
	})

	t.Run("duplicate email is rejected", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Upsert(ctx, customer()))

		dup := customer()
		dup.Email = "JANE.READER@example.com"
		require.ErrorIs(t, repo.Upsert(ctx, dup), apperrors.ErrAlreadyExists)
	})

	t.Run("upsert updates an existing record", func(t *testing.T) {
		repo := newRepo(t)
		u := customer()
		require.NoError(t, repo.Upsert(ctx, u))

		u.Name = "Jane R."
		require.NoError(t, repo.Upsert(ctx, u))

		got, err := repo.GetByEmail(ctx, u.Email)
		require.NoError(t, err)
		require.Equal(t, "Jane R.", got.Name)
	})

	t.Run("blocked and soft deleted users are not usable", func(t *testing.T) {
		repo := newRepo(t)
		u := customer()
		require.NoError(t, repo.Upsert(ctx, u))

		require.NoError(t, repo.SetBlocked(ctx, u.Email, true))
		got, err := repo.GetByEmail(ctx, u.Email)
		require.NoError(t, err)
		require.True(t, got.Blocked)
		require.False(t, got.IsUsable())

		require.NoError(t, repo.SetBlocked(ctx, u.Email, false))
		require.NoError(t, repo.SoftDelete(ctx, u.Email))
		got, err = repo.GetByEmail(ctx, u.Email)
		require.NoError(t, err)
		require.NotNil(t, got.DeletedAt)
		require.False(t, got.IsUsable())

		// soft deleted records still count as existing
		exists, err := repo.ExistsByEmail(ctx, u.Email)
		require.NoError(t, err)
		require.True(t, exists)
	})

	t.Run("staff profile round trips", func(t *testing.T) {
		repo := newRepo(t)
		staff := &users.User{
			Email:     "clerk@bookstore.example",
			Name:      "Counter Clerk",
			Role:      users.RoleStaff,
			CreatedAt: created,
			UpdatedAt: created,
			Staff:     &users.StaffProfile{Position: "Clerk", Department: "Sales"},
		}
		require.NoError(t, repo.Upsert(ctx, staff))

		got, err := repo.GetByEmail(ctx, staff.Email)
		require.NoError(t, err)
		require.Equal(t, users.RoleStaff, got.Role)
		require.NotNil(t, got.Staff)
		require.Equal(t, "Sales", got.Staff.Department)
		require.Nil(t, got.Customer)
	})
}
