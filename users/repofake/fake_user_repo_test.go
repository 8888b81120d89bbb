package fakeuserrepo_test

import (
	"context"
	"testing"

	"github.com/jrsteele09/bookstore-auth/users"
	fakeuserrepo "github.com/jrsteele09/bookstore-auth/users/repofake"
	"github.com/jrsteele09/bookstore-auth/users/repotest"
	"github.com/stretchr/testify/require"
)

func TestFakeUserRepo_Contract(t *testing.T) {
	repotest.RunUserRepoContract(t, func(t *testing.T) users.UserRepo {
		return fakeuserrepo.NewFakeUserRepo()
	})
}

func TestFakeUserRepo_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := fakeuserrepo.NewFakeUserRepo()
	require.NoError(t, repo.Upsert(ctx, &users.User{Email: "a@b.com", Role: users.RoleCustomer}))

	got, err := repo.GetByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	got.Blocked = true

	again, err := repo.GetByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	require.False(t, again.Blocked)
}

func TestFakeUserRepo_EmailChangeReleasesOldEmail(t *testing.T) {
	ctx := context.Background()
	repo := fakeuserrepo.NewFakeUserRepo()
	u := &users.User{Email: "old@b.com", Role: users.RoleCustomer}
	require.NoError(t, repo.Upsert(ctx, u))

	u.Email = "new@b.com"
	require.NoError(t, repo.Upsert(ctx, u))

	exists, err := repo.ExistsByEmail(ctx, "old@b.com")
	require.NoError(t, err)
	require.False(t, exists)
}
