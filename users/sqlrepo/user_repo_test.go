package sqluserrepo_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jrsteele09/bookstore-auth/internal/database"
	"github.com/jrsteele09/bookstore-auth/users"
	"github.com/jrsteele09/bookstore-auth/users/repotest"
	sqluserrepo "github.com/jrsteele09/bookstore-auth/users/sqlrepo"
	"github.com/stretchr/testify/require"
)

// testRepo creates a migrated temp-file SQLite database. The file is removed
// with the test's temp dir.
func testRepo(t *testing.T) users.UserRepo {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, database.DialectSQLite, filepath.Join(t.TempDir(), "users.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.Migrate(ctx, db, database.DialectSQLite))
	return sqluserrepo.New(db)
}

func TestSQLUserRepo_Contract(t *testing.T) {
	repotest.RunUserRepoContract(t, testRepo)
}

func TestSQLUserRepo_SoftDeleteKeepsFirstTimestamp(t *testing.T) {
	ctx := context.Background()
	repo := testRepo(t)
	require.NoError(t, repo.Upsert(ctx, &users.User{Email: "gone@b.com", Name: "Gone", Role: users.RoleCustomer}))

	require.NoError(t, repo.SoftDelete(ctx, "gone@b.com"))
	first, err := repo.GetByEmail(ctx, "gone@b.com")
	require.NoError(t, err)
	require.NotNil(t, first.DeletedAt)

	require.NoError(t, repo.SoftDelete(ctx, "gone@b.com"))
	second, err := repo.GetByEmail(ctx, "gone@b.com")
	require.NoError(t, err)
	require.True(t, first.DeletedAt.Equal(*second.DeletedAt))
}
