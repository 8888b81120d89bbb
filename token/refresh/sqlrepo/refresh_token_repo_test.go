package sqlrefreshrepo_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jrsteele09/bookstore-auth/internal/database"
	"github.com/jrsteele09/bookstore-auth/token/refresh"
	"github.com/jrsteele09/bookstore-auth/token/refresh/repotest"
	sqlrefreshrepo "github.com/jrsteele09/bookstore-auth/token/refresh/sqlrepo"
	"github.com/stretchr/testify/require"
)

func testRepo(t *testing.T) refresh.Repo {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, database.DialectSQLite, filepath.Join(t.TempDir(), "refresh.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.Migrate(ctx, db, database.DialectSQLite))
	return sqlrefreshrepo.New(db)
}

func TestSQLRefreshTokenRepo_Contract(t *testing.T) {
	repotest.RunRefreshRepoContract(t, testRepo)
}
