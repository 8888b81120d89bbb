package redisrefreshrepo_test

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jrsteele09/bookstore-auth/token/refresh"
	redisrefreshrepo "github.com/jrsteele09/bookstore-auth/token/refresh/redisrepo"
	"github.com/jrsteele09/bookstore-auth/token/refresh/repotest"
	"github.com/stretchr/testify/require"
)

// testRepo needs a reachable Redis at REDIS_ADDR. Every repo gets its own key
// prefix which is cleared when the test ends.
func testRepo(t *testing.T) refresh.Repo {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	ctx := context.Background()
	client, err := redisrefreshrepo.Connect(ctx, addr, os.Getenv("REDIS_PASSWORD"), 0)
	require.NoError(t, err)

	prefix := "test:" + uuid.NewString() + ":"
	t.Cleanup(func() {
		keys, _ := client.Keys(ctx, prefix+"*").Result()
		if len(keys) > 0 {
			client.Del(ctx, keys...)
		}
		client.Close()
	})

	return redisrefreshrepo.New(client, redisrefreshrepo.WithPrefix(prefix))
}

func TestRedisRefreshTokenRepo_Contract(t *testing.T) {
	repotest.RunRefreshRepoContract(t, testRepo)
}

func TestConnect_Unreachable(t *testing.T) {
	_, err := redisrefreshrepo.Connect(context.Background(), "127.0.0.1:1", "", 0)
	require.Error(t, err)
}
