package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jrsteele09/bookstore-auth/internal/config"
	"github.com/jrsteele09/bookstore-auth/token/refresh"
	"github.com/jrsteele09/bookstore-auth/users"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestOpenStores(t *testing.T) {
	ctx := context.Background()

	testCases := []struct {
		name string
		cfg  config.Storage
	}{
		{"memory", config.Storage{Driver: config.DriverMemory, RefreshStore: config.RefreshStoreMemory}},
		{"sqlite", config.Storage{
			Driver:       config.DriverSQLite,
			DSN:          filepath.Join(t.TempDir(), "auth.db"),
			RefreshStore: config.RefreshStoreSQL,
		}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			st, err := openStores(ctx, tc.cfg, zerolog.Nop())
			require.NoError(t, err)
			defer st.Close()

			u := &users.User{Email: "reader@example.com", PasswordHash: "x", Role: users.RoleCustomer}
			require.NoError(t, st.users.Upsert(ctx, u))
			require.NotEmpty(t, u.ID)

			rt := &refresh.StoredRefreshToken{Token: "tok", UserID: u.ID, ExpiresAt: time.Now().Add(time.Hour), CreatedAt: time.Now()}
			require.NoError(t, st.refreshTokens.Replace(ctx, rt))
			got, err := st.refreshTokens.Get(ctx, "tok")
			require.NoError(t, err)
			require.Equal(t, u.ID, got.UserID)
		})
	}
}

func TestOpenStores_Rejects(t *testing.T) {
	ctx := context.Background()

	_, err := openStores(ctx, config.Storage{Driver: "oracle"}, zerolog.Nop())
	require.ErrorContains(t, err, "unknown store driver")

	_, err = openStores(ctx, config.Storage{Driver: config.DriverMemory, RefreshStore: config.RefreshStoreSQL}, zerolog.Nop())
	require.Error(t, err)
}
