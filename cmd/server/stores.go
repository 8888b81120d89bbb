package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jrsteele09/bookstore-auth/internal/config"
	"github.com/jrsteele09/bookstore-auth/internal/database"
	"github.com/jrsteele09/bookstore-auth/token/refresh"
	refreshrepofake "github.com/jrsteele09/bookstore-auth/token/refresh/repofake"
	redisrefreshrepo "github.com/jrsteele09/bookstore-auth/token/refresh/redisrepo"
	sqlrefreshrepo "github.com/jrsteele09/bookstore-auth/token/refresh/sqlrepo"
	"github.com/jrsteele09/bookstore-auth/users"
	fakeuserrepo "github.com/jrsteele09/bookstore-auth/users/repofake"
	sqluserrepo "github.com/jrsteele09/bookstore-auth/users/sqlrepo"
	"github.com/rs/zerolog"
)

type stores struct {
	users         users.UserRepo
	refreshTokens refresh.Repo
	closers       []func() error
}

func (s *stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		_ = s.closers[i]()
	}
}

// openStores builds the credential store and refresh token store named in
// the configuration. The memory driver keeps everything in process.
func openStores(ctx context.Context, cfg config.StorageConfig, logger zerolog.Logger) (*stores, error) {
	s := &stores{}

	var db *sql.DB
	switch cfg.GetStoreDriver() {
	case config.DriverMemory:
		s.users = fakeuserrepo.NewFakeUserRepo()
	case config.DriverSQLite, config.DriverMySQL:
		var err error
		db, err = database.Open(ctx, cfg.GetStoreDriver(), cfg.GetDatabaseDSN())
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, db.Close)
		if err := database.Migrate(ctx, db, cfg.GetStoreDriver()); err != nil {
			s.Close()
			return nil, err
		}
		s.users = sqluserrepo.New(db)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.GetStoreDriver())
	}

	switch cfg.GetRefreshStore() {
	case config.RefreshStoreMemory:
		s.refreshTokens = refreshrepofake.NewFakeRefreshTokenRepo()
	case config.RefreshStoreSQL:
		if db == nil {
			s.Close()
			return nil, fmt.Errorf("refresh store %q needs a SQL store driver", config.RefreshStoreSQL)
		}
		s.refreshTokens = sqlrefreshrepo.New(db)
	case config.RefreshStoreRedis:
		client, err := redisrefreshrepo.Connect(ctx, cfg.GetRedisAddr(), cfg.GetRedisPassword(), cfg.GetRedisDB())
		if err != nil {
			s.Close()
			return nil, err
		}
		s.closers = append(s.closers, client.Close)
		s.refreshTokens = redisrefreshrepo.New(client)
	default:
		s.Close()
		return nil, fmt.Errorf("unknown refresh store %q", cfg.GetRefreshStore())
	}

	logger.Info().
		Str("store", cfg.GetStoreDriver()).
		Str("refresh_store", cfg.GetRefreshStore()).
		Msg("stores ready")
	return s, nil
}
