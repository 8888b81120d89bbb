package config

import "fmt"

const (
	storeDriverEnvVar   = "STORE_DRIVER"
	databaseDSNEnvVar   = "DATABASE_DSN"
	refreshStoreEnvVar  = "REFRESH_STORE"
	redisAddrEnvVar     = "REDIS_ADDR"
	redisPasswordEnvVar = "REDIS_PASSWORD"
	redisDBEnvVar       = "REDIS_DB"
)

// Store drivers
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite3"
	DriverMySQL  = "mysql"
)

// Refresh token stores
const (
	RefreshStoreMemory = "memory"
	RefreshStoreSQL    = "sql"
	RefreshStoreRedis  = "redis"
)

type StorageConfig interface {
	GetStoreDriver() string
	GetDatabaseDSN() string
	GetRefreshStore() string
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisDB() int
}

type Storage struct {
	Driver        string `yaml:"driver"`
	DSN           string `yaml:"dsn"`
	RefreshStore  string `yaml:"refresh_store"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
}

var _ StorageConfig = Storage{}

func defaultStorage() Storage {
	return Storage{
		Driver:       DriverSQLite,
		DSN:          "./data/auth.db",
		RefreshStore: RefreshStoreSQL,
	}
}

func (s *Storage) applyEnv() error {
	var err error
	s.Driver = GetEnv(storeDriverEnvVar, s.Driver)
	s.DSN = GetEnv(databaseDSNEnvVar, s.DSN)
	s.RefreshStore = GetEnv(refreshStoreEnvVar, s.RefreshStore)
	s.RedisAddr = GetEnv(redisAddrEnvVar, s.RedisAddr)
	s.RedisPassword = GetEnv(redisPasswordEnvVar, s.RedisPassword)
	if s.RedisDB, err = getEnvInt(redisDBEnvVar, s.RedisDB); err != nil {
		return err
	}
	return nil
}

func (s Storage) validate() error {
	switch s.Driver {
	case DriverMemory, DriverSQLite, DriverMySQL:
	default:
		return fmt.Errorf("unknown store driver %q", s.Driver)
	}

	switch s.RefreshStore {
	case RefreshStoreMemory:
	case RefreshStoreSQL:
		if s.Driver == DriverMemory {
			return fmt.Errorf("refresh store %q needs a sql store driver", s.RefreshStore)
		}
	case RefreshStoreRedis:
		if s.RedisAddr == "" {
			return fmt.Errorf("refresh store %q needs %s", s.RefreshStore, redisAddrEnvVar)
		}
	default:
		return fmt.Errorf("unknown refresh store %q", s.RefreshStore)
	}
	return nil
}

func (s Storage) GetStoreDriver() string {
	return s.Driver
}

func (s Storage) GetDatabaseDSN() string {
	return s.DSN
}

func (s Storage) GetRefreshStore() string {
	return s.RefreshStore
}

func (s Storage) GetRedisAddr() string {
	return s.RedisAddr
}

func (s Storage) GetRedisPassword() string {
	return s.RedisPassword
}

func (s Storage) GetRedisDB() int {
	return s.RedisDB
}
