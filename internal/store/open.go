package store

import (
	"context"
	"fmt"
)

// Driver identifies a concrete Store implementation.
type Driver string

const (
	DriverMemory   Driver = "memory"   // in-process only (tests / demos)
	DriverSQLite   Driver = "sqlite"   // embedded sqlite file
	DriverPostgres Driver = "postgres" // PostgreSQL server
	DriverRedis    Driver = "redis"    // Redis server
	DriverBadger   Driver = "badger"   // embedded badger directory
)

// Config selects and parameterizes a backend.
type Config struct {
	Driver      Driver
	SQLitePath  string
	PostgresDSN string
	RedisAddr   string
	RedisDB     int
	BadgerPath  string
}

// Open constructs the configured backend and runs its migrations. The caller owns
// the returned handle and must Close it.
func Open(ctx context.Context, cfg Config) (Store, error) {
	var (
		s   Store
		err error
	)
	switch cfg.Driver {
	case DriverMemory:
		s = NewMemoryStore()
	case DriverSQLite, "":
		s, err = NewSQLiteStore(cfg.SQLitePath)
	case DriverPostgres:
		s, err = NewPostgresStore(ctx, cfg.PostgresDSN)
	case DriverRedis:
		s, err = NewRedisStore(ctx, cfg.RedisAddr, cfg.RedisDB)
	case DriverBadger:
		s, err = NewBadgerStore(cfg.BadgerPath)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("migrate %s store: %w", cfg.Driver, err)
	}
	return s, nil
}
