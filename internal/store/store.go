// Package store provides the key-value primitive the atlas persists into.
// Every backend stores opaque byte values under string keys.
package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
)

// ErrNotFound is returned by Get when a key has never been set.
var ErrNotFound = errors.New("key not found")

// KV is a minimal key-value store.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Driver names accepted by Open.
const (
	DriverFile   = "file"
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverDuckDB = "duckdb"
	DriverRedis  = "redis"
)

// Config selects and configures a backend.
type Config struct {
	Driver    string
	DataDir   string
	RedisAddr string
	RedisDB   int
}

// Open returns the backend named by cfg.Driver.
func Open(ctx context.Context, cfg Config) (KV, error) {
	switch cfg.Driver {
	case "", DriverFile:
		return NewFileStore(filepath.Join(cfg.DataDir, "store"))
	case DriverMemory:
		return NewMemoryStore(), nil
	case DriverSQLite:
		return OpenSQLite(filepath.Join(cfg.DataDir, "sqlite", "atlas.db"))
	case DriverDuckDB:
		return OpenDuckDB(filepath.Join(cfg.DataDir, "duckdb", "atlas.duckdb"))
	case DriverRedis:
		return OpenRedis(ctx, RedisConfig{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
