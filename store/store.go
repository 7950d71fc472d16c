// Package store provides the durable key/value backends behind persisted
// asset state and UI flags. Values are opaque JSON documents.
package store

import (
	"context"
	"errors"
)

var ErrClosed = errors.New("store closed")

// Store is a durable key/value store. Get reports false for an absent key.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}

// Driver identifiers.
const (
	DriverFile   = "file"
	DriverRedis  = "redis"
	DriverPrefs  = "prefs"
	DriverMemory = "memory"
)

// DefaultFileName is the document the file driver writes in the data dir.
const DefaultFileName = "models.dat"

type Config struct {
	Driver string
	Path   string // file driver
	Redis  RedisConfig
}

type RedisConfig struct {
	Addr     string
	Username string
	Password string
	DB       int
	Prefix   string
}
