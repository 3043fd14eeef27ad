// Package stubstore persists stubs keyed by (target, path).
//
// Backends keep insertion order per target: a stub keeps the position it
// got when first saved, updates replace it in place.
package stubstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/getmockd/stubrouter/pkg/logging"
	"github.com/getmockd/stubrouter/pkg/stub"
)

// Sentinel errors for storage operations.
var (
	// ErrNotFound is returned when the stub does not exist.
	ErrNotFound = errors.New("stub not found")
	// ErrNoTarget is returned when a target is empty.
	ErrNoTarget = errors.New("target is required")
)

// Storage backend types.
const (
	TypeMemory = "memory"
	TypeFile   = "file"
	TypeRedis  = "redis"
)

// Storage is a stub persistence backend.
type Storage interface {
	// List returns the stubs of target in insertion order. A target
	// without stubs yields an empty set, not an error.
	List(ctx context.Context, target string) (stub.Set, error)
	// Get returns one stub or ErrNotFound.
	Get(ctx context.Context, target, path string) (stub.Stub, error)
	// Save creates or replaces the stub at (target, r.Path).
	Save(ctx context.Context, target string, r stub.Record) error
	// Remove deletes the stub at (target, path) or returns ErrNotFound.
	Remove(ctx context.Context, target, path string) error
	// Close releases backend resources.
	Close() error
}

// CacheConfig configures the in-memory listing cache.
type CacheConfig struct {
	Enabled    bool          `yaml:"enabled" toml:"enabled" json:"enabled"`
	Expiration time.Duration `yaml:"expiration" toml:"expiration" json:"expiration"`
	Cleanup    time.Duration `yaml:"cleanup" toml:"cleanup" json:"cleanup"`
}

// Config selects and configures a backend.
type Config struct {
	// Type is memory, file or redis.
	Type string `yaml:"type" toml:"type" json:"type"`
	// Path is the data directory for file storage or the connection URL
	// for redis storage.
	Path  string      `yaml:"path" toml:"path" json:"path"`
	Cache CacheConfig `yaml:"cache" toml:"cache" json:"cache"`
}

// Open creates the backend described by cfg, wrapped in a cache when
// enabled.
func Open(cfg Config, log *slog.Logger) (Storage, error) {
	log = logging.Component(log, "stubstore")

	var (
		s   Storage
		err error
	)
	switch cfg.Type {
	case TypeMemory, "":
		s = NewMemoryStorage()
	case TypeFile:
		s, err = NewFileStorage(cfg.Path)
	case TypeRedis:
		var opts *redis.Options
		opts, err = redis.ParseURL(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		s = NewRedisStorage(redis.NewClient(opts), "")
	default:
		return nil, fmt.Errorf("stub storage type %q not supported", cfg.Type)
	}
	if err != nil {
		return nil, err
	}

	if cfg.Cache.Enabled {
		s = NewCachedStorage(s, cfg.Cache.Expiration, cfg.Cache.Cleanup)
	}
	log.Info("stub storage ready", "type", cfg.Type, "cache", cfg.Cache.Enabled)
	return s, nil
}

func checkTarget(target string) error {
	if target == "" {
		return ErrNoTarget
	}
	return nil
}

func checkRecord(target string, r stub.Record) error {
	if err := checkTarget(target); err != nil {
		return err
	}
	return r.Validate()
}

func cloneSet(s stub.Set) stub.Set {
	out := make(stub.Set, len(s))
	for i, r := range s {
		out[i] = stub.Record{Path: r.Path, Stub: r.Stub.Clone()}
	}
	return out
}
