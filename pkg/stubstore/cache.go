package stubstore

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/getmockd/stubrouter/pkg/stub"
)

// Default cache intervals.
const (
	DefaultCacheExpiration = 30 * time.Minute
	DefaultCacheCleanup    = 60 * time.Minute
)

// CachedStorage caches per-target listings of another Storage. Writes go
// straight to the backend and drop the target's cached listing.
//
// Each write bumps a per-target generation. A listing read from the backend
// is only cached if no write to its target finished while it was read.
type CachedStorage struct {
	store Storage
	cache *cache.Cache

	mu  sync.Mutex
	gen map[string]uint64
}

// NewCachedStorage wraps store. Zero intervals fall back to the defaults.
func NewCachedStorage(store Storage, expiration, cleanup time.Duration) *CachedStorage {
	if expiration <= 0 {
		expiration = DefaultCacheExpiration
	}
	if cleanup <= 0 {
		cleanup = DefaultCacheCleanup
	}
	return &CachedStorage{
		store: store,
		cache: cache.New(expiration, cleanup),
		gen:   make(map[string]uint64),
	}
}

// List returns the cached listing or loads and caches it.
func (cs *CachedStorage) List(ctx context.Context, target string) (stub.Set, error) {
	if err := checkTarget(target); err != nil {
		return nil, err
	}
	if v, found := cs.cache.Get(target); found {
		if set, ok := v.(stub.Set); ok {
			return cloneSet(set), nil
		}
	}

	cs.mu.Lock()
	gen := cs.gen[target]
	cs.mu.Unlock()

	set, err := cs.store.List(ctx, target)
	if err != nil {
		return nil, err
	}

	cs.mu.Lock()
	if cs.gen[target] == gen {
		cs.cache.Set(target, cloneSet(set), cache.DefaultExpiration)
	}
	cs.mu.Unlock()
	return set, nil
}

// Get answers from the cached listing.
func (cs *CachedStorage) Get(ctx context.Context, target, path string) (stub.Stub, error) {
	set, err := cs.List(ctx, target)
	if err != nil {
		return stub.Stub{}, err
	}
	r, ok := set.Get(path)
	if !ok {
		return stub.Stub{}, ErrNotFound
	}
	return r.Stub, nil
}

// Save writes through and invalidates the target.
func (cs *CachedStorage) Save(ctx context.Context, target string, r stub.Record) error {
	defer cs.invalidate(target)
	return cs.store.Save(ctx, target, r)
}

// Remove writes through and invalidates the target.
func (cs *CachedStorage) Remove(ctx context.Context, target, path string) error {
	defer cs.invalidate(target)
	return cs.store.Remove(ctx, target, path)
}

func (cs *CachedStorage) invalidate(target string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.gen[target]++
	cs.cache.Delete(target)
}

// Close closes the wrapped storage.
func (cs *CachedStorage) Close() error {
	cs.cache.Flush()
	return cs.store.Close()
}
