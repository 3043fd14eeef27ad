package stubstore

import (
	"context"
	"sync"

	"github.com/getmockd/stubrouter/pkg/stub"
)

// MemoryStorage is a thread-safe in-memory Storage.
type MemoryStorage struct {
	mu      sync.RWMutex
	targets map[string]stub.Set
}

// NewMemoryStorage creates an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		targets: make(map[string]stub.Set),
	}
}

// List returns a copy of target's stubs.
func (s *MemoryStorage) List(_ context.Context, target string) (stub.Set, error) {
	if err := checkTarget(target); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSet(s.targets[target]), nil
}

// Get returns one stub.
func (s *MemoryStorage) Get(_ context.Context, target, path string) (stub.Stub, error) {
	if err := checkTarget(target); err != nil {
		return stub.Stub{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.targets[target].Get(path)
	if !ok {
		return stub.Stub{}, ErrNotFound
	}
	return r.Stub.Clone(), nil
}

// Save creates or replaces a stub.
func (s *MemoryStorage) Save(_ context.Context, target string, r stub.Record) error {
	if err := checkRecord(target, r); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.targets[target] = s.targets[target].Upsert(stub.Record{Path: r.Path, Stub: r.Stub.Clone()})
	return nil
}

// Remove deletes a stub.
func (s *MemoryStorage) Remove(_ context.Context, target, path string) error {
	if err := checkTarget(target); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.targets[target].Without(path)
	if !ok {
		return ErrNotFound
	}
	if len(set) == 0 {
		delete(s.targets, target)
	} else {
		s.targets[target] = set
	}
	return nil
}

// Close is a no-op.
func (s *MemoryStorage) Close() error {
	return nil
}
