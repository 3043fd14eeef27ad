package stubstore

import (
	"context"
	"errors"

	"github.com/getmockd/stubrouter/pkg/stub"
)

// Recorder observes storage operations. err is nil on success.
// *metrics.Metrics implements it.
type Recorder interface {
	ObserveStorageOperation(op string, err error)
}

// InstrumentedStorage reports every operation of a Storage to a Recorder.
// ErrNotFound on Get and Remove counts as a failed operation.
type InstrumentedStorage struct {
	Storage
	rec Recorder
}

// Instrument wraps s. A nil rec returns s unchanged.
func Instrument(s Storage, rec Recorder) Storage {
	if rec == nil {
		return s
	}
	return &InstrumentedStorage{Storage: s, rec: rec}
}

// List lists through the wrapped storage and reports the outcome as "list".
func (s *InstrumentedStorage) List(ctx context.Context, target string) (stub.Set, error) {
	set, err := s.Storage.List(ctx, target)
	s.rec.ObserveStorageOperation("list", err)
	return set, err
}

// Get reads through the wrapped storage and reports the outcome as "get".
func (s *InstrumentedStorage) Get(ctx context.Context, target, path string) (stub.Stub, error) {
	st, err := s.Storage.Get(ctx, target, path)
	s.rec.ObserveStorageOperation("get", err)
	return st, err
}

// Save writes through the wrapped storage and reports the outcome as "save".
func (s *InstrumentedStorage) Save(ctx context.Context, target string, r stub.Record) error {
	err := s.Storage.Save(ctx, target, r)
	s.rec.ObserveStorageOperation("save", err)
	return err
}

// Remove deletes through the wrapped storage and reports the outcome as "remove".
func (s *InstrumentedStorage) Remove(ctx context.Context, target, path string) error {
	err := s.Storage.Remove(ctx, target, path)
	s.rec.ObserveStorageOperation("remove", err)
	return err
}

// IsNotFound reports whether err means the stub does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
