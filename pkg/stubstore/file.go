package stubstore

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/getmockd/stubrouter/pkg/stub"
)

// fileDocument is the on-disk layout of one target.
type fileDocument struct {
	Target string        `yaml:"target"`
	Stubs  []stub.Record `yaml:"stubs"`
}

// FileStorage keeps one YAML document per target in a directory.
type FileStorage struct {
	dir string
	mu  sync.Mutex
}

// NewFileStorage creates a FileStorage rooted at dir, creating the
// directory when needed.
func NewFileStorage(dir string) (*FileStorage, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create stub directory: %w", err)
	}
	return &FileStorage{dir: dir}, nil
}

// Dir returns the storage directory.
func (s *FileStorage) Dir() string {
	return s.dir
}

// List returns target's stubs in file order.
func (s *FileStorage) List(_ context.Context, target string) (stub.Set, error) {
	if err := checkTarget(target); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(target)
}

// Get returns one stub.
func (s *FileStorage) Get(_ context.Context, target, path string) (stub.Stub, error) {
	if err := checkTarget(target); err != nil {
		return stub.Stub{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	set, err := s.read(target)
	if err != nil {
		return stub.Stub{}, err
	}
	r, ok := set.Get(path)
	if !ok {
		return stub.Stub{}, ErrNotFound
	}
	return r.Stub, nil
}

// Save creates or replaces a stub and rewrites the target's file.
func (s *FileStorage) Save(_ context.Context, target string, r stub.Record) error {
	if err := checkRecord(target, r); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	set, err := s.read(target)
	if err != nil {
		return err
	}
	return s.write(target, set.Upsert(r))
}

// Remove deletes a stub. The file goes away with the target's last stub.
func (s *FileStorage) Remove(_ context.Context, target, path string) error {
	if err := checkTarget(target); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	set, err := s.read(target)
	if err != nil {
		return err
	}
	set, ok := set.Without(path)
	if !ok {
		return ErrNotFound
	}
	if len(set) == 0 {
		if err := os.Remove(s.filename(target)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		return nil
	}
	return s.write(target, set)
}

// Close is a no-op.
func (s *FileStorage) Close() error {
	return nil
}

func (s *FileStorage) filename(target string) string {
	return filepath.Join(s.dir, url.QueryEscape(target)+".yml")
}

func (s *FileStorage) read(target string) (stub.Set, error) {
	data, err := os.ReadFile(s.filename(target))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return stub.Set{}, nil
		}
		return nil, fmt.Errorf("read stubs of %q: %w", target, err)
	}

	var doc fileDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse stubs of %q: %w", target, err)
	}
	set := make(stub.Set, 0, len(doc.Stubs))
	for _, r := range doc.Stubs {
		set = set.Upsert(r)
	}
	return set, nil
}

// write replaces the target's file via a temp file and a rename.
func (s *FileStorage) write(target string, set stub.Set) error {
	data, err := yaml.Marshal(fileDocument{Target: target, Stubs: set})
	if err != nil {
		return fmt.Errorf("encode stubs of %q: %w", target, err)
	}

	tmp, err := os.CreateTemp(s.dir, ".stubs-*.yml")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, s.filename(target)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("write stubs of %q: %w", target, err)
	}
	return nil
}
