package stub

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Set is an ordered collection of records belonging to one target.
//
// Its JSON form is an object keyed by path. Unlike a Go map, key order is
// kept in both directions: records are encoded in slice order and decoded
// in document order.
type Set []Record

// Get returns the record with the given path.
func (s Set) Get(path string) (Record, bool) {
	if i := s.Index(path); i >= 0 {
		return s[i], true
	}
	return Record{}, false
}

// Index returns the position of path in the set, or -1.
func (s Set) Index(path string) int {
	for i, r := range s {
		if r.Path == path {
			return i
		}
	}
	return -1
}

// Paths returns the record paths in order.
func (s Set) Paths() []string {
	paths := make([]string, len(s))
	for i, r := range s {
		paths[i] = r.Path
	}
	return paths
}

// Upsert replaces the record with the same path in place, or appends it.
func (s Set) Upsert(r Record) Set {
	if i := s.Index(r.Path); i >= 0 {
		s[i] = r
		return s
	}
	return append(s, r)
}

// Without returns the set minus the record with the given path and whether
// such a record existed.
func (s Set) Without(path string) (Set, bool) {
	i := s.Index(path)
	if i < 0 {
		return s, false
	}
	out := make(Set, 0, len(s)-1)
	out = append(out, s[:i]...)
	return append(out, s[i+1:]...), true
}

// MarshalJSON encodes the set as an object keyed by path, in slice order.
func (s Set) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, r := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(r.Path)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(r.Stub)
		if err != nil {
			return nil, fmt.Errorf("encode stub %q: %w", r.Path, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an object keyed by path, keeping document order.
// A repeated key keeps its first position and its last value.
func (s *Set) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*s = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("stub set: expected object, got %v", tok)
	}

	out := Set{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		path, ok := tok.(string)
		if !ok {
			return fmt.Errorf("stub set: expected string key, got %v", tok)
		}
		var st Stub
		if err := dec.Decode(&st); err != nil {
			return fmt.Errorf("stub set: decode %q: %w", path, err)
		}
		out = out.Upsert(Record{Path: path, Stub: st})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*s = out
	return nil
}
