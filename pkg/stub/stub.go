// Package stub provides the data model for stub definitions: a request path
// mapped to a canned HTTP response (status, headers, body and delay) for a
// mock target.
package stub

import (
	"errors"
	"strings"
)

// ErrEmptyPath is returned when a stub is addressed without a path.
var ErrEmptyPath = errors.New("stub path is required")

// Stub is the persisted payload of a single stub. Zero values mean "absent":
// a zero Code or Timeout was never set, and nil Headers were never provided.
type Stub struct {
	// Code is the HTTP status returned by the stub.
	Code int `json:"code" yaml:"code"`

	// Headers are response headers, name to value.
	Headers map[string]string `json:"headers" yaml:"headers"`

	// Data is the response body.
	Data string `json:"data" yaml:"data"`

	// Timeout is the artificial delay in milliseconds before the stub responds.
	Timeout int `json:"timeout" yaml:"timeout"`
}

// Record is one stub rule of a target. Path is the identity key of the
// record; every store operation is addressed by (target, Path).
type Record struct {
	Path string `json:"path" yaml:"path"`
	Stub `yaml:",inline"`
}

// Validate reports whether the record can be addressed in a store.
func (r Record) Validate() error {
	if strings.TrimSpace(r.Path) == "" {
		return ErrEmptyPath
	}
	return nil
}

// Clone returns a deep copy of the stub.
func (s Stub) Clone() Stub {
	c := s
	if s.Headers != nil {
		c.Headers = make(map[string]string, len(s.Headers))
		for k, v := range s.Headers {
			c.Headers[k] = v
		}
	}
	return c
}

// State is the lifecycle state of a stub entry in the editor.
type State int

const (
	// StateNew marks an entry that was created locally and never saved.
	StateNew State = iota
	// StatePersisted marks an entry whose values are confirmed stored.
	StatePersisted
	// StateRemoved marks an entry that left the editor list.
	StateRemoved
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StatePersisted:
		return "persisted"
	case StateRemoved:
		return "removed"
	default:
		return "unknown"
	}
}
