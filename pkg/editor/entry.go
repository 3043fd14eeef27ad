package editor

import (
	"html/template"
	"sync"

	"github.com/google/uuid"

	"github.com/getmockd/stubrouter/pkg/form"
	"github.com/getmockd/stubrouter/pkg/stub"
)

// Entry is one stub row of the editor: the current text of its inputs and
// its lifecycle state. The state is owned by the entry, never recomputed
// from the store.
type Entry struct {
	id string

	mu     sync.Mutex
	values form.Values
	state  stub.State
}

func newEntry(v form.Values, state stub.State) *Entry {
	return &Entry{
		id:     uuid.NewString(),
		values: v,
		state:  state,
	}
}

// ID returns the entry's editor-local identifier.
func (e *Entry) ID() string {
	return e.id
}

// Values returns a snapshot of the entry's inputs.
func (e *Entry) Values() form.Values {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.values
}

// Path returns the current path input.
func (e *Entry) Path() string {
	return e.Values().Path
}

// State returns the lifecycle state.
func (e *Entry) State() stub.State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// IsNew reports whether the entry was never saved.
func (e *Entry) IsNew() bool {
	return e.State() == stub.StateNew
}

// Update replaces the entry's inputs with operator edits. The path of a
// persisted entry is its identity in the store and cannot be changed; a
// different path in v is ignored.
func (e *Entry) Update(v form.Values) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != stub.StateNew {
		v.Path = e.values.Path
	}
	e.values = v
}

// Render returns the entry's editable fragment.
func (e *Entry) Render(target string, opts ...form.Option) (template.HTML, error) {
	e.mu.Lock()
	v, isNew := e.values, e.state == stub.StateNew
	e.mu.Unlock()

	opts = append([]form.Option{form.WithID(e.id)}, opts...)
	return form.Render(target, v, isNew, opts...)
}

// markPersisted moves a new entry to persisted. Removed entries stay removed.
func (e *Entry) markPersisted() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == stub.StateNew {
		e.state = stub.StatePersisted
	}
}

func (e *Entry) markRemoved() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = stub.StateRemoved
}
