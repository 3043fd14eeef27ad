package editor

import "sync"

// List is the ordered collection of entries an editor works on: store order
// for loaded entries, append order for added ones.
type List struct {
	mu      sync.RWMutex
	entries []*Entry
}

// NewList creates an empty list.
func NewList() *List {
	return &List{}
}

// Len returns the number of entries.
func (l *List) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Entries returns the entries in order. The returned slice is a copy.
func (l *List) Entries() []*Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Get returns the entry with the given ID.
func (l *List) Get(id string) (*Entry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, e := range l.entries {
		if e.id == id {
			return e, true
		}
	}
	return nil, false
}

// HasUnsaved reports whether any entry is still new.
func (l *List) HasUnsaved() bool {
	for _, e := range l.Entries() {
		if e.IsNew() {
			return true
		}
	}
	return false
}

// Contains reports whether e is in the list.
func (l *List) Contains(e *Entry) bool {
	return l.index(e) >= 0
}

func (l *List) index(e *Entry) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for i, x := range l.entries {
		if x == e {
			return i
		}
	}
	return -1
}

func (l *List) append(es ...*Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, es...)
}

func (l *List) replace(es []*Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = es
}

func (l *List) remove(e *Entry) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, x := range l.entries {
		if x == e {
			l.entries = append(l.entries[:i:i], l.entries[i+1:]...)
			return true
		}
	}
	return false
}
