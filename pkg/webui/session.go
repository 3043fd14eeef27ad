package webui

import (
	"sync"

	"github.com/getmockd/stubrouter/pkg/editor"
)

// session holds one browser's editors, one per target, so unsaved entries
// survive between page loads.
type session struct {
	mu      sync.Mutex
	editors map[string]*editor.Editor
	flash   map[string]string
}

func newSession() *session {
	return &session{
		editors: make(map[string]*editor.Editor),
		flash:   make(map[string]string),
	}
}

// editor returns the session's editor for target, creating it with create
// on first use. created reports whether it was just made.
func (s *session) editor(target string, create func() *editor.Editor) (ed *editor.Editor, created bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ed, ok := s.editors[target]; ok {
		return ed, false
	}
	ed = create()
	s.editors[target] = ed
	return ed, true
}

func (s *session) setFlash(target, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flash[target] = msg
}

// takeFlash returns and clears the pending message for target.
func (s *session) takeFlash(target string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg := s.flash[target]
	delete(s.flash, target)
	return msg
}
