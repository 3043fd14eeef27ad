// Package editor is the stub editor controller. It keeps an ordered list of
// stub entries for one target in sync with a remote stub store and owns the
// transition of each entry from new to persisted to removed:
//
//	NEW --save ok--> PERSISTED --delete ok--> REMOVED
//	NEW --remove-------------------------->  REMOVED (no store call)
//
// Failed store calls never change local state. They are logged and
// returned; nothing is retried.
package editor

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/getmockd/stubrouter/pkg/form"
	"github.com/getmockd/stubrouter/pkg/logging"
	"github.com/getmockd/stubrouter/pkg/stub"
)

// Errors returned for operations the editor refuses before calling the store.
var (
	ErrIdle         = errors.New("editor has no target")
	ErrRemoved      = errors.New("entry was removed")
	ErrUnknownEntry = errors.New("entry does not belong to this editor")
)

// Operation names reported to a Recorder.
const (
	OpInitialize = "initialize"
	OpAdd        = "add"
	OpSave       = "save"
	OpRemove     = "remove"
	OpReload     = "reload"
)

// Store is the part of the stub store the editor needs.
// *stubclient.Client implements it.
type Store interface {
	ListStubs(ctx context.Context, target string) (stub.Set, error)
	SaveStub(ctx context.Context, target, path string, v form.Values) error
	DeleteStub(ctx context.Context, target, path string) error
}

// Recorder observes editor operations. err is nil on success.
type Recorder interface {
	ObserveEditorOperation(op string, err error)
}

// Editor controls the stub list of one target.
type Editor struct {
	target string
	list   *List
	store  Store
	log    *slog.Logger
	rec    Recorder

	mu      sync.RWMutex
	heading string
}

// Option configures an Editor.
type Option func(*Editor)

// WithLogger sets the logger store failures are reported to.
func WithLogger(log *slog.Logger) Option {
	return func(e *Editor) {
		if log != nil {
			e.log = log
		}
	}
}

// WithRecorder sets the operation recorder.
func WithRecorder(r Recorder) Option {
	return func(e *Editor) {
		e.rec = r
	}
}

// New creates an editor for target working on list. A nil list is replaced
// by an empty one. An empty target yields an idle editor.
func New(target string, list *List, store Store, opts ...Option) *Editor {
	if list == nil {
		list = NewList()
	}
	e := &Editor{
		target: target,
		list:   list,
		store:  store,
		log:    logging.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log = e.log.With("target", target)
	return e
}

// Target returns the target the editor administers.
func (e *Editor) Target() string {
	return e.target
}

// Idle reports whether the editor has no target.
func (e *Editor) Idle() bool {
	return e.target == ""
}

// Heading returns the page heading; empty until Initialize ran with a target.
func (e *Editor) Heading() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.heading
}

// List returns the list the editor works on.
func (e *Editor) List() *List {
	return e.list
}

// Initialize loads the target's stubs into the list as persisted entries,
// in the order the store returned them. Without a target it does nothing.
// If the listing fails the list is left as it was and the error is logged.
func (e *Editor) Initialize(ctx context.Context) {
	if e.Idle() {
		return
	}

	e.mu.Lock()
	e.heading = e.target
	e.mu.Unlock()

	entries, err := e.load(ctx)
	e.observe(OpInitialize, err)
	if err != nil {
		e.log.Error("list stubs failed", "error", err)
		return
	}
	e.list.append(entries...)
	e.log.Debug("stubs loaded", "count", len(entries))
}

// Reload replaces the whole list, unsaved entries included, with the
// store's current stubs. On failure the list is left untouched.
func (e *Editor) Reload(ctx context.Context) error {
	if e.Idle() {
		return ErrIdle
	}

	entries, err := e.load(ctx)
	e.observe(OpReload, err)
	if err != nil {
		e.log.Error("reload stubs failed", "error", err)
		return err
	}
	for _, old := range e.list.Entries() {
		old.markRemoved()
	}
	e.list.replace(entries)
	return nil
}

func (e *Editor) load(ctx context.Context) ([]*Entry, error) {
	set, err := e.store.ListStubs(ctx, e.target)
	if err != nil {
		return nil, err
	}
	entries := make([]*Entry, 0, len(set))
	for _, r := range set {
		entries = append(entries, newEntry(form.FromRecord(r), stub.StatePersisted))
	}
	return entries, nil
}

// Add appends an empty new entry to the end of the list.
func (e *Editor) Add() *Entry {
	entry := newEntry(form.Values{}, stub.StateNew)
	e.list.append(entry)
	e.observe(OpAdd, nil)
	return entry
}

// Save stores the entry's current input values under its path. On success
// a new entry becomes persisted and its path is locked; the entry keeps its
// position. On failure the entry is left unchanged.
func (e *Editor) Save(ctx context.Context, entry *Entry) error {
	if err := e.check(entry); err != nil {
		return err
	}

	v := entry.Values()
	err := e.store.SaveStub(ctx, e.target, v.Path, v)
	e.observe(OpSave, err)
	if err != nil {
		e.log.Error("save stub failed", "path", v.Path, "new", entry.IsNew(), "error", err)
		return err
	}

	entry.markPersisted()
	e.log.Debug("stub saved", "path", v.Path)
	return nil
}

// Remove takes the entry out of the list. A new entry is dropped locally
// without a store call. A persisted entry is deleted from the store first
// and only leaves the list once the store confirmed the delete.
func (e *Editor) Remove(ctx context.Context, entry *Entry) error {
	if entry == nil || !e.list.Contains(entry) {
		return e.missing(entry)
	}

	if entry.IsNew() {
		e.drop(entry)
		e.observe(OpRemove, nil)
		return nil
	}

	if e.Idle() {
		return ErrIdle
	}

	path := entry.Path()
	err := e.store.DeleteStub(ctx, e.target, path)
	e.observe(OpRemove, err)
	if err != nil {
		e.log.Error("delete stub failed", "path", path, "error", err)
		return err
	}

	e.drop(entry)
	e.log.Debug("stub deleted", "path", path)
	return nil
}

func (e *Editor) drop(entry *Entry) {
	e.list.remove(entry)
	entry.markRemoved()
}

func (e *Editor) check(entry *Entry) error {
	if entry == nil || !e.list.Contains(entry) {
		return e.missing(entry)
	}
	if e.Idle() {
		return ErrIdle
	}
	return nil
}

func (e *Editor) missing(entry *Entry) error {
	if entry != nil && entry.State() == stub.StateRemoved {
		return ErrRemoved
	}
	return ErrUnknownEntry
}

func (e *Editor) observe(op string, err error) {
	if e.rec != nil {
		e.rec.ObserveEditorOperation(op, err)
	}
}
