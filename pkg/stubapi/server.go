// Package stubapi serves the stub store API consumed by the stub editor:
//
//	GET    /stubapi/?target=T          all stubs of T as an ordered object
//	GET    /stubapi/?target=T&path=P   one stub
//	POST   /stubapi/?target=T&path=P   create or replace a stub
//	DELETE /stubapi/?target=T&path=P   remove a stub
//
// Writes answer 200 {"status":"ok"}. Failures answer the JSON envelope
// {"error": code, "message": text}.
package stubapi

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/getmockd/stubrouter/pkg/logging"
	"github.com/getmockd/stubrouter/pkg/stub"
	"github.com/getmockd/stubrouter/pkg/stubstore"
)

// APIPath is the single path the API is served on.
const APIPath = "/stubapi/"

// Recorder observes served requests.
type Recorder interface {
	ObserveAPIRequest(method string, status int, d time.Duration)
}

// Server handles the stub store API on top of a Storage.
type Server struct {
	store stubstore.Storage
	auth  *Auth
	log   *slog.Logger
	rec   Recorder
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Server) {
		if log != nil {
			s.log = log
		}
	}
}

// WithAuth requires bearer tokens verified by a. A nil a disables auth.
func WithAuth(a *Auth) Option {
	return func(s *Server) {
		s.auth = a
	}
}

// WithRecorder sets the request recorder.
func WithRecorder(r Recorder) Option {
	return func(s *Server) {
		s.rec = r
	}
}

// New creates a Server backed by store.
func New(store stubstore.Storage, opts ...Option) *Server {
	s := &Server{
		store: store,
		log:   logging.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = logging.Component(s.log, "stubapi")
	return s
}

// Register mounts the API routes on r.
func (s *Server) Register(r *mux.Router) {
	r.Handle(APIPath, s.wrap(http.HandlerFunc(s.handleStub))).
		Queries("target", "{target}", "path", "{path}").
		Methods(http.MethodGet, http.MethodPost, http.MethodDelete)
	r.Handle(APIPath, s.wrap(http.HandlerFunc(s.handleTarget))).
		Queries("target", "{target}").
		Methods(http.MethodGet)
	r.Handle(APIPath, s.wrap(http.HandlerFunc(s.handleUnmatched)))
}

// Handler returns a router serving only the API.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	s.Register(r)
	return r
}

func (s *Server) handleTarget(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("target")
	if target == "" {
		writeError(w, http.StatusBadRequest, ErrCodeMissingTarget, "target is required")
		return
	}

	set, err := s.store.List(r.Context(), target)
	if err != nil {
		s.storageError(w, r, err, target, "")
		return
	}
	if set == nil {
		set = stub.Set{}
	}
	writeJSON(w, http.StatusOK, set)
}

func (s *Server) handleStub(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	target, path := q.Get("target"), q.Get("path")
	if target == "" {
		writeError(w, http.StatusBadRequest, ErrCodeMissingTarget, "target is required")
		return
	}
	if path == "" {
		writeError(w, http.StatusBadRequest, ErrCodeMissingPath, "path is required")
		return
	}

	switch r.Method {
	case http.MethodGet:
		st, err := s.store.Get(r.Context(), target, path)
		if err != nil {
			s.storageError(w, r, err, target, path)
			return
		}
		writeJSON(w, http.StatusOK, st)

	case http.MethodPost:
		st, err := DecodePayload(r.Body)
		if err != nil {
			var pe *PayloadError
			if errors.As(err, &pe) {
				writeError(w, http.StatusBadRequest, ErrCodeInvalidPayload, pe.Error())
				return
			}
			s.log.Error("stub payload schema unavailable", "error", err)
			writeError(w, http.StatusInternalServerError, ErrCodeInternal, "payload validation unavailable")
			return
		}
		if err := s.store.Save(r.Context(), target, stub.Record{Path: path, Stub: st}); err != nil {
			s.storageError(w, r, err, target, path)
			return
		}
		s.log.Info("stub saved", "target", target, "path", path, "code", st.Code, "user", UserFrom(r.Context()))
		writeOK(w)

	case http.MethodDelete:
		if err := s.store.Remove(r.Context(), target, path); err != nil {
			s.storageError(w, r, err, target, path)
			return
		}
		s.log.Info("stub removed", "target", target, "path", path, "user", UserFrom(r.Context()))
		writeOK(w)
	}
}

func (s *Server) handleUnmatched(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	switch {
	case q.Get("target") == "":
		writeError(w, http.StatusBadRequest, ErrCodeMissingTarget, "target is required")
	case q.Get("path") == "" && (r.Method == http.MethodPost || r.Method == http.MethodDelete):
		writeError(w, http.StatusBadRequest, ErrCodeMissingPath, "path is required")
	default:
		w.Header().Set("Allow", "GET, POST, DELETE")
		writeError(w, http.StatusMethodNotAllowed, ErrCodeMethod, r.Method+" is not supported")
	}
}

func (s *Server) storageError(w http.ResponseWriter, r *http.Request, err error, target, path string) {
	switch {
	case errors.Is(err, stubstore.ErrNotFound):
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "stub "+path+" for target "+target+" not found")
	case errors.Is(err, stubstore.ErrNoTarget):
		writeError(w, http.StatusBadRequest, ErrCodeMissingTarget, "target is required")
	case errors.Is(err, stub.ErrEmptyPath):
		writeError(w, http.StatusBadRequest, ErrCodeMissingPath, "path is required")
	default:
		s.log.Error("storage operation failed",
			"method", r.Method, "target", target, "path", path, "error", err)
		writeError(w, http.StatusInternalServerError, ErrCodeStorage, "stub storage failed")
	}
}
