// Package webui serves the stub editor pages. Each browser session keeps
// its own editor per target; form posts drive the editor and redirect back
// to the editor page. With WithAuth every page and action needs a signed-in
// operator.
package webui

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/patrickmn/go-cache"

	"github.com/getmockd/stubrouter/pkg/editor"
	"github.com/getmockd/stubrouter/pkg/form"
	"github.com/getmockd/stubrouter/pkg/logging"
	"github.com/getmockd/stubrouter/pkg/stubclient"
)

// Routes.
const (
	EditorPath = "/stubs"
	AddPath    = "/stubs/add"
	SavePath   = "/stubs/save"
	RemovePath = "/stubs/remove"
	ReloadPath = "/stubs/reload"
)

// SessionCookie names the cookie carrying the session id.
const SessionCookie = "stubrouter_session"

// DefaultSessionTTL is how long an idle session is kept.
const DefaultSessionTTL = 24 * time.Hour

// Server serves the editor UI.
type Server struct {
	store    editor.Store
	targets  []string
	sessions *cache.Cache
	log      *slog.Logger
	rec      editor.Recorder
	auth     Verifier
}

// Option configures a Server.
type Option func(*Server)

// WithTargets sets the targets listed on the index page.
func WithTargets(targets ...string) Option {
	return func(s *Server) {
		s.targets = append([]string(nil), targets...)
	}
}

// WithLogger sets the logger handed to every editor.
func WithLogger(log *slog.Logger) Option {
	return func(s *Server) {
		if log != nil {
			s.log = log
		}
	}
}

// WithRecorder sets the recorder handed to every editor.
func WithRecorder(r editor.Recorder) Option {
	return func(s *Server) {
		s.rec = r
	}
}

// WithAuth requires a signed-in operator for every editor page and action.
// Store calls then carry the operator's token.
func WithAuth(v Verifier) Option {
	return func(s *Server) {
		s.auth = v
	}
}

// WithSessionTTL sets the idle session lifetime.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Server) {
		if ttl > 0 {
			s.sessions = cache.New(ttl, 2*ttl)
		}
	}
}

// New creates a Server whose editors talk to store.
func New(store editor.Store, opts ...Option) *Server {
	s := &Server{
		store:    store,
		sessions: cache.New(DefaultSessionTTL, 2*DefaultSessionTTL),
		log:      logging.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = logging.Component(s.log, "webui")
	return s
}

// Register mounts the UI routes on r.
func (s *Server) Register(r *mux.Router) {
	r.HandleFunc(LoginPath, s.handleLoginPage).Methods(http.MethodGet)
	r.HandleFunc(LoginPath, s.handleLogin).Methods(http.MethodPost)
	r.HandleFunc(LogoutPath, s.handleLogout).Methods(http.MethodPost)

	r.HandleFunc("/", s.requireOperator(s.handleEditor)).Methods(http.MethodGet)
	r.HandleFunc(EditorPath, s.requireOperator(s.handleEditor)).Methods(http.MethodGet)
	r.HandleFunc(AddPath, s.requireOperator(s.action(s.add))).Methods(http.MethodPost)
	r.HandleFunc(SavePath, s.requireOperator(s.action(s.save))).Methods(http.MethodPost)
	r.HandleFunc(RemovePath, s.requireOperator(s.action(s.remove))).Methods(http.MethodPost)
	r.HandleFunc(ReloadPath, s.requireOperator(s.action(s.reload))).Methods(http.MethodPost)
}

// Handler returns a router serving only the UI.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	s.Register(r)
	return r
}

// session returns the caller's session, starting one when the cookie is
// missing or expired.
func (s *Server) session(w http.ResponseWriter, r *http.Request) *session {
	if c, err := r.Cookie(SessionCookie); err == nil {
		if v, ok := s.sessions.Get(c.Value); ok {
			sess := v.(*session)
			s.sessions.Set(c.Value, sess, cache.DefaultExpiration)
			return sess
		}
	}

	id := uuid.NewString()
	sess := newSession()
	s.sessions.Set(id, sess, cache.DefaultExpiration)
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return sess
}

// editor returns the session's editor for target. A new editor is
// initialized from the store; fresh reports whether that just happened.
func (s *Server) editor(ctx context.Context, sess *session, target string) (ed *editor.Editor, fresh bool) {
	ed, created := sess.editor(target, func() *editor.Editor {
		return editor.New(target, nil, s.store,
			editor.WithLogger(s.log), editor.WithRecorder(s.rec))
	})
	if created {
		ed.Initialize(ctx)
	}
	return ed, created
}

func (s *Server) handleEditor(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("target")
	data := pageData{
		Operator:   OperatorFrom(r.Context()),
		LogoutPath: LogoutPath,
		Targets:    s.targets,
		EditorPath: EditorPath,
	}

	if target == "" {
		s.render(w, data)
		return
	}

	sess := s.session(w, r)
	ed, fresh := s.editor(r.Context(), sess, target)
	// Every page load shows the store's current stubs unless that would
	// drop entries the operator has not saved yet.
	if !fresh && !ed.List().HasUnsaved() {
		_ = ed.Reload(r.Context())
	}
	data.Heading = ed.Heading()
	data.Flash = sess.takeFlash(target)
	data.AddURL = actionURL(AddPath, target, "")
	data.ReloadURL = actionURL(ReloadPath, target, "")

	for _, entry := range ed.List().Entries() {
		html, err := fragment(target, entry)
		if err != nil {
			s.log.Error("render stub failed", "target", target, "path", entry.Path(), "error", err)
			http.Error(w, "render failed", http.StatusInternalServerError)
			return
		}
		data.Entries = append(data.Entries, html)
	}
	s.render(w, data)
}

func (s *Server) render(w http.ResponseWriter, data pageData) {
	var buf bytes.Buffer
	if err := pageTmpl.Execute(&buf, data); err != nil {
		s.log.Error("render page failed", "error", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

// actionFunc performs one editor action. The returned anchor, if any, is
// appended to the redirect.
type actionFunc func(ctx context.Context, ed *editor.Editor, r *http.Request) (anchor string, err error)

func (s *Server) action(fn actionFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		target := r.URL.Query().Get("target")
		if target == "" {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form", http.StatusBadRequest)
			return
		}

		sess := s.session(w, r)
		ed, _ := s.editor(r.Context(), sess, target)
		anchor, err := fn(r.Context(), ed, r)
		if err != nil {
			sess.setFlash(target, flashMessage(err))
		}

		dest := actionURL(EditorPath, target, "")
		if anchor != "" {
			dest += "#stub-" + anchor
		}
		http.Redirect(w, r, dest, http.StatusSeeOther)
	}
}

func entryOf(ed *editor.Editor, r *http.Request) (*editor.Entry, error) {
	entry, ok := ed.List().Get(r.URL.Query().Get("id"))
	if !ok {
		return nil, editor.ErrUnknownEntry
	}
	return entry, nil
}

func (s *Server) add(_ context.Context, ed *editor.Editor, _ *http.Request) (string, error) {
	return ed.Add().ID(), nil
}

func (s *Server) save(ctx context.Context, ed *editor.Editor, r *http.Request) (string, error) {
	entry, err := entryOf(ed, r)
	if err != nil {
		return "", err
	}
	entry.Update(form.ParseValues(r.PostForm))
	return entry.ID(), ed.Save(ctx, entry)
}

func (s *Server) remove(ctx context.Context, ed *editor.Editor, r *http.Request) (string, error) {
	entry, err := entryOf(ed, r)
	if err != nil {
		return "", err
	}
	if err := ed.Remove(ctx, entry); err != nil {
		return entry.ID(), err
	}
	return "", nil
}

func (s *Server) reload(ctx context.Context, ed *editor.Editor, _ *http.Request) (string, error) {
	return "", ed.Reload(ctx)
}

func flashMessage(err error) string {
	var apiErr *stubclient.APIError
	switch {
	case errors.Is(err, editor.ErrUnknownEntry), errors.Is(err, editor.ErrRemoved):
		return "That stub is no longer on this page."
	case errors.Is(err, stubclient.ErrNotFound):
		return "The stub store does not know this stub."
	case errors.As(err, &apiErr) && apiErr.Message != "":
		return "The stub store rejected the request: " + apiErr.Message
	case stubclient.IsRejection(err):
		return "The stub store rejected the request."
	default:
		return "The stub store could not be reached."
	}
}

func actionURL(path, target, id string) string {
	q := url.Values{"target": {target}}
	if id != "" {
		q.Set("id", id)
	}
	return path + "?" + q.Encode()
}

func fragment(target string, entry *editor.Entry) (template.HTML, error) {
	return entry.Render(target, form.WithActions(
		actionURL(SavePath, target, entry.ID()),
		actionURL(RemovePath, target, entry.ID()),
	))
}
