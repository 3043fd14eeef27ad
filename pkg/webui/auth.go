package webui

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/getmockd/stubrouter/pkg/stubclient"
)

// Login routes and the cookie holding the operator's token.
const (
	LoginPath   = "/login"
	LogoutPath  = "/logout"
	TokenCookie = "stubrouter_token"
)

// Verifier checks an operator token and returns the operator it names.
// *stubapi.Auth implements it.
type Verifier interface {
	Verify(token string) (string, error)
}

var errNoToken = errors.New("no token")

type operatorKey struct{}

// OperatorFrom returns the signed-in operator, or "" when the UI runs
// without authentication.
func OperatorFrom(ctx context.Context) string {
	op, _ := ctx.Value(operatorKey{}).(string)
	return op
}

// requireOperator lets a request through only with a valid token, taken
// from the Authorization header or the token cookie. The token is handed on
// to the store client so store calls run as the operator.
func (s *Server) requireOperator(h http.HandlerFunc) http.HandlerFunc {
	if s.auth == nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		token := requestToken(r)
		op, err := "", errNoToken
		if token != "" {
			op, err = s.auth.Verify(token)
		}
		if err != nil {
			s.log.Debug("operator rejected", "method", r.Method, "url", r.URL.Path, "error", err)
			if r.Method == http.MethodGet {
				http.Redirect(w, r, LoginPath+"?"+url.Values{"next": {r.URL.RequestURI()}}.Encode(), http.StatusSeeOther)
				return
			}
			http.Error(w, "sign in required", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), operatorKey{}, op)
		ctx = stubclient.ContextWithToken(ctx, token)
		h(w, r.WithContext(ctx))
	}
}

func requestToken(r *http.Request) string {
	if t, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return t
	}
	if c, err := r.Cookie(TokenCookie); err == nil {
		return c.Value
	}
	return ""
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	s.renderLogin(w, http.StatusOK, loginData{Next: safeNext(r.URL.Query().Get("next"))})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	next := safeNext(r.PostForm.Get("next"))
	if s.auth == nil {
		http.Redirect(w, r, next, http.StatusSeeOther)
		return
	}

	token := strings.TrimSpace(r.PostForm.Get("token"))
	op, err := "", errNoToken
	if token != "" {
		op, err = s.auth.Verify(token)
	}
	if err != nil {
		s.log.Info("sign in failed", "remote", r.RemoteAddr, "error", err)
		s.renderLogin(w, http.StatusUnauthorized, loginData{Next: next, Error: "That token is not valid."})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	// Drop the editor session so a new operator starts from the store.
	clearCookie(w, SessionCookie)
	s.log.Info("operator signed in", "user", op)
	http.Redirect(w, r, next, http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	clearCookie(w, TokenCookie)
	clearCookie(w, SessionCookie)
	http.Redirect(w, r, LoginPath, http.StatusSeeOther)
}

func (s *Server) renderLogin(w http.ResponseWriter, status int, data loginData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := loginTmpl.Execute(w, data); err != nil {
		s.log.Error("render login failed", "error", err)
	}
}

func clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{Name: name, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
}

// safeNext keeps redirects after sign in on this site.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}
