package stubapi

import (
	"fmt"
	"net/http"
	"time"
)

// statusWriter captures the status code written by a handler.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// wrap applies recovery, request logging, metrics and auth to h.
func (s *Server) wrap(h http.Handler) http.Handler {
	h = s.auth.Middleware(h)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		defer func() {
			if p := recover(); p != nil {
				s.log.Error("panic serving stub api", "method", r.Method, "url", r.URL.String(), "panic", fmt.Sprint(p))
				writeError(sw, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
			}
			d := time.Since(start)
			s.log.Debug("stub api request",
				"remote", r.RemoteAddr, "method", r.Method, "url", r.URL.String(),
				"status", sw.status, "duration", d)
			if s.rec != nil {
				s.rec.ObserveAPIRequest(r.Method, sw.status, d)
			}
		}()

		h.ServeHTTP(sw, r)
	})
}
