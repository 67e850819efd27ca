package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/yourorg/taskauth/internal/auth"
)

// requireScopes rejects requests whose bearer token does not carry every
// scope listed, and stores the resolved identity in the request context.
func (s *Server) requireScopes(scopes ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := auth.BearerToken(r)
			if err == nil {
				var id auth.Identity
				id, err = s.enforcer.Authorize(r.Context(), token, scopes...)
				if err == nil {
					next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
					return
				}
			}
			kind := "invalid_credentials"
			if errors.Is(err, auth.ErrInsufficientScope) {
				kind = "insufficient_scope"
			}
			s.log.Warn(r.Context(), "authorization failed", "kind", kind, "path", r.URL.Path, "err", err)
			s.writeError(w, r, err)
		})
	}
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Info(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
