package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/yourorg/taskauth/internal/auth"
	"github.com/yourorg/taskauth/internal/oauth"
	"github.com/yourorg/taskauth/internal/tasks"
	"github.com/yourorg/taskauth/internal/users"
)

// requestError is a client mistake caught before reaching any store.
type requestError struct {
	status int
	msg    string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &requestError{status: http.StatusBadRequest, msg: fmt.Sprintf(format, args...)}
}

func unprocessable(format string, args ...any) error {
	return &requestError{status: http.StatusUnprocessableEntity, msg: fmt.Sprintf(format, args...)}
}

type errorBody struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError is the single place where failure kinds become status codes.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		reqErr *requestError
		xErr   *oauth.ExchangeError
	)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		w.Header().Set("WWW-Authenticate", `Bearer`)
		writeJSON(w, http.StatusUnauthorized, errorBody{"invalid credentials"})
	case errors.Is(err, auth.ErrInsufficientScope):
		w.Header().Set("WWW-Authenticate", `Bearer error="insufficient_scope"`)
		writeJSON(w, http.StatusForbidden, errorBody{err.Error()})
	case errors.Is(err, tasks.ErrNotFound), errors.Is(err, users.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{err.Error()})
	case errors.Is(err, tasks.ErrInvalidTask):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{err.Error()})
	case errors.As(err, &reqErr):
		writeJSON(w, reqErr.status, errorBody{reqErr.msg})
	case errors.As(err, &xErr):
		s.log.Warn(r.Context(), "provider exchange failed", "status", xErr.StatusCode, "body", xErr.Body, "err", xErr.Err)
		code := http.StatusBadGateway
		if xErr.Rejected() {
			code = http.StatusBadRequest
		}
		writeJSON(w, code, errorBody{xErr.Error()})
	case errors.Is(err, oauth.ErrInvalidState):
		writeJSON(w, http.StatusBadRequest, errorBody{err.Error()})
	case errors.Is(err, oauth.ErrNotConfigured):
		writeJSON(w, http.StatusServiceUnavailable, errorBody{err.Error()})
	default:
		s.log.Error(r.Context(), "request failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{"internal error"})
	}
}
