package server

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/yourorg/taskauth/internal/auth"
	"github.com/yourorg/taskauth/internal/users"
)

type tokenResponse struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int64     `json:"expires_in"`
	ExpiresAt    time.Time `json:"expires_at"`
	Scope        string    `json:"scope"`
	RefreshToken string    `json:"refresh_token"`
}

type tokenRequest struct {
	Username     string `json:"username"`
	Password     string `json:"password"`
	Scope        string `json:"scope"`
	RefreshToken string `json:"refresh_token"`
}

// decodeTokenRequest accepts the OAuth2 form encoding or JSON.
func decodeTokenRequest(r *http.Request) (tokenRequest, error) {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "application/json" {
		var req tokenRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return tokenRequest{}, badRequest("invalid token request: %v", err)
		}
		return req, nil
	}
	if err := r.ParseForm(); err != nil {
		return tokenRequest{}, badRequest("invalid token request: %v", err)
	}
	return tokenRequest{
		Username:     r.PostForm.Get("username"),
		Password:     r.PostForm.Get("password"),
		Scope:        r.PostForm.Get("scope"),
		RefreshToken: r.PostForm.Get("refresh_token"),
	}, nil
}

// IssueToken is the password grant: credentials in, signed token out.
// Without a scope parameter the request covers the whole account.
func (s *Server) IssueToken(w http.ResponseWriter, r *http.Request) {
	req, err := decodeTokenRequest(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Username == "" || req.Password == "" {
		s.writeError(w, r, badRequest("username and password are required"))
		return
	}
	if !s.users.Verify(r.Context(), req.Username, req.Password) {
		s.log.Warn(r.Context(), "login failed", "username", req.Username)
		s.writeError(w, r, auth.ErrInvalidCredentials)
		return
	}
	u, err := s.activeUser(r, req.Username)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	requested := auth.ParseScopes(req.Scope)
	if len(requested) == 0 {
		// absent scope means the account's default set (RFC 6749 3.3); an
		// explicit request is still intersected and never widened
		requested = u.Scopes
	}
	s.respondWithTokens(w, r, u, requested)
}

// RefreshToken rotates a refresh token into a new token pair carrying the
// scopes of the original grant that the account still holds.
func (s *Server) RefreshToken(w http.ResponseWriter, r *http.Request) {
	req, err := decodeTokenRequest(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.RefreshToken == "" {
		s.writeError(w, r, badRequest("refresh_token is required"))
		return
	}
	rt, err := s.refresh.Consume(req.RefreshToken)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	u, err := s.activeUser(r, rt.Subject)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.respondWithTokens(w, r, u, rt.Scopes)
}

func (s *Server) activeUser(r *http.Request, username string) (users.User, error) {
	u, err := s.users.Lookup(r.Context(), username)
	if errors.Is(err, users.ErrNotFound) {
		return users.User{}, auth.ErrInvalidCredentials
	}
	if err != nil {
		return users.User{}, err
	}
	if u.Disabled {
		s.log.Warn(r.Context(), "disabled account refused", "username", username)
		return users.User{}, auth.ErrInvalidCredentials
	}
	return u, nil
}

func (s *Server) respondWithTokens(w http.ResponseWriter, r *http.Request, u users.User, requested []string) {
	tok, err := s.tokens.Issue(u, requested, 0)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if len(tok.Scopes) == 0 {
		s.log.Warn(r.Context(), "issued token grants no scopes", "username", u.Username, "requested", requested)
	}
	rt, err := s.refresh.Issue(u.Username, tok.Scopes)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.log.Info(r.Context(), "token issued", "username", u.Username, "scopes", tok.Scopes)
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken:  tok.Value,
		TokenType:    "bearer",
		ExpiresIn:    int64(tok.ExpiresAt.Sub(tok.IssuedAt).Seconds()),
		ExpiresAt:    tok.ExpiresAt,
		Scope:        strings.Join(tok.Scopes, " "),
		RefreshToken: rt.Token,
	})
}

// Verify reports who the presented bearer token belongs to.
func (s *Server) Verify(w http.ResponseWriter, r *http.Request) {
	token, err := auth.BearerToken(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	id, err := s.enforcer.Authorize(r.Context(), token)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, id)
}
