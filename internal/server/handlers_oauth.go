package server

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/yourorg/taskauth/internal/oauth"
)

const stateCookie = "taskd_oauth_state"

type callbackResponse struct {
	Identity     string    `json:"identity"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type,omitempty"`
	Scope        string    `json:"scope,omitempty"`
	Scopes       []string  `json:"scopes"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// OAuthStart redirects the browser to the provider. The state goes both to
// the server-side store and to a cookie so the callback can prove it comes
// from the same browser that started the flow.
func (s *Server) OAuthStart(w http.ResponseWriter, r *http.Request) {
	if s.oauth == nil {
		s.writeError(w, r, oauth.ErrNotConfigured)
		return
	}
	state, err := s.states.Create()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   int(s.stateTTL.Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, s.oauth.AuthURL(state), http.StatusFound)
}

// OAuthCallback checks state, exchanges the code and returns the provider
// token payload. The provider access token can then be used as a bearer
// token through the session cache.
func (s *Server) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	if s.oauth == nil {
		s.writeError(w, r, oauth.ErrNotConfigured)
		return
	}
	if errParam := r.FormValue("error"); errParam != "" {
		s.writeError(w, r, badRequest("provider denied authorization: %s %s", errParam, r.FormValue("error_description")))
		return
	}

	state := r.FormValue("state")
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
	if err := s.checkState(r, state); err != nil {
		s.log.Warn(r.Context(), "oauth state rejected", "err", err)
		s.writeError(w, r, err)
		return
	}

	code := r.FormValue("code")
	if code == "" {
		s.writeError(w, r, badRequest("code missing"))
		return
	}
	sess, err := s.oauth.Exchange(r.Context(), code)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.log.Info(r.Context(), "provider session stored", "identity", sess.Identity)
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, callbackResponse{
		Identity:     sess.Identity,
		AccessToken:  sess.AccessToken,
		RefreshToken: sess.RefreshToken,
		TokenType:    sess.TokenType,
		Scope:        sess.ProviderScope,
		Scopes:       sess.Scopes,
		ExpiresAt:    sess.ExpiresAt,
	})
}

func (s *Server) checkState(r *http.Request, state string) error {
	if state == "" {
		return oauth.ErrInvalidState
	}
	c, err := r.Cookie(stateCookie)
	if err != nil || subtle.ConstantTimeCompare([]byte(c.Value), []byte(state)) != 1 {
		// still burn the server-side entry so a leaked state cannot be replayed
		_ = s.states.Consume(state)
		return oauth.ErrInvalidState
	}
	return s.states.Consume(state)
}
