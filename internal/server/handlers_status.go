package server

import "net/http"

type statusResponse struct {
	Status       string `json:"status"`
	Store        string `json:"store"`
	Tasks        int    `json:"tasks"`
	Users        int    `json:"users"`
	TokenTTL     string `json:"token_ttl"`
	OAuthEnabled bool   `json:"oauth_enabled"`
	AuthorizeURL string `json:"authorize_url,omitempty"`
	RedirectURI  string `json:"redirect_uri,omitempty"`
}

// Status is an unauthenticated health and configuration summary. It never
// includes secrets.
func (s *Server) Status(w http.ResponseWriter, r *http.Request) {
	n, err := s.tasks.Count(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resp := statusResponse{
		Status:       "ok",
		Store:        s.storeName,
		Tasks:        n,
		Users:        s.users.Len(),
		TokenTTL:     s.tokens.TTL().String(),
		OAuthEnabled: s.oauth != nil,
	}
	if s.oauth != nil {
		resp.AuthorizeURL = s.oauth.AuthorizeURL()
		resp.RedirectURI = s.oauth.RedirectURI()
	}
	writeJSON(w, http.StatusOK, resp)
}
