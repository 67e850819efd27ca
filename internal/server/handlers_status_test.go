package server

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus(t *testing.T) {
	env := newTestEnv(t, true)
	tok := env.login(t, "alice", "alice-pw", "")
	resp := env.do(t, http.MethodPost, "/tasks/", tok.AccessToken, sampleTask())
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/status", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	st := decode[statusResponse](t, resp)
	assert.Equal(t, "ok", st.Status)
	assert.Equal(t, "memory", st.Store)
	assert.Equal(t, 1, st.Tasks)
	assert.Equal(t, 4, st.Users)
	assert.Equal(t, "30m0s", st.TokenTTL)
	assert.True(t, st.OAuthEnabled)
	assert.Equal(t, env.provider.URL+"/authorize", st.AuthorizeURL)
	assert.Equal(t, "http://localhost/oauth/callback", st.RedirectURI)
}

func TestStatus_WithoutOAuth(t *testing.T) {
	env := newTestEnv(t, false)
	resp := env.do(t, http.MethodGet, "/status", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	st := decode[statusResponse](t, resp)
	assert.False(t, st.OAuthEnabled)
	assert.Empty(t, st.AuthorizeURL)
	assert.Empty(t, st.RedirectURI)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, false)
	resp := env.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
