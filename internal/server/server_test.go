package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yourorg/taskauth/internal/auth"
	"github.com/yourorg/taskauth/internal/oauth"
	"github.com/yourorg/taskauth/internal/tasks"
	"github.com/yourorg/taskauth/internal/users"
)

var testArgon = users.ArgonParams{Memory: 1024, Time: 1, Parallelism: 1, SaltLen: 16, KeyLen: 32}

type testEnv struct {
	srv      *httptest.Server
	client   *http.Client
	sessions *oauth.Sessions
	provider *httptest.Server
}

// newProvider fakes the identity provider: code "good" succeeds, anything
// else is rejected the way Salesforce rejects a spent code.
func newProvider(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		w.Header().Set("Content-Type", "application/json")
		if r.PostForm.Get("code") != "good" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"error":"invalid_grant","error_description":"expired authorization code"}`)
			return
		}
		_, _ = io.WriteString(w, `{"access_token":"00Dxx!provider-token","refresh_token":"5Aep-refresh","token_type":"Bearer","scope":"api","expires_in":3600}`)
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer 00Dxx!provider-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"sub":"005xx0000012345","user_id":"005xx0000012345","name":"Ada"}`)
	})
	p := httptest.NewServer(mux)
	t.Cleanup(p.Close)
	return p
}

func newTestEnv(t *testing.T, withOAuth bool) *testEnv {
	t.Helper()
	store, err := users.NewStore(testArgon)
	require.NoError(t, err)
	require.NoError(t, store.Add("alice", "alice-pw", []string{"read", "write"}, false))
	require.NoError(t, store.Add("reader", "reader-pw", []string{"read"}, false))
	require.NoError(t, store.Add("writer", "writer-pw", []string{"write"}, false))
	require.NoError(t, store.Add("mallory", "mallory-pw", []string{"read", "write"}, true))

	tokens, err := auth.NewJWTManager("test-secret", "taskd", 30*time.Minute)
	require.NoError(t, err)
	sessions := oauth.NewSessions()
	enforcer := auth.NewEnforcer(tokens, store).WithSessions(sessions)

	deps := Deps{
		Tasks:     tasks.NewInMemoryRepo(),
		StoreName: "memory",
		Users:     store,
		Tokens:    tokens,
		Enforcer:  enforcer,
		Refresh:   auth.NewRefreshStore(time.Hour),
	}
	env := &testEnv{sessions: sessions}
	if withOAuth {
		env.provider = newProvider(t)
		deps.OAuth = oauth.NewClient(oauth.Config{
			Provider:      "salesforce",
			ClientID:      "cid",
			ClientSecret:  "csecret",
			RedirectURI:   "http://localhost/oauth/callback",
			AuthURL:       env.provider.URL + "/authorize",
			TokenURL:      env.provider.URL + "/token",
			UserInfoURL:   env.provider.URL + "/userinfo",
			Scopes:        []string{"api"},
			GrantedScopes: []string{"read"},
			Timeout:       2 * time.Second,
		}, sessions)
		deps.States = oauth.NewStateStore(time.Minute)
	}

	env.srv = httptest.NewServer(New(deps).Routes())
	t.Cleanup(env.srv.Close)
	env.client = &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
	return env
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = strings.NewReader(string(b))
	}
	req, err := http.NewRequestWithContext(context.Background(), method, e.srv.URL+path, rdr)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.client.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (e *testEnv) login(t *testing.T, username, password, scope string) tokenResponse {
	t.Helper()
	form := url.Values{"username": {username}, "password": {password}}
	if scope != "" {
		form.Set("scope", scope)
	}
	resp, err := e.client.PostForm(e.srv.URL+"/token", form)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var tok tokenResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&tok))
	return tok
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func sampleTask() map[string]any {
	return map[string]any{"name": "x", "status": "Pas commencé", "priority": "Normal", "capacity": 10, "effort": 5}
}
