package server

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/taskauth/internal/tasks"
)

func TestTasks_CreateGetDeleteLifecycle(t *testing.T) {
	env := newTestEnv(t, false)
	writeTok := env.login(t, "alice", "alice-pw", "write")
	readTok := env.login(t, "alice", "alice-pw", "read")
	assert.Equal(t, "write", writeTok.Scope)

	resp := env.do(t, http.MethodPost, "/tasks/", writeTok.AccessToken, sampleTask())
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[tasks.Task](t, resp)
	assert.Equal(t, int64(1), created.ID)
	assert.Equal(t, "x", created.Name)
	assert.Equal(t, tasks.StatusNotStarted, created.Status)
	assert.Equal(t, tasks.PriorityNormal, created.Priority)
	assert.Equal(t, 10, created.Capacity)
	assert.Equal(t, 5, created.Effort)
	assert.Equal(t, tasks.DefaultSubject, created.Subject)

	resp = env.do(t, http.MethodGet, "/tasks/1", readTok.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, created, decode[tasks.Task](t, resp))

	resp = env.do(t, http.MethodDelete, "/tasks/1", writeTok.AccessToken, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/tasks/1", readTok.AccessToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = env.do(t, http.MethodDelete, "/tasks/1", writeTok.AccessToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestTasks_ReaderCannotDelete(t *testing.T) {
	env := newTestEnv(t, false)
	tok := env.login(t, "reader", "reader-pw", "read write")
	assert.Equal(t, "read", tok.Scope)

	resp := env.do(t, http.MethodDelete, "/tasks/1", tok.AccessToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("WWW-Authenticate"), "insufficient_scope")

	resp = env.do(t, http.MethodGet, "/tasks/", tok.AccessToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestTasks_WriterCannotRead(t *testing.T) {
	env := newTestEnv(t, false)
	tok := env.login(t, "writer", "writer-pw", "")

	resp := env.do(t, http.MethodPost, "/tasks/", tok.AccessToken, sampleTask())
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/tasks/1", tok.AccessToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestTasks_RequireValidToken(t *testing.T) {
	env := newTestEnv(t, false)

	for name, token := range map[string]string{
		"missing": "",
		"garbage": "abc.def.ghi",
		"opaque":  "not-a-session",
	} {
		t.Run(name, func(t *testing.T) {
			resp := env.do(t, http.MethodGet, "/tasks/", token, nil)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			assert.Equal(t, "Bearer", resp.Header.Get("WWW-Authenticate"))
		})
	}
}

func TestTasks_UpdateReplacesFields(t *testing.T) {
	env := newTestEnv(t, false)
	tok := env.login(t, "alice", "alice-pw", "")

	resp := env.do(t, http.MethodPost, "/tasks/", tok.AccessToken, sampleTask())
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	upd := map[string]any{"name": "y", "status": "Terminé", "priority": "Haute", "capacity": 1, "effort": 1, "subject": "Physique", "due_date": "2026-11-01"}
	resp = env.do(t, http.MethodPut, "/tasks/1", tok.AccessToken, upd)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[tasks.Task](t, resp)
	assert.Equal(t, int64(1), got.ID)
	assert.Equal(t, "Physique", got.Subject)
	assert.Equal(t, "2026-11-01", got.DueDate)

	resp = env.do(t, http.MethodPut, "/tasks/42", tok.AccessToken, upd)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestTasks_ListWindow(t *testing.T) {
	env := newTestEnv(t, false)
	tok := env.login(t, "alice", "alice-pw", "")

	for i := 0; i < 3; i++ {
		resp := env.do(t, http.MethodPost, "/tasks/", tok.AccessToken, sampleTask())
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	resp := env.do(t, http.MethodGet, "/tasks/?skip=1&limit=1", tok.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page := decode[[]tasks.Task](t, resp)
	require.Len(t, page, 1)
	assert.Equal(t, int64(2), page[0].ID)

	resp = env.do(t, http.MethodGet, "/tasks/?skip=100&limit=1000", tok.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decode[[]tasks.Task](t, resp))

	resp = env.do(t, http.MethodGet, "/tasks/?skip=-1", tok.AccessToken, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestTasks_InvalidInput(t *testing.T) {
	env := newTestEnv(t, false)
	tok := env.login(t, "alice", "alice-pw", "")

	bad := sampleTask()
	bad["status"] = "Done"
	resp := env.do(t, http.MethodPost, "/tasks/", tok.AccessToken, bad)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	missing := sampleTask()
	delete(missing, "effort")
	resp = env.do(t, http.MethodPost, "/tasks/", tok.AccessToken, missing)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/tasks/abc", tok.AccessToken, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}
