package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yourorg/taskauth/internal/users"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

type userMap map[string]users.User

func (m userMap) Lookup(_ context.Context, username string) (users.User, error) {
	u, ok := m[username]
	if !ok {
		return users.User{}, users.ErrNotFound
	}
	return u, nil
}

func newTestManager(t *testing.T, clock *fakeClock) *JWTManager {
	t.Helper()
	m, err := NewJWTManager("test-secret", "taskd-test", 0)
	require.NoError(t, err)
	m.SetClock(clock.Now)
	return m
}
