// Package users is the credential store: local accounts seeded at startup,
// each with a salted password hash and the scopes it may be granted.
package users

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
)

var (
	ErrNotFound  = errors.New("user not found")
	ErrDuplicate = errors.New("user already exists")
)

type User struct {
	Username     string   `json:"username"`
	PasswordHash string   `json:"-"`
	Scopes       []string `json:"scopes"`
	Disabled     bool     `json:"disabled"`
}

// HasScope reports whether the account may be granted scope.
func (u User) HasScope(scope string) bool {
	return slices.Contains(u.Scopes, scope)
}

// Store holds the seeded accounts. Records are not changed after Add.
type Store struct {
	params ArgonParams
	mu     sync.RWMutex
	users  map[string]User
	// burned on unknown usernames so lookups and misses cost the same
	dummyHash string
}

func NewStore(params ArgonParams) (*Store, error) {
	dummy, err := params.hash("not-a-real-password")
	if err != nil {
		return nil, fmt.Errorf("hash dummy password: %w", err)
	}
	return &Store{params: params, users: make(map[string]User), dummyHash: dummy}, nil
}

// Add hashes password and registers the account.
func (s *Store) Add(username, password string, scopes []string, disabled bool) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return errors.New("username must not be empty")
	}
	hash, err := s.params.hash(password)
	if err != nil {
		return fmt.Errorf("hash password for %q: %w", username, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[username]; ok {
		return fmt.Errorf("%q: %w", username, ErrDuplicate)
	}
	s.users[username] = User{
		Username:     username,
		PasswordHash: hash,
		Scopes:       slices.Clone(scopes),
		Disabled:     disabled,
	}
	return nil
}

func (s *Store) Lookup(_ context.Context, username string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[username]
	if !ok {
		return User{}, ErrNotFound
	}
	u.Scopes = slices.Clone(u.Scopes)
	return u, nil
}

// Verify reports whether password matches the stored digest for username.
// Unknown users and corrupt hashes verify as false.
func (s *Store) Verify(ctx context.Context, username, password string) bool {
	u, err := s.Lookup(ctx, username)
	if err != nil {
		_, _ = matches(password, s.dummyHash)
		return false
	}
	ok, err := matches(password, u.PasswordHash)
	return err == nil && ok
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}
