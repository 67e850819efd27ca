package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"slices"
	"sync"
	"time"
)

// RefreshToken is an opaque, single-use credential for minting a new
// access token with the same scopes.
type RefreshToken struct {
	Token     string
	Subject   string
	Scopes    []string
	ExpiresAt time.Time
}

// RefreshStore keeps refresh tokens in memory. Every use rotates the token.
type RefreshStore struct {
	mu     sync.Mutex
	tokens map[string]RefreshToken
	ttl    time.Duration
	now    func() time.Time
}

func NewRefreshStore(ttl time.Duration) *RefreshStore {
	return &RefreshStore{tokens: make(map[string]RefreshToken), ttl: ttl, now: time.Now}
}

func (s *RefreshStore) SetClock(now func() time.Time) {
	s.now = now
}

// Issue mints a refresh token for subject and drops expired ones.
func (s *RefreshStore) Issue(subject string, scopes []string) (RefreshToken, error) {
	value, err := randomToken()
	if err != nil {
		return RefreshToken{}, err
	}
	rt := RefreshToken{
		Token:   value,
		Subject: subject,
		Scopes:  slices.Clone(scopes),
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	rt.ExpiresAt = now.Add(s.ttl)
	for k, old := range s.tokens {
		if !old.ExpiresAt.After(now) {
			delete(s.tokens, k)
		}
	}
	s.tokens[value] = rt
	return rt, nil
}

// Consume removes token and returns what it stood for. Unknown and expired
// tokens are ErrInvalidCredentials; either way the token is gone afterwards.
func (s *RefreshStore) Consume(token string) (RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rt, ok := s.tokens[token]
	if !ok {
		return RefreshToken{}, ErrInvalidCredentials
	}
	delete(s.tokens, token)
	if !rt.ExpiresAt.After(s.now()) {
		return RefreshToken{}, fmt.Errorf("%w: refresh token expired", ErrInvalidCredentials)
	}
	return rt, nil
}

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
