package oauth

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/yourorg/taskauth/internal/auth"
)

// Session is what the callback keeps for one provider identity.
type Session struct {
	Identity      string    `json:"identity"`
	AccessToken   string    `json:"access_token"`
	RefreshToken  string    `json:"refresh_token,omitempty"`
	TokenType     string    `json:"token_type,omitempty"`
	ProviderScope string    `json:"provider_scope,omitempty"`
	Scopes        []string  `json:"scopes"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// Sessions is the transient cache of provider tokens. It is the only
// record of external identities and does not survive a restart.
//
// Bearer lookups match the provider access token verbatim. No signature is
// checked, so anyone holding the string is the identity until it expires.
type Sessions struct {
	mu         sync.Mutex
	byIdentity map[string]Session
	byToken    map[string]string
	now        func() time.Time
}

func NewSessions() *Sessions {
	return &Sessions{
		byIdentity: make(map[string]Session),
		byToken:    make(map[string]string),
		now:        time.Now,
	}
}

func (s *Sessions) SetClock(now func() time.Time) {
	s.now = now
}

// Put stores sess, replacing any earlier session of the same identity.
// Expired sessions are dropped on the way.
func (s *Sessions) Put(sess Session) {
	sess.Scopes = slices.Clone(sess.Scopes)
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for identity, old := range s.byIdentity {
		if !old.ExpiresAt.After(now) {
			delete(s.byToken, old.AccessToken)
			delete(s.byIdentity, identity)
		}
	}
	if old, ok := s.byIdentity[sess.Identity]; ok {
		delete(s.byToken, old.AccessToken)
	}
	s.byIdentity[sess.Identity] = sess
	s.byToken[sess.AccessToken] = sess.Identity
}

func (s *Sessions) Get(identity string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.byIdentity[identity]
	return sess, ok
}

// Resolve implements auth.SessionResolver.
func (s *Sessions) Resolve(_ context.Context, token string) (auth.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	identity, ok := s.byToken[token]
	if !ok {
		return auth.Identity{}, auth.ErrInvalidCredentials
	}
	sess := s.byIdentity[identity]
	if !sess.ExpiresAt.After(s.now()) {
		delete(s.byToken, token)
		delete(s.byIdentity, identity)
		return auth.Identity{}, auth.ErrInvalidCredentials
	}
	return auth.Identity{
		Subject:   identity,
		Scopes:    slices.Clone(sess.Scopes),
		Source:    auth.SourceExternal,
		ExpiresAt: sess.ExpiresAt,
	}, nil
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byIdentity)
}
