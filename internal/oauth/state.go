package oauth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"sync"
	"time"
)

// StateStore tracks the pending authorization flows started by this
// process. Each state value is accepted once, before its deadline.
type StateStore struct {
	mu      sync.Mutex
	pending map[string]time.Time
	ttl     time.Duration
	now     func() time.Time
}

func NewStateStore(ttl time.Duration) *StateStore {
	return &StateStore{pending: make(map[string]time.Time), ttl: ttl, now: time.Now}
}

func (s *StateStore) SetClock(now func() time.Time) {
	s.now = now
}

func (s *StateStore) Create() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}
	state := base64.RawURLEncoding.EncodeToString(b)

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for k, exp := range s.pending {
		if !exp.After(now) {
			delete(s.pending, k)
		}
	}
	s.pending[state] = now.Add(s.ttl)
	return state, nil
}

func (s *StateStore) Consume(state string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.pending[state]
	if !ok {
		return ErrInvalidState
	}
	delete(s.pending, state)
	if !exp.After(s.now()) {
		return ErrInvalidState
	}
	return nil
}
