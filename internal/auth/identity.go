package auth

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// Source tells which trust path produced an Identity.
type Source string

const (
	// SourceLocal tokens are signed by this process and checked offline.
	SourceLocal Source = "local"
	// SourceExternal tokens were handed out by the identity provider and are
	// only known through the session cache. Nothing about them is verified
	// locally beyond an exact string match.
	SourceExternal Source = "external"
)

type Identity struct {
	Subject   string    `json:"subject"`
	Scopes    []string  `json:"scopes"`
	Source    Source    `json:"source"`
	ExpiresAt time.Time `json:"expires_at"`
}

type contextKey string

const ctxIdentityKey = contextKey("identity")

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxIdentityKey, id)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxIdentityKey).(Identity)
	return id, ok
}

// BearerToken extracts the credential from "Authorization: Bearer <token>".
func BearerToken(r *http.Request) (string, error) {
	h := r.Header.Get("Authorization")
	const prefix = "bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return "", ErrInvalidCredentials
	}
	tok := strings.TrimSpace(h[len(prefix):])
	if tok == "" {
		return "", ErrInvalidCredentials
	}
	return tok, nil
}
