package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yourorg/taskauth/internal/users"
)

// UserResolver finds the account behind a local token subject.
type UserResolver interface {
	Lookup(ctx context.Context, username string) (users.User, error)
}

// SessionResolver maps a provider-issued access token to the identity it
// was stored under. It must fail with ErrInvalidCredentials for unknown or
// expired tokens.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (Identity, error)
}

// Enforcer gates protected operations on a valid, sufficiently scoped token.
type Enforcer struct {
	tokens   *JWTManager
	users    UserResolver
	sessions SessionResolver
}

func NewEnforcer(tokens *JWTManager, users UserResolver) *Enforcer {
	return &Enforcer{tokens: tokens, users: users}
}

// WithSessions enables the provider session path.
func (e *Enforcer) WithSessions(s SessionResolver) *Enforcer {
	e.sessions = s
	return e
}

// Authorize validates token and checks that required is a subset of the
// granted scopes. Locally signed tokens are tried first; only when that
// fails is the token looked up verbatim in the session cache.
func (e *Enforcer) Authorize(ctx context.Context, token string, required ...string) (Identity, error) {
	id, err := e.authorizeLocal(ctx, token)
	if err != nil && e.sessions != nil {
		if sid, serr := e.sessions.Resolve(ctx, token); serr == nil {
			id, err = sid, nil
		}
	}
	if err != nil {
		return Identity{}, err
	}
	if missing := Missing(required, id.Scopes); len(missing) > 0 {
		return Identity{}, fmt.Errorf("%w: missing %s", ErrInsufficientScope, strings.Join(missing, " "))
	}
	return id, nil
}

func (e *Enforcer) authorizeLocal(ctx context.Context, token string) (Identity, error) {
	claims, err := e.tokens.Verify(token)
	if err != nil {
		return Identity{}, err
	}
	u, err := e.users.Lookup(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return Identity{}, fmt.Errorf("%w: unknown subject", ErrInvalidCredentials)
		}
		return Identity{}, err
	}
	if u.Disabled {
		return Identity{}, fmt.Errorf("%w: account disabled", ErrInvalidCredentials)
	}
	return Identity{
		Subject:   u.Username,
		Scopes:    claims.Scopes,
		Source:    SourceLocal,
		ExpiresAt: claims.ExpiresAt.Time.UTC(),
	}, nil
}
