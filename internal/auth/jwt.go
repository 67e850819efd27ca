package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/yourorg/taskauth/internal/users"
)

const DefaultTokenTTL = 30 * time.Minute

// JWTManager mints and checks locally issued HS256 access tokens.
type JWTManager struct {
	secret []byte
	issuer string
	expire time.Duration
	now    func() time.Time
}

func NewJWTManager(secret, issuer string, expire time.Duration) (*JWTManager, error) {
	if secret == "" {
		return nil, errors.New("signing secret must not be empty")
	}
	if expire <= 0 {
		expire = DefaultTokenTTL
	}
	return &JWTManager{secret: []byte(secret), issuer: issuer, expire: expire, now: time.Now}, nil
}

// SetClock replaces the time source used for issuing and validating.
func (m *JWTManager) SetClock(now func() time.Time) {
	m.now = now
}

func (m *JWTManager) TTL() time.Duration {
	return m.expire
}

type TokenClaims struct {
	Scopes []string `json:"scopes"`
	jwt.RegisteredClaims
}

// Token is a freshly issued access token.
type Token struct {
	Value     string
	Subject   string
	Scopes    []string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Issue grants u the intersection of requested and u.Scopes. An empty
// intersection still yields a token; it just authorizes nothing.
// ttl <= 0 means the manager's default lifetime.
func (m *JWTManager) Issue(u users.User, requested []string, ttl time.Duration) (Token, error) {
	if ttl <= 0 {
		ttl = m.expire
	}
	now := m.now().UTC().Truncate(time.Second)
	exp := now.Add(ttl)
	granted := Intersect(requested, u.Scopes)

	claims := TokenClaims{
		Scopes: granted,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   u.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return Token{}, fmt.Errorf("sign token: %w", err)
	}
	return Token{Value: signed, Subject: u.Username, Scopes: granted, IssuedAt: now, ExpiresAt: exp}, nil
}

// Verify checks signature, issuer and expiry. Every failure wraps
// ErrInvalidCredentials; the jwt error stays in the chain for logging.
func (m *JWTManager) Verify(tokenStr string) (*TokenClaims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	claims := &TokenClaims{}
	token, err := parser.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidCredentials
	}
	return claims, nil
}
