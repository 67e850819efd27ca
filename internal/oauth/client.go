// Package oauth drives the authorization-code flow against the external
// identity provider and caches the resulting provider sessions.
package oauth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

type Config struct {
	Provider      string
	ClientID      string
	ClientSecret  string
	RedirectURI   string
	AuthURL       string
	TokenURL      string
	UserInfoURL   string
	Scopes        []string
	GrantedScopes []string
	Timeout       time.Duration
	SessionTTL    time.Duration
}

// Client wraps the provider's oauth2 endpoints.
type Client struct {
	conf        *oauth2.Config
	provider    string
	userInfoURL string
	granted     []string
	timeout     time.Duration
	sessionTTL  time.Duration
	httpClient  *http.Client
	sessions    *Sessions
	now         func() time.Time
}

func NewClient(cfg Config, sessions *Sessions) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = time.Hour
	}
	return &Client{
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.AuthURL,
				TokenURL: cfg.TokenURL,
				// autodetect would retry a rejected code with the other style
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		provider:    cfg.Provider,
		userInfoURL: cfg.UserInfoURL,
		granted:     cfg.GrantedScopes,
		timeout:     cfg.Timeout,
		sessionTTL:  cfg.SessionTTL,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		sessions:    sessions,
		now:         time.Now,
	}
}

func (c *Client) SetClock(now func() time.Time) {
	c.now = now
}

// AuthURL builds the provider redirect target. It does no I/O.
func (c *Client) AuthURL(state string) string {
	return c.conf.AuthCodeURL(state)
}

// AuthorizeURL is the provider's authorization endpoint.
func (c *Client) AuthorizeURL() string {
	return c.conf.Endpoint.AuthURL
}

func (c *Client) RedirectURI() string {
	return c.conf.RedirectURL
}

// Exchange trades a one-time code for provider tokens, resolves the
// provider's identity claim and caches the session under it. It makes at
// most one token request and one userinfo request, never retrying; on any
// failure nothing is cached.
func (c *Client) Exchange(ctx context.Context, code string) (Session, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)

	tok, err := c.conf.Exchange(ctx, code)
	if err != nil {
		return Session{}, exchangeError(err)
	}

	subject, err := c.fetchSubject(ctx, tok)
	if err != nil {
		return Session{}, err
	}

	expiresAt := tok.Expiry
	if expiresAt.IsZero() {
		expiresAt = c.now().Add(c.sessionTTL)
	}
	providerScope, _ := tok.Extra("scope").(string)
	sess := Session{
		Identity:      c.provider + ":" + subject,
		AccessToken:   tok.AccessToken,
		RefreshToken:  tok.RefreshToken,
		TokenType:     tok.TokenType,
		ProviderScope: providerScope,
		Scopes:        c.granted,
		ExpiresAt:     expiresAt,
	}
	c.sessions.Put(sess)
	return sess, nil
}

func exchangeError(err error) *ExchangeError {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) && re.Response != nil {
		return &ExchangeError{StatusCode: re.Response.StatusCode, Body: truncate(re.Body), Err: err}
	}
	return &ExchangeError{Err: err}
}

// fetchSubject asks the provider who the token belongs to. The identity
// key comes from this answer, never from the token string itself.
func (c *Client) fetchSubject(ctx context.Context, tok *oauth2.Token) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.userInfoURL, nil)
	if err != nil {
		return "", &ExchangeError{Err: fmt.Errorf("build userinfo request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.conf.Client(ctx, tok).Do(req)
	if err != nil {
		return "", &ExchangeError{Err: fmt.Errorf("userinfo: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", &ExchangeError{Err: fmt.Errorf("read userinfo: %w", err)}
	}
	if resp.StatusCode != http.StatusOK {
		// the code was already accepted; a failing userinfo is a provider fault
		return "", &ExchangeError{Body: truncate(body), Err: fmt.Errorf("userinfo: status %d", resp.StatusCode)}
	}

	subject, err := subjectClaim(body)
	if err != nil {
		return "", &ExchangeError{Body: truncate(body), Err: err}
	}
	return subject, nil
}

// subjectClaim picks the stable account id out of a userinfo document:
// OIDC "sub", Salesforce "user_id" or GitHub style numeric "id".
func subjectClaim(body []byte) (string, error) {
	// numeric ids above 2^53 would collide as float64
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return "", fmt.Errorf("decode userinfo: %w", err)
	}
	for _, key := range []string{"sub", "user_id", "id"} {
		switch v := doc[key].(type) {
		case string:
			if v = strings.TrimSpace(v); v != "" {
				return v, nil
			}
		case json.Number:
			return v.String(), nil
		}
	}
	return "", errors.New("userinfo has no subject claim")
}
