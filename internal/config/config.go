// Package config loads the task service settings from the environment.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Config holds every externally supplied setting. Secrets have no defaults.
type Config struct {
	Addr          string        `env:"TASKD_ADDR" envDefault:":8000"`
	SigningSecret string        `env:"TASKD_SIGNING_SECRET,required"`
	Issuer        string        `env:"TASKD_ISSUER" envDefault:"taskd"`
	TokenTTL      time.Duration `env:"TASKD_TOKEN_TTL" envDefault:"30m"`
	RefreshTTL    time.Duration `env:"TASKD_REFRESH_TTL" envDefault:"720h"`
	SeedUsersJSON string        `env:"TASKD_SEED_USERS"`
	Store         string        `env:"TASKD_STORE" envDefault:"memory"`
	SQLiteDSN     string        `env:"TASKD_SQLITE_DSN" envDefault:"file::memory:?cache=shared"`
	LogLevel      string        `env:"TASKD_LOG_LEVEL" envDefault:"info"`

	OAuth OAuth

	seedUsers []SeedUser
}

// OAuth describes the external identity provider.
type OAuth struct {
	Provider        string        `env:"TASKD_OAUTH_PROVIDER" envDefault:"salesforce"`
	ClientID        string        `env:"TASKD_OAUTH_CLIENT_ID"`
	ClientSecret    string        `env:"TASKD_OAUTH_CLIENT_SECRET"`
	RedirectURI     string        `env:"TASKD_OAUTH_REDIRECT_URI"`
	AuthURL         string        `env:"TASKD_OAUTH_AUTH_URL"`
	TokenURL        string        `env:"TASKD_OAUTH_TOKEN_URL"`
	UserInfoURL     string        `env:"TASKD_OAUTH_USERINFO_URL"`
	Scopes          []string      `env:"TASKD_OAUTH_SCOPES" envSeparator:"," envDefault:"openid,profile"`
	GrantedScopes   []string      `env:"TASKD_OAUTH_GRANTED_SCOPES" envSeparator:"," envDefault:"read"`
	ExchangeTimeout time.Duration `env:"TASKD_OAUTH_EXCHANGE_TIMEOUT" envDefault:"5s"`
	StateTTL        time.Duration `env:"TASKD_OAUTH_STATE_TTL" envDefault:"10m"`
	SessionTTL      time.Duration `env:"TASKD_OAUTH_SESSION_TTL" envDefault:"1h"`
}

// Enabled reports whether every setting the redirect flow needs is present.
func (o OAuth) Enabled() bool {
	return o.ClientID != "" && o.ClientSecret != "" && o.RedirectURI != "" &&
		o.AuthURL != "" && o.TokenURL != "" && o.UserInfoURL != ""
}

// SeedUser is one entry of TASKD_SEED_USERS.
type SeedUser struct {
	Username string   `json:"username"`
	Password string   `json:"password"`
	Scopes   []string `json:"scopes"`
	Disabled bool     `json:"disabled"`
}

// SeedUsers returns the decoded TASKD_SEED_USERS list.
func (c Config) SeedUsers() []SeedUser {
	return c.seedUsers
}

// Load reads the process environment.
func Load() (Config, error) {
	return parse(env.Options{})
}

// LoadFrom reads the given variables instead of the process environment.
func LoadFrom(environ map[string]string) (Config, error) {
	return parse(env.Options{Environment: environ})
}

func parse(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.finish(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) finish() error {
	if strings.TrimSpace(c.SigningSecret) == "" {
		return errors.New("TASKD_SIGNING_SECRET must not be blank")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TASKD_TOKEN_TTL must be positive, got %s", c.TokenTTL)
	}
	switch c.Store {
	case StoreMemory, StoreSQLite:
	default:
		return fmt.Errorf("TASKD_STORE: unknown store %q", c.Store)
	}
	c.OAuth.Scopes = trimCSV(c.OAuth.Scopes)
	c.OAuth.GrantedScopes = trimCSV(c.OAuth.GrantedScopes)

	if c.SeedUsersJSON != "" {
		var seeds []SeedUser
		if err := json.Unmarshal([]byte(c.SeedUsersJSON), &seeds); err != nil {
			return fmt.Errorf("TASKD_SEED_USERS: %w", err)
		}
		c.seedUsers = seeds
	}
	return nil
}

func trimCSV(values []string) []string {
	result := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			result = append(result, v)
		}
	}
	return result
}
