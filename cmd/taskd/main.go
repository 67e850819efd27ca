package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yourorg/taskauth/internal/auth"
	"github.com/yourorg/taskauth/internal/config"
	"github.com/yourorg/taskauth/internal/logging"
	"github.com/yourorg/taskauth/internal/oauth"
	"github.com/yourorg/taskauth/internal/server"
	"github.com/yourorg/taskauth/internal/tasks"
	"github.com/yourorg/taskauth/internal/users"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "taskd: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logging.NewJSON(os.Stdout, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	userStore, err := users.NewStore(users.DefaultArgon)
	if err != nil {
		return err
	}
	for _, seed := range cfg.SeedUsers() {
		if err := userStore.Add(seed.Username, seed.Password, seed.Scopes, seed.Disabled); err != nil {
			return fmt.Errorf("seed users: %w", err)
		}
	}
	if userStore.Len() == 0 {
		log.Warn(ctx, "no local users seeded; only provider sessions can authenticate")
	}

	repo, closeRepo, err := openTasks(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeRepo()

	tokens, err := auth.NewJWTManager(cfg.SigningSecret, cfg.Issuer, cfg.TokenTTL)
	if err != nil {
		return err
	}
	enforcer := auth.NewEnforcer(tokens, userStore)

	deps := server.Deps{
		Tasks:     repo,
		StoreName: cfg.Store,
		Users:     userStore,
		Tokens:    tokens,
		Enforcer:  enforcer,
		Refresh:   auth.NewRefreshStore(cfg.RefreshTTL),
		StateTTL:  cfg.OAuth.StateTTL,
		Log:       log,
	}
	if cfg.OAuth.Enabled() {
		sessions := oauth.NewSessions()
		enforcer.WithSessions(sessions)
		deps.OAuth = oauth.NewClient(oauth.Config{
			Provider:      cfg.OAuth.Provider,
			ClientID:      cfg.OAuth.ClientID,
			ClientSecret:  cfg.OAuth.ClientSecret,
			RedirectURI:   cfg.OAuth.RedirectURI,
			AuthURL:       cfg.OAuth.AuthURL,
			TokenURL:      cfg.OAuth.TokenURL,
			UserInfoURL:   cfg.OAuth.UserInfoURL,
			Scopes:        cfg.OAuth.Scopes,
			GrantedScopes: cfg.OAuth.GrantedScopes,
			Timeout:       cfg.OAuth.ExchangeTimeout,
			SessionTTL:    cfg.OAuth.SessionTTL,
		}, sessions)
		deps.States = oauth.NewStateStore(cfg.OAuth.StateTTL)
	} else {
		log.Info(ctx, "oauth provider not configured; /oauth endpoints disabled")
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.New(deps).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "taskd listening", "addr", cfg.Addr, "store", cfg.Store, "oauth", cfg.OAuth.Enabled())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info(context.Background(), "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openTasks(ctx context.Context, cfg config.Config) (tasks.Repository, func(), error) {
	if cfg.Store == config.StoreSQLite {
		repo, err := tasks.OpenSQLite(ctx, cfg.SQLiteDSN)
		if err != nil {
			return nil, nil, err
		}
		return repo, func() { _ = repo.Close() }, nil
	}
	return tasks.NewInMemoryRepo(), func() {}, nil
}
