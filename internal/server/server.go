// Package server is the HTTP surface of the task service.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/yourorg/taskauth/internal/auth"
	"github.com/yourorg/taskauth/internal/logging"
	"github.com/yourorg/taskauth/internal/oauth"
	"github.com/yourorg/taskauth/internal/tasks"
	"github.com/yourorg/taskauth/internal/users"
)

// Deps are the collaborators a Server needs. OAuth and States are nil
// when the provider is not configured.
type Deps struct {
	Tasks     tasks.Repository
	StoreName string
	Users     *users.Store
	Tokens    *auth.JWTManager
	Enforcer  *auth.Enforcer
	Refresh   *auth.RefreshStore
	OAuth     *oauth.Client
	States    *oauth.StateStore
	StateTTL  time.Duration
	Log       logging.Logger
}

type Server struct {
	tasks     tasks.Repository
	storeName string
	users     *users.Store
	tokens    *auth.JWTManager
	enforcer  *auth.Enforcer
	refresh   *auth.RefreshStore
	oauth     *oauth.Client
	states    *oauth.StateStore
	stateTTL  time.Duration
	log       logging.Logger
}

func New(d Deps) *Server {
	if d.Log == nil {
		d.Log = logging.Discard()
	}
	if d.StateTTL <= 0 {
		d.StateTTL = 10 * time.Minute
	}
	return &Server{
		tasks:     d.Tasks,
		storeName: d.StoreName,
		users:     d.Users,
		tokens:    d.Tokens,
		enforcer:  d.Enforcer,
		refresh:   d.Refresh,
		oauth:     d.OAuth,
		states:    d.States,
		stateTTL:  d.StateTTL,
		log:       d.Log,
	}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("OK")) })
	r.Get("/status", s.Status)

	r.Post("/token", s.IssueToken)
	r.Post("/token/refresh", s.RefreshToken)
	r.Get("/verify", s.Verify)

	r.Get("/oauth/authorize", s.OAuthStart)
	r.Get("/login/salesforce", s.OAuthStart)
	r.Get("/oauth/callback", s.OAuthCallback)
	r.Post("/oauth/callback", s.OAuthCallback)

	read := s.requireScopes(auth.ScopeRead)
	write := s.requireScopes(auth.ScopeWrite)
	r.Route("/tasks", func(r chi.Router) {
		r.With(write).Post("/", s.CreateTask)
		r.With(read).Get("/", s.ListTasks)
		r.With(read).Get("/{id}", s.GetTask)
		r.With(write).Put("/{id}", s.UpdateTask)
		r.With(write).Delete("/{id}", s.DeleteTask)
	})
	return r
}
