package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"
	"gorm.io/gorm"

	"cookbook/internal/auth"
	"cookbook/internal/handlers"
	applog "cookbook/internal/log"
	"cookbook/internal/recipes"
	"cookbook/internal/users"
)

const (
	defaultRateLimit         = 50
	defaultRateLimitBurst    = 100
	defaultReadHeaderTimeout = 5 * time.Second
)

// Config captures the runtime configuration for the HTTP server.
type Config struct {
	Addr              string
	ReadHeaderTimeout time.Duration
	RateLimit         float64
	RateLimitBurst    int
	AllowedOrigins    []string
	Session           SessionConfig
	Auth              AuthConfig
	Database          *gorm.DB
	Verifier          handlers.EmailVerifier
	Enricher          handlers.Enricher
}

// SessionConfig controls session behavior for the HTTP server.
type SessionConfig struct {
	Lifetime     time.Duration
	CookieName   string
	CookieDomain string
	CookieSecure bool
}

// AuthConfig controls how bearer tokens are issued and read.
type AuthConfig struct {
	TokenSecret string
	TokenTTL    time.Duration
	TokenHeader string
}

// Server wraps an http.Server and exposes helpers for bootstrapping a
// production-ready web service.
type Server struct {
	config     Config
	httpServer *http.Server
	limiters   *clientLimiters
}

// New builds a new Server using the provided configuration.
func New(cfg Config) (*Server, error) {
	applog.Debug(context.Background(), "initializing server",
		"addr", cfg.Addr,
		"sessionLifetime", cfg.Session.Lifetime.String(),
		"sessionCookie", cfg.Session.CookieName,
	)

	if cfg.Database == nil {
		return nil, errors.New("server: database is required")
	}
	if cfg.Verifier == nil {
		return nil, errors.New("server: email verifier is required")
	}

	sessionCfg := cfg.Session
	if sessionCfg.Lifetime <= 0 {
		applog.Debug(context.Background(), "session lifetime not provided, using default")
		sessionCfg.Lifetime = 12 * time.Hour
	}
	if strings.TrimSpace(sessionCfg.CookieName) == "" {
		applog.Debug(context.Background(), "session cookie name not provided, using default")
		sessionCfg.CookieName = "cookbook_session"
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = defaultRateLimit
	}
	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = defaultRateLimitBurst
	}
	if cfg.ReadHeaderTimeout <= 0 {
		cfg.ReadHeaderTimeout = defaultReadHeaderTimeout
	}

	sessionManager := scs.New()
	sessionManager.Lifetime = sessionCfg.Lifetime
	sessionManager.Cookie.Name = sessionCfg.CookieName
	sessionManager.Cookie.Domain = sessionCfg.CookieDomain
	sessionManager.Cookie.HttpOnly = true
	sessionManager.Cookie.Persist = true
	sessionManager.Cookie.SameSite = http.SameSiteLaxMode
	sessionManager.Cookie.Secure = sessionCfg.CookieSecure

	applog.Debug(context.Background(), "session manager configured",
		"cookieName", sessionCfg.CookieName,
		"cookieDomain", sessionCfg.CookieDomain,
		"cookieSecure", sessionCfg.CookieSecure,
	)

	issuer, err := auth.NewIssuer(cfg.Auth.TokenSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return nil, err
	}

	h, err := handlers.New(handlers.Dependencies{
		Users:       users.NewStore(cfg.Database),
		Recipes:     recipes.NewService(cfg.Database),
		Tokens:      issuer,
		Verifier:    cfg.Verifier,
		Enricher:    cfg.Enricher,
		Sessions:    sessionManager,
		TokenHeader: cfg.Auth.TokenHeader,
	})
	if err != nil {
		return nil, err
	}

	applog.Debug(context.Background(), "handler dependencies configured")

	s := &Server{
		config:   cfg,
		limiters: newClientLimiters(cfg.RateLimit, cfg.RateLimitBurst),
	}
	handler := sessionManager.LoadAndSave(s.newRouter(h))

	applog.Debug(context.Background(), "http handler chain prepared")

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
	return s, nil
}

// Start begins serving HTTP traffic using the underlying http.Server.
func (s *Server) Start() error {
	applog.Info(context.Background(), "server starting listener", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Stop gracefully shuts down the HTTP server with a timeout.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	applog.Debug(ctx, "server initiating graceful shutdown")
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the configured HTTP handler, enabling integration tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}
