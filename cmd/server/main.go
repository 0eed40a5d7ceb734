package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"gorm.io/gorm"

	"cookbook/internal/clearbit"
	"cookbook/internal/config"
	"cookbook/internal/db"
	"cookbook/internal/db/mock"
	"cookbook/internal/handlers"
	"cookbook/internal/hunter"
	applog "cookbook/internal/log"
	"cookbook/internal/server"
)

type serverLifecycle interface {
	Start() error
	Stop() error
}

var (
	loadConfigFunc      = config.Load
	setLogLevelFunc     = applog.SetLevel
	setLogFormatFunc    = applog.SetFormat
	newMockDatabaseFunc = mock.New
	configureDatabase   = db.Configure
	closeDatabase       = db.Close
	newServerFunc       = func(cfg server.Config) (serverLifecycle, error) {
		return server.New(cfg)
	}
	subscribeShutdownSig = func() (<-chan os.Signal, func()) {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGTERM, syscall.SIGINT)
		return ch, func() { signal.Stop(ch) }
	}
)

func main() {
	os.Exit(run(context.Background()))
}

func run(ctx context.Context) int {
	cfg, err := loadConfigFunc()
	if err != nil {
		applog.Error(ctx, "failed to load configuration", "error", err)
		return 1
	}

	if err := setLogLevelFunc(cfg.Logging.Level); err != nil {
		applog.Error(ctx, "invalid log level", "level", cfg.Logging.Level, "error", err)
		return 1
	}
	if err := setLogFormatFunc(cfg.Logging.Format); err != nil {
		applog.Error(ctx, "invalid log format", "format", cfg.Logging.Format, "error", err)
		return 1
	}

	database, err := openDatabase(ctx, cfg.Database)
	if err != nil {
		applog.Error(ctx, "failed to configure database", "error", err)
		return 1
	}
	defer func() {
		if err := closeDatabase(database); err != nil {
			applog.Warn(ctx, "failed to close database", "error", err)
		}
	}()

	verifier, err := newVerifier(ctx, cfg.Hunter)
	if err != nil {
		applog.Error(ctx, "failed to configure email verification", "error", err)
		return 1
	}
	enricher, wait, err := newEnricher(ctx, cfg.Clearbit)
	if err != nil {
		applog.Error(ctx, "failed to configure enrichment", "error", err)
		return 1
	}
	defer wait()

	srv, err := newServerFunc(server.Config{
		Addr:              cfg.Server.Addr,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		RateLimit:         cfg.Server.RateLimit,
		RateLimitBurst:    cfg.Server.RateLimitBurst,
		AllowedOrigins:    cfg.Server.AllowedOrigins,
		Session: server.SessionConfig{
			Lifetime:     cfg.Auth.Session.Lifetime,
			CookieName:   cfg.Auth.Session.CookieName,
			CookieDomain: cfg.Auth.Session.CookieDomain,
			CookieSecure: cfg.Auth.Session.CookieSecure,
		},
		Auth: server.AuthConfig{
			TokenSecret: cfg.Auth.TokenSecret,
			TokenTTL:    cfg.Auth.TokenTTL,
			TokenHeader: cfg.Auth.TokenHeader,
		},
		Database: database,
		Verifier: verifier,
		Enricher: enricher,
	})
	if err != nil {
		applog.Error(ctx, "failed to build server", "error", err)
		return 1
	}

	sigCh, stop := subscribeShutdownSig()
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		applog.Info(ctx, "starting http server", "addr", cfg.Server.Addr)
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			applog.Error(ctx, "server encountered an error", "error", err)
			return 1
		}
		return 0
	case sig := <-sigCh:
		applog.Info(ctx, "shutting down http server", "signal", sig.String())
	}

	if err := srv.Stop(); err != nil {
		applog.Error(ctx, "graceful shutdown failed", "error", err)
		return 1
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		applog.Error(ctx, "server encountered an error", "error", err)
		return 1
	}
	return 0
}

func openDatabase(ctx context.Context, cfg config.DatabaseConfig) (*gorm.DB, error) {
	if cfg.UseMock {
		applog.Info(ctx, "using seeded in-memory database")
		return newMockDatabaseFunc(ctx)
	}
	return configureDatabase(cfg)
}

func newVerifier(ctx context.Context, cfg config.HunterConfig) (handlers.EmailVerifier, error) {
	if cfg.Disabled {
		applog.Warn(ctx, "email verification disabled")
		return hunter.AcceptAll{}, nil
	}
	return hunter.NewClient(hunter.Config{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Timeout: cfg.Timeout,
	})
}

// newEnricher returns the enricher and a function that waits for its
// background lookups.
func newEnricher(ctx context.Context, cfg config.ClearbitConfig) (handlers.Enricher, func(), error) {
	if cfg.APIKey == "" {
		applog.Debug(ctx, "enrichment disabled, no api key")
		return clearbit.Discard{}, func() {}, nil
	}
	client, err := clearbit.NewClient(clearbit.Config{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Timeout: cfg.Timeout,
	})
	if err != nil {
		return nil, nil, err
	}
	return client, client.Wait, nil
}
