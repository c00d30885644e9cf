// Package server initializes and runs the dashboard application: it selects
// a storage backend, wires the security layer and provider manager, starts
// the HTTP server, and handles graceful shutdown plus periodic maintenance.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/creatorpay/core/internal/audit"
	"github.com/creatorpay/core/internal/csrf"
	"github.com/creatorpay/core/internal/datastore"
	"github.com/creatorpay/core/internal/kv"
	"github.com/creatorpay/core/internal/logging"
	"github.com/creatorpay/core/internal/provider"
	"github.com/creatorpay/core/internal/server/config"
	"github.com/creatorpay/core/internal/server/httpapi"
	"github.com/creatorpay/core/internal/session"
)

const (
	maintenanceInterval = time.Hour
	shutdownGrace       = 10 * time.Second
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	store    kv.Store
	sessions *session.Manager
	audit    *audit.Logger
	api      *httpapi.API
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("store init error: %w", err)
	}

	auditOpts := []audit.Option{}
	if cfg.WebhookURL != "" {
		auditOpts = append(auditOpts, audit.WithWebhook(cfg.WebhookURL))
	}
	if cfg.S3RootUser != "" && cfg.S3RootPassword != "" {
		archiver, err := audit.NewS3Archiver(ctx, audit.S3Settings{
			AccessKey:    cfg.S3RootUser,
			SecretKey:    cfg.S3RootPassword,
			Bucket:       cfg.S3Bucket,
			Region:       cfg.S3Region,
			BaseEndpoint: cfg.S3BaseEndpoint,
		})
		if err != nil {
			return nil, fmt.Errorf("archive init error: %w", err)
		}
		auditOpts = append(auditOpts, audit.WithArchiver(archiver))
	}
	auditLog := audit.NewLogger(logger, auditOpts...)

	data := datastore.New(store)
	providers := provider.NewManager(data, logger, provider.Settings{
		Enabled:          cfg.ProviderEnabled,
		Provider:         cfg.Provider,
		SupabaseURL:      cfg.SupabaseURL,
		SupabaseAnonKey:  cfg.SupabaseAnonKey,
		CustomBaseURL:    cfg.CustomBaseURL,
		CustomAPIKey:     cfg.CustomAPIKey,
		ShareURLBase:     cfg.ShareURLBase,
		InsecureMockAuth: cfg.InsecureMockAuth,
	}, provider.WithAudit(auditLog))

	tokens := session.NewTokenManager(cfg.SecretKey, cfg.AuthTokenValidityDuration)
	sessions := session.NewManager(store, tokens, cfg.Production())
	protection := csrf.New(store, cfg.Production())

	api := httpapi.New(providers, sessions, protection, auditLog, logger)

	warnInsecureDefaults(ctx, cfg, logger)

	return &App{
		config:   cfg,
		logger:   logger,
		store:    store,
		sessions: sessions,
		audit:    auditLog,
		api:      api,
	}, nil
}

// warnInsecureDefaults flags development settings that leaked into a
// production deployment.
func warnInsecureDefaults(ctx context.Context, cfg *config.Config, logger logging.Logger) {
	if !cfg.Production() {
		return
	}
	if cfg.InsecureMockAuth {
		logger.Warn(ctx, "insecure mock auth is enabled in production")
	}
	if cfg.SecretKey == config.DefaultSecretKey {
		logger.Warn(ctx, "default secret key is in use in production")
	}
}

// openStore picks the kv backend: Postgres when a DSN is configured, the
// JSON file store when a path is given, memory otherwise.
func openStore(ctx context.Context, cfg *config.Config) (kv.Store, error) {
	switch {
	case cfg.DatabaseDSN != "":
		return kv.NewPostgres(ctx, cfg.DatabaseDSN)
	case cfg.StorePath != "":
		return kv.NewFile(cfg.StorePath), nil
	default:
		return kv.NewMemory(), nil
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	srv := &http.Server{
		Addr:    app.config.EndpointAddrHTTP,
		Handler: app.api.Router(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(ctx, "http shutdown error", "error", err.Error())
		}
	}()

	app.logger.Info(ctx, "http server listening", "addr", app.config.EndpointAddrHTTP)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// runMaintenance sweeps expired sessions and applies audit retention on a
// fixed schedule until the context is cancelled.
func (app *App) runMaintenance(ctx context.Context) {
	ticker := time.NewTicker(maintenanceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed := app.sessions.CleanupExpired(ctx)
			dropped := app.audit.Cleanup(ctx, app.config.AuditRetentionDays)
			app.logger.Info(ctx, "maintenance sweep",
				"sessions_removed", removed, "events_dropped", dropped)
		}
	}
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting app", "environment", app.config.Environment)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.runMaintenance(ctx)
	}()

	wg.Wait()
}
