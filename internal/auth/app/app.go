package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/openfit/healthsync/internal/auth/http"
	"github.com/openfit/healthsync/internal/auth/provider/google"
	"github.com/openfit/healthsync/internal/auth/service"
	"github.com/openfit/healthsync/internal/auth/store"
	"github.com/openfit/healthsync/internal/auth/store/drivers/sqlite"
	"github.com/openfit/healthsync/internal/auth/ticket"
	"github.com/openfit/healthsync/pkg/jwtx"
	"github.com/openfit/healthsync/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the auth service with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db      store.Store
	tickets ticket.Store
	google  *google.Client
	signer  *jwtx.HS256

	// Services
	sessionService       *service.SessionService
	loginService         *service.LoginService
	pairingService       *service.PairingService
	providerTokenService *service.ProviderTokenService
	integrationService   *service.IntegrationService
	directoryService     *service.DirectoryService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(ctx context.Context, cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "auth-service",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}
	app.initTickets()

	// The Google client fetches the issuer's OIDC discovery document once
	// at startup.
	client, err := google.NewClient(ctx, cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)
	if err != nil {
		_ = app.db.Close()
		return nil, fmt.Errorf("failed to initialize identity provider: %w", err)
	}
	app.google = client

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.logger.Info("auth service starting", "port", app.cfg.Port, "version", BuildVersion)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a shutdown signal or server error
	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	// Shutdown the HTTP server
	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if err := app.tickets.Close(); err != nil {
		app.logger.Error("error closing ticket store", "error", err)
	}

	// Close database connection
	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

// initDatabase initializes the database and applies migrations
func (app *Application) initDatabase() error {
	host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(host)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

// initTickets selects Redis when configured, otherwise the in-process
// pairing store. In-memory codes do not survive restarts or scale past a
// single replica.
func (app *Application) initTickets() {
	if app.cfg.RedisAddr == "" {
		app.logger.Warn("REDIS_ADDR unset, using in-memory pairing codes")
		app.tickets = ticket.NewMemoryStore()
		return
	}

	app.tickets = ticket.NewRedisStore(app.cfg.RedisAddr, app.cfg.RedisPassword, app.cfg.RedisDB)
	app.logger.Info("pairing codes backed by redis", "addr", app.cfg.RedisAddr)
}

// initServices initializes all business logic services
func (app *Application) initServices() {
	app.signer = jwtx.NewHS256([]byte(app.cfg.SessionSecret), app.cfg.Issuer)

	app.sessionService = &service.SessionService{
		Signer:     app.signer,
		Verifier:   app.signer,
		Issuer:     app.cfg.Issuer,
		AccessTTL:  app.cfg.AccessTTL,
		RefreshTTL: app.cfg.RefreshTTL,
	}

	app.loginService = &service.LoginService{
		Provider: app.google,
		Store:    app.db,
		Sessions: app.sessionService,
	}

	app.pairingService = &service.PairingService{
		Tickets:   app.tickets,
		Store:     app.db,
		Sessions:  app.sessionService,
		BaseURL:   app.cfg.BaseURL,
		ClaimPath: "/v1/qr/claim",
		TTL:       app.cfg.PairingTTL,
	}

	app.providerTokenService = &service.ProviderTokenService{
		Provider: app.google,
		Store:    app.db,
	}

	app.integrationService = &service.IntegrationService{Store: app.db}
	app.directoryService = &service.DirectoryService{Store: app.db}
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.signer,
		app.cfg.BaseURL,
		BuildVersion,
		app.db,
		app.tickets,
		app.logger,
	)

	// Wire services to router
	router.LoginService = app.loginService
	router.SessionService = app.sessionService
	router.PairingService = app.pairingService
	router.ProviderTokenService = app.providerTokenService
	router.IntegrationService = app.integrationService
	router.DirectoryService = app.directoryService
	router.ApplyRoutes()

	app.router = router

	// Initialize HTTP server
	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
