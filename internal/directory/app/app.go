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

	"github.com/backdeskhq/backdesk/internal/directory/action"
	httpapi "github.com/backdeskhq/backdesk/internal/directory/http"
	"github.com/backdeskhq/backdesk/internal/directory/mail"
	"github.com/backdeskhq/backdesk/internal/directory/service"
	"github.com/backdeskhq/backdesk/internal/directory/store"
	"github.com/backdeskhq/backdesk/internal/directory/store/drivers/sqlite"
	"github.com/backdeskhq/backdesk/pkg/cryptox"
	"github.com/backdeskhq/backdesk/pkg/sessionx"
	"github.com/backdeskhq/backdesk/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the directory service with all its
// dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db       store.Store
	sessions *sessionx.Manager
	mailer   mail.Mailer

	// Services
	accountService      *service.AccountService
	authService         *service.AuthService
	profileService      *service.ProfileService
	resetService        *service.PasswordResetService
	housekeepingService *service.HousekeepingService
	dispatcher          *action.Dispatcher

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "directory-service",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	// Set pepper path for password hashing
	cryptox.SetPepperPath(app.cfg.PepperFile)

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	sessions, err := sessionx.NewManager(
		app.cfg.SessionSecretFile,
		app.cfg.Issuer,
		app.cfg.SessionTTL,
		app.cfg.SecureCookies,
	)
	if err != nil {
		_ = app.db.Close()
		return nil, fmt.Errorf("failed to initialize session manager: %w", err)
	}
	app.sessions = sessions

	app.initMailer()
	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("directory service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

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
	app.logger.Info("shutting down directory service...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("directory service stopped")
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

// initMailer picks SMTP delivery when configured, log delivery
// otherwise.
func (app *Application) initMailer() {
	if app.cfg.SMTPHost == "" {
		app.mailer = mail.NewLogMailer()
		app.logger.Info("mail delivery: log only (SMTP_HOST unset)")
		return
	}

	app.mailer = mail.NewSMTPMailer(mail.SMTPConfig{
		Host:     app.cfg.SMTPHost,
		Port:     app.cfg.SMTPPort,
		Username: app.cfg.SMTPUsername,
		Password: app.cfg.SMTPPassword,
		From:     app.cfg.SMTPFrom,
	})
	app.logger.Info("mail delivery: smtp", "host", app.cfg.SMTPHost)
}

// initServices initializes all business logic services
func (app *Application) initServices() {
	app.accountService = &service.AccountService{
		Store:     app.db,
		Mailer:    app.mailer,
		BaseURL:   app.cfg.BaseURL,
		VerifyTTL: app.cfg.VerifyTokenTTL,
	}
	app.authService = &service.AuthService{Store: app.db}
	app.profileService = &service.ProfileService{Store: app.db}
	app.resetService = &service.PasswordResetService{
		Store:    app.db,
		Mailer:   app.mailer,
		BaseURL:  app.cfg.BaseURL,
		ResetTTL: app.cfg.ResetTokenTTL,
	}

	app.dispatcher = &action.Dispatcher{
		Accounts: app.accountService,
		Auth:     app.authService,
		Profile:  app.profileService,
		Reset:    app.resetService,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.sessions,
		BuildVersion,
		app.db,
		app.logger,
	)

	// Wire services to router
	router.Dispatcher = app.dispatcher
	router.AccountService = app.accountService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
