package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	h "github.com/gorilla/handlers"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"

	"github.com/flowhq/flow-api/internal/config"
	"github.com/flowhq/flow-api/internal/handlers"
	"github.com/flowhq/flow-api/internal/middleware"
	"github.com/flowhq/flow-api/internal/migration"
	"github.com/flowhq/flow-api/internal/notification"
	"github.com/flowhq/flow-api/internal/nudge"
	"github.com/flowhq/flow-api/internal/repository"
	"github.com/flowhq/flow-api/internal/routes"

	_ "github.com/lib/pq" // PostgreSQL driver
)

type application struct {
	config    *config.Config
	db        *sql.DB
	logger    zerolog.Logger
	scheduler *nudge.Scheduler
}

func main() {
	// Set up structured, level-based logging.
	consoleWriter := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}
	logger := zerolog.New(consoleWriter).With().Timestamp().Logger()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.SetFlags(0)
	log.SetOutput(logger)

	gooseAdapter := migration.NewGooseAdapter(logger)
	goose.SetLogger(gooseAdapter)

	// Load configuration.
	cfg := config.Load()

	// Initialize database connection.
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to the database")
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to ping database")
	}

	// Run database migrations.
	migration.RunMigrations(cfg.DatabaseURL, logger)

	// Repositories
	invoiceRepo := repository.NewInvoiceRepository(db)
	userRepo := repository.NewUserRepository(db)
	nudgeLogRepo := repository.NewNudgeLogRepository(db)
	templateRepo := repository.NewTemplateRepository(db)

	// Mail delivery
	mailer, err := notification.NewSMTPMailer(cfg.Email)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure mailer")
	}
	dispatcher := notification.NewEmailDispatcher(templateRepo, mailer, cfg.App.BaseURL, logger)

	// Nudge engine
	evaluator := nudge.NewEvaluator(cfg.Scheduler.UseUserTimezone, logger)
	scheduler := nudge.NewScheduler(
		nudge.SchedulerConfig{
			CronSpec:    cfg.Scheduler.CronSpec,
			SendTimeout: cfg.Scheduler.SendTimeout,
		},
		invoiceRepo, userRepo, nudgeLogRepo, evaluator, dispatcher, logger,
	)
	projector := nudge.NewProjector(invoiceRepo, userRepo, evaluator)

	// Create the application instance.
	app := &application{
		config:    cfg,
		db:        db,
		logger:    logger,
		scheduler: scheduler,
	}

	// Start the nudge scheduler in a separate goroutine.
	schedulerCtx, stopScheduler := context.WithCancel(context.Background())
	go func() {
		if err := app.scheduler.Run(schedulerCtx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("nudge scheduler exited")
		}
	}()

	// Initialize the HTTP router and middleware.
	router := app.initRouter(projector, invoiceRepo, userRepo, nudgeLogRepo, templateRepo, logger)
	loggedRouter := middleware.LoggingMiddleware(app.logger)(router)
	corsHandler := h.CORS(
		h.AllowedOrigins([]string{"http://localhost:3000"}),
		h.AllowedMethods([]string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}),
		h.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		h.AllowCredentials(),
	)(loggedRouter)

	// Start the HTTP server and handle graceful shutdown.
	app.startServer(corsHandler, stopScheduler, logger)

	logger.Info().Msg("Application terminated.")
}

// initRouter sets up all HTTP handlers and returns the router.
func (app *application) initRouter(
	projector *nudge.Projector,
	invoiceRepo repository.InvoiceRepository,
	userRepo repository.UserRepository,
	nudgeLogRepo repository.NudgeLogRepository,
	templateRepo repository.TemplateRepository,
	logger zerolog.Logger,
) http.Handler {
	authHandler := handlers.NewAuthHandler(userRepo, app.config.JWTSecret, logger)
	invoiceHandler := handlers.NewInvoiceHandler(invoiceRepo, userRepo, nudgeLogRepo, logger)
	dashboardHandler := handlers.NewDashboardHandler(invoiceRepo, projector, logger)
	settingsHandler := handlers.NewSettingsHandler(userRepo, logger)
	templateHandler := handlers.NewTemplateHandler(templateRepo, logger)
	unsubscribeHandler := handlers.NewUnsubscribeHandler(invoiceRepo, logger)

	return routes.NewRouter(authHandler, invoiceHandler, dashboardHandler, settingsHandler, templateHandler, unsubscribeHandler)
}

// startServer launches the HTTP server and handles graceful shutdown.
func (app *application) startServer(handler http.Handler, stopScheduler context.CancelFunc, logger zerolog.Logger) {
	server := &http.Server{
		Addr:    ":" + app.config.ServerPort,
		Handler: handler,
	}

	// Channel to listen for server errors
	serverErrCh := make(chan error, 1)
	go func() {
		logger.Info().Msgf("Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
		}
	}()

	// Wait for an interrupt signal or a server error.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info().Msgf("Received signal: %s. Shutting down...", sig)
	case err := <-serverErrCh:
		logger.Error().Err(err).Msg("Server error occurred")
	}

	// Gracefully shut down the HTTP server.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	} else {
		logger.Info().Msg("HTTP server shutdown complete.")
	}

	// Stop the nudge scheduler.
	logger.Info().Msg("Stopping nudge scheduler...")
	stopScheduler()
	logger.Info().Msg("Nudge scheduler stopped.")
}
