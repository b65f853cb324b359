package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/ktakita1011/MiniKaggle/internal/config"
	"github.com/ktakita1011/MiniKaggle/internal/database"
	"github.com/ktakita1011/MiniKaggle/internal/handlers"
	"github.com/ktakita1011/MiniKaggle/internal/logging"
	"github.com/ktakita1011/MiniKaggle/internal/middleware"
	"github.com/ktakita1011/MiniKaggle/internal/routes"
	"github.com/ktakita1011/MiniKaggle/internal/scoring"
	"github.com/ktakita1011/MiniKaggle/internal/services"
)

func main() {
	// Structured logging (JSON to stdout)
	logging.Setup()

	cfg := config.Load()

	if cfg.JWTSecret == "" {
		slog.Error("JWT_SECRET environment variable is required")
		os.Exit(1)
	}

	// Competition settings (metric, direction, quota, answer set)
	if err := cfg.LoadCompetition(); err != nil {
		slog.Error("failed to load competition settings", "path", cfg.CompetitionConfigPath, "error", err)
		os.Exit(1)
	}
	slog.Info("competition loaded",
		"name", cfg.Competition.Name,
		"metric", cfg.Competition.Metric,
		"direction", cfg.Competition.OptimizationDirection,
		"max_submissions", cfg.Competition.MaxSubmissions)

	// Databases: main store + final-submission store
	if err := database.Connect(cfg); err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.MigrateMain(); err != nil {
		slog.Error("main store migration failed", "error", err)
		os.Exit(1)
	}
	if err := database.MigrateFinal(); err != nil {
		slog.Error("final store migration failed", "error", err)
		os.Exit(1)
	}

	// Persist ERROR+ logs to the main store (async batch)
	storeHandler := logging.NewStoreHandler(database.Main)
	logging.AttachStore(storeHandler)

	// Log cleanup (30-day retention)
	cleanupDone := make(chan struct{})
	logging.StartCleanup(database.Main, cleanupDone)

	// Answer set is loaded once at startup; a bad file is fatal here, never
	// per request.
	answers, err := scoring.LoadAnswerSet(cfg.Competition.AnswerFile, cfg.Competition.AnswerColumnName)
	if err != nil {
		slog.Error("failed to load answer set", "path", cfg.Competition.AnswerFile, "error", err)
		os.Exit(1)
	}
	scorer := scoring.NewScorer(answers, cfg.Competition.MetricKind)
	slog.Info("answer set loaded", "rows", answers.Rows())

	// Services
	authService := services.NewAuthService(database.Main, cfg)
	submissionService := services.NewSubmissionService(database.Main, cfg.Competition.MaxSubmissions, cfg.DedupWindow)
	teamService := services.NewTeamService(database.Main)
	finalService := services.NewFinalSelectionService(database.Main, database.Final, cfg.Competition.StopFinalSubmissionSelect)
	leaderboardService := services.NewLeaderboardService(database.Main, database.Final, cfg.Competition.Direction)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	healthHandler := handlers.NewHealthHandler()
	submissionHandler := handlers.NewSubmissionHandler(cfg, scorer, submissionService, teamService, finalService)
	leaderboardHandler := handlers.NewLeaderboardHandler(leaderboardService)
	teamHandler := handlers.NewTeamHandler(submissionService, teamService)

	// Sentry error tracking
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              dsn,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      os.Getenv("APP_ENV"),
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Fiber app. Body limit leaves headroom over the 10MB upload cap.
	app := fiber.New(fiber.Config{
		BodyLimit:    12 * 1024 * 1024,
		ErrorHandler: customErrorHandler,
	})

	// Sentry middleware
	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		return c.Next()
	})

	// Routes
	routes.Setup(app, cfg, database.Main, authHandler, healthHandler, submissionHandler, leaderboardHandler, teamHandler)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	close(cleanupDone)
	storeHandler.Stop()
	sentry.Flush(2 * time.Second)

	if err := app.Shutdown(); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	// Close database connections
	if sqlDB, err := database.Main.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			slog.Error("main store close error", "error", err)
		}
	}
	if sqlDB, err := database.Final.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			slog.Error("final store close error", "error", err)
		}
	}

	slog.Info("server stopped")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error())
		message = "Internal server error"
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
