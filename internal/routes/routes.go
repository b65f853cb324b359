package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/ktakita1011/MiniKaggle/internal/config"
	"github.com/ktakita1011/MiniKaggle/internal/handlers"
	"github.com/ktakita1011/MiniKaggle/internal/middleware"
	"gorm.io/gorm"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	db *gorm.DB,
	authHandler *handlers.AuthHandler,
	healthHandler *handlers.HealthHandler,
	submissionHandler *handlers.SubmissionHandler,
	leaderboardHandler *handlers.LeaderboardHandler,
	teamHandler *handlers.TeamHandler,
) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", healthHandler.Check)

	// Auth — public, with a stricter rate limit: 10 req/min per IP
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/refresh", authHandler.Refresh)

	api.Post("/auth/logout", middleware.JWTProtected(cfg), authHandler.Logout)

	// Submissions (JWT required)
	jwt := middleware.JWTProtected(cfg)
	api.Post("/submissions", jwt, submissionHandler.Create)
	api.Get("/submissions", jwt, submissionHandler.History)
	api.Get("/submissions/quota", jwt, submissionHandler.Quota)
	api.Put("/submissions/final", jwt, submissionHandler.SelectFinal)
	api.Get("/submissions/final", jwt, submissionHandler.CurrentFinal)

	// Leaderboards (JWT required; private board is admin only)
	api.Get("/leaderboard", jwt, leaderboardHandler.Public)
	api.Get("/leaderboard/teams", jwt, leaderboardHandler.Teams)

	admin := api.Group("/admin", jwt, middleware.AdminRequired(db, cfg))
	admin.Get("/leaderboard/private", leaderboardHandler.Private)

	// Team
	api.Get("/team", jwt, teamHandler.Get)
	api.Put("/team", jwt, teamHandler.Rename)
}
