package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/ktakita1011/MiniKaggle/internal/services"
)

type LeaderboardHandler struct {
	boards *services.LeaderboardService
}

func NewLeaderboardHandler(boards *services.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{boards: boards}
}

// Public handles GET /leaderboard - ranked by best public score.
func (h *LeaderboardHandler) Public(c *fiber.Ctx) error {
	entries, err := h.boards.Public()
	if err != nil {
		slog.Error("public leaderboard failed", "error", err)
		return internalError(c, "Failed to build leaderboard")
	}
	return paged(c, entries)
}

// Teams handles GET /leaderboard/teams.
func (h *LeaderboardHandler) Teams(c *fiber.Ctx) error {
	entries, err := h.boards.Teams()
	if err != nil {
		slog.Error("team leaderboard failed", "error", err)
		return internalError(c, "Failed to build leaderboard")
	}
	return paged(c, entries)
}

// Private handles GET /admin/leaderboard/private - ranked by private score
// over final-submission candidates. Admin only.
func (h *LeaderboardHandler) Private(c *fiber.Ctx) error {
	entries, err := h.boards.Private()
	if err != nil {
		slog.Error("private leaderboard failed", "error", err)
		return internalError(c, "Failed to build leaderboard")
	}
	return paged(c, entries)
}

// paged slices a fully ranked board; ranking never depends on the page.
func paged[T any](c *fiber.Ctx, entries []T) error {
	page := c.QueryInt("page", 1)
	perPage := c.QueryInt("per_page", 20)
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	return c.JSON(fiber.Map{
		"entries":  services.Paginate(entries, page, perPage),
		"page":     page,
		"per_page": perPage,
		"total":    len(entries),
	})
}
