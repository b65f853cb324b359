package handlers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/ktakita1011/MiniKaggle/internal/dto"
	"github.com/ktakita1011/MiniKaggle/internal/middleware"
	"github.com/ktakita1011/MiniKaggle/internal/services"
)

type TeamHandler struct {
	submissions *services.SubmissionService
	teams       *services.TeamService
}

func NewTeamHandler(submissions *services.SubmissionService, teams *services.TeamService) *TeamHandler {
	return &TeamHandler{submissions: submissions, teams: teams}
}

// Get handles GET /team - the user's team, created on first access.
func (h *TeamHandler) Get(c *fiber.Ctx) error {
	username, err := middleware.CurrentUsername(c)
	if err != nil {
		return unauthorized(c)
	}
	user, err := h.submissions.GetOrCreateUser(username)
	if err != nil {
		slog.Error("failed to resolve user", "error", err, "username", username)
		return internalError(c, "Failed to resolve user")
	}

	team, err := h.teams.TeamFor(user)
	if err != nil {
		slog.Error("failed to resolve team", "error", err, "user_id", user.ID)
		return internalError(c, "Failed to resolve team")
	}

	return c.JSON(dto.TeamResponse{TeamID: team.ID, TeamName: team.TeamName})
}

// Rename handles PUT /team - renames the user's team; the team id is stable.
func (h *TeamHandler) Rename(c *fiber.Ctx) error {
	username, err := middleware.CurrentUsername(c)
	if err != nil {
		return unauthorized(c)
	}
	user, err := h.submissions.GetOrCreateUser(username)
	if err != nil {
		slog.Error("failed to resolve user", "error", err, "username", username)
		return internalError(c, "Failed to resolve user")
	}

	var req dto.RenameTeamRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.TeamName == "" || len(req.TeamName) > 100 {
		return badRequest(c, "Team name must be between 1 and 100 characters")
	}

	team, err := h.teams.Rename(user, req.TeamName)
	if err != nil {
		if errors.Is(err, services.ErrTeamNameTaken) {
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
				Error: true, Message: "Team name already taken",
			})
		}
		slog.Error("team rename failed", "error", err, "user_id", user.ID)
		return internalError(c, "Failed to rename team")
	}

	return c.JSON(dto.TeamResponse{TeamID: team.ID, TeamName: team.TeamName})
}
