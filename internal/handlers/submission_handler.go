package handlers

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/ktakita1011/MiniKaggle/internal/config"
	"github.com/ktakita1011/MiniKaggle/internal/dto"
	"github.com/ktakita1011/MiniKaggle/internal/metric"
	"github.com/ktakita1011/MiniKaggle/internal/middleware"
	"github.com/ktakita1011/MiniKaggle/internal/models"
	"github.com/ktakita1011/MiniKaggle/internal/scoring"
	"github.com/ktakita1011/MiniKaggle/internal/services"
)

type SubmissionHandler struct {
	cfg         *config.Config
	scorer      *scoring.Scorer
	submissions *services.SubmissionService
	teams       *services.TeamService
	finals      *services.FinalSelectionService
}

func NewSubmissionHandler(cfg *config.Config, scorer *scoring.Scorer, submissions *services.SubmissionService, teams *services.TeamService, finals *services.FinalSelectionService) *SubmissionHandler {
	return &SubmissionHandler{cfg: cfg, scorer: scorer, submissions: submissions, teams: teams, finals: finals}
}

// Create handles POST /submissions - scores an uploaded prediction CSV and
// records the result against the user's quota.
func (h *SubmissionHandler) Create(c *fiber.Ctx) error {
	user, ok := h.currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	team, err := h.teams.TeamFor(user)
	if err != nil {
		slog.Error("failed to resolve team", "error", err, "user_id", user.ID)
		return internalError(c, "Failed to resolve team")
	}

	file, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "Prediction file is required")
	}
	if file.Size > 10*1024*1024 {
		return badRequest(c, "Prediction file must be less than 10MB")
	}
	if !strings.HasSuffix(strings.ToLower(file.Filename), ".csv") {
		return badRequest(c, "Only CSV files are accepted")
	}

	src, err := file.Open()
	if err != nil {
		return internalError(c, "Failed to read upload")
	}
	data, err := io.ReadAll(src)
	src.Close()
	if err != nil {
		return internalError(c, "Failed to read upload")
	}

	hash := sha256.Sum256(data)
	contentHash := hex.EncodeToString(hash[:])

	publicScore, privateScore, err := h.scorer.Score(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, scoring.ErrFileFormat) {
			return badRequest(c, err.Error())
		}
		slog.Error("scoring failed", "error", err, "user_id", user.ID, "filename", file.Filename)
		return internalError(c, "Failed to score submission")
	}

	direction := h.cfg.Competition.Direction
	previousBest, err := h.submissions.BestScore(user.ID, direction)
	if err != nil {
		slog.Error("best score lookup failed", "error", err, "user_id", user.ID)
		return internalError(c, "Failed to look up best score")
	}

	sub, err := h.submissions.Record(user.ID, team.ID, file.Filename, publicScore, privateScore, time.Now().UTC(), contentHash)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrQuotaExceeded):
			return c.Status(fiber.StatusTooManyRequests).JSON(dto.ErrorResponse{
				Error: true, Message: fmt.Sprintf("Submission limit reached (%d)", h.submissions.MaxSubmissions()),
			})
		case errors.Is(err, services.ErrDuplicateSubmission):
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
				Error: true, Message: "An identical file was already submitted",
			})
		default:
			slog.Error("failed to record submission", "error", err, "user_id", user.ID)
			return internalError(c, "Failed to record submission")
		}
	}

	h.archiveUpload(user.ID, file.Filename, data)

	used, err := h.submissions.SubmissionCount(user.ID)
	if err != nil {
		slog.Error("submission count failed", "error", err, "user_id", user.ID)
		used = sub.UserSubmissionID
	}

	resp := dto.SubmitResponse{
		SubmissionID:     sub.ID,
		UserSubmissionID: sub.UserSubmissionID,
		Filename:         sub.Filename,
		PublicScore:      sub.PublicScore,
		NewBest:          metric.IsNewBest(publicScore, previousBest, direction),
		SubmissionsUsed:  used,
		MaxSubmissions:   h.submissions.MaxSubmissions(),
	}
	if !math.IsInf(previousBest, 0) {
		resp.PreviousBest = &previousBest
	}

	return c.Status(fiber.StatusCreated).JSON(resp)
}

// History handles GET /submissions - the user's own submissions, most recent
// first. Private scores stay hidden until final selection is closed.
func (h *SubmissionHandler) History(c *fiber.Ctx) error {
	user, ok := h.currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	subs, err := h.submissions.History(user.ID)
	if err != nil {
		slog.Error("history lookup failed", "error", err, "user_id", user.ID)
		return internalError(c, "Failed to fetch submissions")
	}

	revealPrivate := h.cfg.Competition.StopFinalSubmissionSelect
	rows := make([]dto.SubmissionResponse, len(subs))
	for i, sub := range subs {
		rows[i] = dto.SubmissionResponse{
			SubmissionID:     sub.ID,
			UserSubmissionID: sub.UserSubmissionID,
			Filename:         sub.Filename,
			PublicScore:      sub.PublicScore,
			SubmittedAt:      sub.SubmittedAt,
		}
		if revealPrivate {
			score := sub.PrivateScore
			rows[i].PrivateScore = &score
		}
	}

	return c.JSON(dto.HistoryResponse{Submissions: rows, Total: len(rows)})
}

// Quota handles GET /submissions/quota.
func (h *SubmissionHandler) Quota(c *fiber.Ctx) error {
	user, ok := h.currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	used, err := h.submissions.SubmissionCount(user.ID)
	if err != nil {
		slog.Error("submission count failed", "error", err, "user_id", user.ID)
		return internalError(c, "Failed to fetch quota")
	}

	max := h.submissions.MaxSubmissions()
	return c.JSON(dto.QuotaResponse{Used: used, Max: max, Remaining: max - used})
}

// SelectFinal handles PUT /submissions/final - replaces the user's final
// selection wholesale.
func (h *SubmissionHandler) SelectFinal(c *fiber.Ctx) error {
	user, ok := h.currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	var req dto.FinalSelectionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	finals, err := h.finals.Select(user.ID, req.SubmissionIDs)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSelectionLocked):
			return c.Status(fiber.StatusLocked).JSON(dto.ErrorResponse{
				Error: true, Message: "Final submission selection is closed",
			})
		case errors.Is(err, services.ErrInvalidSelection):
			return badRequest(c, err.Error())
		default:
			slog.Error("final selection failed", "error", err, "user_id", user.ID)
			return internalError(c, "Failed to update final selection")
		}
	}

	return c.JSON(finalResponses(finals))
}

// CurrentFinal handles GET /submissions/final.
func (h *SubmissionHandler) CurrentFinal(c *fiber.Ctx) error {
	user, ok := h.currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	finals, err := h.finals.CurrentFinal(user.ID)
	if err != nil {
		slog.Error("final submission lookup failed", "error", err, "user_id", user.ID)
		return internalError(c, "Failed to fetch final submissions")
	}

	return c.JSON(finalResponses(finals))
}

func (h *SubmissionHandler) currentUser(c *fiber.Ctx) (*models.User, bool) {
	username, err := middleware.CurrentUsername(c)
	if err != nil {
		return nil, false
	}
	user, err := h.submissions.GetOrCreateUser(username)
	if err != nil {
		slog.Error("failed to resolve user", "error", err, "username", username)
		return nil, false
	}
	return user, true
}

// archiveUpload keeps a copy of the raw upload on disk, best effort.
func (h *SubmissionHandler) archiveUpload(userID uint, filename string, data []byte) {
	dir := filepath.Join(h.cfg.UploadDir, fmt.Sprintf("%d", userID))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		slog.Error("failed to create upload directory", "error", err, "dir", dir)
		return
	}

	name := fmt.Sprintf("%s_%s_%s",
		time.Now().UTC().Format("20060102_150405"),
		uuid.New().String()[:8],
		filepath.Base(filename))
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		slog.Error("failed to archive upload", "error", err, "file", name)
	}
}

func finalResponses(finals []models.FinalSubmission) []dto.FinalSubmissionResponse {
	rows := make([]dto.FinalSubmissionResponse, len(finals))
	for i, f := range finals {
		rows[i] = dto.FinalSubmissionResponse{
			SubmissionID:     f.SubmissionID,
			UserSubmissionID: f.UserSubmissionID,
			Filename:         f.Filename,
			PublicScore:      f.PublicScore,
			SubmittedAt:      f.SubmittedAt,
		}
	}
	return rows
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
		Error: true, Message: "Unauthorized",
	})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Error: true, Message: msg,
	})
}

func internalError(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
		Error: true, Message: msg,
	})
}
