package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/ktakita1011/MiniKaggle/internal/config"
	"github.com/ktakita1011/MiniKaggle/internal/dto"
	"github.com/ktakita1011/MiniKaggle/internal/models"
	"gorm.io/gorm"
)

// AdminRequired gates admin-only views (the private leaderboard). It accepts:
// 1. the config admin token header
// 2. a username on the config admin list
// 3. an admin role claim, re-checked against the user row
func AdminRequired(db *gorm.DB, cfg *config.Config) fiber.Handler {
	adminUsernames := parseCSV(cfg.AdminUsernames)

	return func(c *fiber.Ctx) error {
		if cfg.AdminToken != "" {
			if c.Get("X-Admin-Token") == cfg.AdminToken {
				return c.Next()
			}
		}

		claims, err := CurrentClaims(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized",
			})
		}

		username, _ := claims["username"].(string)
		if contains(adminUsernames, username) {
			return c.Next()
		}

		if role, _ := claims["role"].(string); role == "admin" {
			userID, err := CurrentUserID(c)
			if err == nil {
				var user models.User
				if err := db.First(&user, userID).Error; err == nil && user.Role == "admin" {
					return c.Next()
				}
			}
		}

		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Error: true, Message: "Admin access required",
		})
	}
}

func parseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func contains(list []string, val string) bool {
	for _, item := range list {
		if item == val {
			return true
		}
	}
	return false
}
