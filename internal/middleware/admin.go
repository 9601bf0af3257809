package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/signverse/signverse-backend/internal/config"
	"github.com/signverse/signverse-backend/internal/dto"
	"github.com/signverse/signverse-backend/internal/repository"
	"github.com/signverse/signverse-backend/internal/session"
)

// AdminRequired checks, in order:
// 1. X-Admin-Token header against ADMIN_TOKEN
// 2. the session user's email against ADMIN_EMAILS
//
// The stored role is not trusted: any registrant may pick "admin".
//
// Mount it after Authenticate unless only the admin token is used.
func AdminRequired(users repository.Users, cfg *config.Config) fiber.Handler {
	adminEmails := parseCSV(strings.ToLower(cfg.AdminEmails))

	return func(c *fiber.Ctx) error {
		if cfg.AdminToken != "" && c.Get("X-Admin-Token") == cfg.AdminToken {
			return c.Next()
		}

		userID, err := session.GetUserID(c)
		if err != nil {
			return unauthorized(c, msgNoToken)
		}

		user, err := users.FindByID(c.UserContext(), userID)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Success: false, Message: msgTokenFailed,
			})
		}

		if contains(adminEmails, user.Email) {
			return c.Next()
		}

		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Success: false, Message: "Admin access required",
		})
	}
}

// AdminTokenOrSession authenticates with the admin token alone when it
// matches, otherwise falls through to the session check.
func AdminTokenOrSession(cfg *config.Config, authenticate fiber.Handler) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if cfg.AdminToken != "" && c.Get("X-Admin-Token") == cfg.AdminToken {
			return c.Next()
		}
		return authenticate(c)
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
