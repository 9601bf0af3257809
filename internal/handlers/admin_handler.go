package handlers

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/signverse/signverse-backend/internal/dto"
)

type RegistrationPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

type AdminHandler struct {
	purger RegistrationPurger
}

func NewAdminHandler(purger RegistrationPurger) *AdminHandler {
	return &AdminHandler{purger: purger}
}

func (h *AdminHandler) PurgeExpiredRegistrations(c *fiber.Ctx) error {
	n, err := h.purger.PurgeExpired(c.UserContext())
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	slog.Info("expired registrations purged", "action", "admin_purge", "deleted", n, "request_id", requestID(c))
	return c.JSON(dto.PurgeResponse{Success: true, Deleted: n})
}
