package handlers

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/signverse/signverse-backend/internal/dto"
	"github.com/signverse/signverse-backend/internal/signs"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type MLHealth interface {
	Health(ctx context.Context) error
}

type HealthHandler struct {
	db    Pinger
	ml    MLHealth
	index *signs.Index
}

func NewHealthHandler(db Pinger, ml MLHealth, index *signs.Index) *HealthHandler {
	return &HealthHandler{db: db, ml: ml, index: index}
}

// Check always answers 200; degraded dependencies are reported in the body.
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
	defer cancel()

	dbStatus := "ok"
	if err := h.db.Ping(ctx); err != nil {
		slog.Warn("health check: database ping failed", "error", err)
		dbStatus = "unhealthy"
	}

	mlStatus := "disabled"
	if h.ml != nil {
		mlStatus = "ok"
		if err := h.ml.Health(ctx); err != nil {
			mlStatus = "unavailable"
		}
	}

	status := "ok"
	if dbStatus != "ok" {
		status = "degraded"
	}

	return c.JSON(dto.HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		DB:        dbStatus,
		ML:        mlStatus,
		Signs:     h.index.Len(),
	})
}
