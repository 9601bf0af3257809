package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/signverse/signverse-backend/internal/dto"
	"github.com/signverse/signverse-backend/internal/translate"
)

// Translator is the ML service surface the handler needs.
type Translator interface {
	TranslateImage(ctx context.Context, image string) (*translate.Prediction, error)
	TranslateRealtime(ctx context.Context, image string) (*translate.Prediction, error)
	ModelInfo(ctx context.Context) (json.RawMessage, error)
}

type TranslateHandler struct {
	ml Translator
}

func NewTranslateHandler(ml Translator) *TranslateHandler {
	return &TranslateHandler{ml: ml}
}

func (h *TranslateHandler) Translate(c *fiber.Ctx) error {
	return h.predict(c, "translate", h.ml.TranslateImage)
}

func (h *TranslateHandler) Realtime(c *fiber.Ctx) error {
	return h.predict(c, "translate_realtime", h.ml.TranslateRealtime)
}

func (h *TranslateHandler) predict(c *fiber.Ctx, action string, call func(context.Context, string) (*translate.Prediction, error)) error {
	var req dto.TranslateRequest
	if err := c.BodyParser(&req); err != nil || req.Image == "" {
		return translateError(c, fiber.StatusBadRequest, "No image data provided")
	}

	pred, err := call(c.UserContext(), req.Image)
	if err != nil {
		var rejected *translate.RejectedError
		switch {
		case errors.Is(err, translate.ErrInvalidImage), errors.Is(err, translate.ErrImageTooLarge):
			return translateError(c, fiber.StatusBadRequest, capitalize(err.Error()))
		case errors.As(err, &rejected):
			return c.Status(fiber.StatusBadRequest).JSON(rejected.Prediction)
		}
		slog.Warn("translation service call failed", "action", action, "request_id", requestID(c), "error", err)
		return translateError(c, fiber.StatusBadGateway, "Translation service unavailable")
	}

	return c.JSON(pred)
}

func (h *TranslateHandler) ModelInfo(c *fiber.Ctx) error {
	info, err := h.ml.ModelInfo(c.UserContext())
	if err != nil {
		slog.Warn("model info unavailable", "request_id", requestID(c), "error", err)
		return translateError(c, fiber.StatusBadGateway, "Translation service unavailable")
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(info)
}

func translateError(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(dto.TranslateErrorResponse{Status: "error", Error: msg})
}
