package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/signverse/signverse-backend/internal/dto"
	"github.com/signverse/signverse-backend/internal/signs"
)

const maxRandomWords = 100

// SignHandler serves read-only dictionary lookups.
type SignHandler struct {
	index *signs.Index
}

func NewSignHandler(index *signs.Index) *SignHandler {
	return &SignHandler{index: index}
}

func (h *SignHandler) Search(c *fiber.Ctx) error {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		return fail(c, fiber.StatusBadRequest, "Query parameter q is required")
	}
	sign, ok := h.index.Search(q)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Sign not found",
			"word":    q,
			"found":   false,
		})
	}
	return c.JSON(sign)
}

// Has answers whether the dictionary covers a word without returning videos.
func (h *SignHandler) Has(c *fiber.Ctx) error {
	word := strings.TrimSpace(c.Query("word"))
	if word == "" {
		return fail(c, fiber.StatusBadRequest, "Query parameter word is required")
	}
	return c.JSON(dto.HasSignResponse{Word: word, Found: h.index.Has(word)})
}

func (h *SignHandler) Suggest(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", signs.DefaultSuggestionLimit)
	if limit > maxRandomWords {
		limit = maxRandomWords
	}
	return c.JSON(dto.SuggestionsResponse{Suggestions: h.index.Suggestions(c.Query("q"), limit)})
}

func (h *SignHandler) Batch(c *fiber.Ctx) error {
	var req dto.BatchSignsRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	if len(req.Words) == 0 {
		return fail(c, fiber.StatusBadRequest, "words must be a non-empty array")
	}
	if len(req.Words) > dto.MaxBatchWords {
		return fail(c, fiber.StatusBadRequest, "Too many words in one batch")
	}
	return c.JSON(dto.BatchSignsResponse{Results: h.index.Batch(req.Words)})
}

func (h *SignHandler) Words(c *fiber.Ctx) error {
	words := h.index.Words()
	return c.JSON(dto.WordsResponse{Words: words, Count: len(words)})
}

func (h *SignHandler) Random(c *fiber.Ctx) error {
	count := c.QueryInt("count", 10)
	if count > maxRandomWords {
		count = maxRandomWords
	}
	words := h.index.Random(count)
	return c.JSON(dto.WordsResponse{Words: words, Count: len(words)})
}

func (h *SignHandler) Stats(c *fiber.Ctx) error {
	return c.JSON(h.index.Stats())
}
