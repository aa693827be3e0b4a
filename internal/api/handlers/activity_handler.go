package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/crossflow/internal/service"
)

type ActivityHandler struct {
	s service.ActivityService
}

func NewActivityHandler(service service.ActivityService) *ActivityHandler {
	return &ActivityHandler{s: service}
}

func (h *ActivityHandler) ListActivity(c *fiber.Ctx) error {
	userID := GetUserID(c)
	limit := c.QueryInt("limit", 50)

	entries, err := h.s.Feed(c.Context(), userID, limit)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to list activity",
		})
	}

	return c.Status(fiber.StatusOK).JSON(entries)
}

func (h *ActivityHandler) ListPosts(c *fiber.Ctx) error {
	userID := GetUserID(c)

	posts, err := h.s.Posts(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to list posts",
		})
	}

	return c.Status(fiber.StatusOK).JSON(posts)
}
