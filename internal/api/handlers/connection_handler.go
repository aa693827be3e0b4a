package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/crossflow/internal/service"
)

type ConnectionHandler struct {
	s service.ConnectionService
}

func NewConnectionHandler(service service.ConnectionService) *ConnectionHandler {
	return &ConnectionHandler{s: service}
}

func (h *ConnectionHandler) ListConnections(c *fiber.Ctx) error {
	userID := GetUserID(c)

	connections, err := h.s.List(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to list connections",
		})
	}

	return c.Status(fiber.StatusOK).JSON(connections)
}

func (h *ConnectionHandler) SetActive(c *fiber.Ctx) error {
	userID := GetUserID(c)
	connectionID := c.QueryInt("id", 0)
	active := c.QueryBool("active", true)

	err := h.s.SetActive(c.Context(), userID, int64(connectionID), active)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to update connection",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Connection updated successfully",
	})
}

func (h *ConnectionHandler) Disconnect(c *fiber.Ctx) error {
	userID := GetUserID(c)
	connectionID := c.QueryInt("id", 0)

	dependents, err := h.s.Disconnect(c.Context(), userID, int64(connectionID))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to disconnect",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message":           "Connection removed successfully",
		"workflows_removed": dependents,
	})
}
