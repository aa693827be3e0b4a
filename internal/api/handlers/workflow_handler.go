package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/crossflow/internal/service"
	"github.com/maheshrc27/crossflow/internal/transfer"
)

type WorkflowHandler struct {
	s service.WorkflowService
}

func NewWorkflowHandler(service service.WorkflowService) *WorkflowHandler {
	return &WorkflowHandler{s: service}
}

func (h *WorkflowHandler) CreateWorkflow(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var wc transfer.WorkflowCreation
	if err := c.BodyParser(&wc); err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	workflowID, err := h.s.Create(c.Context(), userID, &wc)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"id":      workflowID,
		"message": "Workflow created successfully",
	})
}

func (h *WorkflowHandler) ListWorkflows(c *fiber.Ctx) error {
	userID := GetUserID(c)
	workflowID := c.QueryInt("id", 0)

	if workflowID != 0 {
		workflow, steps, err := h.s.WorkflowInfo(c.Context(), userID, int64(workflowID))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Unable to get workflow",
			})
		}

		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"workflow": workflow,
			"steps":    steps,
		})
	}

	workflows, err := h.s.List(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to list workflows",
		})
	}

	return c.Status(fiber.StatusOK).JSON(workflows)
}

func (h *WorkflowHandler) ListRuns(c *fiber.Ctx) error {
	userID := GetUserID(c)
	workflowID := c.QueryInt("id", 0)
	if workflowID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Missing workflow id",
		})
	}

	runs, err := h.s.Runs(c.Context(), userID, int64(workflowID))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to list workflow runs",
		})
	}

	return c.Status(fiber.StatusOK).JSON(runs)
}

func (h *WorkflowHandler) SetActive(c *fiber.Ctx) error {
	userID := GetUserID(c)
	workflowID := c.QueryInt("id", 0)
	active := c.QueryBool("active", true)

	err := h.s.SetActive(c.Context(), userID, int64(workflowID), active)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to update workflow",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Workflow updated successfully",
	})
}

func (h *WorkflowHandler) RemoveWorkflow(c *fiber.Ctx) error {
	userID := GetUserID(c)
	workflowID := c.QueryInt("id", 0)

	err := h.s.Remove(c.Context(), userID, int64(workflowID))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to remove workflow",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Workflow removed successfully",
	})
}
