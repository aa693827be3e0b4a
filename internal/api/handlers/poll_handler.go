package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	"github.com/maheshrc27/crossflow/internal/pipeline"
	"github.com/maheshrc27/crossflow/internal/queue"
	"github.com/maheshrc27/crossflow/internal/repository"
	"github.com/maheshrc27/crossflow/internal/transfer"
)

type PollHandler struct {
	poller      *pipeline.Poller
	cr          repository.ConnectionRepository
	AsynqClient *asynq.Client
}

func NewPollHandler(poller *pipeline.Poller, cr repository.ConnectionRepository, asynqClient *asynq.Client) *PollHandler {
	return &PollHandler{poller: poller, cr: cr, AsynqClient: asynqClient}
}

// Poll triggers a sweep on demand. With background=true the sweep is handed
// to the task queue and the handler returns immediately.
func (h *PollHandler) Poll(c *fiber.Ctx) error {
	userID := GetUserID(c)
	connectionID := int64(c.QueryInt("connection_id", 0))
	background := c.QueryBool("background", false)

	if connectionID != 0 {
		owned, err := h.cr.CheckByUserID(c.Context(), connectionID, userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Unable to check connection",
			})
		}
		if !owned {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Connection not found",
			})
		}
	}

	if background {
		err := queue.EnqueuePollSweep(h.AsynqClient, queue.PollSweepPayload{ConnectionID: connectionID})
		if err != nil {
			slog.Info(err.Error())
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Error scheduling poll",
			})
		}

		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
			"message": "Poll scheduled",
		})
	}

	if connectionID != 0 {
		conn, err := h.cr.GetByID(c.Context(), connectionID)
		if err != nil || conn == nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Connection not found",
			})
		}

		result := h.poller.PollConnection(c.Context(), conn)
		return c.Status(fiber.StatusOK).JSON([]*transfer.PollResult{result})
	}

	results, err := h.poller.PollAll(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to poll connections",
		})
	}

	return c.Status(fiber.StatusOK).JSON(results)
}
