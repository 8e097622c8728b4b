package handler

import (
	"log"

	"github.com/ayush-sharaf/pollproject-backend/internal/service"

	"github.com/gofiber/fiber/v2"
)

// PollHandler exposes read-only views of the classroom over HTTP.
type PollHandler struct {
	classroom *service.Classroom
}

func NewPollHandler(classroom *service.Classroom) *PollHandler {
	return &PollHandler{classroom: classroom}
}

// GetCurrent returns the current poll, or null when none was created.
// GET /api/v1/poll/current
func (h *PollHandler) GetCurrent(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"poll":  h.classroom.CurrentPoll(),
		"state": h.classroom.State().String(),
	})
}

// GetResults returns the tally of the current poll.
// GET /api/v1/poll/results
func (h *PollHandler) GetResults(c *fiber.Ctx) error {
	results, ok := h.classroom.Results()
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no poll"})
	}
	return c.JSON(results)
}

// GetHistory returns the most recent ended polls, newest first.
// GET /api/v1/poll/history
func (h *PollHandler) GetHistory(c *fiber.Ctx) error {
	polls, err := h.classroom.PollHistory(c.Context())
	if err != nil {
		log.Printf("[History] GetHistory DB error: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load poll history"})
	}
	return c.JSON(fiber.Map{"polls": polls})
}
