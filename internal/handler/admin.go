package handler

import (
	"github.com/ayush-sharaf/pollproject-backend/internal/service"

	"github.com/gofiber/fiber/v2"
)

type AdminHandler struct {
	classroom *service.Classroom
	wsHub     *service.WSHub
}

func NewAdminHandler(classroom *service.Classroom, wsHub *service.WSHub) *AdminHandler {
	return &AdminHandler{classroom: classroom, wsHub: wsHub}
}

func (h *AdminHandler) Stats(c *fiber.Ctx) error {
	teachers, students := h.wsHub.Counts()

	return c.JSON(fiber.Map{
		"connections_online": h.wsHub.OnlineCount(),
		"teachers_online":    teachers,
		"students_online":    students,
		"roster_size":        len(h.classroom.Students()),
		"chat_messages":      len(h.classroom.ChatHistory()),
		"poll_state":         h.classroom.State().String(),
	})
}
