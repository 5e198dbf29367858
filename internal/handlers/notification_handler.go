package handlers

import (
	"storefront/internal/middleware"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// NotificationHandler serves the notification inbox.
type NotificationHandler struct {
	service *services.NotificationService
	logger  zerolog.Logger
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(service *services.NotificationService, logger zerolog.Logger) *NotificationHandler {
	return &NotificationHandler{service: service, logger: logger}
}

// RegisterRoutes registers the notification routes.
func (h *NotificationHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/notifications", h.HandleList)
	router.Patch("/notifications/:id/read", h.HandleMarkRead)
}

// HandleList returns the caller's notifications, newest first.
func (h *NotificationHandler) HandleList(c *fiber.Ctx) error {
	list, err := h.service.List(c.UserContext(), middleware.ActorFrom(c))
	if err != nil {
		return respondError(c, h.logger, err, "Could not retrieve notifications")
	}
	return c.JSON(list)
}

// HandleMarkRead marks one notification as read.
func (h *NotificationHandler) HandleMarkRead(c *fiber.Ctx) error {
	if err := h.service.MarkRead(c.UserContext(), middleware.ActorFrom(c), c.Params("id")); err != nil {
		return respondError(c, h.logger, err, "Could not update notification")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
