package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/zimsave/zimsave_plus/internal/notification"
)

// RegisterNotificationRoutes wires the in-app inbox.
func RegisterNotificationRoutes(r fiber.Router, h *notification.Handler) {
	r.Get("/notifications", h.List)
	r.Post("/notifications/read-all", h.MarkAllRead)
	r.Post("/notifications/:id/read", h.MarkRead)
}
