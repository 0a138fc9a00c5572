package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/zimsave/zimsave_plus/internal/advisory"
)

// RegisterChatRoutes wires the financial health chatbot.
func RegisterChatRoutes(r fiber.Router, h *advisory.Handler, limit fiber.Handler) {
	r.Post("/chat", limit, h.Chat)
}
