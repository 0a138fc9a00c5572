package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/zimsave/zimsave_plus/internal/identity"
)

// RegisterIdentityRoutes wires the local profile endpoints.
func RegisterIdentityRoutes(r fiber.Router, h *identity.Handler) {
	auth := r.Group("/auth")
	auth.Post("/signup", h.Signup)
	auth.Post("/login", h.Login)
	auth.Post("/logout", h.Logout)
	auth.Get("/me", h.Me)
}
