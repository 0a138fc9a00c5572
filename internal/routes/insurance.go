package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/zimsave/zimsave_plus/internal/insurance"
)

// RegisterInsuranceRoutes wires the micro-insurance endpoints.
func RegisterInsuranceRoutes(r fiber.Router, h *insurance.Handler) {
	r.Get("/insurance/policies", h.Policies)
	r.Get("/insurance/active", h.Active)
	r.Put("/insurance/active", h.Activate)
	r.Delete("/insurance/active", h.Cancel)
}
