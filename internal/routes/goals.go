package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/zimsave/zimsave_plus/internal/goals"
)

// RegisterGoalRoutes wires savings goal endpoints.
func RegisterGoalRoutes(r fiber.Router, h *goals.Handler) {
	r.Get("/goals", h.List)
	r.Post("/goals", h.Create)
	r.Post("/goals/:goalId/contributions", h.Fund)
}
