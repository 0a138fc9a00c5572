package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/zimsave/zimsave_plus/internal/mukando"
)

// RegisterMukandoRoutes wires savings group endpoints. limit guards the
// advisory-backed summary.
func RegisterMukandoRoutes(r fiber.Router, h *mukando.Handler, limit fiber.Handler) {
	r.Get("/mukando/groups", h.List)
	r.Post("/mukando/groups", h.Create)
	r.Get("/mukando/groups/:groupId", h.Get)
	r.Post("/mukando/groups/:groupId/contributions", h.TrackContribution)
	r.Post("/mukando/groups/:groupId/loans", h.RequestLoan)
	r.Get("/mukando/groups/:groupId/summary", limit, h.Summary)
}
