package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/zimsave/zimsave_plus/internal/wallet"
)

// RegisterWalletRoutes wires wallet-related endpoints.
func RegisterWalletRoutes(r fiber.Router, h *wallet.Handler) {
	r.Get("/wallet", h.Get)
	r.Post("/wallet/deposits", h.Deposit)
	r.Post("/wallet/transfers", h.Transfer)
	r.Get("/wallet/verify", h.Verify)
}
