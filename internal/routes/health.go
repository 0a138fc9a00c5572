package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/zimsave/zimsave_plus/internal/ledger"
)

const statusDisabled = "disabled"

// RegisterHealthRoutes adds a readiness endpoint covering the backends in use.
func RegisterHealthRoutes(app *fiber.App, d Deps, l *ledger.Ledger) {
	app.Get("/healthz", func(c *fiber.Ctx) error {
		dbStatus := statusDisabled
		redisStatus := statusDisabled
		ledgerStatus := "ok"

		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if d.DB != nil {
			dbStatus = "ok"
			if err := d.DB.Ping(ctx); err != nil {
				dbStatus = err.Error()
			}
		}
		if d.Cache != nil {
			redisStatus = "ok"
			if err := d.Cache.Ping(ctx).Err(); err != nil {
				redisStatus = err.Error()
			}
		}
		if !l.Loaded() {
			ledgerStatus = ledger.ErrNotLoaded.Error()
		}

		status := http.StatusOK
		for _, s := range []string{dbStatus, redisStatus, ledgerStatus} {
			if s != "ok" && s != statusDisabled {
				status = http.StatusServiceUnavailable
			}
		}
		return c.Status(status).JSON(fiber.Map{
			"status": fiber.Map{
				"postgres": dbStatus,
				"redis":    redisStatus,
				"ledger":   ledgerStatus,
				"store":    d.Cfg.StoreBackend,
			},
			"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		})
	})
}
