package routes

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/zimsave/zimsave_plus/internal/advisory"
	"github.com/zimsave/zimsave_plus/internal/config"
	"github.com/zimsave/zimsave_plus/internal/goals"
	"github.com/zimsave/zimsave_plus/internal/identity"
	"github.com/zimsave/zimsave_plus/internal/insurance"
	"github.com/zimsave/zimsave_plus/internal/ledger"
	"github.com/zimsave/zimsave_plus/internal/middleware"
	"github.com/zimsave/zimsave_plus/internal/mukando"
	"github.com/zimsave/zimsave_plus/internal/notification"
	"github.com/zimsave/zimsave_plus/internal/store"
	"github.com/zimsave/zimsave_plus/internal/wallet"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Store  store.Store
	Logger *slog.Logger

	// Advisor overrides the HTTP advisory client built from Cfg.
	Advisor advisory.Advisor
	// LedgerOptions are passed to ledger.New.
	LedgerOptions []ledger.Option
}

// Setup loads the ledger, then configures middlewares and all application routes.
func Setup(ctx context.Context, app *fiber.App, d Deps) (*ledger.Ledger, error) {
	if d.Store == nil {
		return nil, fmt.Errorf("routes: store is required")
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}

	l := ledger.New(d.Store, d.Logger, d.LedgerOptions...)
	if err := l.Load(ctx); err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))
	if d.Cache != nil {
		app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Cfg.StoreNamespace, d.Logger))
	}

	// Health
	RegisterHealthRoutes(app, d, l)

	inbox := notification.NewInbox(d.Store, d.Logger)
	notifier := notification.NewMulti(d.Logger, notification.NewLoggerNotifier(d.Logger), inbox)

	advisor := d.Advisor
	if advisor == nil {
		advisor = advisory.New(d.Cfg.AdvisoryURL, d.Cfg.AdvisoryTimeout)
	}

	identitySvc := identity.NewService(d.Store, d.Logger)
	walletSvc := wallet.NewService(l, notifier, d.Logger)
	mukandoSvc := mukando.NewService(l, advisor, notifier, d.Logger)
	goalSvc := goals.NewService(l, notifier, d.Logger)
	insuranceSvc := insurance.NewService(d.Store, l, notifier, d.Logger)

	// API routes
	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": middleware.RequestIDFrom(c),
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	// Public routes
	RegisterIdentityRoutes(api, identity.NewHandler(identitySvc))

	// Profile-guarded routes
	protected := api.Group("", middleware.RequireProfile(identitySvc))
	advisoryLimit := middleware.RateLimit(d.Cache, "advisory", d.Cfg.AdvisoryRate, d.Logger)
	RegisterWalletRoutes(protected, wallet.NewHandler(walletSvc))
	RegisterMukandoRoutes(protected, mukando.NewHandler(mukandoSvc), advisoryLimit)
	RegisterGoalRoutes(protected, goals.NewHandler(goalSvc))
	RegisterInsuranceRoutes(protected, insurance.NewHandler(insuranceSvc))
	RegisterNotificationRoutes(protected, notification.NewHandler(inbox))
	RegisterChatRoutes(protected, advisory.NewHandler(advisor, notifier, d.Logger), advisoryLimit)

	return l, nil
}
