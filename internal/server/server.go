package server

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/zimsave/zimsave_plus/internal/config"
	"github.com/zimsave/zimsave_plus/internal/ledger"
	"github.com/zimsave/zimsave_plus/internal/routes"
	"github.com/zimsave/zimsave_plus/internal/store"
)

// Server wraps the Fiber application and shared dependencies.
type Server struct {
	app    *fiber.App
	cfg    config.Config
	ledger *ledger.Ledger
}

// New instantiates the HTTP server and delegates route wiring to routes.Setup.
// db and cache may be nil when the selected backend does not need them.
func New(ctx context.Context, cfg config.Config, st store.Store, db *pgxpool.Pool, cache *redis.Client, logger *slog.Logger) (*Server, error) {
	app := fiber.New(fiber.Config{
		AppName:               cfg.AppName,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          cfg.AdvisoryTimeout + 5*time.Second,
		DisableStartupMessage: !cfg.IsDev(),
		ErrorHandler:          ErrorHandler,
	})

	l, err := routes.Setup(ctx, app, routes.Deps{Cfg: cfg, DB: db, Cache: cache, Store: st, Logger: logger})
	if err != nil {
		return nil, err
	}

	return &Server{app: app, cfg: cfg, ledger: l}, nil
}

// ErrorHandler renders every error as {"error": message}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}

// App exposes the underlying Fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Ledger returns the loaded ledger backing the routes.
func (s *Server) Ledger() *ledger.Ledger {
	return s.ledger
}

// Listen starts the HTTP server.
func (s *Server) Listen() error {
	return s.app.Listen(s.cfg.Address())
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
