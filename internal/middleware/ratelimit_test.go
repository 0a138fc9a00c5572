package middleware

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zimsave/zimsave_plus/internal/identity"
	"github.com/zimsave/zimsave_plus/internal/logging"
	"github.com/zimsave/zimsave_plus/internal/store"
)

func hit(t *testing.T, app *fiber.App, method, path string) int {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(method, path, nil))
	require.NoError(t, err)
	resp.Body.Close()
	return resp.StatusCode
}

func TestRateLimitRejectsAboveLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { cache.Close() })

	app := fiber.New()
	app.Use(RateLimit(cache, "chat", 3, logging.Discard()))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	for i := 0; i < 3; i++ {
		assert.Equal(t, fiber.StatusOK, hit(t, app, fiber.MethodGet, "/"))
	}
	assert.Equal(t, fiber.StatusTooManyRequests, hit(t, app, fiber.MethodGet, "/"))

	mr.FastForward(61 * time.Second)
	assert.Equal(t, fiber.StatusOK, hit(t, app, fiber.MethodGet, "/"))
}

func TestRateLimitWithoutCache(t *testing.T) {
	app := fiber.New()
	app.Use(RateLimit(nil, "chat", 1, logging.Discard()))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	for i := 0; i < 5; i++ {
		assert.Equal(t, fiber.StatusOK, hit(t, app, fiber.MethodGet, "/"))
	}
}

func TestRateLimitFailsOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { cache.Close() })
	mr.Close()

	app := fiber.New()
	app.Use(RateLimit(cache, "chat", 1, logging.Discard()))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	assert.Equal(t, fiber.StatusOK, hit(t, app, fiber.MethodGet, "/"))
	assert.Equal(t, fiber.StatusOK, hit(t, app, fiber.MethodGet, "/"))
}

func TestRequireProfile(t *testing.T) {
	ids := identity.NewService(store.NewMemory(), logging.Discard())

	app := fiber.New()
	app.Use(RequestID())
	app.Use(RequireProfile(ids))
	app.Get("/", func(c *fiber.Ctx) error {
		p, ok := ProfileFrom(c)
		if !ok {
			return fiber.ErrInternalServerError
		}
		return c.SendString(p.Name)
	})

	assert.Equal(t, fiber.StatusUnauthorized, hit(t, app, fiber.MethodGet, "/"))

	_, err := ids.Signup(context.Background(), identity.SignupInput{Name: "Tariro", Phone: "0771234567"})
	require.NoError(t, err)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderXRequestID))
}

func TestRateLimitWindowAlwaysExpires(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { cache.Close() })

	app := fiber.New()
	app.Use(RateLimit(cache, "chat", 1, logging.Discard()))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	assert.Equal(t, fiber.StatusOK, hit(t, app, fiber.MethodGet, "/"))
	keys := mr.Keys()
	require.Len(t, keys, 1)
	key := keys[0]
	assert.Equal(t, time.Minute, mr.TTL(key))

	// a counter stranded without a TTL is given one on the next hit
	require.NoError(t, cache.Persist(context.Background(), key).Err())
	require.Zero(t, mr.TTL(key))
	assert.Equal(t, fiber.StatusTooManyRequests, hit(t, app, fiber.MethodGet, "/"))
	assert.Equal(t, time.Minute, mr.TTL(key))

	// later hits never push the window out
	mr.FastForward(30 * time.Second)
	assert.Equal(t, fiber.StatusTooManyRequests, hit(t, app, fiber.MethodGet, "/"))
	assert.Equal(t, 30*time.Second, mr.TTL(key))
}
