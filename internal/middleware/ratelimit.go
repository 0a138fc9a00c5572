package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// RateLimit caps requests per client IP to perMinute. The window opens with
// the first request and lasts one minute, counted in Redis under bucket. It
// is a no-op without Redis and fails open when Redis errors.
func RateLimit(cache *redis.Client, bucket string, perMinute int, logger *slog.Logger) fiber.Handler {
	if perMinute <= 0 {
		perMinute = 20
	}
	return func(c *fiber.Ctx) error {
		if cache == nil {
			return c.Next()
		}
		key := "rl:" + bucket + ":" + c.IP()

		ctx := c.UserContext()
		var incr *redis.IntCmd
		_, err := cache.TxPipelined(ctx, func(p redis.Pipeliner) error {
			incr = p.Incr(ctx, key)
			// NX keeps the window anchored to the first request and still
			// repairs a counter left without a TTL.
			p.ExpireNX(ctx, key, time.Minute)
			return nil
		})
		if err != nil {
			logger.Warn("rate limit unavailable", "bucket", bucket, "error", err)
			return c.Next()
		}
		if incr.Val() > int64(perMinute) {
			c.Set(fiber.HeaderRetryAfter, "60")
			return fiber.NewError(http.StatusTooManyRequests, "too many requests, try again later")
		}
		return c.Next()
	}
}
