package middleware

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/zimsave/zimsave_plus/internal/logging"
)

type counters struct {
	created  int
	rejected int
	failed   int
}

func setupTestApp(t *testing.T) (*fiber.App, *counters, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		cache.Close()
		mr.Close()
	})

	hits := &counters{}
	app := fiber.New()
	app.Use(Idempotency(cache, time.Minute, "test:", logging.Discard()))
	app.Post("/resource", func(c *fiber.Ctx) error {
		hits.created++
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"n": hits.created})
	})
	app.Post("/rejected", func(c *fiber.Ctx) error {
		hits.rejected++
		return fiber.NewError(fiber.StatusConflict, "insufficient funds")
	})
	app.Post("/broken", func(c *fiber.Ctx) error {
		hits.failed++
		return fiber.NewError(fiber.StatusInternalServerError, "boom")
	})
	return app, hits, mr
}

func send(t *testing.T, app *fiber.App, path, key string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, path, strings.NewReader("{}"))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if key != "" {
		req.Header.Set(idempotencyKeyHeader, key)
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, string(body)
}

func TestIdempotencyWithoutHeaderPassesThrough(t *testing.T) {
	app, hits, _ := setupTestApp(t)

	for i := 0; i < 2; i++ {
		if status, _ := send(t, app, "/resource", ""); status != fiber.StatusCreated {
			t.Fatalf("expected %d got %d", fiber.StatusCreated, status)
		}
	}
	if hits.created != 2 {
		t.Fatalf("expected handler to run twice, ran %d", hits.created)
	}
}

func TestIdempotencyReturnsCachedResponse(t *testing.T) {
	app, hits, _ := setupTestApp(t)

	status, payload := send(t, app, "/resource", "abc123")
	if status != fiber.StatusCreated {
		t.Fatalf("expected status %d got %d", fiber.StatusCreated, status)
	}

	// Second request should return the cached response without invoking handler again.
	status, cached := send(t, app, "/resource", "abc123")
	if status != fiber.StatusCreated {
		t.Fatalf("expected cached status %d got %d", fiber.StatusCreated, status)
	}
	if cached != payload {
		t.Fatalf("expected cached payload %s got %s", payload, cached)
	}
	if hits.created != 1 {
		t.Fatalf("expected one handler call, got %d", hits.created)
	}

	var decoded map[string]any
	if err := json.Unmarshal([]byte(cached), &decoded); err != nil {
		t.Fatalf("cached payload invalid json: %v", err)
	}
}

func TestIdempotencyRejectsInFlightDuplicate(t *testing.T) {
	app, hits, mr := setupTestApp(t)
	if err := mr.Set(idempotencyPrefix+"test:/resource:busy", inProgressMarker); err != nil {
		t.Fatal(err)
	}

	if status, _ := send(t, app, "/resource", "busy"); status != fiber.StatusConflict {
		t.Fatalf("expected %d got %d", fiber.StatusConflict, status)
	}
	if hits.created != 0 {
		t.Fatalf("handler should not run for an in-flight key")
	}
}

func TestIdempotencyStoresRejections(t *testing.T) {
	app, hits, _ := setupTestApp(t)

	for i := 0; i < 2; i++ {
		status, body := send(t, app, "/rejected", "k1")
		if status != fiber.StatusConflict {
			t.Fatalf("attempt %d: expected %d got %d", i, fiber.StatusConflict, status)
		}
		if i == 1 && !strings.Contains(body, "insufficient funds") {
			t.Fatalf("replayed body missing message: %s", body)
		}
	}
	if hits.rejected != 1 {
		t.Fatalf("expected one handler call, got %d", hits.rejected)
	}
}

func TestIdempotencyReleasesServerErrors(t *testing.T) {
	app, hits, _ := setupTestApp(t)

	send(t, app, "/broken", "k2")
	send(t, app, "/broken", "k2")
	if hits.failed != 2 {
		t.Fatalf("server errors should be retried, handler ran %d times", hits.failed)
	}
}

func TestIdempotencyKeysArePerPath(t *testing.T) {
	app, hits, _ := setupTestApp(t)

	send(t, app, "/resource", "same")
	send(t, app, "/rejected", "same")
	if hits.created != 1 || hits.rejected != 1 {
		t.Fatalf("expected both handlers to run once, got %+v", *hits)
	}
}
