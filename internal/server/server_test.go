package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zimsave/zimsave_plus/internal/config"
	"github.com/zimsave/zimsave_plus/internal/logging"
	"github.com/zimsave/zimsave_plus/internal/store"
)

func TestErrorsRenderAsJSON(t *testing.T) {
	cfg := config.Config{AppName: "test", StoreBackend: config.BackendMemory}
	srv, err := New(context.Background(), cfg, store.NewMemory(), nil, nil, logging.Discard())
	require.NoError(t, err)
	require.True(t, srv.Ledger().Loaded())

	resp, err := srv.App().Test(httptest.NewRequest(fiber.MethodGet, "/api/v1/wallet", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var body map[string]string
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, "sign in required", body["error"])
}

func TestNewRequiresStore(t *testing.T) {
	_, err := New(context.Background(), config.Config{}, nil, nil, nil, logging.Discard())
	assert.Error(t, err)
}
