package goals

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zimsave/zimsave_plus/internal/ledger"
	"github.com/zimsave/zimsave_plus/internal/logging"
	"github.com/zimsave/zimsave_plus/internal/notification"
	"github.com/zimsave/zimsave_plus/internal/store"
)

func amt(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newService(t *testing.T, balance string) (*Service, *ledger.Ledger, *notification.Inbox) {
	t.Helper()
	mem := store.NewMemory()
	led := ledger.New(mem, logging.Discard())
	require.NoError(t, led.Load(context.Background()))
	ledger.SeedBalance(led, amt(balance))
	inbox := notification.NewInbox(mem, logging.Discard())
	return NewService(led, inbox, logging.Discard()), led, inbox
}

func TestFundLaptopGoal(t *testing.T) {
	svc, led, _ := newService(t, "100")
	ctx := context.Background()

	g, err := svc.Create(ctx, CreateInput{Name: "Laptop", Emoji: "💻", TargetAmount: amt("300")})
	require.NoError(t, err)

	g, tx, err := svc.Fund(ctx, g.ID, amt("50"))
	require.NoError(t, err)
	assert.True(t, g.CurrentAmount.Equal(amt("50")))
	assert.Equal(t, g.ID, tx.GoalID)
	assert.True(t, led.Balance().Equal(amt("50")))
}

func TestFundValidation(t *testing.T) {
	svc, led, _ := newService(t, "40")
	ctx := context.Background()
	g, err := svc.Create(ctx, CreateInput{Name: "Fees", TargetAmount: amt("30")})
	require.NoError(t, err)

	_, _, err = svc.Fund(ctx, g.ID, amt("0"))
	assert.ErrorIs(t, err, ledger.ErrInvalidAmount)
	_, _, err = svc.Fund(ctx, "missing", amt("1"))
	assert.ErrorIs(t, err, ledger.ErrGoalNotFound)
	_, _, err = svc.Fund(ctx, g.ID, amt("41"))
	assert.ErrorIs(t, err, ledger.ErrInsufficientFunds)

	_, _, err = svc.Fund(ctx, g.ID, amt("35"))
	var exceeds *ledger.ExceedsGoalError
	require.True(t, errors.As(err, &exceeds))
	assert.True(t, exceeds.Remaining.Equal(amt("30")))
	assert.True(t, led.Balance().Equal(amt("40")))

	_, err = svc.Create(ctx, CreateInput{Name: "", TargetAmount: amt("1")})
	assert.ErrorIs(t, err, ledger.ErrInvalidGoal)
}

func TestFundAchievedGoal(t *testing.T) {
	svc, _, inbox := newService(t, "100")
	ctx := context.Background()
	g, err := svc.Create(ctx, CreateInput{Name: "Phone", TargetAmount: amt("20")})
	require.NoError(t, err)

	g, _, err = svc.Fund(ctx, g.ID, amt("20"))
	require.NoError(t, err)
	assert.True(t, g.Achieved())

	items, _ := inbox.List(ctx)
	require.NotEmpty(t, items)
	assert.Equal(t, "Goal Achieved!", items[0].Title)

	_, _, err = svc.Fund(ctx, g.ID, amt("1"))
	assert.ErrorIs(t, err, ErrGoalAchieved)
}

func TestHandlerOverFunding(t *testing.T) {
	svc, _, _ := newService(t, "100")
	h := NewHandler(svc)
	app := fiber.New()
	app.Get("/goals", h.List)
	app.Post("/goals", h.Create)
	app.Post("/goals/:goalId/contributions", h.Fund)

	post := func(path, body string) *http.Response {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp
	}

	resp := post("/goals", `{"name":"Bicycle","targetAmount":60}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var g struct {
		ID        string          `json:"id"`
		Remaining decimal.Decimal `json:"remaining"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&g))
	assert.True(t, g.Remaining.Equal(amt("60")))

	resp = post("/goals/"+g.ID+"/contributions", `{"amount":75}`)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	var body struct {
		Remaining decimal.Decimal `json:"remaining"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body.Remaining.Equal(amt("60")))

	resp = post("/goals/"+g.ID+"/contributions", `{"amount":60}`)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = post("/goals/"+g.ID+"/contributions", `{"amount":1}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = post("/goals", `{"name":"Bicycle","targetAmount":0}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
