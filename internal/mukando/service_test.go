package mukando

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

	"github.com/zimsave/zimsave_plus/internal/advisory"
	"github.com/zimsave/zimsave_plus/internal/ledger"
	"github.com/zimsave/zimsave_plus/internal/logging"
	"github.com/zimsave/zimsave_plus/internal/notification"
	"github.com/zimsave/zimsave_plus/internal/store"
)

type stubAdvisor struct {
	got     advisory.SummaryRequest
	summary string
	err     error
}

func (s *stubAdvisor) Chat(context.Context, advisory.ChatRequest) (advisory.ChatResponse, error) {
	return advisory.ChatResponse{}, errors.New("not used")
}

func (s *stubAdvisor) SummarizeGroup(_ context.Context, req advisory.SummaryRequest) (advisory.SummaryResponse, error) {
	s.got = req
	return advisory.SummaryResponse{Summary: s.summary}, s.err
}

type fixture struct {
	svc     *Service
	ledger  *ledger.Ledger
	inbox   *notification.Inbox
	advisor *stubAdvisor
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	mem := store.NewMemory()
	led := ledger.New(mem, logging.Discard())
	require.NoError(t, led.Load(context.Background()))
	inbox := notification.NewInbox(mem, logging.Discard())
	adv := &stubAdvisor{summary: "The group is on track."}
	return fixture{
		svc:     NewService(led, adv, inbox, logging.Discard()),
		ledger:  led,
		inbox:   inbox,
		advisor: adv,
	}
}

func amt(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	zero := decimal.Zero

	for name, in := range map[string]CreateInput{
		"no name":        {Name: " ", ContributionAmount: amt("5")},
		"no amount":      {Name: "Family"},
		"bad frequency":  {Name: "Family", ContributionAmount: amt("5"), ContributionFrequency: "daily"},
		"zero target":    {Name: "Family", ContributionAmount: amt("5"), TargetPool: &zero},
		"negative input": {Name: "Family", ContributionAmount: amt("-5")},
	} {
		_, err := f.svc.Create(ctx, in)
		assert.ErrorIs(t, err, ledger.ErrInvalidGroup, name)
	}
	assert.Empty(t, f.svc.List(ctx))

	g, err := f.svc.Create(ctx, CreateInput{Name: "Family", ContributionAmount: amt("10"), ContributionFrequency: "Bi-Weekly"})
	require.NoError(t, err)
	assert.Equal(t, ledger.FrequencyBiWeekly, g.ContributionFrequency)
	assert.Equal(t, 1, g.Members)
}

func TestTrackContributionDefaultsToStandardAmount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g, err := f.svc.Create(ctx, CreateInput{Name: "Family", ContributionAmount: amt("10")})
	require.NoError(t, err)

	g, err = f.svc.TrackContribution(ctx, g.ID, nil)
	require.NoError(t, err)
	assert.True(t, g.CurrentPool.Equal(amt("10")))

	custom := amt("2.5")
	g, err = f.svc.TrackContribution(ctx, g.ID, &custom)
	require.NoError(t, err)
	assert.True(t, g.CurrentPool.Equal(amt("12.5")))
	assert.True(t, f.ledger.Balance().IsZero())

	_, err = f.svc.TrackContribution(ctx, "missing", nil)
	assert.ErrorIs(t, err, ledger.ErrGroupNotFound)

	items, _ := f.inbox.List(ctx)
	assert.Equal(t, "Contribution Tracked", items[0].Title)
}

func TestRequestLoan(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ledger.SeedBalance(f.ledger, amt("30.50"))
	ledger.SeedGroup(f.ledger, ledger.MukandoGroup{
		ID: "g1", Name: "Family", ContributionAmount: amt("10"),
		ContributionFrequency: ledger.FrequencyWeekly, Members: 4, CurrentPool: amt("50"),
	})

	_, _, err := f.svc.RequestLoan(ctx, "g1", amt("60"))
	assert.ErrorIs(t, err, ledger.ErrInsufficientPool)
	_, _, err = f.svc.RequestLoan(ctx, "g1", amt("0"))
	assert.ErrorIs(t, err, ledger.ErrInvalidAmount)

	g, tx, err := f.svc.RequestLoan(ctx, "g1", amt("15"))
	require.NoError(t, err)
	assert.True(t, g.CurrentPool.Equal(amt("35")))
	assert.True(t, g.ActiveLoanAmount.Equal(amt("15")))
	assert.Equal(t, "Loan from Family", tx.Description)
	assert.True(t, f.ledger.Balance().Equal(amt("45.50")))
}

func TestSummary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g, err := f.svc.Create(ctx, CreateInput{Name: "Family", ContributionAmount: amt("10"), ContributionFrequency: "monthly"})
	require.NoError(t, err)

	resp, err := f.svc.Summary(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, "The group is on track.", resp.Summary)
	assert.Equal(t, "Not specified", f.advisor.got.UpcomingNeeds)
	assert.Equal(t, 10.0, f.advisor.got.ContributionAmount)
	assert.Equal(t, "monthly", f.advisor.got.ContributionFrequency)

	before := f.ledger.Snapshot()
	f.advisor.err = advisory.ErrUpstream
	_, err = f.svc.Summary(ctx, g.ID)
	assert.ErrorIs(t, err, advisory.ErrUpstream)
	assert.Equal(t, before, f.ledger.Snapshot())

	items, _ := f.inbox.List(ctx)
	assert.Equal(t, notification.KindError, items[0].Type)
}

func TestHandlerFlow(t *testing.T) {
	f := newFixture(t)
	h := NewHandler(f.svc)
	app := fiber.New()
	app.Get("/groups", h.List)
	app.Post("/groups", h.Create)
	app.Get("/groups/:groupId", h.Get)
	app.Post("/groups/:groupId/contributions", h.TrackContribution)
	app.Post("/groups/:groupId/loans", h.RequestLoan)
	app.Get("/groups/:groupId/summary", h.Summary)

	do := func(method, path, body string) *http.Response {
		var req *http.Request
		if body == "" {
			req = httptest.NewRequest(method, path, nil)
		} else {
			req = httptest.NewRequest(method, path, strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp
	}

	resp := do(http.MethodPost, "/groups", `{"name":"Family","contributionAmount":25,"targetPool":200}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created struct {
		ID       string          `json:"id"`
		Progress decimal.Decimal `json:"progress"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))

	resp = do(http.MethodPost, "/groups/"+created.ID+"/contributions", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.True(t, created.Progress.Equal(amt("12.5")))

	resp = do(http.MethodPost, "/groups/"+created.ID+"/loans", `{"amount":30}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = do(http.MethodPost, "/groups/"+created.ID+"/loans", `{"amount":20}`)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.True(t, f.ledger.Balance().Equal(amt("20")))

	resp = do(http.MethodGet, "/groups/missing", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	f.advisor.err = advisory.ErrUnavailable
	resp = do(http.MethodGet, "/groups/"+created.ID+"/summary", "")
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

	resp = do(http.MethodGet, "/groups", "")
	var list []json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	assert.Len(t, list, 1)
}
