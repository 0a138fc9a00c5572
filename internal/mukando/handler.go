package mukando

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/zimsave/zimsave_plus/internal/advisory"
	"github.com/zimsave/zimsave_plus/internal/ledger"
)

// Handler exposes Mukando group endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a Mukando HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type createRequest struct {
	Name                  string           `json:"name"`
	Description           string           `json:"description"`
	UpcomingNeeds         string           `json:"upcomingNeeds"`
	ContributionAmount    decimal.Decimal  `json:"contributionAmount"`
	ContributionFrequency string           `json:"contributionFrequency"`
	TargetPool            *decimal.Decimal `json:"targetPool"`
}

type amountRequest struct {
	Amount *decimal.Decimal `json:"amount"`
}

type groupResponse struct {
	ledger.MukandoGroup
	Progress decimal.Decimal `json:"progress"`
}

func present(g ledger.MukandoGroup) groupResponse {
	return groupResponse{MukandoGroup: g, Progress: g.Progress().Round(2)}
}

// List returns every group, newest first.
func (h *Handler) List(c *fiber.Ctx) error {
	groups := h.service.List(c.UserContext())
	out := make([]groupResponse, 0, len(groups))
	for _, g := range groups {
		out = append(out, present(g))
	}
	return c.Status(http.StatusOK).JSON(out)
}

func (h *Handler) Get(c *fiber.Ctx) error {
	g, err := h.service.Get(c.UserContext(), c.Params("groupId"))
	if err != nil {
		return toHTTP(err)
	}
	return c.Status(http.StatusOK).JSON(present(g))
}

// Create starts a new group.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	g, err := h.service.Create(c.UserContext(), CreateInput{
		Name:                  req.Name,
		Description:           req.Description,
		UpcomingNeeds:         req.UpcomingNeeds,
		ContributionAmount:    req.ContributionAmount,
		ContributionFrequency: req.ContributionFrequency,
		TargetPool:            req.TargetPool,
	})
	if err != nil {
		return toHTTP(err)
	}
	return c.Status(http.StatusCreated).JSON(present(g))
}

// TrackContribution records a contribution; an empty body records the
// standard amount.
func (h *Handler) TrackContribution(c *fiber.Ctx) error {
	var req amountRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
	}
	g, err := h.service.TrackContribution(c.UserContext(), c.Params("groupId"), req.Amount)
	if err != nil {
		return toHTTP(err)
	}
	return c.Status(http.StatusOK).JSON(present(g))
}

// RequestLoan moves funds from the pool into the wallet.
func (h *Handler) RequestLoan(c *fiber.Ctx) error {
	var req amountRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.Amount == nil {
		return fiber.NewError(http.StatusBadRequest, ledger.ErrInvalidAmount.Error())
	}
	g, tx, err := h.service.RequestLoan(c.UserContext(), c.Params("groupId"), *req.Amount)
	if err != nil {
		return toHTTP(err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"group":       present(g),
		"transaction": tx,
	})
}

// Summary returns the advisory summary of a group.
func (h *Handler) Summary(c *fiber.Ctx) error {
	resp, err := h.service.Summary(c.UserContext(), c.Params("groupId"))
	if err != nil {
		return toHTTP(err)
	}
	return c.Status(http.StatusOK).JSON(resp)
}

func toHTTP(err error) error {
	if errors.Is(err, advisory.ErrUnavailable) || errors.Is(err, advisory.ErrUpstream) {
		return fiber.NewError(http.StatusBadGateway, "Could not generate summary. Please try again.")
	}
	return fiber.NewError(ledger.StatusCode(err), err.Error())
}
