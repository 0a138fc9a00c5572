package goals

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/zimsave/zimsave_plus/internal/ledger"
)

// Handler exposes savings-goal endpoints.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type createRequest struct {
	Name         string          `json:"name"`
	Emoji        string          `json:"emoji"`
	TargetAmount decimal.Decimal `json:"targetAmount"`
}

type fundRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type goalResponse struct {
	ledger.SavingsGoal
	Remaining decimal.Decimal `json:"remaining"`
	Achieved  bool            `json:"achieved"`
}

func present(g ledger.SavingsGoal) goalResponse {
	return goalResponse{SavingsGoal: g, Remaining: g.Remaining(), Achieved: g.Achieved()}
}

func (h *Handler) List(c *fiber.Ctx) error {
	goals := h.service.List(c.UserContext())
	out := make([]goalResponse, 0, len(goals))
	for _, g := range goals {
		out = append(out, present(g))
	}
	return c.Status(http.StatusOK).JSON(out)
}

func (h *Handler) Create(c *fiber.Ctx) error {
	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	g, err := h.service.Create(c.UserContext(), CreateInput{Name: req.Name, Emoji: req.Emoji, TargetAmount: req.TargetAmount})
	if err != nil {
		return fiber.NewError(ledger.StatusCode(err), err.Error())
	}
	return c.Status(http.StatusCreated).JSON(present(g))
}

// Fund moves wallet funds into a goal. Over-funding answers 422 with the
// amount that can still be added so the client can resubmit.
func (h *Handler) Fund(c *fiber.Ctx) error {
	var req fundRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	g, tx, err := h.service.Fund(c.UserContext(), c.Params("goalId"), req.Amount)
	var exceeds *ledger.ExceedsGoalError
	switch {
	case errors.As(err, &exceeds):
		return c.Status(http.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":     err.Error(),
			"remaining": exceeds.Remaining,
		})
	case errors.Is(err, ErrGoalAchieved):
		return fiber.NewError(http.StatusConflict, err.Error())
	case err != nil:
		return fiber.NewError(ledger.StatusCode(err), err.Error())
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"goal":        present(g),
		"transaction": tx,
	})
}
