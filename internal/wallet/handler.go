package wallet

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/zimsave/zimsave_plus/internal/ledger"
)

// Handler exposes wallet HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a wallet HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type depositRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type transferRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	Recipient string          `json:"recipient"`
	Purpose   string          `json:"purpose"`
}

type transactionResponse struct {
	Transaction ledger.Transaction `json:"transaction"`
	Balance     decimal.Decimal    `json:"balance"`
}

// Get returns the wallet balance and history.
func (h *Handler) Get(c *fiber.Ctx) error {
	return c.Status(http.StatusOK).JSON(h.service.Get(c.UserContext()))
}

// Deposit tops up the wallet.
func (h *Handler) Deposit(c *fiber.Ctx) error {
	var req depositRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	tx, err := h.service.AddFunds(c.UserContext(), req.Amount)
	if err != nil {
		return toHTTP(err)
	}
	return c.Status(http.StatusCreated).JSON(transactionResponse{
		Transaction: tx,
		Balance:     h.service.Get(c.UserContext()).Balance,
	})
}

// Transfer sends funds out of the wallet.
func (h *Handler) Transfer(c *fiber.Ctx) error {
	var req transferRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	tx, err := h.service.Transfer(c.UserContext(), TransferInput{
		Amount:    req.Amount,
		Recipient: req.Recipient,
		Purpose:   req.Purpose,
	})
	if err != nil {
		return toHTTP(err)
	}
	return c.Status(http.StatusCreated).JSON(transactionResponse{
		Transaction: tx,
		Balance:     h.service.Get(c.UserContext()).Balance,
	})
}

// Verify reports whether the balance matches the replayed history.
func (h *Handler) Verify(c *fiber.Ctx) error {
	return c.Status(http.StatusOK).JSON(h.service.Verify(c.UserContext()))
}

func toHTTP(err error) error {
	if errors.Is(err, ErrMissingPurpose) {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return fiber.NewError(ledger.StatusCode(err), err.Error())
}
