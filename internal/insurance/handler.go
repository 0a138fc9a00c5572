package insurance

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/zimsave/zimsave_plus/internal/ledger"
)

// Handler exposes the micro-insurance marketplace.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type activateRequest struct {
	PolicyID string `json:"policyId"`
}

// Policies lists the catalog and marks the active policy.
func (h *Handler) Policies(c *fiber.Ctx) error {
	active, ok, err := h.service.Active(c.UserContext())
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	activeID := ""
	if ok {
		activeID = active.ID
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"policies": Catalog(),
		"activeId": activeID,
	})
}

func (h *Handler) Active(c *fiber.Ctx) error {
	p, ok, err := h.service.Active(c.UserContext())
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	if !ok {
		return fiber.NewError(http.StatusNotFound, ErrNoActivePolicy.Error())
	}
	return c.Status(http.StatusOK).JSON(p)
}

// Activate buys a policy, charging the first premium from the wallet.
func (h *Handler) Activate(c *fiber.Ctx) error {
	var req activateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	p, tx, err := h.service.Activate(c.UserContext(), req.PolicyID)
	switch {
	case errors.Is(err, ErrUnknownPolicy):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrAlreadyActive):
		return fiber.NewError(http.StatusConflict, err.Error())
	case err != nil:
		return fiber.NewError(ledger.StatusCode(err), err.Error())
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"policy":      p,
		"transaction": tx,
	})
}

func (h *Handler) Cancel(c *fiber.Ctx) error {
	_, err := h.service.Cancel(c.UserContext())
	switch {
	case errors.Is(err, ErrNoActivePolicy):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case err != nil:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.SendStatus(http.StatusNoContent)
}
