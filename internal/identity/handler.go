package identity

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes identity endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs an identity HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type signupRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type loginRequest struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Signup handles user onboarding.
func (h *Handler) Signup(c *fiber.Ctx) error {
	var req signupRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	p, err := h.service.Signup(c.UserContext(), SignupInput{Name: req.Name, Email: req.Email, Phone: req.Phone})
	if err != nil {
		return toHTTP(err)
	}
	return c.Status(http.StatusCreated).JSON(p)
}

// Login signs a returning user in.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	p, err := h.service.Login(c.UserContext(), Credentials{Email: req.Email, Phone: req.Phone})
	if err != nil {
		return toHTTP(err)
	}
	return c.Status(http.StatusOK).JSON(p)
}

func (h *Handler) Logout(c *fiber.Ctx) error {
	if err := h.service.Logout(c.UserContext()); err != nil {
		return toHTTP(err)
	}
	return c.SendStatus(http.StatusNoContent)
}

// Me returns the signed-in profile.
func (h *Handler) Me(c *fiber.Ctx) error {
	p, err := h.service.Current(c.UserContext())
	if err != nil {
		return toHTTP(err)
	}
	return c.Status(http.StatusOK).JSON(p)
}

func toHTTP(err error) error {
	switch {
	case errors.Is(err, ErrNameRequired), errors.Is(err, ErrContactRequired):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNoProfile):
		return fiber.NewError(http.StatusUnauthorized, err.Error())
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}
