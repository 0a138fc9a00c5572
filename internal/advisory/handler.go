package advisory

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/zimsave/zimsave_plus/internal/notification"
)

// Handler serves the financial health chat.
type Handler struct {
	advisor  Advisor
	notifier notification.Notifier
	logger   *slog.Logger
}

// NewHandler builds a chat HTTP handler.
func NewHandler(advisor Advisor, notifier notification.Notifier, logger *slog.Logger) *Handler {
	if notifier == nil {
		notifier = notification.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{advisor: advisor, notifier: notifier, logger: logger}
}

// Chat forwards one user message to the advisor.
func (h *Handler) Chat(c *fiber.Ctx) error {
	var req ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.Language == "" {
		req.Language = English
	}
	if err := req.Validate(); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	resp, err := h.advisor.Chat(c.UserContext(), req)
	if err != nil {
		h.logger.Warn("advisory chat failed", "error", err)
		h.notify(c.UserContext(), notification.Message{
			Kind:  notification.KindError,
			Title: "Chatbot Error",
			Body:  "Could not get a response from the assistant. Please try again.",
		})
		return fiber.NewError(http.StatusBadGateway, FallbackMessage)
	}
	return c.Status(http.StatusOK).JSON(resp)
}

func (h *Handler) notify(ctx context.Context, msg notification.Message) {
	if err := h.notifier.Send(ctx, msg); err != nil {
		h.logger.Warn("chat notification failed", "error", err)
	}
}
