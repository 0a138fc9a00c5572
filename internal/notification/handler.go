package notification

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes the inbox over HTTP.
type Handler struct {
	inbox *Inbox
}

// NewHandler builds a notification HTTP handler.
func NewHandler(inbox *Inbox) *Handler {
	return &Handler{inbox: inbox}
}

// List returns the notifications with the unread count.
func (h *Handler) List(c *fiber.Ctx) error {
	items, err := h.inbox.List(c.UserContext())
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	unread := 0
	for _, n := range items {
		if !n.Read {
			unread++
		}
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"notifications": items,
		"unread":        unread,
	})
}

func (h *Handler) MarkRead(c *fiber.Ctx) error {
	err := h.inbox.MarkRead(c.UserContext(), c.Params("id"))
	switch {
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case err != nil:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.SendStatus(http.StatusNoContent)
}

func (h *Handler) MarkAllRead(c *fiber.Ctx) error {
	if err := h.inbox.MarkAllRead(c.UserContext()); err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.SendStatus(http.StatusNoContent)
}
