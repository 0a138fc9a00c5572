package notification

import (
	"context"
	"log/slog"
)

// Notification kinds shown in the inbox.
const (
	KindGroupInvite = "group_invite"
	KindSuccess     = "success"
	KindWarning     = "warning"
	KindInfo        = "info"
	KindError       = "error"
)

// Message describes a notification payload.
type Message struct {
	Kind  string
	Title string
	Body  string
}

// Notifier delivers notifications to downstream systems.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// LoggerNotifier writes notifications to the logger.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the message to the structured logger.
func (n *LoggerNotifier) Send(_ context.Context, message Message) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.Info("notification", "kind", message.Kind, "title", message.Title, "body", message.Body)
	return nil
}

// Multi fans a message out to several notifiers. A failing notifier is logged
// and does not stop the others; Send itself never fails.
type Multi struct {
	notifiers []Notifier
	logger    *slog.Logger
}

// NewMulti combines notifiers, skipping nil entries.
func NewMulti(logger *slog.Logger, notifiers ...Notifier) *Multi {
	m := &Multi{logger: logger}
	for _, n := range notifiers {
		if n != nil {
			m.notifiers = append(m.notifiers, n)
		}
	}
	return m
}

func (m *Multi) Send(ctx context.Context, message Message) error {
	for _, n := range m.notifiers {
		if err := n.Send(ctx, message); err != nil && m.logger != nil {
			m.logger.Warn("notification delivery failed", "kind", message.Kind, "error", err)
		}
	}
	return nil
}

// Nop discards every message.
type Nop struct{}

func (Nop) Send(context.Context, Message) error { return nil }
