package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zimsave/zimsave_plus/internal/store"
)

// KeyInbox is the storage key of the persisted inbox.
const KeyInbox = "zimsave_notifications_v1"

// MaxInbox bounds how many notifications are kept.
const MaxInbox = 100

// ErrNotFound is returned when a notification id is unknown.
var ErrNotFound = errors.New("notification not found")

// Notification is an inbox entry.
type Notification struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Read      bool      `json:"read"`
}

// Inbox keeps notifications in a store, newest first.
type Inbox struct {
	mu     sync.Mutex
	store  store.Store
	logger *slog.Logger
	now    func() time.Time
}

// NewInbox builds an inbox over st.
func NewInbox(st store.Store, logger *slog.Logger) *Inbox {
	return &Inbox{
		store:  st,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

// Send records message as an unread notification.
func (i *Inbox) Send(ctx context.Context, message Message) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	items, err := i.load(ctx)
	if err != nil {
		return err
	}
	kind := message.Kind
	if kind == "" {
		kind = KindInfo
	}
	n := Notification{
		ID:        uuid.NewString(),
		Type:      kind,
		Title:     message.Title,
		Message:   message.Body,
		Timestamp: i.now(),
	}
	items = append([]Notification{n}, items...)
	if len(items) > MaxInbox {
		items = items[:MaxInbox]
	}
	return i.save(ctx, items)
}

// List returns the inbox, newest first.
func (i *Inbox) List(ctx context.Context) ([]Notification, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.load(ctx)
}

// UnreadCount returns how many notifications have not been read.
func (i *Inbox) UnreadCount(ctx context.Context) (int, error) {
	items, err := i.List(ctx)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, n := range items {
		if !n.Read {
			count++
		}
	}
	return count, nil
}

// MarkRead flags one notification as read.
func (i *Inbox) MarkRead(ctx context.Context, id string) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	items, err := i.load(ctx)
	if err != nil {
		return err
	}
	for idx := range items {
		if items[idx].ID == id {
			if items[idx].Read {
				return nil
			}
			items[idx].Read = true
			return i.save(ctx, items)
		}
	}
	return ErrNotFound
}

// MarkAllRead flags every notification as read.
func (i *Inbox) MarkAllRead(ctx context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	items, err := i.load(ctx)
	if err != nil {
		return err
	}
	for idx := range items {
		items[idx].Read = true
	}
	return i.save(ctx, items)
}

func (i *Inbox) load(ctx context.Context) ([]Notification, error) {
	raw, ok, err := i.store.Get(ctx, KeyInbox)
	if err != nil {
		return nil, fmt.Errorf("read inbox: %w", err)
	}
	items := []Notification{}
	if !ok {
		return items, nil
	}
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		i.logger.Warn("discarding malformed inbox", "error", err)
		return []Notification{}, nil
	}
	if items == nil {
		items = []Notification{}
	}
	return items, nil
}

func (i *Inbox) save(ctx context.Context, items []Notification) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode inbox: %w", err)
	}
	if err := i.store.Set(ctx, KeyInbox, string(raw)); err != nil {
		return fmt.Errorf("write inbox: %w", err)
	}
	return nil
}
