package insurance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/zimsave/zimsave_plus/internal/ledger"
	"github.com/zimsave/zimsave_plus/internal/notification"
	"github.com/zimsave/zimsave_plus/internal/store"
)

// KeyActivePolicy stores the policy currently in force.
const KeyActivePolicy = "zimsave_active_health_policy"

var (
	ErrUnknownPolicy  = errors.New("unknown insurance policy")
	ErrAlreadyActive  = errors.New("policy already active")
	ErrNoActivePolicy = errors.New("no active policy")
)

// Service manages the single active policy of a profile.
type Service struct {
	mu       sync.Mutex
	store    store.Store
	ledger   *ledger.Ledger
	notifier notification.Notifier
	logger   *slog.Logger
}

func NewService(st store.Store, l *ledger.Ledger, notifier notification.Notifier, logger *slog.Logger) *Service {
	if notifier == nil {
		notifier = notification.Nop{}
	}
	return &Service{store: st, ledger: l, notifier: notifier, logger: logger}
}

// Active returns the policy in force. A stored policy that is malformed or no
// longer offered is dropped.
func (s *Service) Active(ctx context.Context) (Policy, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active(ctx)
}

func (s *Service) active(ctx context.Context) (Policy, bool, error) {
	raw, ok, err := s.store.Get(ctx, KeyActivePolicy)
	if err != nil {
		return Policy{}, false, fmt.Errorf("read active policy: %w", err)
	}
	if !ok {
		return Policy{}, false, nil
	}
	var stored Policy
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		s.logger.Warn("discarding malformed active policy", "error", err)
		return Policy{}, false, s.drop(ctx)
	}
	p, known := Lookup(stored.ID)
	if !known {
		s.logger.Warn("discarding retired active policy", "policy_id", stored.ID)
		return Policy{}, false, s.drop(ctx)
	}
	return p, true, nil
}

// Activate charges the first premium and puts the policy in force.
func (s *Service) Activate(ctx context.Context, id string) (Policy, ledger.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := Lookup(id)
	if !ok {
		return Policy{}, ledger.Transaction{}, ErrUnknownPolicy
	}
	current, active, err := s.active(ctx)
	if err != nil {
		return Policy{}, ledger.Transaction{}, err
	}
	if active && current.ID == p.ID {
		return Policy{}, ledger.Transaction{}, ErrAlreadyActive
	}

	raw, err := json.Marshal(p)
	if err != nil {
		return Policy{}, ledger.Transaction{}, err
	}
	// The policy is written before the premium is charged, so a failed write
	// never leaves a charge without cover.
	if err := s.store.Set(ctx, KeyActivePolicy, string(raw)); err != nil {
		return Policy{}, ledger.Transaction{}, fmt.Errorf("store active policy: %w", err)
	}
	tx, err := s.ledger.Purchase(ctx, p.Premium, "Premium for "+p.Name)
	if err != nil {
		s.restore(ctx, current, active)
		return Policy{}, ledger.Transaction{}, fmt.Errorf("charge premium: %w", err)
	}

	s.notify(ctx, notification.Message{
		Kind:  notification.KindSuccess,
		Title: "Investment Successful!",
		Body:  fmt.Sprintf("You are now covered by %s. First premium of $%s USD processed.", p.Name, p.Premium.StringFixed(2)),
	})
	return p, tx, nil
}

// Cancel ends the active policy.
func (s *Service) Cancel(ctx context.Context) (Policy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, active, err := s.active(ctx)
	if err != nil {
		return Policy{}, err
	}
	if !active {
		return Policy{}, ErrNoActivePolicy
	}
	if err := s.drop(ctx); err != nil {
		return Policy{}, err
	}
	s.notify(ctx, notification.Message{
		Kind:  notification.KindWarning,
		Title: "Policy Cancelled",
		Body:  fmt.Sprintf("Your %s cover has been successfully cancelled.", p.Name),
	})
	return p, nil
}

// restore puts back the policy that was in force before a failed activation.
func (s *Service) restore(ctx context.Context, previous Policy, active bool) {
	var err error
	if active {
		var raw []byte
		if raw, err = json.Marshal(previous); err == nil {
			err = s.store.Set(ctx, KeyActivePolicy, string(raw))
		}
	} else {
		err = s.drop(ctx)
	}
	if err != nil {
		s.logger.Error("restore active policy", "error", err)
	}
}

func (s *Service) drop(ctx context.Context) error {
	if err := s.store.Remove(ctx, KeyActivePolicy); err != nil {
		return fmt.Errorf("remove active policy: %w", err)
	}
	return nil
}

func (s *Service) notify(ctx context.Context, msg notification.Message) {
	if err := s.notifier.Send(ctx, msg); err != nil && s.logger != nil {
		s.logger.Warn("insurance notification failed", "error", err)
	}
}
