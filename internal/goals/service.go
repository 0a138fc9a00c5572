package goals

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/zimsave/zimsave_plus/internal/ledger"
	"github.com/zimsave/zimsave_plus/internal/notification"
)

// ErrGoalAchieved rejects funding of a goal that already reached its target.
var ErrGoalAchieved = errors.New("savings goal already achieved")

// Service validates savings-goal operations before they reach the ledger.
type Service struct {
	ledger   *ledger.Ledger
	notifier notification.Notifier
	logger   *slog.Logger
}

func NewService(l *ledger.Ledger, notifier notification.Notifier, logger *slog.Logger) *Service {
	if notifier == nil {
		notifier = notification.Nop{}
	}
	return &Service{ledger: l, notifier: notifier, logger: logger}
}

type CreateInput struct {
	Name         string
	Emoji        string
	TargetAmount decimal.Decimal
}

func (s *Service) List(_ context.Context) []ledger.SavingsGoal {
	return s.ledger.Goals()
}

func (s *Service) Create(ctx context.Context, in CreateInput) (ledger.SavingsGoal, error) {
	if strings.TrimSpace(in.Name) == "" {
		return ledger.SavingsGoal{}, fmt.Errorf("%w: name is required", ledger.ErrInvalidGoal)
	}
	if !in.TargetAmount.IsPositive() {
		return ledger.SavingsGoal{}, fmt.Errorf("%w: target amount must be positive", ledger.ErrInvalidGoal)
	}
	g, err := s.ledger.CreateSavingsGoal(ctx, ledger.CreateSavingsGoal{
		Name:         in.Name,
		Emoji:        strings.TrimSpace(in.Emoji),
		TargetAmount: in.TargetAmount,
	})
	if err != nil {
		return ledger.SavingsGoal{}, fmt.Errorf("create goal: %w", err)
	}
	return g, nil
}

// Fund moves amount from the wallet into the goal. Amounts above what the
// goal still needs come back as *ledger.ExceedsGoalError.
func (s *Service) Fund(ctx context.Context, goalID string, amount decimal.Decimal) (ledger.SavingsGoal, ledger.Transaction, error) {
	if !amount.IsPositive() {
		return ledger.SavingsGoal{}, ledger.Transaction{}, ledger.ErrInvalidAmount
	}
	g, err := s.ledger.Goal(goalID)
	if err != nil {
		return ledger.SavingsGoal{}, ledger.Transaction{}, err
	}
	if g.Achieved() {
		return ledger.SavingsGoal{}, ledger.Transaction{}, ErrGoalAchieved
	}
	if amount.GreaterThan(s.ledger.Balance()) {
		return ledger.SavingsGoal{}, ledger.Transaction{}, ledger.ErrInsufficientFunds
	}

	g, tx, err := s.ledger.FundGoal(ctx, goalID, amount)
	if err != nil {
		return ledger.SavingsGoal{}, ledger.Transaction{}, fmt.Errorf("fund goal: %w", err)
	}

	msg := notification.Message{
		Kind:  notification.KindSuccess,
		Title: "Goal Funded",
		Body:  fmt.Sprintf("$%s added to %s.", amount.StringFixed(2), g.Name),
	}
	if g.Achieved() {
		msg.Title = "Goal Achieved!"
		msg.Body = fmt.Sprintf("Congratulations, you reached your %s goal of $%s.", g.Name, g.TargetAmount.StringFixed(2))
	}
	if err := s.notifier.Send(ctx, msg); err != nil && s.logger != nil {
		s.logger.Warn("goal notification failed", "error", err)
	}
	return g, tx, nil
}
