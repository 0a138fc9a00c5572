package wallet

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

// ErrMissingPurpose is returned when a transfer does not say what it is for.
var ErrMissingPurpose = errors.New("transfer purpose is required")

// Service exposes wallet operations backed by the ledger.
type Service struct {
	ledger   *ledger.Ledger
	notifier notification.Notifier
	logger   *slog.Logger
}

// NewService builds a wallet service instance.
func NewService(l *ledger.Ledger, notifier notification.Notifier, logger *slog.Logger) *Service {
	if notifier == nil {
		notifier = notification.Nop{}
	}
	return &Service{ledger: l, notifier: notifier, logger: logger}
}

// TransferInput captures a debit towards a recipient.
type TransferInput struct {
	Amount    decimal.Decimal
	Recipient string
	Purpose   string
}

// Get returns the balance and the history, newest first.
func (s *Service) Get(_ context.Context) ledger.WalletState {
	return s.ledger.Wallet()
}

// AddFunds tops up the wallet.
func (s *Service) AddFunds(ctx context.Context, amount decimal.Decimal) (ledger.Transaction, error) {
	if !amount.IsPositive() {
		return ledger.Transaction{}, ledger.ErrInvalidAmount
	}
	tx, err := s.ledger.AddFunds(ctx, amount)
	if err != nil {
		return ledger.Transaction{}, fmt.Errorf("add funds: %w", err)
	}
	s.notify(ctx, notification.Message{
		Kind:  notification.KindSuccess,
		Title: "Funds added",
		Body:  fmt.Sprintf("$%s has been added to your wallet.", amount.StringFixed(2)),
	})
	return tx, nil
}

// Transfer sends funds out of the wallet.
func (s *Service) Transfer(ctx context.Context, in TransferInput) (ledger.Transaction, error) {
	purpose := strings.TrimSpace(in.Purpose)
	switch {
	case !in.Amount.IsPositive():
		return ledger.Transaction{}, ledger.ErrInvalidAmount
	case purpose == "":
		return ledger.Transaction{}, ErrMissingPurpose
	case strings.TrimSpace(in.Recipient) == "" && purpose != ledger.PurposeOtherInternal:
		return ledger.Transaction{}, ledger.ErrMissingRecipient
	case in.Amount.GreaterThan(s.ledger.Balance()):
		return ledger.Transaction{}, ledger.ErrInsufficientFunds
	}

	tx, err := s.ledger.TransferFunds(ctx, in.Amount, in.Recipient, purpose)
	if err != nil {
		return ledger.Transaction{}, fmt.Errorf("transfer: %w", err)
	}
	s.notify(ctx, notification.Message{
		Kind:  notification.KindSuccess,
		Title: "Transfer sent",
		Body:  fmt.Sprintf("$%s sent. %s.", in.Amount.StringFixed(2), tx.Description),
	})
	return tx, nil
}

// Verify replays the history against the stored balance.
func (s *Service) Verify(_ context.Context) ledger.Verification {
	return s.ledger.Verify()
}

func (s *Service) notify(ctx context.Context, msg notification.Message) {
	if err := s.notifier.Send(ctx, msg); err != nil && s.logger != nil {
		s.logger.Warn("wallet notification failed", "error", err)
	}
}
