package mukando

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/zimsave/zimsave_plus/internal/advisory"
	"github.com/zimsave/zimsave_plus/internal/ledger"
	"github.com/zimsave/zimsave_plus/internal/notification"
)

const noNeeds = "Not specified"

// Service validates group operations before they reach the ledger.
type Service struct {
	ledger   *ledger.Ledger
	advisor  advisory.Advisor
	notifier notification.Notifier
	logger   *slog.Logger
}

// NewService builds a Mukando service.
func NewService(l *ledger.Ledger, advisor advisory.Advisor, notifier notification.Notifier, logger *slog.Logger) *Service {
	if advisor == nil {
		advisor = advisory.Unavailable{}
	}
	if notifier == nil {
		notifier = notification.Nop{}
	}
	return &Service{ledger: l, advisor: advisor, notifier: notifier, logger: logger}
}

// CreateInput describes a new group.
type CreateInput struct {
	Name                  string
	Description           string
	UpcomingNeeds         string
	ContributionAmount    decimal.Decimal
	ContributionFrequency string
	TargetPool            *decimal.Decimal
}

func (s *Service) List(_ context.Context) []ledger.MukandoGroup {
	return s.ledger.Groups()
}

func (s *Service) Get(_ context.Context, id string) (ledger.MukandoGroup, error) {
	return s.ledger.Group(id)
}

// Create starts a group with the caller as its only member.
func (s *Service) Create(ctx context.Context, in CreateInput) (ledger.MukandoGroup, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return ledger.MukandoGroup{}, fmt.Errorf("%w: name is required", ledger.ErrInvalidGroup)
	}
	if !in.ContributionAmount.IsPositive() {
		return ledger.MukandoGroup{}, fmt.Errorf("%w: contribution amount must be positive", ledger.ErrInvalidGroup)
	}
	freq := ledger.Frequency(strings.ToLower(strings.TrimSpace(in.ContributionFrequency)))
	if freq == "" {
		freq = ledger.FrequencyWeekly
	}
	if !freq.Valid() {
		return ledger.MukandoGroup{}, fmt.Errorf("%w: frequency must be weekly, bi-weekly or monthly", ledger.ErrInvalidGroup)
	}
	if in.TargetPool != nil && !in.TargetPool.IsPositive() {
		return ledger.MukandoGroup{}, fmt.Errorf("%w: target pool must be positive", ledger.ErrInvalidGroup)
	}

	g, err := s.ledger.CreateGroup(ctx, ledger.CreateGroup{
		Name:                  name,
		Description:           in.Description,
		UpcomingNeeds:         in.UpcomingNeeds,
		ContributionAmount:    in.ContributionAmount,
		ContributionFrequency: freq,
		TargetPool:            in.TargetPool,
	})
	if err != nil {
		return ledger.MukandoGroup{}, fmt.Errorf("create group: %w", err)
	}
	s.notify(ctx, notification.Message{
		Kind:  notification.KindSuccess,
		Title: "Group Created",
		Body:  fmt.Sprintf("%s has been created. Invite members to start saving together.", g.Name),
	})
	return g, nil
}

// TrackContribution records money collected by the group outside the wallet.
// A nil amount records the group's standard contribution.
func (s *Service) TrackContribution(ctx context.Context, groupID string, amount *decimal.Decimal) (ledger.MukandoGroup, error) {
	g, err := s.ledger.Group(groupID)
	if err != nil {
		return ledger.MukandoGroup{}, err
	}
	value := g.ContributionAmount
	if amount != nil {
		value = *amount
	}
	if !value.IsPositive() {
		return ledger.MukandoGroup{}, ledger.ErrInvalidAmount
	}

	g, err = s.ledger.TrackContribution(ctx, groupID, value)
	if err != nil {
		return ledger.MukandoGroup{}, fmt.Errorf("track contribution: %w", err)
	}
	s.notify(ctx, notification.Message{
		Kind:  notification.KindSuccess,
		Title: "Contribution Tracked",
		Body:  fmt.Sprintf("$%s recorded for %s.", value.StringFixed(2), g.Name),
	})
	return g, nil
}

// RequestLoan disburses part of the pool into the wallet.
func (s *Service) RequestLoan(ctx context.Context, groupID string, amount decimal.Decimal) (ledger.MukandoGroup, ledger.Transaction, error) {
	if !amount.IsPositive() {
		return ledger.MukandoGroup{}, ledger.Transaction{}, ledger.ErrInvalidAmount
	}
	g, err := s.ledger.Group(groupID)
	if err != nil {
		return ledger.MukandoGroup{}, ledger.Transaction{}, err
	}
	if amount.GreaterThan(g.CurrentPool) {
		return ledger.MukandoGroup{}, ledger.Transaction{}, ledger.ErrInsufficientPool
	}

	g, tx, err := s.ledger.RequestLoan(ctx, groupID, amount)
	if err != nil {
		return ledger.MukandoGroup{}, ledger.Transaction{}, fmt.Errorf("request loan: %w", err)
	}
	s.notify(ctx, notification.Message{
		Kind:  notification.KindSuccess,
		Title: "Loan Disbursed",
		Body:  fmt.Sprintf("$%s from %s has been added to your wallet.", amount.StringFixed(2), g.Name),
	})
	return g, tx, nil
}

// Summary asks the advisory service to describe the group. Ledger state is
// never touched, whatever the outcome.
func (s *Service) Summary(ctx context.Context, groupID string) (advisory.SummaryResponse, error) {
	g, err := s.ledger.Group(groupID)
	if err != nil {
		return advisory.SummaryResponse{}, err
	}
	needs := strings.TrimSpace(g.UpcomingNeeds)
	if needs == "" {
		needs = noNeeds
	}
	resp, err := s.advisor.SummarizeGroup(ctx, advisory.SummaryRequest{
		GroupName:             g.Name,
		CurrentSavings:        g.CurrentPool.InexactFloat64(),
		UpcomingNeeds:         needs,
		ContributionAmount:    g.ContributionAmount.InexactFloat64(),
		ContributionFrequency: string(g.ContributionFrequency),
	})
	if err != nil {
		s.logger.Warn("group summary failed", "group_id", groupID, "error", err)
		s.notify(ctx, notification.Message{
			Kind:  notification.KindError,
			Title: "AI Summary Error",
			Body:  "Could not generate summary. Please try again.",
		})
		return advisory.SummaryResponse{}, fmt.Errorf("summarize group: %w", err)
	}
	return resp, nil
}

func (s *Service) notify(ctx context.Context, msg notification.Message) {
	if err := s.notifier.Send(ctx, msg); err != nil && s.logger != nil {
		s.logger.Warn("mukando notification failed", "error", err)
	}
}
