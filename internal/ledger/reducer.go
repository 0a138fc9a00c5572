package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Transfer purposes offered to wallet users.
const (
	PurposeMukando       = "mukando"
	PurposeSavingsGoal   = "savings_goal"
	PurposePeerTransfer  = "peer_transfer"
	PurposeOtherInternal = "other_internal"
)

const depositDescription = "Funds Added via Top-Up"

// Env supplies the non-deterministic inputs of a reduction.
type Env struct {
	Now   func() time.Time
	NewID func() string
}

// Action is a ledger mutation.
type Action interface {
	Kind() string
}

// AddFunds credits the wallet with a deposit.
type AddFunds struct {
	Amount decimal.Decimal
}

// TransferFunds debits the wallet towards a recipient.
type TransferFunds struct {
	Amount    decimal.Decimal
	Recipient string
	Purpose   string
}

// TrackContribution records a contribution collected by a group outside the
// wallet. Only the group pool changes.
type TrackContribution struct {
	GroupID string
	Amount  decimal.Decimal
}

// RequestLoan disburses part of a group pool into the wallet.
type RequestLoan struct {
	GroupID string
	Amount  decimal.Decimal
}

// CreateGroup starts a new Mukando group with the caller as its only member.
type CreateGroup struct {
	Name                  string
	Description           string
	UpcomingNeeds         string
	ContributionAmount    decimal.Decimal
	ContributionFrequency Frequency
	TargetPool            *decimal.Decimal
}

// CreateSavingsGoal opens an empty goal.
type CreateSavingsGoal struct {
	Name         string
	Emoji        string
	TargetAmount decimal.Decimal
}

// FundGoal moves wallet funds into a goal.
type FundGoal struct {
	GoalID string
	Amount decimal.Decimal
}

// Purchase debits the wallet for goods or services.
type Purchase struct {
	Amount      decimal.Decimal
	Description string
}

func (AddFunds) Kind() string          { return "add_funds" }
func (TransferFunds) Kind() string     { return "transfer_funds" }
func (TrackContribution) Kind() string { return "track_contribution" }
func (RequestLoan) Kind() string       { return "request_loan" }
func (CreateGroup) Kind() string       { return "create_group" }
func (CreateSavingsGoal) Kind() string { return "create_savings_goal" }
func (FundGoal) Kind() string          { return "fund_goal" }
func (Purchase) Kind() string          { return "purchase" }

// Outcome carries the records produced by a reduction.
type Outcome struct {
	Transaction *Transaction
	Group       *MukandoGroup
	Goal        *SavingsGoal
}

// Reduce applies a to s and returns the next state. s is never modified; on
// error the returned state is s itself.
func Reduce(s State, a Action, env Env) (State, Outcome, error) {
	var (
		next State
		out  Outcome
		err  error
	)
	switch act := a.(type) {
	case AddFunds:
		next, out, err = reduceAddFunds(s, act, env)
	case TransferFunds:
		next, out, err = reduceTransfer(s, act, env)
	case TrackContribution:
		next, out, err = reduceTrackContribution(s, act)
	case RequestLoan:
		next, out, err = reduceRequestLoan(s, act, env)
	case CreateGroup:
		next, out, err = reduceCreateGroup(s, act, env)
	case CreateSavingsGoal:
		next, out, err = reduceCreateGoal(s, act, env)
	case FundGoal:
		next, out, err = reduceFundGoal(s, act, env)
	case Purchase:
		next, out, err = reducePurchase(s, act, env)
	default:
		return s, Outcome{}, fmt.Errorf("unknown ledger action %T", a)
	}
	if err != nil {
		return s, Outcome{}, err
	}
	return next, out, nil
}

func reduceAddFunds(s State, a AddFunds, env Env) (State, Outcome, error) {
	if !a.Amount.IsPositive() {
		return s, Outcome{}, ErrInvalidAmount
	}
	next := s.clone()
	tx := post(&next, env, TypeDeposit, a.Amount, depositDescription, "")
	return next, Outcome{Transaction: &tx}, nil
}

func reduceTransfer(s State, a TransferFunds, env Env) (State, Outcome, error) {
	if !a.Amount.IsPositive() {
		return s, Outcome{}, ErrInvalidAmount
	}
	if a.Amount.GreaterThan(s.Wallet.Balance) {
		return s, Outcome{}, ErrInsufficientFunds
	}
	recipient := strings.TrimSpace(a.Recipient)
	if recipient == "" && a.Purpose != PurposeOtherInternal {
		return s, Outcome{}, ErrMissingRecipient
	}

	next := s.clone()
	txType := TypeTransferOut
	var credited *MukandoGroup
	if a.Purpose == PurposeMukando {
		txType = TypeMukando
		if i := findGroup(next, recipient); i >= 0 {
			next.Groups[i].CurrentPool = next.Groups[i].CurrentPool.Add(a.Amount)
			g := next.Groups[i]
			credited = &g
		}
	}

	description := "Transfer for " + a.Purpose
	if recipient != "" {
		description += " to " + recipient
	}
	tx := post(&next, env, txType, a.Amount, description, "")
	return next, Outcome{Transaction: &tx, Group: credited}, nil
}

func reduceTrackContribution(s State, a TrackContribution) (State, Outcome, error) {
	if !a.Amount.IsPositive() {
		return s, Outcome{}, ErrInvalidAmount
	}
	i := s.groupIndex(a.GroupID)
	if i < 0 {
		return s, Outcome{}, ErrGroupNotFound
	}
	next := s.clone()
	next.Groups[i].CurrentPool = next.Groups[i].CurrentPool.Add(a.Amount)
	g := next.Groups[i]
	return next, Outcome{Group: &g}, nil
}

func reduceRequestLoan(s State, a RequestLoan, env Env) (State, Outcome, error) {
	if !a.Amount.IsPositive() {
		return s, Outcome{}, ErrInvalidAmount
	}
	i := s.groupIndex(a.GroupID)
	if i < 0 {
		return s, Outcome{}, ErrGroupNotFound
	}
	if a.Amount.GreaterThan(s.Groups[i].CurrentPool) {
		return s, Outcome{}, ErrInsufficientPool
	}

	next := s.clone()
	group := &next.Groups[i]
	group.CurrentPool = group.CurrentPool.Sub(a.Amount)
	group.ActiveLoanAmount = group.ActiveLoanAmount.Add(a.Amount)
	g := *group
	tx := post(&next, env, TypeLoanReceived, a.Amount, "Loan from "+g.Name, "")
	return next, Outcome{Transaction: &tx, Group: &g}, nil
}

func reduceCreateGroup(s State, a CreateGroup, env Env) (State, Outcome, error) {
	name := strings.TrimSpace(a.Name)
	if name == "" || !a.ContributionAmount.IsPositive() {
		return s, Outcome{}, ErrInvalidGroup
	}
	freq := a.ContributionFrequency
	if freq == "" {
		freq = FrequencyWeekly
	}
	if !freq.Valid() {
		return s, Outcome{}, fmt.Errorf("%w: unknown frequency %q", ErrInvalidGroup, freq)
	}

	g := MukandoGroup{
		ID:                    env.NewID(),
		Name:                  name,
		Description:           strings.TrimSpace(a.Description),
		UpcomingNeeds:         strings.TrimSpace(a.UpcomingNeeds),
		ContributionAmount:    a.ContributionAmount,
		ContributionFrequency: freq,
		Members:               1,
		CurrentPool:           decimal.Zero,
		TargetPool:            a.TargetPool,
		ActiveLoanAmount:      decimal.Zero,
	}
	next := s.clone()
	next.Groups = append([]MukandoGroup{g}, next.Groups...)
	return next, Outcome{Group: &g}, nil
}

func reduceCreateGoal(s State, a CreateSavingsGoal, env Env) (State, Outcome, error) {
	name := strings.TrimSpace(a.Name)
	if name == "" || !a.TargetAmount.IsPositive() {
		return s, Outcome{}, ErrInvalidGoal
	}
	g := SavingsGoal{
		ID:            env.NewID(),
		Name:          name,
		Emoji:         a.Emoji,
		TargetAmount:  a.TargetAmount,
		CurrentAmount: decimal.Zero,
		CreatedAt:     env.Now(),
	}
	next := s.clone()
	next.Goals = append([]SavingsGoal{g}, next.Goals...)
	return next, Outcome{Goal: &g}, nil
}

func reduceFundGoal(s State, a FundGoal, env Env) (State, Outcome, error) {
	if !a.Amount.IsPositive() {
		return s, Outcome{}, ErrInvalidAmount
	}
	i := s.goalIndex(a.GoalID)
	if i < 0 {
		return s, Outcome{}, ErrGoalNotFound
	}
	if a.Amount.GreaterThan(s.Wallet.Balance) {
		return s, Outcome{}, ErrInsufficientFunds
	}
	if remaining := s.Goals[i].Remaining(); a.Amount.GreaterThan(remaining) {
		return s, Outcome{}, &ExceedsGoalError{GoalID: a.GoalID, Remaining: remaining}
	}

	next := s.clone()
	goal := &next.Goals[i]
	goal.CurrentAmount = goal.CurrentAmount.Add(a.Amount)
	g := *goal
	tx := post(&next, env, TypeGoalContribution, a.Amount, "Contribution to "+g.Name, g.ID)
	return next, Outcome{Transaction: &tx, Goal: &g}, nil
}

func reducePurchase(s State, a Purchase, env Env) (State, Outcome, error) {
	if !a.Amount.IsPositive() {
		return s, Outcome{}, ErrInvalidAmount
	}
	if a.Amount.GreaterThan(s.Wallet.Balance) {
		return s, Outcome{}, ErrInsufficientFunds
	}
	next := s.clone()
	tx := post(&next, env, TypePurchase, a.Amount, a.Description, "")
	return next, Outcome{Transaction: &tx}, nil
}

// post records a completed transaction and moves the balance accordingly.
// Balance never changes anywhere else.
func post(s *State, env Env, t TransactionType, amount decimal.Decimal, description, goalID string) Transaction {
	tx := Transaction{
		ID:          env.NewID(),
		Type:        t,
		Amount:      amount,
		Description: description,
		Date:        env.Now(),
		Status:      StatusCompleted,
		GoalID:      goalID,
	}
	s.Wallet.Balance = s.Wallet.Balance.Add(tx.Signed())
	s.Wallet.Transactions = append([]Transaction{tx}, s.Wallet.Transactions...)
	return tx
}

// findGroup resolves a transfer recipient to a group by ID or by name.
func findGroup(s State, recipient string) int {
	if recipient == "" {
		return -1
	}
	if i := s.groupIndex(recipient); i >= 0 {
		return i
	}
	for i, g := range s.Groups {
		if strings.EqualFold(g.Name, recipient) {
			return i
		}
	}
	return -1
}
