package ledger

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/zimsave/zimsave_plus/internal/store"
)

// Ledger holds the wallet, group and goal state of one profile and keeps it
// in step with a store. It is safe for concurrent use.
type Ledger struct {
	mu     sync.Mutex
	store  store.Store
	logger *slog.Logger
	env    Env
	state  State
	loaded bool
}

// Option customises a Ledger.
type Option func(*Ledger)

// WithClock overrides the transaction timestamp source.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.env.Now = now }
}

// WithIDs overrides the identifier source.
func WithIDs(next func() string) Option {
	return func(l *Ledger) { l.env.NewID = next }
}

// New builds an unloaded ledger over st.
func New(st store.Store, logger *slog.Logger, opts ...Option) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Ledger{
		store:  st,
		logger: logger,
		env:    Env{Now: utcMillis, NewID: newULIDSource().next},
		state:  Empty(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load hydrates the ledger from its store. It may be called again to pick up
// external writes.
func (l *Ledger) Load(ctx context.Context) error {
	s, err := hydrate(ctx, l.store, l.logger)
	if err != nil {
		return err
	}
	l.mu.Lock()
	l.state = s
	l.loaded = true
	l.mu.Unlock()
	return nil
}

// Loaded reports whether Load has completed.
func (l *Ledger) Loaded() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loaded
}

// Dispatch reduces a against the current state and persists the result. The
// in-memory state only advances once the store has accepted the write.
func (l *Ledger) Dispatch(ctx context.Context, a Action) (Outcome, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.loaded {
		return Outcome{}, ErrNotLoaded
	}

	next, out, err := Reduce(l.state, a, l.env)
	if err != nil {
		return Outcome{}, err
	}
	if err := persist(ctx, l.store, l.logger, next); err != nil {
		return Outcome{}, err
	}
	l.state = next
	l.logger.Debug("ledger action applied", "action", a.Kind(), "balance", next.Wallet.Balance.String())
	return out, nil
}

// Snapshot returns a copy of the current state.
func (l *Ledger) Snapshot() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.clone()
}

func (l *Ledger) Wallet() WalletState {
	return l.Snapshot().Wallet
}

func (l *Ledger) Balance() decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.Wallet.Balance
}

func (l *Ledger) Groups() []MukandoGroup {
	return l.Snapshot().Groups
}

// Group returns the group with id.
func (l *Ledger) Group(id string) (MukandoGroup, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	i := l.state.groupIndex(id)
	if i < 0 {
		return MukandoGroup{}, ErrGroupNotFound
	}
	return l.state.Groups[i], nil
}

func (l *Ledger) Goals() []SavingsGoal {
	return l.Snapshot().Goals
}

// Goal returns the goal with id.
func (l *Ledger) Goal(id string) (SavingsGoal, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	i := l.state.goalIndex(id)
	if i < 0 {
		return SavingsGoal{}, ErrGoalNotFound
	}
	return l.state.Goals[i], nil
}

func (l *Ledger) AddFunds(ctx context.Context, amount decimal.Decimal) (Transaction, error) {
	out, err := l.Dispatch(ctx, AddFunds{Amount: amount})
	if err != nil {
		return Transaction{}, err
	}
	return *out.Transaction, nil
}

func (l *Ledger) TransferFunds(ctx context.Context, amount decimal.Decimal, recipient, purpose string) (Transaction, error) {
	out, err := l.Dispatch(ctx, TransferFunds{Amount: amount, Recipient: recipient, Purpose: purpose})
	if err != nil {
		return Transaction{}, err
	}
	return *out.Transaction, nil
}

func (l *Ledger) TrackContribution(ctx context.Context, groupID string, amount decimal.Decimal) (MukandoGroup, error) {
	out, err := l.Dispatch(ctx, TrackContribution{GroupID: groupID, Amount: amount})
	if err != nil {
		return MukandoGroup{}, err
	}
	return *out.Group, nil
}

// RequestLoan disburses amount from the group pool and returns the updated
// group with the wallet transaction.
func (l *Ledger) RequestLoan(ctx context.Context, groupID string, amount decimal.Decimal) (MukandoGroup, Transaction, error) {
	out, err := l.Dispatch(ctx, RequestLoan{GroupID: groupID, Amount: amount})
	if err != nil {
		return MukandoGroup{}, Transaction{}, err
	}
	return *out.Group, *out.Transaction, nil
}

func (l *Ledger) CreateGroup(ctx context.Context, in CreateGroup) (MukandoGroup, error) {
	out, err := l.Dispatch(ctx, in)
	if err != nil {
		return MukandoGroup{}, err
	}
	return *out.Group, nil
}

func (l *Ledger) CreateSavingsGoal(ctx context.Context, in CreateSavingsGoal) (SavingsGoal, error) {
	out, err := l.Dispatch(ctx, in)
	if err != nil {
		return SavingsGoal{}, err
	}
	return *out.Goal, nil
}

func (l *Ledger) FundGoal(ctx context.Context, goalID string, amount decimal.Decimal) (SavingsGoal, Transaction, error) {
	out, err := l.Dispatch(ctx, FundGoal{GoalID: goalID, Amount: amount})
	if err != nil {
		return SavingsGoal{}, Transaction{}, err
	}
	return *out.Goal, *out.Transaction, nil
}

func (l *Ledger) Purchase(ctx context.Context, amount decimal.Decimal, description string) (Transaction, error) {
	out, err := l.Dispatch(ctx, Purchase{Amount: amount, Description: description})
	if err != nil {
		return Transaction{}, err
	}
	return *out.Transaction, nil
}

// Verify replays the wallet history against the stored balance.
func (l *Ledger) Verify() Verification {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Verify(l.state.Wallet)
}
