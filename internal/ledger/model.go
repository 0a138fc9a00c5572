package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Persisted state and API payloads carry amounts as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// TransactionType classifies a wallet movement. Direction is carried by the
// type; stored amounts are always positive.
type TransactionType string

const (
	TypeDeposit          TransactionType = "deposit"
	TypeWithdrawal       TransactionType = "withdrawal"
	TypeTransferIn       TransactionType = "transfer_in"
	TypeTransferOut      TransactionType = "transfer_out"
	TypeMukando          TransactionType = "mukando"
	TypeGoalContribution TransactionType = "goal_contribution"
	TypePurchase         TransactionType = "purchase"
	TypeFee              TransactionType = "fee"
	TypeLoanReceived     TransactionType = "loan_received"
)

// IsCredit reports whether the type increases the wallet balance.
func (t TransactionType) IsCredit() bool {
	switch t {
	case TypeDeposit, TypeTransferIn, TypeLoanReceived:
		return true
	default:
		return false
	}
}

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	switch t {
	case TypeDeposit, TypeWithdrawal, TypeTransferIn, TypeTransferOut, TypeMukando,
		TypeGoalContribution, TypePurchase, TypeFee, TypeLoanReceived:
		return true
	default:
		return false
	}
}

// TransactionStatus is the settlement state of a transaction. Only completed
// transactions are produced since nothing settles asynchronously.
type TransactionStatus string

const (
	StatusCompleted TransactionStatus = "completed"
	StatusPending   TransactionStatus = "pending"
	StatusFailed    TransactionStatus = "failed"
)

// Transaction is one entry of the wallet history.
type Transaction struct {
	ID          string            `json:"id"`
	Type        TransactionType   `json:"type"`
	Amount      decimal.Decimal   `json:"amount"`
	Description string            `json:"description"`
	Date        time.Time         `json:"date"`
	Status      TransactionStatus `json:"status"`
	GoalID      string            `json:"goalId,omitempty"`
}

// Signed returns the amount with the sign implied by the transaction type.
func (t Transaction) Signed() decimal.Decimal {
	if t.Type.IsCredit() {
		return t.Amount
	}
	return t.Amount.Neg()
}

// WalletState holds the balance and the transaction history, newest first.
type WalletState struct {
	Balance      decimal.Decimal `json:"balance"`
	Transactions []Transaction   `json:"transactions"`
}

// Frequency is how often group members contribute.
type Frequency string

const (
	FrequencyWeekly   Frequency = "weekly"
	FrequencyBiWeekly Frequency = "bi-weekly"
	FrequencyMonthly  Frequency = "monthly"
)

// Valid reports whether f is a supported contribution frequency.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyWeekly, FrequencyBiWeekly, FrequencyMonthly:
		return true
	default:
		return false
	}
}

// MukandoGroup is a pooled group-savings arrangement.
type MukandoGroup struct {
	ID                    string           `json:"id"`
	Name                  string           `json:"name"`
	Description           string           `json:"description,omitempty"`
	UpcomingNeeds         string           `json:"upcomingNeeds,omitempty"`
	ContributionAmount    decimal.Decimal  `json:"contributionAmount"`
	ContributionFrequency Frequency        `json:"contributionFrequency"`
	Members               int              `json:"members"`
	CurrentPool           decimal.Decimal  `json:"currentPool"`
	TargetPool            *decimal.Decimal `json:"targetPool,omitempty"`
	ActiveLoanAmount      decimal.Decimal  `json:"activeLoanAmount"`
}

// Progress returns the pool as a percentage of the target, or zero when the
// group has no target.
func (g MukandoGroup) Progress() decimal.Decimal {
	if g.TargetPool == nil || !g.TargetPool.IsPositive() {
		return decimal.Zero
	}
	return g.CurrentPool.Div(*g.TargetPool).Mul(decimal.NewFromInt(100))
}

// SavingsGoal is a personal target funded from the wallet.
type SavingsGoal struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Emoji         string          `json:"emoji,omitempty"`
	TargetAmount  decimal.Decimal `json:"targetAmount"`
	CurrentAmount decimal.Decimal `json:"currentAmount"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// Achieved reports whether the goal has reached its target.
func (g SavingsGoal) Achieved() bool {
	return g.CurrentAmount.GreaterThanOrEqual(g.TargetAmount)
}

// Remaining is what is still needed to reach the target, never negative.
func (g SavingsGoal) Remaining() decimal.Decimal {
	r := g.TargetAmount.Sub(g.CurrentAmount)
	if r.IsNegative() {
		return decimal.Zero
	}
	return r
}

// State is everything the ledger owns.
type State struct {
	Wallet WalletState    `json:"wallet"`
	Groups []MukandoGroup `json:"groups"`
	Goals  []SavingsGoal  `json:"goals"`
}

// Empty returns the state used when nothing has been persisted yet.
func Empty() State {
	return State{
		Wallet: WalletState{Balance: decimal.Zero, Transactions: []Transaction{}},
		Groups: []MukandoGroup{},
		Goals:  []SavingsGoal{},
	}
}

func (s State) clone() State {
	out := State{
		Wallet: WalletState{
			Balance:      s.Wallet.Balance,
			Transactions: make([]Transaction, len(s.Wallet.Transactions)),
		},
		Groups: make([]MukandoGroup, len(s.Groups)),
		Goals:  make([]SavingsGoal, len(s.Goals)),
	}
	copy(out.Wallet.Transactions, s.Wallet.Transactions)
	copy(out.Groups, s.Groups)
	copy(out.Goals, s.Goals)
	return out
}

func (s State) groupIndex(id string) int {
	for i, g := range s.Groups {
		if g.ID == id {
			return i
		}
	}
	return -1
}

func (s State) goalIndex(id string) int {
	for i, g := range s.Goals {
		if g.ID == id {
			return i
		}
	}
	return -1
}
