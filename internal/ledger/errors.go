package ledger

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidAmount is returned for zero or negative amounts.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrInsufficientFunds occurs when the wallet balance cannot cover a debit.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInsufficientPool occurs when a loan exceeds the group's current pool.
	ErrInsufficientPool = errors.New("insufficient group funds")

	ErrGroupNotFound    = errors.New("mukando group not found")
	ErrGoalNotFound     = errors.New("savings goal not found")
	ErrInvalidGroup     = errors.New("group requires a name and a positive contribution amount")
	ErrInvalidGoal      = errors.New("goal requires a name and a positive target amount")
	ErrMissingRecipient = errors.New("recipient is required")

	// ErrNotLoaded is returned by mutations issued before Load.
	ErrNotLoaded = errors.New("ledger not loaded")
)

// ExceedsGoalError rejects goal funding above what the goal still needs. The
// caller is expected to resubmit with at most Remaining.
type ExceedsGoalError struct {
	GoalID    string
	Remaining decimal.Decimal
}

func (e *ExceedsGoalError) Error() string {
	return fmt.Sprintf("amount exceeds goal %s: only %s remaining", e.GoalID, e.Remaining.StringFixed(2))
}

// StatusCode maps a ledger error to the HTTP status reported to clients.
func StatusCode(err error) int {
	var exceeds *ExceedsGoalError
	switch {
	case errors.As(err, &exceeds):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrInvalidGroup),
		errors.Is(err, ErrInvalidGoal), errors.Is(err, ErrMissingRecipient):
		return http.StatusBadRequest
	case errors.Is(err, ErrGroupNotFound), errors.Is(err, ErrGoalNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInsufficientFunds), errors.Is(err, ErrInsufficientPool):
		return http.StatusConflict
	case errors.Is(err, ErrNotLoaded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
