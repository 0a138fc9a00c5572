package ledger

import "github.com/shopspring/decimal"

// Replay recomputes a balance from a newest-first transaction history. Only
// completed transactions move money.
func Replay(transactions []Transaction) decimal.Decimal {
	balance := decimal.Zero
	for i := len(transactions) - 1; i >= 0; i-- {
		tx := transactions[i]
		if tx.Status != StatusCompleted {
			continue
		}
		balance = balance.Add(tx.Signed())
	}
	return balance
}

// Verification compares the stored balance with one replayed from history.
type Verification struct {
	Stored       decimal.Decimal `json:"stored"`
	Replayed     decimal.Decimal `json:"replayed"`
	Transactions int             `json:"transactions"`
	OK           bool            `json:"ok"`
}

// Verify checks that w's balance is explained by its transactions.
func Verify(w WalletState) Verification {
	replayed := Replay(w.Transactions)
	return Verification{
		Stored:       w.Balance,
		Replayed:     replayed,
		Transactions: len(w.Transactions),
		OK:           replayed.Equal(w.Balance),
	}
}
