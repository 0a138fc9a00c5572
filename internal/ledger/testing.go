package ledger

import "github.com/shopspring/decimal"

// SeedBalance is a test helper that sets the wallet balance without recording
// a transaction. It marks the ledger loaded.
func SeedBalance(l *Ledger, amount decimal.Decimal) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state.Wallet.Balance = amount
	l.loaded = true
}

// SeedGroup is a test helper that inserts g ahead of the existing groups.
func SeedGroup(l *Ledger, g MukandoGroup) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state.Groups = append([]MukandoGroup{g}, l.state.Groups...)
	l.loaded = true
}
