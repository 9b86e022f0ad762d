// Package ledger is the single point of truth for account balances.
// models.go describes the account row and the audit trail.
package ledger

import "time"

// Currency distinguishes the two balances an account carries.
type Currency string

const (
	CurrencyXP   Currency = "xp"
	CurrencyCoin Currency = "coin"
)

// Valid reports whether c is a known currency.
func (c Currency) Valid() bool {
	return c == CurrencyXP || c == CurrencyCoin
}

// Account is the per-user economy state. Exactly one row per user,
// created lazily on first touch. Coins never go negative: the table
// carries a CHECK constraint and Debit verifies under a row lock.
type Account struct {
	ID           int64      `db:"id"`
	UserID       string     `db:"user_id"` // opaque auth-provider id
	XP           int64      `db:"xp"`
	Coins        int64      `db:"coins"`
	ChaptersRead int64      `db:"chapters_read"`
	Streak       int        `db:"streak"`         // consecutive check-in days
	LastClaimAt  *time.Time `db:"last_claim_at"`  // last successful streak claim
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
}

// Transaction is one movement on an account. Every credit and debit
// appends a row here; the amount is always positive and the direction
// tells which way it went.
type Transaction struct {
	ID          int64     `db:"id"`
	UserID      string    `db:"user_id"`
	Currency    Currency  `db:"currency"`
	Direction   string    `db:"direction"` // "credit" or "debit"
	Amount      int64     `db:"amount"`
	Type        string    `db:"tx_type"`
	Description string    `db:"description"`
	CreatedAt   time.Time `db:"created_at"`
}

// Transaction types.
const (
	TxTypeStreakBonus   = "streak_bonus"
	TxTypeChapterUnlock = "chapter_unlock"
	TxTypeChapterRead   = "chapter_read"
	TxTypeDonationBonus = "donation_bonus"
	TxTypeAdminGive     = "admin_give"
	TxTypeAdminTake     = "admin_take"
)

const (
	DirectionCredit = "credit"
	DirectionDebit  = "debit"
)
