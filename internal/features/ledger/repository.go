// Package ledger — repository.go: all SQL against the accounts and
// account_transactions tables.
//
// Balance mutations are transactional: "check balance, then mutate" runs
// under SELECT ... FOR UPDATE so concurrent debits on one account cannot
// interleave. The Tx-suffixed variants take a caller-owned pgx.Tx so that
// composite operations (streak claim, chapter unlock) can make a ledger
// movement part of their own atomic unit.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"comicku.id/economy/internal/common"
)

// Repository provides account and transaction persistence.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a ledger repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const accountColumns = `id, user_id, xp, coins, chapters_read, streak, last_claim_at, created_at, updated_at`

func scanAccount(row pgx.Row) (*Account, error) {
	var a Account
	err := row.Scan(
		&a.ID, &a.UserID, &a.XP, &a.Coins, &a.ChaptersRead,
		&a.Streak, &a.LastClaimAt, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// EnsureAccount creates the account row if it does not exist yet.
// New accounts start with zero everything.
func (r *Repository) EnsureAccount(ctx context.Context, userID string) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO accounts (user_id, xp, coins, chapters_read, streak)
		VALUES ($1, 0, 0, 0, 0)
		ON CONFLICT (user_id) DO NOTHING
	`, userID)
	if err != nil {
		return fmt.Errorf("ensure account: %w", err)
	}
	return nil
}

// GetAccount returns the account row for a user.
func (r *Repository) GetAccount(ctx context.Context, userID string) (*Account, error) {
	a, err := scanAccount(r.db.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE user_id = $1`, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrAccountNotFound
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

// LockAccountTx loads the account row with SELECT ... FOR UPDATE inside
// the caller's transaction. Holding the lock serializes every concurrent
// mutation on the same account until the transaction ends.
func (r *Repository) LockAccountTx(ctx context.Context, tx pgx.Tx, userID string) (*Account, error) {
	a, err := scanAccount(tx.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE user_id = $1 FOR UPDATE`, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrAccountNotFound
		}
		return nil, fmt.Errorf("lock account: %w", err)
	}
	return a, nil
}

// CreditTx increases xp or coins inside the caller's transaction and
// appends the audit row. No upper bound is enforced.
func (r *Repository) CreditTx(ctx context.Context, tx pgx.Tx, userID string, currency Currency, amount int64, txType, description string) error {
	column := "xp"
	if currency == CurrencyCoin {
		column = "coins"
	}
	_, err := tx.Exec(ctx, `
		UPDATE accounts
		SET `+column+` = `+column+` + $2, updated_at = NOW()
		WHERE user_id = $1
	`, userID, amount)
	if err != nil {
		return fmt.Errorf("credit %s: %w", currency, err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO account_transactions (user_id, currency, direction, amount, tx_type, description)
		VALUES ($1, $2, 'credit', $3, $4, $5)
	`, userID, currency, amount, txType, description)
	if err != nil {
		return fmt.Errorf("record credit: %w", err)
	}
	return nil
}

// DebitTx decreases coins inside the caller's transaction. The caller
// must already hold the row lock (LockAccountTx) or accept that DebitTx
// takes it here. Fails with ErrInsufficientCoins and writes nothing if
// the balance does not cover the amount.
func (r *Repository) DebitTx(ctx context.Context, tx pgx.Tx, userID string, amount int64, txType, description string) error {
	var coins int64
	err := tx.QueryRow(ctx,
		`SELECT coins FROM accounts WHERE user_id = $1 FOR UPDATE`, userID,
	).Scan(&coins)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return common.ErrAccountNotFound
		}
		return fmt.Errorf("read balance: %w", err)
	}

	if coins < amount {
		return common.ErrInsufficientCoins
	}

	_, err = tx.Exec(ctx, `
		UPDATE accounts
		SET coins = coins - $2, updated_at = NOW()
		WHERE user_id = $1
	`, userID, amount)
	if err != nil {
		return fmt.Errorf("debit coins: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO account_transactions (user_id, currency, direction, amount, tx_type, description)
		VALUES ($1, 'coin', 'debit', $2, $3, $4)
	`, userID, amount, txType, description)
	if err != nil {
		return fmt.Errorf("record debit: %w", err)
	}
	return nil
}

// IncrementChaptersReadTx bumps the chapters_read counter inside the
// caller's transaction.
func (r *Repository) IncrementChaptersReadTx(ctx context.Context, tx pgx.Tx, userID string, by int64) error {
	_, err := tx.Exec(ctx, `
		UPDATE accounts
		SET chapters_read = chapters_read + $2, updated_at = NOW()
		WHERE user_id = $1
	`, userID, by)
	if err != nil {
		return fmt.Errorf("increment chapters_read: %w", err)
	}
	return nil
}

// Credit runs CreditTx in its own transaction, creating the account row
// first if needed.
func (r *Repository) Credit(ctx context.Context, userID string, currency Currency, amount int64, txType, description string) error {
	if err := r.EnsureAccount(ctx, userID); err != nil {
		return err
	}
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin credit tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := r.CreditTx(ctx, tx, userID, currency, amount, txType, description); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Debit runs DebitTx in its own transaction.
func (r *Repository) Debit(ctx context.Context, userID string, amount int64, txType, description string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin debit tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := r.DebitTx(ctx, tx, userID, amount, txType, description); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// GetTransactions returns the newest limit movements on an account.
func (r *Repository) GetTransactions(ctx context.Context, userID string, limit int) ([]*Transaction, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, currency, direction, amount, tx_type, description, created_at
		FROM account_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("get transactions: %w", err)
	}
	defer rows.Close()

	var txs []*Transaction
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.Currency, &t.Direction,
			&t.Amount, &t.Type, &t.Description, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txs = append(txs, &t)
	}
	return txs, rows.Err()
}
