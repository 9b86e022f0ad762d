// Package chapters — repository.go: SQL for lock config, unlock records
// and the unlock transaction.
package chapters

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"comicku.id/economy/internal/common"
	"comicku.id/economy/internal/features/ledger"
)

const uniqueViolation = "23505"

// Repository persists chapter locks and unlock records.
type Repository struct {
	db     *pgxpool.Pool
	ledger *ledger.Repository
}

// NewRepository creates a chapters repository.
func NewRepository(db *pgxpool.Pool, ledgerRepo *ledger.Repository) *Repository {
	return &Repository{db: db, ledger: ledgerRepo}
}

// GetLock returns the lock config for a chapter, or nil if none exists.
func (r *Repository) GetLock(ctx context.Context, chapterID string) (*LockedChapter, error) {
	var lc LockedChapter
	err := r.db.QueryRow(ctx, `
		SELECT chapter_id, manhwa_id, price, is_locked, updated_at
		FROM locked_chapters WHERE chapter_id = $1
	`, chapterID).Scan(&lc.ChapterID, &lc.ManhwaID, &lc.Price, &lc.IsLocked, &lc.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get chapter lock: %w", err)
	}
	return &lc, nil
}

// UpsertLock creates or updates the lock config for a chapter (admin).
func (r *Repository) UpsertLock(ctx context.Context, lc *LockedChapter) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO locked_chapters (chapter_id, manhwa_id, price, is_locked, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (chapter_id) DO UPDATE
		SET manhwa_id = EXCLUDED.manhwa_id, price = EXCLUDED.price,
		    is_locked = EXCLUDED.is_locked, updated_at = NOW()
	`, lc.ChapterID, lc.ManhwaID, lc.Price, lc.IsLocked)
	if err != nil {
		return fmt.Errorf("upsert chapter lock: %w", err)
	}
	return nil
}

// ListLocks returns lock configs, optionally filtered by series.
func (r *Repository) ListLocks(ctx context.Context, manhwaID string) ([]*LockedChapter, error) {
	query := `
		SELECT chapter_id, manhwa_id, price, is_locked, updated_at
		FROM locked_chapters`
	args := []interface{}{}
	if manhwaID != "" {
		query += ` WHERE manhwa_id = $1`
		args = append(args, manhwaID)
	}
	query += ` ORDER BY chapter_id`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list chapter locks: %w", err)
	}
	defer rows.Close()

	var locks []*LockedChapter
	for rows.Next() {
		var lc LockedChapter
		if err := rows.Scan(&lc.ChapterID, &lc.ManhwaID, &lc.Price, &lc.IsLocked, &lc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan chapter lock: %w", err)
		}
		locks = append(locks, &lc)
	}
	return locks, rows.Err()
}

// GetUnlock returns the unlock record for (user, chapter), or nil.
func (r *Repository) GetUnlock(ctx context.Context, userID, chapterID string) (*UnlockRecord, error) {
	var u UnlockRecord
	err := r.db.QueryRow(ctx, `
		SELECT id, user_id, chapter_id, price_paid, unlocked_at
		FROM unlocked_chapters WHERE user_id = $1 AND chapter_id = $2
	`, userID, chapterID).Scan(&u.ID, &u.UserID, &u.ChapterID, &u.PricePaid, &u.UnlockedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get unlock record: %w", err)
	}
	return &u, nil
}

// Unlock performs the pay-to-unlock purchase as one atomic unit: re-check
// the lock, re-check for an existing record, debit the price and insert
// the record in a single transaction. The UNIQUE(user_id, chapter_id)
// index backstops a concurrent double-unlock; losing that race rolls the
// debit back and reports AlreadyUnlocked.
func (r *Repository) Unlock(ctx context.Context, userID, chapterID string, now time.Time) (*UnlockRecord, error) {
	if err := r.ledger.EnsureAccount(ctx, userID); err != nil {
		return nil, err
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin unlock tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var price int64
	var isLocked bool
	err = tx.QueryRow(ctx,
		`SELECT price, is_locked FROM locked_chapters WHERE chapter_id = $1`, chapterID,
	).Scan(&price, &isLocked)
	if errors.Is(err, pgx.ErrNoRows) || (err == nil && !isLocked) {
		return nil, common.ErrChapterNotLocked
	}
	if err != nil {
		return nil, fmt.Errorf("read chapter lock: %w", err)
	}

	var exists bool
	err = tx.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM unlocked_chapters WHERE user_id = $1 AND chapter_id = $2)`,
		userID, chapterID,
	).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("check unlock record: %w", err)
	}
	if exists {
		return nil, common.ErrAlreadyUnlocked
	}

	// A locked chapter priced at zero grants the record without a debit.
	if price > 0 {
		description := fmt.Sprintf("Unlocked chapter %s", chapterID)
		if err := r.ledger.DebitTx(ctx, tx, userID, price,
			ledger.TxTypeChapterUnlock, description); err != nil {
			return nil, err
		}
	}

	record := &UnlockRecord{
		UserID:     userID,
		ChapterID:  chapterID,
		PricePaid:  price,
		UnlockedAt: now,
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO unlocked_chapters (user_id, chapter_id, price_paid, unlocked_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, userID, chapterID, price, now).Scan(&record.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, common.ErrAlreadyUnlocked
		}
		return nil, fmt.Errorf("insert unlock record: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit unlock: %w", err)
	}
	return record, nil
}

// DeleteUnlock revokes an unlock record (admin only). This is the only
// path from Unlocked back to Locked-Unpaid.
func (r *Repository) DeleteUnlock(ctx context.Context, userID, chapterID string) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM unlocked_chapters WHERE user_id = $1 AND chapter_id = $2`,
		userID, chapterID)
	if err != nil {
		return fmt.Errorf("delete unlock record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrUnlockNotFound
	}
	return nil
}

// MarkChapterRead bumps the reading counter and credits the per-chapter
// XP bonus in one transaction.
func (r *Repository) MarkChapterRead(ctx context.Context, userID, chapterID string, xpBonus int64) error {
	if err := r.ledger.EnsureAccount(ctx, userID); err != nil {
		return err
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin read tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := r.ledger.IncrementChaptersReadTx(ctx, tx, userID, 1); err != nil {
		return err
	}
	if xpBonus > 0 {
		description := fmt.Sprintf("Read chapter %s", chapterID)
		if err := r.ledger.CreditTx(ctx, tx, userID, ledger.CurrencyXP,
			xpBonus, ledger.TxTypeChapterRead, description); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}
