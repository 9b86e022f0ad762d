// Package streak — repository.go: schedule persistence and the atomic
// claim transaction.
package streak

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"comicku.id/economy/internal/common"
	"comicku.id/economy/internal/features/ledger"
)

// scheduleRowID: the reward schedule is a singleton config row.
const scheduleRowID = 1

// Repository persists the reward schedule and applies claims.
type Repository struct {
	db     *pgxpool.Pool
	ledger *ledger.Repository
}

// NewRepository creates a streak repository.
func NewRepository(db *pgxpool.Pool, ledgerRepo *ledger.Repository) *Repository {
	return &Repository{db: db, ledger: ledgerRepo}
}

// GetSchedule returns the configured schedule, seeding the default
// ladder if no row exists yet.
func (r *Repository) GetSchedule(ctx context.Context) (Schedule, error) {
	var raw []byte
	err := r.db.QueryRow(ctx,
		`SELECT days FROM reward_schedules WHERE id = $1`, scheduleRowID,
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		def := DefaultSchedule()
		if err := r.SaveSchedule(ctx, def); err != nil {
			return Schedule{}, err
		}
		return def, nil
	}
	if err != nil {
		return Schedule{}, fmt.Errorf("get reward schedule: %w", err)
	}

	var days []Reward
	if err := json.Unmarshal(raw, &days); err != nil {
		// Corrupt config degrades like a missing one; the engine will
		// normalize to the fallback.
		return Schedule{}, nil
	}
	return Schedule{Days: days}, nil
}

// SaveSchedule upserts the singleton schedule row. Last write wins;
// acceptable for admin-only config.
func (r *Repository) SaveSchedule(ctx context.Context, s Schedule) error {
	raw, err := json.Marshal(s.Days)
	if err != nil {
		return fmt.Errorf("marshal schedule: %w", err)
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO reward_schedules (id, days, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (id) DO UPDATE SET days = EXCLUDED.days, updated_at = NOW()
	`, scheduleRowID, raw)
	if err != nil {
		return fmt.Errorf("save reward schedule: %w", err)
	}
	return nil
}

// Claim applies a check-in as one atomic unit: lock the account row,
// re-evaluate eligibility under the lock, then set last_claim_at, set
// the streak and credit the reward together. Two devices claiming
// concurrently serialize on the row lock and the loser sees
// ErrAlreadyClaimed; a crash mid-claim rolls the whole unit back.
func (r *Repository) Claim(ctx context.Context, userID string, schedule Schedule, now time.Time) (Decision, error) {
	if err := r.ledger.EnsureAccount(ctx, userID); err != nil {
		return Decision{}, err
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return Decision{}, fmt.Errorf("begin claim tx: %w", err)
	}
	defer tx.Rollback(ctx)

	account, err := r.ledger.LockAccountTx(ctx, tx, userID)
	if err != nil {
		return Decision{}, err
	}

	decision := EvaluateClaim(account, schedule, now)
	if decision.AlreadyClaimed {
		return decision, common.ErrAlreadyClaimed
	}

	_, err = tx.Exec(ctx, `
		UPDATE accounts
		SET streak = $2, last_claim_at = $3, updated_at = NOW()
		WHERE user_id = $1
	`, userID, decision.NewStreak, now)
	if err != nil {
		return Decision{}, fmt.Errorf("update streak: %w", err)
	}

	// Zero-amount rewards (clamped bad config) still record the claim,
	// they just move no balance.
	if decision.Reward.Amount > 0 {
		description := fmt.Sprintf("Daily check-in - day %d", decision.NewStreak)
		if err := r.ledger.CreditTx(ctx, tx, userID, decision.Reward.Kind,
			decision.Reward.Amount, ledger.TxTypeStreakBonus, description); err != nil {
			return Decision{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Decision{}, fmt.Errorf("commit claim: %w", err)
	}
	return decision, nil
}
