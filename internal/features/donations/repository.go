// Package donations — repository.go: donation persistence and the
// idempotent settle transaction.
package donations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"comicku.id/economy/internal/common"
	"comicku.id/economy/internal/features/ledger"
)

// Repository persists donations.
type Repository struct {
	db     *pgxpool.Pool
	ledger *ledger.Repository
}

// NewRepository creates a donations repository.
func NewRepository(db *pgxpool.Pool, ledgerRepo *ledger.Repository) *Repository {
	return &Repository{db: db, ledger: ledgerRepo}
}

const donationColumns = `id, reference, user_id, amount, sender, contact, message, status, xp_awarded, created_at, paid_at`

func scanDonation(row pgx.Row) (*Donation, error) {
	var d Donation
	err := row.Scan(&d.ID, &d.Reference, &d.UserID, &d.Amount, &d.Sender,
		&d.Contact, &d.Message, &d.Status, &d.XPAwarded, &d.CreatedAt, &d.PaidAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Create inserts a pending intent.
func (r *Repository) Create(ctx context.Context, d *Donation) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO donations (reference, user_id, amount, sender, contact, message, status)
		VALUES ($1, $2, $3, $4, $5, $6, 'pending')
		RETURNING id, created_at
	`, d.Reference, d.UserID, d.Amount, d.Sender, d.Contact, d.Message).
		Scan(&d.ID, &d.CreatedAt)
	if err != nil {
		return fmt.Errorf("create donation: %w", err)
	}
	d.Status = StatusPending
	return nil
}

// GetByReference returns the donation for a gateway reference.
func (r *Repository) GetByReference(ctx context.Context, reference string) (*Donation, error) {
	d, err := scanDonation(r.db.QueryRow(ctx,
		`SELECT `+donationColumns+` FROM donations WHERE reference = $1`, reference))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrDonationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get donation: %w", err)
	}
	return d, nil
}

// Settle marks a donation paid and credits the XP bonus as one atomic
// unit. The not-yet-paid guard makes it idempotent: whichever of the
// webhook and the poller gets here first wins, the other sees
// settledNow=false and the already-settled row. Expired intents may
// still settle — the money did move. Safe to call again at any time.
func (r *Repository) Settle(ctx context.Context, reference string, idrPerXP int64) (*Donation, bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("begin settle tx: %w", err)
	}
	defer tx.Rollback(ctx)

	xpFor := func(amount int64) int64 { return amount / idrPerXP }

	d, err := scanDonation(tx.QueryRow(ctx, `
		UPDATE donations
		SET status = 'paid', paid_at = NOW(), xp_awarded = amount / $2
		WHERE reference = $1 AND status <> 'paid'
		RETURNING `+donationColumns,
		reference, idrPerXP))
	if errors.Is(err, pgx.ErrNoRows) {
		// Already settled (or expired/unknown): report without mutating.
		existing, err := r.GetByReference(ctx, reference)
		if err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("settle donation: %w", err)
	}

	if d.UserID != nil && xpFor(d.Amount) > 0 {
		description := fmt.Sprintf("Donation bonus (%s)", common.FormatRupiah(d.Amount))
		if err := r.ledger.CreditTx(ctx, tx, *d.UserID, ledger.CurrencyXP,
			xpFor(d.Amount), ledger.TxTypeDonationBonus, description); err != nil {
			return nil, false, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, fmt.Errorf("commit settle: %w", err)
	}
	return d, true, nil
}

// RecordExternal stores a payment reported by the gateway that has no
// matching intent. Already marked paid; no XP credit (no account to
// attribute it to). Duplicate webhook deliveries are absorbed by the
// unique reference.
func (r *Repository) RecordExternal(ctx context.Context, d *Donation) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO donations (reference, user_id, amount, sender, contact, message, status, paid_at)
		VALUES ($1, NULL, $2, $3, $4, $5, 'paid', NOW())
		ON CONFLICT (reference) DO NOTHING
	`, d.Reference, d.Amount, d.Sender, d.Contact, d.Message)
	if err != nil {
		return fmt.Errorf("record external donation: %w", err)
	}
	return nil
}

// ListPending returns pending intents created before cutoff, oldest
// first. Used by the reconciliation sweep.
func (r *Repository) ListPending(ctx context.Context, cutoff time.Time, limit int) ([]*Donation, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+donationColumns+`
		FROM donations
		WHERE status = 'pending' AND created_at < $1
		ORDER BY created_at
		LIMIT $2
	`, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending donations: %w", err)
	}
	defer rows.Close()

	var out []*Donation
	for rows.Next() {
		d, err := scanDonation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan donation: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// ExpireOlderThan abandons pending intents created before cutoff.
// The client can no longer resume these; a late gateway payment still
// lands via the webhook as an external record.
func (r *Repository) ExpireOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE donations SET status = 'expired'
		WHERE status = 'pending' AND created_at < $1
	`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("expire donations: %w", err)
	}
	return tag.RowsAffected(), nil
}
