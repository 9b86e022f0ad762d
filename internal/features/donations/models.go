// Package donations bridges the Saweria payment gateway to the ledger:
// donation intents, status polling, webhook settlement and the
// donation-to-XP credit.
package donations

import "time"

// Donation statuses.
const (
	StatusPending = "pending"
	StatusPaid    = "paid"
	StatusExpired = "expired"
)

// Donation is one payment intent (or an externally reported payment).
// The gateway reference is unique: settling is conditional on not being
// paid yet, so a webhook and a poll racing on the same reference credit
// exactly once.
type Donation struct {
	ID        int64      `db:"id"`
	Reference string     `db:"reference"`
	UserID    *string    `db:"user_id"` // nil for unattributed webhook payments
	Amount    int64      `db:"amount"`  // IDR
	Sender    string     `db:"sender"`
	Contact   string     `db:"contact"`
	Message   string     `db:"message"`
	Status    string     `db:"status"`
	XPAwarded int64      `db:"xp_awarded"`
	CreatedAt time.Time  `db:"created_at"`
	PaidAt    *time.Time `db:"paid_at"`
}

// IntentView is what the client needs to render the QR payment.
type IntentView struct {
	Reference string `json:"paymentReference"`
	QRString  string `json:"qrString"`
	Amount    int64  `json:"amount"`
}

// StatusView is the polling response.
type StatusView struct {
	Reference string `json:"paymentReference"`
	Paid      bool   `json:"paid"`
	XPAwarded int64  `json:"xpAwarded,omitempty"`
}

// WebhookPayload is what Saweria pushes on a completed donation.
type WebhookPayload struct {
	ID           string `json:"id"`
	Amount       int64  `json:"amount"`
	DonatorName  string `json:"donator_name"`
	DonatorEmail string `json:"donator_email"`
	Message      string `json:"message"`
}
