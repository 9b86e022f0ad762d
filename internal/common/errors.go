// Package common holds errors and helpers shared by every feature.
// Handlers use errors.Is on these sentinels to pick the HTTP status,
// so services must return them unwrapped or wrapped with %w.
package common

import "errors"

// Ledger errors.
var (
	// ErrInsufficientCoins is a business outcome, not a fault: the caller
	// must not retry it.
	ErrInsufficientCoins = errors.New("not enough coins")
	// ErrInvalidAmount rejects zero or negative amounts.
	ErrInvalidAmount = errors.New("amount must be positive")
	// ErrAccountNotFound means no account row exists for the user.
	ErrAccountNotFound = errors.New("account not found")
	// ErrLedgerUnavailable wraps storage faults. Services retry the
	// operation once before surfacing it.
	ErrLedgerUnavailable = errors.New("ledger temporarily unavailable")
)

// Streak errors.
var (
	// ErrAlreadyClaimed means the user already checked in today.
	// Informational: the second claim is a no-op, not a failure.
	ErrAlreadyClaimed = errors.New("daily reward already claimed today")
	// ErrInvalidSchedule marks a malformed reward schedule. The engine
	// degrades to defaults instead of failing the claim.
	ErrInvalidSchedule = errors.New("invalid reward schedule")
)

// Chapter access errors.
var (
	// ErrAlreadyUnlocked means an unlock record already exists. The user
	// keeps access and is not charged again.
	ErrAlreadyUnlocked = errors.New("chapter already unlocked")
	// ErrChapterNotLocked means the chapter is freely accessible.
	ErrChapterNotLocked = errors.New("chapter is not locked")
	// ErrUnlockNotFound means there is no unlock record to revoke.
	ErrUnlockNotFound = errors.New("unlock record not found")
)

// Donation errors.
var (
	// ErrDonationNotFound means no intent exists for the reference.
	ErrDonationNotFound = errors.New("donation not found")
	// ErrDonationPending means the gateway has not reported payment yet.
	ErrDonationPending = errors.New("donation still pending")
	// ErrAmountTooSmall mirrors the gateway minimum (1000 IDR).
	ErrAmountTooSmall = errors.New("donation amount below gateway minimum")
	// ErrGateway wraps payment provider failures. The provider message is
	// passed through to the user; account state is never touched.
	ErrGateway = errors.New("payment gateway error")
)

// Admin errors.
var (
	// ErrWrongPassword rejects a failed admin login.
	ErrWrongPassword = errors.New("wrong password")
	// ErrNotAdmin rejects a user token on an admin route.
	ErrNotAdmin = errors.New("admin privileges required")
)

var businessErrors = []error{
	ErrInsufficientCoins, ErrInvalidAmount, ErrAccountNotFound,
	ErrAlreadyClaimed, ErrAlreadyUnlocked, ErrChapterNotLocked,
	ErrUnlockNotFound, ErrDonationNotFound, ErrDonationPending,
	ErrAmountTooSmall, ErrWrongPassword, ErrNotAdmin,
}

// IsBusinessOutcome reports whether err is a business result rather than
// an infrastructure fault. Business outcomes are surfaced to the caller
// as-is and never retried; anything else counts as transient.
func IsBusinessOutcome(err error) bool {
	for _, be := range businessErrors {
		if errors.Is(err, be) {
			return true
		}
	}
	return false
}
