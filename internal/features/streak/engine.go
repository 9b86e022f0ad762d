// Package streak — engine.go: pure claim-decision logic.
//
// Kept free of I/O so the rules are testable without a database: the
// repository re-runs EvaluateClaim under a row lock before applying.
package streak

import (
	"time"

	"comicku.id/economy/internal/common"
	"comicku.id/economy/internal/features/ledger"
)

// Normalize returns a schedule safe to index. A missing or short
// schedule degrades to fallbackXP of XP for every day; unknown kinds
// degrade to XP; negative amounts clamp to zero effect. Bad admin config
// must never fail a user's claim.
func Normalize(s Schedule, fallbackXP int64) Schedule {
	if len(s.Days) != 7 {
		days := make([]Reward, 7)
		for i := range days {
			days[i] = Reward{Kind: ledger.CurrencyXP, Amount: fallbackXP}
		}
		return Schedule{Days: days}
	}
	days := make([]Reward, 7)
	for i, d := range s.Days {
		if !d.Kind.Valid() {
			d.Kind = ledger.CurrencyXP
		}
		if d.Amount < 0 {
			d.Amount = 0
		}
		days[i] = d
	}
	return Schedule{Days: days}
}

// Validate reports whether a schedule is well-formed admin input:
// exactly 7 days, known kinds, positive amounts.
func Validate(s Schedule) error {
	if len(s.Days) != 7 {
		return common.ErrInvalidSchedule
	}
	for _, d := range s.Days {
		if !d.Kind.Valid() || d.Amount <= 0 {
			return common.ErrInvalidSchedule
		}
	}
	return nil
}

// EvaluateClaim decides a check-in attempt against the account's claim
// history. Calendar comparisons use the service timezone.
//
//   - last claim today            -> AlreadyClaimed
//   - last claim yesterday        -> streak + 1
//   - first claim or gap >= 2 days -> streak resets to 1
//
// The reward for the new streak is schedule.Days[(newStreak-1) mod 7].
// The schedule must already be Normalized.
func EvaluateClaim(account *ledger.Account, schedule Schedule, now time.Time) Decision {
	newStreak := 1
	if account.LastClaimAt != nil {
		switch {
		case common.SameDay(*account.LastClaimAt, now):
			return Decision{AlreadyClaimed: true}
		case common.IsYesterday(*account.LastClaimAt, now):
			newStreak = account.Streak + 1
		}
	}

	dayIndex := (newStreak - 1) % 7
	return Decision{
		NewStreak: newStreak,
		Reward:    schedule.Days[dayIndex],
	}
}
