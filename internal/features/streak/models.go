// Package streak implements the daily check-in streak: eligibility
// decisions, the configurable 7-day reward schedule and the atomic claim.
package streak

import (
	"comicku.id/economy/internal/features/ledger"
)

// Reward is what a successful check-in pays out.
type Reward struct {
	Kind   ledger.Currency `json:"kind"`
	Amount int64           `json:"amount"`
}

// Schedule maps streak day (index = (streak-1) mod 7) to a reward.
// Singleton configuration: admins write it, every claim reads it.
type Schedule struct {
	Days []Reward `json:"days"`
}

// DefaultSchedule is the seed written on first read: the platform's
// original XP ladder for days 1..7.
func DefaultSchedule() Schedule {
	return Schedule{Days: []Reward{
		{ledger.CurrencyXP, 150},
		{ledger.CurrencyXP, 250},
		{ledger.CurrencyXP, 350},
		{ledger.CurrencyXP, 450},
		{ledger.CurrencyXP, 550},
		{ledger.CurrencyXP, 700},
		{ledger.CurrencyXP, 1000},
	}}
}

// Decision is the outcome of evaluating a claim attempt.
type Decision struct {
	AlreadyClaimed bool   `json:"alreadyClaimed"`
	NewStreak      int    `json:"newStreak,omitempty"`
	Reward         Reward `json:"reward,omitempty"`
}

// Status is the read-only view for the check-in UI.
type Status struct {
	Streak       int      `json:"streak"`
	ClaimedToday bool     `json:"claimedToday"`
	NextReward   Reward   `json:"nextReward"`
	Schedule     []Reward `json:"schedule"`
}
