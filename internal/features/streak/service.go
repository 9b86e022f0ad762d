// Package streak — service.go: orchestration between the schedule
// config, the pure engine and the claim transaction.
package streak

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"comicku.id/economy/internal/common"
	"comicku.id/economy/internal/features/ledger"
)

// Store is the persistence surface the service needs. *Repository
// satisfies it; tests use an in-memory fake.
type Store interface {
	GetSchedule(ctx context.Context) (Schedule, error)
	SaveSchedule(ctx context.Context, s Schedule) error
	Claim(ctx context.Context, userID string, schedule Schedule, now time.Time) (Decision, error)
}

// AccountReader provides the account view needed for Status.
type AccountReader interface {
	GetAccount(ctx context.Context, userID string) (*ledger.Account, error)
}

// Service manages daily check-ins.
type Service struct {
	store      Store
	accounts   AccountReader
	fallbackXP int64
	now        func() time.Time
}

// NewService creates a streak service. fallbackXP is the per-day XP used
// when the configured schedule is unusable.
func NewService(store Store, accounts AccountReader, fallbackXP int64) *Service {
	return &Service{
		store:      store,
		accounts:   accounts,
		fallbackXP: fallbackXP,
		now:        common.Now,
	}
}

// loadSchedule fetches and normalizes the schedule. Config problems are
// logged and degraded, never returned: a broken schedule must not block
// a user's claim.
func (s *Service) loadSchedule(ctx context.Context) Schedule {
	schedule, err := s.store.GetSchedule(ctx)
	if err != nil {
		log.WithError(err).Warn("reward schedule unavailable, using fallback")
		return Normalize(Schedule{}, s.fallbackXP)
	}
	return Normalize(schedule, s.fallbackXP)
}

// Claim performs today's check-in for the user. Returns the applied
// decision, or ErrAlreadyClaimed with no mutation if the user already
// checked in today.
func (s *Service) Claim(ctx context.Context, userID string) (Decision, error) {
	schedule := s.loadSchedule(ctx)
	now := s.now()

	var decision Decision
	err := common.RetryOnce(ctx, func() error {
		var err error
		decision, err = s.store.Claim(ctx, userID, schedule, now)
		return err
	})
	if err != nil {
		return decision, err
	}

	log.WithFields(log.Fields{
		"user_id": userID,
		"day":     decision.NewStreak,
		"kind":    decision.Reward.Kind,
		"amount":  decision.Reward.Amount,
	}).Info("daily check-in claimed")
	return decision, nil
}

// GetStatus returns the check-in view: current streak, whether today is
// already claimed, and what the next claim would pay.
func (s *Service) GetStatus(ctx context.Context, userID string) (*Status, error) {
	account, err := s.accounts.GetAccount(ctx, userID)
	if err != nil {
		return nil, err
	}

	schedule := s.loadSchedule(ctx)
	decision := EvaluateClaim(account, schedule, s.now())

	status := &Status{
		Streak:       account.Streak,
		ClaimedToday: decision.AlreadyClaimed,
		Schedule:     schedule.Days,
	}
	if decision.AlreadyClaimed {
		// Preview tomorrow's reward instead.
		next := account.Streak + 1
		status.NextReward = schedule.Days[(next-1)%7]
	} else {
		status.NextReward = decision.Reward
	}
	return status, nil
}

// GetSchedule returns the normalized schedule (admin view).
func (s *Service) GetSchedule(ctx context.Context) Schedule {
	return s.loadSchedule(ctx)
}

// SaveSchedule validates and stores a new schedule (admin only).
func (s *Service) SaveSchedule(ctx context.Context, schedule Schedule) error {
	if err := Validate(schedule); err != nil {
		return err
	}
	return common.RetryOnce(ctx, func() error {
		return s.store.SaveSchedule(ctx, schedule)
	})
}
