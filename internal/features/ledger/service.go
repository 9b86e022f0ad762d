// Package ledger — service.go: validation and retry policy on top of the
// repository. Storage faults are retried once with a short backoff and
// then surfaced as ErrLedgerUnavailable; business outcomes pass through
// untouched.
package ledger

import (
	"context"
	"fmt"
	"time"

	"comicku.id/economy/internal/common"
)

// Store is the persistence surface the service needs. *Repository
// satisfies it; tests use an in-memory fake.
type Store interface {
	EnsureAccount(ctx context.Context, userID string) error
	GetAccount(ctx context.Context, userID string) (*Account, error)
	Credit(ctx context.Context, userID string, currency Currency, amount int64, txType, description string) error
	Debit(ctx context.Context, userID string, amount int64, txType, description string) error
	GetTransactions(ctx context.Context, userID string, limit int) ([]*Transaction, error)
}

// Service manages the account ledger.
type Service struct {
	store Store
}

// NewService creates a ledger service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Credit adds xp or coins to an account. Always succeeds for a valid
// amount (no upper bound).
func (s *Service) Credit(ctx context.Context, userID string, currency Currency, amount int64, txType, description string) error {
	if amount <= 0 {
		return common.ErrInvalidAmount
	}
	if !currency.Valid() {
		return fmt.Errorf("unknown currency %q", currency)
	}
	return common.RetryOnce(ctx, func() error {
		return s.store.Credit(ctx, userID, currency, amount, txType, description)
	})
}

// Debit removes coins from an account, failing with ErrInsufficientCoins
// if the balance does not cover the amount. No partial mutation on failure.
func (s *Service) Debit(ctx context.Context, userID string, amount int64, txType, description string) error {
	if amount <= 0 {
		return common.ErrInvalidAmount
	}
	return common.RetryOnce(ctx, func() error {
		return s.store.Debit(ctx, userID, amount, txType, description)
	})
}

// GetAccount returns the account, creating it on first touch.
func (s *Service) GetAccount(ctx context.Context, userID string) (*Account, error) {
	var a *Account
	err := common.RetryOnce(ctx, func() error {
		if err := s.store.EnsureAccount(ctx, userID); err != nil {
			return err
		}
		var err error
		a, err = s.store.GetAccount(ctx, userID)
		return err
	})
	return a, err
}

// Summary is the account plus derived gamification state.
type Summary struct {
	UserID       string  `json:"userId"`
	XP           int64   `json:"xp"`
	Coins        int64   `json:"coins"`
	ChaptersRead int64   `json:"chaptersRead"`
	Streak       int     `json:"streak"`
	LastClaimAt  *string `json:"lastClaimAt,omitempty"`
	Level        int     `json:"level"`
	NextLevelXP  int64   `json:"nextLevelXp"`
	Progress     float64 `json:"progress"`
	Badges       []Badge `json:"badges"`
}

// GetSummary returns the account with level, progress and badges.
func (s *Service) GetSummary(ctx context.Context, userID string) (*Summary, error) {
	a, err := s.GetAccount(ctx, userID)
	if err != nil {
		return nil, err
	}

	level := Level(a.XP)
	sum := &Summary{
		UserID:       a.UserID,
		XP:           a.XP,
		Coins:        a.Coins,
		ChaptersRead: a.ChaptersRead,
		Streak:       a.Streak,
		Level:        level,
		NextLevelXP:  NextLevelXP(level),
		Progress:     Progress(a.XP, level),
		Badges:       EarnedBadges(a),
	}
	if a.LastClaimAt != nil {
		ts := a.LastClaimAt.Format(time.RFC3339)
		sum.LastClaimAt = &ts
	}
	return sum, nil
}

// GetTransactions returns the latest movements on an account.
func (s *Service) GetTransactions(ctx context.Context, userID string, limit int) ([]*Transaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var txs []*Transaction
	err := common.RetryOnce(ctx, func() error {
		var err error
		txs, err = s.store.GetTransactions(ctx, userID, limit)
		return err
	})
	return txs, err
}
