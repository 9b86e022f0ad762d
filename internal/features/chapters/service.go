// Package chapters — service.go: access decisions and orchestration.
package chapters

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"comicku.id/economy/internal/common"
)

// Store is the persistence surface the service needs. *Repository
// satisfies it; tests use an in-memory fake.
type Store interface {
	GetLock(ctx context.Context, chapterID string) (*LockedChapter, error)
	UpsertLock(ctx context.Context, lc *LockedChapter) error
	ListLocks(ctx context.Context, manhwaID string) ([]*LockedChapter, error)
	GetUnlock(ctx context.Context, userID, chapterID string) (*UnlockRecord, error)
	Unlock(ctx context.Context, userID, chapterID string, now time.Time) (*UnlockRecord, error)
	DeleteUnlock(ctx context.Context, userID, chapterID string) error
	MarkChapterRead(ctx context.Context, userID, chapterID string, xpBonus int64) error
}

// Service gates chapter access.
type Service struct {
	store        Store
	cache        *LockCache
	xpPerChapter int64
	now          func() time.Time
}

// NewService creates a chapters service. cache may be nil.
func NewService(store Store, cache *LockCache, xpPerChapter int64) *Service {
	return &Service{
		store:        store,
		cache:        cache,
		xpPerChapter: xpPerChapter,
		now:          common.Now,
	}
}

// lockFor resolves the lock config through the cache.
func (s *Service) lockFor(ctx context.Context, chapterID string) (*LockedChapter, error) {
	if lock, hit := s.cache.Get(ctx, chapterID); hit {
		return lock, nil
	}
	lock, err := s.store.GetLock(ctx, chapterID)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, chapterID, lock)
	return lock, nil
}

// CheckAccess decides whether the user may read the chapter.
// No lock row, an unlocked config, or an existing unlock record all mean
// free access; otherwise the price is reported.
func (s *Service) CheckAccess(ctx context.Context, userID, chapterID string) (*Access, error) {
	var access *Access
	err := common.RetryOnce(ctx, func() error {
		lock, err := s.lockFor(ctx, chapterID)
		if err != nil {
			return err
		}
		if lock == nil || !lock.IsLocked {
			access = &Access{Unlocked: true}
			return nil
		}

		record, err := s.store.GetUnlock(ctx, userID, chapterID)
		if err != nil {
			return err
		}
		if record != nil {
			access = &Access{Unlocked: true}
			return nil
		}
		access = &Access{Unlocked: false, Price: lock.Price}
		return nil
	})
	return access, err
}

// Unlock performs the pay-to-unlock purchase. ErrChapterNotLocked and
// ErrAlreadyUnlocked are idempotency outcomes: the caller already has
// access and no coins moved.
func (s *Service) Unlock(ctx context.Context, userID, chapterID string) (*UnlockRecord, error) {
	var record *UnlockRecord
	err := common.RetryOnce(ctx, func() error {
		var err error
		record, err = s.store.Unlock(ctx, userID, chapterID, s.now())
		return err
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"user_id":    userID,
		"chapter_id": chapterID,
		"price":      record.PricePaid,
	}).Info("chapter unlocked")
	return record, nil
}

// MarkChapterRead counts a chapter view and credits the XP bonus.
// Deliberately not deduplicated per (user, chapter): mirrors the
// platform's reader behavior.
func (s *Service) MarkChapterRead(ctx context.Context, userID, chapterID string) error {
	return common.RetryOnce(ctx, func() error {
		return s.store.MarkChapterRead(ctx, userID, chapterID, s.xpPerChapter)
	})
}

// SetLock creates or updates a chapter's paywall config (admin) and
// drops the cached entry.
func (s *Service) SetLock(ctx context.Context, lc *LockedChapter) error {
	if lc.Price < 0 {
		return common.ErrInvalidAmount
	}
	err := common.RetryOnce(ctx, func() error {
		return s.store.UpsertLock(ctx, lc)
	})
	if err != nil {
		return err
	}
	s.cache.Invalidate(ctx, lc.ChapterID)
	return nil
}

// ListLocks returns paywall configs for the admin dashboard.
func (s *Service) ListLocks(ctx context.Context, manhwaID string) ([]*LockedChapter, error) {
	var locks []*LockedChapter
	err := common.RetryOnce(ctx, func() error {
		var err error
		locks, err = s.store.ListLocks(ctx, manhwaID)
		return err
	})
	return locks, err
}

// RevokeUnlock deletes an unlock record (admin).
func (s *Service) RevokeUnlock(ctx context.Context, userID, chapterID string) error {
	return common.RetryOnce(ctx, func() error {
		return s.store.DeleteUnlock(ctx, userID, chapterID)
	})
}
