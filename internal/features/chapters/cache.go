// Package chapters — cache.go: Redis read-through cache for lock config.
//
// Lock config is read on every chapter open and written only by admins,
// so a short TTL plus invalidation on admin save is enough. Absent rows
// are cached too (most chapters are not paywalled). Cache failures only
// log: Postgres stays the source of truth.
package chapters

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const lockKeyPrefix = "chapter_lock:"

// cacheEntry wraps a lock row so "no row" is cacheable.
type cacheEntry struct {
	Missing bool           `json:"missing,omitempty"`
	Lock    *LockedChapter `json:"lock,omitempty"`
}

// LockCache caches LockedChapter rows in Redis.
type LockCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewLockCache creates a lock cache. A nil client disables caching.
func NewLockCache(rdb *redis.Client, ttl time.Duration) *LockCache {
	return &LockCache{rdb: rdb, ttl: ttl}
}

// Get returns the cached entry for a chapter. The second result is
// false on a miss (or when caching is disabled).
func (c *LockCache) Get(ctx context.Context, chapterID string) (*LockedChapter, bool) {
	if c == nil || c.rdb == nil {
		return nil, false
	}
	raw, err := c.rdb.Get(ctx, lockKeyPrefix+chapterID).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.WithError(err).Debug("lock cache read failed")
		}
		return nil, false
	}
	var entry cacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, false
	}
	if entry.Missing {
		return nil, true
	}
	return entry.Lock, true
}

// Set stores the lock row (or its absence when lock is nil).
func (c *LockCache) Set(ctx context.Context, chapterID string, lock *LockedChapter) {
	if c == nil || c.rdb == nil {
		return
	}
	entry := cacheEntry{Lock: lock, Missing: lock == nil}
	raw, err := json.Marshal(entry)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, lockKeyPrefix+chapterID, raw, c.ttl).Err(); err != nil {
		log.WithError(err).Debug("lock cache write failed")
	}
}

// Invalidate drops the cached entry after an admin save.
func (c *LockCache) Invalidate(ctx context.Context, chapterID string) {
	if c == nil || c.rdb == nil {
		return
	}
	if err := c.rdb.Del(ctx, lockKeyPrefix+chapterID).Err(); err != nil {
		log.WithError(err).Debug("lock cache invalidate failed")
	}
}
