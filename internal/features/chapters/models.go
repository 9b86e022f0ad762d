// Package chapters gates read access to paywalled chapters and performs
// the coin-for-access unlock transaction.
package chapters

import "time"

// LockedChapter is the admin-managed paywall config for one chapter.
// A chapter with no row, or with IsLocked false, is freely accessible
// regardless of the stored price.
type LockedChapter struct {
	ChapterID string    `db:"chapter_id" json:"chapterId"`
	ManhwaID  string    `db:"manhwa_id" json:"manhwaId,omitempty"` // parent series, admin filtering only
	Price     int64     `db:"price" json:"price"`
	IsLocked  bool      `db:"is_locked" json:"isLocked"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// UnlockRecord proves a user paid for permanent access to one chapter.
// At most one per (user, chapter); created exactly once by a successful
// unlock, deleted only by admin revocation.
type UnlockRecord struct {
	ID         int64     `db:"id" json:"-"`
	UserID     string    `db:"user_id" json:"userId"`
	ChapterID  string    `db:"chapter_id" json:"chapterId"`
	PricePaid  int64     `db:"price_paid" json:"pricePaid"`
	UnlockedAt time.Time `db:"unlocked_at" json:"unlockedAt"`
}

// Access is the outcome of an access check.
type Access struct {
	Unlocked bool  `json:"unlocked"`
	Price    int64 `json:"price,omitempty"` // set when locked
}
