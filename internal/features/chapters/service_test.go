package chapters

import (
	"context"
	"errors"
	"testing"
	"time"

	"comicku.id/economy/internal/common"
)

// fakeStore keeps lock configs, balances and unlock records in memory,
// applying the same rules the repository enforces in its transaction.
type fakeStore struct {
	locks   map[string]*LockedChapter
	unlocks map[string]*UnlockRecord // key user|chapter
	coins   map[string]int64
	xp      map[string]int64
	read    map[string]int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		locks:   make(map[string]*LockedChapter),
		unlocks: make(map[string]*UnlockRecord),
		coins:   make(map[string]int64),
		xp:      make(map[string]int64),
		read:    make(map[string]int64),
	}
}

func key(userID, chapterID string) string { return userID + "|" + chapterID }

func (f *fakeStore) GetLock(ctx context.Context, chapterID string) (*LockedChapter, error) {
	return f.locks[chapterID], nil
}

func (f *fakeStore) UpsertLock(ctx context.Context, lc *LockedChapter) error {
	f.locks[lc.ChapterID] = lc
	return nil
}

func (f *fakeStore) ListLocks(ctx context.Context, manhwaID string) ([]*LockedChapter, error) {
	var out []*LockedChapter
	for _, lc := range f.locks {
		if manhwaID == "" || lc.ManhwaID == manhwaID {
			out = append(out, lc)
		}
	}
	return out, nil
}

func (f *fakeStore) GetUnlock(ctx context.Context, userID, chapterID string) (*UnlockRecord, error) {
	return f.unlocks[key(userID, chapterID)], nil
}

func (f *fakeStore) Unlock(ctx context.Context, userID, chapterID string, now time.Time) (*UnlockRecord, error) {
	lock := f.locks[chapterID]
	if lock == nil || !lock.IsLocked {
		return nil, common.ErrChapterNotLocked
	}
	if f.unlocks[key(userID, chapterID)] != nil {
		return nil, common.ErrAlreadyUnlocked
	}
	if lock.Price > 0 {
		if f.coins[userID] < lock.Price {
			return nil, common.ErrInsufficientCoins
		}
		f.coins[userID] -= lock.Price
	}
	record := &UnlockRecord{
		UserID: userID, ChapterID: chapterID,
		PricePaid: lock.Price, UnlockedAt: now,
	}
	f.unlocks[key(userID, chapterID)] = record
	return record, nil
}

func (f *fakeStore) DeleteUnlock(ctx context.Context, userID, chapterID string) error {
	k := key(userID, chapterID)
	if f.unlocks[k] == nil {
		return common.ErrUnlockNotFound
	}
	delete(f.unlocks, k)
	return nil
}

func (f *fakeStore) MarkChapterRead(ctx context.Context, userID, chapterID string, xpBonus int64) error {
	f.read[userID]++
	f.xp[userID] += xpBonus
	return nil
}

func newTestService(store *fakeStore) *Service {
	// nil cache: the service must work without Redis.
	return NewService(store, nil, 50)
}

func TestCheckAccess(t *testing.T) {
	store := newFakeStore()
	store.locks["ch-locked"] = &LockedChapter{ChapterID: "ch-locked", Price: 30, IsLocked: true}
	store.locks["ch-free"] = &LockedChapter{ChapterID: "ch-free", Price: 30, IsLocked: false}
	store.unlocks[key("u1", "ch-owned")] = &UnlockRecord{UserID: "u1", ChapterID: "ch-owned"}
	store.locks["ch-owned"] = &LockedChapter{ChapterID: "ch-owned", Price: 30, IsLocked: true}
	svc := newTestService(store)
	ctx := context.Background()

	tests := []struct {
		name      string
		chapterID string
		want      Access
	}{
		{"no lock row", "ch-unknown", Access{Unlocked: true}},
		{"lock disabled", "ch-free", Access{Unlocked: true}},
		{"locked and unpaid", "ch-locked", Access{Unlocked: false, Price: 30}},
		{"locked but owned", "ch-owned", Access{Unlocked: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.CheckAccess(ctx, "u1", tt.chapterID)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if *got != tt.want {
				t.Errorf("access = %+v, want %+v", *got, tt.want)
			}
		})
	}
}

func TestUnlockChargesOnce(t *testing.T) {
	store := newFakeStore()
	store.locks["ch1"] = &LockedChapter{ChapterID: "ch1", Price: 30, IsLocked: true}
	store.coins["u1"] = 100
	svc := newTestService(store)
	ctx := context.Background()

	record, err := svc.Unlock(ctx, "u1", "ch1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record.PricePaid != 30 {
		t.Errorf("PricePaid = %d, want 30", record.PricePaid)
	}
	if store.coins["u1"] != 70 {
		t.Errorf("coins = %d, want 70", store.coins["u1"])
	}

	// Second unlock must not charge again.
	_, err = svc.Unlock(ctx, "u1", "ch1")
	if !errors.Is(err, common.ErrAlreadyUnlocked) {
		t.Fatalf("err = %v, want ErrAlreadyUnlocked", err)
	}
	if store.coins["u1"] != 70 {
		t.Errorf("coins = %d, want 70 after repeat unlock", store.coins["u1"])
	}
}

func TestUnlockInsufficientCoins(t *testing.T) {
	store := newFakeStore()
	store.locks["ch1"] = &LockedChapter{ChapterID: "ch1", Price: 30, IsLocked: true}
	store.coins["u1"] = 10
	svc := newTestService(store)

	_, err := svc.Unlock(context.Background(), "u1", "ch1")
	if !errors.Is(err, common.ErrInsufficientCoins) {
		t.Fatalf("err = %v, want ErrInsufficientCoins", err)
	}
	if store.coins["u1"] != 10 {
		t.Errorf("coins = %d, want 10 (failed unlock must not charge)", store.coins["u1"])
	}
	if store.unlocks[key("u1", "ch1")] != nil {
		t.Error("failed unlock must not leave a record")
	}
}

func TestUnlockNotLocked(t *testing.T) {
	svc := newTestService(newFakeStore())

	_, err := svc.Unlock(context.Background(), "u1", "ch-free")
	if !errors.Is(err, common.ErrChapterNotLocked) {
		t.Fatalf("err = %v, want ErrChapterNotLocked", err)
	}
}

func TestUnlockFreePrice(t *testing.T) {
	store := newFakeStore()
	store.locks["ch1"] = &LockedChapter{ChapterID: "ch1", Price: 0, IsLocked: true}
	svc := newTestService(store)

	record, err := svc.Unlock(context.Background(), "u1", "ch1")
	if err != nil {
		t.Fatalf("zero-price unlock: %v", err)
	}
	if record.PricePaid != 0 {
		t.Errorf("PricePaid = %d, want 0", record.PricePaid)
	}
}

func TestMarkChapterRead(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := svc.MarkChapterRead(ctx, "u1", "ch1"); err != nil {
			t.Fatalf("mark read: %v", err)
		}
	}
	if store.read["u1"] != 3 {
		t.Errorf("chapters read = %d, want 3 (rereads count)", store.read["u1"])
	}
	if store.xp["u1"] != 150 {
		t.Errorf("xp = %d, want 150", store.xp["u1"])
	}
}

func TestSetLockRejectsNegativePrice(t *testing.T) {
	svc := newTestService(newFakeStore())

	err := svc.SetLock(context.Background(), &LockedChapter{ChapterID: "ch1", Price: -5, IsLocked: true})
	if !errors.Is(err, common.ErrInvalidAmount) {
		t.Fatalf("err = %v, want ErrInvalidAmount", err)
	}
}

func TestRevokeUnlock(t *testing.T) {
	store := newFakeStore()
	store.unlocks[key("u1", "ch1")] = &UnlockRecord{UserID: "u1", ChapterID: "ch1"}
	svc := newTestService(store)
	ctx := context.Background()

	if err := svc.RevokeUnlock(ctx, "u1", "ch1"); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if err := svc.RevokeUnlock(ctx, "u1", "ch1"); !errors.Is(err, common.ErrUnlockNotFound) {
		t.Fatalf("second revoke err = %v, want ErrUnlockNotFound", err)
	}
}
