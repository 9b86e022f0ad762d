package streak

import (
	"context"
	"errors"
	"testing"
	"time"

	"comicku.id/economy/internal/common"
	"comicku.id/economy/internal/features/ledger"
)

// fakeStore applies claims in memory with the same decision rules the
// repository runs under its row lock.
type fakeStore struct {
	schedule    Schedule
	scheduleErr error
	claimErr    error
	saved       *Schedule

	account *ledger.Account
	credits []Reward
}

func (f *fakeStore) GetSchedule(ctx context.Context) (Schedule, error) {
	return f.schedule, f.scheduleErr
}

func (f *fakeStore) SaveSchedule(ctx context.Context, s Schedule) error {
	f.saved = &s
	return nil
}

func (f *fakeStore) Claim(ctx context.Context, userID string, schedule Schedule, now time.Time) (Decision, error) {
	if f.claimErr != nil {
		return Decision{}, f.claimErr
	}
	d := EvaluateClaim(f.account, schedule, now)
	if d.AlreadyClaimed {
		return d, common.ErrAlreadyClaimed
	}
	f.account.Streak = d.NewStreak
	claimed := now
	f.account.LastClaimAt = &claimed
	if d.Reward.Amount > 0 {
		f.credits = append(f.credits, d.Reward)
	}
	return d, nil
}

func (f *fakeStore) GetAccount(ctx context.Context, userID string) (*ledger.Account, error) {
	return f.account, nil
}

func newTestService(store *fakeStore, now time.Time) *Service {
	s := NewService(store, store, 50)
	s.now = func() time.Time { return now }
	return s
}

func TestClaimHappyPath(t *testing.T) {
	now := time.Date(2025, 6, 11, 9, 0, 0, 0, common.Location())
	yesterday := now.AddDate(0, 0, -1)
	store := &fakeStore{
		schedule: DefaultSchedule(),
		account:  &ledger.Account{UserID: "u1", Streak: 1, LastClaimAt: &yesterday},
	}

	d, err := newTestService(store, now).Claim(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.NewStreak != 2 || d.Reward.Amount != 250 {
		t.Errorf("decision = %+v, want streak 2 paying 250", d)
	}
	if len(store.credits) != 1 {
		t.Errorf("credits = %d, want 1", len(store.credits))
	}
}

func TestClaimTwiceSameDay(t *testing.T) {
	now := time.Date(2025, 6, 11, 9, 0, 0, 0, common.Location())
	store := &fakeStore{
		schedule: DefaultSchedule(),
		account:  &ledger.Account{UserID: "u1"},
	}
	svc := newTestService(store, now)

	if _, err := svc.Claim(context.Background(), "u1"); err != nil {
		t.Fatalf("first claim: %v", err)
	}
	_, err := svc.Claim(context.Background(), "u1")
	if !errors.Is(err, common.ErrAlreadyClaimed) {
		t.Fatalf("second claim err = %v, want ErrAlreadyClaimed", err)
	}
	if len(store.credits) != 1 {
		t.Errorf("credits = %d, want 1 (double claim must not pay twice)", len(store.credits))
	}
}

func TestClaimDegradesOnBrokenSchedule(t *testing.T) {
	now := time.Date(2025, 6, 11, 9, 0, 0, 0, common.Location())
	store := &fakeStore{
		scheduleErr: errors.New("connection reset"),
		account:     &ledger.Account{UserID: "u1"},
	}

	d, err := newTestService(store, now).Claim(context.Background(), "u1")
	if err != nil {
		t.Fatalf("claim must survive a broken schedule, got %v", err)
	}
	if d.Reward.Amount != 50 || d.Reward.Kind != ledger.CurrencyXP {
		t.Errorf("reward = %+v, want fallback {xp 50}", d.Reward)
	}
}

func TestClaimStorageFaultSurfacesUnavailable(t *testing.T) {
	now := time.Date(2025, 6, 11, 9, 0, 0, 0, common.Location())
	store := &fakeStore{
		schedule: DefaultSchedule(),
		claimErr: errors.New("connection reset"),
		account:  &ledger.Account{UserID: "u1"},
	}

	_, err := newTestService(store, now).Claim(context.Background(), "u1")
	if !errors.Is(err, common.ErrLedgerUnavailable) {
		t.Fatalf("err = %v, want ErrLedgerUnavailable", err)
	}
}

func TestGetStatusPreviewsNextReward(t *testing.T) {
	now := time.Date(2025, 6, 11, 9, 0, 0, 0, common.Location())
	yesterday := now.AddDate(0, 0, -1)
	store := &fakeStore{
		schedule: DefaultSchedule(),
		account:  &ledger.Account{UserID: "u1", Streak: 2, LastClaimAt: &yesterday},
	}

	status, err := newTestService(store, now).GetStatus(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status.ClaimedToday {
		t.Error("ClaimedToday = true, want false")
	}
	if status.NextReward.Amount != 350 {
		t.Errorf("NextReward.Amount = %d, want 350 (day 3)", status.NextReward.Amount)
	}
}

func TestGetStatusAfterClaimPreviewsTomorrow(t *testing.T) {
	now := time.Date(2025, 6, 11, 9, 0, 0, 0, common.Location())
	claimed := now.Add(-2 * time.Hour)
	store := &fakeStore{
		schedule: DefaultSchedule(),
		account:  &ledger.Account{UserID: "u1", Streak: 2, LastClaimAt: &claimed},
	}

	status, err := newTestService(store, now).GetStatus(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !status.ClaimedToday {
		t.Error("ClaimedToday = false, want true")
	}
	if status.NextReward.Amount != 350 {
		t.Errorf("NextReward.Amount = %d, want 350 (tomorrow is day 3)", status.NextReward.Amount)
	}
}

func TestSaveScheduleRejectsInvalid(t *testing.T) {
	store := &fakeStore{schedule: DefaultSchedule()}
	svc := newTestService(store, time.Now())

	bad := Schedule{Days: []Reward{{ledger.CurrencyXP, 100}}}
	if err := svc.SaveSchedule(context.Background(), bad); !errors.Is(err, common.ErrInvalidSchedule) {
		t.Fatalf("err = %v, want ErrInvalidSchedule", err)
	}
	if store.saved != nil {
		t.Error("invalid schedule must not be saved")
	}

	if err := svc.SaveSchedule(context.Background(), DefaultSchedule()); err != nil {
		t.Fatalf("valid schedule: %v", err)
	}
	if store.saved == nil {
		t.Error("valid schedule was not saved")
	}
}
