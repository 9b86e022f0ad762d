package admin

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"testing"
	"time"

	"golang.org/x/crypto/argon2"

	"comicku.id/economy/internal/api"
	"comicku.id/economy/internal/common"
	"comicku.id/economy/internal/features/ledger"
)

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		t.Fatalf("salt: %v", err)
	}
	// Small parameters keep the test fast; the format is what matters.
	var (
		memory      uint32 = 1024
		iterations  uint32 = 1
		parallelism uint8  = 1
	)
	hash := argon2.IDKey([]byte(password), salt, iterations, memory, parallelism, 32)
	return fmt.Sprintf("$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s",
		memory, iterations, parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash))
}

func TestVerifyArgon2id(t *testing.T) {
	hash := hashPassword(t, "s3cret")

	if !verifyArgon2id("s3cret", hash) {
		t.Error("correct password rejected")
	}
	if verifyArgon2id("wrong", hash) {
		t.Error("wrong password accepted")
	}
	if verifyArgon2id("s3cret", "not-a-hash") {
		t.Error("malformed hash accepted")
	}
	if verifyArgon2id("s3cret", "$argon2id$v=19$m=oops$salt$hash") {
		t.Error("unparseable parameters accepted")
	}
}

func TestLogin(t *testing.T) {
	secret := "0123456789abcdef"
	svc := NewService(nil, hashPassword(t, "s3cret"), secret, time.Hour)

	token, err := svc.Login("s3cret")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	claims, err := api.ParseToken(secret, token)
	if err != nil {
		t.Fatalf("parse issued token: %v", err)
	}
	if !claims.IsAdmin {
		t.Error("IsAdmin = false, want true")
	}
	if claims.UserID != "admin" {
		t.Errorf("UserID = %q, want admin", claims.UserID)
	}

	if _, err := svc.Login("wrong"); !errors.Is(err, common.ErrWrongPassword) {
		t.Fatalf("err = %v, want ErrWrongPassword", err)
	}
}

// adjustRecorder captures ledger calls made by Adjust.
type adjustRecorder struct {
	credits, debits []int64
}

func (r *adjustRecorder) EnsureAccount(ctx context.Context, userID string) error { return nil }

func (r *adjustRecorder) GetAccount(ctx context.Context, userID string) (*ledger.Account, error) {
	return &ledger.Account{UserID: userID}, nil
}

func (r *adjustRecorder) Credit(ctx context.Context, userID string, currency ledger.Currency, amount int64, txType, description string) error {
	r.credits = append(r.credits, amount)
	return nil
}

func (r *adjustRecorder) Debit(ctx context.Context, userID string, amount int64, txType, description string) error {
	r.debits = append(r.debits, amount)
	return nil
}

func (r *adjustRecorder) GetTransactions(ctx context.Context, userID string, limit int) ([]*ledger.Transaction, error) {
	return nil, nil
}

func TestAdjust(t *testing.T) {
	rec := &adjustRecorder{}
	svc := NewService(ledger.NewService(rec), hashPassword(t, "x"), "0123456789abcdef", time.Hour)
	ctx := context.Background()

	if err := svc.Adjust(ctx, "u1", ledger.CurrencyXP, 500, "event bonus"); err != nil {
		t.Fatalf("credit adjust: %v", err)
	}
	if len(rec.credits) != 1 || rec.credits[0] != 500 {
		t.Errorf("credits = %v, want [500]", rec.credits)
	}

	if err := svc.Adjust(ctx, "u1", ledger.CurrencyCoin, -30, "refund reversal"); err != nil {
		t.Fatalf("debit adjust: %v", err)
	}
	if len(rec.debits) != 1 || rec.debits[0] != 30 {
		t.Errorf("debits = %v, want [30]", rec.debits)
	}

	if err := svc.Adjust(ctx, "u1", ledger.CurrencyXP, 0, ""); !errors.Is(err, common.ErrInvalidAmount) {
		t.Errorf("zero delta err = %v, want ErrInvalidAmount", err)
	}
	if err := svc.Adjust(ctx, "u1", ledger.CurrencyXP, -10, ""); !errors.Is(err, common.ErrInvalidAmount) {
		t.Errorf("xp debit err = %v, want ErrInvalidAmount (xp cannot be taken)", err)
	}
}
