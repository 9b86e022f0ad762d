// Package admin provides operator endpoints: login, manual balance
// adjustments, chapter paywall management and reward schedule edits.
package admin

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"comicku.id/economy/internal/api"
	"comicku.id/economy/internal/common"
	"comicku.id/economy/internal/features/ledger"
)

// Service implements operator actions.
type Service struct {
	ledger *ledger.Service

	passwordHash string // Argon2id hash of the operator password
	jwtSecret    string
	tokenTTL     time.Duration
}

// NewService creates an admin service.
func NewService(ledgerService *ledger.Service, passwordHash, jwtSecret string, tokenTTL time.Duration) *Service {
	return &Service{
		ledger:       ledgerService,
		passwordHash: passwordHash,
		jwtSecret:    jwtSecret,
		tokenTTL:     tokenTTL,
	}
}

// Login checks the operator password and issues an admin token.
func (s *Service) Login(password string) (string, error) {
	if !verifyArgon2id(password, s.passwordHash) {
		return "", common.ErrWrongPassword
	}
	return api.GenerateToken(s.jwtSecret, "admin", true, s.tokenTTL)
}

// Adjust changes a user's balance by delta. Positive deltas credit,
// negative deltas debit; only coins can be debited, and a debit still
// fails on insufficient funds rather than going negative.
func (s *Service) Adjust(ctx context.Context, userID string, currency ledger.Currency, delta int64, reason string) error {
	if delta == 0 {
		return common.ErrInvalidAmount
	}
	if reason == "" {
		reason = "Balance adjustment"
	}

	var err error
	if delta > 0 {
		err = s.ledger.Credit(ctx, userID, currency, delta, ledger.TxTypeAdminGive, reason)
	} else {
		if currency != ledger.CurrencyCoin {
			return common.ErrInvalidAmount
		}
		err = s.ledger.Debit(ctx, userID, -delta, ledger.TxTypeAdminTake, reason)
	}
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"user_id":  userID,
		"currency": currency,
		"delta":    delta,
		"reason":   reason,
	}).Info("admin balance adjustment")
	return nil
}
