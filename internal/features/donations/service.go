// Package donations — service.go: intent creation, settlement and the
// background reconciliation sweeps.
package donations

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"comicku.id/economy/internal/common"
	"comicku.id/economy/internal/gateway/saweria"
)

// Gateway is the payment provider surface the service needs.
type Gateway interface {
	CreateDonation(ctx context.Context, amount int64, sender, contact, message string) (*saweria.Intent, error)
	CheckStatus(ctx context.Context, reference string) (bool, error)
}

// Store is the persistence surface the service needs. *Repository
// satisfies it.
type Store interface {
	Create(ctx context.Context, d *Donation) error
	GetByReference(ctx context.Context, reference string) (*Donation, error)
	Settle(ctx context.Context, reference string, idrPerXP int64) (*Donation, bool, error)
	RecordExternal(ctx context.Context, d *Donation) error
	ListPending(ctx context.Context, cutoff time.Time, limit int) ([]*Donation, error)
	ExpireOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Service implements donation business logic.
type Service struct {
	store   Store
	gateway Gateway

	idrPerXP int64         // IDR per 1 XP credited
	expiry   time.Duration // pending intents older than this are abandoned
}

// NewService creates a donations service.
func NewService(store Store, gateway Gateway, idrPerXP int64, expiry time.Duration) *Service {
	if idrPerXP <= 0 {
		idrPerXP = 100
	}
	return &Service{store: store, gateway: gateway, idrPerXP: idrPerXP, expiry: expiry}
}

// CreateIntent opens a QRIS donation with the gateway and stores the
// pending intent attributed to userID. The gateway is called first: a
// provider failure leaves nothing behind.
func (s *Service) CreateIntent(ctx context.Context, userID string, amount int64, sender, contact, message string) (*IntentView, error) {
	if sender == "" {
		sender = "Pembaca Comicku"
	}

	intent, err := s.gateway.CreateDonation(ctx, amount, sender, contact, message)
	if err != nil {
		return nil, err
	}

	d := &Donation{
		Reference: intent.Reference,
		UserID:    &userID,
		Amount:    amount,
		Sender:    sender,
		Contact:   contact,
		Message:   message,
	}
	err = common.RetryOnce(ctx, func() error { return s.store.Create(ctx, d) })
	if err != nil {
		// The gateway intent exists but we lost the attribution. Surface
		// the fault; the reference is logged so support can credit by hand.
		log.WithFields(log.Fields{
			"reference": intent.Reference,
			"user_id":   userID,
			"amount":    amount,
		}).WithError(err).Error("donation intent created but not persisted")
		return nil, err
	}

	log.WithFields(log.Fields{
		"reference": d.Reference,
		"user_id":   userID,
		"amount":    amount,
	}).Info("donation intent created")
	return &IntentView{Reference: d.Reference, QRString: intent.QRString, Amount: amount}, nil
}

// GetStatus reports whether a donation has settled. If our row is still
// pending it polls the gateway on demand, so a missed webhook only
// delays the XP until the client's next poll.
func (s *Service) GetStatus(ctx context.Context, reference string) (*StatusView, error) {
	var d *Donation
	err := common.RetryOnce(ctx, func() error {
		var err error
		d, err = s.store.GetByReference(ctx, reference)
		return err
	})
	if err != nil {
		return nil, err
	}

	if d.Status == StatusPaid {
		return &StatusView{Reference: reference, Paid: true, XPAwarded: d.XPAwarded}, nil
	}

	paid, err := s.gateway.CheckStatus(ctx, reference)
	if err != nil {
		// The stored state still answers the poll; the client retries.
		log.WithField("reference", reference).WithError(err).Warn("donation status check failed")
		return &StatusView{Reference: reference, Paid: false}, nil
	}
	if !paid {
		return &StatusView{Reference: reference, Paid: false}, nil
	}

	return s.settle(ctx, reference, "poll")
}

// HandleWebhook processes a completed-donation push from the gateway.
// Known references settle the matching intent; unknown ones are stored
// as unattributed external payments.
func (s *Service) HandleWebhook(ctx context.Context, payload *WebhookPayload) error {
	reference := payload.ID
	if reference != "" {
		_, err := s.store.GetByReference(ctx, reference)
		if err == nil {
			_, settleErr := s.settle(ctx, reference, "webhook")
			return settleErr
		}
		if !errors.Is(err, common.ErrDonationNotFound) {
			return err
		}
	} else {
		// Some providers omit the id on test pings; keep the payment with
		// a synthetic reference so nothing is silently dropped.
		reference = "wh-" + uuid.NewString()
	}

	d := &Donation{
		Reference: reference,
		Amount:    payload.Amount,
		Sender:    payload.DonatorName,
		Contact:   payload.DonatorEmail,
		Message:   payload.Message,
	}
	err := common.RetryOnce(ctx, func() error { return s.store.RecordExternal(ctx, d) })
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"reference": reference,
		"amount":    payload.Amount,
		"sender":    payload.DonatorName,
	}).Info("external donation recorded")
	return nil
}

func (s *Service) settle(ctx context.Context, reference, via string) (*StatusView, error) {
	var (
		d          *Donation
		settledNow bool
	)
	err := common.RetryOnce(ctx, func() error {
		var err error
		d, settledNow, err = s.store.Settle(ctx, reference, s.idrPerXP)
		return err
	})
	if err != nil {
		return nil, err
	}
	if settledNow {
		fields := log.Fields{
			"reference":  reference,
			"amount":     d.Amount,
			"xp_awarded": d.XPAwarded,
			"via":        via,
		}
		if d.UserID != nil {
			fields["user_id"] = *d.UserID
		}
		log.WithFields(fields).Info("donation settled")
	}
	return &StatusView{Reference: reference, Paid: d.Status == StatusPaid, XPAwarded: d.XPAwarded}, nil
}

// ReconcilePending polls the gateway for intents that have been pending
// for at least grace and settles the ones that paid. Run from the
// scheduler; catches webhooks that never arrived.
func (s *Service) ReconcilePending(ctx context.Context, grace time.Duration, limit int) {
	pending, err := s.store.ListPending(ctx, common.Now().Add(-grace), limit)
	if err != nil {
		log.WithError(err).Error("donation reconciliation: list pending failed")
		return
	}

	settled := 0
	for _, d := range pending {
		paid, err := s.gateway.CheckStatus(ctx, d.Reference)
		if err != nil {
			log.WithField("reference", d.Reference).WithError(err).Warn("donation reconciliation: status check failed")
			continue
		}
		if !paid {
			continue
		}
		if _, err := s.settle(ctx, d.Reference, "reconcile"); err != nil {
			log.WithField("reference", d.Reference).WithError(err).Error("donation reconciliation: settle failed")
			continue
		}
		settled++
	}
	if settled > 0 {
		log.WithField("settled", settled).Info("donation reconciliation settled payments")
	}
}

// ExpireStale abandons pending intents older than the configured expiry.
// Run daily from the scheduler.
func (s *Service) ExpireStale(ctx context.Context) {
	if s.expiry <= 0 {
		return
	}
	n, err := s.store.ExpireOlderThan(ctx, common.Now().Add(-s.expiry))
	if err != nil {
		log.WithError(err).Error("donation expiry sweep failed")
		return
	}
	if n > 0 {
		log.WithField("expired", n).Info("stale donation intents expired")
	}
}
