// Package jobs runs the background cron tasks: donation reconciliation
// and the stale-intent expiry sweep.
package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"comicku.id/economy/internal/common"
	"comicku.id/economy/internal/features/donations"
)

// Pending intents younger than this are left to the client's own
// polling; the sweep only chases the ones the client gave up on.
const reconcileGrace = 2 * time.Minute

const reconcileBatch = 100

// Scheduler manages the background tasks.
type Scheduler struct {
	cron      *cron.Cron
	donations *donations.Service
}

// NewScheduler creates the task scheduler in the service timezone, so
// "daily" jobs fire at local midnight rather than UTC midnight.
func NewScheduler(donationService *donations.Service) *Scheduler {
	return &Scheduler{
		cron:      cron.New(cron.WithLocation(common.Location())),
		donations: donationService,
	}
}

// Start registers and launches all background tasks. A nil donations
// service (feature disabled) leaves the scheduler idle.
func (s *Scheduler) Start(ctx context.Context) {
	if s.donations != nil {
		// Catch payments whose webhook never arrived.
		s.cron.AddFunc("* * * * *", func() {
			log.Debug("[CRON] donation reconciliation")
			s.donations.ReconcilePending(ctx, reconcileGrace, reconcileBatch)
		})

		// Abandon intents nobody ever paid.
		s.cron.AddFunc("5 0 * * *", func() {
			log.Info("[CRON] donation expiry sweep")
			s.donations.ExpireStale(ctx)
		})
	}

	s.cron.Start()
	log.WithField("timezone", common.Location().String()).Info("task scheduler started")
}

// Stop halts the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("task scheduler stopped")
}
