// Package app wires the application together: database pool,
// migrations, Redis, the payment gateway, repositories, services,
// handlers, the HTTP engine and the scheduler.
package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"comicku.id/economy/internal/api/routes"
	"comicku.id/economy/internal/config"
	"comicku.id/economy/internal/db/postgres"
	"comicku.id/economy/internal/features/admin"
	"comicku.id/economy/internal/features/chapters"
	"comicku.id/economy/internal/features/donations"
	"comicku.id/economy/internal/features/ledger"
	"comicku.id/economy/internal/features/streak"
	"comicku.id/economy/internal/gateway/saweria"
	"comicku.id/economy/internal/jobs"
)

// App holds every long-lived component.
type App struct {
	Engine    *gin.Engine
	Scheduler *jobs.Scheduler
	DB        *pgxpool.Pool
	Redis     *redis.Client
}

// New creates and initializes the application. Initialization order
// matters: components depend on each other.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// === 1. Database ===
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := runMigrations(ctx, pool); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	// === 2. Redis (lock-config cache; the service runs without it) ===
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.WithError(err).Warn("redis unreachable, chapter lock cache disabled")
		rdb = nil
	}

	// === 3. Payment gateway ===
	var gateway donations.Gateway
	if cfg.FeatureDonationsEnabled {
		gateway = saweria.NewClient(cfg.SaweriaUsername,
			cfg.SaweriaFrontendURL, cfg.SaweriaBackendURL, cfg.SaweriaTimeout)
	}

	// === 4. Repositories ===
	ledgerRepo := ledger.NewRepository(pool)
	streakRepo := streak.NewRepository(pool, ledgerRepo)
	chapterRepo := chapters.NewRepository(pool, ledgerRepo)
	donationRepo := donations.NewRepository(pool, ledgerRepo)

	// === 5. Services ===
	ledgerService := ledger.NewService(ledgerRepo)
	streakService := streak.NewService(streakRepo, ledgerRepo, cfg.StreakFallbackRewardXP)
	chapterService := chapters.NewService(chapterRepo,
		chapters.NewLockCache(rdb, cfg.LockCacheTTL), cfg.XPPerChapter)
	adminService := admin.NewService(ledgerService,
		cfg.AdminPasswordHash, cfg.JWTSecret, cfg.AdminTokenTTL)

	var donationService *donations.Service
	if cfg.FeatureDonationsEnabled {
		donationService = donations.NewService(donationRepo, gateway,
			cfg.DonationIDRPerXP, cfg.DonationExpiry)
	}

	// === 6. Handlers and routes ===
	handlers := &routes.Handlers{
		Ledger:   ledger.NewHandler(ledgerService),
		Streak:   streak.NewHandler(streakService),
		Chapters: chapters.NewHandler(chapterService),
		Admin:    admin.NewHandler(adminService, chapterService, streakService),
	}
	if donationService != nil {
		handlers.Donations = donations.NewHandler(donationService)
	}
	engine := routes.New(cfg, handlers)

	// === 7. Scheduler ===
	scheduler := jobs.NewScheduler(donationService)

	return &App{
		Engine:    engine,
		Scheduler: scheduler,
		DB:        pool,
		Redis:     rdb,
	}, nil
}

// Close releases the long-lived resources.
func (a *App) Close() {
	if a.Redis != nil {
		a.Redis.Close()
	}
	a.DB.Close()
}

// runMigrations applies all SQL migrations in order.
func runMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	if err := postgres.InitMigrations(ctx, pool); err != nil {
		return err
	}

	migrations := []struct {
		version int
		sql     string
	}{
		{1, migration001Accounts},
		{2, migration002RewardSchedules},
		{3, migration003Chapters},
		{4, migration004Donations},
	}

	for _, m := range migrations {
		if err := postgres.ExecMigrationSQL(ctx, pool, m.version, m.sql); err != nil {
			return fmt.Errorf("migration %d: %w", m.version, err)
		}
		log.Infof("migration %d applied", m.version)
	}

	return nil
}

// SQL migrations are embedded in the binary to keep deployment to a
// single artifact.

var migration001Accounts = `
CREATE TABLE IF NOT EXISTS accounts (
    id BIGSERIAL PRIMARY KEY,
    user_id VARCHAR(64) UNIQUE NOT NULL,
    xp BIGINT NOT NULL DEFAULT 0,
    coins BIGINT NOT NULL DEFAULT 0 CHECK (coins >= 0),
    chapters_read BIGINT NOT NULL DEFAULT 0,
    streak INTEGER NOT NULL DEFAULT 0,
    last_claim_at TIMESTAMPTZ,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_accounts_user_id ON accounts(user_id);

CREATE TABLE IF NOT EXISTS account_transactions (
    id BIGSERIAL PRIMARY KEY,
    user_id VARCHAR(64) NOT NULL,
    currency VARCHAR(8) NOT NULL,
    direction VARCHAR(8) NOT NULL,
    amount BIGINT NOT NULL,
    tx_type VARCHAR(50) NOT NULL,
    description TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_account_transactions_user ON account_transactions(user_id, created_at DESC);
`

var migration002RewardSchedules = `
CREATE TABLE IF NOT EXISTS reward_schedules (
    id INTEGER PRIMARY KEY,
    days JSONB NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

var migration003Chapters = `
CREATE TABLE IF NOT EXISTS locked_chapters (
    chapter_id VARCHAR(64) PRIMARY KEY,
    manhwa_id VARCHAR(64) NOT NULL DEFAULT '',
    price BIGINT NOT NULL DEFAULT 0,
    is_locked BOOLEAN NOT NULL DEFAULT TRUE,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_locked_chapters_manhwa ON locked_chapters(manhwa_id);

CREATE TABLE IF NOT EXISTS unlocked_chapters (
    id BIGSERIAL PRIMARY KEY,
    user_id VARCHAR(64) NOT NULL,
    chapter_id VARCHAR(64) NOT NULL,
    price_paid BIGINT NOT NULL DEFAULT 0,
    unlocked_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    UNIQUE (user_id, chapter_id)
);
CREATE INDEX IF NOT EXISTS idx_unlocked_chapters_user ON unlocked_chapters(user_id);
`

var migration004Donations = `
CREATE TABLE IF NOT EXISTS donations (
    id BIGSERIAL PRIMARY KEY,
    reference VARCHAR(128) UNIQUE NOT NULL,
    user_id VARCHAR(64),
    amount BIGINT NOT NULL,
    sender VARCHAR(255) NOT NULL DEFAULT '',
    contact VARCHAR(255) NOT NULL DEFAULT '',
    message TEXT NOT NULL DEFAULT '',
    status VARCHAR(16) NOT NULL DEFAULT 'pending',
    xp_awarded BIGINT NOT NULL DEFAULT 0,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    paid_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_donations_status_created ON donations(status, created_at);
CREATE INDEX IF NOT EXISTS idx_donations_user ON donations(user_id);
`
