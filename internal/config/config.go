// Package config loads service configuration from environment variables.
// envconfig maps the variables onto the Config struct.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds ALL settings of the economy service.
type Config struct {
	// --- HTTP ---
	HTTPAddr       string        `envconfig:"HTTP_ADDR" default:":8080"`
	GinMode        string        `envconfig:"GIN_MODE" default:"release"`
	AllowedOrigins []string      `envconfig:"ALLOWED_ORIGINS" default:"*"`
	ShutdownGrace  time.Duration `envconfig:"SHUTDOWN_GRACE" default:"10s"`

	// --- Database ---
	// Inside Docker "localhost" is almost always wrong; default to the
	// compose service name and override DB_HOST=localhost for local runs.
	DBHost     string `envconfig:"DB_HOST" default:"postgres"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"economy"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" default:"comicku_economy"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	DBMaxConns int32  `envconfig:"DB_MAX_CONNS" default:"25"`
	DBMinConns int32  `envconfig:"DB_MIN_CONNS" default:"5"`

	// --- Redis (locked-chapter config cache) ---
	RedisAddr     string        `envconfig:"REDIS_ADDR" default:"redis:6379"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0"`
	LockCacheTTL  time.Duration `envconfig:"LOCK_CACHE_TTL" default:"60s"`

	// --- Application ---
	AppEnv      string `envconfig:"APP_ENV" default:"development"`
	AppLogLevel string `envconfig:"APP_LOG_LEVEL" default:"debug"`
	AppTimezone string `envconfig:"APP_TIMEZONE" default:"Asia/Jakarta"`

	// --- Auth ---
	JWTSecret         string        `envconfig:"JWT_SECRET" required:"true"`
	AdminPasswordHash string        `envconfig:"ADMIN_PASSWORD_HASH" required:"true"`
	AdminTokenTTL     time.Duration `envconfig:"ADMIN_TOKEN_TTL" default:"12h"`

	// --- Streak ---
	StreakFallbackRewardXP int64 `envconfig:"STREAK_FALLBACK_REWARD_XP" default:"50"`

	// --- Reading ---
	XPPerChapter int64 `envconfig:"XP_PER_CHAPTER" default:"50"`

	// --- Saweria gateway ---
	SaweriaUsername    string        `envconfig:"SAWERIA_USERNAME" required:"true"`
	SaweriaFrontendURL string        `envconfig:"SAWERIA_FRONTEND_URL" default:"https://saweria.co"`
	SaweriaBackendURL  string        `envconfig:"SAWERIA_BACKEND_URL" default:"https://backend.saweria.co"`
	SaweriaTimeout     time.Duration `envconfig:"SAWERIA_TIMEOUT" default:"5s"`
	// Rupiah per 1 XP when converting a paid donation (1 XP / 100 IDR).
	DonationIDRPerXP int64 `envconfig:"DONATION_IDR_PER_XP" default:"100"`
	// Pending intents older than this are expired by the daily sweep.
	DonationExpiry time.Duration `envconfig:"DONATION_EXPIRY" default:"24h"`

	// --- Rate limiting ---
	RateLimitPerMinute int `envconfig:"RATE_LIMIT_PER_MINUTE" default:"60"`

	// --- Feature flags ---
	FeatureDonationsEnabled bool `envconfig:"FEATURE_DONATIONS_ENABLED" default:"true"`
	FeatureStreaksEnabled   bool `envconfig:"FEATURE_STREAKS_ENABLED" default:"true"`
}

// DatabaseDSN returns the PostgreSQL connection string.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

// Validate rejects configurations the service cannot run with.
func (c *Config) Validate() error {
	if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("invalid DB_MIN_CONNS/DB_MAX_CONNS")
	}
	if c.DonationIDRPerXP <= 0 {
		return fmt.Errorf("DONATION_IDR_PER_XP must be > 0")
	}
	if c.XPPerChapter < 0 {
		return fmt.Errorf("XP_PER_CHAPTER must be >= 0")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be > 0")
	}
	if len(c.JWTSecret) < 16 {
		return fmt.Errorf("JWT_SECRET must be at least 16 bytes")
	}
	return nil
}

// Load reads environment variables and fills the Config struct.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
