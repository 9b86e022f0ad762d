// Package routes assembles the gin engine: middleware chain, route
// groups and feature-flag gating.
package routes

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"comicku.id/economy/internal/api"
	"comicku.id/economy/internal/api/middleware"
	"comicku.id/economy/internal/config"
	"comicku.id/economy/internal/features/admin"
	"comicku.id/economy/internal/features/chapters"
	"comicku.id/economy/internal/features/donations"
	"comicku.id/economy/internal/features/ledger"
	"comicku.id/economy/internal/features/streak"
)

// Handlers bundles every feature handler the router mounts.
type Handlers struct {
	Ledger    *ledger.Handler
	Streak    *streak.Handler
	Chapters  *chapters.Handler
	Donations *donations.Handler
	Admin     *admin.Handler
}

// New builds the HTTP engine.
func New(cfg *config.Config, h *Handlers) *gin.Engine {
	gin.SetMode(cfg.GinMode)

	engine := gin.New()
	engine.Use(middleware.Recovery())
	engine.Use(middleware.RequestLogger())
	engine.Use(corsConfig(cfg.AllowedOrigins))

	engine.GET("/health", func(ctx *gin.Context) {
		api.Success(ctx, gin.H{"status": "ok"})
	})

	limit := middleware.RateLimit(cfg.RateLimitPerMinute)

	// Webhook and admin login are unauthenticated by nature; both stay
	// behind the rate limiter.
	if cfg.FeatureDonationsEnabled {
		engine.POST("/webhooks/saweria", limit, h.Donations.Webhook)
	}
	engine.POST("/admin/login", limit, h.Admin.Login)

	v1 := engine.Group("/api/v1", middleware.AuthRequired(cfg.JWTSecret), limit)
	{
		v1.GET("/account", h.Ledger.GetAccount)
		v1.GET("/account/transactions", h.Ledger.GetTransactions)

		if cfg.FeatureStreaksEnabled {
			v1.GET("/streak", h.Streak.GetStatus)
			v1.POST("/streak/claim", h.Streak.Claim)
		}

		v1.GET("/chapters/:id/access", h.Chapters.CheckAccess)
		v1.POST("/chapters/:id/unlock", h.Chapters.Unlock)
		v1.POST("/chapters/:id/read", h.Chapters.MarkRead)

		if cfg.FeatureDonationsEnabled {
			v1.POST("/donations", h.Donations.CreateIntent)
			v1.GET("/donations/:reference/status", h.Donations.GetStatus)
		}
	}

	adm := engine.Group("/admin",
		middleware.AuthRequired(cfg.JWTSecret), middleware.AdminRequired())
	{
		adm.POST("/accounts/adjust", h.Admin.AdjustBalance)
		adm.PUT("/chapters/:id/lock", h.Admin.SetChapterLock)
		adm.GET("/chapters/locks", h.Admin.ListChapterLocks)
		adm.DELETE("/users/:userId/unlocks/:chapterId", h.Admin.RevokeUnlock)
		adm.GET("/rewards/schedule", h.Admin.GetRewardSchedule)
		adm.PUT("/rewards/schedule", h.Admin.SaveRewardSchedule)
	}

	engine.NoRoute(func(ctx *gin.Context) {
		api.Error(ctx, http.StatusNotFound, 40400, "route not found")
	})

	return engine
}

func corsConfig(origins []string) gin.HandlerFunc {
	conf := cors.DefaultConfig()
	conf.AllowHeaders = append(conf.AllowHeaders, "Authorization")
	if len(origins) == 1 && origins[0] == "*" {
		conf.AllowAllOrigins = true
	} else {
		conf.AllowOrigins = origins
	}
	return cors.New(conf)
}
