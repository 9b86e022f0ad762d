package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"comicku.id/economy/internal/api"
)

type clientLimiter struct {
	limiter *rate.Limiter
	expires time.Time
}

// RateLimit applies a token-bucket limit per client. Authenticated
// requests are keyed by user ID, anonymous ones by IP. Idle entries are
// evicted after five minutes.
func RateLimit(perMinute int) gin.HandlerFunc {
	if perMinute < 1 {
		perMinute = 1
	}
	limit := rate.Every(time.Minute / time.Duration(perMinute))
	burst := perMinute/2 + 1

	var (
		mu       sync.Mutex
		limiters = map[string]*clientLimiter{}
	)

	return func(ctx *gin.Context) {
		key := UserID(ctx)
		if key == "" {
			key = ctx.ClientIP()
		}

		mu.Lock()
		now := time.Now()
		for k, cl := range limiters {
			if now.After(cl.expires) {
				delete(limiters, k)
			}
		}
		cl, ok := limiters[key]
		if !ok {
			cl = &clientLimiter{limiter: rate.NewLimiter(limit, burst)}
			limiters[key] = cl
		}
		cl.expires = now.Add(5 * time.Minute)
		allowed := cl.limiter.Allow()
		mu.Unlock()

		if !allowed {
			api.Error(ctx, http.StatusTooManyRequests, 42901, "rate limit exceeded")
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}
