package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// RequestLogger logs every request with method, path, status and latency.
func RequestLogger() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		path := ctx.Request.URL.Path

		ctx.Next()

		entry := log.WithFields(log.Fields{
			"method":  ctx.Request.Method,
			"path":    path,
			"status":  ctx.Writer.Status(),
			"latency": time.Since(start).String(),
			"ip":      ctx.ClientIP(),
		})

		switch {
		case ctx.Writer.Status() >= 500:
			entry.Error("request failed")
		case ctx.Writer.Status() >= 400:
			entry.Warn("request rejected")
		default:
			entry.Debug("request served")
		}
	}
}
