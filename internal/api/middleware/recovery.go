package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"comicku.id/economy/internal/api"
)

// Recovery catches panics from handlers, logs them with a stack trace and
// answers 500 instead of killing the process.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(ctx *gin.Context, recovered interface{}) {
		log.WithFields(log.Fields{
			"panic": recovered,
			"path":  ctx.Request.URL.Path,
		}).Error("panic recovered in handler")
		api.Error(ctx, http.StatusInternalServerError, 50001, "internal server error")
		ctx.Abort()
	})
}
