// Package middleware holds the gin middleware stack: auth, request
// logging, panic recovery and rate limiting.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"comicku.id/economy/internal/api"
)

const (
	// ContextUserIDKey stores the authenticated user ID in the gin context.
	ContextUserIDKey = "user_id"
	// ContextIsAdminKey stores the admin flag in the gin context.
	ContextIsAdminKey = "is_admin"
)

func bearerToken(ctx *gin.Context) (string, bool) {
	authHeader := ctx.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// AuthRequired ensures the request carries a valid JWT and stashes the
// user identity in the context.
func AuthRequired(secret string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token, ok := bearerToken(ctx)
		if !ok {
			api.Error(ctx, http.StatusUnauthorized, 40101, "missing or malformed authorization header")
			ctx.Abort()
			return
		}

		claims, err := api.ParseToken(secret, token)
		if err != nil {
			api.Error(ctx, http.StatusUnauthorized, 40102, "invalid token")
			ctx.Abort()
			return
		}

		ctx.Set(ContextUserIDKey, claims.UserID)
		ctx.Set(ContextIsAdminKey, claims.IsAdmin)
		ctx.Next()
	}
}

// AdminRequired ensures the request carries an admin-scoped JWT.
// Must run after AuthRequired.
func AdminRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if !ctx.GetBool(ContextIsAdminKey) {
			api.Error(ctx, http.StatusForbidden, 40301, "admin privileges required")
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}

// UserID returns the authenticated user ID from the gin context.
func UserID(ctx *gin.Context) string {
	return ctx.GetString(ContextUserIDKey)
}
