// Package streak — handlers.go: HTTP endpoints for check-ins.
package streak

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"comicku.id/economy/internal/api"
	"comicku.id/economy/internal/api/middleware"
	"comicku.id/economy/internal/common"
)

// Handler serves streak endpoints.
type Handler struct {
	service *Service
}

// NewHandler creates a streak handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// GetStatus handles GET /streak.
func (h *Handler) GetStatus(ctx *gin.Context) {
	status, err := h.service.GetStatus(ctx.Request.Context(), middleware.UserID(ctx))
	if err != nil {
		writeStreakError(ctx, err)
		return
	}
	api.Success(ctx, status)
}

// Claim handles POST /streak/claim. A repeat claim on the same day is a
// success-no-op, not an error.
func (h *Handler) Claim(ctx *gin.Context) {
	decision, err := h.service.Claim(ctx.Request.Context(), middleware.UserID(ctx))
	if err != nil {
		if errors.Is(err, common.ErrAlreadyClaimed) {
			api.Info(ctx, "already claimed today", decision)
			return
		}
		writeStreakError(ctx, err)
		return
	}
	api.Success(ctx, decision)
}

func writeStreakError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, common.ErrAccountNotFound):
		api.Error(ctx, http.StatusNotFound, 40401, common.ErrAccountNotFound.Error())
	case errors.Is(err, common.ErrLedgerUnavailable):
		api.Error(ctx, http.StatusServiceUnavailable, 50301, "temporary failure, try again")
	default:
		api.Error(ctx, http.StatusInternalServerError, 50002, "internal server error")
	}
}
