// Package chapters — handlers.go: HTTP endpoints for chapter access.
package chapters

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"comicku.id/economy/internal/api"
	"comicku.id/economy/internal/api/middleware"
	"comicku.id/economy/internal/common"
)

// Handler serves chapter access endpoints.
type Handler struct {
	service *Service
}

// NewHandler creates a chapters handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// CheckAccess handles GET /chapters/:id/access.
func (h *Handler) CheckAccess(ctx *gin.Context) {
	access, err := h.service.CheckAccess(ctx.Request.Context(),
		middleware.UserID(ctx), ctx.Param("id"))
	if err != nil {
		writeChapterError(ctx, err)
		return
	}
	api.Success(ctx, access)
}

// Unlock handles POST /chapters/:id/unlock. Already-accessible outcomes
// are success-no-ops so the reader can just open the chapter.
func (h *Handler) Unlock(ctx *gin.Context) {
	record, err := h.service.Unlock(ctx.Request.Context(),
		middleware.UserID(ctx), ctx.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, common.ErrChapterNotLocked):
			api.Info(ctx, "chapter is not locked", Access{Unlocked: true})
			return
		case errors.Is(err, common.ErrAlreadyUnlocked):
			api.Info(ctx, "chapter already unlocked", Access{Unlocked: true})
			return
		}
		writeChapterError(ctx, err)
		return
	}
	api.Success(ctx, record)
}

// MarkRead handles POST /chapters/:id/read.
func (h *Handler) MarkRead(ctx *gin.Context) {
	err := h.service.MarkChapterRead(ctx.Request.Context(),
		middleware.UserID(ctx), ctx.Param("id"))
	if err != nil {
		writeChapterError(ctx, err)
		return
	}
	api.Success(ctx, nil)
}

func writeChapterError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, common.ErrInsufficientCoins):
		api.Error(ctx, http.StatusPaymentRequired, 40201, common.ErrInsufficientCoins.Error())
	case errors.Is(err, common.ErrAccountNotFound):
		api.Error(ctx, http.StatusNotFound, 40401, common.ErrAccountNotFound.Error())
	case errors.Is(err, common.ErrLedgerUnavailable):
		api.Error(ctx, http.StatusServiceUnavailable, 50301, "temporary failure, try again")
	default:
		api.Error(ctx, http.StatusInternalServerError, 50002, "internal server error")
	}
}
