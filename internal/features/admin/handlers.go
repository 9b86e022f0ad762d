// Package admin — handlers.go: HTTP endpoints for operator actions.
package admin

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"comicku.id/economy/internal/api"
	"comicku.id/economy/internal/common"
	"comicku.id/economy/internal/features/chapters"
	"comicku.id/economy/internal/features/ledger"
	"comicku.id/economy/internal/features/streak"
)

// Handler serves admin endpoints.
type Handler struct {
	service  *Service
	chapters *chapters.Service
	streak   *streak.Service
}

// NewHandler creates an admin handler.
func NewHandler(service *Service, chapterService *chapters.Service, streakService *streak.Service) *Handler {
	return &Handler{service: service, chapters: chapterService, streak: streakService}
}

type loginRequest struct {
	Password string `json:"password" binding:"required"`
}

// Login handles POST /admin/login.
func (h *Handler) Login(ctx *gin.Context) {
	var req loginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		api.Error(ctx, http.StatusBadRequest, 40001, "invalid request body")
		return
	}

	token, err := h.service.Login(req.Password)
	if err != nil {
		if errors.Is(err, common.ErrWrongPassword) {
			api.Error(ctx, http.StatusUnauthorized, 40101, common.ErrWrongPassword.Error())
			return
		}
		api.Error(ctx, http.StatusInternalServerError, 50002, "internal server error")
		return
	}
	api.Success(ctx, gin.H{"token": token})
}

type adjustRequest struct {
	UserID   string `json:"userId" binding:"required"`
	Currency string `json:"currency" binding:"required"`
	Delta    int64  `json:"delta" binding:"required"`
	Reason   string `json:"reason"`
}

// AdjustBalance handles POST /admin/accounts/adjust.
func (h *Handler) AdjustBalance(ctx *gin.Context) {
	var req adjustRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		api.Error(ctx, http.StatusBadRequest, 40001, "invalid request body")
		return
	}

	currency := ledger.Currency(req.Currency)
	if !currency.Valid() {
		api.Error(ctx, http.StatusBadRequest, 40001, "currency must be xp or coin")
		return
	}

	err := h.service.Adjust(ctx.Request.Context(), req.UserID, currency, req.Delta, req.Reason)
	if err != nil {
		writeAdminError(ctx, err)
		return
	}
	api.Success(ctx, nil)
}

type setLockRequest struct {
	ManhwaID string `json:"manhwaId"`
	Price    int64  `json:"price"`
	IsLocked bool   `json:"isLocked"`
}

// SetChapterLock handles PUT /admin/chapters/:id/lock.
func (h *Handler) SetChapterLock(ctx *gin.Context) {
	var req setLockRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		api.Error(ctx, http.StatusBadRequest, 40001, "invalid request body")
		return
	}

	lock := &chapters.LockedChapter{
		ChapterID: ctx.Param("id"),
		ManhwaID:  req.ManhwaID,
		Price:     req.Price,
		IsLocked:  req.IsLocked,
	}
	if err := h.chapters.SetLock(ctx.Request.Context(), lock); err != nil {
		writeAdminError(ctx, err)
		return
	}
	api.Success(ctx, lock)
}

// ListChapterLocks handles GET /admin/chapters/locks. Accepts an
// optional ?manhwaId= filter.
func (h *Handler) ListChapterLocks(ctx *gin.Context) {
	locks, err := h.chapters.ListLocks(ctx.Request.Context(), ctx.Query("manhwaId"))
	if err != nil {
		writeAdminError(ctx, err)
		return
	}
	api.Success(ctx, locks)
}

// RevokeUnlock handles DELETE /admin/users/:userId/unlocks/:chapterId.
func (h *Handler) RevokeUnlock(ctx *gin.Context) {
	err := h.chapters.RevokeUnlock(ctx.Request.Context(),
		ctx.Param("userId"), ctx.Param("chapterId"))
	if err != nil {
		writeAdminError(ctx, err)
		return
	}
	api.Success(ctx, nil)
}

// GetRewardSchedule handles GET /admin/rewards/schedule.
func (h *Handler) GetRewardSchedule(ctx *gin.Context) {
	api.Success(ctx, h.streak.GetSchedule(ctx.Request.Context()))
}

// SaveRewardSchedule handles PUT /admin/rewards/schedule.
func (h *Handler) SaveRewardSchedule(ctx *gin.Context) {
	var schedule streak.Schedule
	if err := ctx.ShouldBindJSON(&schedule); err != nil {
		api.Error(ctx, http.StatusBadRequest, 40001, "invalid request body")
		return
	}

	if err := h.streak.SaveSchedule(ctx.Request.Context(), schedule); err != nil {
		writeAdminError(ctx, err)
		return
	}
	api.Success(ctx, schedule)
}

func writeAdminError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, common.ErrInvalidAmount):
		api.Error(ctx, http.StatusBadRequest, 40001, common.ErrInvalidAmount.Error())
	case errors.Is(err, common.ErrInvalidSchedule):
		api.Error(ctx, http.StatusBadRequest, 40003, common.ErrInvalidSchedule.Error())
	case errors.Is(err, common.ErrInsufficientCoins):
		api.Error(ctx, http.StatusPaymentRequired, 40201, common.ErrInsufficientCoins.Error())
	case errors.Is(err, common.ErrAccountNotFound):
		api.Error(ctx, http.StatusNotFound, 40401, common.ErrAccountNotFound.Error())
	case errors.Is(err, common.ErrUnlockNotFound):
		api.Error(ctx, http.StatusNotFound, 40403, common.ErrUnlockNotFound.Error())
	case errors.Is(err, common.ErrLedgerUnavailable):
		api.Error(ctx, http.StatusServiceUnavailable, 50301, "temporary failure, try again")
	default:
		api.Error(ctx, http.StatusInternalServerError, 50002, "internal server error")
	}
}
