// Package ledger — handlers.go: HTTP endpoints for the account surface.
package ledger

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"comicku.id/economy/internal/api"
	"comicku.id/economy/internal/api/middleware"
	"comicku.id/economy/internal/common"
)

// Handler serves account endpoints.
type Handler struct {
	service *Service
}

// NewHandler creates a ledger handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// GetAccount handles GET /account: balances plus level and badges.
func (h *Handler) GetAccount(ctx *gin.Context) {
	summary, err := h.service.GetSummary(ctx.Request.Context(), middleware.UserID(ctx))
	if err != nil {
		writeLedgerError(ctx, err)
		return
	}
	api.Success(ctx, summary)
}

// GetTransactions handles GET /account/transactions?limit=N.
func (h *Handler) GetTransactions(ctx *gin.Context) {
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))
	txs, err := h.service.GetTransactions(ctx.Request.Context(), middleware.UserID(ctx), limit)
	if err != nil {
		writeLedgerError(ctx, err)
		return
	}

	type entry struct {
		Currency    Currency `json:"currency"`
		Direction   string   `json:"direction"`
		Amount      int64    `json:"amount"`
		Type        string   `json:"type"`
		Description string   `json:"description"`
		At          string   `json:"at"`
	}
	out := make([]entry, 0, len(txs))
	for _, t := range txs {
		out = append(out, entry{
			Currency:    t.Currency,
			Direction:   t.Direction,
			Amount:      t.Amount,
			Type:        t.Type,
			Description: t.Description,
			At:          common.FormatDateTime(t.CreatedAt),
		})
	}
	api.Success(ctx, out)
}

// writeLedgerError maps ledger errors onto HTTP statuses.
func writeLedgerError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, common.ErrInsufficientCoins):
		api.Error(ctx, http.StatusPaymentRequired, 40201, common.ErrInsufficientCoins.Error())
	case errors.Is(err, common.ErrInvalidAmount):
		api.Error(ctx, http.StatusBadRequest, 40001, common.ErrInvalidAmount.Error())
	case errors.Is(err, common.ErrAccountNotFound):
		api.Error(ctx, http.StatusNotFound, 40401, common.ErrAccountNotFound.Error())
	case errors.Is(err, common.ErrLedgerUnavailable):
		api.Error(ctx, http.StatusServiceUnavailable, 50301, "temporary failure, try again")
	default:
		api.Error(ctx, http.StatusInternalServerError, 50002, "internal server error")
	}
}
