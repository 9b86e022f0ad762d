// Package donations — handlers.go: HTTP endpoints for donations and the
// Saweria webhook.
package donations

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"comicku.id/economy/internal/api"
	"comicku.id/economy/internal/api/middleware"
	"comicku.id/economy/internal/common"
)

// Handler serves donation endpoints.
type Handler struct {
	service *Service
}

// NewHandler creates a donations handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type createIntentRequest struct {
	Amount  int64  `json:"amount" binding:"required"`
	Sender  string `json:"sender"`
	Contact string `json:"contact"`
	Message string `json:"message"`
}

// CreateIntent handles POST /donations.
func (h *Handler) CreateIntent(ctx *gin.Context) {
	var req createIntentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		api.Error(ctx, http.StatusBadRequest, 40001, "invalid request body")
		return
	}

	intent, err := h.service.CreateIntent(ctx.Request.Context(),
		middleware.UserID(ctx), req.Amount, req.Sender, req.Contact, req.Message)
	if err != nil {
		writeDonationError(ctx, err)
		return
	}
	api.Success(ctx, intent)
}

// GetStatus handles GET /donations/:reference/status.
func (h *Handler) GetStatus(ctx *gin.Context) {
	status, err := h.service.GetStatus(ctx.Request.Context(), ctx.Param("reference"))
	if err != nil {
		writeDonationError(ctx, err)
		return
	}
	api.Success(ctx, status)
}

// Webhook handles POST /webhooks/saweria. Always answers 200 on a
// parseable payload: the provider retries non-2xx responses and our
// settle path is idempotent anyway.
func (h *Handler) Webhook(ctx *gin.Context) {
	var payload WebhookPayload
	if err := ctx.ShouldBindJSON(&payload); err != nil {
		api.Error(ctx, http.StatusBadRequest, 40001, "invalid webhook payload")
		return
	}

	if err := h.service.HandleWebhook(ctx.Request.Context(), &payload); err != nil {
		log.WithField("reference", payload.ID).WithError(err).Error("webhook processing failed")
		api.Error(ctx, http.StatusInternalServerError, 50002, "webhook processing failed")
		return
	}
	api.Success(ctx, nil)
}

func writeDonationError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, common.ErrAmountTooSmall):
		api.Error(ctx, http.StatusBadRequest, 40002, common.ErrAmountTooSmall.Error())
	case errors.Is(err, common.ErrDonationNotFound):
		api.Error(ctx, http.StatusNotFound, 40402, common.ErrDonationNotFound.Error())
	case errors.Is(err, common.ErrGateway):
		api.Error(ctx, http.StatusBadGateway, 50201, gatewayMessage(err))
	case errors.Is(err, common.ErrLedgerUnavailable):
		api.Error(ctx, http.StatusServiceUnavailable, 50301, "temporary failure, try again")
	default:
		api.Error(ctx, http.StatusInternalServerError, 50002, "internal server error")
	}
}

// gatewayMessage passes the provider's detail through to the client.
func gatewayMessage(err error) string {
	msg := err.Error()
	if idx := strings.Index(msg, ": "); idx >= 0 {
		return common.ErrGateway.Error() + ": " + msg[idx+2:]
	}
	return msg
}
