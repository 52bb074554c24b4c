package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/PercyTuncar/ravehub-website-sub003/backend-store/internal/domain"
	"github.com/PercyTuncar/ravehub-website-sub003/backend-store/internal/service"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/logger"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
	"go.uber.org/zap"
)

const maxWebhookBody = 64 << 10

// WebhookHandler settles Stripe payment intents that completed after checkout
type WebhookHandler struct {
	payments      service.PaymentService
	webhookSecret string
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(payments service.PaymentService, webhookSecret string) *WebhookHandler {
	return &WebhookHandler{payments: payments, webhookSecret: webhookSecret}
}

// HandleStripe handles POST /store/payments/stripe/webhook.
// Stripe retries anything but 2xx, so only bad signatures and transient
// failures are rejected.
func (h *WebhookHandler) HandleStripe(c *gin.Context) {
	log := logger.Get()
	ctx := c.Request.Context()

	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.BadRequest("Failed to read request body"))
		return
	}

	event, err := webhook.ConstructEvent(payload, c.GetHeader("Stripe-Signature"), h.webhookSecret)
	if err != nil {
		log.WarnContext(ctx, "stripe webhook rejected", zap.Error(err))
		c.JSON(http.StatusBadRequest, response.BadRequest("Invalid signature"))
		return
	}

	var succeeded bool
	switch event.Type {
	case stripe.EventTypePaymentIntentSucceeded:
		succeeded = true
	case stripe.EventTypePaymentIntentPaymentFailed, stripe.EventTypePaymentIntentCanceled:
		succeeded = false
	default:
		c.JSON(http.StatusOK, response.Success(gin.H{"received": true}))
		return
	}

	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		c.JSON(http.StatusBadRequest, response.BadRequest("Failed to parse event data"))
		return
	}
	orderID := intent.Metadata["order_id"]
	if orderID == "" {
		log.WarnContext(ctx, "payment intent without order id", zap.String("intent_id", intent.ID))
		c.JSON(http.StatusOK, response.Success(gin.H{"received": true}))
		return
	}

	_, err = h.payments.RecordOutcome(ctx, orderID, intent.ID, succeeded)
	switch {
	case err == nil:
		log.InfoContext(ctx, "payment settled by webhook",
			zap.String("order_id", orderID),
			zap.String("intent_id", intent.ID),
			zap.Bool("succeeded", succeeded),
		)
	case domain.IsTransientError(err):
		respondError(c, err, "Failed to record payment")
		return
	default:
		log.ErrorContext(ctx, "payment outcome not recorded",
			zap.String("order_id", orderID),
			zap.String("intent_id", intent.ID),
			zap.Error(err),
		)
	}
	c.JSON(http.StatusOK, response.Success(gin.H{"received": true}))
}
