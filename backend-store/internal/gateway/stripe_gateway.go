package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/paymentintent"
	"github.com/stripe/stripe-go/v82/refund"
)

// StripeGateway implements PaymentGateway using Stripe PaymentIntents
type StripeGateway struct {
	config *StripeGatewayConfig
}

// StripeGatewayConfig holds configuration for Stripe gateway
type StripeGatewayConfig struct {
	SecretKey string
}

// NewStripeGateway creates a new Stripe gateway
func NewStripeGateway(config *StripeGatewayConfig) (*StripeGateway, error) {
	if config == nil {
		return nil, fmt.Errorf("stripe config is required")
	}
	if config.SecretKey == "" {
		return nil, fmt.Errorf("stripe secret key is required")
	}

	// Set Stripe API key globally
	stripe.Key = config.SecretKey

	return &StripeGateway{config: config}, nil
}

// Charge creates a PaymentIntent for the order. The order ID is used as the
// idempotency key so a retried charge never bills twice.
func (g *StripeGateway) Charge(ctx context.Context, req *ChargeRequest) (*ChargeResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("charge request is required")
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(ToMinorUnits(req.Amount, req.Currency)),
		Currency: stripe.String(strings.ToLower(req.Currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		Metadata: map[string]string{"order_id": req.OrderID},
	}
	for k, v := range req.Metadata {
		params.Metadata[k] = v
	}
	if req.Description != "" {
		params.Description = stripe.String(req.Description)
	}
	params.SetIdempotencyKey("order-charge-" + req.OrderID)

	pi, err := paymentintent.New(params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Type == stripe.ErrorTypeCard {
			return &ChargeResponse{
				Status:        StatusFailed,
				FailureReason: stripeErr.Msg,
				FailureCode:   string(stripeErr.Code),
			}, nil
		}
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	resp := &ChargeResponse{TransactionID: pi.ID}
	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded:
		resp.Status = StatusSucceeded
	case stripe.PaymentIntentStatusCanceled:
		resp.Status = StatusFailed
		resp.FailureReason = "payment_canceled"
		resp.FailureCode = "canceled"
	default:
		// the customer still has to complete the payment client side
		resp.Status = StatusPending
		resp.ClientSecret = pi.ClientSecret
	}
	return resp, nil
}

// Refund processes a refund through Stripe
func (g *StripeGateway) Refund(ctx context.Context, transactionID string, amount decimal.Decimal, currency string) error {
	if transactionID == "" {
		return fmt.Errorf("transaction ID is required")
	}

	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(transactionID),
		Amount:        stripe.Int64(ToMinorUnits(amount, currency)),
	}
	if _, err := refund.New(params); err != nil {
		return fmt.Errorf("failed to create refund: %w", err)
	}
	return nil
}

// Name returns the gateway name
func (g *StripeGateway) Name() string {
	return "stripe"
}

// Ensure implementations satisfy PaymentGateway
var (
	_ PaymentGateway = (*StripeGateway)(nil)
	_ PaymentGateway = (*MockGateway)(nil)
)
