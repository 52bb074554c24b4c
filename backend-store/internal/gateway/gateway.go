// Package gateway charges store orders through a payment provider
package gateway

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Charge statuses reported by every gateway
const (
	StatusSucceeded = "succeeded"
	StatusPending   = "pending"
	StatusFailed    = "failed"
)

// PaymentGateway charges and refunds order payments
type PaymentGateway interface {
	// Charge attempts to collect req.Amount. A declined payment is reported in the
	// response; the error is reserved for the provider being unreachable.
	Charge(ctx context.Context, req *ChargeRequest) (*ChargeResponse, error)

	// Refund returns amount of a previous charge
	Refund(ctx context.Context, transactionID string, amount decimal.Decimal, currency string) error

	// Name identifies the gateway in logs and references
	Name() string
}

// ChargeRequest is one attempt to pay an order
type ChargeRequest struct {
	OrderID     string
	Amount      decimal.Decimal
	Currency    string
	Description string
	Metadata    map[string]string
}

// ChargeResponse is the outcome of a charge
type ChargeResponse struct {
	TransactionID string
	Status        string
	ClientSecret  string
	FailureReason string
	FailureCode   string
}

// Succeeded reports whether the money was collected
func (r *ChargeResponse) Succeeded() bool {
	return r.Status == StatusSucceeded
}

// Config selects and configures a gateway
type Config struct {
	Gateway         string
	StripeSecretKey string
	MockSuccessRate float64
	MockDelayMs     int
}

// New builds the gateway named by cfg.Gateway
func New(cfg Config) (PaymentGateway, error) {
	switch strings.ToLower(cfg.Gateway) {
	case "", "mock":
		return NewMockGateway(&MockGatewayConfig{
			SuccessRate: cfg.MockSuccessRate,
			DelayMs:     cfg.MockDelayMs,
		}), nil
	case "stripe":
		return NewStripeGateway(&StripeGatewayConfig{SecretKey: cfg.StripeSecretKey})
	default:
		return nil, fmt.Errorf("unknown payment gateway %q", cfg.Gateway)
	}
}

// zeroDecimalCurrencies are charged in whole units
var zeroDecimalCurrencies = map[string]bool{
	"CLP": true, "PYG": true, "JPY": true, "KRW": true, "VND": true, "XAF": true, "XOF": true,
}

// ToMinorUnits converts amount to the smallest unit of currency
func ToMinorUnits(amount decimal.Decimal, currency string) int64 {
	if zeroDecimalCurrencies[strings.ToUpper(currency)] {
		return amount.Round(0).IntPart()
	}
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// FromMinorUnits is the inverse of ToMinorUnits
func FromMinorUnits(units int64, currency string) decimal.Decimal {
	if zeroDecimalCurrencies[strings.ToUpper(currency)] {
		return decimal.NewFromInt(units)
	}
	return decimal.New(units, -2)
}
