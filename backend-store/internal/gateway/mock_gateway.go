package gateway

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MockGateway implements PaymentGateway for local development and tests
type MockGateway struct {
	config       *MockGatewayConfig
	transactions sync.Map
	mu           sync.RWMutex
}

// MockGatewayConfig holds configuration for the mock gateway
type MockGatewayConfig struct {
	// SuccessRate is the probability of successful payment (0.0 to 1.0)
	SuccessRate float64

	// DelayMs is the simulated processing delay in milliseconds
	DelayMs int

	// FailureReasons is a list of possible failure reasons
	FailureReasons []string
}

type mockTransaction struct {
	amount   decimal.Decimal
	currency string
	refunded decimal.Decimal
}

// NewMockGateway creates a new mock gateway
func NewMockGateway(config *MockGatewayConfig) *MockGateway {
	if config == nil {
		config = &MockGatewayConfig{SuccessRate: 1}
	}
	if len(config.FailureReasons) == 0 {
		config.FailureReasons = []string{"card_declined", "insufficient_funds", "expired_card"}
	}
	g := &MockGateway{config: config}
	g.SetSuccessRate(config.SuccessRate)
	return g
}

// Charge approves with probability SuccessRate
func (g *MockGateway) Charge(ctx context.Context, req *ChargeRequest) (*ChargeResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("charge request is required")
	}
	if err := g.wait(ctx); err != nil {
		return nil, err
	}

	resp := &ChargeResponse{TransactionID: fmt.Sprintf("mock_txn_%s", uuid.New().String()[:8])}

	if rand.Float64() < g.GetSuccessRate() {
		resp.Status = StatusSucceeded
		g.transactions.Store(resp.TransactionID, &mockTransaction{amount: req.Amount, currency: req.Currency})
		return resp, nil
	}

	resp.Status = StatusFailed
	resp.FailureReason = g.config.FailureReasons[rand.Intn(len(g.config.FailureReasons))]
	resp.FailureCode = resp.FailureReason
	return resp, nil
}

// Refund marks part or all of a mock charge as returned
func (g *MockGateway) Refund(ctx context.Context, transactionID string, amount decimal.Decimal, currency string) error {
	if transactionID == "" {
		return fmt.Errorf("transaction ID is required")
	}
	if err := g.wait(ctx); err != nil {
		return err
	}

	v, ok := g.transactions.Load(transactionID)
	if !ok {
		return fmt.Errorf("transaction not found: %s", transactionID)
	}
	txn := v.(*mockTransaction)

	g.mu.Lock()
	defer g.mu.Unlock()
	if txn.refunded.Add(amount).GreaterThan(txn.amount) {
		return fmt.Errorf("refund exceeds charged amount of %s %s", txn.amount, txn.currency)
	}
	txn.refunded = txn.refunded.Add(amount)
	return nil
}

// Name returns the gateway name
func (g *MockGateway) Name() string {
	return "mock"
}

// SetSuccessRate updates the success rate, clamped to [0, 1]
func (g *MockGateway) SetSuccessRate(rate float64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if rate < 0 {
		rate = 0
	}
	if rate > 1 {
		rate = 1
	}
	g.config.SuccessRate = rate
}

// GetSuccessRate returns the current success rate
func (g *MockGateway) GetSuccessRate() float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.config.SuccessRate
}

func (g *MockGateway) wait(ctx context.Context) error {
	if g.config.DelayMs <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(time.Duration(g.config.DelayMs) * time.Millisecond):
		return nil
	}
}
