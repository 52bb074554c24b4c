package handler

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/PercyTuncar/ravehub-website-sub003/backend-store/internal/domain"
	"github.com/PercyTuncar/ravehub-website-sub003/backend-store/internal/dto"
	"github.com/PercyTuncar/ravehub-website-sub003/backend-store/internal/service"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/currency"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/middleware"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func withCaller(userID, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID != "" {
			c.Set(middleware.ContextKeyUserID, userID)
			c.Set(middleware.ContextKeyTenantID, "tenant-1")
		}
		if role != "" {
			c.Set(middleware.ContextKeyRole, role)
		}
		c.Next()
	}
}

func decode(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var resp response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) CreateOrder(ctx context.Context, req *dto.CreateOrderRequest) (*domain.Order, error) {
	args := m.Called(ctx, req)
	if o := args.Get(0); o != nil {
		return o.(*domain.Order), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockOrderService) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if o := args.Get(0); o != nil {
		return o.(*domain.Order), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockOrderService) ListOrders(ctx context.Context, filter *domain.OrderFilter) ([]*domain.Order, int64, error) {
	args := m.Called(ctx, filter)
	if o := args.Get(0); o != nil {
		return o.([]*domain.Order), args.Get(1).(int64), args.Error(2)
	}
	return nil, 0, args.Error(2)
}

func (m *MockOrderService) UpdateOrderStatus(ctx context.Context, orderID string, update *service.StatusUpdate) (*domain.Order, error) {
	args := m.Called(ctx, orderID, update)
	if o := args.Get(0); o != nil {
		return o.(*domain.Order), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockOrderService) UpdatePaymentStatus(ctx context.Context, orderID, status, actorID, reference string) (*domain.Order, error) {
	args := m.Called(ctx, orderID, status, actorID, reference)
	if o := args.Get(0); o != nil {
		return o.(*domain.Order), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockOrderService) History(ctx context.Context, orderID string) ([]*domain.StatusHistoryEntry, error) {
	args := m.Called(ctx, orderID)
	if h := args.Get(0); h != nil {
		return h.([]*domain.StatusHistoryEntry), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) PayOrder(ctx context.Context, orderID string) (*service.PaymentResult, error) {
	args := m.Called(ctx, orderID)
	if r := args.Get(0); r != nil {
		return r.(*service.PaymentResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPaymentService) RecordOutcome(ctx context.Context, orderID, transactionID string, succeeded bool) (*domain.Order, error) {
	args := m.Called(ctx, orderID, transactionID, succeeded)
	if o := args.Get(0); o != nil {
		return o.(*domain.Order), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockStockService struct {
	mock.Mock
}

func (m *MockStockService) CheckStockAvailability(ctx context.Context, items []domain.StockItem) (bool, error) {
	args := m.Called(ctx, items)
	return args.Bool(0), args.Error(1)
}

func (m *MockStockService) CheckCart(ctx context.Context, items []domain.StockItem) ([]domain.StockLevel, bool, error) {
	args := m.Called(ctx, items)
	if l := args.Get(0); l != nil {
		return l.([]domain.StockLevel), args.Bool(1), args.Error(2)
	}
	return nil, args.Bool(1), args.Error(2)
}

func (m *MockStockService) UpdateStockAfterOrder(ctx context.Context, items []domain.StockItem) error {
	args := m.Called(ctx, items)
	return args.Error(0)
}

type MockRateService struct {
	mock.Mock
}

func (m *MockRateService) Current(ctx context.Context) (*currency.RateTable, error) {
	args := m.Called(ctx)
	if t := args.Get(0); t != nil {
		return t.(*currency.RateTable), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRateService) Convert(ctx context.Context, amount decimal.Decimal, from, to string) (*currency.Conversion, error) {
	args := m.Called(ctx, amount, from, to)
	if c := args.Get(0); c != nil {
		return c.(*currency.Conversion), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRateService) Refresh(ctx context.Context) (*currency.RateTable, error) {
	args := m.Called(ctx)
	if t := args.Get(0); t != nil {
		return t.(*currency.RateTable), args.Error(1)
	}
	return nil, args.Error(1)
}
