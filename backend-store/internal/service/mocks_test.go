package service

import (
	"context"
	"errors"

	"github.com/PercyTuncar/ravehub-website-sub003/backend-store/internal/domain"
	"github.com/PercyTuncar/ravehub-website-sub003/backend-store/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"
)

var errBackend = errors.New("connection reset by peer")

// MockProductRepository is a mock implementation of ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) Update(ctx context.Context, product *domain.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *MockProductRepository) GetByIDs(ctx context.Context, ids []string) (map[string]*domain.Product, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]*domain.Product), args.Error(1)
}

func (m *MockProductRepository) List(ctx context.Context, filter *repository.ProductFilter) ([]*domain.Product, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*domain.Product), args.Get(1).(int64), args.Error(2)
}

func (m *MockProductRepository) SetStock(ctx context.Context, productID, variantID string, stock int) error {
	args := m.Called(ctx, productID, variantID, stock)
	return args.Error(0)
}

// MockStockRepository is a mock implementation of StockRepository
type MockStockRepository struct {
	mock.Mock
}

func (m *MockStockRepository) GetStockLevels(ctx context.Context, items []domain.StockItem) ([]domain.StockLevel, error) {
	args := m.Called(ctx, items)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.StockLevel), args.Error(1)
}

func (m *MockStockRepository) DecrementFloor(ctx context.Context, item domain.StockItem) (int, error) {
	args := m.Called(ctx, item)
	return args.Int(0), args.Error(1)
}

func (m *MockStockRepository) ReserveStock(ctx context.Context, tx pgx.Tx, items []domain.StockItem) error {
	args := m.Called(ctx, tx, items)
	return args.Error(0)
}

// MockOrderRepository is a mock implementation of OrderRepository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Create(ctx context.Context, tx pgx.Tx, order *domain.Order) error {
	args := m.Called(ctx, tx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderRepository) List(ctx context.Context, filter *domain.OrderFilter) ([]*domain.Order, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*domain.Order), args.Get(1).(int64), args.Error(2)
}

func (m *MockOrderRepository) UpdateStatus(ctx context.Context, change *domain.StatusChange) error {
	args := m.Called(ctx, change)
	return args.Error(0)
}

func (m *MockOrderRepository) UpdatePaymentStatus(ctx context.Context, change *domain.PaymentChange) error {
	args := m.Called(ctx, change)
	return args.Error(0)
}

func (m *MockOrderRepository) History(ctx context.Context, orderID string) ([]*domain.StatusHistoryEntry, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.StatusHistoryEntry), args.Error(1)
}

// fakeTxRunner runs fn with a nil transaction and counts rollbacks
type fakeTxRunner struct {
	calls     int
	rollbacks int
}

func (f *fakeTxRunner) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	f.calls++
	if err := fn(nil); err != nil {
		f.rollbacks++
		return err
	}
	return nil
}

// MockEventPublisher records what was published
type MockEventPublisher struct {
	created   []*domain.Order
	statuses  []*domain.OrderStatusChangedEvent
	payments  []*domain.OrderPaymentChangedEvent
	anomalies []*domain.StockAnomaly
	pubErr    error
}

func (m *MockEventPublisher) PublishOrderCreated(ctx context.Context, order *domain.Order) error {
	if m.pubErr != nil {
		return m.pubErr
	}
	m.created = append(m.created, order)
	return nil
}

func (m *MockEventPublisher) PublishOrderStatusChanged(ctx context.Context, event *domain.OrderStatusChangedEvent) error {
	if m.pubErr != nil {
		return m.pubErr
	}
	m.statuses = append(m.statuses, event)
	return nil
}

func (m *MockEventPublisher) PublishOrderPaymentChanged(ctx context.Context, event *domain.OrderPaymentChangedEvent) error {
	if m.pubErr != nil {
		return m.pubErr
	}
	m.payments = append(m.payments, event)
	return nil
}

func (m *MockEventPublisher) PublishStockAnomaly(ctx context.Context, anomaly *domain.StockAnomaly) error {
	if m.pubErr != nil {
		return m.pubErr
	}
	m.anomalies = append(m.anomalies, anomaly)
	return nil
}

// MockProducer records Kafka writes
type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) ProduceJSON(ctx context.Context, topic, key string, value interface{}, headers map[string]string) error {
	args := m.Called(ctx, topic, key, value, headers)
	return args.Error(0)
}
