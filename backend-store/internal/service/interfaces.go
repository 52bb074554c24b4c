package service

import (
	"context"
	"time"

	"github.com/PercyTuncar/ravehub-website-sub003/backend-store/internal/domain"
	"github.com/PercyTuncar/ravehub-website-sub003/backend-store/internal/dto"
)

// CatalogService manages products
type CatalogService interface {
	CreateProduct(ctx context.Context, req *dto.CreateProductRequest) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id string, req *dto.UpdateProductRequest) (*domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	ListProducts(ctx context.Context, filter *dto.ProductListFilter, activeOnly bool) ([]*domain.Product, int64, error)
	SetStock(ctx context.Context, productID string, req *dto.UpdateStockRequest) (*domain.Product, error)
}

// StockService checks and moves stock
type StockService interface {
	// CheckStockAvailability is true iff every item is in stock. A missing product
	// makes the answer false; a backend failure is returned as an error.
	CheckStockAvailability(ctx context.Context, items []domain.StockItem) (bool, error)

	// CheckCart returns the per-item detail behind CheckStockAvailability
	CheckCart(ctx context.Context, items []domain.StockItem) ([]domain.StockLevel, bool, error)

	// UpdateStockAfterOrder decrements each item, flooring at zero. Calling it twice
	// decrements twice.
	UpdateStockAfterOrder(ctx context.Context, items []domain.StockItem) error
}

// StatusUpdate is an admin request to move an order
type StatusUpdate struct {
	Status               string
	ActorID              string
	Notes                string
	TrackingNumber       string
	ExpectedDeliveryDate *time.Time
}

// OrderService runs checkout and the order state machines
type OrderService interface {
	CreateOrder(ctx context.Context, req *dto.CreateOrderRequest) (*domain.Order, error)
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
	ListOrders(ctx context.Context, filter *domain.OrderFilter) ([]*domain.Order, int64, error)
	UpdateOrderStatus(ctx context.Context, orderID string, update *StatusUpdate) (*domain.Order, error)
	UpdatePaymentStatus(ctx context.Context, orderID, status, actorID, reference string) (*domain.Order, error)
	History(ctx context.Context, orderID string) ([]*domain.StatusHistoryEntry, error)
}

// PaymentResult is the outcome of charging an order
type PaymentResult struct {
	Order         *domain.Order
	Gateway       string
	TransactionID string
	Status        string
	ClientSecret  string
	FailureReason string
}

// PaymentService charges orders through the configured gateway
type PaymentService interface {
	PayOrder(ctx context.Context, orderID string) (*PaymentResult, error)

	// RecordOutcome settles a charge the gateway confirmed asynchronously.
	// Redelivery of an already recorded outcome is a no-op.
	RecordOutcome(ctx context.Context, orderID, transactionID string, succeeded bool) (*domain.Order, error)
}
