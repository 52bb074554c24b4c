package repository

import (
	"context"

	"github.com/PercyTuncar/ravehub-website-sub003/backend-store/internal/domain"
	"github.com/jackc/pgx/v5"
)

// ProductFilter narrows catalog listings
type ProductFilter struct {
	TenantID   string
	ActiveOnly bool
	Search     string
	Limit      int
	Offset     int
}

// ProductRepository defines catalog persistence
type ProductRepository interface {
	// Create inserts a product and its variants
	Create(ctx context.Context, product *domain.Product) error

	// Update rewrites product fields. Variants and stock are not touched.
	Update(ctx context.Context, product *domain.Product) error

	// GetByID returns ErrProductNotFound when the product does not exist
	GetByID(ctx context.Context, id string) (*domain.Product, error)

	// GetByIDs returns the products found, keyed by ID
	GetByIDs(ctx context.Context, ids []string) (map[string]*domain.Product, error)

	// List returns a page of products and the total count
	List(ctx context.Context, filter *ProductFilter) ([]*domain.Product, int64, error)

	// SetStock overwrites the stock of a product, or of a variant when variantID is set
	SetStock(ctx context.Context, productID, variantID string, stock int) error
}

// StockRepository reads and moves stock
type StockRepository interface {
	// GetStockLevels loads the current stock of every item. Missing products come back with Found=false.
	GetStockLevels(ctx context.Context, items []domain.StockItem) ([]domain.StockLevel, error)

	// DecrementFloor subtracts item.Quantity, never going below zero, and returns the stock before the write
	DecrementFloor(ctx context.Context, item domain.StockItem) (int, error)

	// ReserveStock decrements every item inside tx only if enough stock remains
	ReserveStock(ctx context.Context, tx pgx.Tx, items []domain.StockItem) error
}

// OrderRepository defines order persistence
type OrderRepository interface {
	// Create inserts the order, its items and the first history row inside tx
	Create(ctx context.Context, tx pgx.Tx, order *domain.Order) error

	// GetByID returns ErrOrderNotFound when the order does not exist
	GetByID(ctx context.Context, id string) (*domain.Order, error)

	// List returns a page of orders and the total count
	List(ctx context.Context, filter *domain.OrderFilter) ([]*domain.Order, int64, error)

	// UpdateStatus writes the change only if the order is still in change.From
	UpdateStatus(ctx context.Context, change *domain.StatusChange) error

	// UpdatePaymentStatus writes the change only if the payment is still in change.From
	UpdatePaymentStatus(ctx context.Context, change *domain.PaymentChange) error

	// History returns the audit trail of an order, oldest first
	History(ctx context.Context, orderID string) ([]*domain.StatusHistoryEntry, error)
}

// TxRunner runs fn in a transaction, committing when it returns nil
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}
