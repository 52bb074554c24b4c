package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PercyTuncar/ravehub-website-sub003/backend-store/internal/domain"
	"github.com/PercyTuncar/ravehub-website-sub003/backend-store/internal/dto"
	"github.com/PercyTuncar/ravehub-website-sub003/backend-store/internal/repository"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/logger"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/telemetry"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type orderService struct {
	productRepo repository.ProductRepository
	stockRepo   repository.StockRepository
	orderRepo   repository.OrderRepository
	tx          repository.TxRunner
	publisher   EventPublisher
	shipping    domain.ShippingPolicy
	now         func() time.Time
}

// OrderServiceDeps groups the collaborators of the order service
type OrderServiceDeps struct {
	Products  repository.ProductRepository
	Stock     repository.StockRepository
	Orders    repository.OrderRepository
	Tx        repository.TxRunner
	Publisher EventPublisher
	Shipping  domain.ShippingPolicy
}

// NewOrderService creates a new OrderService
func NewOrderService(deps OrderServiceDeps) OrderService {
	if deps.Publisher == nil {
		deps.Publisher = NewNoOpEventPublisher()
	}
	return &orderService{
		productRepo: deps.Products,
		stockRepo:   deps.Stock,
		orderRepo:   deps.Orders,
		tx:          deps.Tx,
		publisher:   deps.Publisher,
		shipping:    deps.Shipping,
		now:         time.Now,
	}
}

// CreateOrder prices the cart from the catalog, reserves stock and stores the
// order in one transaction. Nothing is written when any item is short.
func (s *orderService) CreateOrder(ctx context.Context, req *dto.CreateOrderRequest) (*domain.Order, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.order.create")
	defer span.End()

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidRequest, err.Error())
	}

	order, err := s.priceOrder(ctx, req)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx pgx.Tx) error {
		if err := s.stockRepo.ReserveStock(ctx, tx, order.StockItems()); err != nil {
			return err
		}
		return s.orderRepo.Create(ctx, tx, order)
	})
	if err != nil {
		telemetry.SetSpanError(ctx, err)
		return nil, err
	}

	logger.Get().InfoContext(ctx, "order created",
		zap.String("order_id", order.ID),
		zap.String("user_id", order.UserID),
		zap.String("total", order.TotalAmount.String()),
		zap.String("currency", order.Currency),
	)
	if err := s.publisher.PublishOrderCreated(ctx, order); err != nil {
		logger.Get().WarnContext(ctx, "failed to publish order created", zap.String("order_id", order.ID), zap.Error(err))
	}
	return order, nil
}

func (s *orderService) priceOrder(ctx context.Context, req *dto.CreateOrderRequest) (*domain.Order, error) {
	ids := make([]string, 0, len(req.Items))
	seen := make(map[string]bool, len(req.Items))
	for _, it := range req.Items {
		if !seen[it.ProductID] {
			seen[it.ProductID] = true
			ids = append(ids, it.ProductID)
		}
	}

	products, err := s.productRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	order := &domain.Order{
		ID:            uuid.New().String(),
		TenantID:      req.TenantID,
		UserID:        req.UserID,
		Status:        domain.OrderStatusPending,
		PaymentStatus: domain.PaymentStatusPending,
		PaymentMethod: req.PaymentMethod,
		ShippingAddress: domain.ShippingAddress{
			FullName:   strings.TrimSpace(req.ShippingAddress.FullName),
			Address:    strings.TrimSpace(req.ShippingAddress.Address),
			City:       strings.TrimSpace(req.ShippingAddress.City),
			Region:     strings.TrimSpace(req.ShippingAddress.Region),
			Country:    strings.TrimSpace(req.ShippingAddress.Country),
			PostalCode: strings.TrimSpace(req.ShippingAddress.PostalCode),
			Phone:      strings.TrimSpace(req.ShippingAddress.Phone),
		},
		Notes:     req.Notes,
		OrderDate: now,
		UpdatedAt: now,
	}

	subtotal := decimal.Zero
	for _, it := range req.Items {
		product, ok := products[it.ProductID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrProductNotFound, it.ProductID)
		}
		if !product.IsActive {
			return nil, fmt.Errorf("%w: %s", domain.ErrProductInactive, product.Name)
		}
		if order.Currency == "" {
			order.Currency = product.Currency
		} else if order.Currency != product.Currency {
			return nil, domain.ErrCurrencyMismatch
		}

		price, err := product.EffectivePrice(it.VariantID)
		if err != nil {
			return nil, err
		}
		name := product.Name
		if v, ok := product.Variant(it.VariantID); ok {
			name = product.Name + " - " + v.Name
		}

		order.Items = append(order.Items, domain.OrderItem{
			ID:           uuid.New().String(),
			OrderID:      order.ID,
			ProductID:    it.ProductID,
			VariantID:    it.VariantID,
			Name:         name,
			Quantity:     it.Quantity,
			PricePerUnit: price,
		})
		subtotal = subtotal.Add(price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}

	order.ShippingCost = s.shipping.Cost(subtotal)
	order.CalculateTotal()
	return order, nil
}

func (s *orderService) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	return s.orderRepo.GetByID(ctx, id)
}

func (s *orderService) ListOrders(ctx context.Context, filter *domain.OrderFilter) ([]*domain.Order, int64, error) {
	return s.orderRepo.List(ctx, filter)
}

// UpdateOrderStatus moves an order along the fulfilment machine. The write only
// lands if the order is still in the state it was read in.
func (s *orderService) UpdateOrderStatus(ctx context.Context, orderID string, update *StatusUpdate) (*domain.Order, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.order.update_status")
	defer span.End()

	to, err := domain.ParseOrderStatus(update.Status)
	if err != nil {
		return nil, err
	}

	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	change, err := order.PlanStatusChange(to, update.ActorID, update.Notes, update.TrackingNumber, update.ExpectedDeliveryDate, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.orderRepo.UpdateStatus(ctx, change); err != nil {
		telemetry.SetSpanError(ctx, err)
		return nil, err
	}
	order.ApplyStatusChange(change)

	logger.Get().InfoContext(ctx, "order status changed",
		zap.String("order_id", order.ID),
		zap.String("from", change.From.String()),
		zap.String("to", change.To.String()),
		zap.String("actor_id", change.ActorID),
	)
	if err := s.publisher.PublishOrderStatusChanged(ctx, domain.NewStatusChangedEvent(order, change)); err != nil {
		logger.Get().WarnContext(ctx, "failed to publish order status change", zap.String("order_id", order.ID), zap.Error(err))
	}
	return order, nil
}

// UpdatePaymentStatus moves an order along the payment machine
func (s *orderService) UpdatePaymentStatus(ctx context.Context, orderID, status, actorID, reference string) (*domain.Order, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.order.update_payment")
	defer span.End()

	to, err := domain.ParsePaymentStatus(status)
	if err != nil {
		return nil, err
	}

	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	change, err := order.PlanPaymentChange(to, actorID, reference, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.orderRepo.UpdatePaymentStatus(ctx, change); err != nil {
		telemetry.SetSpanError(ctx, err)
		return nil, err
	}
	order.ApplyPaymentChange(change)

	logger.Get().InfoContext(ctx, "order payment changed",
		zap.String("order_id", order.ID),
		zap.String("from", change.From.String()),
		zap.String("to", change.To.String()),
	)
	if err := s.publisher.PublishOrderPaymentChanged(ctx, domain.NewPaymentChangedEvent(order, change)); err != nil {
		logger.Get().WarnContext(ctx, "failed to publish order payment change", zap.String("order_id", order.ID), zap.Error(err))
	}
	return order, nil
}

func (s *orderService) History(ctx context.Context, orderID string) ([]*domain.StatusHistoryEntry, error) {
	if _, err := s.orderRepo.GetByID(ctx, orderID); err != nil {
		return nil, err
	}
	return s.orderRepo.History(ctx, orderID)
}
