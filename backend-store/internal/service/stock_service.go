package service

import (
	"context"
	"fmt"
	"time"

	"github.com/PercyTuncar/ravehub-website-sub003/backend-store/internal/domain"
	"github.com/PercyTuncar/ravehub-website-sub003/backend-store/internal/repository"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/logger"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/telemetry"
	"go.uber.org/zap"
)

type stockService struct {
	stockRepo repository.StockRepository
	publisher EventPublisher
	now       func() time.Time
}

// NewStockService creates a new StockService
func NewStockService(stockRepo repository.StockRepository, publisher EventPublisher) StockService {
	if publisher == nil {
		publisher = NewNoOpEventPublisher()
	}
	return &stockService{stockRepo: stockRepo, publisher: publisher, now: time.Now}
}

func (s *stockService) CheckStockAvailability(ctx context.Context, items []domain.StockItem) (bool, error) {
	_, ok, err := s.CheckCart(ctx, items)
	return ok, err
}

func (s *stockService) CheckCart(ctx context.Context, items []domain.StockItem) ([]domain.StockLevel, bool, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.stock.check")
	defer span.End()

	if len(items) == 0 {
		return nil, false, domain.ErrEmptyOrder
	}
	for _, it := range items {
		if it.Quantity <= 0 {
			return nil, false, domain.ErrInvalidQuantity
		}
	}

	levels, err := s.stockRepo.GetStockLevels(ctx, domain.MergeStockItems(items))
	if err != nil {
		return nil, false, err
	}

	available := true
	for _, l := range levels {
		if !l.Found {
			logger.Get().WarnContext(ctx, "stock check for unknown product",
				zap.String("product_id", l.ProductID),
				zap.String("variant_id", l.VariantID),
			)
		}
		if !l.OK() {
			available = false
		}
	}
	return levels, available, nil
}

// UpdateStockAfterOrder records a sale that already happened. Unknown products are
// skipped; the first backend failure aborts the remaining items.
func (s *stockService) UpdateStockAfterOrder(ctx context.Context, items []domain.StockItem) error {
	ctx, span := telemetry.StartSpan(ctx, "service.stock.update_after_order")
	defer span.End()

	for _, it := range items {
		if it.Quantity <= 0 {
			return domain.ErrInvalidQuantity
		}
	}

	for _, it := range items {
		previous, err := s.stockRepo.DecrementFloor(ctx, it)
		if domain.IsNotFoundError(err) {
			logger.Get().WarnContext(ctx, "stock update for unknown product skipped",
				zap.String("product_id", it.ProductID),
				zap.String("variant_id", it.VariantID),
			)
			continue
		}
		if err != nil {
			telemetry.SetSpanError(ctx, err)
			return fmt.Errorf("decrement %s: %w", it.ProductID, err)
		}
		if previous >= it.Quantity {
			continue
		}

		anomaly := &domain.StockAnomaly{
			ProductID: it.ProductID,
			VariantID: it.VariantID,
			Previous:  previous,
			Requested: it.Quantity,
			At:        s.now().UTC(),
		}
		logger.Get().WarnContext(ctx, "stock anomaly",
			zap.String("product_id", anomaly.ProductID),
			zap.String("variant_id", anomaly.VariantID),
			zap.Int("previous", anomaly.Previous),
			zap.Int("requested", anomaly.Requested),
		)
		if err := s.publisher.PublishStockAnomaly(ctx, anomaly); err != nil {
			logger.Get().WarnContext(ctx, "failed to publish stock anomaly", zap.Error(err))
		}
	}
	return nil
}
