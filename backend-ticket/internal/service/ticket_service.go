package service

import (
	"context"
	"fmt"
	"time"

	"github.com/PercyTuncar/ravehub-website-sub003/backend-ticket/internal/domain"
	"github.com/PercyTuncar/ravehub-website-sub003/backend-ticket/internal/dto"
	"github.com/PercyTuncar/ravehub-website-sub003/backend-ticket/internal/repository"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/logger"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ticketService implements TicketService
type ticketService struct {
	eventRepo repository.EventRepository
	availRepo repository.AvailabilityRepository
	publisher EventPublisher
	now       func() time.Time
}

// NewTicketService creates a new TicketService
func NewTicketService(eventRepo repository.EventRepository, availRepo repository.AvailabilityRepository, publisher EventPublisher) TicketService {
	if publisher == nil {
		publisher = NewNoOpEventPublisher()
	}
	return &ticketService{
		eventRepo: eventRepo,
		availRepo: availRepo,
		publisher: publisher,
		now:       time.Now,
	}
}

// PurchaseTickets reserves tickets for one phase and zone
func (s *ticketService) PurchaseTickets(ctx context.Context, req *dto.PurchaseTicketsRequest) (*domain.TicketPurchase, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.ticket.purchase")
	defer span.End()

	span.SetAttributes(
		attribute.String("event_id", req.EventID),
		attribute.String("phase_id", req.PhaseID),
		attribute.String("zone_id", req.ZoneID),
		attribute.Int("quantity", req.Quantity),
	)

	if req.Quantity <= 0 || req.Quantity > domain.MaxTicketsPerPurchase {
		return nil, domain.ErrInvalidQuantity
	}
	if valid, msg := req.Validate(); !valid {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidRequest, msg)
	}

	event, err := s.eventRepo.GetByID(ctx, req.EventID)
	if err != nil {
		return nil, err
	}
	if event.Status != domain.EventStatusPublished {
		return nil, domain.ErrEventNotOnSale
	}

	phase, ok := event.Phase(req.PhaseID)
	if !ok {
		return nil, domain.ErrPricingNotFound
	}
	pricing, ok := phase.Pricing(req.ZoneID)
	if !ok {
		return nil, domain.ErrPricingNotFound
	}
	now := s.now().UTC()
	if !phase.Contains(now) {
		return nil, domain.ErrPhaseNotActive
	}

	remaining, err := s.reserve(ctx, event.ID, pricing, req)
	if err != nil {
		telemetry.SetSpanError(ctx, err)
		return nil, err
	}

	purchase := &domain.TicketPurchase{
		ID:          uuid.New().String(),
		EventID:     event.ID,
		TenantID:    event.TenantID,
		UserID:      req.UserID,
		PhaseID:     phase.ID,
		ZoneID:      pricing.ZoneID,
		Quantity:    req.Quantity,
		UnitPrice:   pricing.Price,
		Total:       pricing.Price * float64(req.Quantity),
		Currency:    event.Currency,
		Remaining:   remaining,
		PurchasedAt: now,
	}

	if err := s.publisher.PublishTicketSold(ctx, domain.NewTicketSoldEvent(purchase)); err != nil {
		// without the event the sale would never reach MongoDB, so give the tickets back
		if _, relErr := s.availRepo.Release(ctx, event.ID, phase.ID, pricing.ZoneID, req.Quantity); relErr != nil {
			logger.Get().ErrorContext(ctx, "failed to release tickets after publish failure",
				zap.String("event_id", event.ID),
				zap.String("phase_id", phase.ID),
				zap.String("zone_id", pricing.ZoneID),
				zap.Int("quantity", req.Quantity),
				zap.Error(relErr),
			)
		}
		telemetry.SetSpanError(ctx, err)
		return nil, domain.Transient("publish.ticket_sold", err)
	}

	span.SetAttributes(attribute.Int64("remaining", remaining))
	return purchase, nil
}

// reserve runs the atomic decrement, seeding the counter from the persisted
// allotment once when it is missing
func (s *ticketService) reserve(ctx context.Context, eventID string, pricing *domain.ZonePricing, req *dto.PurchaseTicketsRequest) (int64, error) {
	res, err := s.availRepo.Reserve(ctx, eventID, req.PhaseID, req.ZoneID, req.Quantity)
	if err != nil {
		return 0, err
	}

	if !res.Success && res.ErrorCode == repository.ErrCodePricingNotFound {
		if _, err := s.availRepo.Seed(ctx, eventID, req.PhaseID, req.ZoneID, pricing.Available); err != nil {
			return 0, err
		}
		logger.Get().InfoContext(ctx, "seeded missing availability counter",
			zap.String("event_id", eventID),
			zap.String("phase_id", req.PhaseID),
			zap.String("zone_id", req.ZoneID),
			zap.Int("available", pricing.Available),
		)
		if res, err = s.availRepo.Reserve(ctx, eventID, req.PhaseID, req.ZoneID, req.Quantity); err != nil {
			return 0, err
		}
	}

	if res.Success {
		return res.Remaining, nil
	}

	switch res.ErrorCode {
	case repository.ErrCodeInsufficientLeft:
		return 0, domain.ErrInsufficientAvailability
	case repository.ErrCodeInvalidQuantity:
		return 0, domain.ErrInvalidQuantity
	case repository.ErrCodePricingNotFound:
		return 0, domain.ErrPricingNotFound
	default:
		return 0, fmt.Errorf("reserve tickets: %s: %s", res.ErrorCode, res.ErrorMessage)
	}
}
