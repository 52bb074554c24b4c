package service

import (
	"context"
	"time"

	"github.com/PercyTuncar/ravehub-website-sub003/backend-ticket/internal/domain"
	"github.com/PercyTuncar/ravehub-website-sub003/backend-ticket/internal/dto"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/currency"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/logger"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/telemetry"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// pricingService implements PricingService
type pricingService struct {
	syncer    AvailabilitySyncer
	converter Converter
	now       func() time.Time
}

// NewPricingService creates a new PricingService. converter may be nil, in
// which case converted prices are reported as unavailable.
func NewPricingService(syncer AvailabilitySyncer, converter Converter) PricingService {
	if syncer == nil {
		syncer = NewAvailabilitySyncer(nil)
	}
	return &pricingService{
		syncer:    syncer,
		converter: converter,
		now:       time.Now,
	}
}

// GetPricing aggregates the pricing of event using live availability
func (s *pricingService) GetPricing(ctx context.Context, event *domain.Event, displayCurrency string) (*dto.PricingResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.pricing.get")
	defer span.End()

	span.SetAttributes(attribute.String("event_id", event.ID))

	live, err := s.syncer.Overlay(ctx, event)
	if err != nil {
		// persisted counters lag live sales but are still a valid answer
		logger.Get().WarnContext(ctx, "live availability unavailable, using persisted counters",
			zap.String("event_id", event.ID), zap.Error(err))
		live = event
	}

	resp := &dto.PricingResponse{
		EventID:  event.ID,
		Currency: event.Currency,
		Options:  domain.FlattenPricing(live),
		SoldOut:  domain.IsSoldOut(live),
		OnSale:   domain.IsOnSale(live, s.now()),
	}
	if resp.Options == nil {
		resp.Options = []domain.PriceOption{}
	}

	if phase, ok := domain.ActivePhase(live, s.now()); ok {
		resp.ActivePhase = &dto.ActivePhaseResponse{ID: phase.ID, Name: phase.Name, EndDate: phase.EndDate}
	}

	cheapest, ok := domain.CheapestAvailable(live)
	if !ok {
		return resp, nil
	}
	resp.Cheapest = &cheapest

	if displayCurrency != "" {
		resp.Converted = s.convert(ctx, cheapest.Price, event.Currency, displayCurrency)
	}
	return resp, nil
}

func (s *pricingService) convert(ctx context.Context, price float64, from, to string) *dto.ConvertedPrice {
	out := &dto.ConvertedPrice{Currency: currency.Normalize(to)}
	if s.converter == nil {
		return out
	}

	conv, err := s.converter.Convert(ctx, decimal.NewFromFloat(price), from, to)
	if err != nil {
		logger.Get().Debug("price conversion unavailable", zap.String("from", from), zap.String("to", to), zap.Error(err))
		return out
	}

	result := currency.Round2(conv.Result)
	out.Available = true
	out.Price = &result
	out.Rate = &conv.Rate
	out.Stale = conv.Stale
	if !conv.LastUpdated.IsZero() {
		out.LastUpdated = &conv.LastUpdated
	}
	return out
}
