package service

import (
	"context"

	"github.com/PercyTuncar/ravehub-website-sub003/backend-ticket/internal/domain"
	"github.com/PercyTuncar/ravehub-website-sub003/backend-ticket/internal/dto"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/currency"
	"github.com/shopspring/decimal"
)

// EventService defines the interface for event business logic
type EventService interface {
	// CreateEvent creates a new draft event
	CreateEvent(ctx context.Context, req *dto.CreateEventRequest) (*domain.Event, error)
	// GetEventByID retrieves an event by ID
	GetEventByID(ctx context.Context, id string) (*domain.Event, error)
	// GetEventBySlug retrieves an event by slug
	GetEventBySlug(ctx context.Context, slug string) (*domain.Event, error)
	// ListEvents lists events with filters and pagination
	ListEvents(ctx context.Context, filter *dto.EventListFilter) ([]*domain.Event, int64, error)
	// UpdateEvent updates an event and resyncs changed allotments
	UpdateEvent(ctx context.Context, id string, req *dto.UpdateEventRequest) (*domain.Event, error)
	// DeleteEvent soft deletes an event
	DeleteEvent(ctx context.Context, id string) error
	// PublishEvent publishes a draft event and loads its availability
	PublishEvent(ctx context.Context, id string) (*domain.Event, error)
}

// PricingService aggregates the pricing of an event
type PricingService interface {
	// GetPricing returns every option, the cheapest available one and the sold out
	// flag, with live availability. displayCurrency may be empty.
	GetPricing(ctx context.Context, event *domain.Event, displayCurrency string) (*dto.PricingResponse, error)
}

// TicketService sells tickets against the live availability counters
type TicketService interface {
	// PurchaseTickets reserves tickets for one phase and zone and emits ticket.sold
	PurchaseTickets(ctx context.Context, req *dto.PurchaseTicketsRequest) (*domain.TicketPurchase, error)
}

// Converter converts amounts between currencies
type Converter interface {
	Convert(ctx context.Context, amount decimal.Decimal, from, to string) (*currency.Conversion, error)
}

// Ensure the shared rate service satisfies Converter
var _ Converter = (*currency.RateService)(nil)
