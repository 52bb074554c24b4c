package dto

import (
	"time"

	"github.com/PercyTuncar/ravehub-website-sub003/backend-ticket/internal/domain"
	"github.com/shopspring/decimal"
)

// PricingResponse is the aggregated pricing of an event
type PricingResponse struct {
	EventID     string               `json:"event_id"`
	Currency    string               `json:"currency"`
	Options     []domain.PriceOption `json:"options"`
	Cheapest    *domain.PriceOption  `json:"cheapest,omitempty"`
	SoldOut     bool                 `json:"sold_out"`
	OnSale      bool                 `json:"on_sale"`
	ActivePhase *ActivePhaseResponse `json:"active_phase,omitempty"`
	Converted   *ConvertedPrice      `json:"converted,omitempty"`
}

// ActivePhaseResponse identifies the phase currently selling
type ActivePhaseResponse struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	EndDate time.Time `json:"end_date"`
}

// ConvertedPrice is the cheapest price in the requested display currency.
// Available is false when no usable rate exists; Price is then omitted.
type ConvertedPrice struct {
	Currency    string           `json:"currency"`
	Available   bool             `json:"available"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Rate        *decimal.Decimal `json:"rate,omitempty"`
	LastUpdated *time.Time       `json:"last_updated,omitempty"`
	Stale       bool             `json:"stale"`
}

// AvailabilityEntry compares the persisted and live counters of one (phase, zone)
type AvailabilityEntry struct {
	PhaseID   string `json:"phase_id"`
	ZoneID    string `json:"zone_id"`
	Persisted int    `json:"persisted"`
	Live      *int64 `json:"live"`
}
