package dto

import (
	"strings"
	"time"

	"github.com/PercyTuncar/ravehub-website-sub003/backend-ticket/internal/domain"
)

// ZoneRequest describes a zone in create and update requests
type ZoneRequest struct {
	ID       string `json:"id" binding:"required,max=50"`
	Name     string `json:"name" binding:"required,max=100"`
	Capacity int    `json:"capacity"`
}

// ZonePricingRequest is the price of one zone in a phase
type ZonePricingRequest struct {
	ZoneID    string  `json:"zone_id" binding:"required"`
	Price     float64 `json:"price"`
	Available int     `json:"available"`
}

// SalesPhaseRequest describes a sales phase. ID is generated when empty.
type SalesPhaseRequest struct {
	ID          string               `json:"id"`
	Name        string               `json:"name" binding:"required,max=100"`
	StartDate   time.Time            `json:"start_date" binding:"required"`
	EndDate     time.Time            `json:"end_date" binding:"required"`
	ZonePricing []ZonePricingRequest `json:"zone_pricing"`
}

// CreateEventRequest represents the request to create a new event
type CreateEventRequest struct {
	Name        string              `json:"name" binding:"required,min=1,max=255"`
	Description string              `json:"description"`
	Venue       string              `json:"venue" binding:"max=255"`
	City        string              `json:"city" binding:"max=100"`
	Country     string              `json:"country" binding:"required,max=100"`
	Currency    string              `json:"currency" binding:"required,len=3"`
	StartDate   time.Time           `json:"start_date" binding:"required"`
	EndDate     time.Time           `json:"end_date"`
	Zones       []ZoneRequest       `json:"zones"`
	SalesPhases []SalesPhaseRequest `json:"sales_phases"`
	TenantID    string              `json:"-"` // Set from context
	OrganizerID string              `json:"-"` // Set from context
}

// Validate validates the CreateEventRequest
func (r *CreateEventRequest) Validate() (bool, string) {
	if strings.TrimSpace(r.Name) == "" {
		return false, "Event name is required"
	}
	if len(strings.TrimSpace(r.Currency)) != 3 {
		return false, "Currency must be a 3-letter code"
	}
	if r.StartDate.IsZero() {
		return false, "Start date is required"
	}
	if !r.EndDate.IsZero() && r.EndDate.Before(r.StartDate) {
		return false, "End date must be after start date"
	}
	return validatePhases(r.SalesPhases)
}

// UpdateEventRequest represents the request to update an event.
// Nil fields are left unchanged; Zones and SalesPhases replace the current ones when set.
type UpdateEventRequest struct {
	Name        *string              `json:"name" binding:"omitempty,min=1,max=255"`
	Description *string              `json:"description"`
	Venue       *string              `json:"venue"`
	City        *string              `json:"city"`
	Country     *string              `json:"country"`
	StartDate   *time.Time           `json:"start_date"`
	EndDate     *time.Time           `json:"end_date"`
	Zones       *[]ZoneRequest       `json:"zones"`
	SalesPhases *[]SalesPhaseRequest `json:"sales_phases"`
}

// Validate validates the UpdateEventRequest
func (r *UpdateEventRequest) Validate() (bool, string) {
	if r.Name != nil && strings.TrimSpace(*r.Name) == "" {
		return false, "Event name cannot be empty"
	}
	if r.StartDate != nil && r.EndDate != nil && r.EndDate.Before(*r.StartDate) {
		return false, "End date must be after start date"
	}
	if r.SalesPhases != nil {
		return validatePhases(*r.SalesPhases)
	}
	return true, ""
}

func validatePhases(phases []SalesPhaseRequest) (bool, string) {
	for _, p := range phases {
		if strings.TrimSpace(p.Name) == "" {
			return false, "Sales phase name is required"
		}
		if !p.EndDate.After(p.StartDate) {
			return false, "Sales phase must end after it starts"
		}
		for _, zp := range p.ZonePricing {
			if zp.Price < 0 {
				return false, "Price cannot be negative"
			}
			if zp.Available < 0 {
				return false, "Availability cannot be negative"
			}
		}
	}
	return true, ""
}

// EventListFilter represents filters for listing events
type EventListFilter struct {
	Status   string `form:"status"`
	City     string `form:"city"`
	Country  string `form:"country"`
	Search   string `form:"search"`
	TenantID string `form:"-"`
	Limit    int    `form:"limit"`
	Offset   int    `form:"offset"`
}

// SetDefaults sets default values for pagination
func (f *EventListFilter) SetDefaults() {
	if f.Limit <= 0 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		f.Limit = 100
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
}

// EventResponse represents the response for an event
type EventResponse struct {
	ID          string              `json:"id"`
	TenantID    string              `json:"tenant_id"`
	Name        string              `json:"name"`
	Slug        string              `json:"slug"`
	Description string              `json:"description"`
	Venue       string              `json:"venue"`
	City        string              `json:"city"`
	Country     string              `json:"country"`
	Currency    string              `json:"currency"`
	StartDate   string              `json:"start_date"`
	EndDate     string              `json:"end_date,omitempty"`
	Status      string              `json:"status"`
	Zones       []domain.Zone       `json:"zones"`
	SalesPhases []domain.SalesPhase `json:"sales_phases"`
	Cheapest    *domain.PriceOption `json:"cheapest,omitempty"`
	SoldOut     bool                `json:"sold_out"`
	OnSale      bool                `json:"on_sale"`
	PublishedAt *string             `json:"published_at,omitempty"`
	CreatedAt   string              `json:"created_at"`
	UpdatedAt   string              `json:"updated_at"`
}
