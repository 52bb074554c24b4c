package domain

import (
	"fmt"
	"sort"
	"time"
)

// EventStatus represents the lifecycle status of an event
type EventStatus string

const (
	EventStatusDraft     EventStatus = "draft"
	EventStatusPublished EventStatus = "published"
	EventStatusCancelled EventStatus = "cancelled"
	EventStatusCompleted EventStatus = "completed"
)

// IsValid reports whether s is a known status
func (s EventStatus) IsValid() bool {
	switch s {
	case EventStatusDraft, EventStatusPublished, EventStatusCancelled, EventStatusCompleted:
		return true
	}
	return false
}

// MaxTicketsPerPurchase caps a single ticket purchase
const MaxTicketsPerPurchase = 10

// Event is an event document. Zones and sales phases are embedded.
type Event struct {
	ID          string       `bson:"_id" json:"id"`
	TenantID    string       `bson:"tenant_id" json:"tenant_id"`
	OrganizerID string       `bson:"organizer_id" json:"organizer_id"`
	Name        string       `bson:"name" json:"name"`
	Slug        string       `bson:"slug" json:"slug"`
	Description string       `bson:"description" json:"description"`
	Venue       string       `bson:"venue" json:"venue"`
	City        string       `bson:"city" json:"city"`
	Country     string       `bson:"country" json:"country"`
	Currency    string       `bson:"currency" json:"currency"`
	StartDate   time.Time    `bson:"start_date" json:"start_date"`
	EndDate     time.Time    `bson:"end_date" json:"end_date"`
	Status      EventStatus  `bson:"status" json:"status"`
	Zones       []Zone       `bson:"zones" json:"zones"`
	SalesPhases []SalesPhase `bson:"sales_phases" json:"sales_phases"`
	PublishedAt *time.Time   `bson:"published_at,omitempty" json:"published_at,omitempty"`
	CreatedAt   time.Time    `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time    `bson:"updated_at" json:"updated_at"`
	DeletedAt   *time.Time   `bson:"deleted_at,omitempty" json:"-"`
}

// Zone is a physical area of the venue
type Zone struct {
	ID       string `bson:"id" json:"id"`
	Name     string `bson:"name" json:"name"`
	Capacity int    `bson:"capacity" json:"capacity"`
}

// SalesPhase is a time-bounded pricing window, e.g. Early Bird
type SalesPhase struct {
	ID          string        `bson:"id" json:"id"`
	Name        string        `bson:"name" json:"name"`
	StartDate   time.Time     `bson:"start_date" json:"start_date"`
	EndDate     time.Time     `bson:"end_date" json:"end_date"`
	ZonePricing []ZonePricing `bson:"zone_pricing" json:"zone_pricing"`
}

// ZonePricing is the price and remaining allotment of a zone within a phase
type ZonePricing struct {
	ZoneID    string  `bson:"zone_id" json:"zone_id"`
	Price     float64 `bson:"price" json:"price"`
	Available int     `bson:"available" json:"available"`
}

// Contains reports whether t falls in [StartDate, EndDate)
func (p *SalesPhase) Contains(t time.Time) bool {
	return !t.Before(p.StartDate) && t.Before(p.EndDate)
}

// Pricing returns the entry for zoneID
func (p *SalesPhase) Pricing(zoneID string) (*ZonePricing, bool) {
	for i := range p.ZonePricing {
		if p.ZonePricing[i].ZoneID == zoneID {
			return &p.ZonePricing[i], true
		}
	}
	return nil, false
}

// Phase returns the phase with the given ID
func (e *Event) Phase(id string) (*SalesPhase, bool) {
	for i := range e.SalesPhases {
		if e.SalesPhases[i].ID == id {
			return &e.SalesPhases[i], true
		}
	}
	return nil, false
}

// ZoneName returns the display name of a zone, or its ID when unknown
func (e *Event) ZoneName(id string) string {
	for _, z := range e.Zones {
		if z.ID == id {
			return z.Name
		}
	}
	return id
}

// IsDeleted reports whether the event was soft deleted
func (e *Event) IsDeleted() bool {
	return e.DeletedAt != nil
}

// CanEdit reports whether zones and phases may still change
func (e *Event) CanEdit() bool {
	return e.Status == EventStatusDraft || e.Status == EventStatusPublished
}

// ValidateLayout checks zones and phases for consistency: unique zone IDs,
// pricing that references known zones, ordered non-overlapping phases and
// non-negative prices and allotments.
func (e *Event) ValidateLayout() error {
	if !e.EndDate.IsZero() && e.EndDate.Before(e.StartDate) {
		return fmt.Errorf("%w: event ends before it starts", ErrInvalidEventDates)
	}

	zones := make(map[string]Zone, len(e.Zones))
	for _, z := range e.Zones {
		if z.ID == "" || z.Name == "" {
			return fmt.Errorf("%w: zone id and name are required", ErrInvalidLayout)
		}
		if _, dup := zones[z.ID]; dup {
			return fmt.Errorf("%w: duplicate zone %q", ErrInvalidLayout, z.ID)
		}
		if z.Capacity < 0 {
			return fmt.Errorf("%w: zone %q has negative capacity", ErrInvalidLayout, z.ID)
		}
		zones[z.ID] = z
	}

	phases := make([]SalesPhase, len(e.SalesPhases))
	copy(phases, e.SalesPhases)
	sort.Slice(phases, func(i, j int) bool { return phases[i].StartDate.Before(phases[j].StartDate) })

	for i, p := range phases {
		if p.Name == "" {
			return fmt.Errorf("%w: phase name is required", ErrInvalidLayout)
		}
		if !p.EndDate.After(p.StartDate) {
			return fmt.Errorf("%w: phase %q must end after it starts", ErrInvalidLayout, p.Name)
		}
		if i > 0 && p.StartDate.Before(phases[i-1].EndDate) {
			return fmt.Errorf("%w: phase %q overlaps %q", ErrInvalidLayout, p.Name, phases[i-1].Name)
		}
		seen := make(map[string]bool, len(p.ZonePricing))
		for _, zp := range p.ZonePricing {
			z, ok := zones[zp.ZoneID]
			if !ok {
				return fmt.Errorf("%w: phase %q prices unknown zone %q", ErrInvalidLayout, p.Name, zp.ZoneID)
			}
			if seen[zp.ZoneID] {
				return fmt.Errorf("%w: phase %q prices zone %q twice", ErrInvalidLayout, p.Name, zp.ZoneID)
			}
			seen[zp.ZoneID] = true
			if zp.Price < 0 || zp.Available < 0 {
				return fmt.Errorf("%w: phase %q zone %q has negative price or availability", ErrInvalidLayout, p.Name, zp.ZoneID)
			}
			if z.Capacity > 0 && zp.Available > z.Capacity {
				return fmt.Errorf("%w: phase %q zone %q exceeds zone capacity", ErrInvalidLayout, p.Name, zp.ZoneID)
			}
		}
	}
	return nil
}
