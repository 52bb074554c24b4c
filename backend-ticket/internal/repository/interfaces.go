package repository

import (
	"context"
	"fmt"

	"github.com/PercyTuncar/ravehub-website-sub003/backend-ticket/internal/domain"
)

// EventRepository defines the interface for event data access
type EventRepository interface {
	// Create creates a new event
	Create(ctx context.Context, event *domain.Event) error
	// GetByID retrieves an event by ID
	GetByID(ctx context.Context, id string) (*domain.Event, error)
	// GetBySlug retrieves an event by slug
	GetBySlug(ctx context.Context, slug string) (*domain.Event, error)
	// Update replaces an event document
	Update(ctx context.Context, event *domain.Event) error
	// Delete soft deletes an event by ID
	Delete(ctx context.Context, id string) error
	// List lists events with filters and pagination
	List(ctx context.Context, filter *EventFilter, limit, offset int) ([]*domain.Event, int64, error)
	// ListPublished lists every published, non-deleted event
	ListPublished(ctx context.Context) ([]*domain.Event, error)
	// SlugExists checks if a slug already exists
	SlugExists(ctx context.Context, slug string) (bool, error)
	// ApplySales subtracts qty from a (phase, zone) allotment. When fewer
	// than qty remain the allotment is set to zero and floored is true.
	ApplySales(ctx context.Context, eventID, phaseID, zoneID string, qty int) (floored bool, err error)
}

// EventFilter contains filter options for listing events
type EventFilter struct {
	Status      string
	TenantID    string
	OrganizerID string
	City        string
	Country     string
	Search      string
}

// AvailabilityRepository holds the live (phase, zone) counters that
// purchases decrement atomically.
type AvailabilityRepository interface {
	// Reserve atomically checks and decrements a counter
	Reserve(ctx context.Context, eventID, phaseID, zoneID string, qty int) (*ReserveResult, error)
	// Release gives qty back to a counter
	Release(ctx context.Context, eventID, phaseID, zoneID string, qty int) (int64, error)
	// Seed sets a counter only if it does not exist yet
	Seed(ctx context.Context, eventID, phaseID, zoneID string, available int) (bool, error)
	// SetEvent overwrites every counter of an event
	SetEvent(ctx context.Context, event *domain.Event) error
	// DeleteEvent removes every counter of an event
	DeleteEvent(ctx context.Context, event *domain.Event) error
	// Snapshot reads the counters of an event; missing keys are absent from the map
	Snapshot(ctx context.Context, event *domain.Event) (map[SlotKey]int64, error)
}

// SlotKey identifies one (phase, zone) of an event
type SlotKey struct {
	PhaseID string
	ZoneID  string
}

// ReserveResult is the outcome of the reserve script
type ReserveResult struct {
	Success      bool
	Remaining    int64
	ErrorCode    string
	ErrorMessage string
}

// Reserve script error codes
const (
	ErrCodeInvalidQuantity  = "INVALID_QUANTITY"
	ErrCodePricingNotFound  = "PRICING_NOT_FOUND"
	ErrCodeInsufficientLeft = "INSUFFICIENT_AVAILABILITY"
)

// AvailabilityKey is the Redis key of one (phase, zone) counter
func AvailabilityKey(eventID, phaseID, zoneID string) string {
	return fmt.Sprintf("pricing:availability:%s:%s:%s", eventID, phaseID, zoneID)
}
