package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/PercyTuncar/ravehub-website-sub003/backend-ticket/internal/domain"
	"github.com/PercyTuncar/ravehub-website-sub003/backend-ticket/internal/dto"
	"github.com/PercyTuncar/ravehub-website-sub003/backend-ticket/internal/repository"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/logger"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// eventService implements EventService
type eventService struct {
	eventRepo repository.EventRepository
	syncer    AvailabilitySyncer
	now       func() time.Time
}

// NewEventService creates a new EventService
func NewEventService(eventRepo repository.EventRepository, syncer AvailabilitySyncer) EventService {
	if syncer == nil {
		syncer = NewAvailabilitySyncer(nil)
	}
	return &eventService{
		eventRepo: eventRepo,
		syncer:    syncer,
		now:       time.Now,
	}
}

// CreateEvent creates a new draft event
func (s *eventService) CreateEvent(ctx context.Context, req *dto.CreateEventRequest) (*domain.Event, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.event.create")
	defer span.End()

	if valid, msg := req.Validate(); !valid {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidRequest, msg)
	}

	slug, err := s.ensureUniqueSlug(ctx, generateSlug(req.Name))
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	event := &domain.Event{
		ID:          uuid.New().String(),
		TenantID:    req.TenantID,
		OrganizerID: req.OrganizerID,
		Name:        strings.TrimSpace(req.Name),
		Slug:        slug,
		Description: req.Description,
		Venue:       req.Venue,
		City:        req.City,
		Country:     req.Country,
		Currency:    strings.ToUpper(strings.TrimSpace(req.Currency)),
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Status:      domain.EventStatusDraft,
		Zones:       toZones(req.Zones),
		SalesPhases: toPhases(req.SalesPhases),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := event.ValidateLayout(); err != nil {
		return nil, err
	}

	if err := s.eventRepo.Create(ctx, event); err != nil {
		telemetry.SetSpanError(ctx, err)
		return nil, err
	}

	return event, nil
}

// GetEventByID retrieves an event by ID
func (s *eventService) GetEventByID(ctx context.Context, id string) (*domain.Event, error) {
	return s.eventRepo.GetByID(ctx, id)
}

// GetEventBySlug retrieves an event by slug
func (s *eventService) GetEventBySlug(ctx context.Context, slug string) (*domain.Event, error) {
	return s.eventRepo.GetBySlug(ctx, slug)
}

// ListEvents lists events with filters and pagination
func (s *eventService) ListEvents(ctx context.Context, filter *dto.EventListFilter) ([]*domain.Event, int64, error) {
	filter.SetDefaults()

	repoFilter := &repository.EventFilter{
		Status:   filter.Status,
		TenantID: filter.TenantID,
		City:     filter.City,
		Country:  filter.Country,
		Search:   filter.Search,
	}

	return s.eventRepo.List(ctx, repoFilter, filter.Limit, filter.Offset)
}

// UpdateEvent updates an event
func (s *eventService) UpdateEvent(ctx context.Context, id string, req *dto.UpdateEventRequest) (*domain.Event, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.event.update")
	defer span.End()

	if valid, msg := req.Validate(); !valid {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidRequest, msg)
	}

	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !event.CanEdit() {
		return nil, domain.ErrEventNotEditable
	}
	before := *event

	if req.Name != nil && strings.TrimSpace(*req.Name) != event.Name {
		event.Name = strings.TrimSpace(*req.Name)
		slug, err := s.ensureUniqueSlugExcluding(ctx, generateSlug(event.Name), event.Slug)
		if err != nil {
			return nil, err
		}
		event.Slug = slug
	}
	if req.Description != nil {
		event.Description = *req.Description
	}
	if req.Venue != nil {
		event.Venue = *req.Venue
	}
	if req.City != nil {
		event.City = *req.City
	}
	if req.Country != nil {
		event.Country = *req.Country
	}
	if req.StartDate != nil {
		event.StartDate = *req.StartDate
	}
	if req.EndDate != nil {
		event.EndDate = *req.EndDate
	}
	if req.Zones != nil {
		event.Zones = toZones(*req.Zones)
	}
	if req.SalesPhases != nil {
		event.SalesPhases = toPhases(*req.SalesPhases)
	}

	if err := event.ValidateLayout(); err != nil {
		return nil, err
	}
	event.UpdatedAt = s.now().UTC()

	if err := s.eventRepo.Update(ctx, event); err != nil {
		telemetry.SetSpanError(ctx, err)
		return nil, err
	}

	if event.Status == domain.EventStatusPublished {
		if err := s.syncer.SyncChanges(ctx, &before, event); err != nil {
			logger.Get().WarnContext(ctx, "availability sync after update failed", zap.String("event_id", event.ID), zap.Error(err))
		}
	}

	return event, nil
}

// DeleteEvent soft deletes an event
func (s *eventService) DeleteEvent(ctx context.Context, id string) error {
	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.eventRepo.Delete(ctx, id); err != nil {
		return err
	}

	if err := s.syncer.RemoveEvent(ctx, event); err != nil {
		logger.Get().WarnContext(ctx, "availability cleanup after delete failed", zap.String("event_id", id), zap.Error(err))
	}
	return nil
}

// PublishEvent publishes an event
func (s *eventService) PublishEvent(ctx context.Context, id string) (*domain.Event, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.event.publish")
	defer span.End()

	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// Only draft events can be published
	if event.Status != domain.EventStatusDraft {
		return nil, domain.ErrInvalidEventStatus
	}
	if len(domain.FlattenPricing(event)) == 0 {
		return nil, domain.ErrNoPricing
	}

	now := s.now().UTC()
	event.Status = domain.EventStatusPublished
	event.PublishedAt = &now
	event.UpdatedAt = now

	if err := s.eventRepo.Update(ctx, event); err != nil {
		telemetry.SetSpanError(ctx, err)
		return nil, err
	}

	// Purchases seed missing counters on demand, so a failed sync is not fatal
	if err := s.syncer.SyncEvent(ctx, event); err != nil {
		logger.Get().WarnContext(ctx, "availability sync after publish failed", zap.String("event_id", event.ID), zap.Error(err))
	}

	return event, nil
}

func toZones(reqs []dto.ZoneRequest) []domain.Zone {
	zones := make([]domain.Zone, 0, len(reqs))
	for _, z := range reqs {
		zones = append(zones, domain.Zone{ID: strings.TrimSpace(z.ID), Name: strings.TrimSpace(z.Name), Capacity: z.Capacity})
	}
	return zones
}

func toPhases(reqs []dto.SalesPhaseRequest) []domain.SalesPhase {
	phases := make([]domain.SalesPhase, 0, len(reqs))
	for _, p := range reqs {
		id := p.ID
		if id == "" {
			id = uuid.New().String()
		}
		pricing := make([]domain.ZonePricing, 0, len(p.ZonePricing))
		for _, zp := range p.ZonePricing {
			pricing = append(pricing, domain.ZonePricing{ZoneID: zp.ZoneID, Price: zp.Price, Available: zp.Available})
		}
		phases = append(phases, domain.SalesPhase{
			ID:          id,
			Name:        strings.TrimSpace(p.Name),
			StartDate:   p.StartDate,
			EndDate:     p.EndDate,
			ZonePricing: pricing,
		})
	}
	return phases
}

var hyphens = regexp.MustCompile(`-+`)

// generateSlug generates a URL-friendly slug from a string
func generateSlug(s string) string {
	s = strings.ToLower(s)

	var builder strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			builder.WriteRune(r)
		} else if unicode.IsSpace(r) || r == '-' || r == '_' {
			builder.WriteRune('-')
		}
	}

	slug := hyphens.ReplaceAllString(builder.String(), "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		slug = "event"
	}
	return slug
}

// ensureUniqueSlug appends a counter to slug until it is free
func (s *eventService) ensureUniqueSlug(ctx context.Context, slug string) (string, error) {
	base := slug
	for i := 2; i <= 10; i++ {
		exists, err := s.eventRepo.SlugExists(ctx, slug)
		if err != nil {
			return "", err
		}
		if !exists {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
	// Use a random suffix for high collision scenarios
	return base + "-" + uuid.New().String()[:8], nil
}

// ensureUniqueSlugExcluding is ensureUniqueSlug for an event that may already own slug
func (s *eventService) ensureUniqueSlugExcluding(ctx context.Context, slug, currentSlug string) (string, error) {
	if slug == currentSlug {
		return slug, nil
	}
	return s.ensureUniqueSlug(ctx, slug)
}
