package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/PercyTuncar/ravehub-website-sub003/backend-ticket/internal/domain"
	"github.com/PercyTuncar/ravehub-website-sub003/backend-ticket/internal/repository"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/currency"
	"github.com/shopspring/decimal"
)

// MockEventRepository is a mock implementation of EventRepository
type MockEventRepository struct {
	mu        sync.Mutex
	events    map[string]*domain.Event
	slugToID  map[string]string
	createErr error
	updateErr error
	getErr    error
}

func NewMockEventRepository() *MockEventRepository {
	return &MockEventRepository{
		events:   make(map[string]*domain.Event),
		slugToID: make(map[string]string),
	}
}

func (m *MockEventRepository) AddEvent(event *domain.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[event.ID] = event
	if event.Slug != "" {
		m.slugToID[event.Slug] = event.ID
	}
}

func (m *MockEventRepository) Create(ctx context.Context, event *domain.Event) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, taken := m.slugToID[event.Slug]; taken {
		return domain.ErrEventAlreadyExists
	}
	m.events[event.ID] = event
	m.slugToID[event.Slug] = event.ID
	return nil
}

func (m *MockEventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	event, ok := m.events[id]
	if !ok || event.DeletedAt != nil {
		return nil, domain.ErrEventNotFound
	}
	return event, nil
}

func (m *MockEventRepository) GetBySlug(ctx context.Context, slug string) (*domain.Event, error) {
	m.mu.Lock()
	id, ok := m.slugToID[slug]
	m.mu.Unlock()
	if !ok {
		return nil, domain.ErrEventNotFound
	}
	return m.GetByID(ctx, id)
}

func (m *MockEventRepository) Update(ctx context.Context, event *domain.Event) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[event.ID] = event
	m.slugToID[event.Slug] = event.ID
	return nil
}

func (m *MockEventRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	event, ok := m.events[id]
	if !ok || event.DeletedAt != nil {
		return domain.ErrEventNotFound
	}
	now := time.Now()
	event.DeletedAt = &now
	return nil
}

func (m *MockEventRepository) List(ctx context.Context, filter *repository.EventFilter, limit, offset int) ([]*domain.Event, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	events := []*domain.Event{}
	for _, e := range m.events {
		if e.DeletedAt != nil {
			continue
		}
		if filter != nil && filter.Status != "" && string(e.Status) != filter.Status {
			continue
		}
		if filter != nil && filter.TenantID != "" && e.TenantID != filter.TenantID {
			continue
		}
		events = append(events, e)
	}
	return events, int64(len(events)), nil
}

func (m *MockEventRepository) ListPublished(ctx context.Context) ([]*domain.Event, error) {
	events, _, err := m.List(ctx, &repository.EventFilter{Status: string(domain.EventStatusPublished)}, 0, 0)
	return events, err
}

func (m *MockEventRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.slugToID[slug]
	return ok, nil
}

func (m *MockEventRepository) ApplySales(ctx context.Context, eventID, phaseID, zoneID string, qty int) (bool, error) {
	event, err := m.GetByID(ctx, eventID)
	if err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	phase, ok := event.Phase(phaseID)
	if !ok {
		return false, domain.ErrPricingNotFound
	}
	zp, ok := phase.Pricing(zoneID)
	if !ok {
		return false, domain.ErrPricingNotFound
	}
	if zp.Available < qty {
		zp.Available = 0
		return true, nil
	}
	zp.Available -= qty
	return false, nil
}

// MockAvailabilityRepository mimics the Lua scripts with a mutex
type MockAvailabilityRepository struct {
	mu         sync.Mutex
	counters   map[string]int64
	reserveErr error
	releases   int
}

func NewMockAvailabilityRepository() *MockAvailabilityRepository {
	return &MockAvailabilityRepository{counters: make(map[string]int64)}
}

func (m *MockAvailabilityRepository) Set(eventID, phaseID, zoneID string, n int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[repository.AvailabilityKey(eventID, phaseID, zoneID)] = n
}

func (m *MockAvailabilityRepository) Get(eventID, phaseID, zoneID string) (int64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.counters[repository.AvailabilityKey(eventID, phaseID, zoneID)]
	return n, ok
}

func (m *MockAvailabilityRepository) Reserve(ctx context.Context, eventID, phaseID, zoneID string, qty int) (*repository.ReserveResult, error) {
	if m.reserveErr != nil {
		return nil, m.reserveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if qty <= 0 {
		return &repository.ReserveResult{ErrorCode: repository.ErrCodeInvalidQuantity}, nil
	}
	key := repository.AvailabilityKey(eventID, phaseID, zoneID)
	current, ok := m.counters[key]
	if !ok {
		return &repository.ReserveResult{ErrorCode: repository.ErrCodePricingNotFound}, nil
	}
	if current < int64(qty) {
		return &repository.ReserveResult{ErrorCode: repository.ErrCodeInsufficientLeft}, nil
	}
	m.counters[key] = current - int64(qty)
	return &repository.ReserveResult{Success: true, Remaining: m.counters[key]}, nil
}

func (m *MockAvailabilityRepository) Release(ctx context.Context, eventID, phaseID, zoneID string, qty int) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.releases++
	key := repository.AvailabilityKey(eventID, phaseID, zoneID)
	if _, ok := m.counters[key]; !ok {
		return 0, domain.ErrPricingNotFound
	}
	m.counters[key] += int64(qty)
	return m.counters[key], nil
}

func (m *MockAvailabilityRepository) Seed(ctx context.Context, eventID, phaseID, zoneID string, available int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := repository.AvailabilityKey(eventID, phaseID, zoneID)
	if _, ok := m.counters[key]; ok {
		return false, nil
	}
	m.counters[key] = int64(available)
	return true, nil
}

func (m *MockAvailabilityRepository) SetEvent(ctx context.Context, event *domain.Event) error {
	for _, p := range event.SalesPhases {
		for _, zp := range p.ZonePricing {
			m.Set(event.ID, p.ID, zp.ZoneID, int64(zp.Available))
		}
	}
	return nil
}

func (m *MockAvailabilityRepository) DeleteEvent(ctx context.Context, event *domain.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range event.SalesPhases {
		for _, zp := range p.ZonePricing {
			delete(m.counters, repository.AvailabilityKey(event.ID, p.ID, zp.ZoneID))
		}
	}
	return nil
}

func (m *MockAvailabilityRepository) Snapshot(ctx context.Context, event *domain.Event) (map[repository.SlotKey]int64, error) {
	out := map[repository.SlotKey]int64{}
	for _, p := range event.SalesPhases {
		for _, zp := range p.ZonePricing {
			if n, ok := m.Get(event.ID, p.ID, zp.ZoneID); ok {
				out[repository.SlotKey{PhaseID: p.ID, ZoneID: zp.ZoneID}] = n
			}
		}
	}
	return out, nil
}

// MockEventPublisher records published events
type MockEventPublisher struct {
	mu     sync.Mutex
	sold   []*domain.TicketSoldEvent
	pubErr error
}

func (m *MockEventPublisher) PublishTicketSold(ctx context.Context, event *domain.TicketSoldEvent) error {
	if m.pubErr != nil {
		return m.pubErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sold = append(m.sold, event)
	return nil
}

func (m *MockEventPublisher) Close() error { return nil }

// staticConverter converts with a fixed table, like a warm rate cache
type staticConverter struct {
	rates map[string]decimal.Decimal
	err   error
}

func (c *staticConverter) Convert(ctx context.Context, amount decimal.Decimal, from, to string) (*currency.Conversion, error) {
	if c.err != nil {
		return nil, c.err
	}
	result, err := currency.Convert(amount, from, to, c.rates)
	if err != nil {
		return nil, err
	}
	rate, _ := currency.CrossRate(from, to, c.rates)
	return &currency.Conversion{Amount: amount, From: from, To: to, Result: result, Rate: rate, LastUpdated: time.Now()}, nil
}

var errBackend = errors.New("connection reset by peer")
