package service

import (
	"context"
	"fmt"

	"github.com/PercyTuncar/ravehub-website-sub003/backend-ticket/internal/domain"
	"github.com/PercyTuncar/ravehub-website-sub003/backend-ticket/internal/dto"
	"github.com/PercyTuncar/ravehub-website-sub003/backend-ticket/internal/repository"
)

// AvailabilitySyncer keeps the live Redis counters in line with event documents
type AvailabilitySyncer interface {
	// SyncEvent overwrites every counter of the event (on publish and admin resync)
	SyncEvent(ctx context.Context, event *domain.Event) error
	// SyncChanges overwrites counters whose allotment changed between before and
	// after, and removes counters of entries that no longer exist
	SyncChanges(ctx context.Context, before, after *domain.Event) error
	// RemoveEvent removes every counter of the event
	RemoveEvent(ctx context.Context, event *domain.Event) error
	// Overlay returns a copy of event with live availability where a counter exists
	Overlay(ctx context.Context, event *domain.Event) (*domain.Event, error)
	// Compare lists persisted and live availability side by side
	Compare(ctx context.Context, event *domain.Event) ([]dto.AvailabilityEntry, error)
}

// availabilitySyncer implements AvailabilitySyncer
type availabilitySyncer struct {
	repo repository.AvailabilityRepository
}

// NewAvailabilitySyncer creates a new AvailabilitySyncer. A nil repository
// turns every call into a no-op.
func NewAvailabilitySyncer(repo repository.AvailabilityRepository) AvailabilitySyncer {
	return &availabilitySyncer{repo: repo}
}

// SyncEvent overwrites every counter of the event
func (s *availabilitySyncer) SyncEvent(ctx context.Context, event *domain.Event) error {
	if s.repo == nil {
		return nil
	}
	if err := s.repo.SetEvent(ctx, event); err != nil {
		return fmt.Errorf("failed to sync availability for event %s: %w", event.ID, err)
	}
	return nil
}

// SyncChanges writes only what the update touched so that unflushed sales on
// untouched entries survive
func (s *availabilitySyncer) SyncChanges(ctx context.Context, before, after *domain.Event) error {
	if s.repo == nil {
		return nil
	}

	changed := &domain.Event{ID: after.ID}
	for _, p := range after.SalesPhases {
		phase := domain.SalesPhase{ID: p.ID}
		for _, zp := range p.ZonePricing {
			if old, ok := lookupPricing(before, p.ID, zp.ZoneID); ok && old.Available == zp.Available {
				continue
			}
			phase.ZonePricing = append(phase.ZonePricing, zp)
		}
		if len(phase.ZonePricing) > 0 {
			changed.SalesPhases = append(changed.SalesPhases, phase)
		}
	}

	removed := &domain.Event{ID: after.ID}
	for _, p := range before.SalesPhases {
		phase := domain.SalesPhase{ID: p.ID}
		for _, zp := range p.ZonePricing {
			if _, ok := lookupPricing(after, p.ID, zp.ZoneID); !ok {
				phase.ZonePricing = append(phase.ZonePricing, zp)
			}
		}
		if len(phase.ZonePricing) > 0 {
			removed.SalesPhases = append(removed.SalesPhases, phase)
		}
	}

	if len(changed.SalesPhases) > 0 {
		if err := s.repo.SetEvent(ctx, changed); err != nil {
			return fmt.Errorf("failed to sync changed availability for event %s: %w", after.ID, err)
		}
	}
	if len(removed.SalesPhases) > 0 {
		if err := s.repo.DeleteEvent(ctx, removed); err != nil {
			return fmt.Errorf("failed to remove stale availability for event %s: %w", after.ID, err)
		}
	}
	return nil
}

// RemoveEvent removes every counter of the event
func (s *availabilitySyncer) RemoveEvent(ctx context.Context, event *domain.Event) error {
	if s.repo == nil {
		return nil
	}
	return s.repo.DeleteEvent(ctx, event)
}

// Overlay returns a copy of event with live counters applied
func (s *availabilitySyncer) Overlay(ctx context.Context, event *domain.Event) (*domain.Event, error) {
	if s.repo == nil {
		return event, nil
	}

	live, err := s.repo.Snapshot(ctx, event)
	if err != nil {
		return event, err
	}

	out := *event
	out.SalesPhases = make([]domain.SalesPhase, len(event.SalesPhases))
	for i, p := range event.SalesPhases {
		p.ZonePricing = append([]domain.ZonePricing(nil), p.ZonePricing...)
		for j := range p.ZonePricing {
			if n, ok := live[repository.SlotKey{PhaseID: p.ID, ZoneID: p.ZonePricing[j].ZoneID}]; ok {
				p.ZonePricing[j].Available = int(n)
			}
		}
		out.SalesPhases[i] = p
	}
	return &out, nil
}

// Compare lists persisted and live availability side by side
func (s *availabilitySyncer) Compare(ctx context.Context, event *domain.Event) ([]dto.AvailabilityEntry, error) {
	live := map[repository.SlotKey]int64{}
	if s.repo != nil {
		var err error
		if live, err = s.repo.Snapshot(ctx, event); err != nil {
			return nil, err
		}
	}

	entries := []dto.AvailabilityEntry{}
	for _, p := range event.SalesPhases {
		for _, zp := range p.ZonePricing {
			entry := dto.AvailabilityEntry{PhaseID: p.ID, ZoneID: zp.ZoneID, Persisted: zp.Available}
			if n, ok := live[repository.SlotKey{PhaseID: p.ID, ZoneID: zp.ZoneID}]; ok {
				entry.Live = &n
			}
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

func lookupPricing(e *domain.Event, phaseID, zoneID string) (*domain.ZonePricing, bool) {
	phase, ok := e.Phase(phaseID)
	if !ok {
		return nil, false
	}
	return phase.Pricing(zoneID)
}
