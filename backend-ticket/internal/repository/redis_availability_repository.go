package repository

import (
	"context"
	_ "embed"
	"fmt"
	"strconv"

	"github.com/PercyTuncar/ravehub-website-sub003/backend-ticket/internal/domain"
	pkgredis "github.com/PercyTuncar/ravehub-website-sub003/pkg/redis"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

//go:embed scripts/reserve_tickets.lua
var reserveTicketsScript string

//go:embed scripts/release_tickets.lua
var releaseTicketsScript string

// Script names for caching
const (
	scriptReserveTickets = "reserve_tickets"
	scriptReleaseTickets = "release_tickets"
)

// RedisAvailabilityRepository implements AvailabilityRepository using Redis
type RedisAvailabilityRepository struct {
	client *pkgredis.Client
}

// NewRedisAvailabilityRepository creates a new RedisAvailabilityRepository
func NewRedisAvailabilityRepository(client *pkgredis.Client) *RedisAvailabilityRepository {
	return &RedisAvailabilityRepository{client: client}
}

// LoadScripts loads all Lua scripts into Redis
func (r *RedisAvailabilityRepository) LoadScripts(ctx context.Context) error {
	scripts := map[string]string{
		scriptReserveTickets: reserveTicketsScript,
		scriptReleaseTickets: releaseTicketsScript,
	}

	for name, script := range scripts {
		if _, err := r.client.LoadScript(ctx, name, script); err != nil {
			return fmt.Errorf("failed to load script %s: %w", name, err)
		}
	}
	return nil
}

// Reserve atomically checks and decrements a (phase, zone) counter
func (r *RedisAvailabilityRepository) Reserve(ctx context.Context, eventID, phaseID, zoneID string, qty int) (*ReserveResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.redis.availability.reserve")
	defer span.End()

	span.SetAttributes(
		attribute.String("event_id", eventID),
		attribute.String("phase_id", phaseID),
		attribute.String("zone_id", zoneID),
		attribute.Int("quantity", qty),
	)

	keys := []string{AvailabilityKey(eventID, phaseID, zoneID)}
	result := r.client.EvalWithFallback(ctx, scriptReserveTickets, reserveTicketsScript, keys, qty)
	if result.Err() != nil {
		span.RecordError(result.Err())
		span.SetStatus(codes.Error, result.Err().Error())
		return nil, domain.Transient("redis.reserve_tickets", result.Err())
	}

	values, err := result.Slice()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to parse script result: %w", err)
	}

	res, err := parseScriptResult(values)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if !res.Success {
		span.SetAttributes(attribute.String("error_code", res.ErrorCode))
		span.SetStatus(codes.Error, res.ErrorCode)
		return res, nil
	}

	span.SetAttributes(attribute.Int64("remaining", res.Remaining))
	span.SetStatus(codes.Ok, "")
	return res, nil
}

// Release gives qty back to a (phase, zone) counter
func (r *RedisAvailabilityRepository) Release(ctx context.Context, eventID, phaseID, zoneID string, qty int) (int64, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.redis.availability.release")
	defer span.End()

	span.SetAttributes(
		attribute.String("event_id", eventID),
		attribute.String("zone_id", zoneID),
		attribute.Int("quantity", qty),
	)

	keys := []string{AvailabilityKey(eventID, phaseID, zoneID)}
	result := r.client.EvalWithFallback(ctx, scriptReleaseTickets, releaseTicketsScript, keys, qty)
	if result.Err() != nil {
		span.RecordError(result.Err())
		span.SetStatus(codes.Error, result.Err().Error())
		return 0, domain.Transient("redis.release_tickets", result.Err())
	}

	values, err := result.Slice()
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to parse script result: %w", err)
	}

	res, err := parseScriptResult(values)
	if err != nil {
		return 0, err
	}
	if !res.Success {
		span.SetStatus(codes.Error, res.ErrorCode)
		if res.ErrorCode == ErrCodePricingNotFound {
			return 0, domain.ErrPricingNotFound
		}
		return 0, fmt.Errorf("release_tickets: %s: %s", res.ErrorCode, res.ErrorMessage)
	}

	span.SetStatus(codes.Ok, "")
	return res.Remaining, nil
}

// Seed sets a counter only if it does not exist yet
func (r *RedisAvailabilityRepository) Seed(ctx context.Context, eventID, phaseID, zoneID string, available int) (bool, error) {
	ok, err := r.client.SetNX(ctx, AvailabilityKey(eventID, phaseID, zoneID), available, 0).Result()
	if err != nil {
		return false, domain.Transient("redis.seed_availability", err)
	}
	return ok, nil
}

// SetEvent overwrites every counter of an event in one pipeline
func (r *RedisAvailabilityRepository) SetEvent(ctx context.Context, event *domain.Event) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.redis.availability.set_event")
	defer span.End()

	span.SetAttributes(attribute.String("event_id", event.ID))

	pipe := r.client.Pipeline()
	for _, p := range event.SalesPhases {
		for _, zp := range p.ZonePricing {
			pipe.Set(ctx, AvailabilityKey(event.ID, p.ID, zp.ZoneID), max(zp.Available, 0), 0)
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return domain.Transient("redis.set_event_availability", err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// DeleteEvent removes every counter of an event
func (r *RedisAvailabilityRepository) DeleteEvent(ctx context.Context, event *domain.Event) error {
	keys := eventKeys(event)
	if len(keys) == 0 {
		return nil
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return domain.Transient("redis.delete_event_availability", err)
	}
	return nil
}

// Snapshot reads the counters of an event
func (r *RedisAvailabilityRepository) Snapshot(ctx context.Context, event *domain.Event) (map[SlotKey]int64, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.redis.availability.snapshot")
	defer span.End()

	var slots []SlotKey
	for _, p := range event.SalesPhases {
		for _, zp := range p.ZonePricing {
			slots = append(slots, SlotKey{PhaseID: p.ID, ZoneID: zp.ZoneID})
		}
	}
	out := make(map[SlotKey]int64, len(slots))
	if len(slots) == 0 {
		return out, nil
	}

	keys := make([]string, len(slots))
	for i, s := range slots {
		keys[i] = AvailabilityKey(event.ID, s.PhaseID, s.ZoneID)
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, domain.Transient("redis.snapshot_availability", err)
	}

	for i, v := range values {
		if v == nil {
			continue
		}
		if n, ok := toInt64(v); ok {
			out[slots[i]] = n
		}
	}

	span.SetStatus(codes.Ok, "")
	return out, nil
}

func eventKeys(event *domain.Event) []string {
	var keys []string
	for _, p := range event.SalesPhases {
		for _, zp := range p.ZonePricing {
			keys = append(keys, AvailabilityKey(event.ID, p.ID, zp.ZoneID))
		}
	}
	return keys
}

// parseScriptResult decodes {1, n} and {0, code, message} script replies
func parseScriptResult(values []interface{}) (*ReserveResult, error) {
	if len(values) < 2 {
		return nil, fmt.Errorf("unexpected script result length: %d", len(values))
	}

	success, _ := toInt64(values[0])
	if success == 1 {
		remaining, _ := toInt64(values[1])
		return &ReserveResult{Success: true, Remaining: remaining}, nil
	}

	errorCode, _ := values[1].(string)
	var errorMessage string
	if len(values) > 2 {
		errorMessage, _ = values[2].(string)
	}
	return &ReserveResult{ErrorCode: errorCode, ErrorMessage: errorMessage}, nil
}

// Helper function to convert interface{} to int64
func toInt64(v interface{}) (int64, bool) {
	switch val := v.(type) {
	case int64:
		return val, true
	case int:
		return int64(val), true
	case float64:
		return int64(val), true
	case string:
		i, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}

// Ensure RedisAvailabilityRepository implements AvailabilityRepository
var _ AvailabilityRepository = (*RedisAvailabilityRepository)(nil)
