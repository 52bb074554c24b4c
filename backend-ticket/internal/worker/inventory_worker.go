package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/PercyTuncar/ravehub-website-sub003/backend-ticket/internal/domain"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/kafka"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/logger"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/retry"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// InventoryWorkerConfig holds configuration for the inventory worker
type InventoryWorkerConfig struct {
	BatchInterval time.Duration
	MaxBatchSize  int
	// Retry applies to each persisted write
	Retry *retry.Config
}

// SlotDelta is the number of tickets sold on one (event, phase, zone) since
// the last flush
type SlotDelta struct {
	EventID string
	PhaseID string
	ZoneID  string
	Sold    int
}

func (d *SlotDelta) key() string {
	return d.EventID + "/" + d.PhaseID + "/" + d.ZoneID
}

// RecordSource is the part of the Kafka consumer the worker uses
type RecordSource interface {
	Poll(ctx context.Context) ([]*kafka.Record, error)
	CommitRecords(ctx context.Context, records []*kafka.Record) error
}

// SalesStore persists sold tickets on the event documents
type SalesStore interface {
	ApplySales(ctx context.Context, eventID, phaseID, zoneID string, qty int) (bool, error)
	ListPublished(ctx context.Context) ([]*domain.Event, error)
}

// CounterStore overwrites the live availability counters of an event
type CounterStore interface {
	SetEvent(ctx context.Context, event *domain.Event) error
}

// InventoryWorker consumes ticket.sold events and decrements the persisted
// allotments in batches. Offsets are committed only after the batch that
// contains them has been written.
type InventoryWorker struct {
	config   *InventoryWorkerConfig
	consumer RecordSource
	sales    SalesStore
	counters CounterStore
	dlq      retry.DLQPublisher
	log      *logger.Logger

	mu      sync.Mutex
	deltas  map[string]*SlotDelta
	pending []*kafka.Record
}

// NewInventoryWorker creates a new inventory worker
func NewInventoryWorker(
	cfg *InventoryWorkerConfig,
	consumer RecordSource,
	sales SalesStore,
	counters CounterStore,
	dlq retry.DLQPublisher,
	log *logger.Logger,
) *InventoryWorker {
	if cfg.BatchInterval <= 0 {
		cfg.BatchInterval = 5 * time.Second
	}
	if cfg.MaxBatchSize <= 0 {
		cfg.MaxBatchSize = 1000
	}
	if cfg.Retry == nil {
		cfg.Retry = &retry.Config{
			MaxRetries:      3,
			InitialInterval: 200 * time.Millisecond,
			MaxInterval:     2 * time.Second,
			Multiplier:      2.0,
			JitterFactor:    0.1,
		}
	}
	if dlq == nil {
		dlq = retry.NoOpDLQPublisher{}
	}

	return &InventoryWorker{
		config:   cfg,
		consumer: consumer,
		sales:    sales,
		counters: counters,
		dlq:      dlq,
		log:      log,
		deltas:   make(map[string]*SlotDelta),
	}
}

// Start consumes events until ctx is cancelled, then flushes what is left
func (w *InventoryWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.config.BatchInterval)
	defer ticker.Stop()

	flushCh := make(chan struct{}, 1)
	go w.consumeLoop(ctx, flushCh)

	for {
		select {
		case <-ctx.Done():
			w.log.Info("inventory worker stopping, flushing remaining batch")
			w.flushBatch(context.Background())
			return
		case <-ticker.C:
			w.flushBatch(ctx)
		case <-flushCh:
			w.flushBatch(ctx)
		}
	}
}

func (w *InventoryWorker) consumeLoop(ctx context.Context, flushCh chan<- struct{}) {
	for {
		if ctx.Err() != nil {
			return
		}

		records, err := w.consumer.Poll(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.log.Error("failed to poll ticket.sold", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		if len(records) == 0 {
			continue
		}

		w.processRecords(ctx, records)

		if w.PendingDeltaCount() >= w.config.MaxBatchSize {
			select {
			case flushCh <- struct{}{}:
			default:
			}
		}
	}
}

func (w *InventoryWorker) processRecords(ctx context.Context, records []*kafka.Record) {
	for _, record := range records {
		w.processTraced(ctx, record)
	}

	w.mu.Lock()
	w.pending = append(w.pending, records...)
	w.mu.Unlock()
}

// processTraced continues the trace the producer wrote into the record headers
func (w *InventoryWorker) processTraced(ctx context.Context, record *kafka.Record) {
	ctx, span := telemetry.StartSpan(telemetry.ExtractHeaders(ctx, record.Headers), "worker.inventory.process_record")
	defer span.End()
	telemetry.SetSpanAttributes(ctx,
		attribute.String("messaging.kafka.topic", record.Topic),
		attribute.Int64("messaging.kafka.offset", record.Offset),
	)

	if err := w.processRecord(record); err != nil {
		telemetry.SetSpanError(ctx, err)
		w.log.Warn("moving unreadable ticket.sold record to DLQ",
			zap.String("topic", record.Topic),
			zap.Int64("offset", record.Offset),
			zap.String("trace_id", telemetry.GetTraceID(ctx)),
			zap.String("span_id", telemetry.GetSpanID(ctx)),
			zap.Error(err),
		)
		w.toDLQ(ctx, record, err)
	}
}

func (w *InventoryWorker) processRecord(record *kafka.Record) error {
	var event domain.TicketSoldEvent
	if err := json.Unmarshal(record.Value, &event); err != nil {
		return fmt.Errorf("failed to unmarshal ticket.sold event: %w", err)
	}
	if event.EventID == "" || event.PhaseID == "" || event.ZoneID == "" {
		return errors.New("ticket.sold event is missing its slot")
	}
	if event.Quantity <= 0 {
		return fmt.Errorf("ticket.sold event has quantity %d", event.Quantity)
	}

	w.aggregateDelta(&event)
	return nil
}

func (w *InventoryWorker) aggregateDelta(event *domain.TicketSoldEvent) {
	w.mu.Lock()
	defer w.mu.Unlock()

	d := &SlotDelta{EventID: event.EventID, PhaseID: event.PhaseID, ZoneID: event.ZoneID}
	if existing, ok := w.deltas[d.key()]; ok {
		existing.Sold += event.Quantity
		return
	}
	d.Sold = event.Quantity
	w.deltas[d.key()] = d
}

func (w *InventoryWorker) toDLQ(ctx context.Context, record *kafka.Record, cause error) {
	payload := json.RawMessage(record.Value)
	if !json.Valid(record.Value) {
		quoted, _ := json.Marshal(string(record.Value))
		payload = quoted
	}
	msg := &retry.DLQMessage{
		OriginalTopic: record.Topic,
		OriginalKey:   string(record.Key),
		Payload:       payload,
		Headers:       record.Headers,
		Error:         cause.Error(),
		Attempts:      1,
	}
	if err := w.dlq.PublishToDLQ(ctx, msg); err != nil {
		w.log.Error("failed to publish to DLQ", zap.Int64("offset", record.Offset), zap.Error(err))
	}
}

// flushBatch writes the aggregated deltas and commits the offsets they came
// from. Slots that fail stay queued and nothing is committed.
func (w *InventoryWorker) flushBatch(ctx context.Context) {
	w.mu.Lock()
	if len(w.deltas) == 0 && len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}
	deltas, records := w.deltas, w.pending
	w.deltas = make(map[string]*SlotDelta)
	w.pending = nil
	w.mu.Unlock()

	ctx, span := telemetry.StartSpan(ctx, "worker.inventory.flush")
	defer span.End()
	telemetry.SetSpanAttributes(ctx, attribute.Int("slots", len(deltas)), attribute.Int("records", len(records)))

	var failed []*SlotDelta
	floored := 0
	for _, d := range deltas {
		wasFloored, err := w.applyDelta(ctx, d)
		switch {
		case errors.Is(err, domain.ErrPricingNotFound), errors.Is(err, domain.ErrEventNotFound):
			// the slot was removed after the sale; nothing left to decrement
			w.log.Warn("dropping sales for unknown slot",
				zap.String("event_id", d.EventID),
				zap.String("phase_id", d.PhaseID),
				zap.String("zone_id", d.ZoneID),
				zap.Int("sold", d.Sold),
			)
		case err != nil:
			w.log.Error("failed to persist ticket sales",
				zap.String("event_id", d.EventID),
				zap.String("phase_id", d.PhaseID),
				zap.String("zone_id", d.ZoneID),
				zap.Error(err),
			)
			failed = append(failed, d)
		case wasFloored:
			floored++
		}
	}

	if len(failed) > 0 {
		w.restore(failed, records)
		return
	}

	if len(records) > 0 {
		if err := w.consumer.CommitRecords(ctx, records); err != nil {
			w.log.Error("failed to commit offsets", zap.Int("records", len(records)), zap.Error(err))
		}
	}

	w.log.Info("flushed ticket sales",
		zap.Int("slots", len(deltas)),
		zap.Int("records", len(records)),
		zap.Int("floored", floored),
	)
}

func (w *InventoryWorker) applyDelta(ctx context.Context, d *SlotDelta) (bool, error) {
	var floored bool
	res := retry.Do(ctx, w.config.Retry, func(ctx context.Context) error {
		var err error
		floored, err = w.sales.ApplySales(ctx, d.EventID, d.PhaseID, d.ZoneID, d.Sold)
		if err != nil && !domain.IsTransientError(err) {
			return retry.Permanent(err)
		}
		return err
	})
	return floored, res.Err
}

// restore puts failed deltas and uncommitted records back for the next flush
func (w *InventoryWorker) restore(failed []*SlotDelta, records []*kafka.Record) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, d := range failed {
		if existing, ok := w.deltas[d.key()]; ok {
			existing.Sold += d.Sold
		} else {
			w.deltas[d.key()] = d
		}
	}
	w.pending = append(records, w.pending...)
}

// RebuildRedisFromDB overwrites the live counters of every published event
// with the persisted allotments
func (w *InventoryWorker) RebuildRedisFromDB(ctx context.Context) error {
	w.log.Info("rebuilding availability counters from MongoDB")

	events, err := w.sales.ListPublished(ctx)
	if err != nil {
		return fmt.Errorf("failed to list published events: %w", err)
	}

	count := 0
	for _, event := range events {
		if err := w.counters.SetEvent(ctx, event); err != nil {
			w.log.Error("failed to rebuild event counters", zap.String("event_id", event.ID), zap.Error(err))
			continue
		}
		count++
	}

	w.log.Info("availability rebuild complete", zap.Int("events", count), zap.Int("total", len(events)))
	return nil
}

// PendingDeltaCount returns the number of slots waiting to be flushed
func (w *InventoryWorker) PendingDeltaCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.deltas)
}
