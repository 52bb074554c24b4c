package service

import (
	"context"
	"fmt"

	"github.com/PercyTuncar/ravehub-website-sub003/backend-ticket/internal/domain"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/kafka"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/telemetry"
	"github.com/google/uuid"
)

// TopicTicketSold carries one message per successful ticket purchase
const TopicTicketSold = "ticket.sold"

// EventPublisher defines the interface for publishing ticket events
type EventPublisher interface {
	// PublishTicketSold publishes a ticket sold event
	PublishTicketSold(ctx context.Context, event *domain.TicketSoldEvent) error

	// Close closes the event publisher
	Close() error
}

// JSONProducer is the subset of kafka.Producer used by the publisher
type JSONProducer interface {
	ProduceJSON(ctx context.Context, topic, key string, value interface{}, headers map[string]string) error
}

// KafkaEventPublisher implements EventPublisher using Kafka
type KafkaEventPublisher struct {
	producer    JSONProducer
	topic       string
	serviceName string
}

// NewKafkaEventPublisher creates a publisher on top of a shared producer
func NewKafkaEventPublisher(producer JSONProducer, serviceName string) *KafkaEventPublisher {
	if serviceName == "" {
		serviceName = "ticket-service"
	}
	return &KafkaEventPublisher{
		producer:    producer,
		topic:       TopicTicketSold,
		serviceName: serviceName,
	}
}

// PublishTicketSold publishes a ticket sold event keyed by event ID
func (p *KafkaEventPublisher) PublishTicketSold(ctx context.Context, event *domain.TicketSoldEvent) error {
	headers := telemetry.InjectHeaders(ctx, map[string]string{
		"event_type": TopicTicketSold,
		"event_id":   uuid.New().String(),
		"source":     p.serviceName,
	})

	if err := p.producer.ProduceJSON(ctx, p.topic, event.Key(), event, headers); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", TopicTicketSold, err)
	}
	return nil
}

// Close is a no-op; the shared producer is closed by its owner
func (p *KafkaEventPublisher) Close() error {
	return nil
}

// NoOpEventPublisher is used when Kafka is not configured
type NoOpEventPublisher struct{}

// NewNoOpEventPublisher creates a new no-op event publisher
func NewNoOpEventPublisher() *NoOpEventPublisher {
	return &NoOpEventPublisher{}
}

// PublishTicketSold does nothing
func (p *NoOpEventPublisher) PublishTicketSold(context.Context, *domain.TicketSoldEvent) error {
	return nil
}

// Close does nothing
func (p *NoOpEventPublisher) Close() error {
	return nil
}

// Ensure implementations satisfy EventPublisher
var (
	_ EventPublisher = (*KafkaEventPublisher)(nil)
	_ EventPublisher = (*NoOpEventPublisher)(nil)
	_ JSONProducer   = (*kafka.Producer)(nil)
)
