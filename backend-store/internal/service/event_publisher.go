package service

import (
	"context"
	"fmt"

	"github.com/PercyTuncar/ravehub-website-sub003/backend-store/internal/domain"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/kafka"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/telemetry"
	"github.com/google/uuid"
)

// Topics published by the store
const (
	TopicOrderCreated        = "order.created"
	TopicOrderStatusChanged  = "order.status_changed"
	TopicOrderPaymentChanged = "order.payment_changed"
	TopicStockAnomaly        = "stock.anomaly"
)

// EventPublisher defines the interface for publishing store events
type EventPublisher interface {
	PublishOrderCreated(ctx context.Context, order *domain.Order) error
	PublishOrderStatusChanged(ctx context.Context, event *domain.OrderStatusChangedEvent) error
	PublishOrderPaymentChanged(ctx context.Context, event *domain.OrderPaymentChangedEvent) error
	PublishStockAnomaly(ctx context.Context, anomaly *domain.StockAnomaly) error
}

// JSONProducer is the subset of kafka.Producer used by the publisher
type JSONProducer interface {
	ProduceJSON(ctx context.Context, topic, key string, value interface{}, headers map[string]string) error
}

// KafkaEventPublisher implements EventPublisher using Kafka
type KafkaEventPublisher struct {
	producer    JSONProducer
	serviceName string
}

// NewKafkaEventPublisher creates a publisher on top of a shared producer
func NewKafkaEventPublisher(producer JSONProducer, serviceName string) *KafkaEventPublisher {
	if serviceName == "" {
		serviceName = "store-service"
	}
	return &KafkaEventPublisher{producer: producer, serviceName: serviceName}
}

// PublishOrderCreated publishes the order snapshot keyed by order ID
func (p *KafkaEventPublisher) PublishOrderCreated(ctx context.Context, order *domain.Order) error {
	return p.publish(ctx, TopicOrderCreated, order.ID, order)
}

// PublishOrderStatusChanged publishes a fulfilment transition keyed by order ID
func (p *KafkaEventPublisher) PublishOrderStatusChanged(ctx context.Context, event *domain.OrderStatusChangedEvent) error {
	return p.publish(ctx, TopicOrderStatusChanged, event.OrderID, event)
}

// PublishOrderPaymentChanged publishes a payment transition keyed by order ID
func (p *KafkaEventPublisher) PublishOrderPaymentChanged(ctx context.Context, event *domain.OrderPaymentChangedEvent) error {
	return p.publish(ctx, TopicOrderPaymentChanged, event.OrderID, event)
}

// PublishStockAnomaly publishes an oversold decrement keyed by product ID
func (p *KafkaEventPublisher) PublishStockAnomaly(ctx context.Context, anomaly *domain.StockAnomaly) error {
	return p.publish(ctx, TopicStockAnomaly, anomaly.ProductID, anomaly)
}

func (p *KafkaEventPublisher) publish(ctx context.Context, topic, key string, value interface{}) error {
	headers := telemetry.InjectHeaders(ctx, map[string]string{
		"event_type": topic,
		"event_id":   uuid.New().String(),
		"source":     p.serviceName,
	})
	if err := p.producer.ProduceJSON(ctx, topic, key, value, headers); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", topic, err)
	}
	return nil
}

// NoOpEventPublisher is used when Kafka is not configured
type NoOpEventPublisher struct{}

// NewNoOpEventPublisher creates a new no-op event publisher
func NewNoOpEventPublisher() *NoOpEventPublisher {
	return &NoOpEventPublisher{}
}

func (NoOpEventPublisher) PublishOrderCreated(context.Context, *domain.Order) error { return nil }

func (NoOpEventPublisher) PublishOrderStatusChanged(context.Context, *domain.OrderStatusChangedEvent) error {
	return nil
}

func (NoOpEventPublisher) PublishOrderPaymentChanged(context.Context, *domain.OrderPaymentChangedEvent) error {
	return nil
}

func (NoOpEventPublisher) PublishStockAnomaly(context.Context, *domain.StockAnomaly) error { return nil }

// Ensure implementations satisfy EventPublisher
var (
	_ EventPublisher = (*KafkaEventPublisher)(nil)
	_ EventPublisher = (*NoOpEventPublisher)(nil)
	_ JSONProducer   = (*kafka.Producer)(nil)
)
