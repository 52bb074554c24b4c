package service

import (
	"context"
	"fmt"

	"github.com/PercyTuncar/ravehub-website-sub003/backend-voting/internal/domain"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/kafka"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/telemetry"
	"github.com/google/uuid"
)

// TopicRankingPublished carries rankings once they are public
const TopicRankingPublished = "ranking.published"

// EventPublisher defines the interface for publishing voting events
type EventPublisher interface {
	PublishRankingPublished(ctx context.Context, event *domain.RankingPublishedEvent) error
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
		serviceName = "voting-service"
	}
	return &KafkaEventPublisher{producer: producer, serviceName: serviceName}
}

// PublishRankingPublished publishes the ranking keyed by period ID
func (p *KafkaEventPublisher) PublishRankingPublished(ctx context.Context, event *domain.RankingPublishedEvent) error {
	headers := telemetry.InjectHeaders(ctx, map[string]string{
		"event_type": TopicRankingPublished,
		"event_id":   uuid.New().String(),
		"source":     p.serviceName,
	})
	if err := p.producer.ProduceJSON(ctx, TopicRankingPublished, event.PeriodID, event, headers); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", TopicRankingPublished, err)
	}
	return nil
}

// NoOpEventPublisher is used when Kafka is not configured
type NoOpEventPublisher struct{}

// NewNoOpEventPublisher creates a new no-op event publisher
func NewNoOpEventPublisher() *NoOpEventPublisher {
	return &NoOpEventPublisher{}
}

func (NoOpEventPublisher) PublishRankingPublished(context.Context, *domain.RankingPublishedEvent) error {
	return nil
}

// Ensure implementations satisfy EventPublisher
var (
	_ EventPublisher = (*KafkaEventPublisher)(nil)
	_ EventPublisher = (*NoOpEventPublisher)(nil)
	_ JSONProducer   = (*kafka.Producer)(nil)
)
