package retry

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"
)

// DLQMessage is a record that could not be processed, parked for inspection
type DLQMessage struct {
	OriginalTopic string            `json:"original_topic"`
	OriginalKey   string            `json:"original_key"`
	Payload       json.RawMessage   `json:"payload"`
	Headers       map[string]string `json:"headers,omitempty"`
	Error         string            `json:"error"`
	Attempts      int               `json:"attempts"`
	MovedToDLQAt  time.Time         `json:"moved_to_dlq_at"`
	Source        string            `json:"source"`
}

// DLQPublisher publishes failed messages to a dead letter topic
type DLQPublisher interface {
	PublishToDLQ(ctx context.Context, msg *DLQMessage) error
}

// JSONProducer is the subset of the Kafka producer the DLQ needs
type JSONProducer interface {
	ProduceJSON(ctx context.Context, topic, key string, value interface{}, headers map[string]string) error
}

// KafkaDLQPublisher writes DLQ messages to "<topic><suffix>"
type KafkaDLQPublisher struct {
	producer JSONProducer
	source   string
	suffix   string
}

// NewKafkaDLQPublisher creates a DLQ publisher. suffix defaults to ".dlq".
func NewKafkaDLQPublisher(producer JSONProducer, source, suffix string) *KafkaDLQPublisher {
	if suffix == "" {
		suffix = ".dlq"
	}
	return &KafkaDLQPublisher{producer: producer, source: source, suffix: suffix}
}

// Topic returns the dead letter topic for originalTopic
func (p *KafkaDLQPublisher) Topic(originalTopic string) string {
	return originalTopic + p.suffix
}

// PublishToDLQ publishes msg, stamping source and time
func (p *KafkaDLQPublisher) PublishToDLQ(ctx context.Context, msg *DLQMessage) error {
	if msg == nil {
		return errors.New("DLQ message cannot be nil")
	}

	msg.MovedToDLQAt = time.Now().UTC()
	msg.Source = p.source

	headers := map[string]string{
		"original_topic": msg.OriginalTopic,
		"error":          msg.Error,
		"attempts":       strconv.Itoa(msg.Attempts),
		"source":         msg.Source,
	}
	return p.producer.ProduceJSON(ctx, p.Topic(msg.OriginalTopic), msg.OriginalKey, msg, headers)
}

// NoOpDLQPublisher drops DLQ messages
type NoOpDLQPublisher struct{}

// PublishToDLQ does nothing
func (NoOpDLQPublisher) PublishToDLQ(context.Context, *DLQMessage) error { return nil }
