package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

// Record is a consumed Kafka record
type Record struct {
	Topic     string
	Partition int32
	Offset    int64
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Timestamp time.Time

	raw *kgo.Record
}

// Header returns a header value, or "" when absent
func (r *Record) Header(key string) string {
	return r.Headers[key]
}

// ConsumerConfig holds consumer group configuration
type ConsumerConfig struct {
	Brokers        []string
	GroupID        string
	Topics         []string
	ClientID       string
	MaxRetries     int
	RetryInterval  time.Duration
	SessionTimeout time.Duration
	MaxPollRecords int
}

// Consumer reads from a consumer group with manual offset commits
type Consumer struct {
	client         *kgo.Client
	maxPollRecords int
}

// NewConsumer joins the group. Offsets are committed only through CommitRecords.
func NewConsumer(ctx context.Context, cfg *ConsumerConfig) (*Consumer, error) {
	if cfg == nil || len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}
	if cfg.GroupID == "" || len(cfg.Topics) == 0 {
		return nil, errors.New("kafka consumer group and topics are required")
	}

	opts := []kgo.Opt{
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ConsumerGroup(cfg.GroupID),
		kgo.ConsumeTopics(cfg.Topics...),
		kgo.DisableAutoCommit(),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
		kgo.BlockRebalanceOnPoll(),
	}
	if cfg.ClientID != "" {
		opts = append(opts, kgo.ClientID(cfg.ClientID))
	}
	if cfg.SessionTimeout > 0 {
		opts = append(opts, kgo.SessionTimeout(cfg.SessionTimeout))
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka consumer: %w", err)
	}

	if err := pingWithRetry(ctx, client, cfg.MaxRetries, cfg.RetryInterval); err != nil {
		client.Close()
		return nil, err
	}

	maxPoll := cfg.MaxPollRecords
	if maxPoll <= 0 {
		maxPoll = 500
	}
	return &Consumer{client: client, maxPollRecords: maxPoll}, nil
}

// Poll blocks until records are available or ctx is done
func (c *Consumer) Poll(ctx context.Context) ([]*Record, error) {
	fetches := c.client.PollRecords(ctx, c.maxPollRecords)
	defer c.client.AllowRebalance()

	if fetches.IsClientClosed() {
		return nil, errors.New("kafka client closed")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var errs []error
	fetches.EachError(func(topic string, partition int32, err error) {
		errs = append(errs, fmt.Errorf("%s[%d]: %w", topic, partition, err))
	})

	var records []*Record
	fetches.EachRecord(func(r *kgo.Record) {
		records = append(records, fromKgo(r))
	})

	if len(records) == 0 && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return records, nil
}

// CommitRecords commits the offsets of the given records
func (c *Consumer) CommitRecords(ctx context.Context, records []*Record) error {
	if len(records) == 0 {
		return nil
	}
	raw := make([]*kgo.Record, 0, len(records))
	for _, r := range records {
		if r.raw != nil {
			raw = append(raw, r.raw)
		}
	}
	return c.client.CommitRecords(ctx, raw...)
}

// Close leaves the group and closes the client
func (c *Consumer) Close() {
	c.client.Close()
}

func fromKgo(r *kgo.Record) *Record {
	headers := make(map[string]string, len(r.Headers))
	for _, h := range r.Headers {
		headers[h.Key] = string(h.Value)
	}
	return &Record{
		Topic:     r.Topic,
		Partition: r.Partition,
		Offset:    r.Offset,
		Key:       r.Key,
		Value:     r.Value,
		Headers:   headers,
		Timestamp: r.Timestamp,
		raw:       r,
	}
}
