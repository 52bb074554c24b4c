package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/PercyTuncar/ravehub-website-sub003/pkg/logger"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/retry"
	"go.mongodb.org/mongo-driver/event"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Config holds MongoDB connection configuration
type Config struct {
	URI            string
	Database       string
	MaxPoolSize    uint64
	ConnectTimeout time.Duration

	// SlowCommandThreshold logs commands slower than this; zero disables monitoring
	SlowCommandThreshold time.Duration

	MaxRetries    int
	RetryInterval time.Duration
}

// DefaultConfig returns default MongoDB configuration
func DefaultConfig() *Config {
	return &Config{
		URI:                  "mongodb://localhost:27017",
		Database:             "ravehub",
		MaxPoolSize:          50,
		ConnectTimeout:       10 * time.Second,
		SlowCommandThreshold: 200 * time.Millisecond,
		MaxRetries:           3,
		RetryInterval:        time.Second,
	}
}

// DB wraps a mongo client bound to one database
type DB struct {
	client *mongo.Client
	db     *mongo.Database
	config *Config
}

// Connect opens a client and pings the primary, retrying with backoff
func Connect(ctx context.Context, cfg *Config) (*DB, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetMaxPoolSize(cfg.MaxPoolSize).
		SetConnectTimeout(cfg.ConnectTimeout)
	if cfg.SlowCommandThreshold > 0 {
		opts.SetMonitor(slowCommandMonitor(cfg.SlowCommandThreshold))
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create mongo client: %w", err)
	}

	result := retry.Do(ctx, &retry.Config{
		MaxRetries:      cfg.MaxRetries,
		InitialInterval: cfg.RetryInterval,
		Multiplier:      2,
	}, func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
		return client.Ping(pingCtx, readpref.Primary())
	})
	if result.Err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to connect to mongodb after %d attempts: %w", result.Attempts, result.LastError)
	}

	return &DB{client: client, db: client.Database(cfg.Database), config: cfg}, nil
}

// Database returns the bound database
func (d *DB) Database() *mongo.Database {
	return d.db
}

// Collection returns a collection handle
func (d *DB) Collection(name string) *mongo.Collection {
	return d.db.Collection(name)
}

// Client returns the underlying client
func (d *DB) Client() *mongo.Client {
	return d.client
}

// HealthCheck pings the primary
func (d *DB) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := d.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("mongodb health check failed: %w", err)
	}
	return nil
}

// Close disconnects the client
func (d *DB) Close(ctx context.Context) error {
	return d.client.Disconnect(ctx)
}

// IsNotFound reports whether err means no document matched
func IsNotFound(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// IsDuplicateKey reports whether err is a unique index violation
func IsDuplicateKey(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}

func slowCommandMonitor(threshold time.Duration) *event.CommandMonitor {
	return &event.CommandMonitor{
		Succeeded: func(ctx context.Context, e *event.CommandSucceededEvent) {
			if e.Duration >= threshold {
				logger.Get().WarnContext(ctx, "slow mongo command",
					zap.String("command", e.CommandName),
					zap.String("database", e.DatabaseName),
					zap.Duration("duration", e.Duration))
			}
		},
		Failed: func(ctx context.Context, e *event.CommandFailedEvent) {
			logger.Get().ErrorContext(ctx, "mongo command failed",
				zap.String("command", e.CommandName),
				zap.String("database", e.DatabaseName),
				zap.String("failure", e.Failure))
		},
	}
}
