package di

import (
	"context"
	"time"

	"github.com/PercyTuncar/ravehub-website-sub003/backend-ticket/internal/handler"
	"github.com/PercyTuncar/ravehub-website-sub003/backend-ticket/internal/repository"
	"github.com/PercyTuncar/ravehub-website-sub003/backend-ticket/internal/service"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/currency"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/kafka"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/mongodb"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/redis"
)

// Container holds all dependencies for the ticket service
type Container struct {
	// Infrastructure
	Mongo    *mongodb.DB
	Redis    *redis.Client
	Producer *kafka.Producer

	// Repositories
	EventRepo *repository.MongoEventRepository
	AvailRepo *repository.RedisAvailabilityRepository

	// Services
	Syncer         service.AvailabilitySyncer
	Publisher      service.EventPublisher
	Rates          *currency.RateService
	EventService   service.EventService
	PricingService service.PricingService
	TicketService  service.TicketService

	// Handlers
	HealthHandler       *handler.HealthHandler
	EventHandler        *handler.EventHandler
	PricingHandler      *handler.PricingHandler
	TicketHandler       *handler.TicketHandler
	AvailabilityHandler *handler.AvailabilityHandler
}

// ContainerConfig contains configuration for building the container
type ContainerConfig struct {
	Mongo *mongodb.DB
	Redis *redis.Client
	// Producer is nil when Kafka is disabled; sales are then not persisted
	Producer *kafka.Producer
	// RateCacheTTL is how long the shared rate table lives in Redis
	RateCacheTTL time.Duration
	// SupportedCurrencies limits display conversions
	SupportedCurrencies []string
	ServiceName         string
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *ContainerConfig) *Container {
	c := &Container{
		Mongo:    cfg.Mongo,
		Redis:    cfg.Redis,
		Producer: cfg.Producer,
	}

	// Initialize repositories
	c.EventRepo = repository.NewMongoEventRepository(c.Mongo)
	c.AvailRepo = repository.NewRedisAvailabilityRepository(c.Redis)

	// The rates worker of the store service refreshes the table; this service
	// only reads it from the shared cache
	c.Rates = currency.NewRateService(nil, currency.NewRedisCache(c.Redis, cfg.RateCacheTTL), currency.ServiceConfig{
		Supported: cfg.SupportedCurrencies,
	})

	if c.Producer != nil {
		c.Publisher = service.NewKafkaEventPublisher(c.Producer, cfg.ServiceName)
	} else {
		c.Publisher = service.NewNoOpEventPublisher()
	}

	// Initialize services
	c.Syncer = service.NewAvailabilitySyncer(c.AvailRepo)
	c.EventService = service.NewEventService(c.EventRepo, c.Syncer)
	c.PricingService = service.NewPricingService(c.Syncer, c.Rates)
	c.TicketService = service.NewTicketService(c.EventRepo, c.AvailRepo, c.Publisher)

	// Initialize handlers
	c.HealthHandler = handler.NewHealthHandler(map[string]handler.HealthChecker{
		"mongodb": c.Mongo,
		"redis":   c.Redis,
	})
	c.EventHandler = handler.NewEventHandler(c.EventService)
	c.PricingHandler = handler.NewPricingHandler(c.EventService, c.PricingService)
	c.TicketHandler = handler.NewTicketHandler(c.TicketService)
	c.AvailabilityHandler = handler.NewAvailabilityHandler(c.EventService, c.Syncer)

	return c
}

// Init prepares indexes and scripts before traffic is served
func (c *Container) Init(ctx context.Context) error {
	if err := c.EventRepo.EnsureIndexes(ctx); err != nil {
		return err
	}
	return c.AvailRepo.LoadScripts(ctx)
}

// Close releases the publisher. Connections are closed by main.
func (c *Container) Close() error {
	return c.Publisher.Close()
}
