package di

import (
	"context"

	"github.com/PercyTuncar/ravehub-website-sub003/backend-voting/internal/handler"
	"github.com/PercyTuncar/ravehub-website-sub003/backend-voting/internal/repository"
	"github.com/PercyTuncar/ravehub-website-sub003/backend-voting/internal/service"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/config"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/kafka"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/mongodb"
)

// Container holds all dependencies for the voting service
type Container struct {
	// Infrastructure
	Mongo    *mongodb.DB
	Producer *kafka.Producer

	// Repositories
	PeriodRepo     *repository.MongoPeriodRepository
	SuggestionRepo *repository.MongoSuggestionRepository
	VoteRepo       *repository.MongoVoteRepository
	RankingRepo    *repository.MongoRankingRepository

	// Services
	Publisher     service.EventPublisher
	VotingService service.VotingService

	// Handlers
	HealthHandler *handler.HealthHandler
	VotingHandler *handler.VotingHandler
}

// ContainerConfig contains configuration for building the container
type ContainerConfig struct {
	Mongo *mongodb.DB
	// Producer is nil when Kafka is disabled
	Producer    *kafka.Producer
	Voting      config.VotingConfig
	ServiceName string
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *ContainerConfig) *Container {
	c := &Container{
		Mongo:    cfg.Mongo,
		Producer: cfg.Producer,
	}

	c.PeriodRepo = repository.NewMongoPeriodRepository(c.Mongo)
	c.SuggestionRepo = repository.NewMongoSuggestionRepository(c.Mongo)
	c.VoteRepo = repository.NewMongoVoteRepository(c.Mongo)
	c.RankingRepo = repository.NewMongoRankingRepository(c.Mongo)

	if c.Producer != nil {
		c.Publisher = service.NewKafkaEventPublisher(c.Producer, cfg.ServiceName)
	} else {
		c.Publisher = service.NewNoOpEventPublisher()
	}

	c.VotingService = service.NewVotingService(service.VotingServiceDeps{
		Periods:     c.PeriodRepo,
		Suggestions: c.SuggestionRepo,
		Votes:       c.VoteRepo,
		Rankings:    c.RankingRepo,
		Publisher:   c.Publisher,
		Config: service.VotingServiceConfig{
			MaxVotesPerUser: cfg.Voting.MaxVotesPerUser,
			DefaultTopCount: cfg.Voting.DefaultTopCount,
		},
	})

	c.HealthHandler = handler.NewHealthHandler(c.Mongo)
	c.VotingHandler = handler.NewVotingHandler(c.VotingService)

	return c
}

// Init creates the unique indexes the vote rules rely on
func (c *Container) Init(ctx context.Context) error {
	if err := c.PeriodRepo.EnsureIndexes(ctx); err != nil {
		return err
	}
	if err := c.SuggestionRepo.EnsureIndexes(ctx); err != nil {
		return err
	}
	return c.VoteRepo.EnsureIndexes(ctx)
}
