package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/PercyTuncar/ravehub-website-sub003/backend-ticket/internal/repository"
	"github.com/PercyTuncar/ravehub-website-sub003/backend-ticket/internal/service"
	"github.com/PercyTuncar/ravehub-website-sub003/backend-ticket/internal/worker"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/config"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/kafka"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/logger"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/mongodb"
	pkgredis "github.com/PercyTuncar/ravehub-website-sub003/pkg/redis"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/retry"
	"go.uber.org/zap"
)

func main() {
	// Rebuilding overwrites live counters with the persisted allotments, so
	// it only runs on demand against a cold Redis or with purchases paused
	rebuildOnly := flag.Bool("rebuild", false, "rebuild Redis availability from MongoDB and exit")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logCfg := &logger.Config{
		Level:       cfg.App.Environment,
		ServiceName: "inventory-worker",
		Development: cfg.IsDevelopment(),
	}
	if err := logger.Init(logCfg); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	appLog := logger.Get()
	appLog.Info("Starting Inventory Worker...")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mongoDB, err := mongodb.Connect(ctx, &mongodb.Config{
		URI:            cfg.MongoDB.URI,
		Database:       cfg.MongoDB.Database,
		MaxPoolSize:    cfg.MongoDB.MaxPoolSize,
		ConnectTimeout: cfg.MongoDB.ConnectTimeout,
		MaxRetries:     3,
		RetryInterval:  2 * time.Second,
	})
	if err != nil {
		appLog.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer mongoDB.Close(context.Background())
	appLog.Info("MongoDB connected")

	redis, err := pkgredis.NewClient(ctx, &pkgredis.Config{
		Host:          cfg.Redis.Host,
		Port:          cfg.Redis.Port,
		Password:      cfg.Redis.Password,
		DB:            cfg.Redis.DB,
		PoolSize:      cfg.Redis.PoolSize,
		MaxRetries:    3,
		RetryInterval: 2 * time.Second,
	})
	if err != nil {
		appLog.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redis.Close()
	appLog.Info("Redis connected")

	eventRepo := repository.NewMongoEventRepository(mongoDB)
	availRepo := repository.NewRedisAvailabilityRepository(redis)

	if *rebuildOnly {
		w := worker.NewInventoryWorker(&worker.InventoryWorkerConfig{}, nil, eventRepo, availRepo, nil, appLog)
		if err := w.RebuildRedisFromDB(ctx); err != nil {
			appLog.Fatal("Rebuild failed", zap.Error(err))
		}
		return
	}

	consumer, err := kafka.NewConsumer(ctx, &kafka.ConsumerConfig{
		Brokers:        cfg.Kafka.Brokers,
		GroupID:        "inventory-worker",
		Topics:         []string{service.TopicTicketSold},
		ClientID:       "inventory-worker",
		MaxRetries:     3,
		RetryInterval:  2 * time.Second,
		SessionTimeout: 30 * time.Second,
		MaxPollRecords: 500,
	})
	if err != nil {
		appLog.Fatal("Failed to create Kafka consumer", zap.Error(err))
	}
	defer consumer.Close()

	producer, err := kafka.NewProducer(ctx, &kafka.ProducerConfig{
		Brokers:       cfg.Kafka.Brokers,
		ClientID:      "inventory-worker-dlq",
		MaxRetries:    3,
		RetryInterval: 2 * time.Second,
	})
	if err != nil {
		appLog.Fatal("Failed to create DLQ producer", zap.Error(err))
	}
	defer producer.Close()
	appLog.Info("Kafka connected", zap.Strings("brokers", cfg.Kafka.Brokers))

	workerCfg := &worker.InventoryWorkerConfig{
		BatchInterval: 5 * time.Second,
		MaxBatchSize:  1000,
	}
	dlq := retry.NewKafkaDLQPublisher(producer, "inventory-worker", "")
	inventoryWorker := worker.NewInventoryWorker(workerCfg, consumer, eventRepo, availRepo, dlq, appLog)

	done := make(chan struct{})
	go func() {
		inventoryWorker.Start(ctx)
		close(done)
	}()
	appLog.Info("Inventory worker started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLog.Info("Shutting down inventory worker...")
	cancel()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		appLog.Warn("Inventory worker did not stop in time")
	}
	appLog.Info("Inventory worker stopped")
}
