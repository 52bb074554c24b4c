package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/PercyTuncar/ravehub-website-sub003/backend-store/internal/di"
	"github.com/PercyTuncar/ravehub-website-sub003/backend-store/internal/worker"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/config"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/logger"
	pkgredis "github.com/PercyTuncar/ravehub-website-sub003/pkg/redis"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func main() {
	once := flag.Bool("once", false, "refresh the rate table once and exit")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logCfg := &logger.Config{
		Level:       cfg.App.Environment,
		ServiceName: "rates-worker",
		Development: cfg.IsDevelopment(),
	}
	if err := logger.Init(logCfg); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	appLog := logger.Get()
	appLog.Info("Starting Rates Worker...")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

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

	rates := di.NewRateService(cfg.Currency, redis)
	workerCfg := &worker.RatesWorkerConfig{
		Interval: cfg.Currency.RefreshInterval,
		Owner:    "rates-worker-" + uuid.NewString()[:8],
	}

	// A manual refresh skips the replica lock
	if *once {
		if !worker.NewRatesWorker(workerCfg, rates, nil, appLog).RunOnce(ctx) {
			appLog.Fatal("Rate refresh failed")
		}
		return
	}

	ratesWorker := worker.NewRatesWorker(workerCfg, rates, redis, appLog)

	done := make(chan struct{})
	go func() {
		ratesWorker.Start(ctx)
		close(done)
	}()
	appLog.Info("Rates worker started", zap.Duration("interval", cfg.Currency.RefreshInterval))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLog.Info("Shutting down rates worker...")
	cancel()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		appLog.Warn("Rates worker did not stop in time")
	}
	appLog.Info("Rates worker stopped")
}
