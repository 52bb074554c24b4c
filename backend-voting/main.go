package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/PercyTuncar/ravehub-website-sub003/backend-voting/internal/di"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/config"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/kafka"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/logger"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/middleware"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/mongodb"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/telemetry"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const serviceName = "voting-service"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(&logger.Config{
		Level:       cfg.App.Environment,
		ServiceName: serviceName,
		Development: cfg.IsDevelopment(),
	}); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	appLog := logger.Get()
	appLog.Info("Starting Voting Service...")

	ctx := context.Background()

	telemetryCfg := &telemetry.Config{
		Enabled:        cfg.OTel.Enabled,
		ServiceName:    serviceName,
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Environment,
		CollectorAddr:  cfg.OTel.CollectorAddr,
		SampleRatio:    cfg.OTel.SampleRatio,
	}
	if _, err := telemetry.Init(ctx, telemetryCfg); err != nil {
		appLog.Warn("Failed to initialize telemetry", zap.Error(err))
	}
	defer telemetry.Shutdown(ctx)

	mongoDB, err := mongodb.Connect(ctx, &mongodb.Config{
		URI:                  cfg.MongoDB.URI,
		Database:             cfg.MongoDB.Database,
		MaxPoolSize:          cfg.MongoDB.MaxPoolSize,
		ConnectTimeout:       cfg.MongoDB.ConnectTimeout,
		SlowCommandThreshold: cfg.MongoDB.SlowCommandTime,
		MaxRetries:           3,
		RetryInterval:        time.Second,
	})
	if err != nil {
		appLog.Fatal("MongoDB connection failed", zap.Error(err))
	}
	defer mongoDB.Close(context.Background())
	appLog.Info("MongoDB connected", zap.String("database", cfg.MongoDB.Database))

	// Kafka carries ranking.published to the site
	var producer *kafka.Producer
	if cfg.Kafka.Enabled {
		producer, err = kafka.NewProducer(ctx, &kafka.ProducerConfig{
			Brokers:       cfg.Kafka.Brokers,
			ClientID:      serviceName,
			MaxRetries:    3,
			RetryInterval: time.Second,
		})
		if err != nil {
			appLog.Fatal("Kafka producer failed", zap.Error(err))
		}
		defer producer.Close()
		appLog.Info("Kafka producer connected", zap.Strings("brokers", cfg.Kafka.Brokers))
	}

	container := di.NewContainer(&di.ContainerConfig{
		Mongo:       mongoDB,
		Producer:    producer,
		Voting:      cfg.Voting,
		ServiceName: serviceName,
	})
	if err := container.Init(ctx); err != nil {
		appLog.Fatal("Failed to create indexes", zap.Error(err))
	}

	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.CORS(cfg.Server.AllowedOrigins))

	if cfg.OTel.Enabled {
		router.Use(telemetry.TracingMiddleware(serviceName))
		router.Use(telemetry.TraceHeaderMiddleware())
	}

	var limiter *middleware.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = middleware.NewRateLimiter(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		})
		defer limiter.Stop()
	}

	router.GET("/health", container.HealthHandler.Health)
	router.GET("/ready", container.HealthHandler.Ready)

	// Admins reading the ranking get the unpublished preview
	optionalAuth := middleware.JWTMiddleware(&middleware.JWTConfig{
		Secret:   cfg.JWT.Secret,
		Issuer:   cfg.JWT.Issuer,
		Optional: true,
	})
	requireAuth := middleware.JWTMiddleware(&middleware.JWTConfig{
		Secret: cfg.JWT.Secret,
		Issuer: cfg.JWT.Issuer,
	})

	h := container.VotingHandler
	v1 := router.Group("/api/v1")
	{
		voting := v1.Group("/voting")
		voting.Use(optionalAuth)
		{
			voting.GET("", h.ListPeriods)
			voting.GET("/:country/:year", h.GetPeriod)
			voting.GET("/:country/:year/suggestions", h.ListSuggestions)
			voting.GET("/:country/:year/ranking", h.GetRanking)
		}

		fans := v1.Group("/voting")
		fans.Use(requireAuth)
		if limiter != nil {
			fans.Use(limiter.Middleware())
		}
		{
			fans.POST("/:country/:year/suggestions", h.Suggest)
			fans.POST("/:country/:year/votes", h.Vote)
			fans.GET("/:country/:year/votes/my", h.MyVotes)
		}

		admin := v1.Group("/admin/voting")
		admin.Use(requireAuth, middleware.RequireRole(middleware.RoleAdmin))
		{
			admin.POST("", h.CreatePeriod)
			admin.POST("/:country/:year/actions/:action", h.ApplyAction)
		}
	}

	port := cfg.Server.Port
	if port == 0 {
		port = 8083
	}
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ReadHeaderTimeout: 2 * time.Second,
	}

	go func() {
		appLog.Info("Voting Service listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Error("Server forced to shutdown", zap.Error(err))
	}
	appLog.Info("Server exited gracefully")
}
