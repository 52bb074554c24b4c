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

	"github.com/PercyTuncar/ravehub-website-sub003/backend-ticket/internal/di"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/config"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/kafka"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/logger"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/middleware"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/mongodb"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/redis"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/telemetry"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const serviceName = "ticket-service"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logCfg := &logger.Config{
		Level:       cfg.App.Environment,
		ServiceName: serviceName,
		Development: cfg.IsDevelopment(),
	}
	if err := logger.Init(logCfg); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	appLog := logger.Get()
	appLog.Info("Starting Ticket Service...")

	ctx := context.Background()

	// Initialize OpenTelemetry
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
	} else if telemetryCfg.Enabled {
		appLog.Info("Telemetry initialized", zap.String("collector", telemetryCfg.CollectorAddr))
	}
	defer telemetry.Shutdown(ctx)

	// MongoDB holds the event documents
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

	// Redis holds the live availability counters, so it is required here
	redisCfg := &redis.Config{
		Host:          cfg.Redis.Host,
		Port:          cfg.Redis.Port,
		Password:      cfg.Redis.Password,
		DB:            cfg.Redis.DB,
		PoolSize:      cfg.Redis.PoolSize,
		MinIdleConns:  cfg.Redis.MinIdleConns,
		DialTimeout:   cfg.Redis.DialTimeout,
		ReadTimeout:   cfg.Redis.ReadTimeout,
		WriteTimeout:  cfg.Redis.WriteTimeout,
		MaxRetries:    3,
		RetryInterval: time.Second,
	}
	redisClient, err := redis.NewClient(ctx, redisCfg)
	if err != nil {
		appLog.Fatal("Redis connection failed", zap.Error(err))
	}
	defer redisClient.Close()
	appLog.Info("Redis connected", zap.String("addr", redisCfg.Addr()))

	// Kafka carries ticket.sold to the inventory worker
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
	} else {
		appLog.Warn("Kafka disabled: ticket sales will not reach MongoDB")
	}

	// Build dependency injection container
	container := di.NewContainer(&di.ContainerConfig{
		Mongo:               mongoDB,
		Redis:               redisClient,
		Producer:            producer,
		RateCacheTTL:        cfg.Currency.CacheTTL,
		SupportedCurrencies: cfg.Currency.SupportedCurrencies,
		ServiceName:         serviceName,
	})
	defer container.Close()

	if err := container.Init(ctx); err != nil {
		appLog.Fatal("Failed to prepare indexes and scripts", zap.Error(err))
	}

	// Setup Gin
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

	// Health check endpoints
	router.GET("/health", container.HealthHandler.Health)
	router.GET("/ready", container.HealthHandler.Ready)

	// Public reads still accept a token so organizers can see their drafts
	optionalAuth := middleware.JWTMiddleware(&middleware.JWTConfig{
		Secret:   cfg.JWT.Secret,
		Issuer:   cfg.JWT.Issuer,
		Optional: true,
	})
	requireAuth := middleware.JWTMiddleware(&middleware.JWTConfig{
		Secret: cfg.JWT.Secret,
		Issuer: cfg.JWT.Issuer,
	})

	// API routes
	v1 := router.Group("/api/v1")
	{
		events := v1.Group("/events")
		events.Use(optionalAuth)
		{
			events.GET("", container.EventHandler.List)
			events.GET("/id/:id", container.EventHandler.GetByID)
			events.GET("/id/:id/pricing", container.PricingHandler.Get)

			// Organizer/Admin only
			manage := v1.Group("/events")
			manage.Use(requireAuth, middleware.RequireRole(middleware.RoleAdmin, middleware.RoleOrganizer))
			{
				manage.POST("", container.EventHandler.Create)
				manage.PUT("/id/:id", container.EventHandler.Update)
				manage.DELETE("/id/:id", container.EventHandler.Delete)
				manage.POST("/id/:id/publish", container.EventHandler.Publish)
			}

			// Purchases are idempotent per X-Idempotency-Key
			buy := v1.Group("/events")
			buy.Use(requireAuth)
			if limiter != nil {
				buy.Use(limiter.Middleware())
			}
			buy.Use(middleware.IdempotencyMiddleware(&middleware.IdempotencyConfig{
				Store:         redisClient,
				TTL:           24 * time.Hour,
				ProcessingTTL: 30 * time.Second,
			}))
			{
				buy.POST("/id/:id/tickets", container.TicketHandler.Purchase)
			}

			// This must be last to avoid catching /id/:id
			events.GET("/:slug", container.EventHandler.GetBySlug)
		}

		admin := v1.Group("/admin")
		admin.Use(requireAuth, middleware.RequireRole(middleware.RoleAdmin))
		{
			admin.GET("/events/:id/availability", container.AvailabilityHandler.Compare)
			admin.POST("/events/:id/availability/sync", container.AvailabilityHandler.Sync)
		}
	}

	// Create HTTP server
	port := cfg.Server.Port
	if port == 0 {
		port = 8081
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
		appLog.Info("Ticket Service listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal for graceful shutdown
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
