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

	"github.com/PercyTuncar/ravehub-website-sub003/backend-store/internal/di"
	"github.com/PercyTuncar/ravehub-website-sub003/backend-store/migrations"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/config"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/database"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/kafka"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/logger"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/middleware"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/redis"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/telemetry"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const serviceName = "store-service"

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
	appLog.Info("Starting Store Service...")

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

	// PostgreSQL holds the catalog, stock and orders
	dbCfg := cfg.StoreDatabase
	db, err := database.NewPostgres(ctx, &database.PostgresConfig{
		Host:            dbCfg.Host,
		Port:            dbCfg.Port,
		User:            dbCfg.User,
		Password:        dbCfg.Password,
		Database:        dbCfg.DBName,
		SSLMode:         dbCfg.SSLMode,
		MaxConns:        int32(dbCfg.MaxOpenConns),
		MinConns:        int32(dbCfg.MinIdleConns),
		MaxConnLifetime: dbCfg.ConnMaxLifetime,
		MaxConnIdleTime: dbCfg.ConnMaxIdleTime,
		ConnectTimeout:  5 * time.Second,
		MaxRetries:      3,
		RetryInterval:   time.Second,
		EnableTracing:   cfg.OTel.Enabled,
	})
	if err != nil {
		appLog.Fatal("PostgreSQL connection failed", zap.Error(err))
	}
	defer db.Close()
	appLog.Info("PostgreSQL connected", zap.String("database", dbCfg.DBName))

	if dbCfg.AutoMigrate {
		version, err := database.Migrate(migrations.FS, ".", dbCfg.URL())
		if err != nil {
			appLog.Fatal("Database migration failed", zap.Error(err))
		}
		appLog.Info("Database migrated", zap.Uint("version", version))
	}

	// Redis holds the rate table and idempotency keys
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

	// Kafka carries order and stock events
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
		appLog.Warn("Kafka disabled: order events are only logged")
	}

	// Build dependency injection container
	container, err := di.NewContainer(&di.ContainerConfig{
		DB:          db,
		Redis:       redisClient,
		Producer:    producer,
		Currency:    cfg.Currency,
		Payment:     cfg.Payment,
		Store:       cfg.Store,
		ServiceName: serviceName,
	})
	if err != nil {
		appLog.Fatal("Failed to build container", zap.Error(err))
	}
	appLog.Info("Payment gateway ready", zap.String("gateway", container.Gateway.Name()))

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

	// The catalog is public; admins also see inactive products
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
		currencies := v1.Group("/currency")
		{
			currencies.GET("/rates", container.CurrencyHandler.Rates)
			currencies.GET("/convert", container.CurrencyHandler.Convert)
		}

		store := v1.Group("/store")
		{
			products := store.Group("/products")
			products.Use(optionalAuth)
			{
				products.GET("", container.ProductHandler.List)
				products.GET("/:id", container.ProductHandler.Get)
			}

			// Signed by Stripe, not by our JWT
			store.POST("/payments/stripe/webhook", container.WebhookHandler.HandleStripe)

			shop := store.Group("")
			shop.Use(requireAuth)
			if limiter != nil {
				shop.Use(limiter.Middleware())
			}
			{
				shop.POST("/cart/check", container.StockHandler.CheckCart)
				shop.GET("/orders/my", container.OrderHandler.ListMine)
				shop.GET("/orders/:id", container.OrderHandler.Get)

				// Checkout and payment are idempotent per X-Idempotency-Key
				idempotent := shop.Group("")
				idempotent.Use(middleware.IdempotencyMiddleware(&middleware.IdempotencyConfig{
					Store:         redisClient,
					TTL:           24 * time.Hour,
					ProcessingTTL: 30 * time.Second,
				}))
				{
					idempotent.POST("/orders", container.OrderHandler.Create)
					idempotent.POST("/orders/:id/pay", container.OrderHandler.Pay)
				}
			}
		}

		admin := v1.Group("/admin")
		admin.Use(requireAuth, middleware.RequireRole(middleware.RoleAdmin))
		{
			admin.POST("/products", container.ProductHandler.Create)
			admin.PUT("/products/:id", container.ProductHandler.Update)
			admin.PUT("/products/:id/stock", container.ProductHandler.SetStock)
			admin.POST("/stock/apply-sale", container.StockHandler.ApplySale)

			admin.GET("/orders", container.OrderHandler.List)
			admin.PUT("/orders/:id/status", container.OrderHandler.UpdateStatus)
			admin.PUT("/orders/:id/payment-status", container.OrderHandler.UpdatePaymentStatus)
			admin.GET("/orders/:id/history", container.OrderHandler.History)

			admin.POST("/currency/refresh", container.CurrencyHandler.Refresh)
		}
	}

	// Create HTTP server
	port := cfg.Server.Port
	if port == 0 {
		port = 8082
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
		appLog.Info("Store Service listening", zap.String("addr", addr))
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
