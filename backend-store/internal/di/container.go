package di

import (
	"net/http"
	"time"

	"github.com/PercyTuncar/ravehub-website-sub003/backend-store/internal/domain"
	"github.com/PercyTuncar/ravehub-website-sub003/backend-store/internal/gateway"
	"github.com/PercyTuncar/ravehub-website-sub003/backend-store/internal/handler"
	"github.com/PercyTuncar/ravehub-website-sub003/backend-store/internal/repository"
	"github.com/PercyTuncar/ravehub-website-sub003/backend-store/internal/service"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/config"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/currency"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/database"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/kafka"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/redis"
	"github.com/shopspring/decimal"
)

// Container holds all dependencies for the store service
type Container struct {
	// Infrastructure
	DB       *database.PostgresDB
	Redis    *redis.Client
	Producer *kafka.Producer
	Gateway  gateway.PaymentGateway

	// Repositories
	ProductRepo *repository.PostgresProductRepository
	StockRepo   *repository.PostgresStockRepository
	OrderRepo   *repository.PostgresOrderRepository

	// Services
	Publisher      service.EventPublisher
	Rates          *currency.RateService
	CatalogService service.CatalogService
	StockService   service.StockService
	OrderService   service.OrderService
	PaymentService service.PaymentService

	// Handlers
	HealthHandler   *handler.HealthHandler
	ProductHandler  *handler.ProductHandler
	StockHandler    *handler.StockHandler
	OrderHandler    *handler.OrderHandler
	CurrencyHandler *handler.CurrencyHandler
	WebhookHandler  *handler.WebhookHandler
}

// ContainerConfig contains configuration for building the container
type ContainerConfig struct {
	DB    *database.PostgresDB
	Redis *redis.Client
	// Producer is nil when Kafka is disabled
	Producer    *kafka.Producer
	Currency    config.CurrencyConfig
	Payment     config.PaymentConfig
	Store       config.StoreConfig
	ServiceName string
}

// NewContainer creates a new dependency injection container. It fails only
// when the payment gateway cannot be built.
func NewContainer(cfg *ContainerConfig) (*Container, error) {
	c := &Container{
		DB:       cfg.DB,
		Redis:    cfg.Redis,
		Producer: cfg.Producer,
	}

	gw, err := gateway.New(gateway.Config{
		Gateway:         cfg.Payment.Gateway,
		StripeSecretKey: cfg.Payment.StripeSecretKey,
		MockSuccessRate: cfg.Payment.MockSuccessRate,
	})
	if err != nil {
		return nil, err
	}
	c.Gateway = gw

	// Initialize repositories
	c.ProductRepo = repository.NewPostgresProductRepository(c.DB.Pool())
	c.StockRepo = repository.NewPostgresStockRepository(c.DB.Pool())
	c.OrderRepo = repository.NewPostgresOrderRepository(c.DB.Pool())

	if c.Producer != nil {
		c.Publisher = service.NewKafkaEventPublisher(c.Producer, cfg.ServiceName)
	} else {
		c.Publisher = service.NewNoOpEventPublisher()
	}

	c.Rates = NewRateService(cfg.Currency, c.Redis)

	// Initialize services
	c.CatalogService = service.NewCatalogService(c.ProductRepo)
	c.StockService = service.NewStockService(c.StockRepo, c.Publisher)
	c.OrderService = service.NewOrderService(service.OrderServiceDeps{
		Products:  c.ProductRepo,
		Stock:     c.StockRepo,
		Orders:    c.OrderRepo,
		Tx:        c.DB,
		Publisher: c.Publisher,
		Shipping: domain.ShippingPolicy{
			FlatRate: decimal.NewFromFloat(cfg.Store.ShippingFlatRate),
			FreeOver: decimal.NewFromFloat(cfg.Store.FreeShippingOver),
		},
	})
	c.PaymentService = service.NewPaymentService(c.OrderService, c.Gateway)

	// Initialize handlers
	c.HealthHandler = handler.NewHealthHandler(map[string]handler.HealthChecker{
		"postgres": c.DB,
		"redis":    c.Redis,
	})
	c.ProductHandler = handler.NewProductHandler(c.CatalogService)
	c.StockHandler = handler.NewStockHandler(c.StockService)
	c.OrderHandler = handler.NewOrderHandler(c.OrderService, c.PaymentService)
	c.CurrencyHandler = handler.NewCurrencyHandler(c.Rates)
	c.WebhookHandler = handler.NewWebhookHandler(c.PaymentService, cfg.Payment.StripeWebhookSecret)

	return c, nil
}

// NewRateService builds the rate service that owns provider refreshes. It is
// shared by the HTTP server and the rates worker.
func NewRateService(cfg config.CurrencyConfig, store currency.RedisStore) *currency.RateService {
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	providers := currency.BuildProviders(cfg.Priority, currency.ProviderKeys{
		currency.ProviderExchangeRateAPI:   cfg.ExchangeRateAPIKey,
		currency.ProviderOpenExchangeRates: cfg.OpenExchangeRatesKey,
		currency.ProviderCurrencyAPI:       cfg.CurrencyAPIKey,
	}, cfg.UseStaticRates, &http.Client{Timeout: timeout})

	return currency.NewRateService(providers, currency.NewRedisCache(store, cfg.CacheTTL), currency.ServiceConfig{
		MaxAge:    cfg.RefreshInterval,
		Supported: cfg.SupportedCurrencies,
	})
}
