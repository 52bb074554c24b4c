package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const defaultJWTSecret = "ravehub-dev-secret-change-me"

// Config holds all application configuration
type Config struct {
	App           AppConfig       `mapstructure:"app"`
	Server        ServerConfig    `mapstructure:"server"`
	StoreDatabase DatabaseConfig  `mapstructure:"store_database"` // PostgreSQL for catalog and orders (store-service)
	MongoDB       MongoDBConfig   `mapstructure:"mongodb"`        // events and voting documents
	Redis         RedisConfig     `mapstructure:"redis"`
	Kafka         KafkaConfig     `mapstructure:"kafka"`
	JWT           JWTConfig       `mapstructure:"jwt"`
	OTel          OTelConfig      `mapstructure:"otel"`
	Currency      CurrencyConfig  `mapstructure:"currency"`
	Payment       PaymentConfig   `mapstructure:"payment"`
	Store         StoreConfig     `mapstructure:"store"`
	Voting        VotingConfig    `mapstructure:"voting"`
	RateLimit     RateLimitConfig `mapstructure:"rate_limit"`
}

// AppConfig holds application-level settings
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"` // development, staging, production
	Debug       bool   `mapstructure:"debug"`
	Version     string `mapstructure:"version"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
}

// DatabaseConfig holds PostgreSQL connection settings
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MinIdleConns    int           `mapstructure:"min_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// DSN returns the PostgreSQL connection string
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// URL returns the PostgreSQL connection URL understood by the migrate pgx5 driver
func (d *DatabaseConfig) URL() string {
	return fmt.Sprintf("pgx5://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode)
}

// MongoDBConfig holds MongoDB connection settings
type MongoDBConfig struct {
	URI             string        `mapstructure:"uri"`
	Database        string        `mapstructure:"database"`
	MaxPoolSize     uint64        `mapstructure:"max_pool_size"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	SlowCommandTime time.Duration `mapstructure:"slow_command_time"`
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Addr returns the Redis address
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// KafkaConfig holds Kafka/Redpanda connection settings
type KafkaConfig struct {
	Enabled       bool     `mapstructure:"enabled"`
	Brokers       []string `mapstructure:"brokers"`
	ConsumerGroup string   `mapstructure:"consumer_group"`
	ClientID      string   `mapstructure:"client_id"`
}

// JWTConfig holds JWT settings. Tokens are issued by the identity provider;
// services here only verify them.
type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
}

// OTelConfig holds OpenTelemetry settings
type OTelConfig struct {
	Enabled       bool    `mapstructure:"enabled"`
	ServiceName   string  `mapstructure:"service_name"`
	CollectorAddr string  `mapstructure:"collector_addr"`
	SampleRatio   float64 `mapstructure:"sample_ratio"`
}

// CurrencyConfig holds exchange rate provider settings.
// Providers are tried in the order listed in Priority; a provider without
// an API key is skipped.
type CurrencyConfig struct {
	Priority             []string      `mapstructure:"priority"`
	ExchangeRateAPIKey   string        `mapstructure:"exchangerate_api_key"`
	OpenExchangeRatesKey string        `mapstructure:"openexchangerates_key"`
	CurrencyAPIKey       string        `mapstructure:"currencyapi_key"`
	UseStaticRates       bool          `mapstructure:"use_static_rates"`
	RefreshInterval      time.Duration `mapstructure:"refresh_interval"`
	CacheTTL             time.Duration `mapstructure:"cache_ttl"`
	HTTPTimeout          time.Duration `mapstructure:"http_timeout"`
	SupportedCurrencies  []string      `mapstructure:"supported_currencies"`
}

// PaymentConfig selects the payment gateway used to charge store orders
type PaymentConfig struct {
	Gateway             string  `mapstructure:"gateway"` // mock, stripe
	StripeSecretKey     string  `mapstructure:"stripe_secret_key"`
	StripeWebhookSecret string  `mapstructure:"stripe_webhook_secret"`
	MockSuccessRate     float64 `mapstructure:"mock_success_rate"`
}

// StoreConfig holds checkout settings. Shipping is charged as a flat rate,
// waived when the item subtotal reaches FreeShippingOver (0 disables the waiver).
type StoreConfig struct {
	ShippingFlatRate float64 `mapstructure:"shipping_flat_rate"`
	FreeShippingOver float64 `mapstructure:"free_shipping_over"`
}

// VotingConfig holds DJ ranking settings
type VotingConfig struct {
	MaxVotesPerUser int `mapstructure:"max_votes_per_user"`
	DefaultTopCount int `mapstructure:"default_top_count"`
}

// RateLimitConfig holds per-client rate limiting settings
type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// Load loads configuration from environment variables and .env file
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")

	// .env is optional; environment variables are enough
	_ = v.ReadInConfig()

	return load(v)
}

// LoadWithPath loads configuration from a specific path
func LoadWithPath(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(path)
	v.SetConfigType("env")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	cfg := &Config{}
	if err := bindConfig(v, cfg); err != nil {
		return nil, fmt.Errorf("failed to bind config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("APP_NAME", "ravehub")
	v.SetDefault("APP_ENVIRONMENT", "development")
	v.SetDefault("APP_DEBUG", true)
	v.SetDefault("APP_VERSION", "1.0.0")

	// Server defaults
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("SERVER_READ_TIMEOUT", "15s")
	v.SetDefault("SERVER_WRITE_TIMEOUT", "30s")
	v.SetDefault("SERVER_IDLE_TIMEOUT", "120s")
	v.SetDefault("SERVER_ALLOWED_ORIGINS", "http://localhost:3000")

	// Store database (store-service)
	v.SetDefault("STORE_DATABASE_HOST", "localhost")
	v.SetDefault("STORE_DATABASE_PORT", 5432)
	v.SetDefault("STORE_DATABASE_USER", "postgres")
	v.SetDefault("STORE_DATABASE_PASSWORD", "postgres")
	v.SetDefault("STORE_DATABASE_DBNAME", "store_db")
	v.SetDefault("STORE_DATABASE_SSLMODE", "disable")
	v.SetDefault("STORE_DATABASE_MAX_OPEN_CONNS", 25)
	v.SetDefault("STORE_DATABASE_MIN_IDLE_CONNS", 2)
	v.SetDefault("STORE_DATABASE_CONN_MAX_LIFETIME", "1h")
	v.SetDefault("STORE_DATABASE_CONN_MAX_IDLE_TIME", "30m")
	v.SetDefault("STORE_DATABASE_AUTO_MIGRATE", true)

	// MongoDB defaults
	v.SetDefault("MONGODB_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGODB_DATABASE", "ravehub")
	v.SetDefault("MONGODB_MAX_POOL_SIZE", 50)
	v.SetDefault("MONGODB_CONNECT_TIMEOUT", "10s")
	v.SetDefault("MONGODB_SLOW_COMMAND_TIME", "200ms")

	// Redis defaults
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_POOL_SIZE", 50)
	v.SetDefault("REDIS_MIN_IDLE_CONNS", 5)
	v.SetDefault("REDIS_DIAL_TIMEOUT", "5s")
	v.SetDefault("REDIS_READ_TIMEOUT", "3s")
	v.SetDefault("REDIS_WRITE_TIMEOUT", "3s")

	// Kafka defaults
	v.SetDefault("KAFKA_ENABLED", true)
	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_CONSUMER_GROUP", "ravehub")
	v.SetDefault("KAFKA_CLIENT_ID", "ravehub")

	// JWT defaults
	v.SetDefault("JWT_SECRET", defaultJWTSecret)
	v.SetDefault("JWT_ISSUER", "ravehub")

	// OTel defaults
	v.SetDefault("OTEL_ENABLED", false)
	v.SetDefault("OTEL_SERVICE_NAME", "ravehub")
	v.SetDefault("OTEL_COLLECTOR_ADDR", "localhost:4317")
	v.SetDefault("OTEL_SAMPLE_RATIO", 1.0)

	// Currency defaults
	v.SetDefault("CURRENCY_PRIORITY", "exchangerate-api,openexchangerates,currencyapi")
	v.SetDefault("CURRENCY_USE_STATIC_RATES", false)
	v.SetDefault("CURRENCY_REFRESH_INTERVAL", "1h")
	v.SetDefault("CURRENCY_CACHE_TTL", "168h")
	v.SetDefault("CURRENCY_HTTP_TIMEOUT", "5s")
	v.SetDefault("CURRENCY_SUPPORTED_CURRENCIES", "USD,EUR,PEN,CLP,ARS,COP,MXN,BRL")

	// Payment defaults
	v.SetDefault("PAYMENT_GATEWAY", "mock")
	v.SetDefault("PAYMENT_MOCK_SUCCESS_RATE", 1.0)

	// Store defaults
	v.SetDefault("STORE_SHIPPING_FLAT_RATE", 15.0)
	v.SetDefault("STORE_FREE_SHIPPING_OVER", 0.0)

	// Voting defaults
	v.SetDefault("VOTING_MAX_VOTES_PER_USER", 5)
	v.SetDefault("VOTING_DEFAULT_TOP_COUNT", 100)

	// Rate limiting defaults
	v.SetDefault("RATE_LIMIT_ENABLED", true)
	v.SetDefault("RATE_LIMIT_REQUESTS_PER_SECOND", 20)
	v.SetDefault("RATE_LIMIT_BURST", 40)
}

func bindConfig(v *viper.Viper, cfg *Config) error {
	// App
	cfg.App.Name = v.GetString("APP_NAME")
	cfg.App.Environment = v.GetString("APP_ENVIRONMENT")
	cfg.App.Debug = v.GetBool("APP_DEBUG")
	cfg.App.Version = v.GetString("APP_VERSION")

	// Server
	cfg.Server.Host = v.GetString("SERVER_HOST")
	cfg.Server.Port = v.GetInt("SERVER_PORT")
	cfg.Server.ReadTimeout = v.GetDuration("SERVER_READ_TIMEOUT")
	cfg.Server.WriteTimeout = v.GetDuration("SERVER_WRITE_TIMEOUT")
	cfg.Server.IdleTimeout = v.GetDuration("SERVER_IDLE_TIMEOUT")
	cfg.Server.AllowedOrigins = splitList(v.GetString("SERVER_ALLOWED_ORIGINS"))

	// Store database
	cfg.StoreDatabase.Host = v.GetString("STORE_DATABASE_HOST")
	cfg.StoreDatabase.Port = v.GetInt("STORE_DATABASE_PORT")
	cfg.StoreDatabase.User = v.GetString("STORE_DATABASE_USER")
	cfg.StoreDatabase.Password = v.GetString("STORE_DATABASE_PASSWORD")
	cfg.StoreDatabase.DBName = v.GetString("STORE_DATABASE_DBNAME")
	cfg.StoreDatabase.SSLMode = v.GetString("STORE_DATABASE_SSLMODE")
	cfg.StoreDatabase.MaxOpenConns = v.GetInt("STORE_DATABASE_MAX_OPEN_CONNS")
	cfg.StoreDatabase.MinIdleConns = v.GetInt("STORE_DATABASE_MIN_IDLE_CONNS")
	cfg.StoreDatabase.ConnMaxLifetime = v.GetDuration("STORE_DATABASE_CONN_MAX_LIFETIME")
	cfg.StoreDatabase.ConnMaxIdleTime = v.GetDuration("STORE_DATABASE_CONN_MAX_IDLE_TIME")
	cfg.StoreDatabase.AutoMigrate = v.GetBool("STORE_DATABASE_AUTO_MIGRATE")

	// MongoDB
	cfg.MongoDB.URI = v.GetString("MONGODB_URI")
	cfg.MongoDB.Database = v.GetString("MONGODB_DATABASE")
	cfg.MongoDB.MaxPoolSize = v.GetUint64("MONGODB_MAX_POOL_SIZE")
	cfg.MongoDB.ConnectTimeout = v.GetDuration("MONGODB_CONNECT_TIMEOUT")
	cfg.MongoDB.SlowCommandTime = v.GetDuration("MONGODB_SLOW_COMMAND_TIME")

	// Redis
	cfg.Redis.Host = v.GetString("REDIS_HOST")
	cfg.Redis.Port = v.GetInt("REDIS_PORT")
	cfg.Redis.Password = v.GetString("REDIS_PASSWORD")
	cfg.Redis.DB = v.GetInt("REDIS_DB")
	cfg.Redis.PoolSize = v.GetInt("REDIS_POOL_SIZE")
	cfg.Redis.MinIdleConns = v.GetInt("REDIS_MIN_IDLE_CONNS")
	cfg.Redis.DialTimeout = v.GetDuration("REDIS_DIAL_TIMEOUT")
	cfg.Redis.ReadTimeout = v.GetDuration("REDIS_READ_TIMEOUT")
	cfg.Redis.WriteTimeout = v.GetDuration("REDIS_WRITE_TIMEOUT")

	// Kafka
	cfg.Kafka.Enabled = v.GetBool("KAFKA_ENABLED")
	cfg.Kafka.Brokers = splitList(v.GetString("KAFKA_BROKERS"))
	cfg.Kafka.ConsumerGroup = v.GetString("KAFKA_CONSUMER_GROUP")
	cfg.Kafka.ClientID = v.GetString("KAFKA_CLIENT_ID")

	// JWT
	cfg.JWT.Secret = v.GetString("JWT_SECRET")
	cfg.JWT.Issuer = v.GetString("JWT_ISSUER")

	// OTel
	cfg.OTel.Enabled = v.GetBool("OTEL_ENABLED")
	cfg.OTel.ServiceName = v.GetString("OTEL_SERVICE_NAME")
	cfg.OTel.CollectorAddr = v.GetString("OTEL_COLLECTOR_ADDR")
	cfg.OTel.SampleRatio = v.GetFloat64("OTEL_SAMPLE_RATIO")

	// Currency
	cfg.Currency.Priority = splitList(v.GetString("CURRENCY_PRIORITY"))
	cfg.Currency.ExchangeRateAPIKey = v.GetString("CURRENCY_EXCHANGERATE_API_KEY")
	cfg.Currency.OpenExchangeRatesKey = v.GetString("CURRENCY_OPENEXCHANGERATES_KEY")
	cfg.Currency.CurrencyAPIKey = v.GetString("CURRENCY_CURRENCYAPI_KEY")
	cfg.Currency.UseStaticRates = v.GetBool("CURRENCY_USE_STATIC_RATES")
	cfg.Currency.RefreshInterval = v.GetDuration("CURRENCY_REFRESH_INTERVAL")
	cfg.Currency.CacheTTL = v.GetDuration("CURRENCY_CACHE_TTL")
	cfg.Currency.HTTPTimeout = v.GetDuration("CURRENCY_HTTP_TIMEOUT")
	cfg.Currency.SupportedCurrencies = splitList(strings.ToUpper(v.GetString("CURRENCY_SUPPORTED_CURRENCIES")))

	// Payment
	cfg.Payment.Gateway = v.GetString("PAYMENT_GATEWAY")
	cfg.Payment.StripeSecretKey = v.GetString("PAYMENT_STRIPE_SECRET_KEY")
	cfg.Payment.StripeWebhookSecret = v.GetString("PAYMENT_STRIPE_WEBHOOK_SECRET")
	cfg.Payment.MockSuccessRate = v.GetFloat64("PAYMENT_MOCK_SUCCESS_RATE")

	// Store
	cfg.Store.ShippingFlatRate = v.GetFloat64("STORE_SHIPPING_FLAT_RATE")
	cfg.Store.FreeShippingOver = v.GetFloat64("STORE_FREE_SHIPPING_OVER")

	// Voting
	cfg.Voting.MaxVotesPerUser = v.GetInt("VOTING_MAX_VOTES_PER_USER")
	cfg.Voting.DefaultTopCount = v.GetInt("VOTING_DEFAULT_TOP_COUNT")

	// Rate limiting
	cfg.RateLimit.Enabled = v.GetBool("RATE_LIMIT_ENABLED")
	cfg.RateLimit.RequestsPerSecond = v.GetFloat64("RATE_LIMIT_REQUESTS_PER_SECOND")
	cfg.RateLimit.Burst = v.GetInt("RATE_LIMIT_BURST")

	return nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.App.Name == "" {
		return errors.New("app name is required")
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.JWT.Secret == "" {
		return errors.New("JWT secret is required")
	}

	if c.IsProduction() && c.JWT.Secret == defaultJWTSecret {
		return errors.New("JWT secret must be changed in production")
	}

	switch c.Payment.Gateway {
	case "mock", "stripe":
	default:
		return fmt.Errorf("unsupported payment gateway: %q", c.Payment.Gateway)
	}
	if c.Payment.Gateway == "stripe" && c.Payment.StripeSecretKey == "" {
		return errors.New("PAYMENT_STRIPE_SECRET_KEY is required when PAYMENT_GATEWAY=stripe")
	}

	if c.Voting.MaxVotesPerUser <= 0 {
		return fmt.Errorf("invalid max votes per user: %d", c.Voting.MaxVotesPerUser)
	}

	return nil
}

// ValidateStoreDatabase validates store database configuration
func (c *Config) ValidateStoreDatabase() error {
	if c.StoreDatabase.Host == "" {
		return errors.New("STORE_DATABASE_HOST is required")
	}
	if c.StoreDatabase.DBName == "" {
		return errors.New("STORE_DATABASE_DBNAME is required")
	}
	return nil
}

// ValidateMongoDB validates MongoDB configuration
func (c *Config) ValidateMongoDB() error {
	if c.MongoDB.URI == "" {
		return errors.New("MONGODB_URI is required")
	}
	if c.MongoDB.Database == "" {
		return errors.New("MONGODB_DATABASE is required")
	}
	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}
