package currency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/PercyTuncar/ravehub-website-sub003/pkg/logger"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const cacheKey = "currency:rates:usd"

// ErrProvidersFailed is returned by Refresh when every provider failed
var ErrProvidersFailed = errors.New("all exchange rate providers failed")

// Cache stores the last good rate table
type Cache interface {
	Load(ctx context.Context) (*RateTable, error)
	Store(ctx context.Context, table *RateTable) error
}

// RedisStore is the subset of the redis client used by RedisCache
type RedisStore interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// RedisCache keeps the rate table as JSON in Redis
type RedisCache struct {
	client RedisStore
	ttl    time.Duration
}

// NewRedisCache creates a Redis-backed cache. ttl <= 0 keeps the entry forever.
func NewRedisCache(client RedisStore, ttl time.Duration) *RedisCache {
	if ttl < 0 {
		ttl = 0
	}
	return &RedisCache{client: client, ttl: ttl}
}

// Load returns nil, nil when nothing is cached
func (c *RedisCache) Load(ctx context.Context) (*RateTable, error) {
	raw, err := c.client.Get(ctx, cacheKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load rate cache: %w", err)
	}
	var table RateTable
	if err := json.Unmarshal(raw, &table); err != nil {
		return nil, fmt.Errorf("decode rate cache: %w", err)
	}
	return &table, nil
}

func (c *RedisCache) Store(ctx context.Context, table *RateTable) error {
	data, err := json.Marshal(table)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, cacheKey, data, c.ttl).Err()
}

// ServiceConfig configures RateService
type ServiceConfig struct {
	// MaxAge is how old a cached table may get before Current tries to refresh it
	MaxAge time.Duration
	// Supported limits the codes kept from provider responses; empty keeps all.
	// BaseCurrency is always kept.
	Supported []string
}

// RateService serves cached rate tables and refreshes them from providers
type RateService struct {
	providers []Provider
	cache     Cache
	cfg       ServiceConfig
	group     singleflight.Group
	now       func() time.Time
}

// NewRateService creates a service. With no providers it only serves the cache.
func NewRateService(providers []Provider, cache Cache, cfg ServiceConfig) *RateService {
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = 2 * time.Hour
	}
	return &RateService{
		providers: providers,
		cache:     cache,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Refresh tries the providers in priority order and caches the first success.
// When every provider fails the cache is left untouched.
func (s *RateService) Refresh(ctx context.Context) (*RateTable, error) {
	if len(s.providers) == 0 {
		return nil, fmt.Errorf("%w: no providers configured", ErrProvidersFailed)
	}

	log := logger.Get()
	var errs []error
	for _, p := range s.providers {
		rates, err := p.FetchRates(ctx)
		if err != nil {
			log.WarnContext(ctx, "exchange rate provider failed",
				zap.String("provider", p.Name()), zap.Error(err))
			errs = append(errs, err)
			continue
		}

		table := &RateTable{
			Base:        BaseCurrency,
			Rates:       s.filter(rates),
			Provider:    p.Name(),
			LastUpdated: s.now().UTC(),
		}
		if err := s.cache.Store(ctx, table); err != nil {
			log.ErrorContext(ctx, "failed to cache exchange rates", zap.Error(err))
		}
		log.Info(fmt.Sprintf("Exchange rates refreshed from %s (%d currencies)", p.Name(), len(table.Rates)))
		return table, nil
	}
	return nil, fmt.Errorf("%w: %w", ErrProvidersFailed, errors.Join(errs...))
}

// Current returns the cached table, refreshing it when missing or older than MaxAge.
// Concurrent callers share one refresh. If the refresh fails the cached table is
// returned with Stale set.
func (s *RateService) Current(ctx context.Context) (*RateTable, error) {
	cached, err := s.cache.Load(ctx)
	if err != nil {
		logger.Get().WarnContext(ctx, "rate cache unavailable", zap.Error(err))
	}
	if cached != nil && s.now().Sub(cached.LastUpdated) < s.cfg.MaxAge {
		return cached, nil
	}

	v, refreshErr, _ := s.group.Do("refresh", func() (interface{}, error) {
		return s.Refresh(ctx)
	})
	if refreshErr == nil {
		return v.(*RateTable), nil
	}

	if cached != nil {
		stale := *cached
		stale.Stale = true
		return &stale, nil
	}
	return nil, fmt.Errorf("%w: %w", ErrRatesUnavailable, refreshErr)
}

// Convert converts amount using the current table
func (s *RateService) Convert(ctx context.Context, amount decimal.Decimal, from, to string) (*Conversion, error) {
	table, err := s.Current(ctx)
	if err != nil {
		// same-currency conversion never needs rates
		if Normalize(from) == Normalize(to) {
			return &Conversion{Amount: amount, From: Normalize(from), To: Normalize(to), Result: amount, Rate: decimal.NewFromInt(1)}, nil
		}
		return nil, err
	}

	rate, err := CrossRate(from, to, table.Rates)
	if err != nil {
		return nil, err
	}
	result, err := Convert(amount, from, to, table.Rates)
	if err != nil {
		return nil, err
	}
	return &Conversion{
		Amount:      amount,
		From:        Normalize(from),
		To:          Normalize(to),
		Result:      result,
		Rate:        rate,
		LastUpdated: table.LastUpdated,
		Stale:       table.Stale,
	}, nil
}

func (s *RateService) filter(rates map[string]decimal.Decimal) map[string]decimal.Decimal {
	if len(s.cfg.Supported) == 0 {
		return rates
	}
	// every rate is quoted against the base, so it stays whatever the list says
	out := make(map[string]decimal.Decimal, len(s.cfg.Supported)+1)
	out[BaseCurrency] = decimal.NewFromInt(1)
	for _, code := range s.cfg.Supported {
		code = Normalize(code)
		if r, ok := rates[code]; ok {
			out[code] = r
		}
	}
	return out
}
