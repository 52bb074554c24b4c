package worker

import (
	"context"
	"errors"
	"time"

	"github.com/PercyTuncar/ravehub-website-sub003/pkg/currency"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const refreshLockKey = "currency:rates:refresh_lock"

// Refresher reloads the shared rate table from the providers
type Refresher interface {
	Refresh(ctx context.Context) (*currency.RateTable, error)
}

// Locker is the redis command used to elect the replica that refreshes
type Locker interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
}

// RatesWorkerConfig holds configuration for the rates worker
type RatesWorkerConfig struct {
	Interval time.Duration
	// Owner identifies this replica in the refresh lock
	Owner string
}

// RatesWorker refreshes exchange rates on a fixed interval. With a Locker,
// only one replica per interval calls the providers.
type RatesWorker struct {
	config *RatesWorkerConfig
	rates  Refresher
	locker Locker
	log    *logger.Logger
}

// NewRatesWorker creates a new rates worker. locker may be nil.
func NewRatesWorker(cfg *RatesWorkerConfig, rates Refresher, locker Locker, log *logger.Logger) *RatesWorker {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	if cfg.Owner == "" {
		cfg.Owner = "rates-worker"
	}
	return &RatesWorker{config: cfg, rates: rates, locker: locker, log: log}
}

// Start refreshes once immediately and then on every tick until ctx is cancelled
func (w *RatesWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	w.RunOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce refreshes the table unless another replica holds the lock for this
// interval. It reports whether a refresh succeeded.
func (w *RatesWorker) RunOnce(ctx context.Context) bool {
	if w.locker != nil {
		// The lock expires slightly before the next tick so the next round is free
		ttl := w.config.Interval - w.config.Interval/10
		acquired, err := w.locker.SetNX(ctx, refreshLockKey, w.config.Owner, ttl).Result()
		if err != nil {
			w.log.Warn("refresh lock unavailable, refreshing anyway", zap.Error(err))
		} else if !acquired {
			w.log.Debug("rates refreshed by another replica")
			return false
		}
	}

	table, err := w.rates.Refresh(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return false
		}
		// The last good table stays cached and is served as stale
		w.log.Error("exchange rate refresh failed", zap.Error(err))
		return false
	}

	w.log.Info("exchange rates refreshed",
		zap.String("provider", table.Provider),
		zap.Int("currencies", len(table.Rates)),
	)
	return true
}
