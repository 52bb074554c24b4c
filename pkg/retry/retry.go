package retry

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"
)

var (
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")
	ErrContextCanceled    = errors.New("context canceled during retry")
)

// Config contains retry configuration
type Config struct {
	// MaxRetries is the number of retries after the first attempt (0 = single attempt)
	MaxRetries int
	// InitialInterval is the first backoff interval (default: 1s)
	InitialInterval time.Duration
	// MaxInterval caps the backoff interval (default: 30s)
	MaxInterval time.Duration
	// Multiplier grows the interval after each retry (default: 2.0)
	Multiplier float64
	// JitterFactor adds +/- this fraction of randomness to each interval
	JitterFactor float64
}

// DefaultConfig returns exponential backoff of 1s, 2s, 4s, 8s, 16s with 10% jitter
func DefaultConfig() *Config {
	return &Config{
		MaxRetries:      5,
		InitialInterval: time.Second,
		MaxInterval:     30 * time.Second,
		Multiplier:      2.0,
		JitterFactor:    0.1,
	}
}

// Operation is the function to be retried
type Operation func(ctx context.Context) error

// PermanentError stops the retry loop immediately
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent marks an error as not retryable
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// IsPermanent reports whether err was marked with Permanent
func IsPermanent(err error) bool {
	var perm *PermanentError
	return errors.As(err, &perm)
}

// Result describes the outcome of a retried operation
type Result struct {
	// Err is the final error, nil on success
	Err error
	// Attempts counts every call of the operation, including the first
	Attempts int
	// TotalDuration includes time spent waiting between attempts
	TotalDuration time.Duration
	// LastError is the error returned by the last attempt
	LastError error
}

// RetryCallback is called before each backoff wait
type RetryCallback func(attempt int, err error, nextInterval time.Duration)

// Retrier runs operations with exponential backoff
type Retrier struct {
	config Config
}

// New creates a Retrier, filling zero values with defaults
func New(config *Config) *Retrier {
	if config == nil {
		config = DefaultConfig()
	}
	c := *config
	if c.InitialInterval <= 0 {
		c.InitialInterval = time.Second
	}
	if c.MaxInterval <= 0 {
		c.MaxInterval = 30 * time.Second
	}
	if c.Multiplier <= 0 {
		c.Multiplier = 2.0
	}
	c.JitterFactor = math.Max(0, math.Min(1, c.JitterFactor))
	return &Retrier{config: c}
}

// Do executes the operation with retry logic
func (r *Retrier) Do(ctx context.Context, op Operation) *Result {
	return r.DoWithCallback(ctx, op, nil)
}

// DoWithCallback executes the operation and calls callback before every wait
func (r *Retrier) DoWithCallback(ctx context.Context, op Operation, callback RetryCallback) *Result {
	start := time.Now()
	result := &Result{}

	finish := func(err error) *Result {
		result.Err = err
		result.TotalDuration = time.Since(start)
		return result
	}

	for attempt := 0; attempt <= r.config.MaxRetries; attempt++ {
		if ctx.Err() != nil {
			return finish(ErrContextCanceled)
		}

		result.Attempts = attempt + 1
		err := op(ctx)
		if err == nil {
			return finish(nil)
		}
		result.LastError = err

		var perm *PermanentError
		if errors.As(err, &perm) {
			result.LastError = perm.Err
			return finish(perm.Err)
		}

		if attempt == r.config.MaxRetries {
			break
		}

		interval := r.interval(attempt)
		if callback != nil {
			callback(attempt+1, err, interval)
		}

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return finish(ErrContextCanceled)
		case <-timer.C:
		}
	}

	return finish(ErrMaxRetriesExceeded)
}

func (r *Retrier) interval(attempt int) time.Duration {
	interval := float64(r.config.InitialInterval) * math.Pow(r.config.Multiplier, float64(attempt))

	if r.config.JitterFactor > 0 {
		jitter := interval * r.config.JitterFactor
		interval += (rand.Float64()*2 - 1) * jitter
	}

	if interval > float64(r.config.MaxInterval) {
		interval = float64(r.config.MaxInterval)
	}
	if interval < 0 {
		interval = float64(r.config.InitialInterval)
	}
	return time.Duration(interval)
}

// Do is a convenience wrapper around New(config).Do
func Do(ctx context.Context, config *Config, op Operation) *Result {
	return New(config).Do(ctx, op)
}
