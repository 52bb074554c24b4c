package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig(maxRetries int) *Config {
	return &Config{
		MaxRetries:      maxRetries,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
		Multiplier:      2,
	}
}

func TestNew_FillsDefaults(t *testing.T) {
	r := New(&Config{MaxRetries: 2, JitterFactor: 3})
	assert.Equal(t, time.Second, r.config.InitialInterval)
	assert.Equal(t, 30*time.Second, r.config.MaxInterval)
	assert.Equal(t, 2.0, r.config.Multiplier)
	assert.Equal(t, 1.0, r.config.JitterFactor)

	r = New(nil)
	assert.Equal(t, 5, r.config.MaxRetries)
}

func TestNew_DoesNotMutateCallerConfig(t *testing.T) {
	cfg := &Config{MaxRetries: 1}
	New(cfg)
	assert.Zero(t, cfg.InitialInterval)
}

func TestRetrier_Do_Success(t *testing.T) {
	calls := 0
	result := New(fastConfig(3)).Do(context.Background(), func(ctx context.Context) error {
		calls++
		return nil
	})

	require.NoError(t, result.Err)
	assert.Equal(t, 1, result.Attempts)
	assert.Equal(t, 1, calls)
}

func TestRetrier_Do_SuccessAfterRetries(t *testing.T) {
	calls := 0
	result := New(fastConfig(5)).Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("connection refused")
		}
		return nil
	})

	require.NoError(t, result.Err)
	assert.Equal(t, 3, result.Attempts)
}

func TestRetrier_Do_MaxRetriesExceeded(t *testing.T) {
	boom := errors.New("boom")
	result := New(fastConfig(2)).Do(context.Background(), func(ctx context.Context) error {
		return boom
	})

	assert.ErrorIs(t, result.Err, ErrMaxRetriesExceeded)
	assert.ErrorIs(t, result.LastError, boom)
	assert.Equal(t, 3, result.Attempts)
}

func TestRetrier_Do_PermanentErrorStops(t *testing.T) {
	invalid := errors.New("invalid payload")
	calls := 0
	result := New(fastConfig(5)).Do(context.Background(), func(ctx context.Context) error {
		calls++
		return Permanent(invalid)
	})

	assert.ErrorIs(t, result.Err, invalid)
	assert.Equal(t, 1, calls)
	assert.True(t, IsPermanent(Permanent(invalid)))
	assert.False(t, IsPermanent(invalid))
	assert.Nil(t, Permanent(nil))
}

func TestRetrier_Do_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := New(fastConfig(3)).Do(ctx, func(ctx context.Context) error {
		t.Fatal("operation must not run with a canceled context")
		return nil
	})
	assert.ErrorIs(t, result.Err, ErrContextCanceled)
	assert.Equal(t, 0, result.Attempts)
}

func TestRetrier_DoWithCallback(t *testing.T) {
	var attempts []int
	New(fastConfig(2)).DoWithCallback(context.Background(), func(ctx context.Context) error {
		return errors.New("fail")
	}, func(attempt int, err error, next time.Duration) {
		attempts = append(attempts, attempt)
		assert.Greater(t, next, time.Duration(0))
	})

	assert.Equal(t, []int{1, 2}, attempts)
}

func TestRetrier_Interval(t *testing.T) {
	r := New(&Config{InitialInterval: 100 * time.Millisecond, MaxInterval: 500 * time.Millisecond, Multiplier: 2})

	assert.Equal(t, 100*time.Millisecond, r.interval(0))
	assert.Equal(t, 200*time.Millisecond, r.interval(1))
	assert.Equal(t, 400*time.Millisecond, r.interval(2))
	assert.Equal(t, 500*time.Millisecond, r.interval(3))
}

func TestRetrier_IntervalJitterBounds(t *testing.T) {
	r := New(&Config{InitialInterval: 100 * time.Millisecond, MaxInterval: time.Second, Multiplier: 2, JitterFactor: 0.1})
	for i := 0; i < 50; i++ {
		got := r.interval(0)
		assert.GreaterOrEqual(t, got, 90*time.Millisecond)
		assert.LessOrEqual(t, got, 110*time.Millisecond)
	}
}
