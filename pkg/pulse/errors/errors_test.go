package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindString(t *testing.T) {
	tests := []struct {
		kind     Kind
		expected string
	}{
		{KindInvalidArgument, "invalid_argument"},
		{KindIntegrationFault, "integration_fault"},
		{KindObserverRaceDefect, "observer_race_defect"},
		{KindUnknown, "unknown"},
		{Kind(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.kind.String(); got != tt.expected {
				t.Errorf("Kind(%d).String() = %s, want %s", tt.kind, got, tt.expected)
			}
		})
	}
}

func TestInvalidArgument(t *testing.T) {
	err := InvalidArgument("event", "event must not be null or empty.")

	assert.Equal(t, "event must not be null or empty.", err.Error())
	assert.True(t, errors.Is(err, ErrInvalidArgument))
	assert.False(t, errors.Is(err, ErrIntegrationFault))
	assert.True(t, IsInvalidArgument(err))

	wrapped := fmt.Errorf("track: %w", err)
	assert.True(t, errors.Is(wrapped, ErrInvalidArgument))
	assert.Equal(t, KindInvalidArgument, KindOf(wrapped))
}

func TestIntegrationFault(t *testing.T) {
	cause := errors.New("connection refused")
	err := IntegrationFault("Redis", "track", cause)

	assert.Equal(t, "integration Redis failed on track: connection refused", err.Error())
	assert.True(t, errors.Is(err, ErrIntegrationFault))
	assert.True(t, errors.Is(err, cause))
	assert.True(t, IsRetryable(err))
}

func TestIntegrationFault_PanicNotRetryable(t *testing.T) {
	err := IntegrationFault("Broken", "flush", NewPanicError("boom"))

	var p *PanicError
	require.True(t, errors.As(err, &p))
	assert.Equal(t, "boom", p.Value)
	assert.NotEmpty(t, p.Stack)
	assert.Equal(t, "integration Broken failed on flush: panic: boom", err.Error())
	assert.False(t, IsRetryable(err))
}

func TestObserverRaceDefect(t *testing.T) {
	err := ObserverRaceDefect("Application Opened")
	assert.True(t, errors.Is(err, ErrObserverRaceDefect))
	assert.Contains(t, err.Error(), "observer_race_defect")
	assert.Contains(t, err.Error(), "Application Opened")
}

func TestKindOf_PlainError(t *testing.T) {
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	assert.Equal(t, KindUnknown, KindOf(nil))
	assert.False(t, IsRetryable(errors.New("plain")))
}

func TestWithRetryContext(t *testing.T) {
	fast := RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
		BackoffFactor:  2,
	}

	t.Run("succeeds after transient failures", func(t *testing.T) {
		calls := 0
		result := WithRetryContext(context.Background(), fast, func(context.Context) (string, error) {
			calls++
			if calls < 3 {
				return "", errors.New("not yet")
			}
			return "ok", nil
		})
		require.NoError(t, result.Err)
		assert.Equal(t, "ok", result.Value)
		assert.Equal(t, 3, result.Attempts)
	})

	t.Run("reports each retry", func(t *testing.T) {
		cfg := fast
		var seen []int
		cfg.OnRetry = func(attempt int, err error, wait time.Duration) {
			seen = append(seen, attempt)
			assert.EqualError(t, err, "down")
			assert.LessOrEqual(t, wait, 2*time.Millisecond)
		}
		result := WithRetryContext(context.Background(), cfg, func(context.Context) (int, error) {
			return 0, errors.New("down")
		})
		assert.Error(t, result.Err)
		assert.Equal(t, []int{1, 2}, seen)
	})

	t.Run("stops on non-retryable error", func(t *testing.T) {
		cfg := fast
		cfg.RetryableFunc = func(error) bool { return false }
		calls := 0
		result := WithRetryContext(context.Background(), cfg, func(context.Context) (int, error) {
			calls++
			return 0, errors.New("permanent")
		})
		assert.Error(t, result.Err)
		assert.Equal(t, 1, calls)
	})

	t.Run("returns last error when exhausted", func(t *testing.T) {
		result := WithRetryContext(context.Background(), fast, func(context.Context) (int, error) {
			return 0, errors.New("always")
		})
		assert.EqualError(t, result.Err, "always")
		assert.Equal(t, 3, result.Attempts)
	})

	t.Run("respects cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		result := WithRetryContext(ctx, fast, func(context.Context) (int, error) {
			return 1, nil
		})
		assert.ErrorIs(t, result.Err, context.Canceled)
		assert.Equal(t, 0, result.Attempts)
	})
}

func TestBackoff(t *testing.T) {
	cfg := RetryConfig{
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     300 * time.Millisecond,
		BackoffFactor:  2,
	}

	assert.Equal(t, 100*time.Millisecond, Backoff(cfg, 1))
	assert.Equal(t, 200*time.Millisecond, Backoff(cfg, 2))
	assert.Equal(t, 300*time.Millisecond, Backoff(cfg, 3))
	assert.Equal(t, 300*time.Millisecond, Backoff(cfg, 10))

	cfg.Jitter = 0.5
	for i := 0; i < 20; i++ {
		d := Backoff(cfg, 1)
		assert.GreaterOrEqual(t, d, 50*time.Millisecond)
		assert.LessOrEqual(t, d, 150*time.Millisecond)
	}
}
