package errors

import (
	"context"
	"math/rand/v2"
	"time"
)

// RetryConfig shapes a retry schedule. It is used two ways: sinks wrap
// their initial connection in WithRetryContext, and the dead letter queue
// spaces replays of failed hooks with Backoff.
type RetryConfig struct {
	// MaxAttempts counts the first try. Values below 1 mean one attempt.
	MaxAttempts int

	// InitialBackoff is the wait before the first retry.
	InitialBackoff time.Duration

	// MaxBackoff caps the wait. Zero means uncapped.
	MaxBackoff time.Duration

	// BackoffFactor multiplies the wait after each retry.
	BackoffFactor float64

	// Jitter spreads each wait by up to this fraction in either direction.
	Jitter float64

	// RetryableFunc decides whether an error is worth another attempt.
	// Nil retries every error.
	RetryableFunc func(error) bool

	// OnRetry, if set, is called before each wait with the attempt that just
	// failed (1-based), its error and the wait that follows.
	OnRetry func(attempt int, err error, wait time.Duration)
}

// DefaultRetry spaces dead letter replays.
var DefaultRetry = RetryConfig{
	MaxAttempts:    3,
	InitialBackoff: 1 * time.Second,
	MaxBackoff:     30 * time.Second,
	BackoffFactor:  2.0,
	Jitter:         0.1,
}

// ConnectRetry is used by sinks dialing their backend at startup.
var ConnectRetry = RetryConfig{
	MaxAttempts:    5,
	InitialBackoff: 200 * time.Millisecond,
	MaxBackoff:     5 * time.Second,
	BackoffFactor:  2.0,
	Jitter:         0.2,
}

// NoRetry makes a single attempt.
var NoRetry = RetryConfig{
	MaxAttempts: 1,
}

// RetryResult is the outcome of WithRetryContext.
type RetryResult[T any] struct {
	Value    T
	Err      error
	Attempts int
	Duration time.Duration
}

// WithRetryContext calls fn until it succeeds, returns a non-retryable
// error, runs out of attempts or ctx ends. Err is the last error fn
// returned, or ctx's error when ctx ended before the first attempt.
func WithRetryContext[T any](
	ctx context.Context,
	cfg RetryConfig,
	fn func(context.Context) (T, error),
) RetryResult[T] {
	start := time.Now()
	attempts := max(cfg.MaxAttempts, 1)
	retryable := cfg.RetryableFunc
	if retryable == nil {
		retryable = func(error) bool { return true }
	}

	done := func(v T, err error, n int) RetryResult[T] {
		return RetryResult[T]{Value: v, Err: err, Attempts: n, Duration: time.Since(start)}
	}

	var zero T
	var lastErr error
	for n := 1; n <= attempts; n++ {
		if err := ctx.Err(); err != nil {
			if lastErr == nil {
				lastErr = err
			}
			return done(zero, lastErr, n-1)
		}

		v, err := fn(ctx)
		if err == nil {
			return done(v, nil, n)
		}
		lastErr = err
		if !retryable(err) || n == attempts {
			return done(zero, err, n)
		}

		wait := Backoff(cfg, n)
		if cfg.OnRetry != nil {
			cfg.OnRetry(n, err, wait)
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return done(zero, lastErr, n)
		case <-timer.C:
		}
	}
	return done(zero, lastErr, attempts)
}

// Backoff returns the wait before retry number attempt (1-based):
// InitialBackoff grown by BackoffFactor per attempt, capped at MaxBackoff,
// then jittered.
func Backoff(cfg RetryConfig, attempt int) time.Duration {
	wait := cfg.InitialBackoff
	for i := 1; i < attempt; i++ {
		wait = time.Duration(float64(wait) * cfg.BackoffFactor)
		if cfg.MaxBackoff > 0 && wait >= cfg.MaxBackoff {
			wait = cfg.MaxBackoff
			break
		}
	}
	if cfg.Jitter <= 0 {
		return wait
	}
	spread := float64(wait) * cfg.Jitter * (rand.Float64()*2 - 1)
	return time.Duration(float64(wait) + spread)
}
