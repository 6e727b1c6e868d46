// Package fetch wraps outbound calls with bounded exponential-backoff retry.
// Every network call made by the resolution pipeline goes through WithRetry.
package fetch

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// RetryConfig configures the exponential backoff retry behavior.
type RetryConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
}

// DefaultRetryConfig returns the default retry budget for upstream calls.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  3,
		InitialDelay: time.Second,
	}
}

// WithRetry executes fn, retrying on any error with exponential backoff:
// the wait before retry attempt n is InitialDelay * 2^n. After MaxAttempts
// failed attempts the last error is returned.
//
// All errors are retried identically; retryable/permanent classification is
// intentionally not done here so that behavior stays uniform across stages.
func WithRetry[T any](ctx context.Context, logger zerolog.Logger, name string, cfg RetryConfig, fn func(ctx context.Context) (T, error)) (T, error) {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = time.Second
	}

	var zero T
	var lastErr error

	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			if attempt > 0 {
				logger.Info().
					Str("operation", name).
					Int("attempt", attempt+1).
					Msg("operation succeeded after retry")
			}
			return result, nil
		}

		lastErr = err

		if attempt == cfg.MaxAttempts-1 {
			break
		}

		delay := cfg.InitialDelay << uint(attempt)
		logger.Warn().
			Err(err).
			Str("operation", name).
			Int("attempt", attempt+1).
			Int("maxAttempts", cfg.MaxAttempts).
			Dur("nextRetryIn", delay).
			Msg("operation failed, will retry")

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
		}
	}

	logger.Error().
		Err(lastErr).
		Str("operation", name).
		Int("attempts", cfg.MaxAttempts).
		Msg("operation failed after all retries")

	return zero, lastErr
}
