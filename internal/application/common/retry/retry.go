// Package retry repeats transient failures with exponential backoff.
package retry

import (
	"context"
	"fmt"
	"time"

	"contractabi/internal/application/common/slogger"
)

// Policy defines how often and how far apart attempts are made.
type Policy struct {
	MaxAttempts  int           `json:"max_attempts"`
	InitialDelay time.Duration `json:"initial_delay"`
	MaxDelay     time.Duration `json:"max_delay"`
	Multiplier   float64       `json:"multiplier"`
}

// DefaultPolicy suits connecting to backing services at startup.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:  5,
		InitialDelay: 200 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
	}
}

// Operation is one attempt.
type Operation func(ctx context.Context) error

// Retryable reports whether a failed attempt may be repeated.
type Retryable func(err error) bool

// Delay returns the wait before the given retry (1 for the first retry),
// capped at MaxDelay.
func (p Policy) Delay(retry int) time.Duration {
	delay := p.InitialDelay
	for range retry - 1 {
		delay = time.Duration(float64(delay) * p.Multiplier)
		if p.MaxDelay > 0 && delay >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		return p.MaxDelay
	}
	return delay
}

// Do runs op until it succeeds, returns an error retryable rejects, or the
// attempts are used up. A nil retryable retries every error.
func Do(ctx context.Context, policy Policy, retryable Retryable, name string, op Operation) error {
	attempts := max(policy.MaxAttempts, 1)

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			delay := policy.Delay(attempt - 1)
			slogger.Warn(ctx, "Retrying after failure", slogger.Fields{
				"operation": name,
				"attempt":   attempt,
				"delay_ms":  delay.Milliseconds(),
				"error":     lastErr.Error(),
			})

			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return fmt.Errorf("%s: %w (last error: %w)", name, ctx.Err(), lastErr)
			case <-timer.C:
			}
		}

		err := op(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if retryable != nil && !retryable(err) {
			return err
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", name, attempts, lastErr)
}
