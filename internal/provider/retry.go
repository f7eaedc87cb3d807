package provider

import (
	"context"
	"errors"
	"net"
	"time"

	"stock-screener/internal/logger"
	"stock-screener/internal/types"
)

// Outcome classifies one attempt of a provider call.
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeRetryable
	OutcomeFatal
)

// RetryPolicy retries an operation a bounded number of times with a fixed
// delay between attempts. Classification decides whether an error is worth
// another attempt.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
	Classify    func(error) Outcome
}

// DefaultRetryPolicy retries transient failures: network errors, timeouts
// and structurally empty responses. Unknown symbols and context cancellation
// are fatal.
func DefaultRetryPolicy(maxAttempts int, delay time.Duration) RetryPolicy {
	return RetryPolicy{
		MaxAttempts: maxAttempts,
		Delay:       delay,
		Classify:    classifyDefault,
	}
}

func classifyDefault(err error) Outcome {
	if err == nil {
		return OutcomeOK
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return OutcomeFatal
	}
	if errors.Is(err, types.ErrNotFound) {
		return OutcomeFatal
	}
	if errors.Is(err, types.ErrNoData) {
		return OutcomeRetryable
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return OutcomeRetryable
	}
	return OutcomeRetryable
}

// Do runs fn under the policy. It returns nil on the first success and the
// last error once attempts are exhausted or a fatal error is seen.
func (p RetryPolicy) Do(ctx context.Context, op string, fn func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	classify := p.Classify
	if classify == nil {
		classify = classifyDefault
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		switch classify(lastErr) {
		case OutcomeOK:
			return nil
		case OutcomeFatal:
			return lastErr
		}

		if attempt == attempts {
			break
		}
		logger.Warn(ctx, "Retrying after failure",
			"operation", op, "attempt", attempt, "error", lastErr)

		select {
		case <-time.After(p.Delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return lastErr
}
