package retry

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/code-payments/nft-minter/pkg/retry/backoff"
)

// Strategy decides whether a failed action should be attempted again.
// Strategies may block, for example to back off.
type Strategy func(ctx context.Context, attempts uint, err error) bool

// Limit caps the total number of attempts, including the first one.
func Limit(maxAttempts uint) Strategy {
	return func(_ context.Context, attempts uint, _ error) bool {
		return attempts < maxAttempts
	}
}

// RetriableErrors only allows another attempt when err matches one of
// retriableErrors, directly or wrapped.
func RetriableErrors(retriableErrors ...error) Strategy {
	return func(_ context.Context, _ uint, err error) bool {
		for _, e := range retriableErrors {
			if errors.Is(err, e) {
				return true
			}
		}
		return false
	}
}

// Backoff waits for the delay provided by strategy, capped at maxBackoff. The
// wait is abandoned, and no further attempt is made, once ctx is done.
func Backoff(strategy backoff.Strategy, maxBackoff time.Duration) Strategy {
	return func(ctx context.Context, attempts uint, _ error) bool {
		return waitImpl(ctx, capDelay(strategy(attempts), maxBackoff))
	}
}

// BackoffWithJitter behaves like Backoff, but shifts each capped delay by up
// to +/- jitter of itself. A jitter of 0.1 on a 100ms delay yields 90ms to
// 110ms.
func BackoffWithJitter(strategy backoff.Strategy, maxBackoff time.Duration, jitter float64) Strategy {
	return func(ctx context.Context, attempts uint, _ error) bool {
		delay := capDelay(strategy(attempts), maxBackoff)
		delay = time.Duration(float64(delay) * (1 + (rand.Float64()*2-1)*jitter))
		return waitImpl(ctx, delay)
	}
}

func capDelay(delay, max time.Duration) time.Duration {
	if delay > max {
		return max
	}
	return delay
}

// waitImpl is swapped out in tests to record delays without sleeping.
var waitImpl = wait

func wait(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
