package rate

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

// ErrLimited is returned by Wait when the next permit can't be granted before
// the context deadline.
var ErrLimited = errors.New("rate limited")

// Limiter paces operations per key.
type Limiter interface {
	// Allow reports whether an operation may happen now, without blocking.
	Allow(key string) bool

	// Wait blocks until an operation may happen, or fails with ErrLimited
	// when ctx would expire first.
	Wait(ctx context.Context, key string) error
}

type localRateLimiter struct {
	limit rate.Limit
	burst int

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewLocalRateLimiter returns an in memory limiter allowing limit operations
// per second per key, with bursts of up to limit operations.
func NewLocalRateLimiter(limit rate.Limit) Limiter {
	burst := int(limit)
	if burst < 1 {
		burst = 1
	}

	return &localRateLimiter{
		limit:    limit,
		burst:    burst,
		limiters: make(map[string]*rate.Limiter),
	}
}

func (l *localRateLimiter) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, ok := l.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(l.limit, l.burst)
		l.limiters[key] = limiter
	}
	return limiter
}

func (l *localRateLimiter) Allow(key string) bool {
	return l.get(key).Allow()
}

func (l *localRateLimiter) Wait(ctx context.Context, key string) error {
	if err := l.get(key).Wait(ctx); err != nil {
		return errors.Wrap(ErrLimited, err.Error())
	}
	return nil
}

// NoLimiter never limits operations
type NoLimiter struct{}

func (NoLimiter) Allow(string) bool {
	return true
}

func (NoLimiter) Wait(context.Context, string) error {
	return nil
}
