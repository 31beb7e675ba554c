package retry

import "context"

// Action is a single attempt of a retriable operation.
type Action func() error

// Retrier retries the provided action.
type Retrier interface {
	Retry(ctx context.Context, action Action) (uint, error)
}

type retrier struct {
	strategies []Strategy
}

// NewRetrier returns a Retrier that applies the provided strategies to every
// call. Without strategies, actions are retried until they succeed or the
// context is done.
func NewRetrier(strategies ...Strategy) Retrier {
	return &retrier{
		strategies: strategies,
	}
}

func (r *retrier) Retry(ctx context.Context, action Action) (uint, error) {
	return Retry(ctx, action, r.strategies...)
}

// Retry executes action until it succeeds, a strategy declines another
// attempt, or ctx is done. The number of attempts and the last error are
// returned.
//
// Strategies run in order after each failed attempt, so strategies that
// delay should be specified last.
func Retry(ctx context.Context, action Action, strategies ...Strategy) (uint, error) {
	for attempts := uint(1); ; attempts++ {
		err := action()
		if err == nil {
			return attempts, nil
		}

		for _, s := range strategies {
			if !s(ctx, attempts, err) {
				return attempts, err
			}
		}

		if ctx.Err() != nil {
			return attempts, err
		}
	}
}
