package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/nft-minter/pkg/retry/backoff"
)

func TestRetry_RealWait(t *testing.T) {
	start := time.Now()
	attempts, err := Retry(
		context.Background(),
		func() error { return errors.New("err") },
		Limit(2),
		Backoff(backoff.Constant(200*time.Millisecond), time.Second),
	)

	assert.Error(t, err)
	assert.EqualValues(t, 2, attempts)
	assert.True(t, time.Since(start) >= 200*time.Millisecond)
	assert.True(t, time.Since(start) < time.Second)
}

func TestRetrier(t *testing.T) {
	retriableErr := errors.New("retriable")
	r := NewRetrier(Limit(5), RetriableErrors(retriableErr))

	attempts, err := r.Retry(context.Background(), func() error { return nil })
	require.NoError(t, err)
	assert.EqualValues(t, 1, attempts)

	attempts, err = r.Retry(context.Background(), func() error { return errors.New("unknown") })
	assert.Error(t, err)
	assert.EqualValues(t, 1, attempts)

	attempts, err = r.Retry(context.Background(), func() error { return retriableErr })
	assert.Equal(t, retriableErr, err)
	assert.EqualValues(t, 5, attempts)
}

func TestRetry_EventualSuccess(t *testing.T) {
	var calls int
	attempts, err := Retry(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("not yet")
		}
		return nil
	})
	require.NoError(t, err)
	assert.EqualValues(t, 3, attempts)
}

func TestRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	lastErr := errors.New("pending")
	var calls int
	attempts, err := Retry(ctx, func() error {
		calls++
		if calls == 3 {
			cancel()
		}
		return lastErr
	})
	assert.Equal(t, lastErr, err)
	assert.EqualValues(t, 3, attempts)
}

func TestRetry_ContextDeadlineInterruptsBackoff(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	attempts, err := Retry(
		ctx,
		func() error { return errors.New("pending") },
		Backoff(backoff.Constant(time.Minute), time.Minute),
	)
	assert.Error(t, err)
	assert.EqualValues(t, 1, attempts)
	assert.True(t, time.Since(start) < time.Minute)
}
