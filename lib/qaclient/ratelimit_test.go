package qaclient

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLimiterSpacing(t *testing.T) {
	interval := 20 * time.Millisecond
	limiter := NewLimiter(interval)
	ctx := context.Background()

	const calls = 5
	start := time.Now()
	for i := 0; i < calls; i++ {
		err := limiter.Acquire(ctx)
		require.NoError(t, err)
	}
	elapsed := time.Since(start)

	// the first call is free, every later one must wait a full interval
	require.GreaterOrEqual(t, elapsed, time.Duration(calls-1)*interval)
}

func TestLimiterCancellation(t *testing.T) {
	limiter := NewLimiter(time.Minute)
	ctx, cancel := context.WithCancel(context.Background())

	err := limiter.Acquire(ctx)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		done <- limiter.Acquire(ctx)
	}()
	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Acquire did not honor cancellation")
	}
}
