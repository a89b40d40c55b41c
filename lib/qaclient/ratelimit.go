package qaclient

import (
	"context"
	"sync"
	"time"
)

// Limiter spaces outbound API calls so no two dispatch closer together
// than the configured interval. Each client owns its own limiter, so
// multiple clients in one process do not interfere with each other.
type Limiter struct {
	mu       sync.Mutex
	interval time.Duration
	next     time.Time
}

func NewLimiter(interval time.Duration) *Limiter {
	return &Limiter{interval: interval}
}

// Acquire blocks until the next call is allowed to dispatch, or until
// ctx is cancelled.
func (l *Limiter) Acquire(ctx context.Context) error {
	l.mu.Lock()
	now := time.Now()
	dispatch := l.next
	if dispatch.Before(now) {
		dispatch = now
	}
	l.next = dispatch.Add(l.interval)
	l.mu.Unlock()

	wait := dispatch.Sub(now)
	if wait <= 0 {
		return nil
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
