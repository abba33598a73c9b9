package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter throttles outbound deliveries per destination channel.
type Limiter interface {
	Wait(ctx context.Context, channelID string) error
}

// InMemoryLimiter keeps one token bucket per channel.
type InMemoryLimiter struct {
	channels map[string]*rate.Limiter
	mu       sync.Mutex
	r        rate.Limit
	b        int
}

// NewInMemoryLimiter creates a per-channel limiter.
// Example: NewInMemoryLimiter(1, time.Second, 5) -> 1 message per second per channel, burst of 5.
func NewInMemoryLimiter(requests int, per time.Duration, burst int) Limiter {
	return &InMemoryLimiter{
		channels: make(map[string]*rate.Limiter),
		r:        rate.Every(per / time.Duration(requests)),
		b:        burst,
	}
}

// Wait blocks until the channel's bucket permits a send or ctx is done.
func (l *InMemoryLimiter) Wait(ctx context.Context, channelID string) error {
	l.mu.Lock()
	limiter, exists := l.channels[channelID]
	if !exists {
		limiter = rate.NewLimiter(l.r, l.b)
		l.channels[channelID] = limiter
	}
	l.mu.Unlock()

	return limiter.Wait(ctx)
}
