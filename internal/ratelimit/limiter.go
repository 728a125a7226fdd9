package ratelimit

import (
	"context"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"
)

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetIn   time.Duration
}

// Limiter is a fixed-window request counter per client kept in Redis. Keys only hold a
// counter and expire with their window.
type Limiter struct {
	client *redisv9.Client
	limit  int
	window time.Duration
	prefix string
	now    func() time.Time
}

func NewLimiter(client *redisv9.Client, limit int, window time.Duration) *Limiter {
	if window <= 0 {
		window = time.Minute
	}
	return &Limiter{
		client: client,
		limit:  limit,
		window: window,
		prefix: "snapcaption:ratelimit",
		now:    time.Now,
	}
}

// Allow counts one request for clientID in the current window.
func (l *Limiter) Allow(ctx context.Context, clientID string) (Decision, error) {
	now := l.now()
	windowStart := now.Truncate(l.window)
	resetIn := windowStart.Add(l.window).Sub(now)
	key := l.key(clientID, windowStart)

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("redis incr rate counter failed: %w", err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			return Decision{}, fmt.Errorf("redis expire rate counter failed: %w", err)
		}
	}

	remaining := l.limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   int(count) <= l.limit,
		Limit:     l.limit,
		Remaining: remaining,
		ResetIn:   resetIn,
	}, nil
}

func (l *Limiter) key(clientID string, windowStart time.Time) string {
	return fmt.Sprintf("%s:%s:%d", l.prefix, clientID, windowStart.Unix())
}
