package ratelimit

import "context"

// RateLimiter bounds delivery throughput per notification channel.
type RateLimiter interface {
	Allow(ctx context.Context, channel string) (bool, error)
	Wait(ctx context.Context, channel string) error
}
