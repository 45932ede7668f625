package redis

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/notifyhq/notify-service/internal/ratelimit"
)

const (
	defaultLimitPerWindow int64 = 100
	defaultWindow               = time.Second
	defaultBackoffStep          = 10 * time.Millisecond
	defaultBackoffMax           = 50 * time.Millisecond
)

var allowScript = goredis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("EXPIRE", KEYS[1], ARGV[2])
end
if current > tonumber(ARGV[1]) then
  return 0
end
return 1
`)

var _ ratelimit.RateLimiter = (*RateLimiter)(nil)

// Options tunes the limiter. Zero fields take the defaults: a one-second
// window and a Wait backoff stepping 10ms up to 50ms.
type Options struct {
	// Window is the fixed-window size; the limit applies per channel per
	// window.
	Window time.Duration
	// BackoffStep and BackoffMax shape how Wait polls a saturated window.
	BackoffStep time.Duration
	BackoffMax  time.Duration
}

func (o Options) withDefaults() Options {
	if o.Window <= 0 {
		o.Window = defaultWindow
	}
	if o.BackoffStep <= 0 {
		o.BackoffStep = defaultBackoffStep
	}
	if o.BackoffMax <= 0 {
		o.BackoffMax = defaultBackoffMax
	}
	if o.BackoffMax < o.BackoffStep {
		o.BackoffMax = o.BackoffStep
	}
	return o
}

// RateLimiter is a distributed fixed-window limiter shared by all worker
// processes, keyed by channel and window bucket.
type RateLimiter struct {
	client         *goredis.Client
	limitPerWindow int64
	opts           Options
	now            func() time.Time
	sleep          func(ctx context.Context, d time.Duration) error
	script         *goredis.Script
}

func NewRateLimiter(client *goredis.Client, limitPerWindow int, opts Options) (*RateLimiter, error) {
	return newRateLimiter(client, int64(limitPerWindow), opts, time.Now, sleepWithContext)
}

func newRateLimiter(
	client *goredis.Client,
	limitPerWindow int64,
	opts Options,
	nowFn func() time.Time,
	sleepFn func(ctx context.Context, d time.Duration) error,
) (*RateLimiter, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if limitPerWindow <= 0 {
		limitPerWindow = defaultLimitPerWindow
	}
	if nowFn == nil {
		nowFn = time.Now
	}
	if sleepFn == nil {
		sleepFn = sleepWithContext
	}

	return &RateLimiter{
		client:         client,
		limitPerWindow: limitPerWindow,
		opts:           opts.withDefaults(),
		now:            nowFn,
		sleep:          sleepFn,
		script:         allowScript,
	}, nil
}

func (r *RateLimiter) Allow(ctx context.Context, channel string) (bool, error) {
	if r == nil || r.client == nil || r.script == nil {
		return false, fmt.Errorf("rate limiter is not initialized")
	}

	normalized := strings.ToLower(strings.TrimSpace(channel))
	if normalized == "" {
		return false, fmt.Errorf("channel is required")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	bucket := r.now().UTC().UnixMilli() / r.opts.Window.Milliseconds()
	key := fmt.Sprintf("notify:ratelimit:%s:%d", normalized, bucket)
	// EXPIRE takes whole seconds; round the window up so the key outlives
	// its bucket rather than resetting early.
	ttl := int64(math.Ceil(r.opts.Window.Seconds()))
	if ttl < 1 {
		ttl = 1
	}

	result, err := r.script.Run(ctx, r.client, []string{key}, r.limitPerWindow, ttl).Int()
	if err != nil {
		return false, fmt.Errorf("failed to evaluate rate limit: %w", err)
	}

	return result == 1, nil
}

func (r *RateLimiter) Wait(ctx context.Context, channel string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	backoff := r.opts.BackoffStep
	for {
		allowed, err := r.Allow(ctx, channel)
		if err != nil {
			return err
		}
		if allowed {
			return nil
		}

		if err := r.sleep(ctx, backoff); err != nil {
			return err
		}

		backoff += r.opts.BackoffStep
		if backoff > r.opts.BackoffMax {
			backoff = r.opts.BackoffMax
		}
	}
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
