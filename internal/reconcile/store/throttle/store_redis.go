package throttle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"storefront/pkg/platform/sentinel"
)

const defaultLatchKey = "storefront:identity:throttled"

// RedisLatch shares the throttle latch between storefront instances so one
// instance hitting the provider's limit stops the others from piling on.
type RedisLatch struct {
	client *redis.Client
	key    string
}

type RedisOption func(*RedisLatch)

// WithKey overrides the Redis key, e.g. to namespace per identity project.
func WithKey(key string) RedisOption {
	return func(l *RedisLatch) {
		if key != "" {
			l.key = key
		}
	}
}

func NewRedis(client *redis.Client, opts ...RedisOption) *RedisLatch {
	l := &RedisLatch{client: client, key: defaultLatchKey}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Trip sets the latch with a TTL. A latch that already outlives ttl is left alone.
func (l *RedisLatch) Trip(ctx context.Context, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	current, err := l.client.PTTL(ctx, l.key).Result()
	if err != nil {
		return fmt.Errorf("read throttle latch: %w: %w", sentinel.ErrUnavailable, err)
	}
	if current >= ttl {
		return nil
	}
	if err := l.client.Set(ctx, l.key, "1", ttl).Err(); err != nil {
		return fmt.Errorf("trip throttle latch: %w: %w", sentinel.ErrUnavailable, err)
	}
	return nil
}

func (l *RedisLatch) Tripped(ctx context.Context) (bool, error) {
	_, err := l.client.Get(ctx, l.key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check throttle latch: %w: %w", sentinel.ErrUnavailable, err)
	}
	return true, nil
}
