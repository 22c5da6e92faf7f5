package booking

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

const attemptKeyPrefix = "otp:fail:"

// RedisAttemptGuard implements AttemptGuard on the cache database. Counters
// expire after TTL, which doubles as the lockout window once the cap is hit.
type RedisAttemptGuard struct {
	Client *redis.Client
	TTL    time.Duration
}

func (g *RedisAttemptGuard) Failures(ctx context.Context, bookingID string) (int64, error) {
	n, err := g.Client.Get(ctx, attemptKeyPrefix+bookingID).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (g *RedisAttemptGuard) RecordFailure(ctx context.Context, bookingID string) error {
	key := attemptKeyPrefix + bookingID
	n, err := g.Client.Incr(ctx, key).Result()
	if err != nil {
		return err
	}
	if n == 1 {
		return g.Client.Expire(ctx, key, g.TTL).Err()
	}
	return nil
}

func (g *RedisAttemptGuard) Reset(ctx context.Context, bookingID string) error {
	return g.Client.Del(ctx, attemptKeyPrefix+bookingID).Err()
}
