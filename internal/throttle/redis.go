package throttle

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

type redisRateCounter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

func incrWithTTL(ctx context.Context, client redisRateCounter, key string, ttl time.Duration) (int64, error) {
	count, err := client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		_ = client.Expire(ctx, key, ttl).Err()
	}
	return count, nil
}

// RedisLimiter 使用 Redis 计数器实现登录限流，适合多实例部署。
type RedisLimiter struct {
	client redis.UniversalClient
	limits Limits
	now    func() time.Time
}

// NewRedisLimiter constructs a RedisLimiter.
func NewRedisLimiter(client redis.UniversalClient, limits Limits) *RedisLimiter {
	return &RedisLimiter{client: client, limits: limits.withDefaults(), now: time.Now}
}

// Allow 每 IP+用户名 每小时限制尝试次数。
func (l *RedisLimiter) Allow(ctx context.Context, ip, username string) (bool, error) {
	count, err := incrWithTTL(ctx, l.client, rateKey(ip, username, l.now()), time.Hour)
	if err != nil {
		return true, err
	}
	return count <= int64(l.limits.PerHour), nil
}

// Locked reports whether the account is temporarily locked.
func (l *RedisLimiter) Locked(ctx context.Context, username string) (bool, error) {
	ttl, err := l.client.TTL(ctx, lockKey(username)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return false, err
	}
	return ttl > 0, nil
}

// RecordFailure 累计失败次数，达到阈值后锁定账号。
func (l *RedisLimiter) RecordFailure(ctx context.Context, username string) error {
	count, err := incrWithTTL(ctx, l.client, failKey(username), l.limits.LockTTL)
	if err != nil {
		return err
	}
	if count >= int64(l.limits.LockThreshold) {
		return l.client.Set(ctx, lockKey(username), "1", l.limits.LockTTL).Err()
	}
	return nil
}

// Reset 登录成功后清理失败计数。
func (l *RedisLimiter) Reset(ctx context.Context, username string) error {
	return l.client.Del(ctx, failKey(username)).Err()
}
