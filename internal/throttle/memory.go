package throttle

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryLimiter 是 Redis 不可用时的进程内实现，仅适合单实例。
type MemoryLimiter struct {
	cache  *gocache.Cache
	limits Limits
	now    func() time.Time
}

// NewMemoryLimiter constructs a MemoryLimiter.
func NewMemoryLimiter(limits Limits) *MemoryLimiter {
	return &MemoryLimiter{
		cache:  gocache.New(time.Hour, 10*time.Minute),
		limits: limits.withDefaults(),
		now:    time.Now,
	}
}

func (l *MemoryLimiter) incr(key string, ttl time.Duration) (int64, error) {
	_ = l.cache.Add(key, int64(0), ttl)
	return l.cache.IncrementInt64(key, 1)
}

// Allow 每 IP+用户名 每小时限制尝试次数。
func (l *MemoryLimiter) Allow(_ context.Context, ip, username string) (bool, error) {
	count, err := l.incr(rateKey(ip, username, l.now()), time.Hour)
	if err != nil {
		return true, err
	}
	return count <= int64(l.limits.PerHour), nil
}

// Locked reports whether the account is temporarily locked.
func (l *MemoryLimiter) Locked(_ context.Context, username string) (bool, error) {
	_, found := l.cache.Get(lockKey(username))
	return found, nil
}

// RecordFailure 累计失败次数，达到阈值后锁定账号。
func (l *MemoryLimiter) RecordFailure(_ context.Context, username string) error {
	count, err := l.incr(failKey(username), l.limits.LockTTL)
	if err != nil {
		return err
	}
	if count >= int64(l.limits.LockThreshold) {
		l.cache.Set(lockKey(username), true, l.limits.LockTTL)
	}
	return nil
}

// Reset 登录成功后清理失败计数。
func (l *MemoryLimiter) Reset(_ context.Context, username string) error {
	l.cache.Delete(failKey(username))
	return nil
}
