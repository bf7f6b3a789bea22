// Package throttle limits login attempts per client and per account.
package throttle

import (
	"context"
	"strings"
	"time"
)

// Limiter 是登录限流的抽象，Redis 与进程内实现都满足它。
type Limiter interface {
	Allow(ctx context.Context, ip, username string) (bool, error)
	Locked(ctx context.Context, username string) (bool, error)
	RecordFailure(ctx context.Context, username string) error
	Reset(ctx context.Context, username string) error
}

// Limits configures thresholds shared by all implementations.
type Limits struct {
	PerHour       int
	LockThreshold int
	LockTTL       time.Duration
}

func (l Limits) withDefaults() Limits {
	if l.PerHour <= 0 {
		l.PerHour = 20
	}
	if l.LockThreshold <= 0 {
		l.LockThreshold = 5
	}
	if l.LockTTL <= 0 {
		l.LockTTL = 15 * time.Minute
	}
	return l
}

func normalize(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

func rateKey(ip, username string, now time.Time) string {
	return "rate:login:" + ip + ":" + normalize(username) + ":" + now.UTC().Format("2006010215")
}

func lockKey(username string) string { return "lock:login:" + normalize(username) }

func failKey(username string) string { return "lock:login:fail:" + normalize(username) }

var (
	_ Limiter = (*RedisLimiter)(nil)
	_ Limiter = (*MemoryLimiter)(nil)
)
