package ratelimit

import (
	"context"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/zyra/internal/config"
)

const (
	keyAIUser         = "zyra:ai:user:%s"
	keyOptimizeAllRun = "zyra:optimize-all:lock:%s"

	optimizeLockTTL = 2 * time.Minute
)

// Limiter guards the AI endpoints and serializes optimize-all runs. A nil
// Limiter (no redis configured) allows everything.
type Limiter struct {
	bucket *TokenBucket
	locker *Locker

	aiRate  float64
	aiBurst int
	lockTTL time.Duration
}

func NewLimiter(cfg config.Config, client redis.UniversalClient) *Limiter {
	if client == nil {
		return nil
	}
	perMin := cfg.AI.RatePerMin
	if perMin <= 0 {
		perMin = 20
	}
	burst := cfg.AI.Burst
	if burst <= 0 {
		burst = 5
	}
	return &Limiter{
		bucket:  NewTokenBucket(client),
		locker:  NewLocker(client),
		aiRate:  float64(perMin) / 60,
		aiBurst: int(burst),
		lockTTL: optimizeLockTTL,
	}
}

func (l *Limiter) Enabled() bool {
	return l != nil
}

func (l *Limiter) AllowAI(ctx context.Context, userID string) (*Result, error) {
	if !l.Enabled() {
		return &Result{Allowed: true}, nil
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyAIUser, userID), l.aiRate, l.aiBurst)
}

// TryLockOptimizeAll returns ok=false when another run holds the lock.
func (l *Limiter) TryLockOptimizeAll(ctx context.Context, userID string) (string, bool, error) {
	if !l.Enabled() {
		return "", true, nil
	}
	return l.locker.TryLock(ctx, fmt.Sprintf(keyOptimizeAllRun, userID), l.lockTTL)
}

func (l *Limiter) ReleaseOptimizeAll(ctx context.Context, userID, token string) error {
	if !l.Enabled() {
		return nil
	}
	return l.locker.Release(ctx, fmt.Sprintf(keyOptimizeAllRun, userID), token)
}
