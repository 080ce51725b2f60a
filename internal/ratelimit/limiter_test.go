package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/zyra/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) redis.UniversalClient {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestAllowAIExhaustsBurst(t *testing.T) {
	ctx := context.Background()
	l := NewLimiter(config.Config{AI: config.AIConfig{RatePerMin: 1, Burst: 2}}, newRedis(t))

	for i := 0; i < 2; i++ {
		res, err := l.AllowAI(ctx, "u1")
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	}
	res, err := l.AllowAI(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Positive(t, res.RetryAfter)

	other, err := l.AllowAI(ctx, "u2")
	require.NoError(t, err)
	assert.True(t, other.Allowed)
}

func TestOptimizeAllLock(t *testing.T) {
	ctx := context.Background()
	l := NewLimiter(config.Config{}, newRedis(t))

	token, ok, err := l.TryLockOptimizeAll(ctx, "u1")
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = l.TryLockOptimizeAll(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, l.ReleaseOptimizeAll(ctx, "u1", "not-mine"))
	_, ok, err = l.TryLockOptimizeAll(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, l.ReleaseOptimizeAll(ctx, "u1", token))
	_, ok, err = l.TryLockOptimizeAll(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestNilLimiterAllowsEverything(t *testing.T) {
	var l *Limiter
	res, err := l.AllowAI(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	_, ok, err := l.TryLockOptimizeAll(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Nil(t, NewLimiter(config.Config{}, nil))
}

func TestLockerDoSkipsWhenHeld(t *testing.T) {
	ctx := context.Background()
	locker := NewLocker(newRedis(t))

	calls := 0
	ran, err := locker.Do(ctx, "k", time.Minute, func(ctx context.Context) error {
		calls++
		inner, err := locker.Do(ctx, "k", time.Minute, func(context.Context) error {
			calls++
			return nil
		})
		assert.False(t, inner)
		return err
	})
	require.NoError(t, err)
	assert.True(t, ran)
	assert.Equal(t, 1, calls)

	ran, err = locker.Do(ctx, "k", time.Minute, func(context.Context) error { return errors.New("boom") })
	assert.True(t, ran)
	assert.EqualError(t, err, "boom")
}
