package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/zyra/internal/usagestats/domain"
	"github.com/smallbiznis/zyra/internal/usagestats/repository/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) domain.Store { return New() })
}

func TestMemoryStoreConcurrentIncrements(t *testing.T) {
	ctx := context.Background()
	s := New()
	userID := snowflake.ID(1)
	_, err := s.CreateStatsIfAbsent(ctx, &domain.UsageStats{UserID: userID})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.IncrementStat(ctx, userID, domain.FieldAIGenerationsUsed, 1, time.Now()))
		}()
	}
	wg.Wait()

	stats, err := s.GetStats(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(50), stats.AIGenerationsUsed)
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := New()
	userID := snowflake.ID(2)
	_, err := s.CreateStatsIfAbsent(ctx, &domain.UsageStats{UserID: userID})
	require.NoError(t, err)

	stats, err := s.GetStats(ctx, userID)
	require.NoError(t, err)
	stats.EmailsSent = 99

	again, err := s.GetStats(ctx, userID)
	require.NoError(t, err)
	assert.Zero(t, again.EmailsSent)
}
