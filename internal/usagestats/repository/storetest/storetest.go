// Package storetest holds the behavioral checks every domain.Store backend
// must pass.
package storetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/oklog/ulid/v2"
	"github.com/smallbiznis/zyra/internal/usagestats/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// Run executes the suite against stores built by newStore.
func Run(t *testing.T, newStore func(t *testing.T) domain.Store) {
	t.Run("stats lifecycle", func(t *testing.T) { testStats(t, newStore(t)) })
	t.Run("activity capped newest first", func(t *testing.T) { testActivityCap(t, newStore(t)) })
	t.Run("tool access upsert", func(t *testing.T) { testToolAccess(t, newStore(t)) })
	t.Run("metrics capped and windowed", func(t *testing.T) { testMetrics(t, newStore(t)) })
	t.Run("users are isolated", func(t *testing.T) { testIsolation(t, newStore(t)) })
}

func testStats(t *testing.T, s domain.Store) {
	ctx := context.Background()
	userID := snowflake.ID(101)

	_, err := s.GetStats(ctx, userID)
	require.ErrorIs(t, err, domain.ErrStatsNotFound)
	require.ErrorIs(t, s.IncrementStat(ctx, userID, domain.FieldEmailsSent, 1, base), domain.ErrStatsNotFound)

	created, err := s.CreateStatsIfAbsent(ctx, &domain.UsageStats{UserID: userID, TotalRevenue: 500, LastUpdated: base})
	require.NoError(t, err)
	assert.True(t, created)

	created, err = s.CreateStatsIfAbsent(ctx, &domain.UsageStats{UserID: userID, TotalRevenue: 9, LastUpdated: base})
	require.NoError(t, err)
	assert.False(t, created)

	for i := 0; i < 5; i++ {
		require.NoError(t, s.IncrementStat(ctx, userID, domain.FieldEmailsSent, 2, base.Add(time.Duration(i)*time.Second)))
	}
	require.NoError(t, s.IncrementStat(ctx, userID, domain.FieldTotalRevenue, -100, base.Add(time.Minute)))
	require.ErrorIs(t, s.IncrementStat(ctx, userID, domain.StatField("bogus"), 1, base), domain.ErrInvalidStatField)

	stats, err := s.GetStats(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), stats.EmailsSent)
	assert.Equal(t, int64(400), stats.TotalRevenue)
	assert.Zero(t, stats.SMSSent)
	assert.True(t, stats.LastUpdated.Equal(base.Add(time.Minute)))
}

func testActivityCap(t *testing.T, s domain.Store) {
	ctx := context.Background()
	userID := snowflake.ID(202)

	for i := 0; i < domain.ActivityLogCap+1; i++ {
		at := base.Add(time.Duration(i) * time.Second)
		entry := &domain.ActivityLogEntry{
			ID:          ulid.MustNew(ulid.Timestamp(at), ulid.DefaultEntropy()).String(),
			UserID:      userID,
			Action:      "test_action",
			Description: fmt.Sprintf("entry %d", i),
			Metadata:    map[string]any{"n": float64(i)},
			CreatedAt:   at,
		}
		require.NoError(t, s.AppendActivity(ctx, entry, domain.ActivityLogCap))
	}

	entries, err := s.ListActivity(ctx, userID, 100)
	require.NoError(t, err)
	require.Len(t, entries, domain.ActivityLogCap)
	assert.Equal(t, "entry 50", entries[0].Description)
	assert.Equal(t, "entry 1", entries[len(entries)-1].Description)

	recent, err := s.ListActivity(ctx, userID, domain.DashboardActivityLimit)
	require.NoError(t, err)
	require.Len(t, recent, domain.DashboardActivityLimit)
	assert.Equal(t, "entry 41", recent[len(recent)-1].Description)
}

func testToolAccess(t *testing.T, s domain.Store) {
	ctx := context.Background()
	userID := snowflake.ID(303)

	first, err := s.UpsertToolAccess(ctx, userID, "ai-tools", base)
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.AccessCount)

	second, err := s.UpsertToolAccess(ctx, userID, "ai-tools", base.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.AccessCount)
	assert.True(t, second.FirstAccessed.Equal(base))
	assert.True(t, second.LastAccessed.Equal(base.Add(time.Hour)))

	_, err = s.UpsertToolAccess(ctx, userID, "seo", base.Add(2*time.Hour))
	require.NoError(t, err)

	rows, err := s.ListToolAccess(ctx, userID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "seo", rows[0].ToolName)
	assert.Equal(t, "ai-tools", rows[1].ToolName)
}

func testMetrics(t *testing.T, s domain.Store) {
	ctx := context.Background()
	userID := snowflake.ID(404)

	for batch := 0; batch < 6; batch++ {
		at := base.Add(time.Duration(batch) * time.Hour)
		samples := make([]domain.RealtimeMetric, 0, 4)
		for i := 0; i < 4; i++ {
			samples = append(samples, domain.RealtimeMetric{
				ID:            ulid.MustNew(ulid.Timestamp(at), ulid.DefaultEntropy()).String(),
				UserID:        userID,
				MetricName:    fmt.Sprintf("metric_%d", i),
				Value:         fmt.Sprintf("%d", batch),
				ChangePercent: "+1.0%",
				IsPositive:    true,
				Timestamp:     at,
			})
		}
		require.NoError(t, s.AppendMetrics(ctx, samples, domain.MetricSampleCap))
	}

	all, err := s.ListMetrics(ctx, userID, base.Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, all, domain.MetricSampleCap)
	assert.Equal(t, "5", all[0].Value)
	assert.Equal(t, "1", all[len(all)-1].Value)

	recent, err := s.ListMetrics(ctx, userID, base.Add(4*time.Hour))
	require.NoError(t, err)
	assert.Len(t, recent, 8)
}

func testIsolation(t *testing.T, s domain.Store) {
	ctx := context.Background()
	alice, bob := snowflake.ID(501), snowflake.ID(502)

	for _, id := range []snowflake.ID{alice, bob} {
		_, err := s.CreateStatsIfAbsent(ctx, &domain.UsageStats{UserID: id, LastUpdated: base})
		require.NoError(t, err)
	}
	require.NoError(t, s.IncrementStat(ctx, alice, domain.FieldSMSSent, 3, base))
	_, err := s.UpsertToolAccess(ctx, alice, "sms", base)
	require.NoError(t, err)

	stats, err := s.GetStats(ctx, bob)
	require.NoError(t, err)
	assert.Zero(t, stats.SMSSent)

	rows, err := s.ListToolAccess(ctx, bob)
	require.NoError(t, err)
	assert.Empty(t, rows)

	entries, err := s.ListActivity(ctx, bob, 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
