// Package memory keeps usage counters in process memory. Data does not
// survive a restart.
package memory

import (
	"context"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/zyra/internal/usagestats/domain"
	"github.com/smallbiznis/zyra/pkg/ringbuf"
)

type userState struct {
	stats    *domain.UsageStats
	activity *ringbuf.Ring[domain.ActivityLogEntry]
	metrics  *ringbuf.Ring[domain.RealtimeMetric]
	tools    map[string]*domain.ToolAccess
}

type store struct {
	mu    sync.Mutex
	users map[snowflake.ID]*userState
}

func New() domain.Store {
	return &store{users: make(map[snowflake.ID]*userState)}
}

// state must be called with s.mu held.
func (s *store) state(userID snowflake.ID) *userState {
	st, ok := s.users[userID]
	if !ok {
		st = &userState{
			activity: ringbuf.New[domain.ActivityLogEntry](domain.ActivityLogCap),
			metrics:  ringbuf.New[domain.RealtimeMetric](domain.MetricSampleCap),
			tools:    make(map[string]*domain.ToolAccess),
		}
		s.users[userID] = st
	}
	return st
}

func (s *store) GetStats(ctx context.Context, userID snowflake.ID) (*domain.UsageStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.users[userID]
	if !ok || st.stats == nil {
		return nil, domain.ErrStatsNotFound
	}
	out := *st.stats
	return &out, nil
}

func (s *store) CreateStatsIfAbsent(ctx context.Context, stats *domain.UsageStats) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state(stats.UserID)
	if st.stats != nil {
		return false, nil
	}
	row := *stats
	st.stats = &row
	return true, nil
}

func (s *store) IncrementStat(ctx context.Context, userID snowflake.ID, field domain.StatField, delta int64, at time.Time) error {
	if _, ok := field.Column(); !ok {
		return domain.ErrInvalidStatField
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.users[userID]
	if !ok || st.stats == nil {
		return domain.ErrStatsNotFound
	}
	*field.Ptr(st.stats) += delta
	st.stats.LastUpdated = at
	return nil
}

func (s *store) AppendActivity(ctx context.Context, entry *domain.ActivityLogEntry, keep int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state(entry.UserID)
	st.activity.Resize(keep)
	row := *entry
	row.Metadata = maps.Clone(entry.Metadata)
	st.activity.Push(row)
	return nil
}

func (s *store) ListActivity(ctx context.Context, userID snowflake.ID, limit int) ([]domain.ActivityLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.users[userID]
	if !ok {
		return []domain.ActivityLogEntry{}, nil
	}
	entries := st.activity.Newest(limit)
	for i := range entries {
		entries[i].Metadata = maps.Clone(entries[i].Metadata)
	}
	return entries, nil
}

func (s *store) UpsertToolAccess(ctx context.Context, userID snowflake.ID, toolName string, at time.Time) (*domain.ToolAccess, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state(userID)
	row, ok := st.tools[toolName]
	if !ok {
		row = &domain.ToolAccess{
			UserID:        userID,
			ToolName:      toolName,
			FirstAccessed: at,
		}
		st.tools[toolName] = row
	}
	row.AccessCount++
	row.LastAccessed = at

	out := *row
	return &out, nil
}

func (s *store) ListToolAccess(ctx context.Context, userID snowflake.ID) ([]domain.ToolAccess, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []domain.ToolAccess{}
	st, ok := s.users[userID]
	if !ok {
		return out, nil
	}
	for _, row := range st.tools {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LastAccessed.Equal(out[j].LastAccessed) {
			return out[i].ToolName < out[j].ToolName
		}
		return out[i].LastAccessed.After(out[j].LastAccessed)
	})
	return out, nil
}

func (s *store) AppendMetrics(ctx context.Context, samples []domain.RealtimeMetric, keep int) error {
	if len(samples) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state(samples[0].UserID)
	st.metrics.Resize(keep)
	for _, sample := range samples {
		st.metrics.Push(sample)
	}
	return nil
}

func (s *store) ListMetrics(ctx context.Context, userID snowflake.ID, since time.Time) ([]domain.RealtimeMetric, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []domain.RealtimeMetric{}
	st, ok := s.users[userID]
	if !ok {
		return out, nil
	}
	for _, sample := range st.metrics.Newest(0) {
		if !sample.Timestamp.Before(since) {
			out = append(out, sample)
		}
	}
	return out, nil
}
