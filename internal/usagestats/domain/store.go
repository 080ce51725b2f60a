package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Store is the record store behind the usage counter service. Aggregate
// counters change only through IncrementStat so neither backend performs a
// read-modify-write.
type Store interface {
	// GetStats returns ErrStatsNotFound when the user has no aggregate.
	GetStats(ctx context.Context, userID snowflake.ID) (*UsageStats, error)
	// CreateStatsIfAbsent inserts stats unless a row exists and reports whether it inserted.
	CreateStatsIfAbsent(ctx context.Context, stats *UsageStats) (bool, error)
	// IncrementStat returns ErrStatsNotFound when the user has no aggregate.
	IncrementStat(ctx context.Context, userID snowflake.ID, field StatField, delta int64, at time.Time) error

	// AppendActivity stores entry and evicts the oldest entries beyond keep.
	AppendActivity(ctx context.Context, entry *ActivityLogEntry, keep int) error
	// ListActivity returns up to limit entries, newest first.
	ListActivity(ctx context.Context, userID snowflake.ID, limit int) ([]ActivityLogEntry, error)

	UpsertToolAccess(ctx context.Context, userID snowflake.ID, toolName string, at time.Time) (*ToolAccess, error)
	// ListToolAccess returns counters, most recently accessed first.
	ListToolAccess(ctx context.Context, userID snowflake.ID) ([]ToolAccess, error)

	// AppendMetrics stores samples (all for one user) and evicts beyond keep.
	AppendMetrics(ctx context.Context, samples []RealtimeMetric, keep int) error
	// ListMetrics returns samples at or after since, newest first.
	ListMetrics(ctx context.Context, userID snowflake.ID, since time.Time) ([]RealtimeMetric, error)
}
