package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	IncrementStat(ctx context.Context, userID snowflake.ID, field StatField, delta int64) (*UsageStats, error)
	RecordActivity(ctx context.Context, req RecordActivityRequest) (*ActivityLogEntry, error)
	TrackToolAccess(ctx context.Context, userID snowflake.ID, toolName string) (*ToolAccess, error)
	Initialize(ctx context.Context, userID snowflake.ID) (*InitializeResult, error)
	GenerateSampleMetrics(ctx context.Context, userID snowflake.ID) ([]RealtimeMetric, error)

	GetStats(ctx context.Context, userID snowflake.ID) (*UsageStats, error)
	ListActivity(ctx context.Context, userID snowflake.ID, limit int) ([]ActivityLogEntry, error)
	ListToolAccess(ctx context.Context, userID snowflake.ID) ([]ToolAccess, error)
	ListMetrics(ctx context.Context, userID snowflake.ID, window time.Duration) ([]RealtimeMetric, error)
	Dashboard(ctx context.Context, userID snowflake.ID) (*DashboardView, error)
}

type RecordActivityRequest struct {
	UserID      snowflake.ID
	Action      string
	Description string
	ToolUsed    string
	Metadata    map[string]any
}

type InitializeResult struct {
	Stats   *UsageStats `json:"usageStats"`
	Created bool        `json:"created"`
}

// DashboardView is the usage half of GET /api/dashboard.
type DashboardView struct {
	Stats       *UsageStats        `json:"usageStats"`
	Activity    []ActivityLogEntry `json:"activityLogs"`
	ToolsAccess []ToolAccess       `json:"toolsAccess"`
	Metrics     []RealtimeMetric   `json:"realtimeMetrics"`
}
