// Package domain contains the usage counters, activity log, tool access and
// realtime metric types shown on the merchant dashboard.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

const (
	// ActivityLogCap is the number of activity entries retained per user.
	ActivityLogCap = 50
	// MetricSampleCap is the number of realtime metric samples retained per user.
	MetricSampleCap = 20

	DashboardActivityLimit = 10
	MetricsWindow          = 24 * time.Hour
)

// UsageStats is the per-user aggregate. Rates are in basis points and
// revenue in minor currency units.
type UsageStats struct {
	UserID               snowflake.ID `json:"userId" gorm:"primaryKey;autoIncrement:false"`
	TotalRevenue         int64        `json:"totalRevenue" gorm:"not null;default:0"`
	TotalOrders          int64        `json:"totalOrders" gorm:"not null;default:0"`
	ConversionRate       int64        `json:"conversionRate" gorm:"not null;default:0"`
	CartRecoveryRate     int64        `json:"cartRecoveryRate" gorm:"not null;default:0"`
	ProductsOptimized    int64        `json:"productsOptimized" gorm:"not null;default:0"`
	EmailsSent           int64        `json:"emailsSent" gorm:"not null;default:0"`
	SMSSent              int64        `json:"smsSent" gorm:"column:sms_sent;not null;default:0"`
	AIGenerationsUsed    int64        `json:"aiGenerationsUsed" gorm:"column:ai_generations_used;not null;default:0"`
	SEOOptimizationsUsed int64        `json:"seoOptimizationsUsed" gorm:"column:seo_optimizations_used;not null;default:0"`
	LastUpdated          time.Time    `json:"lastUpdated" gorm:"not null"`
}

func (UsageStats) TableName() string { return "usage_stats" }

// ActivityLogEntry is immutable once written. ID is a ULID.
type ActivityLogEntry struct {
	ID          string            `json:"id" gorm:"primaryKey;size:26"`
	UserID      snowflake.ID      `json:"userId" gorm:"not null;index:ix_activity_logs_user_created,priority:1"`
	Action      string            `json:"action" gorm:"size:64;not null"`
	Description string            `json:"description" gorm:"type:text;not null"`
	ToolUsed    *string           `json:"toolUsed,omitempty" gorm:"size:64"`
	Metadata    datatypes.JSONMap `json:"metadata,omitempty"`
	CreatedAt   time.Time         `json:"createdAt" gorm:"not null;index:ix_activity_logs_user_created,priority:2"`
}

func (ActivityLogEntry) TableName() string { return "activity_logs" }

type ToolAccess struct {
	UserID        snowflake.ID `json:"userId" gorm:"primaryKey;autoIncrement:false"`
	ToolName      string       `json:"toolName" gorm:"primaryKey;size:64"`
	AccessCount   int64        `json:"accessCount" gorm:"not null;default:1"`
	FirstAccessed time.Time    `json:"firstAccessed" gorm:"not null"`
	LastAccessed  time.Time    `json:"lastAccessed" gorm:"not null"`
}

func (ToolAccess) TableName() string { return "tool_access" }

// RealtimeMetric is a synthetic point-in-time observation. ID is a ULID.
type RealtimeMetric struct {
	ID            string       `json:"id" gorm:"primaryKey;size:26"`
	UserID        snowflake.ID `json:"userId" gorm:"not null;index:ix_realtime_metrics_user_ts,priority:1"`
	MetricName    string       `json:"metricName" gorm:"size:64;not null"`
	Value         string       `json:"value" gorm:"size:64;not null"`
	ChangePercent string       `json:"changePercent" gorm:"size:16;not null"`
	IsPositive    bool         `json:"isPositive" gorm:"not null"`
	Timestamp     time.Time    `json:"timestamp" gorm:"column:recorded_at;not null;index:ix_realtime_metrics_user_ts,priority:2"`
}

func (RealtimeMetric) TableName() string { return "realtime_metrics" }

// Models lists the tables owned by this package for AutoMigrate.
func Models() []any {
	return []any{&UsageStats{}, &ActivityLogEntry{}, &ToolAccess{}, &RealtimeMetric{}}
}
