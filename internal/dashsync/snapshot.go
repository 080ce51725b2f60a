// Package dashsync keeps a local copy of the merchant dashboard in step with
// the server: it polls, applies optimistic updates, rolls them back on
// failure and debounces the bulk optimize action.
package dashsync

import (
	"maps"
	"time"
)

type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

type Profile struct {
	BusinessName string `json:"businessName"`
	BusinessType string `json:"businessType"`
	Website      string `json:"website"`
	Onboarded    bool   `json:"onboarded"`
}

type UsageStats struct {
	TotalRevenue         int64     `json:"totalRevenue"`
	TotalOrders          int64     `json:"totalOrders"`
	ConversionRate       int64     `json:"conversionRate"`
	CartRecoveryRate     int64     `json:"cartRecoveryRate"`
	ProductsOptimized    int64     `json:"productsOptimized"`
	EmailsSent           int64     `json:"emailsSent"`
	SMSSent              int64     `json:"smsSent"`
	AIGenerationsUsed    int64     `json:"aiGenerationsUsed"`
	SEOOptimizationsUsed int64     `json:"seoOptimizationsUsed"`
	LastUpdated          time.Time `json:"lastUpdated"`
}

type Activity struct {
	ID          string         `json:"id"`
	Action      string         `json:"action"`
	Description string         `json:"description"`
	ToolUsed    *string        `json:"toolUsed,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
}

type ToolAccess struct {
	ToolName      string    `json:"toolName"`
	AccessCount   int64     `json:"accessCount"`
	FirstAccessed time.Time `json:"firstAccessed"`
	LastAccessed  time.Time `json:"lastAccessed"`
}

type Metric struct {
	ID            string    `json:"id"`
	MetricName    string    `json:"metricName"`
	Value         string    `json:"value"`
	ChangePercent string    `json:"changePercent"`
	IsPositive    bool      `json:"isPositive"`
	Timestamp     time.Time `json:"timestamp"`
}

// Snapshot is the client view of GET /api/dashboard.
type Snapshot struct {
	User            User         `json:"user"`
	Profile         *Profile     `json:"profile"`
	UsageStats      *UsageStats  `json:"usageStats"`
	ActivityLogs    []Activity   `json:"activityLogs"`
	ToolsAccess     []ToolAccess `json:"toolsAccess"`
	RealtimeMetrics []Metric     `json:"realtimeMetrics"`
}

// Clone returns a deep copy. Metadata values are copied one level deep.
func (s Snapshot) Clone() Snapshot {
	out := s
	if s.Profile != nil {
		p := *s.Profile
		out.Profile = &p
	}
	if s.UsageStats != nil {
		u := *s.UsageStats
		out.UsageStats = &u
	}
	if s.ActivityLogs != nil {
		out.ActivityLogs = make([]Activity, len(s.ActivityLogs))
		for i, a := range s.ActivityLogs {
			if a.ToolUsed != nil {
				tool := *a.ToolUsed
				a.ToolUsed = &tool
			}
			if a.Metadata != nil {
				a.Metadata = maps.Clone(a.Metadata)
			}
			out.ActivityLogs[i] = a
		}
	}
	if s.ToolsAccess != nil {
		out.ToolsAccess = append([]ToolAccess(nil), s.ToolsAccess...)
	}
	if s.RealtimeMetrics != nil {
		out.RealtimeMetrics = append([]Metric(nil), s.RealtimeMetrics...)
	}
	return out
}

// ToolCount returns the access count for tool, or 0.
func (s Snapshot) ToolCount(tool string) int64 {
	for _, t := range s.ToolsAccess {
		if t.ToolName == tool {
			return t.AccessCount
		}
	}
	return 0
}

// IncrementTool bumps the tool counter and moves it to the front, the order
// the server lists most recently accessed tools in.
func IncrementTool(tool string, at time.Time) func(Snapshot) Snapshot {
	return func(s Snapshot) Snapshot {
		entry := ToolAccess{ToolName: tool, AccessCount: 1, FirstAccessed: at, LastAccessed: at}
		rest := make([]ToolAccess, 0, len(s.ToolsAccess)+1)
		for _, t := range s.ToolsAccess {
			if t.ToolName == tool {
				entry = t
				entry.AccessCount++
				entry.LastAccessed = at
				continue
			}
			rest = append(rest, t)
		}
		s.ToolsAccess = append([]ToolAccess{entry}, rest...)
		return s
	}
}
