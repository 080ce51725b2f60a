// Package sql stores usage counters in the relational database.
package sql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/zyra/internal/usagestats/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// evictBatch bounds how many entries a single append trims.
const evictBatch = 500

type store struct {
	db *gorm.DB
}

func New(db *gorm.DB) domain.Store {
	return &store{db: db}
}

func (s *store) GetStats(ctx context.Context, userID snowflake.ID) (*domain.UsageStats, error) {
	var stats domain.UsageStats
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Take(&stats).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrStatsNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("usagestats.get: %w", err)
	}
	return &stats, nil
}

func (s *store) CreateStatsIfAbsent(ctx context.Context, stats *domain.UsageStats) (bool, error) {
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(stats)
	if res.Error != nil {
		return false, fmt.Errorf("usagestats.create: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *store) IncrementStat(ctx context.Context, userID snowflake.ID, field domain.StatField, delta int64, at time.Time) error {
	column, ok := field.Column()
	if !ok {
		return domain.ErrInvalidStatField
	}

	res := s.db.WithContext(ctx).
		Model(&domain.UsageStats{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{
			column:         gorm.Expr(column+" + ?", delta),
			"last_updated": at,
		})
	if res.Error != nil {
		return fmt.Errorf("usagestats.increment: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrStatsNotFound
	}
	return nil
}

func (s *store) AppendActivity(ctx context.Context, entry *domain.ActivityLogEntry, keep int) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(entry).Error; err != nil {
			return err
		}

		var evict []string
		if err := tx.Model(&domain.ActivityLogEntry{}).
			Where("user_id = ?", entry.UserID).
			Order("created_at DESC").Order("id DESC").
			Offset(keep).Limit(evictBatch).
			Pluck("id", &evict).Error; err != nil {
			return err
		}
		if len(evict) == 0 {
			return nil
		}
		return tx.Where("id IN ?", evict).Delete(&domain.ActivityLogEntry{}).Error
	})
	if err != nil {
		return fmt.Errorf("usagestats.record_activity: %w", err)
	}
	return nil
}

func (s *store) ListActivity(ctx context.Context, userID snowflake.ID, limit int) ([]domain.ActivityLogEntry, error) {
	var entries []domain.ActivityLogEntry
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("usagestats.list_activity: %w", err)
	}
	return entries, nil
}

func (s *store) UpsertToolAccess(ctx context.Context, userID snowflake.ID, toolName string, at time.Time) (*domain.ToolAccess, error) {
	row := domain.ToolAccess{
		UserID:        userID,
		ToolName:      toolName,
		AccessCount:   1,
		FirstAccessed: at,
		LastAccessed:  at,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "tool_name"}},
			DoUpdates: clause.Assignments(map[string]any{
				"access_count":  gorm.Expr("tool_access.access_count + 1"),
				"last_accessed": at,
			}),
		}).Create(&row).Error; err != nil {
			return err
		}
		return tx.Where("user_id = ? AND tool_name = ?", userID, toolName).Take(&row).Error
	})
	if err != nil {
		return nil, fmt.Errorf("usagestats.track_tool_access: %w", err)
	}
	return &row, nil
}

func (s *store) ListToolAccess(ctx context.Context, userID snowflake.ID) ([]domain.ToolAccess, error) {
	var rows []domain.ToolAccess
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("last_accessed DESC").Order("tool_name ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("usagestats.list_tool_access: %w", err)
	}
	return rows, nil
}

func (s *store) AppendMetrics(ctx context.Context, samples []domain.RealtimeMetric, keep int) error {
	if len(samples) == 0 {
		return nil
	}
	userID := samples[0].UserID

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&samples).Error; err != nil {
			return err
		}

		var evict []string
		if err := tx.Model(&domain.RealtimeMetric{}).
			Where("user_id = ?", userID).
			Order("recorded_at DESC").Order("id DESC").
			Offset(keep).Limit(evictBatch).
			Pluck("id", &evict).Error; err != nil {
			return err
		}
		if len(evict) == 0 {
			return nil
		}
		return tx.Where("id IN ?", evict).Delete(&domain.RealtimeMetric{}).Error
	})
	if err != nil {
		return fmt.Errorf("usagestats.generate_metrics: %w", err)
	}
	return nil
}

func (s *store) ListMetrics(ctx context.Context, userID snowflake.ID, since time.Time) ([]domain.RealtimeMetric, error) {
	var samples []domain.RealtimeMetric
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND recorded_at >= ?", userID, since).
		Order("recorded_at DESC").Order("id DESC").
		Find(&samples).Error
	if err != nil {
		return nil, fmt.Errorf("usagestats.list_metrics: %w", err)
	}
	return samples, nil
}
