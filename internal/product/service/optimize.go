package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/smallbiznis/zyra/internal/config"
	"github.com/smallbiznis/zyra/internal/product/domain"
	usagedomain "github.com/smallbiznis/zyra/internal/usagestats/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	ActionOptimizeAll = "optimize_all"
	ToolOptimizer     = "product-optimizer"
)

// OptimizeAll normalizes every product of the user and removes duplicates
// by (name, category), ignoring case. The oldest product of a group
// survives. All survivor updates are written before any deletion, in one
// transaction.
func (s *Service) OptimizeAll(ctx context.Context, userID snowflake.ID) (*domain.OptimizeAllResult, error) {
	items, err := s.repo.FindAll(ctx, s.db, userID)
	if err != nil {
		s.metrics.RecordOptimizeAll(ctx, "error", 0)
		return nil, err
	}

	catalog := config.DefaultCatalog()
	if s.catalog != nil {
		catalog = s.catalog.Get()
	}
	now := s.clock.Now()
	survivors, duplicates := planOptimization(items, catalog)
	for i := range survivors {
		survivors[i].UpdatedAt = now
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range survivors {
			if err := s.repo.Update(ctx, tx, &survivors[i]); err != nil {
				return err
			}
		}
		_, err := s.repo.Delete(ctx, tx, userID, duplicates...)
		return err
	})
	if err != nil {
		s.metrics.RecordOptimizeAll(ctx, "error", 0)
		return nil, err
	}

	result := &domain.OptimizeAllResult{Optimized: len(survivors), DuplicatesRemoved: len(duplicates)}
	s.metrics.RecordOptimizeAll(ctx, "success", result.DuplicatesRemoved)
	s.recordOptimization(ctx, userID, result)
	return result, nil
}

// recordOptimization updates dashboard counters. Products are already
// committed, so failures are logged and not returned.
func (s *Service) recordOptimization(ctx context.Context, userID snowflake.ID, result *domain.OptimizeAllResult) {
	if s.usage == nil {
		return
	}
	if result.Optimized > 0 {
		if _, err := s.usage.IncrementStat(ctx, userID, usagedomain.FieldProductsOptimized, int64(result.Optimized)); err != nil {
			s.log.Warn("increment products optimized failed", zap.Error(err))
		}
	}
	_, err := s.usage.RecordActivity(ctx, usagedomain.RecordActivityRequest{
		UserID:      userID,
		Action:      ActionOptimizeAll,
		Description: fmt.Sprintf("Optimized %d products, removed %d duplicates", result.Optimized, result.DuplicatesRemoved),
		ToolUsed:    ToolOptimizer,
		Metadata: map[string]any{
			"optimized":         result.Optimized,
			"duplicatesRemoved": result.DuplicatesRemoved,
		},
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		s.log.Warn("record optimize activity failed", zap.Error(err))
	}
}

// planOptimization expects items oldest first.
func planOptimization(items []domain.Product, catalog config.Catalog) (survivors []domain.Product, duplicates []snowflake.ID) {
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		normalizeProduct(&item, catalog)
		key := strings.ToLower(item.Name) + "\x00" + strings.ToLower(item.Category)
		if _, dup := seen[key]; dup {
			duplicates = append(duplicates, item.ID)
			continue
		}
		seen[key] = struct{}{}
		survivors = append(survivors, item)
	}
	return survivors, duplicates
}

func normalizeProduct(p *domain.Product, catalog config.Catalog) {
	p.Name = titleCase(p.Name)
	p.Category = strings.TrimSpace(p.Category)
	p.Slug = slug.Make(p.Name)

	defaults, known := catalog.Category(p.Category)
	if p.Description == nil || strings.TrimSpace(*p.Description) == "" {
		desc := fmt.Sprintf("High-quality %s product: %s.", strings.ToLower(p.Category), p.Name)
		if known && defaults.Description != "" {
			desc = defaults.Description
		}
		p.Description = &desc
	}
	if len(p.Tags) == 0 {
		tags := []string{strings.ToLower(p.Category)}
		if known && len(defaults.Tags) > 0 {
			tags = append([]string(nil), defaults.Tags...)
		}
		p.Tags = cleanTags(tags)
	}
	p.IsOptimized = true
}

// titleCase collapses whitespace and capitalizes each word: first rune upper,
// the rest lower.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + strings.ToLower(w[size:])
	}
	return strings.Join(words, " ")
}
