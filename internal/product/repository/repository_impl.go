package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/zyra/internal/product/domain"
	"github.com/smallbiznis/zyra/pkg/db/option"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, product *domain.Product) error {
	if err := db.WithContext(ctx).Create(product).Error; err != nil {
		return fmt.Errorf("product.create: %w", err)
	}
	return nil
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, userID, id snowflake.ID) (*domain.Product, error) {
	var items []domain.Product
	err := db.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, id).
		Limit(1).
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("product.get: %w", err)
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &items[0], nil
}

func (r *repo) FindAll(ctx context.Context, db *gorm.DB, userID snowflake.ID) ([]domain.Product, error) {
	var items []domain.Product
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").Order("id ASC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("product.find_all: %w", err)
	}
	return items, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, userID snowflake.ID, filter domain.ListFilter, opts ...option.QueryOption) ([]domain.Product, error) {
	stmt := db.WithContext(ctx).Model(&domain.Product{}).Where("user_id = ?", userID)
	if filter.Category != "" {
		stmt = stmt.Where("LOWER(category) = ?", strings.ToLower(filter.Category))
	}
	if filter.Search != "" {
		stmt = stmt.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(filter.Search)+"%")
	}
	if filter.IsOptimized != nil {
		stmt = stmt.Where("is_optimized = ?", *filter.IsOptimized)
	}
	for _, opt := range opts {
		stmt = opt.Apply(stmt)
	}

	var items []domain.Product
	if err := stmt.Find(&items).Error; err != nil {
		return nil, fmt.Errorf("product.list: %w", err)
	}
	return items, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, product *domain.Product) error {
	res := db.WithContext(ctx).
		Model(&domain.Product{}).
		Where("user_id = ? AND id = ?", product.UserID, product.ID).
		Select("name", "slug", "category", "description", "price", "sku", "tags", "is_optimized", "updated_at").
		Updates(product)
	if res.Error != nil {
		return fmt.Errorf("product.update: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, userID snowflake.ID, ids ...snowflake.ID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := db.WithContext(ctx).
		Where("user_id = ? AND id IN ?", userID, ids).
		Delete(&domain.Product{})
	if res.Error != nil {
		return 0, fmt.Errorf("product.delete: %w", res.Error)
	}
	return res.RowsAffected, nil
}
