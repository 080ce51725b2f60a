package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/zyra/pkg/db/option"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, product *Product) error
	// FindByID returns nil, nil when the product does not exist for userID.
	FindByID(ctx context.Context, db *gorm.DB, userID, id snowflake.ID) (*Product, error)
	// FindAll returns every product of the user, oldest first.
	FindAll(ctx context.Context, db *gorm.DB, userID snowflake.ID) ([]Product, error)
	List(ctx context.Context, db *gorm.DB, userID snowflake.ID, filter ListFilter, opts ...option.QueryOption) ([]Product, error)
	Update(ctx context.Context, db *gorm.DB, product *Product) error
	Delete(ctx context.Context, db *gorm.DB, userID snowflake.ID, ids ...snowflake.ID) (int64, error)
}

type ListFilter struct {
	Category    string
	Search      string
	IsOptimized *bool
}
