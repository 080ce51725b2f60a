package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type Product struct {
	ID          snowflake.ID                `gorm:"primaryKey;autoIncrement:false"`
	UserID      snowflake.ID                `gorm:"column:user_id;not null;index:ix_products_user_created,priority:1"`
	Name        string                      `gorm:"size:200;not null"`
	Slug        string                      `gorm:"size:220;not null"`
	Category    string                      `gorm:"size:100;not null"`
	Description *string                     `gorm:"type:text"`
	Price       int64                       `gorm:"not null;default:0"`
	SKU         *string                     `gorm:"column:sku;size:64"`
	Tags        datatypes.JSONSlice[string] `gorm:"not null"`
	IsOptimized bool                        `gorm:"not null;default:false"`
	CreatedAt   time.Time                   `gorm:"not null;index:ix_products_user_created,priority:2"`
	UpdatedAt   time.Time                   `gorm:"not null"`
}

func (Product) TableName() string { return "products" }
