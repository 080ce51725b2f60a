package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/zyra/pkg/db/pagination"
)

type Service interface {
	Create(ctx context.Context, userID snowflake.ID, req CreateRequest) (*Response, error)
	List(ctx context.Context, userID snowflake.ID, req ListRequest) (*ListResponse, error)
	Get(ctx context.Context, userID snowflake.ID, id string) (*Response, error)
	Update(ctx context.Context, userID snowflake.ID, id string, req UpdateRequest) (*Response, error)
	Delete(ctx context.Context, userID snowflake.ID, id string) error
	OptimizeAll(ctx context.Context, userID snowflake.ID) (*OptimizeAllResult, error)
}

type ListRequest struct {
	pagination.Pagination
	Category    string `form:"category"`
	Search      string `form:"q"`
	IsOptimized *bool  `form:"is_optimized"`
	OrderBy     string `form:"order_by"`
}

type CreateRequest struct {
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	Description *string  `json:"description"`
	Price       int64    `json:"price"`
	SKU         *string  `json:"sku"`
	Tags        []string `json:"tags"`
}

type UpdateRequest struct {
	Name        *string   `json:"name"`
	Category    *string   `json:"category"`
	Description *string   `json:"description"`
	Price       *int64    `json:"price"`
	SKU         *string   `json:"sku"`
	Tags        *[]string `json:"tags"`
}

type Response struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Category    string    `json:"category"`
	Description *string   `json:"description,omitempty"`
	Price       int64     `json:"price"`
	SKU         *string   `json:"sku,omitempty"`
	Tags        []string  `json:"tags"`
	IsOptimized bool      `json:"isOptimized"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type ListResponse struct {
	Items    []Response          `json:"items"`
	PageInfo pagination.PageInfo `json:"pageInfo"`
}

type OptimizeAllResult struct {
	Optimized         int `json:"optimized"`
	DuplicatesRemoved int `json:"duplicatesRemoved"`
}

var (
	ErrInvalidName      = errors.New("invalid_name")
	ErrInvalidCategory  = errors.New("invalid_category")
	ErrInvalidPrice     = errors.New("invalid_price")
	ErrInvalidID        = errors.New("invalid_id")
	ErrNotFound         = errors.New("not_found")
	ErrOptimizeInFlight = errors.New("optimize_all_in_progress")
)
