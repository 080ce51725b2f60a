package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/smallbiznis/zyra/internal/clock"
	"github.com/smallbiznis/zyra/internal/config"
	obsmetrics "github.com/smallbiznis/zyra/internal/observability/metrics"
	"github.com/smallbiznis/zyra/internal/product/domain"
	usagedomain "github.com/smallbiznis/zyra/internal/usagestats/domain"
	"github.com/smallbiznis/zyra/pkg/db/option"
	"github.com/smallbiznis/zyra/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Repo    domain.Repository
	Clock   clock.Clock
	Catalog *config.CatalogHolder
	Usage   usagedomain.Service
	Metrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	repo    domain.Repository
	genID   *snowflake.Node
	clock   clock.Clock
	catalog *config.CatalogHolder
	usage   usagedomain.Service
	metrics *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("product.service"),
		repo:    p.Repo,
		genID:   p.GenID,
		clock:   p.Clock,
		catalog: p.Catalog,
		usage:   p.Usage,
		metrics: p.Metrics,
	}
}

func (s *Service) List(ctx context.Context, userID snowflake.ID, req domain.ListRequest) (*domain.ListResponse, error) {
	limit := req.Size()
	sortBy := option.WithQuerySortBy("created_at", req.OrderBy, map[string]bool{"created_at": true})
	if strings.TrimSpace(req.OrderBy) == "" {
		sortBy.Desc = true
	}

	opts := []option.QueryOption{option.WithSortBy(sortBy), option.WithLimit(limit + 1)}
	if token := strings.TrimSpace(req.PageToken); token != "" {
		cursor, err := pagination.DecodeCursor(token)
		if err != nil {
			return nil, err
		}
		cmp := ">"
		if sortBy.Desc {
			cmp = "<"
		}
		opts = append(opts, option.WithWhere(
			"(created_at "+cmp+" ? OR (created_at = ? AND id "+cmp+" ?))",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		))
	}

	items, err := s.repo.List(ctx, s.db, userID, domain.ListFilter{
		Category:    strings.TrimSpace(req.Category),
		Search:      strings.TrimSpace(req.Search),
		IsOptimized: req.IsOptimized,
	}, opts...)
	if err != nil {
		return nil, err
	}

	page, info, err := pagination.Trim(items, limit, func(p domain.Product) pagination.Cursor {
		return pagination.Cursor{ID: p.ID.Int64(), CreatedAt: p.CreatedAt}
	})
	if err != nil {
		return nil, err
	}

	resp := &domain.ListResponse{Items: make([]domain.Response, 0, len(page)), PageInfo: info}
	for i := range page {
		resp.Items = append(resp.Items, toResponse(&page[i]))
	}
	return resp, nil
}

func (s *Service) Create(ctx context.Context, userID snowflake.ID, req domain.CreateRequest) (*domain.Response, error) {
	name := collapseSpaces(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}
	category := strings.TrimSpace(req.Category)
	if category == "" {
		return nil, domain.ErrInvalidCategory
	}
	if req.Price < 0 {
		return nil, domain.ErrInvalidPrice
	}

	now := s.clock.Now()
	p := &domain.Product{
		ID:          s.genID.Generate(),
		UserID:      userID,
		Name:        name,
		Slug:        slug.Make(name),
		Category:    category,
		Description: trimmedOrNil(req.Description),
		Price:       req.Price,
		SKU:         trimmedOrNil(req.SKU),
		Tags:        cleanTags(req.Tags),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, s.db, p); err != nil {
		return nil, err
	}

	resp := toResponse(p)
	return &resp, nil
}

func (s *Service) Get(ctx context.Context, userID snowflake.ID, id string) (*domain.Response, error) {
	item, err := s.find(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	resp := toResponse(item)
	return &resp, nil
}

func (s *Service) Update(ctx context.Context, userID snowflake.ID, id string, req domain.UpdateRequest) (*domain.Response, error) {
	item, err := s.find(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := collapseSpaces(*req.Name)
		if name == "" {
			return nil, domain.ErrInvalidName
		}
		item.Name = name
		item.Slug = slug.Make(name)
	}
	if req.Category != nil {
		category := strings.TrimSpace(*req.Category)
		if category == "" {
			return nil, domain.ErrInvalidCategory
		}
		item.Category = category
	}
	if req.Description != nil {
		item.Description = trimmedOrNil(req.Description)
	}
	if req.Price != nil {
		if *req.Price < 0 {
			return nil, domain.ErrInvalidPrice
		}
		item.Price = *req.Price
	}
	if req.SKU != nil {
		item.SKU = trimmedOrNil(req.SKU)
	}
	if req.Tags != nil {
		item.Tags = cleanTags(*req.Tags)
	}
	// Manual edits invalidate a previous optimization pass.
	item.IsOptimized = false
	item.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, s.db, item); err != nil {
		return nil, err
	}
	resp := toResponse(item)
	return &resp, nil
}

func (s *Service) Delete(ctx context.Context, userID snowflake.ID, id string) error {
	item, err := s.find(ctx, userID, id)
	if err != nil {
		return err
	}
	_, err = s.repo.Delete(ctx, s.db, userID, item.ID)
	return err
}

func (s *Service) find(ctx context.Context, userID snowflake.ID, id string) (*domain.Product, error) {
	productID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrInvalidID
	}
	item, err := s.repo.FindByID(ctx, s.db, userID, productID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	return item, nil
}

func toResponse(p *domain.Product) domain.Response {
	tags := []string(p.Tags)
	if tags == nil {
		tags = []string{}
	}
	return domain.Response{
		ID:          p.ID.String(),
		UserID:      p.UserID.String(),
		Name:        p.Name,
		Slug:        p.Slug,
		Category:    p.Category,
		Description: p.Description,
		Price:       p.Price,
		SKU:         p.SKU,
		Tags:        tags,
		IsOptimized: p.IsOptimized,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func trimmedOrNil(value *string) *string {
	if value == nil {
		return nil
	}
	v := strings.TrimSpace(*value)
	if v == "" {
		return nil
	}
	return &v
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
