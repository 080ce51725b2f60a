package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/zyra/internal/clock"
	"github.com/smallbiznis/zyra/internal/notification/domain"
	"github.com/smallbiznis/zyra/pkg/db/option"
	"github.com/smallbiznis/zyra/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
}

type Service struct {
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  repository.Repository[domain.Notification]
}

func New(p Params) domain.Service {
	return &Service{
		log:   p.Log.Named("notification.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  repository.ProvideStore[domain.Notification](p.DB),
	}
}

func (s *Service) List(ctx context.Context, userID snowflake.ID, req domain.ListRequest) (*domain.ListResponse, error) {
	limit := req.Limit
	if limit <= 0 || limit > domain.DefaultListLimit {
		limit = domain.DefaultListLimit
	}
	opts := []option.QueryOption{
		option.WithSortBy(option.QuerySortBy{Column: "created_at", Desc: true}),
		option.WithLimit(limit),
	}
	if req.UnreadOnly {
		opts = append(opts, option.WithWhere("is_read = ?", false))
	}
	rows, err := s.repo.Find(ctx, &domain.Notification{UserID: userID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("notification.list: %w", err)
	}

	unread, err := s.unreadCount(ctx, userID)
	if err != nil {
		return nil, err
	}

	items := make([]domain.Notification, 0, len(rows))
	for _, r := range rows {
		items = append(items, *r)
	}
	return &domain.ListResponse{Items: items, UnreadCount: unread}, nil
}

func (s *Service) Create(ctx context.Context, userID snowflake.ID, req domain.CreateRequest) (*domain.Notification, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" || utf8.RuneCountInString(title) > 160 {
		return nil, domain.ErrInvalidTitle
	}
	kind := strings.ToLower(strings.TrimSpace(req.Type))
	switch kind {
	case "":
		kind = domain.TypeInfo
	case domain.TypeInfo, domain.TypeSuccess, domain.TypeWarning, domain.TypeError:
	default:
		return nil, domain.ErrInvalidType
	}

	n := &domain.Notification{
		ID:        s.genID.Generate(),
		UserID:    userID,
		Type:      kind,
		Title:     title,
		Message:   strings.TrimSpace(req.Message),
		CreatedAt: s.clock.Now(),
	}
	if req.Link != nil {
		if link := strings.TrimSpace(*req.Link); link != "" {
			n.Link = &link
		}
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("notification.create: %w", err)
	}
	return n, nil
}

func (s *Service) SetRead(ctx context.Context, userID snowflake.ID, id string, read bool) (*domain.Notification, error) {
	n, err := s.find(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if n.Read == read {
		return n, nil
	}

	fields := map[string]any{"is_read": read, "read_at": nil}
	n.ReadAt = nil
	if read {
		now := s.clock.Now()
		fields["read_at"] = now
		n.ReadAt = &now
	}
	if _, err := s.repo.Update(ctx, &domain.Notification{ID: n.ID, UserID: userID}, fields); err != nil {
		return nil, fmt.Errorf("notification.set_read: %w", err)
	}
	n.Read = read
	return n, nil
}

func (s *Service) MarkAllRead(ctx context.Context, userID snowflake.ID) (int64, error) {
	now := s.clock.Now()
	rows, err := s.repo.Update(ctx, &domain.Notification{UserID: userID}, map[string]any{
		"is_read": true,
		"read_at": now,
	})
	if err != nil {
		return 0, fmt.Errorf("notification.mark_all_read: %w", err)
	}
	return rows, nil
}

func (s *Service) Delete(ctx context.Context, userID snowflake.ID, id string) error {
	n, err := s.find(ctx, userID, id)
	if err != nil {
		return err
	}
	if _, err := s.repo.Delete(ctx, &domain.Notification{ID: n.ID, UserID: userID}); err != nil {
		return fmt.Errorf("notification.delete: %w", err)
	}
	return nil
}

func (s *Service) PurgeRead(ctx context.Context, before time.Time) (int64, error) {
	n, err := s.repo.Delete(ctx, &domain.Notification{Read: true}, option.WithWhere("created_at < ?", before))
	if err != nil {
		return 0, fmt.Errorf("notification.purge_read: %w", err)
	}
	return n, nil
}

func (s *Service) unreadCount(ctx context.Context, userID snowflake.ID) (int64, error) {
	count, err := s.repo.Count(ctx, &domain.Notification{UserID: userID}, option.WithWhere("is_read = ?", false))
	if err != nil {
		return 0, fmt.Errorf("notification.unread_count: %w", err)
	}
	return count, nil
}

func (s *Service) find(ctx context.Context, userID snowflake.ID, id string) (*domain.Notification, error) {
	nid, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || nid <= 0 {
		return nil, domain.ErrInvalidID
	}
	n, err := s.repo.FindOne(ctx, &domain.Notification{ID: nid, UserID: userID})
	if err != nil {
		return nil, fmt.Errorf("notification.find: %w", err)
	}
	if n == nil {
		return nil, domain.ErrNotFound
	}
	return n, nil
}
