package service

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/oklog/ulid/v2"
	"github.com/smallbiznis/zyra/internal/clock"
	"github.com/smallbiznis/zyra/internal/config"
	obsmetrics "github.com/smallbiznis/zyra/internal/observability/metrics"
	"github.com/smallbiznis/zyra/internal/usagestats/domain"
	"github.com/smallbiznis/zyra/internal/usagestats/liveevents"
	"github.com/smallbiznis/zyra/internal/usagestats/redact"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	ActionUserLogin = "user_login"
	ToolAITools     = "ai-tools"
)

type Params struct {
	fx.In

	Store   domain.Store
	Log     *zap.Logger
	Clock   clock.Clock
	Catalog *config.CatalogHolder
	Hub     *liveevents.Hub     `optional:"true"`
	Metrics *obsmetrics.Metrics `optional:"true"`
	Rand    *rand.Rand          `optional:"true"`
}

type Service struct {
	store   domain.Store
	log     *zap.Logger
	clock   clock.Clock
	catalog *config.CatalogHolder
	hub     *liveevents.Hub
	metrics *obsmetrics.Metrics

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func New(p Params) domain.Service {
	rnd := p.Rand
	if rnd == nil {
		rnd = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Service{
		store:   p.Store,
		log:     p.Log.Named("usagestats.service"),
		clock:   p.Clock,
		catalog: p.Catalog,
		hub:     p.Hub,
		metrics: p.Metrics,
		rnd:     rnd,
	}
}

func (s *Service) IncrementStat(ctx context.Context, userID snowflake.ID, field domain.StatField, delta int64) (*domain.UsageStats, error) {
	if userID == 0 {
		return nil, domain.ErrInvalidUser
	}
	if _, ok := field.Column(); !ok {
		return nil, domain.ErrInvalidStatField
	}
	if delta == 0 {
		delta = 1
	}

	now := s.clock.Now()
	err := s.store.IncrementStat(ctx, userID, field, delta, now)
	if errors.Is(err, domain.ErrStatsNotFound) {
		if _, err = s.store.CreateStatsIfAbsent(ctx, &domain.UsageStats{UserID: userID, LastUpdated: now}); err != nil {
			return nil, err
		}
		err = s.store.IncrementStat(ctx, userID, field, delta, now)
	}
	if err != nil {
		return nil, err
	}

	stats, err := s.store.GetStats(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordUsageIncrement(ctx, string(field), delta)
	s.publish(userID, liveevents.TypeStats, stats)
	return stats, nil
}

func (s *Service) RecordActivity(ctx context.Context, req domain.RecordActivityRequest) (*domain.ActivityLogEntry, error) {
	if req.UserID == 0 {
		return nil, domain.ErrInvalidUser
	}
	action := strings.TrimSpace(req.Action)
	if action == "" {
		return nil, domain.ErrInvalidAction
	}

	now := s.clock.Now()
	entry := &domain.ActivityLogEntry{
		ID:          ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String(),
		UserID:      req.UserID,
		Action:      action,
		Description: strings.TrimSpace(req.Description),
		CreatedAt:   now,
	}
	if tool := strings.TrimSpace(req.ToolUsed); tool != "" {
		entry.ToolUsed = &tool
	}
	if meta := redact.Metadata(req.Metadata); len(meta) > 0 {
		entry.Metadata = meta
	}

	if err := s.store.AppendActivity(ctx, entry, domain.ActivityLogCap); err != nil {
		return nil, err
	}
	s.metrics.RecordActivity(ctx, action)
	s.publish(req.UserID, liveevents.TypeActivity, entry)
	return entry, nil
}

func (s *Service) TrackToolAccess(ctx context.Context, userID snowflake.ID, toolName string) (*domain.ToolAccess, error) {
	if userID == 0 {
		return nil, domain.ErrInvalidUser
	}
	toolName = strings.TrimSpace(toolName)
	if toolName == "" || len(toolName) > 64 {
		return nil, domain.ErrInvalidToolName
	}

	row, err := s.store.UpsertToolAccess(ctx, userID, toolName, s.clock.Now())
	if err != nil {
		return nil, err
	}
	s.publish(userID, liveevents.TypeToolAccess, row)
	return row, nil
}

// Initialize seeds plausible starting numbers the first time a user opens
// the dashboard. Existing stats are never overwritten.
func (s *Service) Initialize(ctx context.Context, userID snowflake.ID) (*domain.InitializeResult, error) {
	if userID == 0 {
		return nil, domain.ErrInvalidUser
	}

	stats, err := s.store.GetStats(ctx, userID)
	created := false
	switch {
	case errors.Is(err, domain.ErrStatsNotFound):
		seed := s.seedStats(userID)
		created, err = s.store.CreateStatsIfAbsent(ctx, seed)
		if err != nil {
			return nil, err
		}
		stats = seed
		if !created {
			if stats, err = s.store.GetStats(ctx, userID); err != nil {
				return nil, err
			}
		}
	case err != nil:
		return nil, err
	}

	if _, err := s.RecordActivity(ctx, domain.RecordActivityRequest{
		UserID:      userID,
		Action:      ActionUserLogin,
		Description: "User logged in",
	}); err != nil {
		return nil, err
	}

	if created {
		s.log.Info("usage stats seeded", zap.String("user_id", userID.String()))
	}
	return &domain.InitializeResult{Stats: stats, Created: created}, nil
}

func (s *Service) GenerateSampleMetrics(ctx context.Context, userID snowflake.ID) ([]domain.RealtimeMetric, error) {
	if userID == 0 {
		return nil, domain.ErrInvalidUser
	}

	now := s.clock.Now()
	samples := s.sampleBatch(userID, now)
	if err := s.store.AppendMetrics(ctx, samples, domain.MetricSampleCap); err != nil {
		return nil, err
	}
	s.publish(userID, liveevents.TypeMetrics, samples)
	return samples, nil
}

func (s *Service) GetStats(ctx context.Context, userID snowflake.ID) (*domain.UsageStats, error) {
	return s.store.GetStats(ctx, userID)
}

func (s *Service) ListActivity(ctx context.Context, userID snowflake.ID, limit int) ([]domain.ActivityLogEntry, error) {
	if limit <= 0 || limit > domain.ActivityLogCap {
		limit = domain.ActivityLogCap
	}
	return s.store.ListActivity(ctx, userID, limit)
}

func (s *Service) ListToolAccess(ctx context.Context, userID snowflake.ID) ([]domain.ToolAccess, error) {
	return s.store.ListToolAccess(ctx, userID)
}

func (s *Service) ListMetrics(ctx context.Context, userID snowflake.ID, window time.Duration) ([]domain.RealtimeMetric, error) {
	if window <= 0 {
		window = domain.MetricsWindow
	}
	return s.store.ListMetrics(ctx, userID, s.clock.Now().Add(-window))
}

// Dashboard loads the four usage views concurrently. Missing stats are
// reported as nil rather than an error.
func (s *Service) Dashboard(ctx context.Context, userID snowflake.ID) (*domain.DashboardView, error) {
	if userID == 0 {
		return nil, domain.ErrInvalidUser
	}

	view := &domain.DashboardView{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		stats, err := s.store.GetStats(gctx, userID)
		if errors.Is(err, domain.ErrStatsNotFound) {
			return nil
		}
		view.Stats = stats
		return err
	})
	g.Go(func() error {
		var err error
		view.Activity, err = s.store.ListActivity(gctx, userID, domain.DashboardActivityLimit)
		return err
	})
	g.Go(func() error {
		var err error
		view.ToolsAccess, err = s.store.ListToolAccess(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		view.Metrics, err = s.store.ListMetrics(gctx, userID, s.clock.Now().Add(-domain.MetricsWindow))
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return view, nil
}

func (s *Service) publish(userID snowflake.ID, kind string, payload any) {
	s.hub.Publish(userID, liveevents.Event{Type: kind, At: s.clock.Now(), Payload: payload})
}
