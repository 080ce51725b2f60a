package dashsync

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/smallbiznis/zyra/internal/clock"
	"go.uber.org/zap"
)

const (
	DefaultPollInterval = 5 * time.Second

	ActionTrackToolAccess = "track_tool_access"
	ActionOptimizeAll     = "optimize_all"

	errorBuffer = 16
)

// API is the part of Client the Syncer drives.
type API interface {
	Dashboard(ctx context.Context) (Snapshot, error)
	TrackToolAccess(ctx context.Context, tool string) error
	OptimizeAll(ctx context.Context) (*OptimizeAllResult, error)
}

// ActionError is a user-visible failure of an explicit action. Poll
// failures are never reported here.
type ActionError struct {
	Action string
	Err    error
	At     time.Time
}

func (e ActionError) Error() string {
	return e.Action + ": " + e.Err.Error()
}

func (e ActionError) Unwrap() error {
	return e.Err
}

type Config struct {
	PollInterval   time.Duration
	DebounceWindow time.Duration
	Clock          clock.Clock
	Log            *zap.Logger
}

// Syncer owns the cache and reconciles it with the server.
type Syncer struct {
	api      API
	cache    *Cache
	debounce *Debouncer
	clock    clock.Clock
	log      *zap.Logger
	interval time.Duration

	errs         chan ActionError
	pollFailures atomic.Int64
}

func NewSyncer(api API, cfg Config) *Syncer {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.SystemClock{}
	}
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	return &Syncer{
		api:      api,
		cache:    NewCache(),
		debounce: NewDebouncer(cfg.DebounceWindow, cfg.Clock),
		clock:    cfg.Clock,
		log:      cfg.Log.Named("dashsync"),
		interval: cfg.PollInterval,
		errs:     make(chan ActionError, errorBuffer),
	}
}

func (s *Syncer) Snapshot() (Snapshot, bool) {
	return s.cache.Snapshot()
}

func (s *Syncer) Errors() <-chan ActionError {
	return s.errs
}

// PollFailures counts polls that failed since start.
func (s *Syncer) PollFailures() int64 {
	return s.pollFailures.Load()
}

// Run polls immediately and then on every interval until ctx is done.
func (s *Syncer) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	_ = s.Refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = s.Refresh(ctx)
		}
	}
}

// Refresh fetches the dashboard and installs it. On failure the cached
// snapshot is kept and the failure is only counted.
func (s *Syncer) Refresh(ctx context.Context) error {
	snap, err := s.api.Dashboard(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.pollFailures.Add(1)
			s.log.Debug("dashboard poll failed", zap.Error(err))
		}
		return err
	}
	s.cache.Replace(snap)
	return nil
}

// TrackToolAccess bumps the counter locally, sends the request and either
// refetches server truth or rolls back only its own bump.
func (s *Syncer) TrackToolAccess(ctx context.Context, tool string) error {
	pending := s.cache.Begin(IncrementTool(tool, s.clock.Now()))

	if err := s.api.TrackToolAccess(ctx, tool); err != nil {
		s.cache.Rollback(pending)
		s.report(ActionTrackToolAccess, err)
		return err
	}

	s.cache.Commit(pending)
	_ = s.Refresh(ctx)
	return nil
}

// OptimizeAll runs the bulk action at most once per debounce window.
func (s *Syncer) OptimizeAll(ctx context.Context) (*OptimizeAllResult, error) {
	if err := s.debounce.Try(); err != nil {
		s.report(ActionOptimizeAll, err)
		return nil, err
	}

	result, err := s.api.OptimizeAll(ctx)
	if err != nil {
		s.report(ActionOptimizeAll, err)
		return nil, err
	}

	_ = s.Refresh(ctx)
	return result, nil
}

// SeedDebounce arms the optimize-all window as if a run had been admitted at
// last.
func (s *Syncer) SeedDebounce(last time.Time) {
	s.debounce.Seed(last)
}

// LastOptimize returns when optimize-all was last admitted.
func (s *Syncer) LastOptimize() (time.Time, bool) {
	return s.debounce.Last()
}

func (s *Syncer) report(action string, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	actionErr := ActionError{Action: action, Err: err, At: s.clock.Now()}
	select {
	case s.errs <- actionErr:
	default:
		s.log.Warn("action error dropped", zap.String("action", action), zap.Error(err))
	}
}
