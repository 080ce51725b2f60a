package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	redis "github.com/redis/go-redis/v9"
	authdomain "github.com/smallbiznis/zyra/internal/auth/domain"
	"github.com/smallbiznis/zyra/internal/clock"
	notificationdomain "github.com/smallbiznis/zyra/internal/notification/domain"
	"github.com/smallbiznis/zyra/internal/ratelimit"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	JobPurgeSessions      = "purge_sessions"
	JobPurgeNotifications = "purge_notifications"

	lockKey = "zyra:scheduler:housekeeping"
)

type job struct {
	name string
	run  func(ctx context.Context, now time.Time) (int64, error)
}

type Params struct {
	fx.In

	Cfg           Config
	Log           *zap.Logger
	Clock         clock.Clock
	GenID         *snowflake.Node
	Sessions      authdomain.SessionRepository
	Notifications notificationdomain.Service
	Redis         redis.UniversalClient `optional:"true"`
}

// Scheduler runs periodic housekeeping. With redis configured only one
// replica runs a given pass.
type Scheduler struct {
	cfg    Config
	log    *zap.Logger
	clock  clock.Clock
	genID  *snowflake.Node
	locker *ratelimit.Locker
	jobs   []job
}

func New(p Params) *Scheduler {
	s := &Scheduler{
		cfg:    p.Cfg.withDefaults(),
		log:    p.Log.Named("scheduler"),
		clock:  p.Clock,
		genID:  p.GenID,
		locker: ratelimit.NewLocker(p.Redis),
	}
	s.jobs = []job{
		{name: JobPurgeSessions, run: func(ctx context.Context, now time.Time) (int64, error) {
			return p.Sessions.PurgeSessions(ctx, now.Add(-s.cfg.SessionRetention))
		}},
		{name: JobPurgeNotifications, run: func(ctx context.Context, now time.Time) (int64, error) {
			return p.Notifications.PurgeRead(ctx, now.Add(-s.cfg.NotificationRetention))
		}},
	}
	return s
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()

	for {
		if err := s.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RunOnce executes one housekeeping pass, skipping it when another instance
// holds the pass lock.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	if s.locker == nil {
		return s.runJobs(ctx)
	}
	ran, err := s.locker.Do(ctx, lockKey, s.cfg.LockTTL, s.runJobs)
	if err == nil && !ran {
		s.log.Debug("scheduler pass held by another instance")
	}
	return err
}

// runJobs executes every job once. Job failures are joined; one failing job
// does not stop the others.
func (s *Scheduler) runJobs(ctx context.Context) error {
	var runErr error
	for _, j := range s.jobs {
		if ctx.Err() != nil {
			return errors.Join(runErr, ctx.Err())
		}
		runErr = errors.Join(runErr, s.runJob(ctx, j))
	}
	return runErr
}

func (s *Scheduler) runJob(ctx context.Context, j job) error {
	run := s.startRun(j.name)
	s.logJobStart(ctx, run)
	defer s.logJobFinish(ctx, run)

	n, err := j.run(ctx, s.clock.Now())
	run.AddProcessed(n)
	if err != nil {
		s.logJobError(ctx, run, err)
		return err
	}
	return nil
}
