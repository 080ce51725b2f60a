package dashsync

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

const DefaultProbeInterval = 10 * time.Second

// Prober checks server reachability.
type Prober interface {
	Health(ctx context.Context) error
}

// OnlineObserver tracks reachability on its own schedule. It never blocks
// or cancels requests made through the Syncer.
type OnlineObserver struct {
	prober   Prober
	interval time.Duration
	log      *zap.Logger

	online  atomic.Bool
	changes chan bool
}

func NewOnlineObserver(p Prober, interval time.Duration, log *zap.Logger) *OnlineObserver {
	if interval <= 0 {
		interval = DefaultProbeInterval
	}
	if log == nil {
		log = zap.NewNop()
	}
	o := &OnlineObserver{
		prober:   p,
		interval: interval,
		log:      log.Named("dashsync.online"),
		changes:  make(chan bool, 1),
	}
	o.online.Store(true)
	return o
}

func (o *OnlineObserver) Online() bool {
	return o.online.Load()
}

// Changes delivers the latest state after each transition. A slow reader
// only sees the most recent value.
func (o *OnlineObserver) Changes() <-chan bool {
	return o.changes
}

// Run probes until ctx is done.
func (o *OnlineObserver) Run(ctx context.Context) {
	ticker := time.NewTicker(o.interval)
	defer ticker.Stop()

	o.probe(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			o.probe(ctx)
		}
	}
}

func (o *OnlineObserver) probe(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, o.interval)
	defer cancel()

	err := o.prober.Health(probeCtx)
	if ctx.Err() != nil {
		return
	}
	online := err == nil
	if o.online.Swap(online) == online {
		return
	}
	o.log.Debug("connectivity changed", zap.Bool("online", online), zap.Error(err))
	o.publish(online)
}

func (o *OnlineObserver) publish(online bool) {
	for {
		select {
		case o.changes <- online:
			return
		default:
		}
		select {
		case <-o.changes:
		default:
		}
	}
}
