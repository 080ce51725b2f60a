package dashsync

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

type switchProber struct {
	down atomic.Bool
}

func (p *switchProber) Health(context.Context) error {
	if p.down.Load() {
		return errors.New("unreachable")
	}
	return nil
}

func TestOnlineObserverReportsTransitions(t *testing.T) {
	defer goleak.VerifyNone(t)

	prober := &switchProber{}
	o := NewOnlineObserver(prober, 2*time.Millisecond, nil)
	assert.True(t, o.Online())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		o.Run(ctx)
	}()

	prober.down.Store(true)
	select {
	case online := <-o.Changes():
		assert.False(t, online)
	case <-time.After(time.Second):
		t.Fatal("no offline transition")
	}
	assert.False(t, o.Online())

	prober.down.Store(false)
	select {
	case online := <-o.Changes():
		assert.True(t, online)
	case <-time.After(time.Second):
		t.Fatal("no online transition")
	}

	cancel()
	<-done
}

func TestOnlineObserverKeepsLatestChange(t *testing.T) {
	o := NewOnlineObserver(&switchProber{}, time.Second, nil)

	o.publish(false)
	o.publish(true)

	assert.True(t, <-o.Changes())
	select {
	case v := <-o.Changes():
		t.Fatalf("stale change delivered: %v", v)
	default:
	}
}
