package dashsync

import (
	"errors"
	"sync"
	"time"

	"github.com/smallbiznis/zyra/internal/clock"
)

const DefaultDebounceWindow = 2 * time.Second

var ErrPleaseWait = errors.New("please wait before trying again")

// Debouncer admits one call per window.
type Debouncer struct {
	mu     sync.Mutex
	window time.Duration
	clock  clock.Clock
	last   time.Time
	armed  bool
}

func NewDebouncer(window time.Duration, c clock.Clock) *Debouncer {
	if window <= 0 {
		window = DefaultDebounceWindow
	}
	if c == nil {
		c = clock.SystemClock{}
	}
	return &Debouncer{window: window, clock: c}
}

// Try returns ErrPleaseWait when the previous admitted call was less than one
// window ago.
func (d *Debouncer) Try() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.clock.Now()
	if d.armed && now.Sub(d.last) < d.window {
		return ErrPleaseWait
	}
	d.last = now
	d.armed = true
	return nil
}

// Seed arms the window as if a call had been admitted at last. It lets a
// short-lived process carry the window over from a previous run.
func (d *Debouncer) Seed(last time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if last.IsZero() || (d.armed && !last.After(d.last)) {
		return
	}
	d.last = last
	d.armed = true
}

// Last returns when the most recent call was admitted.
func (d *Debouncer) Last() (time.Time, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.last, d.armed
}
