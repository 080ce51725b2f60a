package dashsync

import (
	"testing"
	"time"

	"github.com/smallbiznis/zyra/internal/clock"
	"github.com/stretchr/testify/assert"
)

func TestDebouncerWindow(t *testing.T) {
	clk := clock.NewFakeClock(t0)
	d := NewDebouncer(2*time.Second, clk)

	assert.NoError(t, d.Try())
	clk.Advance(1999 * time.Millisecond)
	assert.ErrorIs(t, d.Try(), ErrPleaseWait)

	clk.Advance(time.Millisecond)
	assert.NoError(t, d.Try())
	assert.ErrorIs(t, d.Try(), ErrPleaseWait)
}

func TestDebouncerDefaultWindow(t *testing.T) {
	d := NewDebouncer(0, clock.NewFakeClock(t0))
	assert.Equal(t, DefaultDebounceWindow, d.window)
}

func TestDebouncerSeedCarriesWindow(t *testing.T) {
	clk := clock.NewFakeClock(t0)
	d := NewDebouncer(2*time.Second, clk)

	_, armed := d.Last()
	assert.False(t, armed)

	d.Seed(t0.Add(-time.Second))
	assert.ErrorIs(t, d.Try(), ErrPleaseWait)

	clk.Advance(time.Second)
	assert.NoError(t, d.Try())
	last, armed := d.Last()
	assert.True(t, armed)
	assert.Equal(t, t0.Add(time.Second), last)

	d.Seed(t0)
	last, _ = d.Last()
	assert.Equal(t, t0.Add(time.Second), last)
}
