// Package timer runs the countdown of a habit session.
package timer

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultInterval is the tick period of a countdown.
const DefaultInterval = time.Second

// ErrInvalidDuration is returned for a non-positive countdown length.
var ErrInvalidDuration = errors.New("timer: duration must be positive")

// Ticker delivers ticks until stopped.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type realTicker struct {
	t *time.Ticker
}

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

// Countdown counts a duration down one tick at a time. Remaining time is
// decremented per tick rather than read from the wall clock, so a suspended
// process resumes where it stopped.
type Countdown struct {
	interval  time.Duration
	newTicker func(d time.Duration) Ticker
}

// New creates a Countdown ticking every DefaultInterval.
func New() *Countdown {
	return &Countdown{
		interval: DefaultInterval,
		newTicker: func(d time.Duration) Ticker {
			return realTicker{t: time.NewTicker(d)}
		},
	}
}

// Run counts total down to zero, calling onTick with the remaining time
// after every tick (onTick may be nil). It returns nil when the countdown
// completes and the context error when canceled first. The ticker is
// stopped on return either way.
func (c *Countdown) Run(ctx context.Context, total time.Duration, onTick func(remaining time.Duration)) error {
	if total <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidDuration, total)
	}

	t := c.newTicker(c.interval)
	defer t.Stop()

	remaining := total

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timer: canceled with %s left: %w", remaining, ctx.Err())
		case <-t.C():
			remaining -= c.interval
			if remaining < 0 {
				remaining = 0
			}

			if onTick != nil {
				onTick(remaining)
			}

			if remaining == 0 {
				return nil
			}
		}
	}
}

// Format renders a remaining duration as MM:SS, or H:MM:SS past an hour.
func Format(d time.Duration) string {
	d = d.Round(time.Second)
	if d < 0 {
		d = 0
	}

	h := int(d / time.Hour)
	m := int(d%time.Hour) / int(time.Minute)
	s := int(d%time.Minute) / int(time.Second)

	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}

	return fmt.Sprintf("%02d:%02d", m, s)
}
