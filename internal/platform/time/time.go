// Package time holds clock and timestamp helpers; import as ptime
package time

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// Clock is the injectable time source used by pollers, controllers and the REST client
type Clock = clockwork.Clock

// Real returns the wall clock
func Real() Clock { return clockwork.NewRealClock() }

// OrReal returns c, or the wall clock when c is nil
func OrReal(c Clock) Clock {
	if c == nil {
		return Real()
	}
	return c
}

// Ptr returns a pointer to t or nil if t is zero
func Ptr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// Sleep blocks for d on c or until ctxDone closes; it reports whether the full duration elapsed
func Sleep(c Clock, d time.Duration, ctxDone <-chan struct{}) bool {
	if d <= 0 {
		return true
	}
	t := c.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctxDone:
		return false
	case <-t.Chan():
		return true
	}
}
