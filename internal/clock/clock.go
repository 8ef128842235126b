// Package clock provides the injectable time source used for request
// deadlines, retry pauses, and poll loops.
//
// Production code uses Real(). Tests pass a clockwork fake clock and move
// it explicitly:
//
//	fc := clockwork.NewFakeClockAt(time.Unix(0, 0))
//	go engine.Request(...)
//	fc.BlockUntilContext(ctx, 1)
//	fc.Advance(10 * time.Second)
package clock

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
)

// Clock is the time source shared by the session and harness. Callers
// must Stop timers they abandon so fake clocks do not count them as
// waiters.
type Clock = clockwork.Clock

// Real returns a Clock backed by the time package.
func Real() Clock { return clockwork.NewRealClock() }

// WithTimeout is context.WithTimeout measured on c. When the timeout
// fires, context.Cause reports context.DeadlineExceeded. The returned
// cancel func stops the timer before it returns.
func WithTimeout(parent context.Context, c Clock, d time.Duration) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancelCause(parent)
	t := c.NewTimer(d)
	go func() {
		select {
		case <-t.Chan():
			cancel(context.DeadlineExceeded)
		case <-ctx.Done():
			t.Stop()
		}
	}()
	return ctx, func() {
		t.Stop()
		cancel(context.Canceled)
	}
}
