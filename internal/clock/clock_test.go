package clock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/thatdecade/ITGmania-Remote-Control-Tests/internal/testutil/testlog"
)

func waitForTimers(t *testing.T, fc *clockwork.FakeClock, n int) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := fc.BlockUntilContext(ctx, n); err != nil {
		t.Fatalf("waiting for %d timers: %v", n, err)
	}
}

func TestWithTimeoutExpiresOnFakeClock(t *testing.T) {
	testlog.Start(t)
	fc := clockwork.NewFakeClockAt(time.Unix(0, 0))
	ctx, cancel := WithTimeout(context.Background(), fc, 15*time.Second)
	defer cancel()

	waitForTimers(t, fc, 1)
	fc.Advance(14 * time.Second)
	select {
	case <-ctx.Done():
		t.Fatalf("context done before the timeout")
	default:
	}
	fc.Advance(time.Second)
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatalf("context not done after timeout")
	}
	if !errors.Is(context.Cause(ctx), context.DeadlineExceeded) {
		t.Fatalf("cause=%v", context.Cause(ctx))
	}
}

func TestWithTimeoutCancelReleasesTimer(t *testing.T) {
	testlog.Start(t)
	fc := clockwork.NewFakeClockAt(time.Unix(0, 0))
	ctx, cancel := WithTimeout(context.Background(), fc, time.Minute)
	waitForTimers(t, fc, 1)
	cancel()
	<-ctx.Done()

	short, stop := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer stop()
	if err := fc.BlockUntilContext(short, 1); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("timer should be stopped after cancel, got %v", err)
	}
	if errors.Is(context.Cause(ctx), context.DeadlineExceeded) {
		t.Fatalf("cancel should not report a deadline")
	}
}

func TestWithTimeoutFollowsParentCancel(t *testing.T) {
	testlog.Start(t)
	fc := clockwork.NewFakeClockAt(time.Unix(0, 0))
	parent, cancelParent := context.WithCancel(context.Background())
	ctx, cancel := WithTimeout(parent, fc, time.Minute)
	defer cancel()

	cancelParent()
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatalf("child context not done after parent cancel")
	}
	if !errors.Is(context.Cause(ctx), context.Canceled) {
		t.Fatalf("cause=%v", context.Cause(ctx))
	}
}

func TestRealClockTimerFires(t *testing.T) {
	testlog.Start(t)
	timer := Real().NewTimer(time.Millisecond)
	defer timer.Stop()
	select {
	case <-timer.Chan():
	case <-time.After(time.Second):
		t.Fatalf("real timer did not fire")
	}
}
