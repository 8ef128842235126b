package session

import "context"

// State is the connection lifecycle state.
type State int

const (
	StateDisconnected State = iota
	StateConnected
	StateReady
)

func (s State) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateReady:
		return "ready"
	default:
		return "disconnected"
	}
}

// Connected reports whether a transport is attached. Ready implies Connected.
func (s State) Connected() bool {
	return s == StateConnected || s == StateReady
}

// lifecycle tracks State and wakes watchers on every transition. It is
// guarded by the owning Session's mutex.
type lifecycle struct {
	state   State
	changed chan struct{}
}

func newLifecycle() lifecycle {
	return lifecycle{state: StateDisconnected, changed: make(chan struct{})}
}

// set applies next and reports whether the state changed.
func (l *lifecycle) set(next State) bool {
	if l.state == next {
		return false
	}
	l.state = next
	close(l.changed)
	l.changed = make(chan struct{})
	return true
}

// attach moves to Connected from any state, clearing Ready.
func (l *lifecycle) attach() bool {
	return l.set(StateConnected)
}

// heartbeat promotes Connected to Ready. It is a no-op while disconnected.
func (l *lifecycle) heartbeat() bool {
	if l.state != StateConnected {
		return false
	}
	return l.set(StateReady)
}

func (l *lifecycle) detach() bool {
	return l.set(StateDisconnected)
}

// WaitConnected blocks until a transport is attached or ctx ends.
func (s *Session) WaitConnected(ctx context.Context) error {
	return s.waitState(ctx, State.Connected)
}

// WaitReady blocks until a heartbeat has been observed on the current
// connection or ctx ends.
func (s *Session) WaitReady(ctx context.Context) error {
	return s.waitState(ctx, func(st State) bool { return st == StateReady })
}

// WaitDisconnected blocks until no transport is attached or ctx ends.
func (s *Session) WaitDisconnected(ctx context.Context) error {
	return s.waitState(ctx, func(st State) bool { return st == StateDisconnected })
}

func (s *Session) waitState(ctx context.Context, ok func(State) bool) error {
	for {
		s.mu.Lock()
		st := s.life.state
		changed := s.life.changed
		s.mu.Unlock()
		if ok(st) {
			return nil
		}
		select {
		case <-changed:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
