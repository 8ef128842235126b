package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/thatdecade/ITGmania-Remote-Control-Tests/internal/protocol"
	"github.com/thatdecade/ITGmania-Remote-Control-Tests/internal/protocol/frame"
)

// fakeTransport is an in-memory Transport. The test plays the game client
// by pushing inbound messages and inspecting sent packets.
type fakeTransport struct {
	mu      sync.Mutex
	sent    [][]byte
	onSend  func(packet []byte)
	inbound chan Message

	closeOnce sync.Once
	closed    chan struct{}
	closeErr  *ClosedError
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		inbound:  make(chan Message, 64),
		closed:   make(chan struct{}),
		closeErr: &ClosedError{Code: 1006, Reason: "closed locally"},
	}
}

func (f *fakeTransport) Send(ctx context.Context, data []byte) error {
	select {
	case <-f.closed:
		return ErrTransportClosed
	default:
	}
	cp := append([]byte(nil), data...)
	f.mu.Lock()
	f.sent = append(f.sent, cp)
	hook := f.onSend
	f.mu.Unlock()
	if hook != nil {
		hook(cp)
	}
	return nil
}

func (f *fakeTransport) Recv(ctx context.Context) (Message, error) {
	select {
	case msg := <-f.inbound:
		return msg, nil
	case <-f.closed:
		return Message{}, f.closeErr
	case <-ctx.Done():
		return Message{}, ctx.Err()
	}
}

func (f *fakeTransport) Close() error {
	f.closeOnce.Do(func() { close(f.closed) })
	return nil
}

func (f *fakeTransport) remoteClose(code int, reason string) {
	f.closeErr = &ClosedError{Code: code, Reason: reason}
	f.Close()
}

func (f *fakeTransport) isClosed() bool {
	select {
	case <-f.closed:
		return true
	default:
		return false
	}
}

func (f *fakeTransport) setOnSend(hook func(packet []byte)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onSend = hook
}

func (f *fakeTransport) sentPackets() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]byte, len(f.sent))
	copy(out, f.sent)
	return out
}

func (f *fakeTransport) deliverText(text string) {
	f.inbound <- Message{Type: MessageText, Data: []byte(text)}
}

func (f *fakeTransport) deliverBytes(b []byte) {
	f.inbound <- Message{Type: MessageBinary, Data: b}
}

func (f *fakeTransport) deliverFrame(t *testing.T, kind protocol.ResponseKind, payload string) {
	t.Helper()
	packet, err := frame.Encode(uint8(kind), []byte(payload))
	if err != nil {
		t.Fatalf("encode frame: %v", err)
	}
	f.deliverBytes(packet)
}

// startSession attaches a fake transport and runs the receive loop until
// the test ends. serveErr receives Serve's return value.
func startSession(t *testing.T, cfg Config, opts ...Option) (*Session, *fakeTransport, <-chan error) {
	t.Helper()
	s := New(cfg, opts...)
	ft := newFakeTransport()
	ctx, cancel := context.WithCancel(context.Background())
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.Serve(ctx, ft)
	}()
	t.Cleanup(cancel)

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer waitCancel()
	if err := s.WaitConnected(waitCtx); err != nil {
		t.Fatalf("session never connected: %v", err)
	}
	return s, ft, serveErr
}

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met: %s", what)
}

type requestResult struct {
	resp []byte
	err  error
}

func goRequest(s *Session, cmd protocol.Command, expect protocol.ResponseKind, payload []byte, timeout time.Duration) <-chan requestResult {
	out := make(chan requestResult, 1)
	go func() {
		resp, err := s.Request(context.Background(), cmd, expect, payload, timeout)
		out <- requestResult{resp: resp, err: err}
	}()
	return out
}

func awaitResult(t *testing.T, ch <-chan requestResult) requestResult {
	t.Helper()
	select {
	case res := <-ch:
		return res
	case <-time.After(3 * time.Second):
		t.Fatalf("request did not complete")
		return requestResult{}
	}
}

func currentRouter(s *Session) *ResponseRouter {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	return s.conn.router
}

// waitForTimers blocks until fc has at least n pending timers.
func waitForTimers(t *testing.T, fc *clockwork.FakeClock, n int) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := fc.BlockUntilContext(ctx, n); err != nil {
		t.Fatalf("waiting for %d timers: %v", n, err)
	}
}
