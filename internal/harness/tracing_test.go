package harness

import (
	"context"
	"sync"
	"testing"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/thatdecade/ITGmania-Remote-Control-Tests/internal/testutil/testlog"
)

// recordedSpan wraps a no-op span and keeps what the harness reports.
type recordedSpan struct {
	trace.Span

	mu     sync.Mutex
	name   string
	events []string
	status codes.Code
	ended  bool
}

func (s *recordedSpan) AddEvent(name string, _ ...trace.EventOption) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, name)
}

func (s *recordedSpan) SetStatus(code codes.Code, _ string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = code
}

func (s *recordedSpan) End(...trace.SpanEndOption) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ended = true
}

type recordingTracer struct {
	trace.Tracer

	mu    sync.Mutex
	spans []*recordedSpan
}

func newRecordingTracer() *recordingTracer {
	return &recordingTracer{Tracer: noop.NewTracerProvider().Tracer("test")}
}

func (r *recordingTracer) Start(ctx context.Context, name string, _ ...trace.SpanStartOption) (context.Context, trace.Span) {
	_, base := r.Tracer.Start(ctx, name)
	span := &recordedSpan{Span: base, name: name}
	r.mu.Lock()
	r.spans = append(r.spans, span)
	r.mu.Unlock()
	return trace.ContextWithSpan(ctx, span), span
}

func TestRunCycleTracesCases(t *testing.T) {
	testlog.Start(t)
	tracer := newRecordingTracer()
	game := newFakeGame()
	game.songs = nil
	h, _, _ := newTestHarness(t, DefaultConfig(), game)
	WithTracer(tracer)(h)

	if _, err := h.RunCycle(context.Background(), 1); err != nil {
		t.Fatalf("cycle: %v", err)
	}
	if len(tracer.spans) != 1 {
		t.Fatalf("spans=%d want=1", len(tracer.spans))
	}
	span := tracer.spans[0]
	if span.name != "itgharness.cycle" || !span.ended {
		t.Fatalf("unexpected span name=%s ended=%v", span.name, span.ended)
	}
	want := []string{CaseHello, CaseMusicSelect, CaseGetSongs}
	if len(span.events) != len(want) {
		t.Fatalf("events=%v want=%v", span.events, want)
	}
	for i := range want {
		if span.events[i] != want[i] {
			t.Fatalf("events=%v want=%v", span.events, want)
		}
	}
	if span.status != codes.Error {
		t.Fatalf("status=%v want=%v", span.status, codes.Error)
	}
}
