package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/thatdecade/ITGmania-Remote-Control-Tests/internal/protocol"
	"github.com/thatdecade/ITGmania-Remote-Control-Tests/internal/protocol/session"
)

const namespace = "itgharness"

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
	sessionRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "requests_total",
			Help:      "Protocol requests by command and outcome.",
		},
		[]string{"command", "outcome"},
	)
	sessionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "request_duration_seconds",
			Help:      "Protocol request latency in seconds.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"command", "outcome"},
	)
	framesReceived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "frames_received_total",
			Help:      "Binary frames received by response kind.",
		},
		[]string{"kind"},
	)
	frameBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "frame_payload_bytes_total",
			Help:      "Payload bytes received by response kind.",
		},
		[]string{"kind"},
	)
	controlMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "control_messages_total",
			Help:      "Text control messages by classification.",
		},
		[]string{"kind"},
	)
	sessionState = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "state",
			Help:      "Connection state: 0 disconnected, 1 connected, 2 ready.",
		},
	)
	cycles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "harness",
			Name:      "cycles_total",
			Help:      "Completed harness cycles by result.",
		},
		[]string{"result"},
	)
	cycleDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "harness",
			Name:      "cycle_duration_seconds",
			Help:      "Harness cycle duration in seconds.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		},
	)
	cases = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "harness",
			Name:      "cases_total",
			Help:      "Harness case results by case name.",
		},
		[]string{"case", "result"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequests, httpDuration,
			sessionRequests, sessionDuration, framesReceived, frameBytes, controlMessages, sessionState,
			cycles, cycleDuration, cases,
		)
	})
}

func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(method, path, statusLabel).Observe(duration.Seconds())
}

func RecordCycle(passed bool, duration time.Duration) {
	RegisterMetrics()
	cycles.WithLabelValues(resultLabel(passed)).Inc()
	cycleDuration.Observe(duration.Seconds())
}

func RecordCase(name string, passed bool) {
	RegisterMetrics()
	cases.WithLabelValues(name, resultLabel(passed)).Inc()
}

func resultLabel(passed bool) string {
	if passed {
		return "pass"
	}
	return "fail"
}

// SessionObserver feeds session events into the process-wide registry.
type SessionObserver struct{}

var _ session.Observer = SessionObserver{}

func NewSessionObserver() SessionObserver {
	RegisterMetrics()
	return SessionObserver{}
}

func (SessionObserver) RequestDone(cmd protocol.Command, outcome string, elapsed time.Duration) {
	sessionRequests.WithLabelValues(cmd.String(), outcome).Inc()
	sessionDuration.WithLabelValues(cmd.String(), outcome).Observe(elapsed.Seconds())
}

func (SessionObserver) FrameReceived(kind protocol.ResponseKind, payloadLen int) {
	framesReceived.WithLabelValues(kind.String()).Inc()
	frameBytes.WithLabelValues(kind.String()).Add(float64(payloadLen))
}

func (SessionObserver) ControlReceived(kind session.ControlKind) {
	controlMessages.WithLabelValues(kind.String()).Inc()
}

func (SessionObserver) StateChanged(state session.State) {
	sessionState.Set(float64(state))
}
