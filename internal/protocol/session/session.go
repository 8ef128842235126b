package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/thatdecade/ITGmania-Remote-Control-Tests/internal/clock"
	"github.com/thatdecade/ITGmania-Remote-Control-Tests/internal/protocol"
	"github.com/thatdecade/ITGmania-Remote-Control-Tests/internal/protocol/frame"
)

// Option customizes a Session.
type Option func(*Session)

// WithClock injects the time source used for deadlines and retry pauses.
func WithClock(c clock.Clock) Option {
	return func(s *Session) { s.clock = c }
}

// WithLogger replaces the session logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithObserver installs a metrics observer.
func WithObserver(o Observer) Option {
	return func(s *Session) {
		if o != nil {
			s.observer = o
		}
	}
}

// connection is the per-attach state. It is discarded wholesale on the
// next Attach.
type connection struct {
	id         string
	transport  Transport
	router     *ResponseRouter
	decoder    *frame.Decoder
	attachedAt time.Time
}

// Session binds at most one Transport at a time and correlates requests
// with responses on it.
type Session struct {
	cfg      Config
	clock    clock.Clock
	logger   zerolog.Logger
	observer Observer
	inflight *InflightTable

	mu      sync.Mutex
	conn    *connection
	life    lifecycle
	permits map[protocol.ResponseKind]chan struct{}
	sendMu  sync.Mutex
}

func New(cfg Config, opts ...Option) *Session {
	s := &Session{
		cfg:      cfg.WithDefaults(),
		clock:    clock.Real(),
		logger:   log.Logger.With().Str("component", "session").Logger(),
		observer: nopObserver{},
		inflight: NewInflightTable(),
		life:     newLifecycle(),
		permits:  make(map[protocol.ResponseKind]chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Config returns the resolved session config.
func (s *Session) Config() Config {
	return s.cfg
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.life.state
}

// ConnectionID returns the id of the attached connection, or "".
func (s *Session) ConnectionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return ""
	}
	return s.conn.id
}

// Attach binds t as the active transport with fresh queues and an empty
// receive buffer. A previously attached transport is closed and its
// pending requests fail with ErrTransportClosed. It returns the new
// connection id.
func (s *Session) Attach(t Transport) string {
	return s.attach(t).id
}

func (s *Session) attach(t Transport) *connection {
	c := &connection{
		id:         uuid.NewString(),
		transport:  t,
		router:     NewResponseRouter(),
		decoder:    frame.NewDecoder(s.cfg.MaxBufferedBytes),
		attachedAt: s.clock.Now(),
	}

	s.mu.Lock()
	prev := s.conn
	s.conn = c
	s.life.attach()
	s.mu.Unlock()

	if prev != nil {
		s.logger.Warn().Str("conn", prev.id).Msg("replacing attached transport")
		prev.router.Close(ErrTransportClosed)
		_ = prev.transport.Close()
	}
	s.logger.Info().Str("conn", c.id).Msg("CONNECTED")
	s.observer.StateChanged(StateConnected)
	return c
}

// Detach clears Connected and Ready and fails every in-flight request on
// the current connection with ErrTransportClosed.
func (s *Session) Detach() {
	s.mu.Lock()
	c := s.conn
	s.mu.Unlock()
	if c != nil {
		s.detachConn(c)
	}
}

// detachConn only acts when c is still the attached connection, so a
// receive loop winding down after a replacement cannot detach its successor.
func (s *Session) detachConn(c *connection) {
	s.mu.Lock()
	if s.conn != c {
		s.mu.Unlock()
		return
	}
	s.conn = nil
	changed := s.life.detach()
	s.mu.Unlock()

	c.router.Close(ErrTransportClosed)
	if changed {
		s.observer.StateChanged(StateDisconnected)
	}
}

// Serve attaches t and runs its receive loop until the transport closes
// or ctx ends. The session is always detached from t on return.
func (s *Session) Serve(ctx context.Context, t Transport) error {
	return s.receive(ctx, s.attach(t))
}

// Receive runs the receive loop for the currently attached transport.
func (s *Session) Receive(ctx context.Context) error {
	s.mu.Lock()
	c := s.conn
	s.mu.Unlock()
	if c == nil {
		return ErrNotConnected
	}
	return s.receive(ctx, c)
}

func (s *Session) receive(ctx context.Context, c *connection) error {
	defer s.detachConn(c)

	for {
		msg, err := c.transport.Recv(ctx)
		if err != nil {
			var closed *ClosedError
			switch {
			case errors.As(err, &closed):
				s.logger.Info().Str("conn", c.id).Int("code", closed.Code).Str("reason", closed.Reason).Msg("DISCONNECTED")
			case ctx.Err() != nil:
				_ = c.transport.Close()
				return ctx.Err()
			default:
				s.logger.Warn().Str("conn", c.id).Err(err).Msg("DISCONNECTED receive failed")
			}
			return err
		}

		switch msg.Type {
		case MessageText:
			s.handleText(c, string(msg.Data))
		case MessageBinary:
			if err := s.handleBinary(c, msg.Data); err != nil {
				s.logger.Error().Str("conn", c.id).Err(err).Msg("stream desynchronized, closing transport")
				_ = c.transport.Close()
				return err
			}
		default:
			s.logger.Warn().Str("conn", c.id).Int("type", int(msg.Type)).Msg("ignoring message of unknown type")
		}
	}
}

func (s *Session) handleText(c *connection, text string) {
	ctl := ClassifyControl(text, s.cfg.HeartbeatMarker, s.cfg.ScreenMarker)
	s.observer.ControlReceived(ctl.Kind)
	switch ctl.Kind {
	case ControlHeartbeat:
		s.logger.Info().Msg(text)
		s.markReady(c)
	case ControlScreen:
		s.logger.Info().Msg(text)
	default:
		s.logger.Info().Msg("TEXT|" + text)
	}
}

func (s *Session) markReady(c *connection) {
	s.mu.Lock()
	if s.conn != c {
		s.mu.Unlock()
		return
	}
	changed := s.life.heartbeat()
	s.mu.Unlock()
	if changed {
		s.logger.Debug().Str("conn", c.id).Msg("session ready")
		s.observer.StateChanged(StateReady)
	}
}

func (s *Session) handleBinary(c *connection, data []byte) error {
	frames, err := c.decoder.Feed(data)
	for _, f := range frames {
		kind := protocol.ResponseKind(f.CommandID)
		s.observer.FrameReceived(kind, len(f.Payload))
		s.logger.Debug().Str("conn", c.id).Stringer("kind", kind).Int("bytes", len(f.Payload)).Msg("RECV")
		c.router.Dispatch(kind, f.Payload)
	}
	if err != nil {
		return fmt.Errorf("session: receive stream: %w", err)
	}
	return nil
}

// Snapshot is a point-in-time view of the session for diagnostics.
type Snapshot struct {
	State        string           `json:"state"`
	ConnectionID string           `json:"connection_id,omitempty"`
	AttachedAt   *time.Time       `json:"attached_at,omitempty"`
	Queued       map[string]int   `json:"queued,omitempty"`
	Inflight     []InflightReport `json:"inflight"`
}

// InflightReport is the JSON form of a PendingRequest.
type InflightReport struct {
	Command    string    `json:"command"`
	Expect     string    `json:"expect"`
	SentAt     time.Time `json:"sent_at"`
	DeadlineAt time.Time `json:"deadline_at"`
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	c := s.conn
	st := s.life.state
	s.mu.Unlock()

	out := Snapshot{State: st.String(), Inflight: []InflightReport{}}
	if c != nil {
		out.ConnectionID = c.id
		at := c.attachedAt
		out.AttachedAt = &at
		out.Queued = make(map[string]int)
		for kind, n := range c.router.Snapshot() {
			if n > 0 {
				out.Queued[kind.String()] = n
			}
		}
	}
	for _, p := range s.inflight.List() {
		out.Inflight = append(out.Inflight, InflightReport{
			Command:    p.Command.String(),
			Expect:     p.Expect.String(),
			SentAt:     p.SentAt,
			DeadlineAt: p.DeadlineAt,
		})
	}
	return out
}
