package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/thatdecade/ITGmania-Remote-Control-Tests/internal/protocol"
	"github.com/thatdecade/ITGmania-Remote-Control-Tests/internal/protocol/frame"
)

// Request sends one cmd frame and waits for exactly one of: the next
// payload of kind expect, the next ERROR payload, or the deadline.
//
// timeout bounds the whole call, including the wait for another request
// of the same kind to finish. A response that arrives after the deadline
// stays queued for the next request of that kind.
func (s *Session) Request(
	ctx context.Context,
	cmd protocol.Command,
	expect protocol.ResponseKind,
	payload []byte,
	timeout time.Duration,
) (json.RawMessage, error) {
	start := s.clock.Now()
	resp, outcome, err := s.request(ctx, cmd, expect, payload, timeout)
	s.observer.RequestDone(cmd, outcome, s.clock.Now().Sub(start))
	return resp, err
}

func (s *Session) request(
	ctx context.Context,
	cmd protocol.Command,
	expect protocol.ResponseKind,
	payload []byte,
	timeout time.Duration,
) (json.RawMessage, string, error) {
	if expect == protocol.RspError {
		return nil, OutcomeSendError, ErrNoResponseKind
	}
	s.mu.Lock()
	c := s.conn
	s.mu.Unlock()
	if c == nil {
		return nil, OutcomeNotConnected, ErrNotConnected
	}

	packet, err := frame.Encode(uint8(cmd), payload)
	if err != nil {
		return nil, OutcomeSendError, err
	}
	if timeout <= 0 {
		timeout = s.cfg.RequestTimeout
	}
	deadline := s.clock.Now().Add(timeout)
	timer := s.clock.NewTimer(timeout)
	defer timer.Stop()

	release, err := s.acquire(ctx, c, expect, timer.Chan())
	if err != nil {
		return nil, outcomeFor(err), s.waitError(cmd, expect, timeout, err)
	}
	defer release()

	s.logger.Debug().Str("conn", c.id).Msgf("SEND 0x%02X expecting 0x%02X", uint8(cmd), uint8(expect))
	sentAt := s.clock.Now()
	s.sendMu.Lock()
	err = c.transport.Send(ctx, packet)
	s.sendMu.Unlock()
	if err != nil {
		return nil, OutcomeSendError, fmt.Errorf("session: send %s: %w", cmd, err)
	}

	s.inflight.Upsert(PendingRequest{
		Command:      cmd,
		Expect:       expect,
		ConnectionID: c.id,
		SentAt:       sentAt,
		DeadlineAt:   deadline,
	})
	defer s.inflight.Remove(expect)

	body, remote, err := c.router.Await(ctx, expect, timer.Chan())
	if err != nil {
		return nil, outcomeFor(err), s.waitError(cmd, expect, timeout, err)
	}
	if remote {
		remoteErr := &RemoteError{Command: cmd, Raw: body}
		if decoded, err := protocol.DecodeResponse(body); err == nil {
			remoteErr.Payload = decoded
		}
		s.logger.Warn().Str("conn", c.id).Stringer("command", cmd).Msg(remoteErr.Error())
		return nil, OutcomeRemoteError, remoteErr
	}
	resp, err := protocol.DecodeResponse(body)
	if err != nil {
		return nil, OutcomeDecodeError, err
	}
	return resp, OutcomeOK, nil
}

// acquire takes the per-kind permit so responses of one kind are never
// raced by two requests.
func (s *Session) acquire(
	ctx context.Context,
	c *connection,
	kind protocol.ResponseKind,
	deadline <-chan time.Time,
) (func(), error) {
	s.mu.Lock()
	permit, ok := s.permits[kind]
	if !ok {
		permit = make(chan struct{}, 1)
		s.permits[kind] = permit
	}
	s.mu.Unlock()

	select {
	case permit <- struct{}{}:
		return func() { <-permit }, nil
	case <-deadline:
		return nil, ErrTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.router.done:
		return nil, ErrTransportClosed
	}
}

func (s *Session) waitError(cmd protocol.Command, expect protocol.ResponseKind, timeout time.Duration, err error) error {
	if errors.Is(err, ErrTimeout) {
		return fmt.Errorf("%w: 0x%02X (%s) after %s for %s", ErrTimeout, uint8(expect), expect, timeout, cmd)
	}
	return err
}

func outcomeFor(err error) string {
	switch {
	case errors.Is(err, ErrTimeout):
		return OutcomeTimeout
	case errors.Is(err, ErrTransportClosed):
		return OutcomeClosed
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return OutcomeCanceled
	default:
		return OutcomeSendError
	}
}

// HelloWithRetry performs the handshake up to maxAttempts times using the
// HelloTimeouts schedule, waiting HelloPause between failures.
// maxAttempts <= 0 uses Config.HelloMaxAttempts.
func (s *Session) HelloWithRetry(ctx context.Context, maxAttempts int) (json.RawMessage, error) {
	if maxAttempts <= 0 {
		maxAttempts = s.cfg.HelloMaxAttempts
	}
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		timeout := s.cfg.HelloTimeout(attempt)
		resp, err := s.Request(ctx, protocol.CmdHello, protocol.RspHello, nil, timeout)
		if err == nil {
			return resp, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
		s.logger.Warn().Msgf("HELLO attempt %d/%d failed: %v", attempt, maxAttempts, err)
		if attempt == maxAttempts {
			break
		}
		if err := s.pause(ctx, s.cfg.HelloPause); err != nil {
			return nil, err
		}
	}
	return nil, &HandshakeError{Attempts: maxAttempts, Err: lastErr}
}

func (s *Session) pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := s.clock.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.Chan():
		return nil
	}
}
