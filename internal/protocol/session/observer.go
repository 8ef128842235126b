package session

import (
	"time"

	"github.com/thatdecade/ITGmania-Remote-Control-Tests/internal/protocol"
)

// Request outcomes reported to an Observer.
const (
	OutcomeOK           = "ok"
	OutcomeRemoteError  = "remote_error"
	OutcomeTimeout      = "timeout"
	OutcomeNotConnected = "not_connected"
	OutcomeClosed       = "closed"
	OutcomeDecodeError  = "decode_error"
	OutcomeSendError    = "send_error"
	OutcomeCanceled     = "canceled"
)

// Observer receives session events for metrics. Implementations must be
// safe for concurrent use and must not block.
type Observer interface {
	RequestDone(cmd protocol.Command, outcome string, elapsed time.Duration)
	FrameReceived(kind protocol.ResponseKind, payloadLen int)
	ControlReceived(kind ControlKind)
	StateChanged(state State)
}

type nopObserver struct{}

func (nopObserver) RequestDone(protocol.Command, string, time.Duration) {}
func (nopObserver) FrameReceived(protocol.ResponseKind, int)            {}
func (nopObserver) ControlReceived(ControlKind)                         {}
func (nopObserver) StateChanged(State)                                  {}
