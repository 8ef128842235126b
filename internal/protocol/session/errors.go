package session

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/thatdecade/ITGmania-Remote-Control-Tests/internal/protocol"
)

var (
	ErrNotConnected    = errors.New("session: not connected")
	ErrTimeout         = errors.New("session: timed out waiting for response")
	ErrTransportClosed = errors.New("session: transport closed")
	ErrHandshakeFailed = errors.New("session: handshake failed")
	ErrNoResponseKind  = errors.New("session: error kind cannot be awaited")
)

// RemoteError carries an ERROR frame that won the race against the
// expected response. Payload holds the decoded JSON value; when the error
// payload itself was not valid JSON, Payload is nil and Raw holds the bytes.
type RemoteError struct {
	Command protocol.Command
	Payload json.RawMessage
	Raw     []byte
}

func (e *RemoteError) Error() string {
	if e.Payload != nil {
		return fmt.Sprintf("session: remote error for %s: %s", e.Command, e.Payload)
	}
	return fmt.Sprintf("session: remote error for %s: undecodable payload %q", e.Command, e.Raw)
}

// HandshakeError is the terminal failure of the hello retry loop.
type HandshakeError struct {
	Attempts int
	Err      error
}

func (e *HandshakeError) Error() string {
	return fmt.Sprintf("session: HELLO failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *HandshakeError) Unwrap() error {
	return e.Err
}

func (e *HandshakeError) Is(target error) bool {
	return target == ErrHandshakeFailed
}
