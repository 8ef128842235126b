package session

import (
	"context"
	"fmt"
)

// MessageType distinguishes control text from binary protocol data.
type MessageType int

const (
	MessageText MessageType = iota + 1
	MessageBinary
)

func (t MessageType) String() string {
	switch t {
	case MessageText:
		return "text"
	case MessageBinary:
		return "binary"
	default:
		return "unknown"
	}
}

// Message is one inbound delivery from the transport.
type Message struct {
	Type MessageType
	Data []byte
}

// Transport is the bidirectional channel a Session drives. Recv is only
// ever called from the receive loop; Send may be called concurrently with
// Recv but is serialized by the Session per request.
type Transport interface {
	Send(ctx context.Context, data []byte) error
	// Recv blocks for the next inbound message. When the remote side
	// closes it returns a *ClosedError.
	Recv(ctx context.Context) (Message, error)
	Close() error
}

// ClosedError is the transport's closed notification.
type ClosedError struct {
	Code   int
	Reason string
}

func (e *ClosedError) Error() string {
	return fmt.Sprintf("session: transport closed code=%d reason=%q", e.Code, e.Reason)
}

func (e *ClosedError) Is(target error) bool {
	return target == ErrTransportClosed
}
