package ws

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/thatdecade/ITGmania-Remote-Control-Tests/internal/protocol/session"
)

const (
	DefaultWriteTimeout    = 10 * time.Second
	DefaultMaxMessageBytes = 1 << 20
)

// Conn adapts a gorilla websocket connection to session.Transport.
// Outbound protocol frames are sent as binary messages.
type Conn struct {
	conn         *websocket.Conn
	writeTimeout time.Duration

	writeMu   sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

var _ session.Transport = (*Conn)(nil)

func NewConn(conn *websocket.Conn, writeTimeout time.Duration, maxMessageBytes int64) *Conn {
	if writeTimeout <= 0 {
		writeTimeout = DefaultWriteTimeout
	}
	if maxMessageBytes <= 0 {
		maxMessageBytes = DefaultMaxMessageBytes
	}
	conn.SetReadLimit(maxMessageBytes)
	return &Conn{conn: conn, writeTimeout: writeTimeout}
}

func (c *Conn) Send(ctx context.Context, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	deadline := time.Now().Add(c.writeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = c.conn.SetWriteDeadline(deadline)
	if err := c.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
		return closedFrom(err)
	}
	return nil
}

// Recv reads the next text or binary message. Cancelling ctx unblocks a
// pending read by expiring the read deadline.
func (c *Conn) Recv(ctx context.Context) (session.Message, error) {
	stop := context.AfterFunc(ctx, func() {
		_ = c.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	for {
		kind, data, err := c.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return session.Message{}, ctx.Err()
			}
			return session.Message{}, closedFrom(err)
		}
		switch kind {
		case websocket.TextMessage:
			return session.Message{Type: session.MessageText, Data: data}, nil
		case websocket.BinaryMessage:
			return session.Message{Type: session.MessageBinary, Data: data}, nil
		}
	}
}

// Close sends a normal close frame and releases the socket. It is safe to
// call more than once.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.writeMu.Lock()
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		c.writeMu.Unlock()
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}

// closedFrom maps a gorilla read or write failure to the session's closed
// notification. A failed websocket is never usable again, so every error
// is terminal.
func closedFrom(err error) error {
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		return &session.ClosedError{Code: ce.Code, Reason: ce.Text}
	}
	return &session.ClosedError{Code: websocket.CloseAbnormalClosure, Reason: err.Error()}
}
