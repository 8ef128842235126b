package frame

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	// LengthPrefixLen is the size of the big-endian length field.
	LengthPrefixLen = 2
	// HeaderLen is the length prefix plus the command id byte.
	HeaderLen = LengthPrefixLen + 1
	// MaxPayloadLen keeps 1+len(payload) inside the uint16 length field.
	MaxPayloadLen = 0xFFFF - 1
)

var (
	ErrPayloadTooLarge = errors.New("frame: payload too large")
	ErrZeroLength      = errors.New("frame: zero length header")
	ErrBufferOverflow  = errors.New("frame: receive buffer overflow")
	ErrIncomplete      = errors.New("frame: incomplete frame")
)

// Frame is one decoded protocol unit.
//
// Wire format:
//
//	┌────────────────────────┬─────────────┬──────────────────────┐
//	│ Length (2 bytes, BE)   │ Command id  │ Payload (Length - 1) │
//	└────────────────────────┴─────────────┴──────────────────────┘
type Frame struct {
	CommandID uint8
	Payload   []byte
}

// Len returns the value carried in the length field.
func (f Frame) Len() int {
	return 1 + len(f.Payload)
}

// Encode builds BE16(1+len(payload)) ++ commandID ++ payload.
func Encode(commandID uint8, payload []byte) ([]byte, error) {
	if len(payload) > MaxPayloadLen {
		return nil, fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, len(payload))
	}
	buf := make([]byte, HeaderLen+len(payload))
	binary.BigEndian.PutUint16(buf[0:LengthPrefixLen], uint16(1+len(payload)))
	buf[LengthPrefixLen] = commandID
	copy(buf[HeaderLen:], payload)
	return buf, nil
}

// Decode parses exactly one complete frame from the front of b and
// returns it with the number of bytes consumed. It returns ErrIncomplete
// when b does not yet hold a whole frame.
func Decode(b []byte) (Frame, int, error) {
	if len(b) < HeaderLen {
		return Frame{}, 0, ErrIncomplete
	}
	length := int(binary.BigEndian.Uint16(b[0:LengthPrefixLen]))
	if length == 0 {
		return Frame{}, 0, ErrZeroLength
	}
	total := LengthPrefixLen + length
	if len(b) < total {
		return Frame{}, 0, ErrIncomplete
	}
	var payload []byte
	if length > 1 {
		payload = make([]byte, length-1)
		copy(payload, b[HeaderLen:total])
	} else {
		payload = []byte{}
	}
	return Frame{CommandID: b[LengthPrefixLen], Payload: payload}, total, nil
}
