package frame

import (
	"errors"
	"fmt"
)

// DefaultMaxBuffered bounds the bytes a Decoder holds while waiting for
// the rest of a frame. One maximal frame plus a full second header fits.
const DefaultMaxBuffered = 2 * (LengthPrefixLen + 0xFFFF)

// Decoder reassembles frames from a byte stream delivered in arbitrary
// chunks. Partial trailing bytes are retained across Feed calls.
// A Decoder is not safe for concurrent use.
type Decoder struct {
	buf         []byte
	maxBuffered int
}

// NewDecoder returns a Decoder that fails once more than maxBuffered
// bytes are pending. maxBuffered <= 0 selects DefaultMaxBuffered.
func NewDecoder(maxBuffered int) *Decoder {
	if maxBuffered <= 0 {
		maxBuffered = DefaultMaxBuffered
	}
	return &Decoder{maxBuffered: maxBuffered}
}

// Feed appends chunk to the accumulator and returns every frame that is
// now complete, in stream order. On error the frames decoded before the
// fault are still returned; the stream is unusable afterwards.
func (d *Decoder) Feed(chunk []byte) ([]Frame, error) {
	d.buf = append(d.buf, chunk...)

	var out []Frame
	consumed := 0
	for {
		f, n, err := Decode(d.buf[consumed:])
		if errors.Is(err, ErrIncomplete) {
			break
		}
		if err != nil {
			d.compact(consumed)
			return out, err
		}
		consumed += n
		out = append(out, f)
	}
	d.compact(consumed)

	if len(d.buf) > d.maxBuffered {
		return out, fmt.Errorf("%w: %d bytes pending", ErrBufferOverflow, len(d.buf))
	}
	return out, nil
}

// Buffered returns the number of bytes waiting for the rest of a frame.
func (d *Decoder) Buffered() int {
	return len(d.buf)
}

// Reset discards any partial data.
func (d *Decoder) Reset() {
	d.buf = nil
}

func (d *Decoder) compact(consumed int) {
	if consumed == 0 {
		return
	}
	remaining := copy(d.buf, d.buf[consumed:])
	d.buf = d.buf[:remaining]
}
