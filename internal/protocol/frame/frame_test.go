package frame

import (
	"bytes"
	"errors"
	"math/rand"
	"testing"

	"github.com/thatdecade/ITGmania-Remote-Control-Tests/internal/testutil/testlog"
)

func TestEncodeHelloIsThreeBytes(t *testing.T) {
	testlog.Start(t)
	got, err := Encode(0x01, nil)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := []byte{0x00, 0x01, 0x01}
	if !bytes.Equal(got, want) {
		t.Fatalf("got=% x want=% x", got, want)
	}
}

func TestEncodeRejectsOversizedPayload(t *testing.T) {
	testlog.Start(t)
	_, err := Encode(0x12, make([]byte, MaxPayloadLen+1))
	if !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("expected ErrPayloadTooLarge, got %v", err)
	}
	if _, err := Encode(0x12, make([]byte, MaxPayloadLen)); err != nil {
		t.Fatalf("max payload should encode: %v", err)
	}
}

func TestDecoderExtractsMultipleFramesFromOneChunk(t *testing.T) {
	testlog.Start(t)
	d := NewDecoder(0)
	frames, err := d.Feed([]byte{0x00, 0x01, 0x01, 0x00, 0x02, 0x90, 0x7B})
	if err != nil {
		t.Fatalf("feed: %v", err)
	}
	if len(frames) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(frames))
	}
	if frames[0].CommandID != 0x01 || len(frames[0].Payload) != 0 {
		t.Fatalf("unexpected first frame: %+v", frames[0])
	}
	if frames[1].CommandID != 0x90 || !bytes.Equal(frames[1].Payload, []byte{0x7B}) {
		t.Fatalf("unexpected second frame: %+v", frames[1])
	}
	if d.Buffered() != 0 {
		t.Fatalf("expected empty buffer, got %d", d.Buffered())
	}
}

func TestDecoderRetainsPartialFrame(t *testing.T) {
	testlog.Start(t)
	d := NewDecoder(0)
	frames, err := d.Feed([]byte{0x00, 0x03})
	if err != nil || len(frames) != 0 {
		t.Fatalf("header only: frames=%d err=%v", len(frames), err)
	}
	frames, err = d.Feed([]byte{0x92, 'a'})
	if err != nil || len(frames) != 0 {
		t.Fatalf("partial payload: frames=%d err=%v", len(frames), err)
	}
	if d.Buffered() != 4 {
		t.Fatalf("buffered=%d", d.Buffered())
	}
	frames, err = d.Feed([]byte{'b', 0x00})
	if err != nil {
		t.Fatalf("feed: %v", err)
	}
	if len(frames) != 1 || frames[0].CommandID != 0x92 || string(frames[0].Payload) != "ab" {
		t.Fatalf("unexpected frames: %+v", frames)
	}
	if d.Buffered() != 1 {
		t.Fatalf("expected trailing byte retained, buffered=%d", d.Buffered())
	}
}

func TestDecoderArbitrarySplitsPreserveOrder(t *testing.T) {
	testlog.Start(t)
	rng := rand.New(rand.NewSource(42))

	var want []Frame
	var stream []byte
	for i := 0; i < 64; i++ {
		payload := make([]byte, rng.Intn(300))
		rng.Read(payload)
		id := uint8(rng.Intn(256))
		enc, err := Encode(id, payload)
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		stream = append(stream, enc...)
		want = append(want, Frame{CommandID: id, Payload: payload})
	}

	for trial := 0; trial < 20; trial++ {
		d := NewDecoder(0)
		var got []Frame
		rest := stream
		for len(rest) > 0 {
			n := 1 + rng.Intn(40)
			if n > len(rest) {
				n = len(rest)
			}
			frames, err := d.Feed(rest[:n])
			if err != nil {
				t.Fatalf("trial=%d feed: %v", trial, err)
			}
			got = append(got, frames...)
			rest = rest[n:]
		}
		if len(got) != len(want) {
			t.Fatalf("trial=%d got=%d frames want=%d", trial, len(got), len(want))
		}
		for i := range want {
			if got[i].CommandID != want[i].CommandID || !bytes.Equal(got[i].Payload, want[i].Payload) {
				t.Fatalf("trial=%d frame %d mismatch", trial, i)
			}
		}
	}
}

func TestRoundTripAllCommandIDs(t *testing.T) {
	testlog.Start(t)
	sizes := []int{0, 1, 2, 255, 256, 4096, MaxPayloadLen}
	for id := 0; id <= 0xFF; id++ {
		size := sizes[id%len(sizes)]
		payload := bytes.Repeat([]byte{byte(id)}, size)
		enc, err := Encode(uint8(id), payload)
		if err != nil {
			t.Fatalf("encode id=%d: %v", id, err)
		}
		got, n, err := Decode(enc)
		if err != nil {
			t.Fatalf("decode id=%d: %v", id, err)
		}
		if n != len(enc) || got.CommandID != uint8(id) || !bytes.Equal(got.Payload, payload) {
			t.Fatalf("round trip mismatch id=%d size=%d", id, size)
		}
		if got.Len() != 1+size {
			t.Fatalf("len mismatch id=%d: %d", id, got.Len())
		}
	}
}

func TestDecoderZeroLengthIsDeterministic(t *testing.T) {
	testlog.Start(t)
	d := NewDecoder(0)
	frames, err := d.Feed([]byte{0x00, 0x01, 0x81, 0x00, 0x00, 0x90})
	if !errors.Is(err, ErrZeroLength) {
		t.Fatalf("expected ErrZeroLength, got %v", err)
	}
	if len(frames) != 1 || frames[0].CommandID != 0x81 {
		t.Fatalf("frames before fault should be returned: %+v", frames)
	}
}

func TestDecoderOverflow(t *testing.T) {
	testlog.Start(t)
	d := NewDecoder(8)
	_, err := d.Feed([]byte{0x01, 0x00, 0x92, 1, 2, 3, 4, 5, 6, 7})
	if !errors.Is(err, ErrBufferOverflow) {
		t.Fatalf("expected ErrBufferOverflow, got %v", err)
	}
	d.Reset()
	if d.Buffered() != 0 {
		t.Fatalf("reset should drop partial data")
	}
}
