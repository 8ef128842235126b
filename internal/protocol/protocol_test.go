package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"testing"

	"github.com/thatdecade/ITGmania-Remote-Control-Tests/internal/testutil/testlog"
)

var errTruncated = errors.New("truncated payload")

func parseGetSongsPayload(b []byte) (uint16, string, error) {
	if len(b) < 2 {
		return 0, "", errTruncated
	}
	filter, rest, err := readNTString(b[2:])
	if err != nil {
		return 0, "", err
	}
	if len(rest) != 0 {
		return 0, "", fmt.Errorf("%w: %d trailing bytes", errTruncated, len(rest))
	}
	return binary.BigEndian.Uint16(b[:2]), filter, nil
}

func parseStartSongPayload(b []byte) (string, string, error) {
	songDir, rest, err := readNTString(b)
	if err != nil {
		return "", "", err
	}
	difficulty, _, err := readNTString(rest)
	if err != nil {
		return "", "", err
	}
	return songDir, difficulty, nil
}

func readNTString(b []byte) (string, []byte, error) {
	i := bytes.IndexByte(b, 0)
	if i < 0 {
		return "", nil, errTruncated
	}
	return string(b[:i]), b[i+1:], nil
}

func TestGetSongsPayloadDefaultRequest(t *testing.T) {
	testlog.Start(t)
	got, err := GetSongsPayload(200, "")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := []byte{0x00, 0xC8, 0x00}
	if !bytes.Equal(got, want) {
		t.Fatalf("got=% x want=% x", got, want)
	}
	maxCount, filter, err := parseGetSongsPayload(got)
	if err != nil || maxCount != 200 || filter != "" {
		t.Fatalf("parse got max=%d filter=%q err=%v", maxCount, filter, err)
	}
}

func TestStartSongPayload(t *testing.T) {
	testlog.Start(t)
	got, err := StartSongPayload("Songs/Pack/Song", "Difficulty_Easy")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := append([]byte("Songs/Pack/Song\x00"), []byte("Difficulty_Easy\x00")...)
	if !bytes.Equal(got, want) {
		t.Fatalf("got=%q want=%q", got, want)
	}
	dir, diff, err := parseStartSongPayload(got)
	if err != nil || dir != "Songs/Pack/Song" || diff != "Difficulty_Easy" {
		t.Fatalf("parse got dir=%q diff=%q err=%v", dir, diff, err)
	}
}

func TestPayloadStringsRejectNUL(t *testing.T) {
	testlog.Start(t)
	if _, err := StartSongPayload("bad\x00dir", "x"); !errors.Is(err, ErrStringHasNUL) {
		t.Fatalf("expected ErrStringHasNUL, got %v", err)
	}
	if _, err := GetSongsPayload(1, "a\x00"); !errors.Is(err, ErrStringHasNUL) {
		t.Fatalf("expected ErrStringHasNUL, got %v", err)
	}
}

func TestPausePayload(t *testing.T) {
	testlog.Start(t)
	if got := PausePayload(true); !bytes.Equal(got, []byte{1}) {
		t.Fatalf("pause got=% x", got)
	}
	if got := PausePayload(false); !bytes.Equal(got, []byte{0}) {
		t.Fatalf("resume got=% x", got)
	}
}

func TestDecodeResponseStripsTrailingNUL(t *testing.T) {
	testlog.Start(t)
	raw, err := DecodeResponse([]byte(`{"ok":true}` + "\x00"))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(raw) != `{"ok":true}` {
		t.Fatalf("unexpected raw: %s", raw)
	}
	raw, err = DecodeResponse([]byte(`[1,2]`))
	if err != nil || string(raw) != `[1,2]` {
		t.Fatalf("no NUL: raw=%s err=%v", raw, err)
	}
}

func TestDecodeResponseErrorsAreTyped(t *testing.T) {
	testlog.Start(t)
	_, err := DecodeResponse([]byte{0xff, 0xfe})
	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) || decodeErr.Stage != StageUTF8 || !errors.Is(err, ErrInvalidUTF8) {
		t.Fatalf("expected utf8 DecodeError, got %v", err)
	}
	_, err = DecodeResponse([]byte(`{"ok":`))
	if !errors.As(err, &decodeErr) || decodeErr.Stage != StageJSON || !errors.Is(err, ErrInvalidJSON) {
		t.Fatalf("expected json DecodeError, got %v", err)
	}
	_, err = DecodeResponse(nil)
	if !errors.Is(err, ErrInvalidJSON) {
		t.Fatalf("empty payload should be invalid json, got %v", err)
	}
}

func TestResponseFor(t *testing.T) {
	testlog.Start(t)
	pairs := map[Command]ResponseKind{
		CmdHello:     RspHello,
		CmdGetStatus: RspGetStatus,
		CmdGetGroups: RspGetGroups,
		CmdGetSongs:  RspGetSongs,
		CmdStartSong: RspStartSong,
		CmdPause:     RspPause,
		CmdStop:      RspStop,
	}
	for cmd, want := range pairs {
		got, ok := ResponseFor(cmd)
		if !ok || got != want {
			t.Fatalf("ResponseFor(%s) got=%s ok=%v want=%s", cmd, got, ok, want)
		}
	}
	if _, ok := ResponseFor(Command(0x7F)); ok {
		t.Fatalf("unknown command should not map")
	}
	if RspError.String() != "ERROR" || Command(0x7F).String() != "0x7F" {
		t.Fatalf("unexpected names: %s %s", RspError, Command(0x7F))
	}
}
