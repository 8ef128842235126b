package protocol

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// GetSongsPayload encodes BE16(maxCount) followed by a NUL-terminated filter.
func GetSongsPayload(maxCount uint16, filter string) ([]byte, error) {
	buf := make([]byte, 2, 2+len(filter)+1)
	binary.BigEndian.PutUint16(buf, maxCount)
	return appendNTString(buf, filter)
}

// StartSongPayload encodes the song directory and difficulty as two
// NUL-terminated strings.
func StartSongPayload(songDir, difficulty string) ([]byte, error) {
	buf, err := appendNTString(nil, songDir)
	if err != nil {
		return nil, fmt.Errorf("song dir: %w", err)
	}
	buf, err = appendNTString(buf, difficulty)
	if err != nil {
		return nil, fmt.Errorf("difficulty: %w", err)
	}
	return buf, nil
}

// PausePayload encodes 1 for pause and 0 for resume.
func PausePayload(paused bool) []byte {
	if paused {
		return []byte{1}
	}
	return []byte{0}
}

func appendNTString(dst []byte, s string) ([]byte, error) {
	if bytes.IndexByte([]byte(s), 0) >= 0 {
		return nil, ErrStringHasNUL
	}
	dst = append(dst, s...)
	return append(dst, 0), nil
}
