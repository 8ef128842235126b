package protocol

import (
	"bytes"
	"encoding/json"
	"unicode/utf8"
)

// DecodeResponse strips one optional trailing NUL, checks UTF-8, and
// validates the remainder as a single JSON value.
func DecodeResponse(payload []byte) (json.RawMessage, error) {
	body := bytes.TrimSuffix(payload, []byte{0})
	if !utf8.Valid(body) {
		return nil, &DecodeError{Stage: StageUTF8, Payload: payload, Err: ErrInvalidUTF8}
	}
	if !json.Valid(body) {
		return nil, &DecodeError{Stage: StageJSON, Payload: payload, Err: ErrInvalidJSON}
	}
	out := make(json.RawMessage, len(body))
	copy(out, body)
	return out, nil
}
