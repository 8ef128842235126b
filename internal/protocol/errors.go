package protocol

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidUTF8  = errors.New("protocol: invalid utf-8 payload")
	ErrInvalidJSON  = errors.New("protocol: invalid json payload")
	ErrStringHasNUL = errors.New("protocol: string contains NUL")
)

// DecodeStage names the step of response decoding that failed.
type DecodeStage string

const (
	StageUTF8 DecodeStage = "utf8"
	StageJSON DecodeStage = "json"
)

// DecodeError reports a response payload that could not be turned into a
// JSON value.
type DecodeError struct {
	Stage   DecodeStage
	Payload []byte
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("protocol: decode %s (%d bytes): %v", e.Stage, len(e.Payload), e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
