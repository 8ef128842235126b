package session

import "strings"

// ControlKind classifies an inbound text message.
type ControlKind int

const (
	ControlOther ControlKind = iota
	ControlHeartbeat
	ControlScreen
)

func (k ControlKind) String() string {
	switch k {
	case ControlHeartbeat:
		return "heartbeat"
	case ControlScreen:
		return "screen"
	default:
		return "text"
	}
}

// ControlMessage is a classified control-plane text message. Body is the
// text after the marker; for ControlOther it is the whole message.
type ControlMessage struct {
	Kind ControlKind
	Text string
	Body string
}

// ClassifyControl matches text against the heartbeat and screen markers
// by prefix. The content after the marker is not parsed.
func ClassifyControl(text string, heartbeatMarker, screenMarker string) ControlMessage {
	switch {
	case heartbeatMarker != "" && strings.HasPrefix(text, heartbeatMarker):
		return ControlMessage{Kind: ControlHeartbeat, Text: text, Body: strings.TrimPrefix(text, heartbeatMarker)}
	case screenMarker != "" && strings.HasPrefix(text, screenMarker):
		return ControlMessage{Kind: ControlScreen, Text: text, Body: strings.TrimPrefix(text, screenMarker)}
	default:
		return ControlMessage{Kind: ControlOther, Text: text, Body: text}
	}
}
