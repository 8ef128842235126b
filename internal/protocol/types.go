package protocol

import "fmt"

// Command identifies an outbound request.
type Command uint8

const (
	CmdHello     Command = 0x01
	CmdGetStatus Command = 0x10
	CmdGetGroups Command = 0x11
	CmdGetSongs  Command = 0x12
	CmdStartSong Command = 0x20
	CmdPause     Command = 0x21
	CmdStop      Command = 0x22
)

func (c Command) String() string {
	switch c {
	case CmdHello:
		return "HELLO"
	case CmdGetStatus:
		return "GET_STATUS"
	case CmdGetGroups:
		return "GET_GROUPS"
	case CmdGetSongs:
		return "GET_SONGS"
	case CmdStartSong:
		return "START_SONG"
	case CmdPause:
		return "PAUSE"
	case CmdStop:
		return "STOP"
	default:
		return fmt.Sprintf("0x%02X", uint8(c))
	}
}

// ResponseKind identifies an inbound frame.
type ResponseKind uint8

const (
	RspHello     ResponseKind = 0x81
	RspGetStatus ResponseKind = 0x90
	RspGetGroups ResponseKind = 0x91
	RspGetSongs  ResponseKind = 0x92
	RspStartSong ResponseKind = 0xA0
	RspPause     ResponseKind = 0xA1
	RspStop      ResponseKind = 0xA2

	// RspError is reserved for out-of-band errors and never matches a
	// request's expected kind.
	RspError ResponseKind = 0xFF
)

func (k ResponseKind) String() string {
	switch k {
	case RspHello:
		return "HELLO"
	case RspGetStatus:
		return "GET_STATUS"
	case RspGetGroups:
		return "GET_GROUPS"
	case RspGetSongs:
		return "GET_SONGS"
	case RspStartSong:
		return "START_SONG"
	case RspPause:
		return "PAUSE"
	case RspStop:
		return "STOP"
	case RspError:
		return "ERROR"
	default:
		return fmt.Sprintf("0x%02X", uint8(k))
	}
}

// ResponseFor returns the response kind paired with c.
func ResponseFor(c Command) (ResponseKind, bool) {
	switch c {
	case CmdHello:
		return RspHello, true
	case CmdGetStatus:
		return RspGetStatus, true
	case CmdGetGroups:
		return RspGetGroups, true
	case CmdGetSongs:
		return RspGetSongs, true
	case CmdStartSong:
		return RspStartSong, true
	case CmdPause:
		return RspPause, true
	case CmdStop:
		return RspStop, true
	default:
		return 0, false
	}
}
