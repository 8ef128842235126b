package itg

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/thatdecade/ITGmania-Remote-Control-Tests/internal/protocol"
	"github.com/thatdecade/ITGmania-Remote-Control-Tests/internal/protocol/session"
)

// Per-command bounds used by the harness.
const (
	StatusTimeout    = 10 * time.Second
	GroupsTimeout    = 10 * time.Second
	SongsTimeout     = 30 * time.Second
	StartSongTimeout = 15 * time.Second
	PauseTimeout     = 10 * time.Second
	StopTimeout      = 15 * time.Second

	DefaultSongLimit = 200
)

// Requester is the part of session.Session the client needs.
type Requester interface {
	Request(ctx context.Context, cmd protocol.Command, expect protocol.ResponseKind, payload []byte, timeout time.Duration) (json.RawMessage, error)
	HelloWithRetry(ctx context.Context, maxAttempts int) (json.RawMessage, error)
}

var _ Requester = (*session.Session)(nil)

// Client issues typed remote-control commands over a session.
type Client struct {
	r Requester
}

func NewClient(r Requester) *Client {
	return &Client{r: r}
}

// Hello performs the handshake with the session's retry schedule.
func (c *Client) Hello(ctx context.Context) (Ack, error) {
	raw, err := c.r.HelloWithRetry(ctx, 0)
	if err != nil {
		return Ack{}, err
	}
	return decodeAck(protocol.CmdHello, raw)
}

func (c *Client) Status(ctx context.Context) (Status, error) {
	raw, err := c.r.Request(ctx, protocol.CmdGetStatus, protocol.RspGetStatus, nil, StatusTimeout)
	if err != nil {
		return Status{}, err
	}
	var out StatusResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return Status{}, fmt.Errorf("itg: decode %s: %w", protocol.CmdGetStatus, err)
	}
	return out.Status, nil
}

func (c *Client) Groups(ctx context.Context) ([]string, error) {
	raw, err := c.r.Request(ctx, protocol.CmdGetGroups, protocol.RspGetGroups, nil, GroupsTimeout)
	if err != nil {
		return nil, err
	}
	var out GroupsResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("itg: decode %s: %w", protocol.CmdGetGroups, err)
	}
	return out.Groups, nil
}

// Songs lists up to limit songs whose title matches filter; an empty
// filter matches everything. limit <= 0 uses DefaultSongLimit.
func (c *Client) Songs(ctx context.Context, limit int, filter string) ([]Song, error) {
	if limit <= 0 || limit > 0xFFFF {
		limit = DefaultSongLimit
	}
	payload, err := protocol.GetSongsPayload(uint16(limit), filter)
	if err != nil {
		return nil, err
	}
	raw, err := c.r.Request(ctx, protocol.CmdGetSongs, protocol.RspGetSongs, payload, SongsTimeout)
	if err != nil {
		return nil, err
	}
	var out SongsResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("itg: decode %s: %w", protocol.CmdGetSongs, err)
	}
	return out.Songs, nil
}

func (c *Client) StartSong(ctx context.Context, songDir, difficulty string) (Ack, error) {
	payload, err := protocol.StartSongPayload(songDir, difficulty)
	if err != nil {
		return Ack{}, err
	}
	return c.ack(ctx, protocol.CmdStartSong, protocol.RspStartSong, payload, StartSongTimeout)
}

func (c *Client) Pause(ctx context.Context) (Ack, error) {
	return c.ack(ctx, protocol.CmdPause, protocol.RspPause, protocol.PausePayload(true), PauseTimeout)
}

func (c *Client) Resume(ctx context.Context) (Ack, error) {
	return c.ack(ctx, protocol.CmdPause, protocol.RspPause, protocol.PausePayload(false), PauseTimeout)
}

func (c *Client) Stop(ctx context.Context) (Ack, error) {
	return c.ack(ctx, protocol.CmdStop, protocol.RspStop, nil, StopTimeout)
}

func (c *Client) ack(ctx context.Context, cmd protocol.Command, expect protocol.ResponseKind, payload []byte, timeout time.Duration) (Ack, error) {
	raw, err := c.r.Request(ctx, cmd, expect, payload, timeout)
	if err != nil {
		return Ack{}, err
	}
	return decodeAck(cmd, raw)
}

func decodeAck(cmd protocol.Command, raw json.RawMessage) (Ack, error) {
	out := Ack{Raw: raw}
	if err := json.Unmarshal(raw, &out); err != nil {
		// Non-object replies carry no "ok" member.
		var v any
		if json.Unmarshal(raw, &v) == nil {
			return out, nil
		}
		return Ack{}, fmt.Errorf("itg: decode %s: %w", cmd, err)
	}
	return out, nil
}
