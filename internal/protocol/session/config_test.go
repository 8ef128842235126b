package session

import (
	"errors"
	"testing"
	"time"

	"github.com/thatdecade/ITGmania-Remote-Control-Tests/internal/protocol"
	"github.com/thatdecade/ITGmania-Remote-Control-Tests/internal/testutil/testlog"
)

func TestHelloPauseDefaultsToOneSecond(t *testing.T) {
	testlog.Start(t)
	if got := DefaultConfig().HelloPause; got != time.Second {
		t.Fatalf("default pause=%v want=%v", got, time.Second)
	}
	if got := (Config{}).WithDefaults().HelloPause; got != time.Second {
		t.Fatalf("zero pause not defaulted: %v", got)
	}
	if got := (Config{HelloPause: 250 * time.Millisecond}).WithDefaults().HelloPause; got != 250*time.Millisecond {
		t.Fatalf("explicit pause overwritten: %v", got)
	}
}

func TestHelloTimeoutSchedule(t *testing.T) {
	testlog.Start(t)
	cfg := DefaultConfig()
	want := map[int]time.Duration{
		0: 10 * time.Second,
		1: 10 * time.Second,
		2: 20 * time.Second,
		3: 30 * time.Second,
		7: 30 * time.Second,
	}
	for attempt, d := range want {
		if got := cfg.HelloTimeout(attempt); got != d {
			t.Fatalf("attempt%d got=%v want=%v", attempt, got, d)
		}
	}
}

func TestWithDefaultsFillsZeroFields(t *testing.T) {
	testlog.Start(t)
	cfg := Config{RequestTimeout: 3 * time.Second, SecurityMode: " Production "}.WithDefaults()
	if cfg.RequestTimeout != 3*time.Second {
		t.Fatalf("explicit request timeout overwritten: %v", cfg.RequestTimeout)
	}
	if cfg.HelloMaxAttempts != 3 || len(cfg.HelloTimeouts) != 3 || cfg.HelloPause != time.Second {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	if cfg.HeartbeatMarker != "HEARTBEAT|" || cfg.ScreenMarker != "SCREEN|" {
		t.Fatalf("markers=%q/%q", cfg.HeartbeatMarker, cfg.ScreenMarker)
	}
	if cfg.SecurityMode != SecurityModeProduction {
		t.Fatalf("security mode=%q", cfg.SecurityMode)
	}
}

func TestValidateListenerProductionRequiresTLS(t *testing.T) {
	testlog.Start(t)
	cfg := DefaultConfig()
	if err := cfg.ValidateListener(); err != nil {
		t.Fatalf("development default should be valid: %v", err)
	}
	cfg.SecurityMode = SecurityModeProduction
	if err := cfg.ValidateListener(); !errors.Is(err, ErrTLSRequired) {
		t.Fatalf("expected ErrTLSRequired, got %v", err)
	}
	cfg.SecurityMode = "staging"
	if err := cfg.ValidateListener(); !errors.Is(err, ErrInvalidSecurityMode) {
		t.Fatalf("expected ErrInvalidSecurityMode, got %v", err)
	}
}

func TestValidateListenerMutualRequiresCertKeyCA(t *testing.T) {
	testlog.Start(t)
	cfg := DefaultConfig()
	cfg.TLS.Mutual = true
	if err := cfg.ValidateListener(); !errors.Is(err, ErrTLSRequired) {
		t.Fatalf("expected ErrTLSRequired, got %v", err)
	}

	cfg.TLS.Enabled = true
	if err := cfg.ValidateListener(); !errors.Is(err, ErrTLSCertFileRequired) {
		t.Fatalf("expected ErrTLSCertFileRequired, got %v", err)
	}

	cfg.TLS.CertFile = "/tmp/server.pem"
	if err := cfg.ValidateListener(); !errors.Is(err, ErrTLSKeyFileRequired) {
		t.Fatalf("expected ErrTLSKeyFileRequired, got %v", err)
	}

	cfg.TLS.KeyFile = "/tmp/server.key"
	if err := cfg.ValidateListener(); !errors.Is(err, ErrTLSCAFileRequired) {
		t.Fatalf("expected ErrTLSCAFileRequired, got %v", err)
	}

	cfg.TLS.CAFile = "/tmp/ca.pem"
	if err := cfg.ValidateListener(); err != nil {
		t.Fatalf("expected valid listener config, got %v", err)
	}
}

func TestListenerTLSConfigDisabledIsNil(t *testing.T) {
	testlog.Start(t)
	tlsCfg, err := DefaultConfig().ListenerTLSConfig()
	if err != nil || tlsCfg != nil {
		t.Fatalf("expected nil config, got %v err=%v", tlsCfg, err)
	}
}

func TestClassifyControl(t *testing.T) {
	testlog.Start(t)
	cases := []struct {
		text string
		kind ControlKind
		body string
	}{
		{"HEARTBEAT|1712345678", ControlHeartbeat, "1712345678"},
		{"SCREEN|ScreenGameplay", ControlScreen, "ScreenGameplay"},
		{"heartbeat|lowercase", ControlOther, "heartbeat|lowercase"},
		{"", ControlOther, ""},
	}
	for _, tc := range cases {
		got := ClassifyControl(tc.text, "HEARTBEAT|", "SCREEN|")
		if got.Kind != tc.kind || got.Body != tc.body || got.Text != tc.text {
			t.Fatalf("text=%q got=%+v", tc.text, got)
		}
	}
}

func TestInflightTableLifecycle(t *testing.T) {
	testlog.Start(t)
	table := NewInflightTable()
	now := time.Unix(1700000000, 0)
	table.Upsert(PendingRequest{Command: protocol.CmdGetSongs, Expect: protocol.RspGetSongs, SentAt: now, DeadlineAt: now.Add(30 * time.Second)})
	table.Upsert(PendingRequest{Command: protocol.CmdHello, Expect: protocol.RspHello, SentAt: now, DeadlineAt: now.Add(10 * time.Second)})

	list := table.List()
	if len(list) != 2 || list[0].Expect != protocol.RspHello || list[1].Expect != protocol.RspGetSongs {
		t.Fatalf("list not ordered by kind: %+v", list)
	}
	item, ok := table.Get(protocol.RspGetSongs)
	if !ok || item.DeadlineAt.Sub(item.SentAt) != 30*time.Second {
		t.Fatalf("unexpected item: %+v ok=%v", item, ok)
	}
	table.Remove(protocol.RspGetSongs)
	if _, ok := table.Get(protocol.RspGetSongs); ok {
		t.Fatalf("request should be removed")
	}
}
