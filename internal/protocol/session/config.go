package session

import "time"

// SecurityMode selects how strictly listener TLS settings are enforced.
type SecurityMode string

const (
	SecurityModeDevelopment SecurityMode = "development"
	SecurityModeProduction  SecurityMode = "production"
)

// TLSConfig configures the optional wss:// listener.
type TLSConfig struct {
	Enabled  bool
	CertFile string
	KeyFile  string
	CAFile   string
	Mutual   bool
}

// Config defines session timing and control-plane defaults.
//
// RequestTimeout is the default bound for callers that do not pick their
// own. HelloTimeouts is the per-attempt handshake bound; attempts past the
// end reuse the last entry. HelloPause separates failed attempts.
type Config struct {
	RequestTimeout   time.Duration
	HelloTimeouts    []time.Duration
	HelloMaxAttempts int
	HelloPause       time.Duration
	HeartbeatMarker  string
	ScreenMarker     string
	MaxBufferedBytes int
	SecurityMode     SecurityMode
	TLS              TLSConfig
}

// DefaultConfig returns the game client's documented defaults.
func DefaultConfig() Config {
	return Config{
		RequestTimeout:   10 * time.Second,
		HelloTimeouts:    []time.Duration{10 * time.Second, 20 * time.Second, 30 * time.Second},
		HelloMaxAttempts: 3,
		HelloPause:       time.Second,
		HeartbeatMarker:  "HEARTBEAT|",
		ScreenMarker:     "SCREEN|",
		SecurityMode:     SecurityModeDevelopment,
	}
}

// WithDefaults fills every zero field from DefaultConfig.
func (c Config) WithDefaults() Config {
	def := DefaultConfig()
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = def.RequestTimeout
	}
	if len(c.HelloTimeouts) == 0 {
		c.HelloTimeouts = def.HelloTimeouts
	}
	if c.HelloMaxAttempts <= 0 {
		c.HelloMaxAttempts = def.HelloMaxAttempts
	}
	if c.HelloPause <= 0 {
		c.HelloPause = def.HelloPause
	}
	if c.HeartbeatMarker == "" {
		c.HeartbeatMarker = def.HeartbeatMarker
	}
	if c.ScreenMarker == "" {
		c.ScreenMarker = def.ScreenMarker
	}
	c.SecurityMode = NormalizeSecurityMode(c.SecurityMode)
	return c
}

// HelloTimeout returns the bound for attempt N (1-based).
func (c Config) HelloTimeout(attempt int) time.Duration {
	schedule := c.HelloTimeouts
	if len(schedule) == 0 {
		schedule = DefaultConfig().HelloTimeouts
	}
	idx := attempt - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(schedule) {
		idx = len(schedule) - 1
	}
	return schedule[idx]
}
