package harness

import "time"

// Config controls the scenario driver. Zero durations fall back to
// DefaultConfig; booleans are taken as given.
type Config struct {
	Cycles        int
	StatsDuration time.Duration
	PollInterval  time.Duration
	PauseResume   bool
	SongLimit     int
	SongFilter    string

	MusicSelectTimeout   time.Duration
	GameplayStartTimeout time.Duration
	GameplayStopTimeout  time.Duration
	ScreenPollInterval   time.Duration

	ReadyTimeout   time.Duration
	CyclePause     time.Duration
	ReconnectPause time.Duration

	RunID string
}

func DefaultConfig() Config {
	return Config{
		Cycles:               5,
		StatsDuration:        12 * time.Second,
		PollInterval:         250 * time.Millisecond,
		PauseResume:          true,
		SongLimit:            200,
		MusicSelectTimeout:   240 * time.Second,
		GameplayStartTimeout: 30 * time.Second,
		GameplayStopTimeout:  45 * time.Second,
		ScreenPollInterval:   500 * time.Millisecond,
		ReadyTimeout:         15 * time.Second,
		CyclePause:           time.Second,
		ReconnectPause:       time.Second,
	}
}

func (c Config) WithDefaults() Config {
	def := DefaultConfig()
	if c.Cycles <= 0 {
		c.Cycles = def.Cycles
	}
	if c.StatsDuration <= 0 {
		c.StatsDuration = def.StatsDuration
	}
	if c.PollInterval <= 0 {
		c.PollInterval = def.PollInterval
	}
	if c.SongLimit <= 0 {
		c.SongLimit = def.SongLimit
	}
	if c.MusicSelectTimeout <= 0 {
		c.MusicSelectTimeout = def.MusicSelectTimeout
	}
	if c.GameplayStartTimeout <= 0 {
		c.GameplayStartTimeout = def.GameplayStartTimeout
	}
	if c.GameplayStopTimeout <= 0 {
		c.GameplayStopTimeout = def.GameplayStopTimeout
	}
	if c.ScreenPollInterval <= 0 {
		c.ScreenPollInterval = def.ScreenPollInterval
	}
	if c.ReadyTimeout <= 0 {
		c.ReadyTimeout = def.ReadyTimeout
	}
	if c.CyclePause <= 0 {
		c.CyclePause = def.CyclePause
	}
	if c.ReconnectPause <= 0 {
		c.ReconnectPause = def.ReconnectPause
	}
	return c
}
