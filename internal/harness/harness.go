package harness

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/thatdecade/ITGmania-Remote-Control-Tests/internal/clock"
	"github.com/thatdecade/ITGmania-Remote-Control-Tests/internal/itg"
	"github.com/thatdecade/ITGmania-Remote-Control-Tests/internal/telemetry"
)

var (
	ErrScreenTimeout = errors.New("harness: timed out waiting for screen")
	ErrNoSongs       = errors.New("harness: no songs returned")
)

// Remote is the game-control surface the harness drives. *itg.Client
// implements it.
type Remote interface {
	Hello(ctx context.Context) (itg.Ack, error)
	Status(ctx context.Context) (itg.Status, error)
	Songs(ctx context.Context, limit int, filter string) ([]itg.Song, error)
	StartSong(ctx context.Context, songDir, difficulty string) (itg.Ack, error)
	Pause(ctx context.Context) (itg.Ack, error)
	Resume(ctx context.Context) (itg.Ack, error)
	Stop(ctx context.Context) (itg.Ack, error)
}

var _ Remote = (*itg.Client)(nil)

// MusicSelectScreens are the screens from which a song can be started.
var MusicSelectScreens = []string{"ScreenSelectMusic", "ScreenSelectMusicCasual"}

type Option func(*Harness)

func WithClock(c clock.Clock) Option {
	return func(h *Harness) { h.clock = c }
}

func WithRecorder(r telemetry.Recorder) Option {
	return func(h *Harness) {
		if r != nil {
			h.recorder = r
		}
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(h *Harness) { h.logger = l }
}

// WithTracer replaces the tracer taken from the global provider.
func WithTracer(t trace.Tracer) Option {
	return func(h *Harness) {
		if t != nil {
			h.tracer = t
		}
	}
}

const tracerName = "github.com/thatdecade/ITGmania-Remote-Control-Tests/internal/harness"

type Harness struct {
	cfg      Config
	remote   Remote
	clock    clock.Clock
	recorder telemetry.Recorder
	logger   zerolog.Logger
	tracer   trace.Tracer
}

func New(cfg Config, remote Remote, opts ...Option) *Harness {
	h := &Harness{
		cfg:      cfg.WithDefaults(),
		remote:   remote,
		clock:    clock.Real(),
		recorder: telemetry.Discard{},
		logger:   log.Logger.With().Str("component", "harness").Logger(),
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.cfg.RunID == "" {
		h.cfg.RunID = h.clock.Now().Format("20060102_150405")
	}
	return h
}

func (h *Harness) Config() Config {
	return h.cfg
}

// WaitForScreen polls status until the current screen is one of screens.
// Request errors end the wait immediately.
func (h *Harness) WaitForScreen(ctx context.Context, screens []string, timeout time.Duration) (string, error) {
	deadline := h.clock.Now().Add(timeout)
	for h.clock.Now().Before(deadline) {
		st, err := h.remote.Status(ctx)
		if err != nil {
			return "", err
		}
		h.logger.Info().Msgf("current_screen=%s", st.Screen)
		for _, want := range screens {
			if st.Screen == want {
				return st.Screen, nil
			}
		}
		if err := h.pause(ctx, h.cfg.ScreenPollInterval); err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("%w %v after %s", ErrScreenTimeout, screens, timeout)
}

func (h *Harness) WaitForMusicSelect(ctx context.Context) (string, error) {
	return h.WaitForScreen(ctx, MusicSelectScreens, h.cfg.MusicSelectTimeout)
}

// WaitForGameplay polls until the inferred playing state equals desired.
// It returns false without error when timeout elapses first.
func (h *Harness) WaitForGameplay(ctx context.Context, desired bool, timeout time.Duration) (bool, error) {
	deadline := h.clock.Now().Add(timeout)
	for h.clock.Now().Before(deadline) {
		st, err := h.remote.Status(ctx)
		if err != nil {
			return false, err
		}
		inferred := st.InferredPlaying()
		h.logger.Info().Msgf("is_playing=%v inferred_playing=%v screen=%s", bool(st.IsPlaying), inferred, st.Screen)
		if inferred == desired {
			return true, nil
		}
		if err := h.pause(ctx, h.cfg.ScreenPollInterval); err != nil {
			return false, err
		}
	}
	return false, nil
}

// Selection is the song and chart a cycle plays.
type Selection struct {
	SongDir    string
	Difficulty string
	Title      string
}

const PreferredDifficulty = "Difficulty_Easy"

// PickSong takes the first song, preferring the easy chart, then the
// first listed chart, then the easy chart when none are listed.
func PickSong(songs []itg.Song) (Selection, error) {
	if len(songs) == 0 {
		return Selection{}, ErrNoSongs
	}
	song := songs[0]
	sel := Selection{SongDir: song.SongDir, Title: song.Title, Difficulty: PreferredDifficulty}
	if len(song.Difficulties) > 0 {
		sel.Difficulty = song.Difficulties[0]
		for _, d := range song.Difficulties {
			if d == PreferredDifficulty {
				sel.Difficulty = d
				break
			}
		}
	}
	return sel, nil
}

func (h *Harness) pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := h.clock.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.Chan():
		return nil
	}
}
