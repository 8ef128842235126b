package harness

import (
	"context"
	"fmt"
	"math"

	"github.com/thatdecade/ITGmania-Remote-Control-Tests/internal/itg"
	"github.com/thatdecade/ITGmania-Remote-Control-Tests/internal/telemetry"
)

// Deltas are the rise of each live counter from its first sample to its
// peak during collection.
type Deltas struct {
	Score     float64
	Combo     float64
	Percent   float64
	Judgments float64
}

// Changed lists the counters that rose, in a fixed order.
func (d Deltas) Changed() []string {
	var out []string
	for _, c := range []struct {
		name  string
		delta float64
	}{
		{"score", d.Score},
		{"combo", d.Combo},
		{"percent", d.Percent},
		{"judgments", d.Judgments},
	} {
		if c.delta > 0 {
			out = append(out, c.name)
		}
	}
	return out
}

type StatsResult struct {
	Samples int
	Deltas  Deltas
}

// Passed is true when any live counter moved.
func (r StatsResult) Passed() bool {
	return len(r.Deltas.Changed()) > 0
}

func (r StatsResult) Detail() string {
	d := r.Deltas
	return fmt.Sprintf("samples=%d changed=%v deltas=score:%g combo:%g percent:%g judgments:%g",
		r.Samples, r.Deltas.Changed(), d.Score, d.Combo, d.Percent, d.Judgments)
}

type statsTracker struct {
	baselineSet bool
	baseline    [4]float64
	peak        [4]float64
}

func (t *statsTracker) observe(values [4]float64) {
	if !t.baselineSet {
		t.baselineSet = true
		t.baseline = values
	}
	for i, v := range values {
		t.peak[i] = math.Max(t.peak[i], v)
	}
}

func (t *statsTracker) deltas() Deltas {
	return Deltas{
		Score:     t.peak[0] - t.baseline[0],
		Combo:     t.peak[1] - t.baseline[1],
		Percent:   t.peak[2] - t.baseline[2],
		Judgments: t.peak[3] - t.baseline[3],
	}
}

// CollectStats polls status every PollInterval for StatsDuration and
// records each poll as a telemetry sample.
func (h *Harness) CollectStats(ctx context.Context, cycle int) (StatsResult, error) {
	start := h.clock.Now()
	var tracker statsTracker
	var result StatsResult

	for h.clock.Now().Sub(start) < h.cfg.StatsDuration {
		st, err := h.remote.Status(ctx)
		if err != nil {
			result.Deltas = tracker.deltas()
			return result, err
		}
		judgments := itg.JudgmentSum(st.JudgmentsP1)
		tracker.observe([4]float64{float64(st.ScoreP1), float64(st.CurrentComboP1), float64(st.PercentDPP1), float64(judgments)})

		now := h.clock.Now()
		sample := telemetry.Sample{
			WallTime:        now,
			RunID:           h.cfg.RunID,
			Cycle:           cycle,
			Elapsed:         now.Sub(start),
			Screen:          st.Screen,
			InferredPlaying: st.InferredPlaying(),
			Score:           int(st.ScoreP1),
			Combo:           int(st.CurrentComboP1),
			Percent:         float64(st.PercentDPP1),
			JudgmentSum:     judgments,
			SongTitle:       st.CurrentTitle,
			SongDir:         st.CurrentSongDir,
			Difficulty:      st.CurrentDifficultyP1,
			PausedKnown:     bool(st.PausedKnown),
			Paused:          bool(st.Paused),
		}
		if err := h.recorder.RecordSample(sample); err != nil {
			h.logger.Warn().Err(err).Msg("record sample")
		}
		result.Samples++

		if err := h.pause(ctx, h.cfg.PollInterval); err != nil {
			result.Deltas = tracker.deltas()
			return result, err
		}
	}
	result.Deltas = tracker.deltas()
	return result, nil
}
