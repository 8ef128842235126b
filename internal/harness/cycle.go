package harness

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/thatdecade/ITGmania-Remote-Control-Tests/internal/itg"
	"github.com/thatdecade/ITGmania-Remote-Control-Tests/internal/observability"
	"github.com/thatdecade/ITGmania-Remote-Control-Tests/internal/telemetry"
)

// Case names, in the order a cycle runs them.
const (
	CaseHello         = "hello"
	CaseMusicSelect   = "reach music select"
	CaseGetSongs      = "get songs"
	CaseChooseSong    = "choose song"
	CaseStartSong     = "start song"
	CaseGameplayStart = "verify gameplay started"
	CaseLiveStats     = "live stats change"
	CasePause         = "pause"
	CaseResume        = "resume"
	CaseStop          = "stop"
	CaseVerifyStopped = "verify stopped"
)

// CycleReport is the outcome of one cycle.
type CycleReport struct {
	Results []telemetry.CaseResult
	Summary telemetry.CycleSummary
}

func (r CycleReport) PassedAll() bool {
	for _, c := range r.Results {
		if !c.Passed {
			return false
		}
	}
	return true
}

type cycleRun struct {
	report CycleReport
	span   trace.Span
}

func (c *cycleRun) add(name string, passed bool, details string) bool {
	c.report.Results = append(c.report.Results, telemetry.CaseResult{Name: name, Passed: passed, Details: details})
	observability.RecordCase(name, passed)
	c.span.AddEvent(name, trace.WithAttributes(
		attribute.Bool("itgharness.case.passed", passed),
		attribute.String("itgharness.case.details", details),
	))
	return passed
}

func (c *cycleRun) fail(name string, err error) {
	c.add(name, false, err.Error())
}

// RunCycle runs every case once. A failure in hello, music select, songs,
// song choice, start, gameplay start or stop ends the cycle early; stats,
// pause and resume failures do not. The returned error is only set when
// ctx ends.
func (h *Harness) RunCycle(ctx context.Context, cycle int) (CycleReport, error) {
	ctx, span := h.tracer.Start(ctx, "itgharness.cycle",
		trace.WithAttributes(
			attribute.String("itgharness.run_id", h.cfg.RunID),
			attribute.Int("itgharness.cycle", cycle),
		),
	)
	defer span.End()

	run := &cycleRun{span: span}
	run.report.Summary = telemetry.CycleSummary{RunID: h.cfg.RunID, Cycle: cycle}
	h.runCases(ctx, run, cycle)

	run.report.Summary.WallTime = h.clock.Now()
	run.report.Summary.PassedAll = run.report.PassedAll()
	run.report.Summary.Cases = run.report.Results

	span.SetAttributes(
		attribute.Bool("itgharness.passed_all", run.report.Summary.PassedAll),
		attribute.Int("itgharness.cases", len(run.report.Results)),
	)
	if run.report.Summary.PassedAll {
		span.SetStatus(codes.Ok, "")
	} else {
		span.SetStatus(codes.Error, "cycle failed")
	}
	return run.report, ctx.Err()
}

func (h *Harness) runCases(ctx context.Context, run *cycleRun, cycle int) {
	summary := &run.report.Summary

	ack, err := h.remote.Hello(ctx)
	if err != nil {
		run.fail(CaseHello, err)
		return
	}
	run.add(CaseHello, bool(ack.OK), string(ack.Raw))

	h.logger.Info().Msg("Navigate to music select and join P1.")
	screen, err := h.WaitForMusicSelect(ctx)
	if err != nil {
		run.fail(CaseMusicSelect, err)
		return
	}
	run.add(CaseMusicSelect, true, "screen="+screen)

	songs, err := h.remote.Songs(ctx, h.cfg.SongLimit, h.cfg.SongFilter)
	if err != nil {
		run.fail(CaseGetSongs, err)
		return
	}
	if !run.add(CaseGetSongs, len(songs) > 0, fmt.Sprintf("song_count=%d", len(songs))) {
		return
	}

	sel, err := PickSong(songs)
	if err != nil {
		run.fail(CaseChooseSong, err)
		return
	}
	summary.SongTitle, summary.SongDir, summary.Difficulty = sel.Title, sel.SongDir, sel.Difficulty
	run.add(CaseChooseSong, true, fmt.Sprintf("title=%s song_dir=%s difficulty=%s", sel.Title, sel.SongDir, sel.Difficulty))

	ack, err = h.remote.StartSong(ctx, sel.SongDir, sel.Difficulty)
	if err != nil {
		run.fail(CaseStartSong, err)
		return
	}
	if !run.add(CaseStartSong, bool(ack.OK), string(ack.Raw)) {
		return
	}

	started, err := h.WaitForGameplay(ctx, true, h.cfg.GameplayStartTimeout)
	if err != nil {
		run.fail(CaseGameplayStart, err)
		return
	}
	if !run.add(CaseGameplayStart, started, "") {
		return
	}

	h.logger.Info().Msgf("Stats collection running for %s. Step on the pad during this window.", h.cfg.StatsDuration)
	stats, err := h.CollectStats(ctx, cycle)
	if err != nil {
		run.fail(CaseLiveStats, err)
	} else {
		summary.StatsSamples = stats.Samples
		summary.ScoreDelta = int(stats.Deltas.Score)
		summary.ComboDelta = int(stats.Deltas.Combo)
		summary.PercentDelta = stats.Deltas.Percent
		summary.JudgmentDelta = int(stats.Deltas.Judgments)
		run.add(CaseLiveStats, stats.Passed(), stats.Detail())
	}

	if h.cfg.PauseResume {
		h.ackCase(ctx, run, CasePause, h.remote.Pause)
		h.ackCase(ctx, run, CaseResume, h.remote.Resume)
	}

	if !h.ackCase(ctx, run, CaseStop, h.remote.Stop) {
		return
	}

	stopped, err := h.WaitForGameplay(ctx, false, h.cfg.GameplayStopTimeout)
	if err != nil {
		run.fail(CaseVerifyStopped, err)
		return
	}
	run.add(CaseVerifyStopped, stopped, "")
}

// ackCase records an acknowledged command. It reports false only when the
// request itself failed.
func (h *Harness) ackCase(ctx context.Context, run *cycleRun, name string, do func(context.Context) (itg.Ack, error)) bool {
	ack, err := do(ctx)
	if err != nil {
		run.fail(name, err)
		return false
	}
	run.add(name, bool(ack.OK), string(ack.Raw))
	return true
}
