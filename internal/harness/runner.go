package harness

import (
	"context"
	"errors"
	"strings"

	"github.com/thatdecade/ITGmania-Remote-Control-Tests/internal/clock"
	"github.com/thatdecade/ITGmania-Remote-Control-Tests/internal/observability"
	"github.com/thatdecade/ITGmania-Remote-Control-Tests/internal/protocol/session"
)

// Connection is the lifecycle view of the session the runner waits on.
type Connection interface {
	State() session.State
	WaitConnected(ctx context.Context) error
	WaitReady(ctx context.Context) error
}

var _ Connection = (*session.Session)(nil)

// Run drives cycles until Config.Cycles have completed. It waits for the
// game client to connect and send its first heartbeat, runs cycles while
// the connection stays up, and resumes the cycle count after a reconnect.
func (h *Harness) Run(ctx context.Context, conn Connection) error {
	cycle := 1
	for {
		h.logger.Info().Msg("Waiting for ITGmania to connect...")
		if err := conn.WaitConnected(ctx); err != nil {
			return err
		}

		readyCtx, cancel := clock.WithTimeout(ctx, h.clock, h.cfg.ReadyTimeout)
		err := conn.WaitReady(readyCtx)
		timedOut := errors.Is(context.Cause(readyCtx), context.DeadlineExceeded)
		cancel()
		if err != nil {
			if ctx.Err() != nil || !timedOut {
				return err
			}
			h.logger.Warn().Msg("Connected but no heartbeat yet. Waiting for reconnect.")
			if err := h.pause(ctx, h.cfg.ReconnectPause); err != nil {
				return err
			}
			continue
		}

		for conn.State().Connected() {
			if cycle > h.cfg.Cycles {
				h.logger.Info().Msgf("Completed requested cycles=%d.", h.cfg.Cycles)
				return nil
			}
			h.logger.Info().Msgf("Starting cycle %d/%d", cycle, h.cfg.Cycles)
			started := h.clock.Now()
			report, err := h.RunCycle(ctx, cycle)
			if err != nil {
				return err
			}
			h.logReport(cycle, report)
			if err := h.recorder.RecordCycle(report.Summary); err != nil {
				h.logger.Warn().Err(err).Msg("record cycle")
			}
			observability.RecordCycle(report.Summary.PassedAll, h.clock.Now().Sub(started))

			cycle++
			if err := h.pause(ctx, h.cfg.CyclePause); err != nil {
				return err
			}
		}
		h.logger.Warn().Msg("Connection dropped. Waiting for reconnect.")
	}
}

func (h *Harness) logReport(cycle int, report CycleReport) {
	h.logger.Info().Msgf("CYCLE RESULTS %d", cycle)
	for _, c := range report.Results {
		var b strings.Builder
		if c.Passed {
			b.WriteString("PASS: ")
		} else {
			b.WriteString("FAIL: ")
		}
		b.WriteString(c.Name)
		if c.Details != "" {
			b.WriteString(" | ")
			b.WriteString(c.Details)
		}
		event := h.logger.Info()
		if !c.Passed {
			event = h.logger.Warn()
		}
		event.Str("case", c.Name).Bool("passed", c.Passed).Msg(b.String())
	}
	h.logger.Info().Msgf("Cycle %d complete passed_all=%v", cycle, report.PassedAll())
}
