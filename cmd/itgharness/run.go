package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/thatdecade/ITGmania-Remote-Control-Tests/internal/harness"
	"github.com/thatdecade/ITGmania-Remote-Control-Tests/internal/itg"
	"github.com/thatdecade/ITGmania-Remote-Control-Tests/internal/observability"
	"github.com/thatdecade/ITGmania-Remote-Control-Tests/internal/protocol/session"
	"github.com/thatdecade/ITGmania-Remote-Control-Tests/internal/telemetry"
	"github.com/thatdecade/ITGmania-Remote-Control-Tests/internal/transport/ws"
)

const archiveTimeout = time.Minute

func runCmd() *cobra.Command {
	var flags runFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Listen for the game client and run test cycles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.resolve(cmd.Flags())
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg)
		},
	}
	flags.register(cmd.Flags())
	return cmd
}

// run serves the listener and the harness together. The harness finishing
// its cycles shuts the listener down; a listener failure stops the harness.
func run(ctx context.Context, cfg runConfig) error {
	sink, err := telemetry.Open(cfg.Telemetry)
	if err != nil {
		return err
	}
	log.Info().Msgf("Logging time series to: %s", sink.SamplesPath())
	log.Info().Msgf("Logging cycle summaries to: %s", sink.CyclesPath())

	sess := session.New(cfg.Session, session.WithObserver(observability.NewSessionObserver()))
	srv := ws.NewServer(cfg.Server, sess)
	h := harness.New(cfg.Harness, itg.NewClient(sess), harness.WithRecorder(sink))
	log.Info().Str("run_id", h.Config().RunID).Int("cycles", h.Config().Cycles).Msg("harness configured")

	g, gctx := errgroup.WithContext(ctx)
	runCtx, cancel := context.WithCancel(gctx)
	defer cancel()

	g.Go(func() error {
		return srv.ListenAndServe(runCtx)
	})
	g.Go(func() error {
		defer cancel()
		err := h.Run(runCtx, sess)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	err = g.Wait()

	if cerr := sink.Close(); cerr != nil {
		log.Warn().Err(cerr).Msg("close telemetry")
	}
	if err != nil || !cfg.Archive.Enabled() {
		return err
	}
	return archive(cfg.Archive, h.Config().RunID, sink.SamplesPath(), sink.CyclesPath())
}

func archive(cfg telemetry.ArchiveConfig, runID string, files ...string) error {
	ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
	defer cancel()
	keys, err := telemetry.NewS3Archiver(cfg).Archive(ctx, runID, files...)
	if err != nil {
		return err
	}
	log.Info().Str("bucket", cfg.Bucket).Strs("keys", keys).Msg("telemetry archived")
	return nil
}
