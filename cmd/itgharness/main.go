package main

import (
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/thatdecade/ITGmania-Remote-Control-Tests/internal/logging"
)

func main() {
	root := &cobra.Command{
		Use:   "itgharness",
		Short: "Remote-control test harness for ITGmania",
		Long: `itgharness listens for the ITGmania remote-control client and drives
repeatable song start, live stats, pause and stop cycles against it,
writing per-sample and per-cycle results to CSV.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			logging.ConfigureRuntime()
			gin.SetMode(gin.ReleaseMode)
		},
	}
	root.AddCommand(runCmd(), versionCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "itgharness: %v\n", err)
		os.Exit(1)
	}
}
