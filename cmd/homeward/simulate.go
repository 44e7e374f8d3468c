package main

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/aretw0/homeward"
	"github.com/aretw0/homeward/internal/cli"
	"github.com/aretw0/homeward/internal/presentation/tui"
	"github.com/aretw0/homeward/pkg/runner"
	"github.com/spf13/cobra"
)

// simulateCmd represents the simulate command
var simulateCmd = &cobra.Command{
	Use:     "simulate",
	Aliases: []string{"sim", "run"},
	Short:   "Fly the configured return-to-launch scenario",
	Long: `Starts the vehicle at the scenario position and commands the scenario mode
(rtl by default) until it lands, the run times out or it is interrupted.

By default the loop runs on a virtual clock and finishes as fast as the CPU allows.
Use --realtime to pace it on the wall clock, and --resume to continue a session
that was interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonMode, _ := cmd.Flags().GetBool("json")
		resume, _ := cmd.Flags().GetBool("resume")
		realtime, _ := cmd.Flags().GetBool("realtime")
		kmlPath, _ := cmd.Flags().GetString("kml")
		noReport, _ := cmd.Flags().GetBool("no-report")

		app, err := newApp(cmd, realtime)
		if err != nil {
			return err
		}
		defer app.Close()

		if !jsonMode && tui.IsTerminal(os.Stdout) {
			tui.PrintBanner(os.Stdout, strings.TrimSpace(homeward.Version))
		}

		ctx := cli.NewSignalContext(context.Background())
		defer ctx.Cancel()

		_, err = cli.RunSimulation(ctx, app, cli.SimulateOptions{
			JSON:    jsonMode,
			Resume:  resume,
			KMLPath: kmlPath,
			Report:  !noReport,
			Output:  os.Stdout,
		})
		if errors.Is(err, runner.ErrMaxDuration) {
			app.Logger.Warn("simulation timed out", "err", err)
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(simulateCmd)
	simulateCmd.Flags().Bool("json", false, "Emit newline-delimited JSON events")
	simulateCmd.Flags().Bool("resume", false, "Resume the stored session of the vehicle")
	simulateCmd.Flags().Bool("realtime", false, "Pace the loop on the wall clock")
	simulateCmd.Flags().String("kml", "", "Write the flown track to a KML file")
	simulateCmd.Flags().Bool("no-report", false, "Skip the flight report")
}
