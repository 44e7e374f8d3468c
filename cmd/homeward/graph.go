package main

import (
	"errors"
	"fmt"

	"github.com/aretw0/homeward/internal/presentation/graph"
	"github.com/aretw0/homeward/pkg/domain"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the return-to-launch phase graph",
	Long: `Outputs a Mermaid diagram (graph TD) of the return-to-launch phases.
With --overlay, the phases visited by the stored session of the vehicle are highlighted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		overlay, _ := cmd.Flags().GetBool("overlay")
		if !overlay {
			fmt.Print(graph.GenerateMermaid(nil))
			return nil
		}

		app, err := newApp(cmd, false)
		if err != nil {
			return err
		}
		defer app.Close()

		snap, err := app.Sessions.Load(cmd.Context(), app.VehicleID())
		if errors.Is(err, domain.ErrSessionNotFound) {
			return fmt.Errorf("no stored session for %s", app.VehicleID())
		}
		if err != nil {
			return err
		}
		fmt.Print(graph.GenerateMermaid(graph.OverlayFor(snap)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().Bool("overlay", false, "Highlight the phases of the stored session")
}
