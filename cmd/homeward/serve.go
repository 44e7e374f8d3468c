package main

import (
	"context"
	"strings"

	"github.com/aretw0/homeward"
	"github.com/aretw0/homeward/internal/cli"
	"github.com/spf13/cobra"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the vehicle live behind an HTTP API",
	Long: `Runs the guidance loop on the wall clock and exposes the vehicle over HTTP:
status, mode and reposition commands, parameters, the phase graph, a
Server-Sent Events stream, stored sessions and Prometheus metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")

		app, err := newApp(cmd, true)
		if err != nil {
			return err
		}
		defer app.Close()

		ctx := cli.NewSignalContext(context.Background())
		defer ctx.Cancel()

		return cli.Serve(ctx, app, cli.ServeOptions{
			Addr:    addr,
			Version: strings.TrimSpace(homeward.Version),
		})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Listen address (defaults to server.addr)")
}
