package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/homeward"
	"github.com/aretw0/homeward/internal/cli"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Runs the vehicle live and exposes it as an MCP Server.
This allows AI agents to read the status and command modes as tools.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")
		if transport != "stdio" && transport != "sse" {
			return fmt.Errorf("unknown transport %q", transport)
		}

		app, err := newApp(cmd, true)
		if err != nil {
			return err
		}
		defer app.Close()

		ctx := cli.NewSignalContext(context.Background())
		defer ctx.Cancel()

		return cli.ServeMCP(ctx, app, cli.MCPOptions{
			Transport: transport,
			Port:      port,
			Version:   strings.TrimSpace(homeward.Version),
		})
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().String("transport", "stdio", "Transport: stdio or sse")
	mcpCmd.Flags().Int("port", 8081, "Port for the SSE transport")
}
