package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage persistent vehicle sessions",
	Long:  `List, inspect, and remove the sessions kept by the configured store.`,
}

var sessionLsCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List all stored sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd, false)
		if err != nil {
			return err
		}
		defer app.Close()

		sessions, err := app.Sessions.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("error listing sessions: %w", err)
		}
		if len(sessions) == 0 {
			fmt.Println("No stored sessions found.")
			return nil
		}

		fmt.Println("Stored Sessions:")
		for _, s := range sessions {
			fmt.Println("- " + s)
		}
		return nil
	},
}

var sessionInspectCmd = &cobra.Command{
	Use:     "inspect <vehicle-id>",
	Aliases: []string{"show"},
	Short:   "Inspect the snapshot of a session",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd, false)
		if err != nil {
			return err
		}
		defer app.Close()

		snap, err := app.Sessions.Load(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("error loading session '%s': %w", args[0], err)
		}

		data, err := json.MarshalIndent(snap, "", "  ")
		if err != nil {
			return fmt.Errorf("error marshaling snapshot: %w", err)
		}
		fmt.Println(string(data))
		return nil
	},
}

var sessionRmCmd = &cobra.Command{
	Use:     "rm <vehicle-id>...",
	Aliases: []string{"delete"},
	Short:   "Remove one or more sessions",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd, false)
		if err != nil {
			return err
		}
		defer app.Close()

		var failed int
		for _, id := range args {
			if err := app.Sessions.Delete(cmd.Context(), id); err != nil {
				fmt.Printf("Error removing '%s': %v\n", id, err)
				failed++
				continue
			}
			fmt.Printf("Removed session '%s'\n", id)
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d sessions could not be removed", failed, len(args))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionLsCmd, sessionInspectCmd, sessionRmCmd)
}
