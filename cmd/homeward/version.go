package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/homeward"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of homeward",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("homeward version %s\n", strings.TrimSpace(homeward.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
