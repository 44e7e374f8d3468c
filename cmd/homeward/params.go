package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/aretw0/homeward/internal/cli"
	"github.com/aretw0/homeward/internal/params"
	"github.com/spf13/cobra"
)

// paramsCmd represents the params command
var paramsCmd = &cobra.Command{
	Use:   "params",
	Short: "Show the effective return-to-launch parameters",
	Long:  `Prints every parameter after applying the configuration file and --param overrides.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonMode, _ := cmd.Flags().GetBool("json")

		cfg, _, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		values, err := cfg.ParamValues()
		if err != nil {
			return err
		}
		store, err := params.NewStoreFrom(values)
		if err != nil {
			return err
		}

		if jsonMode {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(store.Values())
		}
		for _, line := range cli.Describe(store) {
			fmt.Println(line)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(paramsCmd)
	paramsCmd.Flags().Bool("json", false, "Print as JSON")
}
