package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/aretw0/homeward/internal/cli"
	"github.com/aretw0/homeward/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "homeward",
	Short: "Homeward is a return-to-launch guidance simulator",
	Long: `Homeward runs the return-to-launch guidance of a small UAV against a simulated airframe.
It climbs, returns, descends, loiters and lands the vehicle, persisting every
setpoint so an interrupted return can be resumed.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	addConfigFlags(rootCmd)
}

// addConfigFlags registers the persistent flags read by loadConfig.
func addConfigFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String("dir", ".", "Project directory; relative paths resolve against it")
	cmd.PersistentFlags().StringP("config", "c", "homeward.yaml", "Configuration file (YAML or JSON)")
	cmd.PersistentFlags().String("log-level", "", "Override the log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("vehicle", "", "Override the vehicle ID")
	cmd.PersistentFlags().StringArrayP("param", "p", nil, "Override a parameter, e.g. -p RTL_LAND_DELAY=0")
}

// loadConfig reads the configuration file and applies the flag overrides.
func loadConfig(cmd *cobra.Command) (config.AppConfig, string, error) {
	dir, _ := cmd.Flags().GetString("dir")
	path, _ := cmd.Flags().GetString("config")
	if !filepath.IsAbs(path) {
		path = filepath.Join(dir, path)
	}

	cfg, err := config.Load(path)
	if err != nil {
		return cfg, dir, err
	}

	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Log.Level = level
	}
	if id, _ := cmd.Flags().GetString("vehicle"); id != "" {
		cfg.Scenario.VehicleID = id
	}
	overrides, _ := cmd.Flags().GetStringArray("param")
	for _, kv := range overrides {
		key, raw, ok := strings.Cut(kv, "=")
		if !ok {
			return cfg, dir, fmt.Errorf("invalid --param %q, want KEY=VALUE", kv)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return cfg, dir, fmt.Errorf("invalid --param %q: %w", kv, err)
		}
		if cfg.Params == nil {
			cfg.Params = make(map[string]any)
		}
		cfg.Params[strings.ToUpper(strings.TrimSpace(key))] = v
	}
	return cfg, dir, cfg.Validate()
}

// newApp loads the configuration and builds the application.
func newApp(cmd *cobra.Command, realtime bool) (*cli.App, error) {
	cfg, dir, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if realtime {
		cfg.Scenario.Realtime = true
	}
	return cli.NewApp(cfg, cli.AppOptions{Dir: dir})
}
