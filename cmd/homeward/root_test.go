package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCommand(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	addConfigFlags(cmd)
	require.NoError(t, cmd.ParseFlags(args))
	return cmd
}

func TestLoadConfig_Overrides(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "homeward.yaml"), []byte(`
scenario:
  vehicle_id: from-file
params:
  RTL_RETURN_ALT: 80
`), 0o644))

	cmd := newTestCommand(t, "--dir", dir, "--vehicle", "uav-9", "-p", "rtl_land_delay=0", "--log-level", "debug")
	cfg, gotDir, err := loadConfig(cmd)
	require.NoError(t, err)

	assert.Equal(t, dir, gotDir)
	assert.Equal(t, "uav-9", cfg.Scenario.VehicleID)
	assert.Equal(t, "debug", cfg.Log.Level)

	values, err := cfg.ParamValues()
	require.NoError(t, err)
	assert.Equal(t, 80.0, values.ReturnAltitude)
	assert.Equal(t, 0.0, values.LandDelay)
}

func TestLoadConfig_RejectsBadParam(t *testing.T) {
	dir := t.TempDir()

	_, _, err := loadConfig(newTestCommand(t, "--dir", dir, "-p", "RTL_LAND_DELAY"))
	assert.Error(t, err)

	_, _, err = loadConfig(newTestCommand(t, "--dir", dir, "-p", "RTL_RETURN_ALT=500"))
	assert.Error(t, err)
}
