package cli_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/homeward/internal/cli"
	"github.com/aretw0/homeward/internal/config"
	"github.com/aretw0/homeward/pkg/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServe_RequiresRealtimeClock(t *testing.T) {
	app := newApp(t, testConfig(config.StoreMemory), "")
	err := cli.Serve(context.Background(), app, cli.ServeOptions{Addr: "127.0.0.1:0"})
	assert.Error(t, err)
}

func TestServe_StopsOnCancelAndSavesSession(t *testing.T) {
	cfg := testConfig(config.StoreMemory)
	cfg.Scenario.Rate = config.Duration(10 * time.Millisecond)
	app, err := cli.NewApp(cfg, cli.AppOptions{Clock: runner.RealClock{}})
	require.NoError(t, err)
	t.Cleanup(func() { app.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	require.NoError(t, cli.Serve(ctx, app, cli.ServeOptions{Addr: "127.0.0.1:0"}))

	saved, err := app.Store.Load(context.Background(), app.VehicleID())
	require.NoError(t, err)
	assert.Equal(t, app.Navigator.Phase(), saved.Phase)
}
