package cli_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/homeward/internal/cli"
	"github.com/aretw0/homeward/internal/config"
	"github.com/aretw0/homeward/pkg/adapters/mqtt"
	"github.com/aretw0/homeward/pkg/domain"
	"github.com/aretw0/homeward/pkg/runner"
	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2014, 7, 1, 12, 0, 0, 0, time.UTC)

func testConfig(backend string) config.AppConfig {
	cfg := config.Default()
	cfg.Log.Level = "error"
	cfg.Store.Backend = backend
	cfg.Params = map[string]any{"RTL_LAND_DELAY": 2}
	return cfg
}

func newApp(t *testing.T, cfg config.AppConfig, dir string) *cli.App {
	t.Helper()
	app, err := cli.NewApp(cfg, cli.AppOptions{Dir: dir, Clock: runner.NewVirtualClock(t0)})
	require.NoError(t, err)
	t.Cleanup(func() { app.Close() })
	return app
}

func TestNewApp_Backends(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		app := newApp(t, testConfig(config.StoreMemory), "")
		require.NoError(t, app.Sessions.Save(ctx, "uav-1", app.Navigator.Snapshot("uav-1")))
		ids, err := app.Store.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"uav-1"}, ids)
	})

	t.Run("file", func(t *testing.T) {
		dir := t.TempDir()
		cfg := testConfig(config.StoreFile)
		cfg.Store.Path = "sessions"
		app := newApp(t, cfg, dir)

		require.NoError(t, app.Sessions.Save(ctx, "uav-1", app.Navigator.Snapshot("uav-1")))
		entries, err := os.ReadDir(filepath.Join(dir, "sessions"))
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})

	t.Run("file sealed", func(t *testing.T) {
		dir := t.TempDir()
		cfg := testConfig(config.StoreFile)
		cfg.Store.Path = "sessions"
		cfg.Store.Encryption.Key = base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{7}, 32))
		app := newApp(t, cfg, dir)

		require.NoError(t, app.Sessions.Save(ctx, "uav-1", app.Navigator.Snapshot("uav-1")))
		raw, err := os.ReadFile(filepath.Join(dir, "sessions", "uav-1.json"))
		require.NoError(t, err)
		assert.Contains(t, string(raw), `"sealed"`)
		assert.NotContains(t, string(raw), "47.4004")

		snap, err := app.Store.Load(ctx, "uav-1")
		require.NoError(t, err)
		assert.InDelta(t, 47.400440, snap.Position.Lat, 1e-9)
	})

	t.Run("redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		cfg := testConfig(config.StoreRedis)
		cfg.Store.Redis.Addr = mr.Addr()
		cfg.Store.Redis.Prefix = "hw:"
		cfg.Store.Redis.Lock = true
		app := newApp(t, cfg, "")

		_, err := app.Sessions.Update(ctx, "uav-1", func(s *domain.Snapshot) error {
			s.Mode = domain.ModeRTL
			return nil
		})
		require.Error(t, err, "updating a missing session fails")

		require.NoError(t, app.Sessions.Save(ctx, "uav-1", app.Navigator.Snapshot("uav-1")))
		assert.True(t, mr.Exists("hw:uav-1"))
	})
}

func TestNewApp_StartsInScenarioMode(t *testing.T) {
	app := newApp(t, testConfig(config.StoreMemory), "")
	snap := app.Navigator.Snapshot(app.VehicleID())
	assert.Equal(t, domain.ModeRTL, snap.Mode)
	assert.False(t, snap.Landed)

	v, ok := app.Params.Float("RTL_LAND_DELAY")
	require.True(t, ok)
	assert.Equal(t, 2.0, v)
}

func TestNewApp_InvalidConfig(t *testing.T) {
	cfg := testConfig("tape")
	_, err := cli.NewApp(cfg, cli.AppOptions{})
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestRunSimulation_LandsAndExportsTrack(t *testing.T) {
	dir := t.TempDir()
	app := newApp(t, testConfig(config.StoreMemory), "")

	var out bytes.Buffer
	kmlPath := filepath.Join(dir, "track.kml")
	res, err := cli.RunSimulation(context.Background(), app, cli.SimulateOptions{
		KMLPath: kmlPath,
		Report:  true,
		Output:  &out,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.PhaseLanded, res.Snapshot.Phase)
	assert.True(t, res.Snapshot.Landed)
	assert.False(t, res.Resumed)
	assert.Positive(t, res.Points)
	assert.GreaterOrEqual(t, res.Durations[domain.PhaseLoiter], 2*time.Second)

	text := out.String()
	assert.Contains(t, text, "phase CLIMB -> RETURN")
	assert.Contains(t, text, "Flight report: uav-1")
	assert.Contains(t, text, ">>> Finished in LANDED.")

	data, err := os.ReadFile(kmlPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<LineString>")

	saved, err := app.Store.Load(context.Background(), "uav-1")
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseLanded, saved.Phase)
}

func TestRunSimulation_DefaultConfigSettlesInLoiter(t *testing.T) {
	cfg := config.Default()
	cfg.Log.Level = "error"
	cfg.Store.Backend = config.StoreMemory
	app := newApp(t, cfg, "")

	var out bytes.Buffer
	res, err := cli.RunSimulation(context.Background(), app, cli.SimulateOptions{Output: &out})
	require.NoError(t, err)

	assert.Equal(t, domain.PhaseLoiter, res.Snapshot.Phase)
	assert.Equal(t, domain.NavCmdLoiterUnlimited, res.Snapshot.Item.NavCmd)
	assert.False(t, res.Snapshot.Landed)
	assert.Contains(t, out.String(), "RTL: completed, loiter")
	assert.Contains(t, out.String(), ">>> Finished in LOITER.")
}

func TestRunSimulation_JSONIsQuiet(t *testing.T) {
	app := newApp(t, testConfig(config.StoreMemory), "")

	var out bytes.Buffer
	_, err := cli.RunSimulation(context.Background(), app, cli.SimulateOptions{JSON: true, Report: true, Output: &out})
	require.NoError(t, err)

	for _, line := range strings.Split(strings.TrimSpace(out.String()), "\n") {
		assert.True(t, strings.HasPrefix(line, "{"), line)
	}
}

func TestRunSimulation_Resume(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(config.StoreFile)

	first := newApp(t, cfg, dir)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var out bytes.Buffer
	_, err := cli.RunSimulation(ctx, first, cli.SimulateOptions{Output: &out})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Interrupted")

	second := newApp(t, cfg, dir)
	res, err := cli.RunSimulation(context.Background(), second, cli.SimulateOptions{Resume: true, Output: &out})
	require.NoError(t, err)
	assert.True(t, res.Resumed)
	assert.Equal(t, domain.PhaseLanded, res.Snapshot.Phase)
}

type doneToken struct{}

func (doneToken) Wait() bool                     { return true }
func (doneToken) WaitTimeout(time.Duration) bool { return true }
func (doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (doneToken) Error() error { return nil }

type fakeBroker struct {
	mu     sync.Mutex
	topics []string
	closed bool
}

func (b *fakeBroker) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.topics = append(b.topics, topic)
	return doneToken{}
}

func (b *fakeBroker) Disconnect(uint) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
}

func (b *fakeBroker) count(topic string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, t := range b.topics {
		if t == topic {
			n++
		}
	}
	return n
}

func TestRunSimulation_PublishesTelemetry(t *testing.T) {
	broker := &fakeBroker{}
	cfg := testConfig(config.StoreMemory)
	cfg.MQTT.Broker = "tcp://broker:1883"

	app, err := cli.NewApp(cfg, cli.AppOptions{
		Clock: runner.NewVirtualClock(t0),
		Connect: func(opts mqtt.Options, vehicleID string, logger *slog.Logger) (*mqtt.Publisher, error) {
			return mqtt.NewPublisher(broker, opts, vehicleID, logger), nil
		},
	})
	require.NoError(t, err)
	require.NotNil(t, app.Telemetry)

	var out bytes.Buffer
	_, err = cli.RunSimulation(context.Background(), app, cli.SimulateOptions{Output: &out})
	require.NoError(t, err)

	assert.Positive(t, broker.count(app.Telemetry.StateTopic()))
	assert.Positive(t, broker.count(app.Telemetry.AdvisoryTopic()), "RTL advisories reach the broker")

	require.NoError(t, app.Close())
	assert.True(t, broker.closed)
}

func TestDescribe(t *testing.T) {
	app := newApp(t, testConfig(config.StoreMemory), "")
	lines := cli.Describe(app.Params)
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[1], "RTL_LAND_DELAY"))
}
