package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/aretw0/homeward/internal/config"
	"github.com/aretw0/homeward/internal/logging"
	"github.com/aretw0/homeward/internal/navigator"
	"github.com/aretw0/homeward/internal/params"
	"github.com/aretw0/homeward/internal/sim"
	"github.com/aretw0/homeward/pkg/adapters/file"
	"github.com/aretw0/homeward/pkg/adapters/memory"
	"github.com/aretw0/homeward/pkg/adapters/mqtt"
	"github.com/aretw0/homeward/pkg/adapters/redis"
	"github.com/aretw0/homeward/pkg/observability"
	"github.com/aretw0/homeward/pkg/persistence/middleware"
	"github.com/aretw0/homeward/pkg/runner"
	"github.com/aretw0/homeward/pkg/ports"
	"github.com/aretw0/homeward/pkg/session"
	"github.com/prometheus/client_golang/prometheus"
	backend "github.com/redis/go-redis/v9"
)

// App is one vehicle wired to its parameters, persistence and telemetry.
type App struct {
	Config     config.AppConfig
	Logger     *slog.Logger
	Params     *params.Store
	Advisories *logging.AdvisorySink
	Registry   *prometheus.Registry
	Metrics    *observability.Metrics
	Store      ports.SnapshotStore
	Sessions   *session.Manager
	Navigator  *navigator.Navigator
	Telemetry  *mqtt.Publisher // nil unless a broker is configured
	Clock      runner.Clock

	closers []io.Closer
}

// AppOptions overrides parts of the configuration for one invocation.
type AppOptions struct {
	// Dir is the project directory; relative store and log paths resolve against it.
	Dir string
	// Clock drives both the navigator and the loop. Defaults to the wall
	// clock when the scenario is realtime and to a virtual clock otherwise.
	Clock runner.Clock
	// Connect dials MQTT. Tests replace it to avoid a broker.
	Connect func(opts mqtt.Options, vehicleID string, logger *slog.Logger) (*mqtt.Publisher, error)
}

// NewApp builds the application from cfg. Close releases what it opened.
func NewApp(cfg config.AppConfig, opts AppOptions) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if opts.Clock == nil {
		if cfg.Scenario.Realtime {
			opts.Clock = runner.RealClock{}
		} else {
			opts.Clock = runner.NewVirtualClock(time.Now())
		}
	}
	if opts.Connect == nil {
		opts.Connect = mqtt.Connect
	}

	app := &App{Config: cfg, Clock: opts.Clock}

	// 1. Logger
	level, _ := logging.ParseLevel(cfg.Log.Level)
	if cfg.Log.File.Path != "" {
		fileOpts := cfg.Log.File
		fileOpts.Path = resolve(opts.Dir, fileOpts.Path)
		logger, closer := logging.NewWithFile(level, fileOpts)
		app.Logger = logger
		app.closers = append(app.closers, closer)
	} else {
		app.Logger = logging.New(level)
	}

	// 2. Parameters
	values, _ := cfg.ParamValues()
	store, err := params.NewStoreFrom(values)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Params = store

	// 3. Persistence
	if err := app.openStore(opts.Dir); err != nil {
		app.Close()
		return nil, err
	}

	// 4. Telemetry
	app.Advisories = logging.NewAdvisorySink(app.Logger)
	if cfg.MQTT.Broker != "" {
		pub, err := opts.Connect(mqtt.Options{
			Broker:   cfg.MQTT.Broker,
			ClientID: cfg.MQTT.ClientID,
			Username: cfg.MQTT.Username,
			Password: cfg.MQTT.Password,
			Topic:    cfg.MQTT.Topic,
			QoS:      cfg.MQTT.QoS,
			Interval: time.Duration(cfg.MQTT.Interval),
		}, cfg.Scenario.VehicleID, app.Logger)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.Telemetry = pub
		app.Advisories.Attach(pub)
		app.closers = append(app.closers, pub)
	}

	// 5. Metrics and guidance
	app.Registry = prometheus.NewRegistry()
	app.Metrics = observability.NewMetrics(app.Registry)
	hooks := observability.LoggingHooks(app.Logger).Merge(app.Metrics.Hooks())

	app.Navigator = navigator.New(cfg.Navigator, app.Params,
		navigator.WithLogger(app.Logger),
		navigator.WithClock(opts.Clock.Now),
		navigator.WithAdvisorySink(app.Advisories),
		navigator.WithLifecycleHooks(hooks),
	)
	app.Navigator.UpdateVehicle(cfg.Scenario.Start, cfg.Scenario.Landed)
	if err := app.Navigator.SetMode(cfg.Scenario.Mode); err != nil {
		app.Close()
		return nil, err
	}

	return app, nil
}

func (a *App) openStore(dir string) error {
	cfg := a.Config.Store
	sessionOpts := []session.Option{
		session.WithCacheSize(cfg.CacheSize),
		session.WithLogger(a.Logger),
	}

	var base ports.SnapshotStore
	switch cfg.Backend {
	case config.StoreMemory:
		base = memory.NewStore()
	case config.StoreFile:
		path := cfg.Path
		if path == "" {
			path = filepath.Join(".homeward", "sessions")
		}
		base = file.New(resolve(dir, path))
	case config.StoreRedis:
		client := backend.NewClient(&backend.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		store := redis.NewFromClient(client, redisOptions(cfg.Redis)...)
		a.closers = append(a.closers, store)
		base = store
		if cfg.Redis.Lock {
			sessionOpts = append(sessionOpts, session.WithLocker(redis.NewLocker(client, cfg.Redis.Prefix)))
		}
	default:
		return fmt.Errorf("unknown store backend %q", cfg.Backend)
	}

	if cfg.Encryption.Key != "" {
		keys, err := cfg.Encryption.Keys()
		if err != nil {
			return err
		}
		seal, err := middleware.NewEncryptionMiddleware(keys)
		if err != nil {
			return err
		}
		base = middleware.Chain(base, seal)
	}

	a.Store = base
	a.Sessions = session.NewManager(base, sessionOpts...)
	return nil
}

func redisOptions(cfg config.RedisConfig) []redis.Option {
	var opts []redis.Option
	if cfg.Prefix != "" {
		opts = append(opts, redis.WithPrefix(cfg.Prefix))
	}
	if cfg.TTL > 0 {
		opts = append(opts, redis.WithTTL(time.Duration(cfg.TTL)))
	}
	return opts
}

// NewVehicle creates the simulated airframe at the navigator's current position.
func (a *App) NewVehicle() *sim.Vehicle {
	snap := a.Navigator.Snapshot(a.Config.Scenario.VehicleID)
	return sim.NewVehicle(a.Config.Vehicle, snap.Position, snap.Landed)
}

// VehicleID returns the configured vehicle.
func (a *App) VehicleID() string {
	return a.Config.Scenario.VehicleID
}

// Close releases files and connections in reverse order of opening.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func resolve(dir, path string) string {
	if dir == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

// Describe renders the parameter set for display.
func Describe(store *params.Store) []string {
	lines := make([]string, 0, len(params.Definitions))
	for _, key := range store.Keys() {
		def, _ := params.Lookup(key)
		v, _ := store.Float(key)
		lines = append(lines, fmt.Sprintf("%-16s %8g %-2s [%g..%g] %s", key, v, def.Unit, def.Min, def.Max, def.Description))
	}
	return lines
}
