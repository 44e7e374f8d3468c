package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	api "github.com/aretw0/homeward/pkg/adapters/http"
	"github.com/aretw0/homeward/pkg/adapters/mcp"
	"github.com/aretw0/homeward/pkg/runner"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

// ServeOptions controls the long-running HTTP host.
type ServeOptions struct {
	Addr    string
	Version string
}

// MCPOptions controls the MCP host.
type MCPOptions struct {
	Transport string // stdio or sse
	Port      int
	Version   string
}

// newLiveRunner resumes the vehicle session and builds a loop that never
// stops on landing, so the operator can command a new mode.
func newLiveRunner(ctx context.Context, app *App, handler runner.EventHandler) (*runner.Runner, error) {
	if _, virtual := app.Clock.(*runner.VirtualClock); virtual {
		return nil, errors.New("a live vehicle requires a realtime clock")
	}
	id := app.VehicleID()
	resumed, err := runner.NewSessionManager(app.Sessions).LoadOrStart(ctx, app.Navigator, id)
	if err != nil {
		return nil, err
	}
	if resumed {
		app.Logger.Info("Session Resumed", "vehicle", id, "phase", app.Navigator.Phase().String())
	}

	opts := []runner.Option{
		runner.WithVehicleID(id),
		runner.WithStore(app.Sessions),
		runner.WithLogger(app.Logger),
		runner.WithHandler(handler),
		runner.WithRate(time.Duration(app.Config.Scenario.Rate)),
		runner.WithClock(app.Clock),
		runner.WithStopCondition(nil),
	}
	if app.Telemetry != nil {
		opts = append(opts, runner.WithTickObserver(app.Telemetry.OnTick))
	}
	return runner.NewRunner(app.Navigator, app.NewVehicle(), opts...), nil
}

// Serve runs the vehicle on the wall clock and exposes it over HTTP until
// ctx is cancelled.
func Serve(ctx context.Context, app *App, opts ServeOptions) error {
	if opts.Addr == "" {
		opts.Addr = app.Config.Server.Addr
	}

	srvOpts := []api.Option{
		api.WithSessions(app.Sessions),
		api.WithVersion(opts.Version),
		api.WithLogger(app.Logger),
	}
	if app.Config.Server.Metrics {
		srvOpts = append(srvOpts, api.WithMetrics(promhttp.HandlerFor(app.Registry, promhttp.HandlerOpts{})))
	}
	srv := api.NewServer(app.Navigator, app.VehicleID(), app.Params, srvOpts...)

	loop, err := newLiveRunner(ctx, app, srv)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              opts.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		app.Logger.Info("HTTP server listening", "address", opts.Addr, "vehicle", app.VehicleID())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		// An interrupted loop has saved its session; take the server down with it.
		defer cancel()
		return loop.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		app.Logger.Info("shutting down HTTP server")
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// ServeMCP runs the vehicle on the wall clock and exposes it to MCP clients.
func ServeMCP(ctx context.Context, app *App, opts MCPOptions) error {
	srv := mcp.NewServer(app.Navigator, app.VehicleID(), app.Params, opts.Version, app.Logger)

	loop, err := newLiveRunner(ctx, app, nil)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		return loop.Run(gctx)
	})
	g.Go(func() error {
		defer cancel()
		switch opts.Transport {
		case "sse":
			return srv.ServeSSE(gctx, opts.Port)
		case "stdio", "":
			app.Logger.Info("Starting homeward MCP Server (Stdio)")
			return srv.ServeStdio()
		default:
			return fmt.Errorf("unknown transport %q", opts.Transport)
		}
	})
	return g.Wait()
}
