package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/aretw0/homeward/internal/presentation/kml"
	"github.com/aretw0/homeward/internal/presentation/tui"
	"github.com/aretw0/homeward/internal/sim"
	"github.com/aretw0/homeward/pkg/domain"
	"github.com/aretw0/homeward/pkg/runner"
)

// SimulateOptions controls one simulated return.
type SimulateOptions struct {
	// JSON switches event output to newline-delimited JSON.
	JSON bool
	// Resume continues a stored session instead of starting over.
	Resume bool
	// KMLPath, if set, receives the flown track.
	KMLPath string
	// Report prints a markdown summary when the run ends.
	Report bool
	// Output receives events and the report. Defaults to Stdout.
	Output io.Writer
}

// SimulateResult describes a finished run.
type SimulateResult struct {
	Snapshot  *domain.Snapshot
	Resumed   bool
	Elapsed   time.Duration
	Durations map[domain.Phase]time.Duration
	Points    int
}

// RunSimulation flies the configured scenario until the vehicle lands, the
// run times out or ctx is cancelled.
func RunSimulation(ctx context.Context, app *App, opts SimulateOptions) (*SimulateResult, error) {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	cfg := app.Config.Scenario
	id := app.VehicleID()

	// 1. Session
	var resumed bool
	if opts.Resume {
		var err error
		resumed, err = runner.NewSessionManager(app.Sessions).LoadOrStart(ctx, app.Navigator, id)
		if err != nil {
			return nil, err
		}
	} else if err := app.Sessions.Save(ctx, id, app.Navigator.Snapshot(id)); err != nil {
		return nil, fmt.Errorf("failed to initialize session %s: %w", id, err)
	}

	logSessionStatus(opts.Output, app.Logger, id, app.Navigator.Phase(), resumed, opts.JSON)

	var vehicle *sim.Vehicle
	if resumed {
		vehicle = app.NewVehicle()
	} else {
		vehicle = sim.NewVehicle(app.Config.Vehicle, cfg.Start, cfg.Landed)
	}

	// 2. Output
	var handler runner.EventHandler
	if opts.JSON {
		h := runner.NewJSONHandler(opts.Output)
		app.Advisories.Attach(h)
		handler = h
	} else {
		h := runner.NewTextHandler(opts.Output)
		if f, ok := opts.Output.(*os.File); ok && tui.IsTerminal(f) {
			h.Highlight = tui.Highlight()
		}
		app.Advisories.Attach(h)
		handler = h
	}

	clock := app.Clock
	trace := runner.NewTrace(10)
	runOpts := []runner.Option{
		runner.WithVehicleID(id),
		runner.WithStore(app.Sessions),
		runner.WithLogger(app.Logger),
		runner.WithHandler(handler),
		runner.WithRate(time.Duration(cfg.Rate)),
		runner.WithClock(clock),
		runner.WithMaxDuration(time.Duration(cfg.MaxDuration)),
		runner.WithTrace(trace),
	}
	if app.Telemetry != nil {
		runOpts = append(runOpts, runner.WithTickObserver(app.Telemetry.OnTick))
	}

	started := clock.Now()
	runErr := runner.NewRunner(app.Navigator, vehicle, runOpts...).Run(ctx)
	interrupted := ctx.Err() != nil

	result := &SimulateResult{
		Snapshot:  app.Navigator.Snapshot(id),
		Resumed:   resumed,
		Elapsed:   clock.Now().Sub(started),
		Durations: trace.PhaseDurations(),
		Points:    len(trace.Points()),
	}

	// 4. Artifacts
	if opts.KMLPath != "" {
		if err := writeKML(opts.KMLPath, id, result.Snapshot.Home, trace.Points()); err != nil {
			return result, errors.Join(runErr, err)
		}
		app.Logger.Info("track exported", "path", opts.KMLPath, "points", result.Points)
	}

	if opts.Report && !opts.JSON {
		report := tui.Report{
			VehicleID: id,
			Snapshot:  result.Snapshot,
			Elapsed:   result.Elapsed,
			Durations: result.Durations,
			Err:       runErr,
		}
		rendered, err := tui.NewRenderer()(report.Markdown())
		if err != nil {
			rendered = report.Markdown()
		}
		fmt.Fprint(opts.Output, rendered)
	}
	if runErr == nil {
		logCompletion(opts.Output, result.Snapshot, interrupted, opts.JSON)
	}

	return result, runErr
}

func writeKML(path, name string, home domain.HomePosition, points []runner.TracePoint) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := kml.Write(f, name, home, points); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
