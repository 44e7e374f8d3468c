/*
Package runner implements the fixed-rate guidance loop of a homeward vehicle.

It acts as the bridge between the navigator (which decides where to go) and the
vehicle (which goes there). Each cycle the runner steps the vehicle toward the
current setpoint, feeds the new estimate back, runs one guidance cycle, and
persists the resulting snapshot whenever the setpoint changes.

# Key Components

  - Runner: The loop itself, on a real or virtual clock.
  - EventHandler: Decouples how a run is reported (TextHandler, JSONHandler).
  - SessionManager: Resumes a vehicle from its stored snapshot.
  - Trace: Records the flown path for reports and exports.

# Usage

	r := runner.NewRunner(nav, vehicle,
		runner.WithVehicleID("uav-1"),
		runner.WithStore(store),
		runner.WithHandler(runner.NewTextHandler(os.Stdout)),
	)

	if err := r.Run(ctx); err != nil {
		log.Fatal(err)
	}
*/
package runner
