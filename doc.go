/*
Package homeward implements the return-to-launch (RTL) guidance of a small UAV.

Given the vehicle position, the home position and three tunable altitudes, the
engine decides where the vehicle should fly next. A return climbs to a safe
altitude, flies home, descends, optionally loiters and finally lands, emitting
one setpoint per phase for the host autopilot to follow.

# Concept

The engine is a pure guidance core. The host ("Vehicle") owns the estimate and
the actuators: it feeds positions in, steps the engine at a fixed rate and flies
whatever setpoint comes out. Phase transitions are driven only by the vehicle
reaching its setpoint, or by the landed flag. This keeps the core deterministic
and embeddable in a simulator, an HTTP service or an autopilot bridge.

# Key Features

  - Phase Machine: CLIMB, RETURN, DESCEND, LOITER, LAND and LANDED with a pure phase selection on activation.
  - Live Parameters: RTL_RETURN_ALT, RTL_DESCEND_ALT and RTL_LAND_DELAY are read on every target computation.
  - Resumable Sessions: Snapshots persist to memory, files or Redis and restore mid-return.
  - Observability: Lifecycle hooks feed structured logs, Prometheus metrics and MQTT telemetry.

# Usage

	package main

	import (
		"fmt"
		"log"

		"github.com/aretw0/homeward"
		"github.com/aretw0/homeward/pkg/domain"
	)

	func main() {
		home := domain.HomePosition{Lat: 47.397742, Lon: 8.545594, Alt: 488}
		engine, err := homeward.New(home, homeward.WithParam("RTL_LAND_DELAY", 0))
		if err != nil {
			log.Fatal(err)
		}

		engine.Update(domain.GlobalPosition{Lat: 47.4004, Lon: 8.5456, Alt: 518}, false)
		_ = engine.SetMode(domain.ModeRTL)

		triplet, _ := engine.Step()
		fmt.Println(engine.Phase(), triplet.Current.Alt)
	}

The homeward command wraps the same engine with a simulated airframe:

	homeward simulate --kml track.kml
	homeward serve --addr :8080
	homeward mcp --transport sse
*/
package homeward
