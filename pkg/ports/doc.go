/*
Package ports defines the driven ports (interfaces) for the homeward guidance engine.

These interfaces decouple the return-to-launch controller from the systems that feed it,
allowing the same core to run against a simulator, a live autopilot bridge, or test doubles.

# Key Interfaces

  - NavigationContext: Vehicle status, position estimates and the setpoint triplet.
  - ParameterStore: Live, keyed lookup of tunable parameters.
  - AdvisorySink: Fire-and-forget operator messages.
  - SnapshotStore: Persists vehicle guidance snapshots between runs.
  - DistributedLocker: Coordinates access to a vehicle session across replicas.
*/
package ports
