/*
Package domain contains the core models of the homeward guidance engine.

It defines the vocabulary shared by the return-to-launch controller, its navigation
context and the hosts that drive it: flight phases, mission items, position setpoints
and the snapshot a host persists between runs. This package is kept pure and free of
external dependencies like I/O or persistence, following Hexagonal Architecture principles.

# Key Entities

  - Phase: The step of the return-to-launch sequence (Climb, Return, Descend, Loiter, Land, Landed).
  - MissionItem: The single outstanding navigation target produced for the current phase.
  - SetpointTriplet: The previous/current/next position setpoints consumed by the position controller.
  - Snapshot: A serializable record of a vehicle's guidance state, used for durable sessions.
*/
package domain
