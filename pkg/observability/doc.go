/*
Package observability exposes the guidance loop to Prometheus.

Metrics subscribe to the controller through domain.LifecycleHooks, so the
core never imports a metrics library. Hooks run inside the guidance cycle
and only touch in-memory collectors.
*/
package observability
