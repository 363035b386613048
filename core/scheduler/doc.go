// Package scheduler implements the cooperative power-aware task scheduler:
// a registry of tasks keyed by telemetry id, a circular round-robin queue of
// runnable tasks and the energy-gated admission engine that runs one task
// body per RunNext call. Everything runs on a single logical thread of
// control driven by an external polling loop; the scheduler never blocks,
// sleeps or preempts.
package scheduler
