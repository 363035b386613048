// Package events defines the scheduler events emitted on the event bus.
//
// Available event types:
//   - TaskOutcome: a task finished (completed or failed) with optional output
//   - TaskRetried: a task asked to run again later
//   - AdmissionSkip: a task was skipped for lack of battery energy
//   - TaskRunnable: a task joined the runnable queue
package events
